// Command grib2vdc ingests one variable from a set of GRIB1 messages
// into a VDC collection, grounded on the teacher's cmd/inmap/main.go
// thin-main pattern and original_source/apps/grib2vdf's option naming.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/vaporvdc/vdc/cmd/internal/ingest"
	"github.com/vaporvdc/vdc/readers/grib"
)

func main() {
	app := &cli.App{
		Name:      "grib2vdc",
		Usage:     "ingest a GRIB1 variable into a VDC collection",
		ArgsUsage: "<metadata-file> <grib-file>...",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "ts", Value: 0, Usage: "time step to ingest"},
			&cli.StringFlag{Name: "varname", Usage: "variable name to ingest", Required: true},
			&cli.IntFlag{Name: "level", Value: 0, Usage: "source level to ingest"},
			&cli.BoolFlag{Name: "quiet", Usage: "suppress progress output"},
			&cli.BoolFlag{Name: "debug", Usage: "print extra diagnostic output"},
		},
		Action: func(c *cli.Context) error {
			if c.Args().Len() < 2 {
				return fmt.Errorf("need a metadata file and at least one GRIB file")
			}
			metaPath := c.Args().First()
			files := c.Args().Slice()[1:]

			r, err := grib.Open(files)
			if err != nil {
				return err
			}

			logger := log.New(io.Discard, "", 0)
			if !c.Bool("quiet") {
				logger = log.New(os.Stdout, "", 0)
			}
			opts := ingest.Options{
				OutDir:  filepath.Dir(metaPath),
				Varname: c.String("varname"),
				TS:      c.Int("ts"),
				Level:   c.Int("level"),
				Quiet:   c.Bool("quiet"),
				Debug:   c.Bool("debug"),
			}
			return ingest.Run(r, opts, logger)
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "grib2vdc: %v\n", err)
		os.Exit(1)
	}
}
