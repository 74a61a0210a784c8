// Command flash2vdc ingests a FLASH/Paramesh AMR variable into a VDC
// collection. It reads the Paramesh neighbor-table/payload snapshot
// per source file as JSON (see readers/flash's package doc for why the
// reader's contract starts there rather than at raw FLASH HDF5), then
// resamples each snapshot to a uniform grid and writes it through the
// wavelet-block region writer.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/vaporvdc/vdc/cmd/internal/ingest"
	"github.com/vaporvdc/vdc/readers/flash"
)

func loadSnapshot(path string) (flash.Snapshot, error) {
	var s flash.Snapshot
	f, err := os.Open(path)
	if err != nil {
		return s, err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return s, fmt.Errorf("%s: %v", path, err)
	}
	return s, nil
}

func main() {
	app := &cli.App{
		Name:      "flash2vdc",
		Usage:     "ingest a FLASH/Paramesh AMR variable into a VDC collection",
		ArgsUsage: "<metadata-file> <flash-snapshot-json-file>...",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "ts", Value: 0, Usage: "time step to ingest"},
			&cli.StringFlag{Name: "varname", Usage: "variable name to ingest", Required: true},
			&cli.IntFlag{Name: "level", Value: 0, Usage: "uniform resample level"},
			&cli.BoolFlag{Name: "quiet", Usage: "suppress progress output"},
			&cli.BoolFlag{Name: "debug", Usage: "print extra diagnostic output"},
		},
		Action: func(c *cli.Context) error {
			if c.Args().Len() < 2 {
				return fmt.Errorf("need a metadata file and at least one snapshot file")
			}
			metaPath := c.Args().First()
			files := c.Args().Slice()[1:]

			snaps := make([]flash.Snapshot, 0, len(files))
			for _, f := range files {
				s, err := loadSnapshot(f)
				if err != nil {
					return err
				}
				snaps = append(snaps, s)
			}
			r, err := flash.Open(snaps)
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
		fmt.Fprintf(os.Stderr, "flash2vdc: %v\n", err)
		os.Exit(1)
	}
}
