// Command vdccli is a multi-command inspection and I/O tool for VDC
// collections, grounded on the teacher's inmaputil/cmd.go root and
// subcommand cobra layout.
package main

import (
	"fmt"
	"os"

	"github.com/lnashier/viper"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// cfg bundles the root command with the viper instance its
// subcommands bind flags into, mirroring the teacher's Cfg type.
type cfg struct {
	*viper.Viper
	root *cobra.Command
}

func newCfg() *cfg {
	c := &cfg{Viper: viper.New()}
	c.root = &cobra.Command{
		Use:   "vdccli",
		Short: "Inspect and read/write VDC wavelet-block collections.",
		Long: `vdccli is a multi-command tool for VDC collections: info prints a
collection's metadata, read extracts a voxel sub-region at a chosen
refinement level, write ingests a dense voxel buffer, and amr inspects
AMR octree archives.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setConfig()
		},
		SilenceUsage: true,
	}
	c.root.PersistentFlags().String("config", "", "configuration file location")
	c.BindPFlag("config", c.root.PersistentFlags().Lookup("config"))
	c.SetEnvPrefix("VDCCLI")

	c.root.AddCommand(newInfoCmd(c), newReadCmd(c), newWriteCmd(c), newAMRCmd(c))
	return c
}

// persistentFlags returns the root command's pflag.FlagSet directly,
// for subcommands (none currently) that need to inspect or add to it
// outside cobra's own wrapping.
func (c *cfg) persistentFlags() *pflag.FlagSet {
	return c.root.PersistentFlags()
}

func (c *cfg) setConfig() error {
	path := c.GetString("config")
	if path == "" {
		return nil
	}
	c.SetConfigFile(path)
	if err := c.ReadInConfig(); err != nil {
		return fmt.Errorf("vdccli: reading configuration file: %v", err)
	}
	return nil
}

func main() {
	if err := newCfg().root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "vdccli: %v\n", err)
		os.Exit(1)
	}
}
