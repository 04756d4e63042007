// internal/cli/show_config.go
package cli

import (
	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"

	"github.com/mwiater/llamagallery/internal/appconfig"
)

var showConfigDump bool

// showConfigCmd prints the merged configuration: defaults, then the file, then the
// environment and flags.
var showConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show config settings",
	Long:  `Show config settings ensuring that the JSON configs are loaded properly and overriden by flags accordingly.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config()
		out := cmd.OutOrStdout()
		if showConfigDump {
			cfg.APIKey = appconfig.MaskKey(cfg.APIKey)
			pp.Fprintln(out, cfg)
			return
		}
		appconfig.ShowConfig(out, cfg.ConfigPath, cfg)
	},
}

func init() {
	showConfigCmd.Flags().BoolVar(&showConfigDump, "dump", false, "pretty-print the whole config struct")
	showCmd.AddCommand(showConfigCmd)
}
