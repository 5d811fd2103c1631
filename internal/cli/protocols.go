package cli

import (
	"github.com/spf13/cobra"

	"github.com/knock/internal/config"
	"github.com/knock/internal/report"
	"github.com/knock/pkg/protocol"
)

var protocolsCmd = &cobra.Command{
	Use:   "protocols",
	Short: "List the supported protocols",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		names := protocol.NewDefaultRegistry(protocol.DefaultOptions()).Names()
		report.NewPrinter(cmd.OutOrStdout(), config.ColorMode(colorMode)).Protocols(names)
	},
}

func init() {
	rootCmd.AddCommand(protocolsCmd)
}
