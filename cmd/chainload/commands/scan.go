package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/chainload/internal/ui/report"
)

func (c *CLI) newScanCmd() *cobra.Command {
	var flags pipelineFlags
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List plugin and patcher binaries without resolving dependencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := report.ParseFormat(flags.format)
			if err != nil {
				return err
			}

			d, err := c.app.Scan(cmd.Context(), c.options(&flags))
			if err != nil {
				return err
			}
			return report.New(cmd.OutOrStdout(), format).Scan(summarize(d))
		},
	}
	flags.register(cmd, true)
	return cmd
}
