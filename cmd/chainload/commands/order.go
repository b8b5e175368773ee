package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/chainload/internal/ui/report"
)

func (c *CLI) newOrderCmd() *cobra.Command {
	var flags pipelineFlags
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Print plugins in load order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := report.ParseFormat(flags.format)
			if err != nil {
				return err
			}

			d, err := c.app.Discover(cmd.Context(), c.options(&flags))
			if err != nil {
				return err
			}
			return report.New(cmd.OutOrStdout(), format).Order(summarize(d))
		},
	}
	flags.register(cmd, true)
	return cmd
}
