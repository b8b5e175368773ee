package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.trai.ch/chainload/internal/app"
	"go.trai.ch/chainload/internal/ui/report"
	"go.trai.ch/chainload/internal/ui/style"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	var (
		flags    pipelineFlags
		debounce time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the load order again whenever plugin directories change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			renderer := report.New(cmd.OutOrStdout(), report.FormatText)
			opts := app.WatchOptions{Options: c.options(&flags), Debounce: debounce}

			return c.app.Watch(cmd.Context(), opts, func(d *app.Discovery, err error) {
				if err != nil {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", style.Cross, err)
					return
				}
				_ = renderer.Order(summarize(d))
			})
		},
	}
	flags.register(cmd, false)
	cmd.Flags().DurationVar(&debounce, "debounce", 0, "Quiet period before rescanning (default 250ms)")
	return cmd
}
