// Package commands implements the CLI commands for chainload.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.trai.ch/chainload/internal/app"
	"go.trai.ch/chainload/internal/build"
	"go.trai.ch/chainload/internal/ui/report"
)

// CLI represents the command line interface for chainload.
type CLI struct {
	app     Application
	rootCmd *cobra.Command

	configPath string
	verbose    bool
}

// Application represents the application logic interface.
type Application interface {
	Discover(ctx context.Context, opts app.Options) (*app.Discovery, error)
	Scan(ctx context.Context, opts app.Options) (*app.Discovery, error)
	Clean(ctx context.Context, opts app.Options) error
	Watch(ctx context.Context, opts app.WatchOptions, onChange func(*app.Discovery, error)) error
	SetVerbose(verbose bool)
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "chainload",
		Short:         "Discover plugin binaries and compute their load order",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	// Registered before the default version flag so that -v stays with --verbose.
	rootCmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", "",
		"Configuration file, or directory to search upward from")
	rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentPreRun = func(*cobra.Command, []string) {
		c.app.SetVerbose(c.verbose)
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.AddCommand(c.newOrderCmd())
	rootCmd.AddCommand(c.newScanCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// searchDir returns where the configuration search starts. A file path starts the
// search in its directory.
func (c *CLI) searchDir() string {
	if c.configPath == "" {
		return ""
	}
	if info, err := os.Stat(c.configPath); err == nil && !info.IsDir() {
		return filepath.Dir(c.configPath)
	}
	return c.configPath
}

// pipelineFlags are shared by the commands that run a scan.
type pipelineFlags struct {
	format      string
	process     string
	noCache     bool
	metricsFile string
}

func (f *pipelineFlags) register(cmd *cobra.Command, withFormat bool) {
	if withFormat {
		cmd.Flags().StringVarP(&f.format, "format", "f", string(report.FormatText), "Output format: text, json, or yaml")
	}
	cmd.Flags().StringVarP(&f.process, "process", "p", "", "Host process name, overriding the configuration")
	cmd.Flags().BoolVarP(&f.noCache, "no-cache", "n", false, "Ignore and do not update the metadata caches")
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the run")
}

func (c *CLI) options(f *pipelineFlags) app.Options {
	return app.Options{
		Dir:         c.searchDir(),
		Process:     f.process,
		NoCache:     f.noCache,
		MetricsFile: f.metricsFile,
	}
}

func summarize(d *app.Discovery) report.Summary {
	return report.Summary{
		Root:     d.Config.Root,
		Process:  d.Config.Process,
		Plugins:  d.Plugins,
		Patchers: d.Patchers,
		Stats: report.Stats{
			Plugins:  d.PluginStats,
			Patchers: d.PatcherStats,
		},
		Failures: report.Failures(d.Failures),
	}
}
