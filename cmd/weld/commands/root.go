// Package commands implements the CLI commands for weld.
package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/weld/internal/adapters/config"
	"go.trai.ch/weld/internal/adapters/telemetry"
	"go.trai.ch/weld/internal/app"
	"go.trai.ch/weld/internal/build"
	"go.trai.ch/weld/internal/core/domain"
	"go.trai.ch/weld/internal/core/ports"
)

// levelSetter is implemented by loggers whose verbosity can change at run time.
type levelSetter interface {
	SetLevel(level domain.LogLevel)
}

// CLI represents the command line interface for weld.
type CLI struct {
	app          *app.App
	configLoader ports.ConfigLoader
	logger       ports.Logger
	rootCmd      *cobra.Command
}

// New creates a new CLI instance from the application components.
func New(c *app.Components) *CLI {
	rootCmd := &cobra.Command{
		Use:           "weld",
		Short:         "Embed a module's dependencies into the module itself",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug output")
	rootCmd.PersistentFlags().Bool("trace", false, "Log a span for every pipeline stage")
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultFilename, "Path to the configuration file")

	cli := &CLI{
		app:          c.App,
		configLoader: c.ConfigLoader,
		logger:       c.Logger,
		rootCmd:      rootCmd,
	}

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		trace, _ := cmd.Flags().GetBool("trace")
		if s, ok := cli.logger.(levelSetter); ok && (verbose || trace) {
			s.SetLevel(domain.LogLevelDebug)
		}
		if !trace {
			cli.app.WithTracer(telemetry.NewNoOpTracer())
		}
	}

	rootCmd.AddCommand(cli.newWeaveCmd())
	rootCmd.AddCommand(cli.newInspectCmd())
	rootCmd.AddCommand(cli.newExecCmd())
	rootCmd.AddCommand(cli.newVersionCmd())

	return cli
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

// SetOut redirects command output. Used for testing.
func (c *CLI) SetOut(w io.Writer) {
	c.rootCmd.SetOut(w)
}
