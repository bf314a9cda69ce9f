package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fabian-co/SelfEconomy/internal/buildinfo"
	"github.com/fabian-co/SelfEconomy/internal/logging"
	"github.com/fabian-co/SelfEconomy/internal/metrics"
	"github.com/fabian-co/SelfEconomy/internal/workspace"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	workspace string
	logLevel  string
	logFormat string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "selfeconomy",
		Short:   "Bank statement parsing and normalization",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.workspace, "workspace", "w", ".", "workspace directory")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error, off)")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format (console, json)")

	rootCmd.AddCommand(
		newInitCommand(),
		newProcessCommand(opts),
		newAnalyzeCommand(opts),
		newTemplateCommand(opts),
		newRulesCommand(opts),
		newRecalcCommand(opts),
		newCheckCommand(),
		newServeCommand(opts),
	)

	return rootCmd
}

// open loads the workspace and wires logging and metrics. Flags override
// the configured log settings.
func (o *globalOptions) open() (*workspace.Workspace, error) {
	root, err := filepath.Abs(o.workspace)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	ws, err := workspace.Open(root)
	if err != nil {
		return nil, fmt.Errorf("opening workspace: %w", err)
	}

	logCfg := logging.Config{Level: ws.Config.Log.Level, Format: ws.Config.Log.Format}
	if o.logLevel != "" {
		logCfg.Level = o.logLevel
	}
	if o.logFormat != "" {
		logCfg.Format = o.logFormat
	}
	ws.Logger = logging.New(logCfg)
	ws.Metrics = metrics.New()
	return ws, nil
}
