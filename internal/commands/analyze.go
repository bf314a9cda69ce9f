package commands

import (
	"github.com/spf13/cobra"

	"github.com/fabian-co/SelfEconomy/internal/ledger"
	"github.com/fabian-co/SelfEconomy/internal/normalize"
	"github.com/fabian-co/SelfEconomy/internal/runlog"
)

func newAnalyzeCommand(global *globalOptions) *cobra.Command {
	flags := &requestFlags{}

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "List the unique transaction descriptions of a statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := global.open()
			if err != nil {
				return err
			}
			res, err := ws.Process(flags.request(args[0]))
			if err != nil {
				return err
			}
			logRun(ws, res, runlog.ActionAnalyze, "")
			return ledger.EncodeAnalysis(cmd.OutOrStdout(), normalize.Analyze(res.Ledger))
		},
	}

	flags.register(cmd)
	return cmd
}
