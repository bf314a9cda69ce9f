package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fabian-co/SelfEconomy/internal/ledger"
	"github.com/fabian-co/SelfEconomy/internal/reconcile"
)

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <ledger.json>",
		Short: "Validate a ledger's totals, balances, dates and IDs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := ledger.ReadJSON(args[0])
			if err != nil {
				return err
			}
			violations := reconcile.Check(*l)
			out := cmd.OutOrStdout()
			for _, v := range violations {
				fmt.Fprintln(out, v.Error())
			}
			if len(violations) > 0 {
				return fmt.Errorf("%s: %d violations", args[0], len(violations))
			}
			fmt.Fprintf(out, "%s: OK (%d transactions)\n", args[0], len(l.Transactions))
			return nil
		},
	}
}
