package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fabian-co/SelfEconomy/internal/ledger"
	"github.com/fabian-co/SelfEconomy/internal/reconcile"
	"github.com/fabian-co/SelfEconomy/internal/rules"
	"github.com/fabian-co/SelfEconomy/internal/runlog"
)

func newRecalcCommand(global *globalOptions) *cobra.Command {
	var keywords, positive, negative []string

	cmd := &cobra.Command{
		Use:   "recalc <ledger.json>",
		Short: "Re-mark excluded transactions and recompute totals",
		Long: `Re-mark excluded transactions and recompute totals.

Transactions whose description contains any keyword are excluded; all others
are included. Without --keyword the workspace ignore keywords are used.
--positive and --negative force the sign of every transaction whose
description contains the text before totals are recomputed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := global.open()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("keyword") {
				store, err := ws.Rules()
				if err != nil {
					return err
				}
				keywords = store.Patterns(rules.KindIgnore)
			}

			path := args[0]
			l, err := ledger.ReadJSON(path)
			if err != nil {
				return err
			}
			resigned := 0
			for _, kw := range positive {
				resigned += reconcile.Resign(l, kw, true)
			}
			for _, kw := range negative {
				resigned += reconcile.Resign(l, kw, false)
			}
			reconcile.Recalculate(l, keywords)
			if err := ledger.WriteJSON(path, l); err != nil {
				return err
			}

			entry := runlog.Entry{
				Timestamp:    ws.Now(),
				Source:       filepath.Base(path),
				Profile:      l.Meta.Institution,
				Action:       runlog.ActionRecalc,
				Transactions: len(l.Transactions),
				Excluded:     l.ExcludedCount(),
			}
			if err := runlog.Append(ws.Root, []runlog.Entry{entry}); err != nil {
				ws.Logger.Warn().Err(err).Msg("writing run log")
			}

			s := l.Meta.Summary
			fmt.Fprintf(cmd.OutOrStdout(), "Recalculated %s: %d resigned, %d excluded, credits %s, debits %s, closing %s\n",
				path, resigned, l.ExcludedCount(), s.TotalCredits.StringFixed(2), s.TotalDebits.StringFixed(2), s.ClosingBalance.StringFixed(2))
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&keywords, "keyword", "k", nil, "exclusion keyword (repeatable)")
	cmd.Flags().StringArrayVar(&positive, "positive", nil, "make matching transactions credits (repeatable)")
	cmd.Flags().StringArrayVar(&negative, "negative", nil, "make matching transactions debits (repeatable)")
	return cmd
}
