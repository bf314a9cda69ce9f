package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fabian-co/SelfEconomy/internal/rules"
)

func newRulesCommand(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage keyword rules applied to every statement",
	}
	cmd.AddCommand(newRulesAddCommand(global), newRulesListCommand(global))
	return cmd
}

func newRulesAddCommand(global *globalOptions) *cobra.Command {
	var kind, note string

	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a keyword that excludes a transaction or marks it as income",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := rules.ParseKind(kind)
			if err != nil {
				return err
			}
			ws, err := global.open()
			if err != nil {
				return err
			}
			store, err := ws.Rules()
			if err != nil {
				return err
			}
			if !store.Add(rules.Keyword{Kind: k, Pattern: args[0], Note: note}) {
				fmt.Fprintf(cmd.OutOrStdout(), "Keyword %q (%s) already present\n", args[0], k)
				return nil
			}
			if err := store.Save(ws.Root); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s keyword %q\n", k, args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", string(rules.KindIgnore), "keyword kind (ignore or positive)")
	cmd.Flags().StringVar(&note, "note", "", "free-form note")
	return cmd
}

func newRulesListCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List keyword rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := global.open()
			if err != nil {
				return err
			}
			store, err := ws.Rules()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KIND\tPATTERN\tNOTE")
			for _, kw := range store.All() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", kw.Kind, kw.Pattern, kw.Note)
			}
			return tw.Flush()
		},
	}
}
