package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fabian-co/SelfEconomy/internal/importer"
	"github.com/fabian-co/SelfEconomy/internal/template"
	"github.com/fabian-co/SelfEconomy/internal/workspace"
)

func newTemplateCommand(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Manage statement templates",
	}
	cmd.AddCommand(
		newTemplateListCommand(global),
		newTemplateMatchCommand(global),
		newTemplatePreviewCommand(global),
		newTemplateAddCommand(global),
	)
	return cmd
}

func newTemplateListCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List templates in templates/",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := global.open()
			if err != nil {
				return err
			}
			lib, err := ws.Templates()
			if err != nil {
				return err
			}
			return printTemplates(cmd.OutOrStdout(), lib.All())
		},
	}
}

func printTemplates(out io.Writer, templates []*template.Template) error {
	if len(templates) == 0 {
		fmt.Fprintln(out, "No templates")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tENTITY\tACCOUNT\tFILE TYPES")
	for _, t := range templates {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%v\n", t.FileName, t.Entity, t.AccountType, t.FileTypes)
	}
	return tw.Flush()
}

func newTemplateMatchCommand(global *globalOptions) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "match <file>",
		Short: "Show which template recognizes a statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := global.open()
			if err != nil {
				return err
			}
			src, err := openSource(ws, args[0], password)
			if err != nil {
				return err
			}
			lib, err := ws.Templates()
			if err != nil {
				return err
			}
			if t, ok := lib.Match(importer.TextOf(src), src.Ext); ok {
				fmt.Fprintln(cmd.OutOrStdout(), t.FileName)
				return nil
			}
			if p := ws.Profiles.Detect(src); p != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "No template matches; profile %s detects it\n", p.Format())
				return nil
			}
			return fmt.Errorf("%w: %s", workspace.ErrNoProfile, src.Name)
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "password for protected files")
	return cmd
}

func newTemplatePreviewCommand(global *globalOptions) *cobra.Command {
	var password string
	var limit int

	cmd := &cobra.Command{
		Use:   "preview <template> <file>",
		Short: "Show the raw matches a template finds in a statement",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := global.open()
			if err != nil {
				return err
			}
			lib, err := ws.Templates()
			if err != nil {
				return err
			}
			t, ok := lib.Get(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", workspace.ErrUnknownTemplate, args[0])
			}
			engine, err := template.Compile(t, nil)
			if err != nil {
				return err
			}
			src, err := openSource(ws, args[1], password)
			if err != nil {
				return err
			}

			matches := engine.Preview(importer.TextOf(src), limit)
			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tDESCRIPTION\tVALUE")
			for _, m := range matches {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Date, m.Description, m.Value)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "%d matches\n", len(matches))
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "password for protected files")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum matches to show (0 for all)")
	return cmd
}

func newTemplateAddCommand(global *globalOptions) *cobra.Command {
	var ext string

	cmd := &cobra.Command{
		Use:   "add <file>",
		Short: "Validate a JSON or YAML template and add it to templates/",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := global.open()
			if err != nil {
				return err
			}
			t, err := template.Load(args[0])
			if err != nil {
				return err
			}
			lib, err := ws.Templates()
			if err != nil {
				return err
			}
			name, err := lib.Save(t, ext)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved template %s\n", name)
			return nil
		},
	}

	cmd.Flags().StringVar(&ext, "ext", "", "statement file type the template is for, when it lists none")
	return cmd
}

func openSource(ws *workspace.Workspace, path, password string) (*importer.Source, error) {
	return importer.Open(path, password, ws.Config.Defaults.Encodings)
}
