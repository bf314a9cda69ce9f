package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fabian-co/SelfEconomy/internal/gitops"
	"github.com/fabian-co/SelfEconomy/internal/importer"
	"github.com/fabian-co/SelfEconomy/internal/ledger"
	"github.com/fabian-co/SelfEconomy/internal/runlog"
	"github.com/fabian-co/SelfEconomy/internal/workspace"
)

// requestFlags are the processing options shared by process and analyze.
type requestFlags struct {
	password    string
	profile     string
	template    string
	institution string
	accountKind string
	year        int
}

func (f *requestFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.password, "password", "", "password for protected PDF or Excel files")
	flags.StringVar(&f.profile, "profile", "", "force a built-in profile (bancolombia, nu)")
	flags.StringVar(&f.template, "template", "", "force a template file name from templates/")
	flags.StringVar(&f.institution, "institution", "", "institution name recorded in the ledger")
	flags.StringVar(&f.accountKind, "account-kind", "", "account kind (debit or credit)")
	flags.IntVar(&f.year, "year", 0, "year for dates that carry none")
}

func (f *requestFlags) request(path string) workspace.Request {
	return workspace.Request{
		Path:        path,
		Password:    f.password,
		Profile:     f.profile,
		Template:    f.template,
		Institution: f.institution,
		AccountKind: f.accountKind,
		YearHint:    f.year,
	}
}

type processOptions struct {
	requestFlags
	name   string
	output string
	csv    string
	commit bool
	all    bool
}

func newProcessCommand(global *globalOptions) *cobra.Command {
	opts := &processOptions{}

	cmd := &cobra.Command{
		Use:   "process [file]",
		Short: "Parse a statement into a normalized ledger",
		Long: `Parse a statement into a normalized ledger.

The ledger is saved under processed/<institution>/<name>.json unless --output
is given. With --all, every statement in import/ is processed and moved to
import/processed/.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.all == (len(args) == 1) {
				return errors.New("give either a file or --all")
			}
			ws, err := global.open()
			if err != nil {
				return err
			}
			if opts.all {
				return runProcessAll(cmd.OutOrStdout(), ws, opts)
			}
			return runProcess(cmd.OutOrStdout(), ws, opts, args[0])
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&opts.name, "name", "", "ledger name (defaults to the file name)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the ledger JSON to this path instead of the store (- for stdout)")
	cmd.Flags().StringVar(&opts.csv, "csv", "", "also write the transactions as CSV to this path")
	cmd.Flags().BoolVar(&opts.commit, "commit", false, "commit the stored ledger to git")
	cmd.Flags().BoolVar(&opts.all, "all", false, "process every statement in import/")

	return cmd
}

func runProcess(out io.Writer, ws *workspace.Workspace, opts *processOptions, path string) error {
	res, err := ws.Process(opts.request(path))
	if err != nil {
		return err
	}

	dest, err := writeLedger(out, ws, opts, res)
	if err != nil {
		return err
	}

	hash, err := commitLedger(ws, opts, res, dest)
	if err != nil {
		return err
	}
	logRun(ws, res, runlog.ActionProcess, hash)

	if opts.output != "-" {
		fmt.Fprintf(out, "Processed %s with %s: %d transactions (%d excluded) -> %s\n",
			res.Source.Name, res.Profile, len(res.Ledger.Transactions), res.Ledger.ExcludedCount(), dest)
	}
	return nil
}

func runProcessAll(out io.Writer, ws *workspace.Workspace, opts *processOptions) error {
	files, err := importer.Scan(ws.Root)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(out, "No statements in import/")
		return nil
	}

	failed := 0
	for _, f := range files {
		single := *opts
		single.all = false
		single.output = ""
		single.csv = ""
		single.name = ""
		if err := runProcess(out, ws, &single, f.Path); err != nil {
			failed++
			fmt.Fprintf(out, "Failed %s: %v\n", f.Name, err)
			continue
		}
		if err := importer.MarkProcessed(ws.Root, f.Name); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d statements failed", failed, len(files))
	}
	return nil
}

// writeLedger writes the ledger where the options ask and returns the path
// written, or "-" for stdout.
func writeLedger(out io.Writer, ws *workspace.Workspace, opts *processOptions, res *workspace.Result) (string, error) {
	if opts.csv != "" {
		if err := writeCSV(opts.csv, res); err != nil {
			return "", err
		}
	}

	switch opts.output {
	case "-":
		return "-", ledger.Encode(out, res.Ledger)
	case "":
		name := opts.name
		if name == "" {
			name = strings.TrimSuffix(res.Source.Name, filepath.Ext(res.Source.Name))
		}
		return ws.Ledgers().Save(name, res.Ledger)
	default:
		return opts.output, ledger.WriteJSON(opts.output, res.Ledger)
	}
}

func writeCSV(path string, res *workspace.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating CSV: %w", err)
	}
	if err := ledger.WriteCSV(f, res.Ledger.Transactions); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing CSV: %w", err)
	}
	return nil
}

// commitLedger commits a stored ledger when asked to, or when the workspace
// enables auto commit. Ledgers written outside the store are not committed.
func commitLedger(ws *workspace.Workspace, opts *processOptions, res *workspace.Result, dest string) (string, error) {
	if opts.output != "" || !(opts.commit || ws.Config.Git.AutoCommit) {
		return "", nil
	}
	if !gitops.IsRepo(ws.Root) {
		if opts.commit {
			return "", fmt.Errorf("%s is not a git repository", ws.Root)
		}
		return "", nil
	}

	rel, err := filepath.Rel(ws.Root, dest)
	if err != nil {
		return "", fmt.Errorf("resolving ledger path: %w", err)
	}
	repo := &gitops.Repo{Dir: ws.Root, AuthorName: ws.Config.Git.AuthorName, AuthorEmail: ws.Config.Git.AuthorEmail}
	msg := fmt.Sprintf("process: %s (%s, %d transactions)", res.Source.Name, res.Profile, len(res.Ledger.Transactions))
	hash, err := repo.Commit(msg, rel)
	if errors.Is(err, gitops.ErrNothingToCommit) {
		return "", nil
	}
	return hash, err
}

// logRun appends to the run log. Failures are logged, not returned: the
// ledger is already written.
func logRun(ws *workspace.Workspace, res *workspace.Result, action, hash string) {
	entry := runlog.Entry{
		Timestamp:    ws.Now(),
		Source:       res.Source.Name,
		Profile:      res.Profile,
		Action:       action,
		Transactions: len(res.Ledger.Transactions),
		Excluded:     res.Ledger.ExcludedCount(),
		CommitHash:   hash,
	}
	if err := runlog.Append(ws.Root, []runlog.Entry{entry}); err != nil {
		ws.Logger.Warn().Err(err).Msg("writing run log")
	}
}
