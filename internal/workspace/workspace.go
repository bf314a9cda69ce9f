// Package workspace ties a statement directory together: its configuration,
// templates, keyword rules and processed ledgers, and the pipeline that turns
// a statement file into a ledger.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fabian-co/SelfEconomy/internal/config"
	"github.com/fabian-co/SelfEconomy/internal/importer"
	"github.com/fabian-co/SelfEconomy/internal/ledger"
	"github.com/fabian-co/SelfEconomy/internal/metrics"
	"github.com/fabian-co/SelfEconomy/internal/model"
	"github.com/fabian-co/SelfEconomy/internal/normalize"
	"github.com/fabian-co/SelfEconomy/internal/rules"
	"github.com/fabian-co/SelfEconomy/internal/template"
)

var (
	// ErrUnknownProfile means the requested profile is not registered.
	ErrUnknownProfile = errors.New("unknown profile")
	// ErrUnknownTemplate means the requested template is not in the library.
	ErrUnknownTemplate = errors.New("unknown template")
	// ErrNoProfile means no template or profile recognized the source.
	ErrNoProfile = errors.New("no profile recognizes the source")
)

const templatesDir = "templates"

// Workspace is an opened statement directory.
type Workspace struct {
	Root     string
	Config   *config.Config
	Logger   zerolog.Logger
	Metrics  *metrics.Metrics
	Profiles *importer.Registry
	Now      func() time.Time
}

// Open loads <root>/selfeconomy.yaml, falling back to defaults when the
// file does not exist, and applies environment overrides.
func Open(root string) (*Workspace, error) {
	cfg, err := config.Load(filepath.Join(root, config.FileName))
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = config.Default(filepath.Base(root)), nil
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return &Workspace{
		Root:     root,
		Config:   cfg,
		Logger:   zerolog.Nop(),
		Profiles: importer.DefaultRegistry(),
		Now:      time.Now,
	}, nil
}

// Templates loads the template library.
func (w *Workspace) Templates() (*template.Library, error) {
	return template.LoadLibrary(filepath.Join(w.Root, templatesDir))
}

// Rules loads the keyword rules.
func (w *Workspace) Rules() (*rules.Store, error) {
	return rules.Load(w.Root)
}

// Ledgers returns the processed ledger store.
func (w *Workspace) Ledgers() *ledger.Store {
	return ledger.NewStore(w.Root)
}

// Request describes one statement to process.
type Request struct {
	Path        string
	Password    string
	Profile     string
	Template    string
	Institution string
	AccountKind string
	YearHint    int
}

// Result is a processed statement.
type Result struct {
	Ledger  *model.Ledger
	Profile string
	Source  *importer.Source
}

// Process opens the statement, selects a template or profile and
// normalizes it. Configuration errors are returned before any parsing.
func (w *Workspace) Process(req Request) (*Result, error) {
	start := w.Now()
	res, err := w.process(req)
	if err != nil {
		w.fail(err)
		return nil, err
	}
	if w.Metrics != nil {
		w.Metrics.ObserveLedger(res.Profile, res.Ledger, w.Now().Sub(start))
	}
	w.Logger.Info().
		Str("source", res.Source.Name).
		Str("profile", res.Profile).
		Int("transactions", len(res.Ledger.Transactions)).
		Int("excluded", res.Ledger.ExcludedCount()).
		Msg("statement processed")
	return res, nil
}

func (w *Workspace) process(req Request) (*Result, error) {
	opts, err := w.options(req)
	if err != nil {
		return nil, err
	}

	src, err := importer.Open(req.Path, req.Password, w.Config.Defaults.Encodings)
	if err != nil {
		return nil, err
	}
	w.Logger.Debug().
		Str("source", src.Name).
		Str("kind", string(src.Kind)).
		Str("encoding", src.Encoding).
		Int("rows", len(src.Rows)).
		Int("pages", len(src.Pages)).
		Msg("source opened")

	profile, name, err := w.selectProfile(src, req)
	if err != nil {
		return nil, err
	}

	l, err := profile.Parse(src, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &Result{Ledger: l, Profile: name, Source: src}, nil
}

// Analyze processes the statement and returns its unique descriptions.
func (w *Workspace) Analyze(req Request) ([]string, error) {
	res, err := w.Process(req)
	if err != nil {
		return nil, err
	}
	return normalize.Analyze(res.Ledger), nil
}

func (w *Workspace) options(req Request) (normalize.Options, error) {
	kind := w.Config.AccountKind()
	if req.AccountKind != "" {
		k, err := model.ParseAccountKind(req.AccountKind)
		if err != nil {
			return normalize.Options{}, err
		}
		kind = k
	}
	year := w.Config.Defaults.YearHint
	if req.YearHint > 0 {
		year = req.YearHint
	}

	store, err := w.Rules()
	if err != nil {
		return normalize.Options{}, err
	}
	spec := store.Merge(rules.Spec{})
	if _, err := rules.Compile(spec); err != nil {
		return normalize.Options{}, fmt.Errorf("keyword rules: %w", err)
	}

	opts := normalize.Options{
		Institution: req.Institution,
		AccountKind: kind,
		YearHint:    year,
		Separators:  w.Config.Separators(),
		Rules:       spec,
		Now:         w.Now,
		Logger:      w.Logger,
	}
	if w.Metrics != nil {
		opts.Observer = w.Metrics
	}
	return opts, nil
}

// selectProfile honors an explicit template or profile, then tries the
// template library and finally profile detection.
func (w *Workspace) selectProfile(src *importer.Source, req Request) (importer.Profile, string, error) {
	if req.Template != "" {
		lib, err := w.Templates()
		if err != nil {
			return nil, "", err
		}
		t, ok := lib.Get(req.Template)
		if !ok {
			return nil, "", fmt.Errorf("%w: %s", ErrUnknownTemplate, req.Template)
		}
		return &importer.TemplateProfile{Template: t}, "template:" + t.FileName, nil
	}
	if req.Profile != "" {
		p := w.Profiles.Get(req.Profile)
		if p == nil {
			return nil, "", fmt.Errorf("%w: %s (known: %s)", ErrUnknownProfile, req.Profile, strings.Join(w.Profiles.Formats(), ", "))
		}
		return p, p.Format(), nil
	}

	lib, err := w.Templates()
	if err != nil {
		return nil, "", err
	}
	if t, ok := lib.Match(importer.TextOf(src), src.Ext); ok {
		return &importer.TemplateProfile{Template: t}, "template:" + t.FileName, nil
	}
	if p := w.Profiles.Detect(src); p != nil {
		return p, p.Format(), nil
	}
	return nil, "", fmt.Errorf("%w: %s", ErrNoProfile, src.Name)
}

func (w *Workspace) fail(err error) {
	reason := FailureReason(err)
	if w.Metrics != nil {
		w.Metrics.Failed(reason)
	}
	w.Logger.Warn().Err(err).Str("reason", reason).Msg("statement not processed")
}

// FailureReason classifies a processing error for metrics and responses.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, importer.ErrPasswordRequired):
		return "password_required"
	case errors.Is(err, importer.ErrNoEncoding):
		return "no_encoding"
	case errors.Is(err, importer.ErrSourceUnavailable):
		return "source_unavailable"
	case IsConfigError(err):
		return "configuration"
	default:
		return "internal"
	}
}

// IsConfigError reports whether err comes from the request or workspace
// configuration rather than from the statement contents.
func IsConfigError(err error) bool {
	return errors.Is(err, template.ErrInvalidTemplate) ||
		errors.Is(err, rules.ErrInvalidPattern) ||
		errors.Is(err, importer.ErrUnsupportedFormat) ||
		errors.Is(err, ErrUnknownProfile) ||
		errors.Is(err, ErrUnknownTemplate) ||
		errors.Is(err, ErrNoProfile) ||
		errors.Is(err, model.ErrUnknownAccountKind)
}
