// Package server exposes statement processing over HTTP.
package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/fabian-co/SelfEconomy/internal/buildinfo"
	"github.com/fabian-co/SelfEconomy/internal/importer"
	"github.com/fabian-co/SelfEconomy/internal/ledger"
	"github.com/fabian-co/SelfEconomy/internal/workspace"
)

// maxUpload bounds multipart request bodies.
const maxUpload = 32 << 20

// Server serves the HTTP API of one workspace.
type Server struct {
	app *fiber.App
	ws  *workspace.Workspace
	log zerolog.Logger
}

// New builds the fiber app and registers routes. ws.Metrics must be set for
// /metrics to be served.
func New(ws *workspace.Workspace) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			AppName:               "selfeconomy",
			BodyLimit:             maxUpload,
			DisableStartupMessage: true,
			ErrorHandler:          errorHandler,
		}),
		ws:  ws,
		log: ws.Logger,
	}
	s.app.Use(recover.New())
	s.app.Use(s.logRequests)

	api := s.app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Get("/templates", s.handleTemplates)
	api.Post("/process", s.handleProcess)
	api.Post("/analyze", s.handleAnalyze)

	if ws.Metrics != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(ws.Metrics.Handler()))
	}
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.log.Info().Str("addr", addr).Msg("listening")
	return s.app.Listen(addr)
}

// Shutdown stops the server, waiting up to timeout for open requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	return s.app.ShutdownWithTimeout(timeout)
}

func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		status = fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}
	}
	if s.ws.Metrics != nil {
		s.ws.Metrics.HTTPRequests.WithLabelValues(c.Route().Path, strconv.Itoa(status)).Inc()
	}
	s.log.Info().
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", status).
		Dur("duration", time.Since(start)).
		Msg("request completed")
	return err
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": buildinfo.String(),
	})
}

type templateInfo struct {
	Name        string   `json:"name"`
	Entity      string   `json:"entity"`
	AccountType string   `json:"account_type"`
	FileTypes   []string `json:"file_types"`
}

func (s *Server) handleTemplates(c *fiber.Ctx) error {
	lib, err := s.ws.Templates()
	if err != nil {
		return err
	}
	out := make([]templateInfo, 0, len(lib.All()))
	for _, t := range lib.All() {
		out = append(out, templateInfo{
			Name:        t.FileName,
			Entity:      t.Entity,
			AccountType: t.AccountType,
			FileTypes:   t.FileTypes,
		})
	}
	return c.JSON(out)
}

func (s *Server) handleProcess(c *fiber.Ctx) error {
	req, cleanup, err := s.readRequest(c)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := s.ws.Process(req)
	if err != nil {
		return processError(c, err)
	}

	if c.FormValue("save") == "true" {
		name := strings.TrimSuffix(res.Source.Name, filepath.Ext(res.Source.Name))
		path, err := s.ws.Ledgers().Save(name, res.Ledger)
		if err != nil {
			return err
		}
		c.Set("X-Ledger-Path", path)
	}
	c.Set("X-Profile", res.Profile)
	return c.JSON(ledger.FromLedger(res.Ledger))
}

func (s *Server) handleAnalyze(c *fiber.Ctx) error {
	req, cleanup, err := s.readRequest(c)
	if err != nil {
		return err
	}
	defer cleanup()

	descs, err := s.ws.Analyze(req)
	if err != nil {
		return processError(c, err)
	}
	if descs == nil {
		descs = []string{}
	}
	return c.JSON(ledger.AnalyzeDocument{Descriptions: descs})
}

// readRequest stores the uploaded file in a temporary directory, keeping its
// extension, and reads the processing options from the form.
func (s *Server) readRequest(c *fiber.Ctx) (workspace.Request, func(), error) {
	noop := func() {}
	fh, err := c.FormFile("file")
	if err != nil {
		return workspace.Request{}, noop, fiber.NewError(fiber.StatusBadRequest, "missing form file \"file\"")
	}

	dir, err := os.MkdirTemp("", "selfeconomy-upload-*")
	if err != nil {
		return workspace.Request{}, noop, fmt.Errorf("creating upload dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(dir) }

	path := filepath.Join(dir, filepath.Base(fh.Filename))
	if err := c.SaveFile(fh, path); err != nil {
		cleanup()
		return workspace.Request{}, noop, fmt.Errorf("saving upload: %w", err)
	}

	req := workspace.Request{
		Path:        path,
		Password:    c.FormValue("password"),
		Profile:     c.FormValue("profile"),
		Template:    c.FormValue("template"),
		Institution: c.FormValue("institution"),
		AccountKind: c.FormValue("account_kind"),
	}
	if y := c.FormValue("year"); y != "" {
		req.YearHint, err = strconv.Atoi(y)
		if err != nil {
			cleanup()
			return workspace.Request{}, noop, fiber.NewError(fiber.StatusBadRequest, "year must be a number")
		}
	}
	return req, cleanup, nil
}

// processError maps pipeline errors to status codes: protected sources get
// 401 PASSWORD_REQUIRED, configuration problems 400, undecodable sources 422.
func processError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, importer.ErrPasswordRequired):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "PASSWORD_REQUIRED"})
	case errors.Is(err, importer.ErrNoEncoding):
		return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
	case workspace.IsConfigError(err), errors.Is(err, importer.ErrSourceUnavailable):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return err
	}
}
