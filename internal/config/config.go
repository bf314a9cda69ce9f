package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"

	"github.com/fabian-co/SelfEconomy/internal/locale"
	"github.com/fabian-co/SelfEconomy/internal/model"
)

// FileName is the workspace configuration file.
const FileName = "selfeconomy.yaml"

// Config represents the top-level selfeconomy.yaml configuration.
type Config struct {
	Workspace WorkspaceConfig `yaml:"workspace"`
	Defaults  DefaultsConfig  `yaml:"defaults"`
	Log       LogConfig       `yaml:"log"`
	Git       GitConfig       `yaml:"git"`
	Server    ServerConfig    `yaml:"server"`
}

// WorkspaceConfig identifies the workspace.
type WorkspaceConfig struct {
	Name string `yaml:"name"`
}

// DefaultsConfig holds parsing defaults used when a command or request does
// not say otherwise.
type DefaultsConfig struct {
	AccountKind       string   `yaml:"account_kind,omitempty"`
	YearHint          int      `yaml:"year_hint,omitempty"`
	DecimalSeparator  string   `yaml:"decimal_separator,omitempty"`
	ThousandSeparator string   `yaml:"thousand_separator,omitempty"`
	Encodings         []string `yaml:"encodings,omitempty"`
}

// LogConfig selects the log level and output format (console or json).
type LogConfig struct {
	Level  string `yaml:"level"  env:"SELFECONOMY_LOG_LEVEL"`
	Format string `yaml:"format" env:"SELFECONOMY_LOG_FORMAT"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `yaml:"addr" env:"SELFECONOMY_SERVER_ADDR"`
}

// Load reads a selfeconomy.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if _, err := model.ParseAccountKind(cfg.Defaults.AccountKind); err != nil {
		return nil, fmt.Errorf("parsing config: defaults: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// ApplyEnv overrides the log and server settings from SELFECONOMY_*
// environment variables. Unset variables leave the file values alone.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(&c.Log); err != nil {
		return fmt.Errorf("reading log settings from environment: %w", err)
	}
	if err := env.Parse(&c.Server); err != nil {
		return fmt.Errorf("reading server settings from environment: %w", err)
	}
	return nil
}

// Separators returns the configured amount separators.
func (c *Config) Separators() locale.Separators {
	return locale.Separators{
		Decimal:  c.Defaults.DecimalSeparator,
		Thousand: c.Defaults.ThousandSeparator,
	}
}

// AccountKind returns the configured account kind, or "" when each profile
// should use its own.
func (c *Config) AccountKind() model.AccountKind {
	k, err := model.ParseAccountKind(c.Defaults.AccountKind)
	if err != nil || c.Defaults.AccountKind == "" {
		return ""
	}
	return k
}

// Default returns a Config with sensible defaults for a new workspace.
func Default(name string) *Config {
	return &Config{
		Workspace: WorkspaceConfig{Name: name},
		Defaults: DefaultsConfig{
			Encodings: []string{"utf-8", "latin-1", "cp1252"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Git: GitConfig{
			AutoCommit:  false,
			AuthorName:  "SelfEconomy",
			AuthorEmail: "selfeconomy@localhost",
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}
