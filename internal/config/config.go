// Package config loads and validates site configuration from site.yaml,
// layered with .env files and SITEBUILDER_* environment overrides.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
)

// DefaultFileName is the config file looked up when none is given.
const DefaultFileName = "site.yaml"

// Config is the full site configuration.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Paths   PathsConfig   `yaml:"paths"`
	Build   BuildConfig   `yaml:"build"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	History HistoryConfig `yaml:"history"`
	Notify  NotifyConfig  `yaml:"notify"`
	Deploy  DeployConfig  `yaml:"deploy"`
}

// SiteConfig holds site-wide metadata exposed to templates.
type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	BaseURL     string `yaml:"base_url,omitempty"`
}

// PathsConfig maps the on-disk layout of the site sources.
type PathsConfig struct {
	Source  string `yaml:"source"`
	Layouts string `yaml:"layouts"`
	Static  string `yaml:"static"`
	Output  string `yaml:"output"`
}

// BuildConfig controls which documents are published.
type BuildConfig struct {
	Drafts bool `yaml:"drafts"`
	Future bool `yaml:"future"`
	// ScheduleInterval re-runs the build periodically in serve mode so
	// future-dated posts go live once their date passes. Zero disables it.
	ScheduleInterval Duration `yaml:"schedule_interval,omitempty"`
}

// ServerConfig configures the preview server.
type ServerConfig struct {
	Port       int  `yaml:"port"`
	LiveReload bool `yaml:"live_reload"`
	Metrics    bool `yaml:"metrics"`
}

// LoggingConfig controls slog output.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// HistoryConfig configures the build event log.
type HistoryConfig struct {
	// Path of the sqlite database; empty disables build history.
	Path string `yaml:"path,omitempty"`
}

// NotifyConfig configures optional build-event publishing.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// DeployConfig configures the deploy command.
type DeployConfig struct {
	Branch string `yaml:"branch"`
	Remote string `yaml:"remote"`
	Push   bool   `yaml:"push"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			Title: "My Site",
		},
		Paths: PathsConfig{
			Source:  ".",
			Layouts: "_layouts",
			Static:  "assets",
			Output:  "_site",
		},
		Server: ServerConfig{
			Port:       4000,
			LiveReload: true,
		},
		Logging: LoggingConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
		},
		Deploy: DeployConfig{
			Branch: "gh-pages",
			Remote: "origin",
		},
	}
}

// Load reads the config file at path, layering .env files and environment
// overrides on top of defaults. A missing file at the default path falls
// back to defaults; an explicitly named missing file is an error.
func Load(path string) (*Config, error) {
	loadDotEnv()

	explicit := path != ""
	if path == "" {
		path = DefaultFileName
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, sberrors.ConfigInvalid(path, err)
		}
		slog.Debug("Loaded configuration", "path", path)
	case os.IsNotExist(err) && !explicit:
		slog.Debug("No config file, using defaults", "path", path)
	case os.IsNotExist(err):
		return nil, sberrors.ConfigNotFound(path)
	default:
		return nil, sberrors.ConfigInvalid(path, err)
	}

	applyEnvOverrides(cfg)
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv loads .env then .env.local without overriding process env.
func loadDotEnv() {
	for _, name := range []string{".env", ".env.local"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			slog.Warn("Failed to load env file", "path", name, "error", err)
			continue
		}
		slog.Debug("Loaded environment file", "path", name)
	}
}

// applyEnvOverrides lets SITEBUILDER_* variables override file values, which
// keeps container deployments configurable without editing site.yaml.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SITEBUILDER_BASE_URL"); v != "" {
		cfg.Site.BaseURL = v
	}
	if v := os.Getenv("SITEBUILDER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SITEBUILDER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = NormalizeLogLevel(v)
	}
	if v := os.Getenv("SITEBUILDER_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = NormalizeLogFormat(v)
	}
	if v := os.Getenv("SITEBUILDER_NATS_URL"); v != "" {
		cfg.Notify.NATSURL = v
	}
	if v := os.Getenv("SITEBUILDER_HISTORY_PATH"); v != "" {
		cfg.History.Path = v
	}
}

func (c *Config) normalize() {
	c.Logging.Level = NormalizeLogLevel(string(c.Logging.Level))
	c.Logging.Format = NormalizeLogFormat(string(c.Logging.Format))
	if c.Paths.Source == "" {
		c.Paths.Source = "."
	}
	if c.Paths.Output == "" {
		c.Paths.Output = "_site"
	}
	if c.Deploy.Branch == "" {
		c.Deploy.Branch = "gh-pages"
	}
	if c.Deploy.Remote == "" {
		c.Deploy.Remote = "origin"
	}
}

func (c *Config) validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return sberrors.ConfigInvalid(DefaultFileName, fmt.Errorf("server port %d out of range", c.Server.Port))
	}
	if c.Build.ScheduleInterval < 0 {
		return sberrors.ConfigInvalid(DefaultFileName, fmt.Errorf("schedule_interval must not be negative"))
	}
	if filepath.Clean(c.Paths.Output) == "." {
		return sberrors.ConfigInvalid(DefaultFileName, fmt.Errorf("output directory must not be the source root"))
	}
	return nil
}
