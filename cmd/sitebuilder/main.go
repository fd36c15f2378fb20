package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/version"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:""`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		Output string `short:"o" help:"Output directory (overrides config)"`
		Drafts bool   `help:"Include draft documents"`
		Future bool   `help:"Include future-dated posts"`
	} `cmd:"" help:"Build the site into the output directory"`

	Serve struct {
		Port         int           `short:"p" help:"Port to listen on (overrides config)"`
		Watch        bool          `short:"w" help:"Rebuild when source files change"`
		Drafts       bool          `help:"Include draft documents"`
		Future       bool          `help:"Include future-dated posts"`
		RebuildEvery time.Duration `help:"Rebuild on a fixed interval (overrides config)"`
	} `cmd:"" help:"Build the site and serve it with live reload"`

	Init struct {
		Dir   string `arg:"" optional:"" help:"Directory to scaffold (default: current)" default:"."`
		Force bool   `help:"Overwrite existing scaffold files"`
	} `cmd:"" help:"Scaffold a new site with sample content and layouts"`

	List struct {
		Drafts bool `help:"Include draft documents"`
	} `cmd:"" help:"List the documents the site contains"`

	History struct {
		Limit int `short:"n" help:"Number of builds to show" default:"10"`
	} `cmd:"" help:"Show recent build history"`

	Deploy struct {
		Branch  string `help:"Branch to commit to (overrides config)"`
		Remote  string `help:"Remote to push to (overrides config)"`
		Push    bool   `help:"Push the branch after committing"`
		Message string `short:"m" help:"Commit message" default:"Deploy site"`
	} `cmd:"" help:"Build the site and commit it to a deploy branch"`

	Version struct{} `cmd:"" help:"Print version information"`
}

func main() {
	kctx := kong.Parse(&CLI)

	if kctx.Command() == "version" {
		fmt.Printf("sitebuilder %s (commit %s, built %s)\n", version.Version, version.GitCommit, version.BuildTime)
		return
	}

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		// Logging is not configured yet; report plainly.
		fmt.Fprintln(os.Stderr, "sitebuilder:", err)
		os.Exit(1)
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch kctx.Command() {
	case "build":
		err = runBuild(ctx, cfg)
	case "serve":
		err = runServe(ctx, cfg)
	case "init", "init <dir>":
		err = runInit()
	case "list":
		err = runList(cfg)
	case "history":
		err = runHistory(ctx, cfg)
	case "deploy":
		err = runDeploy(ctx, cfg)
	default:
		err = fmt.Errorf("unknown command: %s", kctx.Command())
	}
	if err != nil {
		slog.Error("Command failed", "command", kctx.Command(), "error", err)
		os.Exit(1)
	}
}

func setupLogging(cfg *config.Config) {
	level := cfg.Logging.Level.SlogLevel()
	if CLI.Verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Logging.Format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// newPipeline assembles the build pipeline from config, wiring in the build
// history store when one is configured.
func newPipeline(cfg *config.Config) (*build.Pipeline, func(), error) {
	p := build.New(cfg.Paths.Source, cfg.Paths.Layouts, cfg.Paths.Static, siteInfo(cfg))
	cleanup := func() {}

	if cfg.History.Path != "" {
		store, err := openEventStore(cfg)
		if err != nil {
			return nil, nil, err
		}
		p.Events = store
		cleanup = func() {
			if cerr := store.Close(); cerr != nil {
				slog.Warn("Failed to close build history store", "error", cerr)
			}
		}
	}
	return p, cleanup, nil
}

func newRecorder(cfg *config.Config) (metrics.Recorder, *prom.Registry) {
	if !cfg.Server.Metrics {
		return metrics.NoopRecorder{}, nil
	}
	registry := prom.NewRegistry()
	return metrics.NewPrometheusRecorder(registry), registry
}
