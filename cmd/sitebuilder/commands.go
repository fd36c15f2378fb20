package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/deploy"
	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/eventstore"
	"git.home.luguber.info/inful/sitebuilder/internal/render"
)

func siteInfo(cfg *config.Config) render.SiteInfo {
	return render.SiteInfo{
		Title:       cfg.Site.Title,
		Description: cfg.Site.Description,
		BaseURL:     cfg.Site.BaseURL,
	}
}

func openEventStore(cfg *config.Config) (*eventstore.SQLiteStore, error) {
	return eventstore.NewSQLiteStore(cfg.History.Path)
}

func runBuild(ctx context.Context, cfg *config.Config) error {
	pipeline, cleanup, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	output := cfg.Paths.Output
	if CLI.Build.Output != "" {
		output = CLI.Build.Output
	}

	report, err := pipeline.Run(ctx, build.Options{
		IncludeDrafts: CLI.Build.Drafts || cfg.Build.Drafts,
		IncludeFuture: CLI.Build.Future || cfg.Build.Future,
		Trigger:       "cli",
	})
	if err != nil {
		return err
	}

	if err := report.Tree.WriteTo(output); err != nil {
		return err
	}
	slog.Info("Site written",
		"output", output,
		"pages", len(report.Tree),
		"documents", report.Documents,
		"duration", report.Duration)

	if report.Failed() {
		logDocumentErrors(report)
		return fmt.Errorf("build finished with %d failed document(s)", len(report.Errors))
	}
	return nil
}

// logDocumentErrors reports each failed document with its path and reason so
// authors can fix sources without digging through a stack trace.
func logDocumentErrors(report *build.Report) {
	for _, err := range report.Errors {
		var se *sberrors.SiteError
		if sberrors.As(err, &se) {
			slog.Error("Document failed", "path", se.Path(), "category", se.Category, "reason", se.Message)
		} else {
			slog.Error("Document failed", "error", err)
		}
	}
}

func runInit() error {
	dir := CLI.Init.Dir
	slog.Info("Scaffolding new site", "dir", dir, "force", CLI.Init.Force)
	if err := config.Scaffold(dir, CLI.Init.Force); err != nil {
		return err
	}
	slog.Info("Site scaffolded; run `sitebuilder serve --watch` to preview")
	return nil
}

func runList(cfg *config.Config) error {
	store := content.NewStore(cfg.Paths.Source)
	result, err := store.Scan()
	if err != nil {
		return err
	}

	for _, doc := range result.Documents {
		if doc.Meta.Draft && !CLI.List.Drafts {
			continue
		}
		marker := " "
		if doc.Meta.Draft {
			marker = "D"
		}
		switch doc.Kind {
		case content.KindPost:
			fmt.Printf("%s post  %s  %s  %s\n", marker, doc.Date().Format("2006-01-02"), doc.Permalink(), doc.Title())
		default:
			fmt.Printf("%s page  %s  %s\n", marker, doc.Permalink(), doc.Title())
		}
	}
	for _, serr := range result.Errors {
		var se *sberrors.SiteError
		if sberrors.As(serr, &se) {
			fmt.Printf("! error %s: %s\n", se.Path(), se.Message)
		} else {
			fmt.Printf("! error: %v\n", serr)
		}
	}
	return nil
}

func runHistory(ctx context.Context, cfg *config.Config) error {
	if cfg.History.Path == "" {
		return fmt.Errorf("build history is not configured; set history.path in %s", config.DefaultFileName)
	}
	store, err := openEventStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	events, err := store.RecentBuilds(ctx, CLI.History.Limit)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("No builds recorded yet.")
		return nil
	}

	for _, ev := range events {
		var payload eventstore.FinishedPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			slog.Warn("Skipping malformed build event", "build_id", ev.BuildID, "error", err)
			continue
		}
		fmt.Printf("%s  %-7s  pages=%-4d failed=%-3d %s  build=%s\n",
			ev.Timestamp.Format(time.RFC3339),
			payload.Outcome,
			payload.Pages,
			payload.Failed,
			(time.Duration(payload.DurationMS) * time.Millisecond).String(),
			ev.BuildID)
	}
	return nil
}

func runDeploy(ctx context.Context, cfg *config.Config) error {
	pipeline, cleanup, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := pipeline.Run(ctx, build.Options{Trigger: "deploy"})
	if err != nil {
		return err
	}
	if report.Failed() {
		logDocumentErrors(report)
		return fmt.Errorf("refusing to deploy a failed build (%d document errors)", len(report.Errors))
	}

	d := deploy.New(cfg.Paths.Output)
	d.Branch = cfg.Deploy.Branch
	if CLI.Deploy.Branch != "" {
		d.Branch = CLI.Deploy.Branch
	}
	if CLI.Deploy.Push || cfg.Deploy.Push {
		d.Remote = cfg.Deploy.Remote
		if CLI.Deploy.Remote != "" {
			d.Remote = CLI.Deploy.Remote
		}
	}

	hash, err := d.Deploy(ctx, report.Tree, CLI.Deploy.Message)
	if errors.Is(err, deploy.ErrNoChanges) {
		slog.Info("Site unchanged; nothing to deploy")
		return nil
	}
	if err != nil {
		return err
	}
	slog.Info("Deploy complete", "branch", d.Branch, "commit", hash)
	return nil
}
