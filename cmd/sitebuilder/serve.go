package main

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/notify"
	"git.home.luguber.info/inful/sitebuilder/internal/scheduler"
	"git.home.luguber.info/inful/sitebuilder/internal/server"
	"git.home.luguber.info/inful/sitebuilder/internal/watch"
)

func runServe(ctx context.Context, cfg *config.Config) error {
	pipeline, cleanup, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	recorder, registry := newRecorder(cfg)
	pipeline.Recorder = recorder

	var publisher *notify.Publisher
	if cfg.Notify.NATSURL != "" {
		publisher, err = notify.NewPublisher(cfg.Notify.NATSURL, cfg.Notify.Subject)
		if err != nil {
			// Preview works fine without event publishing.
			slog.Warn("Build event publishing disabled", "error", err)
		} else {
			defer publisher.Close()
		}
	}

	port := cfg.Server.Port
	if CLI.Serve.Port != 0 {
		port = CLI.Serve.Port
	}
	srv := server.New(port, recorder, registry, cfg.Server.LiveReload)

	opts := build.Options{
		IncludeDrafts: CLI.Serve.Drafts || cfg.Build.Drafts,
		IncludeFuture: CLI.Serve.Future || cfg.Build.Future,
	}

	rebuild := func(ctx context.Context, trigger string) error {
		runOpts := opts
		runOpts.Trigger = trigger
		report, rerr := pipeline.Run(ctx, runOpts)
		if rerr != nil {
			return rerr
		}
		if report.Failed() {
			logDocumentErrors(report)
		}
		// Serve whatever rendered; failed documents are simply absent.
		srv.Swap(report.Tree)
		publishBuildEvent(ctx, publisher, report)
		return nil
	}

	if err := rebuild(ctx, "serve"); err != nil {
		return err
	}
	if err := srv.Start(ctx); err != nil {
		return err
	}

	if CLI.Serve.Watch {
		roots := []string{cfg.Paths.Source, cfg.Paths.Layouts, cfg.Paths.Static}
		watcher := watch.New(roots, func(ctx context.Context) error {
			return rebuild(ctx, "watch")
		}, recorder)
		go func() {
			if werr := watcher.Run(ctx); werr != nil {
				slog.Error("Watcher stopped", "error", werr)
			}
		}()
	}

	interval := cfg.Build.ScheduleInterval.Std()
	if CLI.Serve.RebuildEvery > 0 {
		interval = CLI.Serve.RebuildEvery
	}
	if interval > 0 {
		sched, serr := scheduler.New()
		if serr != nil {
			return serr
		}
		jobID, serr := sched.ScheduleRebuild(interval, func() {
			if rerr := rebuild(ctx, "schedule"); rerr != nil {
				slog.Warn("Scheduled rebuild failed", "error", rerr)
			}
		})
		if serr != nil {
			return serr
		}
		sched.Start()
		slog.Info("Scheduled rebuilds enabled", "interval", interval, "job", jobID)
		defer func() {
			if serr := sched.Stop(); serr != nil {
				slog.Warn("Scheduler shutdown failed", "error", serr)
			}
		}()
	}

	<-ctx.Done()
	slog.Info("Shutting down preview server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

func publishBuildEvent(ctx context.Context, publisher *notify.Publisher, report *build.Report) {
	if publisher == nil {
		return
	}
	event := notify.BuildEvent{
		BuildID:   report.BuildID,
		Outcome:   string(report.Outcome()),
		Pages:     len(report.Tree),
		Failed:    len(report.Errors),
		Duration:  report.Duration.String(),
		Timestamp: report.Start,
	}
	if err := publisher.Publish(ctx, event); err != nil {
		slog.Warn("Failed to publish build event", "error", err)
	}
}
