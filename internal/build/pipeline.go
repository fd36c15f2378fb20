// Package build orchestrates the pipeline: content scan, per-document
// rendering, site assembly, and output. A single document's failure never
// aborts the rest of the build; failures are collected into the report and
// the overall build is marked failed.
package build

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitebuilder/internal/assemble"
	"git.home.luguber.info/inful/sitebuilder/internal/content"
	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/eventstore"
	"git.home.luguber.info/inful/sitebuilder/internal/layouts"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/render"
)

// Options controls a single pipeline run.
type Options struct {
	// IncludeDrafts renders documents marked draft: true.
	IncludeDrafts bool
	// IncludeFuture renders posts dated after Now.
	IncludeFuture bool
	// Now anchors future-post filtering; zero means wall-clock time.
	Now time.Time
	// Trigger records what started the build (cli, watch, schedule).
	Trigger string
}

// Report summarizes one pipeline run.
type Report struct {
	BuildID   string
	Start     time.Time
	Duration  time.Duration
	Documents int
	Skipped   int
	Tree      assemble.Tree
	Errors    []error
}

// Failed reports whether any document failed during the run.
func (r *Report) Failed() bool { return len(r.Errors) > 0 }

// Outcome returns the metric/event label for the run.
func (r *Report) Outcome() metrics.BuildOutcomeLabel {
	if r.Failed() {
		return metrics.OutcomeFailed
	}
	return metrics.OutcomeSuccess
}

// Pipeline runs builds for one site.
type Pipeline struct {
	source     string
	layoutsDir string
	staticDir  string
	site       render.SiteInfo

	Recorder metrics.Recorder
	Events   eventstore.Store
}

// New creates a pipeline with no-op observability; callers inject Recorder
// and Events as needed.
func New(source, layoutsDir, staticDir string, site render.SiteInfo) *Pipeline {
	return &Pipeline{
		source:     source,
		layoutsDir: layoutsDir,
		staticDir:  staticDir,
		site:       site,
		Recorder:   metrics.NoopRecorder{},
		Events:     eventstore.NopStore{},
	}
}

// Run executes one full build: scan, render, assemble. The returned error is
// non-nil only for fatal conditions (unreadable source root, output errors);
// per-document failures land in the report.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Report, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	report := &Report{
		BuildID: uuid.NewString(),
		Start:   now,
	}
	p.appendEvent(ctx, report.BuildID, eventstore.TypeBuildStarted, []byte(`{}`),
		map[string]string{"trigger": opts.Trigger})

	started := time.Now()
	defer func() {
		report.Duration = time.Since(started)
		p.Recorder.ObserveBuildDuration(report.Duration)
		p.Recorder.IncBuildOutcome(report.Outcome())
		p.finishEvent(ctx, report)
	}()

	scan, err := content.NewStore(p.source).Scan()
	if err != nil {
		report.Errors = append(report.Errors, err)
		return report, err
	}
	for _, docErr := range scan.Errors {
		p.recordFailure(ctx, report, docErr)
	}
	report.Documents = len(scan.Documents) + len(scan.Errors)

	layoutStore, err := layouts.LoadDir(p.layoutsDir)
	if err != nil {
		report.Errors = append(report.Errors, err)
		return report, err
	}

	renderer := render.New(layoutStore, p.site)
	var pages []*render.Page
	for _, doc := range scan.Documents {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if skip, reason := p.shouldSkip(doc, opts, now); skip {
			slog.Debug("Skipping document", "path", doc.RelPath, "reason", reason)
			report.Skipped++
			continue
		}

		renderStart := time.Now()
		page, err := renderer.Document(doc)
		p.Recorder.ObservePageRenderDuration(time.Since(renderStart))
		if err != nil {
			p.recordFailure(ctx, report, err)
			continue
		}
		pages = append(pages, page)
	}

	assembler := assemble.New(p.site)
	tree, err := assembler.Assemble(pages)
	if err != nil {
		report.Errors = append(report.Errors, err)
		return report, err
	}
	if err := assembler.AddStatic(tree, p.staticDir); err != nil {
		report.Errors = append(report.Errors, err)
		return report, err
	}

	report.Tree = tree
	p.Recorder.SetSitePages(len(tree))
	return report, nil
}

func (p *Pipeline) shouldSkip(doc *content.Document, opts Options, now time.Time) (bool, string) {
	if doc.Meta.Draft && !opts.IncludeDrafts {
		return true, "draft"
	}
	if doc.Kind == content.KindPost && !opts.IncludeFuture && doc.Date().After(now) {
		return true, "future-dated"
	}
	return false, ""
}

func (p *Pipeline) recordFailure(ctx context.Context, report *Report, err error) {
	report.Errors = append(report.Errors, err)
	category := string(sberrors.CategoryOf(err))
	p.Recorder.IncDocumentFailure(category)

	payload := eventstore.DocumentErrorPayload{Category: category, Reason: err.Error()}
	var se *sberrors.SiteError
	if sberrors.As(err, &se) {
		payload.Path = se.Path()
	}
	data, merr := json.Marshal(payload)
	if merr != nil {
		return
	}
	p.appendEvent(ctx, report.BuildID, eventstore.TypeDocumentError, data, nil)
}

func (p *Pipeline) finishEvent(ctx context.Context, report *Report) {
	payload, err := json.Marshal(eventstore.FinishedPayload{
		Outcome:    string(report.Outcome()),
		Documents:  report.Documents,
		Pages:      len(report.Tree),
		Failed:     len(report.Errors),
		DurationMS: report.Duration.Milliseconds(),
	})
	if err != nil {
		return
	}
	p.appendEvent(ctx, report.BuildID, eventstore.TypeBuildFinished, payload, nil)
}

func (p *Pipeline) appendEvent(ctx context.Context, buildID, eventType string, payload []byte, metadata map[string]string) {
	if err := p.Events.Append(ctx, buildID, eventType, payload, metadata); err != nil {
		slog.Warn("Failed to persist build event", "type", eventType, "error", err)
	}
}
