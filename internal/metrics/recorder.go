package metrics

import "time"

// BuildOutcomeLabel enumerates final build statuses for counters.
type BuildOutcomeLabel string

const (
	OutcomeSuccess BuildOutcomeLabel = "success"
	OutcomeFailed  BuildOutcomeLabel = "failed"
)

// Recorder defines observability hooks for build and serve metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc. All methods
// must be safe on the NoopRecorder so injection stays optional.
type Recorder interface {
	ObservePageRenderDuration(d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome BuildOutcomeLabel)
	IncDocumentFailure(category string)
	IncWatchRebuild()
	SetLiveReloadClients(n int)
	SetSitePages(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObservePageRenderDuration(time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)      {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)       {}
func (NoopRecorder) IncDocumentFailure(string)               {}
func (NoopRecorder) IncWatchRebuild()                        {}
func (NoopRecorder) SetLiveReloadClients(int)                {}
func (NoopRecorder) SetSitePages(int)                        {}
