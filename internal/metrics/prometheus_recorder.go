package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	pageRenderDuration prom.Histogram
	buildDuration      prom.Histogram
	buildOutcome       *prom.CounterVec
	documentFailures   *prom.CounterVec
	watchRebuilds      prom.Counter
	liveReloadClients  prom.Gauge
	sitePages          prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		pageRenderDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "sitebuilder",
			Name:      "page_render_duration_seconds",
			Help:      "Duration of individual page renders",
			Buckets:   prom.DefBuckets,
		}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "sitebuilder",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitebuilder",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		documentFailures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "sitebuilder",
			Name:      "document_failures_total",
			Help:      "Per-document failures by error category",
		}, []string{"category"}),
		watchRebuilds: prom.NewCounter(prom.CounterOpts{
			Namespace: "sitebuilder",
			Name:      "watch_rebuilds_total",
			Help:      "Rebuilds triggered by filesystem changes",
		}),
		liveReloadClients: prom.NewGauge(prom.GaugeOpts{
			Namespace: "sitebuilder",
			Name:      "livereload_clients",
			Help:      "Connected live-reload clients",
		}),
		sitePages: prom.NewGauge(prom.GaugeOpts{
			Namespace: "sitebuilder",
			Name:      "site_pages",
			Help:      "Pages in the last assembled site",
		}),
	}
	reg.MustRegister(
		pr.pageRenderDuration, pr.buildDuration, pr.buildOutcome,
		pr.documentFailures, pr.watchRebuilds, pr.liveReloadClients, pr.sitePages,
	)
	return pr
}

func (p *PrometheusRecorder) ObservePageRenderDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.pageRenderDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncDocumentFailure(category string) {
	if p == nil {
		return
	}
	p.documentFailures.WithLabelValues(category).Inc()
}

func (p *PrometheusRecorder) IncWatchRebuild() {
	if p == nil {
		return
	}
	p.watchRebuilds.Inc()
}

func (p *PrometheusRecorder) SetLiveReloadClients(n int) {
	if p == nil {
		return
	}
	p.liveReloadClients.Set(float64(n))
}

func (p *PrometheusRecorder) SetSitePages(n int) {
	if p == nil {
		return
	}
	p.sitePages.Set(float64(n))
}
