package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestNoopRecorder_ImplementsRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveBuildDuration(time.Second)
	r.IncBuildOutcome(OutcomeSuccess)
	r.IncDocumentFailure("parse")
	r.SetLiveReloadClients(3)
}

func TestPrometheusRecorder_RegistersAndCounts(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewPrometheusRecorder(reg)

	r.ObservePageRenderDuration(10 * time.Millisecond)
	r.ObserveBuildDuration(time.Second)
	r.IncBuildOutcome(OutcomeFailed)
	r.IncDocumentFailure("template")
	r.IncWatchRebuild()
	r.SetLiveReloadClients(2)
	r.SetSitePages(7)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, fam := range families {
		names[fam.GetName()] = true
	}
	require.True(t, names["sitebuilder_build_outcomes_total"])
	require.True(t, names["sitebuilder_page_render_duration_seconds"])
	require.True(t, names["sitebuilder_livereload_clients"])
}

func TestPrometheusRecorder_NilReceiverSafe(t *testing.T) {
	var r *PrometheusRecorder
	r.ObserveBuildDuration(time.Second)
	r.IncWatchRebuild()
}
