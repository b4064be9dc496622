package daemon

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes sync counters for Prometheus scraping.
type Metrics struct {
	registry *prom.Registry

	syncsTotal      *prom.CounterVec
	syncFailures    *prom.CounterVec
	activitiesTotal *prom.CounterVec
	lastSuccess     *prom.GaugeVec
}

// NewMetrics builds a registry with the daemon collectors plus the standard
// Go and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prom.NewRegistry(),
		syncsTotal: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "ridelog", Name: "syncs_total",
			Help: "Total sync runs per channel",
		}, []string{"channel"}),
		syncFailures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "ridelog", Name: "sync_failures_total",
			Help: "Failed sync runs per channel",
		}, []string{"channel"}),
		activitiesTotal: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "ridelog", Name: "activities_processed_total",
			Help: "Activities included in generated output per channel",
		}, []string{"channel"}),
		lastSuccess: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "ridelog", Name: "last_success_timestamp_seconds",
			Help: "Unix time of the last successful sync per channel",
		}, []string{"channel"}),
	}

	m.registry.MustRegister(m.syncsTotal, m.syncFailures, m.activitiesTotal, m.lastSuccess)
	m.registry.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	return m
}

// RecordSync records the outcome of one sync run.
func (m *Metrics) RecordSync(channel string, activities int, err error, completedAtUnix float64) {
	m.syncsTotal.WithLabelValues(channel).Inc()
	if err != nil {
		m.syncFailures.WithLabelValues(channel).Inc()
		return
	}
	m.activitiesTotal.WithLabelValues(channel).Add(float64(activities))
	m.lastSuccess.WithLabelValues(channel).Set(completedAtUnix)
}

// Handler returns the scrape endpoint handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
