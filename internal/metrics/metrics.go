// Package metrics holds the Prometheus metrics of a screening run.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/seenimoa/tierscreen/internal/screener"
)

// Registry holds all Prometheus metrics for one run. A nil *Registry is
// valid and records nothing.
type Registry struct {
	reg *prometheus.Registry

	HTTPRequests   *prometheus.CounterVec
	PagesFetched   *prometheus.CounterVec
	RecordsFetched *prometheus.GaugeVec
	CoinsSkipped   *prometheus.GaugeVec
	CoinsAccepted  prometheus.Gauge
	RunDuration    prometheus.Gauge
}

// New creates a registry with every tierscreen metric registered.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tierscreen_http_requests_total",
				Help: "Market data page requests by endpoint and status (cached, error or HTTP code)",
			},
			[]string{"endpoint", "status"},
		),

		PagesFetched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tierscreen_pages_fetched_total",
				Help: "Pages fetched per data model",
			},
			[]string{"model"},
		),

		RecordsFetched: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tierscreen_records_fetched",
				Help: "Records fetched in the last run per data model",
			},
			[]string{"model"},
		),

		CoinsSkipped: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tierscreen_coins_skipped",
				Help: "Coins rejected in the last run by reason",
			},
			[]string{"reason"},
		),

		CoinsAccepted: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tierscreen_coins_accepted",
				Help: "Coins passing all criteria in the last run",
			},
		),

		RunDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tierscreen_run_duration_seconds",
				Help: "Wall time of the last run in seconds",
			},
		),
	}

	r.reg.MustRegister(
		r.HTTPRequests,
		r.PagesFetched,
		r.RecordsFetched,
		r.CoinsSkipped,
		r.CoinsAccepted,
		r.RunDuration,
	)
	return r
}

// ObserveRequest records one page request.
func (r *Registry) ObserveRequest(endpoint string, status int, cached bool) {
	if r == nil {
		return
	}
	r.HTTPRequests.WithLabelValues(endpoint, statusLabel(status, cached)).Inc()
}

// ObserveFetch records the size of one fetched collection.
func (r *Registry) ObserveFetch(model string, pages, records int) {
	if r == nil {
		return
	}
	r.PagesFetched.WithLabelValues(model).Add(float64(pages))
	r.RecordsFetched.WithLabelValues(model).Set(float64(records))
}

// ObserveResult records the outcome of the filter pipeline.
func (r *Registry) ObserveResult(res *screener.Result, elapsed time.Duration) {
	if r == nil || res == nil {
		return
	}
	for _, reason := range screener.AllReasons() {
		r.CoinsSkipped.WithLabelValues(string(reason)).Set(float64(res.Skipped[reason]))
	}
	r.CoinsAccepted.Set(float64(len(res.Accepted)))
	r.RunDuration.Set(elapsed.Seconds())
}

// WriteTextfile writes all metrics in the node_exporter textfile format.
func (r *Registry) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}

func statusLabel(status int, cached bool) string {
	switch {
	case cached:
		return "cached"
	case status == 0:
		return "error"
	default:
		return strconv.Itoa(status)
	}
}
