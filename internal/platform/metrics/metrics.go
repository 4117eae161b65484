package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated registry served on /metrics.
	Registry = prometheus.NewRegistry()

	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "oil_stage_duration_seconds", Help: "Engine stage duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"stage"},
	)
	StageErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "oil_stage_errors_total", Help: "Engine stage failures."},
		[]string{"stage"},
	)
	LoadsFormed = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "oil_loads_formed_total", Help: "Vehicle loads bound by the load grouper."},
	)
	VolumeAllocated = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "oil_volume_allocated_total", Help: "Large-container units allocated to loads."},
	)
	InsufficiencyFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "oil_insufficiency_failures_total", Help: "Batches aborted for lack of volume or vehicles."},
		[]string{"kind"},
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
)

var regOnce sync.Once

// RegisterDefault registers all collectors on Registry exactly once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(StageDuration, StageErrors, LoadsFormed, VolumeAllocated, InsufficiencyFailures, HTTPRequests)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// ObserveStage records one stage execution.
func ObserveStage(stage string, seconds float64, failed bool) {
	StageDuration.WithLabelValues(stage).Observe(seconds)
	if failed {
		StageErrors.WithLabelValues(stage).Inc()
	}
}
