package worker

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry *prometheus.Registry

	jobsTotal        *prometheus.CounterVec
	jobDuration      *prometheus.HistogramVec
	activeJobs       prometheus.Gauge
	stepOutputsTotal *prometheus.CounterVec
	compressionRatio prometheus.Histogram

	pixelsProcessedTotal prometheus.Counter
	bytesSavedTotal      prometheus.Counter
	computeTimeMSTotal   prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		jobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pixelpress_worker_jobs_total",
			Help: "Worker jobs by source type and final status.",
		}, []string{"source_type", "status"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pixelpress_worker_job_duration_seconds",
			Help:    "Wall time spent on each worker job.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"source_type", "status"}),
		activeJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pixelpress_worker_active_jobs",
			Help: "Jobs currently holding a processing slot.",
		}),
		stepOutputsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pixelpress_worker_step_outputs_total",
			Help: "Emitted step outputs by action and encoded format.",
		}, []string{"action", "format"}),
		compressionRatio: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pixelpress_worker_compression_ratio",
			Help:    "Final output size divided by upload size for successful jobs.",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		pixelsProcessedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pixelpress_usage_pixels_processed_total",
			Help: "Pixels processed across all successful jobs.",
		}),
		bytesSavedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pixelpress_usage_bytes_saved_total",
			Help: "Bytes saved between each upload and its final pipeline output.",
		}),
		computeTimeMSTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pixelpress_usage_compute_time_ms_total",
			Help: "Compute time in milliseconds across successful jobs.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.jobsTotal,
		m.jobDuration,
		m.activeJobs,
		m.stepOutputsTotal,
		m.compressionRatio,
		m.pixelsProcessedTotal,
		m.bytesSavedTotal,
		m.computeTimeMSTotal,
	)
	return m
}

func (m *metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
