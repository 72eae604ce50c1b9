package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultOK    = "ok"
	resultError = "error"
)

// CronJobMetrics records runs of the maintenance jobs.
type CronJobMetrics struct {
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
}

// NewCronJobMetrics registers the job metrics on reg. A nil reg yields no-op metrics.
func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return nil
	}
	m := &CronJobMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleet_job_runs_total",
			Help: "Maintenance job runs by outcome.",
		}, []string{"job", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fleet_job_duration_seconds",
			Help:    "Duration of maintenance jobs in seconds.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fleet_job_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run per job.",
		}, []string{"job"}),
	}
	reg.MustRegister(m.runs, m.duration, m.lastSuccess)
	return m
}

// ObserveRun records one finished run of job.
func (m *CronJobMetrics) ObserveRun(job string, took time.Duration, err error) {
	if m == nil {
		return
	}
	job = normalizeLabel(job)
	m.duration.WithLabelValues(job).Observe(took.Seconds())
	if err != nil {
		m.runs.WithLabelValues(job, resultError).Inc()
		return
	}
	m.runs.WithLabelValues(job, resultOK).Inc()
	m.lastSuccess.WithLabelValues(job).SetToCurrentTime()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
