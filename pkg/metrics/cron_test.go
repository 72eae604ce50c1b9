package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/Kwakusharp7/fleet-managment/pkg/enums"
)

func TestCronJobMetricsRecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCronJobMetrics(reg)
	job := "outbox-retention"
	metrics.ObserveRun(job, 250*time.Millisecond, nil)
	metrics.ObserveRun(job, time.Second, errors.New("boom"))

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got := countWithLabels(mfs, "fleet_job_runs_total", map[string]string{"job": job, "result": "ok"}); got != 1 {
		t.Fatalf("expected ok=1, got %f", got)
	}
	if got := countWithLabels(mfs, "fleet_job_runs_total", map[string]string{"job": job, "result": "error"}); got != 1 {
		t.Fatalf("expected error=1, got %f", got)
	}
	if got, err := fetchHistogramSum(mfs, "fleet_job_duration_seconds", "job", job); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got < 1.25 {
		t.Fatalf("expected duration sum >= 1.25, got %f", got)
	}
	if mf := findMetricFamily(mfs, "fleet_job_last_success_timestamp_seconds"); mf == nil || mf.GetMetric()[0].GetGauge().GetValue() <= 0 {
		t.Fatalf("expected last success timestamp")
	}
}

func countWithLabels(mfs []*dto.MetricFamily, name string, labels map[string]string) float64 {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0
	}
	for _, metric := range mf.GetMetric() {
		matched := 0
		for k, v := range labels {
			if matchesLabel(metric.GetLabel(), k, v) {
				matched++
			}
		}
		if matched == len(labels) {
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}

func TestLoadWriteMetricsLabelsTransitions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLoadWriteMetrics(reg)
	m.ObserveConflict("truck_add_skid")
	m.ObserveConflict("truck_add_skid")
	m.ObserveTransition(enums.LoadStatusPlanned, enums.LoadStatusLoaded)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "fleet_load_version_conflicts_total", "op", "truck_add_skid"); err != nil || got != 2 {
		t.Fatalf("expected conflicts=2, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "fleet_load_status_transitions_total", "to", "Loaded"); err != nil || got != 1 {
		t.Fatalf("expected transitions=1, got %f (%v)", got, err)
	}
}

func TestHTTPAndOutboxMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	httpMetrics := NewHTTPMetrics(reg)
	outboxMetrics := NewOutboxMetrics(reg)
	httpMetrics.ObserveRequest("GET", "/api/v1/loads", 200, 10*time.Millisecond)
	outboxMetrics.IncPublished("load.status_changed")
	outboxMetrics.IncTerminal("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "fleet_http_requests_total", "route", "/api/v1/loads"); err != nil || got != 1 {
		t.Fatalf("expected requests=1, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "fleet_outbox_published_total", "event_type", "load.status_changed"); err != nil || got != 1 {
		t.Fatalf("expected published=1, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "fleet_outbox_terminal_total", "event_type", "unknown"); err != nil || got != 1 {
		t.Fatalf("expected terminal=1, got %f (%v)", got, err)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	NewCronJobMetrics(nil).ObserveRun("x", time.Second, nil)
	NewLoadWriteMetrics(nil).ObserveConflict("x")
	NewHTTPMetrics(nil).ObserveRequest("GET", "/", 200, time.Second)
	NewOutboxMetrics(nil).IncFailed("x")
	var m *LoadWriteMetrics
	m.ObserveTransition(enums.LoadStatusLoaded, enums.LoadStatusDelivered)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
