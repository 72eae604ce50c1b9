package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Kwakusharp7/fleet-managment/pkg/enums"
)

// LoadWriteMetrics counts optimistic-concurrency conflicts and status
// transitions on the load write path.
type LoadWriteMetrics struct {
	conflicts   *prometheus.CounterVec
	transitions *prometheus.CounterVec
}

func NewLoadWriteMetrics(reg prometheus.Registerer) *LoadWriteMetrics {
	if reg == nil {
		return &LoadWriteMetrics{}
	}
	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fleet_load_version_conflicts_total",
		Help: "Load writes retried after losing a version race.",
	}, []string{"op"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fleet_load_status_transitions_total",
		Help: "Committed load status changes.",
	}, []string{"from", "to"})
	reg.MustRegister(conflicts, transitions)
	return &LoadWriteMetrics{conflicts: conflicts, transitions: transitions}
}

func (m *LoadWriteMetrics) ObserveConflict(op string) {
	if m == nil || m.conflicts == nil {
		return
	}
	m.conflicts.WithLabelValues(normalizeLabel(op)).Inc()
}

func (m *LoadWriteMetrics) ObserveTransition(from, to enums.LoadStatus) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(string(from)), normalizeLabel(string(to))).Inc()
}
