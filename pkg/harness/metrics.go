package harness

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

type Metrics struct {
	Registry     *prometheus.Registry
	Steps        *prometheus.CounterVec
	Scenarios    *prometheus.CounterVec
	HostBugs     prometheus.Counter
	ComputeUnits prometheus.Histogram
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roprobe",
			Name:      "steps_total",
			Help:      "Probe instructions executed, by opcode and outcome.",
		}, []string{"opcode", "outcome"}),
		Scenarios: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roprobe",
			Name:      "scenarios_total",
			Help:      "Scenarios finished, by result.",
		}, []string{"result"}),
		HostBugs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "roprobe",
			Name:      "host_bugs_total",
			Help:      "Committed writes to read-only subject accounts.",
		}),
		ComputeUnits: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "roprobe",
			Name:      "step_compute_units",
			Help:      "Compute units consumed per probe instruction.",
			Buckets:   prometheus.LinearBuckets(0, 250, 8),
		}),
	}
	m.Registry.MustRegister(m.Steps, m.Scenarios, m.HostBugs, m.ComputeUnits)
	return m
}

func (m *Metrics) observeStep(s *StepResult) {
	if m == nil {
		return
	}
	m.Steps.WithLabelValues(s.Step.String(), string(s.Outcome)).Inc()
	m.ComputeUnits.Observe(float64(s.ComputeUnits))
	if s.HostBug {
		m.HostBugs.Inc()
	}
}

func (m *Metrics) observeScenario(r *Result) {
	if m == nil {
		return
	}
	result := "fail"
	if r.Passed() {
		result = "pass"
	}
	m.Scenarios.WithLabelValues(result).Inc()
}

// WriteText writes every registered metric in the Prometheus text format.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.Registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
