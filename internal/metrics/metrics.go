// Package metrics holds the prometheus counters of a running pipeline and an
// optional HTTP exporter for them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "spytrap"

// Metrics groups every counter the stages update.
type Metrics struct {
	Registry *prometheus.Registry

	CaptureLines    prometheus.Counter
	MatchedLines    prometheus.Counter
	ParseFailures   prometheus.Counter
	Observations    *prometheus.CounterVec
	Alerts          *prometheus.CounterVec
	UniqueHostnames prometheus.Counter
	Rotations       prometheus.Counter
	ControlMessages prometheus.Counter
}

// New registers the counters on reg. A nil reg gets a fresh registry so that
// tests and embedded uses never collide with the global one.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		Registry: reg,
		CaptureLines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_lines_total",
			Help:      "Lines produced by the capture adapter.",
		}),
		MatchedLines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_lines_total",
			Help:      "Capture lines inspected by the match stage.",
		}),
		ParseFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_parse_failures_total",
			Help:      "Capture lines that could not be parsed.",
		}),
		Observations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_total",
			Help:      "Hostnames observed in traffic.",
		}, []string{"source"}),
		Alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Hostnames that matched a known indicator.",
		}, []string{"source"}),
		UniqueHostnames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unique_hostnames_total",
			Help:      "Distinct non-matching hostnames seen, approximated by a bloom filter.",
		}),
		Rotations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hotspot_rotations_total",
			Help:      "Access point identities generated.",
		}),
		ControlMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "control_messages_total",
			Help:      "Lines received on the control socket.",
		}),
	}

	reg.MustRegister(
		m.CaptureLines,
		m.MatchedLines,
		m.ParseFailures,
		m.Observations,
		m.Alerts,
		m.UniqueHostnames,
		m.Rotations,
		m.ControlMessages,
	)
	return m
}
