// Package metrics provides Prometheus-based metrics for the coordination
// components. The recorder satisfies both guard.Recorder and
// sequencer.Recorder.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder records delegation and document-injection metrics.
type Recorder struct {
	delegationCalls   *prometheus.CounterVec
	escalations       *prometheus.CounterVec
	documentsInjected *prometheus.CounterVec
	cyclesExhausted   *prometheus.CounterVec
	injectedTokens    *prometheus.HistogramVec
}

// NewRecorder creates a recorder registered against reg. Pass a fresh
// prometheus.NewRegistry() in tests; nil uses the default registerer.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Recorder{
		delegationCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "delegation_tool_calls_total",
				Help: "Total monitored delegation tool calls by tool and caller",
			},
			[]string{"tool", "caller"},
		),
		escalations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "delegation_escalations_total",
				Help: "Total delegation loop escalations by tool and caller",
			},
			[]string{"tool", "caller"},
		),
		documentsInjected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "context_documents_injected_total",
				Help: "Total reference documents injected into agent context",
			},
			[]string{"agent"},
		),
		cyclesExhausted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "context_cycles_exhausted_total",
				Help: "Total agents that finished their full document cycle",
			},
			[]string{"agent"},
		),
		injectedTokens: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "context_injected_document_tokens",
				Help:    "Token estimate per injected reference document",
				Buckets: prometheus.ExponentialBuckets(64, 4, 8),
			},
			[]string{"agent"},
		),
	}
}

// DelegationObserved records one monitored tool call.
func (r *Recorder) DelegationObserved(tool, caller string, _ int) {
	r.delegationCalls.WithLabelValues(tool, caller).Inc()
}

// EscalationFired records one loop escalation.
func (r *Recorder) EscalationFired(tool, caller string) {
	r.escalations.WithLabelValues(tool, caller).Inc()
}

// DocumentInjected records one injected document and its token estimate.
func (r *Recorder) DocumentInjected(agent, _ string, tokens int) {
	r.documentsInjected.WithLabelValues(agent).Inc()
	r.injectedTokens.WithLabelValues(agent).Observe(float64(tokens))
}

// CycleExhausted records an agent finishing its document cycle.
func (r *Recorder) CycleExhausted(agent string) {
	r.cyclesExhausted.WithLabelValues(agent).Inc()
}
