package agent

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// ============================================================================
// METRICS OBSERVER
// ============================================================================

// Metrics counts tool activity through the observer hook.
type Metrics struct {
	toolCalls *prometheus.CounterVec
	exchanges prometheus.Counter
}

// NewMetrics creates and registers the agent metrics.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docagent_tool_calls_total",
				Help: "Tool invocations dispatched by the agent loop.",
			},
			[]string{"tool", "status"},
		),
		exchanges: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docagent_exchanges_total",
				Help: "Question-answer exchanges completed.",
			},
		),
	}

	registerer.MustRegister(m.toolCalls, m.exchanges)
	return m
}

// Observer returns the hook to pass to AnswerQuestion.
func (m *Metrics) Observer() Observer {
	return func(toolName string, args map[string]interface{}, resultText string) {
		status := "ok"
		if strings.HasPrefix(resultText, "Error") {
			status = "error"
		}
		m.toolCalls.WithLabelValues(toolName, status).Inc()
	}
}

// ExchangeCompleted records one finished exchange.
func (m *Metrics) ExchangeCompleted() {
	m.exchanges.Inc()
}
