package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters/histograms for the conversation loop.
type ChatMetrics struct {
	turnsTotal      *prometheus.CounterVec
	llmLatency      *prometheus.HistogramVec
	datastoreErrors *prometheus.CounterVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Total processed conversation turns",
		}, []string{"intent", "status"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "concierge",
			Subsystem: "chat",
			Name:      "llm_latency_seconds",
			Help:      "Latency of language-model calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		datastoreErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "concierge",
			Subsystem: "chat",
			Name:      "datastore_errors_total",
			Help:      "Total datastore failures by table",
		}, []string{"table"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.llmLatency, m.datastoreErrors)
	return m
}

func (m *ChatMetrics) ObserveTurn(intent, status string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(intent, status).Inc()
}

func (m *ChatMetrics) ObserveLLMLatency(op string, seconds float64) {
	if m == nil {
		return
	}
	m.llmLatency.WithLabelValues(op).Observe(seconds)
}

func (m *ChatMetrics) ObserveDatastoreError(table string) {
	if m == nil {
		return
	}
	m.datastoreErrors.WithLabelValues(table).Inc()
}
