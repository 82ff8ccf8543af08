package triage

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the triage subsystem.
type Metrics struct {
	SubmitsTotal       *prometheus.CounterVec
	TriagesTotal       *prometheus.CounterVec
	DecisionsTotal     *prometheus.CounterVec
	TriageDuration     *prometheus.HistogramVec
	TriageTokensIn     prometheus.Histogram
	TriageTokensOut    prometheus.Histogram
	LLMCallsTotal      prometheus.Counter
	LLMTokensIn        prometheus.Counter
	LLMTokensOut       prometheus.Counter
	LLMDuration        prometheus.Histogram
	DraftsTotal        *prometheus.CounterVec
	NotificationsTotal *prometheus.CounterVec
}

// NewMetrics registers and returns triage metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SubmitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "herald_submits_total",
			Help: "Total message submissions by result.",
		}, []string{"result"}),
		TriagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "herald_triages_total",
			Help: "Total triage runs by final status.",
		}, []string{"status"}),
		DecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "herald_decisions_total",
			Help: "Total completed triage decisions by outcome.",
		}, []string{"outcome"}),
		TriageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "herald_triage_duration_seconds",
			Help:    "Duration of triage runs in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s .. ~256s
		}, []string{"status", "model"}),
		TriageTokensIn: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "herald_triage_tokens_input",
			Help:    "Input tokens consumed per triage run.",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10), // 100 .. ~51200
		}),
		TriageTokensOut: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "herald_triage_tokens_output",
			Help:    "Output tokens consumed per triage run.",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10 .. ~5120
		}),
		LLMCallsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "herald_llm_calls_total",
			Help: "Total LLM provider calls.",
		}),
		LLMTokensIn: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "herald_llm_tokens_input_total",
			Help: "Total LLM input tokens consumed.",
		}),
		LLMTokensOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "herald_llm_tokens_output_total",
			Help: "Total LLM output tokens consumed.",
		}),
		LLMDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "herald_llm_call_duration_seconds",
			Help:    "Duration of individual LLM calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8), // 0.5s .. ~64s
		}),
		DraftsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "herald_drafts_total",
			Help: "Total reply draft compositions by status.",
		}, []string{"status"}),
		NotificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "herald_notifications_total",
			Help: "Total notifications sent by status.",
		}, []string{"status"}),
	}

	reg.MustRegister(
		m.SubmitsTotal,
		m.TriagesTotal,
		m.DecisionsTotal,
		m.TriageDuration,
		m.TriageTokensIn,
		m.TriageTokensOut,
		m.LLMCallsTotal,
		m.LLMTokensIn,
		m.LLMTokensOut,
		m.LLMDuration,
		m.DraftsTotal,
		m.NotificationsTotal,
	)

	return m
}

// Hooks returns an EngineHooks that increments the corresponding metrics.
func (m *Metrics) Hooks() EngineHooks {
	return EngineHooks{
		OnLLMCall: func(inputTokens, outputTokens int, duration float64) {
			m.LLMCallsTotal.Inc()
			m.LLMTokensIn.Add(float64(inputTokens))
			m.LLMTokensOut.Add(float64(outputTokens))
			m.LLMDuration.Observe(duration)
		},
		OnComplete: func(e *CompleteEvent) {
			m.TriagesTotal.WithLabelValues(string(e.Status)).Inc()
			if e.Outcome.Valid() {
				m.DecisionsTotal.WithLabelValues(string(e.Outcome)).Inc()
			}
			m.TriageDuration.WithLabelValues(string(e.Status), e.Model).Observe(e.Duration)
			m.TriageTokensIn.Observe(float64(e.TokensIn))
			m.TriageTokensOut.Observe(float64(e.TokensOut))
		},
	}
}
