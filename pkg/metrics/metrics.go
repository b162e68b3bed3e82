package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	WorkflowTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentic_workflow_transitions_total",
			Help: "Total number of workflow phase transitions by target phase",
		},
		[]string{"phase"},
	)
	OracleCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentic_oracle_calls_total",
			Help: "Total number of model oracle calls",
		},
		[]string{"operation", "status"},
	)
	OracleCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentic_oracle_call_duration_seconds",
			Help:    "Duration of model oracle calls",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentic_http_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"route", "status"},
	)
	LiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "agentic_live_sessions",
			Help: "Number of sessions held in memory",
		},
	)
)

func init() {
	prometheus.MustRegister(WorkflowTransitions)
	prometheus.MustRegister(OracleCalls)
	prometheus.MustRegister(OracleCallDuration)
	prometheus.MustRegister(HTTPRequests)
	prometheus.MustRegister(LiveSessions)
}
