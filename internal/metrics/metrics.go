// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	bridgeRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridgebot_bridge_requests_total",
			Help: "Bridge calls by path and final outcome (ok, http_error, transport_error).",
		},
		[]string{"path", "outcome"},
	)

	bridgeAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridgebot_bridge_attempts_total",
			Help: "Individual HTTP attempts made against the bridge, retries included.",
		},
		[]string{"path"},
	)

	bridgeLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridgebot_bridge_request_duration_seconds",
			Help:    "Wall time of a bridge call including retries and backoff.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"path"},
	)

	commandInvocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridgebot_command_invocations_total",
			Help: "Command invocations by command name and terminal state.",
		},
		[]string{"command", "state"},
	)

	auditWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridgebot_audit_writes_total",
			Help: "Audit records by result (ok, failed).",
		},
		[]string{"result"},
	)

	bridgeUp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bridgebot_bridge_up",
			Help: "1 when the last periodic bridge health check succeeded.",
		},
	)

	dynamicCommands = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bridgebot_dynamic_commands_loaded",
			Help: "Number of dynamic commands loaded from the configuration document.",
		},
	)
)

func init() {
	prometheus.MustRegister(bridgeRequests)
	prometheus.MustRegister(bridgeAttempts)
	prometheus.MustRegister(bridgeLatency)
	prometheus.MustRegister(commandInvocations)
	prometheus.MustRegister(auditWrites)
	prometheus.MustRegister(bridgeUp)
	prometheus.MustRegister(dynamicCommands)
}

// BridgeAttempt counts one HTTP attempt against path.
func BridgeAttempt(path string) {
	bridgeAttempts.WithLabelValues(path).Inc()
}

// BridgeRequest records the final outcome of a bridge call.
func BridgeRequest(path, outcome string, took time.Duration) {
	bridgeRequests.WithLabelValues(path, outcome).Inc()
	bridgeLatency.WithLabelValues(path).Observe(took.Seconds())
}

// CommandInvoked records the terminal state of a command invocation.
func CommandInvoked(command, state string) {
	commandInvocations.WithLabelValues(command, state).Inc()
}

// AuditWrite records the result of one audit write.
func AuditWrite(ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	auditWrites.WithLabelValues(result).Inc()
}

// SetDynamicCommands publishes the size of the dynamic command table.
func SetDynamicCommands(n int) {
	dynamicCommands.Set(float64(n))
}

// SetBridgeUp publishes the result of the last bridge health check.
func SetBridgeUp(up bool) {
	v := 0.0
	if up {
		v = 1
	}
	bridgeUp.Set(v)
}
