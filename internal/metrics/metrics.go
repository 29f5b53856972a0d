// Package metrics holds the prometheus collectors of docket.
package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Path is where the metrics are served.
const Path = "/metrics"

const namespace = "docket"

// Flush results.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

var (
	// Mutations counts document commands by kind.
	Mutations = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_mutations_total",
			Help:      "Number of dispatched document commands, by command and result.",
		},
		[]string{"command", "result"},
	)

	// Flushes counts debounced writes by component and result.
	Flushes = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "debounced_flushes_total",
			Help:      "Number of debounced writes, by component and result.",
		},
		[]string{"component", "result"},
	)

	// GateInterceptions counts requests held back by the consent gate.
	GateInterceptions = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "consent_gate_interceptions_total",
			Help:      "Number of requests intercepted because GDPR settings were not acknowledged.",
		},
		[]string{"method"},
	)

	// LogStatements counts log statements by service and level.
	LogStatements = promauto.NewCounterVec( //nolint:gochecknoglobals
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_statements_total",
			Help:      "Number of log statements, by service and level.",
		},
		[]string{"service", "level"},
	)
)

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return ResultError
	}

	return ResultOK
}

// Handler serves the default registry.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
