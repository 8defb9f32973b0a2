// Package metrics exports Prometheus counters for register traffic and the
// session lifecycle.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ardnew/axififo/pkg"
)

// Operation labels.
const (
	OpRead  = "read"
	OpWrite = "write"
)

var (
	registerOnce sync.Once

	registerAccesses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "axififo",
			Subsystem: "register",
			Name:      "accesses_total",
			Help:      "Register accesses by register and direction.",
		},
		[]string{"register", "op"},
	)
	transferErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "axififo",
			Subsystem: "transfer",
			Name:      "errors_total",
			Help:      "Failed file operations by direction and errno.",
		},
		[]string{"op", "errno"},
	)
	binds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "axififo",
			Subsystem: "session",
			Name:      "binds_total",
			Help:      "Successful binds by mapping origin.",
		},
		[]string{"origin"},
	)
	bound = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "axififo",
			Subsystem: "session",
			Name:      "bound",
			Help:      "1 while a register window is bound.",
		},
	)
)

// RegisterMetrics registers all collectors with the default registry.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(registerAccesses, transferErrors, binds, bound)
	})
}

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	RegisterMetrics()
	return promhttp.Handler()
}

// RecordRegisterAccess counts one access to the named register.
func RecordRegisterAccess(register, op string) {
	registerAccesses.WithLabelValues(register, op).Inc()
}

// RecordTransferError counts a failed file operation.
func RecordTransferError(op string, err error) {
	if err == nil {
		return
	}
	transferErrors.WithLabelValues(op, pkg.Errno(err)).Inc()
}

// RecordBind counts a successful bind and marks the session bound.
func RecordBind(origin string) {
	binds.WithLabelValues(origin).Inc()
	bound.Set(1)
}

// RecordTeardown marks the session unbound.
func RecordTeardown() {
	bound.Set(0)
}
