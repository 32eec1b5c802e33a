package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/outbreak/pkg/metrics"
)

// HealthHandler serves Prometheus metrics as the liveness endpoint.
type HealthHandler struct {
	metrics http.Handler
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

// HandleHealth handles GET /healthz requests.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}

// ReadinessChecker reports whether the service can answer assessments.
type ReadinessChecker interface {
	Ready() bool
}

// ReadyHandler handles readiness requests.
type ReadyHandler struct {
	checker ReadinessChecker
}

// NewReadyHandler creates a new readiness handler.
func NewReadyHandler(c ReadinessChecker) *ReadyHandler {
	return &ReadyHandler{checker: c}
}

// HandleReady handles GET /readyz requests.
func (h *ReadyHandler) HandleReady(w http.ResponseWriter, _ *http.Request) {
	if !h.checker.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
