// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/outbreak/internal/domain/model"
	"github.com/okian/outbreak/internal/domain/risk"
	"github.com/okian/outbreak/pkg/logger"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	Assess(ctx context.Context, in risk.Input) (model.Assessment, error)
	Ready() bool
	StatsProvider
}

// Server wires HTTP routes for the JSON API.
type Server struct {
	healthHandler *HealthHandler
	readyHandler  *ReadyHandler
	statsHandler  *StatsHandler
	assessHandler *AssessHandler
}

// Option configures a Server.
type Option func(*options)

type options struct {
	log logger.Logger
}

// WithLogger sets the logger used by handlers.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	o := options{log: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler: NewHealthHandler(),
		readyHandler:  NewReadyHandler(deps),
		statsHandler:  NewStatsHandler(deps),
		assessHandler: NewAssessHandler(deps, o.log),
	}
}

// Register attaches the API routes to r. Routes under /api/v1 are wrapped
// with protect.
func (s *Server) Register(r chi.Router, protect ...func(http.Handler) http.Handler) {
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/readyz", MetricsMiddleware(s.readyHandler.HandleReady, "readyz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(protect...)
		r.Post("/assess", MetricsMiddleware(s.assessHandler.HandleAssess, "assess"))
	})
}

type errorResponse struct {
	Code          string   `json:"code"`
	Message       string   `json:"message"`
	MissingFields []string `json:"missing_fields,omitempty"`
	InvalidFields []string `json:"invalid_fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	resp := errorResponse{Code: code, Message: http.StatusText(status)}
	if err != nil {
		resp.Message = err.Error()
	}
	var iie *risk.InvalidInputError
	if errors.As(err, &iie) {
		resp.Message = iie.Error()
		resp.MissingFields = iie.Missing
		resp.InvalidFields = iie.Invalid
	}
	writeJSON(w, status, resp)
}

// WriteUnavailable writes a 503 JSON body without exposing the cause.
func WriteUnavailable(w http.ResponseWriter, op string) {
	writeError(w, http.StatusServiceUnavailable, "unavailable", NewKind(op, ErrUnavailable))
}

// WriteUnauthorized writes the JSON body returned to API callers without a session.
func WriteUnauthorized(w http.ResponseWriter, err error) {
	writeError(w, http.StatusUnauthorized, "unauthorized", err)
}
