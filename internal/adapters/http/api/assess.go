package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/outbreak/internal/domain/model"
	"github.com/okian/outbreak/internal/domain/risk"
	"github.com/okian/outbreak/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Assessor runs a full risk assessment.
type Assessor interface {
	Assess(ctx context.Context, in risk.Input) (model.Assessment, error)
}

// AssessHandler handles assessment requests.
type AssessHandler struct {
	assessor Assessor
	log      logger.Logger
}

// NewAssessHandler creates a new assessment handler.
func NewAssessHandler(a Assessor, log logger.Logger) *AssessHandler {
	return &AssessHandler{assessor: a, log: log}
}

// HandleAssess handles POST /api/v1/assess requests.
func (h *AssessHandler) HandleAssess(w http.ResponseWriter, r *http.Request) {
	const op = "api.assess"

	var body map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	in, err := ParseJSON(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", WrapKind(op, ErrInvalidInput, err))
		return
	}

	a, err := h.assessor.Assess(r.Context(), in)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, a)
	case errors.Is(err, risk.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input", WrapKind(op, ErrInvalidInput, err))
	case errors.Is(err, risk.ErrModelUnavailable):
		h.log.Error(r.Context(), "assessment failed", logger.Error(err))
		writeError(w, http.StatusServiceUnavailable, "model_unavailable", NewKind(op, ErrUnavailable))
	default:
		h.log.Error(r.Context(), "assessment failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", NewKind(op, ErrInternal))
	}
}
