package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/kozaktomas/photo-cleaner/internal/cluster"
	"github.com/kozaktomas/photo-cleaner/internal/engine"
	"github.com/kozaktomas/photo-cleaner/internal/media"
)

// AnalysisHandler exposes an analysis engine over HTTP.
type AnalysisHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(eng *engine.Engine, logger *slog.Logger) *AnalysisHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisHandler{engine: eng, logger: logger}
}

// StatusResponse describes the engine state.
type StatusResponse struct {
	State         engine.State    `json:"state"`
	Progress      float64         `json:"progress"`
	Authorization media.AuthState `json:"authorization"`
	RunID         *uuid.UUID      `json:"run_id,omitempty"`
	TotalIssues   int             `json:"total_issues"`
	Savings       string          `json:"savings,omitempty"`
}

func statusOf(eng *engine.Engine) StatusResponse {
	status := StatusResponse{
		State:         eng.State(),
		Progress:      eng.Progress(),
		Authorization: eng.Authorization(),
	}
	if result := eng.Result(); result != nil {
		status.RunID = &result.RunID
		status.TotalIssues = result.TotalIssues()
		status.Savings = result.FormattedSavings()
	}
	return status
}

// Authorize asks the library for access.
func (h *AnalysisHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	ok, err := h.engine.RequestAuthorization(r.Context())
	if err != nil {
		h.logger.Warn("authorization failed", "error", err)
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"authorized": ok,
		"state":      h.engine.Authorization(),
	})
}

// Start begins an analysis run in the background.
func (h *AnalysisHandler) Start(w http.ResponseWriter, r *http.Request) {
	// The run outlives the request.
	if err := h.engine.Start(context.WithoutCancel(r.Context())); err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, statusOf(h.engine))
}

// Status returns the engine state and progress.
func (h *AnalysisHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, statusOf(h.engine))
}

// Result returns the last completed result.
func (h *AnalysisHandler) Result(w http.ResponseWriter, r *http.Request) {
	result := h.engine.Result()
	if result == nil {
		respondError(w, http.StatusNotFound, "no analysis result yet")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Events streams engine events via SSE.
func (h *AnalysisHandler) Events(w http.ResponseWriter, r *http.Request) {
	streamEngineEvents(w, r, h.engine)
}

// Cancel stops the in-flight run.
func (h *AnalysisHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]bool{"cancelled": h.engine.Cancel()})
}

// DeleteRequest selects photos of the current result for deletion, either by
// asset ID or by category.
type DeleteRequest struct {
	IDs       []string          `json:"ids"`
	Selection *engine.Selection `json:"selection,omitempty"`
}

// Delete removes the selected photos and returns the result of the
// re-analysis that follows.
func (h *AnalysisHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req DeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.IDs) > 0 && req.Selection != nil {
		respondError(w, http.StatusBadRequest, "use either ids or selection, not both")
		return
	}

	result := h.engine.Result()
	if result == nil {
		respondError(w, http.StatusConflict, "run an analysis before deleting")
		return
	}

	var photos []*cluster.Photo
	if req.Selection != nil {
		photos = result.Candidates(*req.Selection)
	} else {
		for _, id := range req.IDs {
			p, ok := result.Photo(id)
			if !ok {
				respondError(w, http.StatusBadRequest, "unknown photo id: "+id)
				return
			}
			photos = append(photos, p)
		}
	}

	next, err := h.engine.Delete(r.Context(), photos)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"deleted": len(photos),
		"result":  next,
	})
}

// respondEngineError maps engine errors to HTTP statuses.
func respondEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, media.ErrNotAuthorized):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, engine.ErrAlreadyRunning):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrDeletionFailed):
		respondError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, context.Canceled):
		respondError(w, http.StatusConflict, "analysis cancelled")
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}
