package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	timelineerrors "agora/contexts/elections/timeline/domain/errors"
	timelinehttp "agora/contexts/elections/timeline/transport/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleTimelineStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := s.timeline.Handler.StatusHandler(r.Context())
	if err != nil {
		s.writeTimelineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListStages(w http.ResponseWriter, r *http.Request) {
	resp, err := s.timeline.Handler.ListStagesHandler(r.Context())
	if err != nil {
		s.writeTimelineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetStage(w http.ResponseWriter, r *http.Request) {
	stageID, ok := stageIDParam(w, r)
	if !ok {
		return
	}
	resp, err := s.timeline.Handler.GetStageHandler(r.Context(), stageID)
	if err != nil {
		s.writeTimelineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpsertStage(w http.ResponseWriter, r *http.Request) {
	var req timelinehttp.UpsertStageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeTimelineError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.timeline.Handler.UpsertStageHandler(r.Context(), req)
	if err != nil {
		s.writeTimelineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteStage(w http.ResponseWriter, r *http.Request) {
	stageID, ok := stageIDParam(w, r)
	if !ok {
		return
	}
	if err := s.timeline.Handler.DeleteStageHandler(r.Context(), stageID); err != nil {
		s.writeTimelineDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEligibility(w http.ResponseWriter, r *http.Request) {
	resp, err := s.timeline.Handler.EligibilityHandler(r.Context(), chi.URLParam(r, "action"))
	if err != nil {
		s.writeTimelineDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeTimelineDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, timelineerrors.ErrInvalidStageInput):
		writeTimelineError(w, http.StatusBadRequest, "invalid_stage_input", err.Error())
	case errors.Is(err, timelineerrors.ErrInvalidWindow):
		writeTimelineError(w, http.StatusBadRequest, "invalid_window", err.Error())
	case errors.Is(err, timelineerrors.ErrUnknownAction):
		writeTimelineError(w, http.StatusBadRequest, "unknown_action", err.Error())
	case errors.Is(err, timelineerrors.ErrStageNotFound):
		writeTimelineError(w, http.StatusNotFound, "stage_not_found", err.Error())
	case errors.Is(err, timelineerrors.ErrCategoryConflict):
		writeTimelineError(w, http.StatusConflict, "category_conflict", err.Error())
	default:
		s.logger.Error("timeline request failed",
			"event", "http_timeline_internal_error",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"error", err.Error(),
		)
		writeTimelineError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func stageIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	stageID, err := strconv.ParseInt(chi.URLParam(r, "stage_id"), 10, 64)
	if err != nil || stageID <= 0 {
		writeTimelineError(w, http.StatusBadRequest, "invalid_stage_id", "stage_id must be a positive integer")
		return 0, false
	}
	return stageID, true
}

func writeTimelineError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, timelinehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
