package httpserver

import (
	"errors"
	"net/http"

	ballotingerrors "agora/contexts/elections/balloting/domain/errors"
	ballotinghttp "agora/contexts/elections/balloting/transport/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleSubmitVote(w http.ResponseWriter, r *http.Request) {
	var req ballotinghttp.SubmitVoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBallotingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.balloting.Handler.SubmitVoteHandler(r.Context(), req)
	if err != nil {
		s.writeBallotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecoverBallot(w http.ResponseWriter, r *http.Request) {
	var req ballotinghttp.SubmitVoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBallotingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.balloting.Handler.RecoverBallotHandler(r.Context(), req)
	if err != nil {
		s.writeBallotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	resp, err := s.balloting.Handler.ResultsHandler(r.Context())
	if err != nil {
		s.writeBallotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListReconciliation(w http.ResponseWriter, r *http.Request) {
	resp, err := s.balloting.Handler.ListReconciliationHandler(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		s.writeBallotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResolveReconciliation(w http.ResponseWriter, r *http.Request) {
	var req ballotinghttp.ResolveReconciliationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBallotingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.balloting.Handler.ResolveReconciliationHandler(r.Context(), chi.URLParam(r, "item_id"), req)
	if err != nil {
		s.writeBallotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReconcileTallies(w http.ResponseWriter, r *http.Request) {
	resp, err := s.balloting.Handler.ReconcileTalliesHandler(r.Context())
	if err != nil {
		s.writeBallotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeBallotingDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ballotingerrors.ErrInvalidInput):
		writeBallotingError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, ballotingerrors.ErrIncompleteBallot):
		writeBallotingError(w, http.StatusBadRequest, "incomplete_ballot", err.Error())
	case errors.Is(err, ballotingerrors.ErrInvalidSelection):
		writeBallotingError(w, http.StatusBadRequest, "invalid_selection", err.Error())
	case errors.Is(err, ballotingerrors.ErrNotVerified):
		writeBallotingError(w, http.StatusForbidden, "not_verified", err.Error())
	case errors.Is(err, ballotingerrors.ErrResultsNotPublished):
		writeBallotingError(w, http.StatusForbidden, "results_not_published", err.Error())
	case errors.Is(err, ballotingerrors.ErrVoterNotFound):
		writeBallotingError(w, http.StatusNotFound, "voter_not_found", err.Error())
	case errors.Is(err, ballotingerrors.ErrReconciliationNotFound):
		writeBallotingError(w, http.StatusNotFound, "reconciliation_not_found", err.Error())
	case errors.Is(err, ballotingerrors.ErrCandidateNotFound):
		writeBallotingError(w, http.StatusNotFound, "candidate_not_found", err.Error())
	case errors.Is(err, ballotingerrors.ErrAlreadyVoted):
		writeBallotingError(w, http.StatusConflict, "already_voted", err.Error())
	case errors.Is(err, ballotingerrors.ErrWindowClosed):
		writeBallotingError(w, http.StatusConflict, "not_eligible_window_closed", err.Error())
	case errors.Is(err, ballotingerrors.ErrNoClaimedBallot):
		writeBallotingError(w, http.StatusConflict, "no_claimed_ballot", err.Error())
	case errors.Is(err, ballotingerrors.ErrRecoveryInProgress):
		writeBallotingError(w, http.StatusConflict, "recovery_in_progress", err.Error())
	case errors.Is(err, ballotingerrors.ErrReconciliationResolved):
		writeBallotingError(w, http.StatusConflict, "reconciliation_resolved", err.Error())
	case errors.Is(err, ballotingerrors.ErrPersistence):
		// The wrapped cause may carry driver detail; only the sentinel text is returned.
		writeBallotingError(w, http.StatusInternalServerError, "persistence_error", ballotingerrors.ErrPersistence.Error())
	default:
		s.logger.Error("balloting request failed",
			"event", "http_balloting_internal_error",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"error", err.Error(),
		)
		writeBallotingError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeBallotingError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ballotinghttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
