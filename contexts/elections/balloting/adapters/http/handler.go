package httpadapter

import (
	"context"
	"fmt"
	"log/slog"

	"agora/contexts/elections/balloting/application/commands"
	"agora/contexts/elections/balloting/application/queries"
	"agora/contexts/elections/balloting/application/workers"
	"agora/contexts/elections/balloting/domain/entities"
	domainerrors "agora/contexts/elections/balloting/domain/errors"
	httptransport "agora/contexts/elections/balloting/transport/http"
)

type Handler struct {
	Votes          commands.VoteUseCase
	Reconciliation commands.ReconciliationUseCase
	Queue          queries.ReconciliationQuery
	Results        queries.ResultsUseCase
	Tallies        workers.TallyReconciler
	Logger         *slog.Logger
}

func (h Handler) SubmitVoteHandler(
	ctx context.Context,
	req httptransport.SubmitVoteRequest,
) (httptransport.SubmitVoteResponse, error) {
	if err := req.Validate(); err != nil {
		return httptransport.SubmitVoteResponse{}, invalidInput(err)
	}
	if _, err := h.Votes.SubmitVote(ctx, commands.SubmitVoteCommand{
		VoterID:    req.VoterID,
		Selections: entities.Selections(req.Selections),
	}); err != nil {
		return httptransport.SubmitVoteResponse{}, err
	}
	return httptransport.SubmitVoteResponse{Success: true}, nil
}

func (h Handler) RecoverBallotHandler(
	ctx context.Context,
	req httptransport.SubmitVoteRequest,
) (httptransport.SubmitVoteResponse, error) {
	if err := req.Validate(); err != nil {
		return httptransport.SubmitVoteResponse{}, invalidInput(err)
	}
	if _, err := h.Votes.RecoverBallot(ctx, commands.SubmitVoteCommand{
		VoterID:    req.VoterID,
		Selections: entities.Selections(req.Selections),
	}); err != nil {
		return httptransport.SubmitVoteResponse{}, err
	}
	return httptransport.SubmitVoteResponse{Success: true}, nil
}

func (h Handler) ResultsHandler(ctx context.Context) (httptransport.ResultsResponse, error) {
	summary, err := h.Results.PublishedResults(ctx)
	if err != nil {
		return httptransport.ResultsResponse{}, err
	}
	return mapResults(summary), nil
}

func (h Handler) ListReconciliationHandler(
	ctx context.Context,
	status string,
) (httptransport.ListReconciliationResponse, error) {
	items, err := h.Queue.List(ctx, status)
	if err != nil {
		return httptransport.ListReconciliationResponse{}, err
	}
	resp := httptransport.ListReconciliationResponse{
		Items: make([]httptransport.ReconciliationItemResponse, 0, len(items)),
	}
	for _, item := range items {
		resp.Items = append(resp.Items, mapReconciliation(item))
	}
	return resp, nil
}

func (h Handler) ResolveReconciliationHandler(
	ctx context.Context,
	itemID string,
	req httptransport.ResolveReconciliationRequest,
) (httptransport.ReconciliationItemResponse, error) {
	if err := req.Validate(); err != nil {
		return httptransport.ReconciliationItemResponse{}, invalidInput(err)
	}
	item, err := h.Reconciliation.Resolve(ctx, commands.ResolveReconciliationCommand{
		ItemID:  itemID,
		ActorID: req.ActorID,
		Note:    req.Note,
	})
	if err != nil {
		return httptransport.ReconciliationItemResponse{}, err
	}
	return mapReconciliation(item), nil
}

func (h Handler) ReconcileTalliesHandler(ctx context.Context) (httptransport.ReconcileTalliesResponse, error) {
	corrections, err := h.Tallies.Reconcile(ctx)
	if err != nil {
		return httptransport.ReconcileTalliesResponse{}, err
	}
	resp := httptransport.ReconcileTalliesResponse{
		Corrections: make([]httptransport.TallyCorrectionResponse, 0, len(corrections)),
	}
	for _, correction := range corrections {
		resp.Corrections = append(resp.Corrections, httptransport.TallyCorrectionResponse{
			CandidateID: correction.CandidateID,
			Cached:      correction.Cached,
			Actual:      correction.Actual,
		})
	}
	return resp, nil
}

func mapResults(summary entities.ResultsSummary) httptransport.ResultsResponse {
	resp := httptransport.ResultsResponse{
		Positions:      make([]httptransport.PositionResultResponse, 0, len(summary.Positions)),
		VerifiedVoters: summary.VerifiedVoters,
		VotedVoters:    summary.VotedVoters,
		Turnout:        summary.Turnout,
		VotingEnded:    summary.Phase.VotingEnded,
	}
	for _, position := range summary.Positions {
		item := httptransport.PositionResultResponse{
			Position:   position.Position,
			TotalVotes: position.TotalVotes,
			Candidates: make([]httptransport.CandidateResultResponse, 0, len(position.Candidates)),
			IsDraw:     position.IsDraw,
			Withheld:   position.Withheld,
		}
		for _, candidate := range position.Candidates {
			item.Candidates = append(item.Candidates, mapCandidate(candidate))
		}
		if position.Winner != nil {
			winner := mapCandidate(*position.Winner)
			item.Winner = &winner
		}
		resp.Positions = append(resp.Positions, item)
	}
	return resp
}

func mapCandidate(candidate entities.CandidateResult) httptransport.CandidateResultResponse {
	return httptransport.CandidateResultResponse{
		CandidateID: candidate.CandidateID,
		FullName:    candidate.FullName,
		VoteCount:   candidate.VoteCount,
		Percentage:  candidate.Percentage,
	}
}

func mapReconciliation(item entities.ReconciliationItem) httptransport.ReconciliationItemResponse {
	return httptransport.ReconciliationItemResponse{
		ID:         item.ItemID,
		VoterID:    item.VoterID,
		Reason:     item.Reason,
		Status:     string(item.Status),
		Resolution: item.Resolution,
		ResolvedBy: item.ResolvedBy,
		Note:       item.Note,
		CreatedAt:  item.CreatedAt,
		UpdatedAt:  item.UpdatedAt,
		ResolvedAt: item.ResolvedAt,
	}
}

func invalidInput(cause error) error {
	return fmt.Errorf("%w: %s", domainerrors.ErrInvalidInput, cause.Error())
}
