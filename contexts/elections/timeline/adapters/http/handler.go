package httpadapter

import (
	"context"
	"fmt"
	"log/slog"

	"agora/contexts/elections/timeline/application/commands"
	"agora/contexts/elections/timeline/application/queries"
	"agora/contexts/elections/timeline/domain/entities"
	domainerrors "agora/contexts/elections/timeline/domain/errors"
	"agora/contexts/elections/timeline/domain/services"
	httptransport "agora/contexts/elections/timeline/transport/http"
)

type Handler struct {
	Stages commands.StageUseCase
	Status *queries.StatusService
	Logger *slog.Logger
}

func (h Handler) StatusHandler(ctx context.Context) (httptransport.StatusResponse, error) {
	status, err := h.Status.Status(ctx)
	if err != nil {
		return httptransport.StatusResponse{}, err
	}
	return mapStatus(status), nil
}

func (h Handler) ListStagesHandler(ctx context.Context) (httptransport.ListStagesResponse, error) {
	stages, err := h.Status.ListStages(ctx)
	if err != nil {
		return httptransport.ListStagesResponse{}, err
	}
	items := make([]httptransport.StageResponse, 0, len(stages))
	for _, stage := range stages {
		items = append(items, mapStage(stage))
	}
	return httptransport.ListStagesResponse{Items: items}, nil
}

func (h Handler) GetStageHandler(ctx context.Context, stageID int64) (httptransport.StageResponse, error) {
	stage, err := h.Status.GetStage(ctx, stageID)
	if err != nil {
		return httptransport.StageResponse{}, err
	}
	return mapStage(stage), nil
}

func (h Handler) UpsertStageHandler(
	ctx context.Context,
	req httptransport.UpsertStageRequest,
) (httptransport.StageResponse, error) {
	if err := req.Validate(); err != nil {
		return httptransport.StageResponse{}, invalidInput(err)
	}
	stage, err := h.Stages.UpsertStage(ctx, commands.UpsertStageCommand{
		StageID:   req.ID,
		Name:      req.StageName,
		Category:  entities.Category(req.Category),
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		IsActive:  req.IsActive,
	})
	if err != nil {
		return httptransport.StageResponse{}, err
	}
	return mapStage(stage), nil
}

func (h Handler) DeleteStageHandler(ctx context.Context, stageID int64) error {
	return h.Stages.DeleteStage(ctx, stageID)
}

func (h Handler) EligibilityHandler(ctx context.Context, rawAction string) (httptransport.EligibilityResponse, error) {
	action, err := services.ParseAction(rawAction)
	if err != nil {
		return httptransport.EligibilityResponse{}, err
	}
	decision, _, err := h.Status.Authorize(ctx, action)
	if err != nil {
		return httptransport.EligibilityResponse{}, err
	}
	return httptransport.EligibilityResponse{
		Action:  string(action),
		Allowed: decision.Allowed,
		Reason:  string(decision.Reason),
	}, nil
}

func mapStatus(status entities.TimelineStatus) httptransport.StatusResponse {
	resp := httptransport.StatusResponse{
		IsVotingActive:     status.IsVotingActive,
		IsVotingEnded:      status.IsVotingEnded,
		IsResultsPublished: status.IsResultsPublished,
		VotingStartTime:    status.VotingStartTime,
		VotingEndTime:      status.VotingEndTime,
		ResultsPublishTime: status.ResultsPublishTime,
		Registration:       mapPhase(status.Registration),
		Application:        mapPhase(status.Application),
		EvaluatedAt:        status.EvaluatedAt,
	}
	if status.CurrentStage != nil {
		current := mapStage(*status.CurrentStage)
		resp.CurrentStage = &current
	}
	return resp
}

func mapPhase(phase entities.PhaseState) *httptransport.PhaseResponse {
	if !phase.Present {
		return nil
	}
	return &httptransport.PhaseResponse{
		Open:      phase.Open,
		Ended:     phase.Ended,
		StartTime: phase.StartTime,
		EndTime:   phase.EndTime,
	}
}

func mapStage(stage entities.Stage) httptransport.StageResponse {
	return httptransport.StageResponse{
		ID:        stage.StageID,
		StageName: stage.Name,
		Category:  string(stage.Category),
		StartTime: stage.StartTime,
		EndTime:   stage.EndTime,
		IsActive:  stage.IsActive,
	}
}

func invalidInput(cause error) error {
	return fmt.Errorf("%w: %s", domainerrors.ErrInvalidStageInput, cause.Error())
}
