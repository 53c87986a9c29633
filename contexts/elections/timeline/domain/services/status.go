package services

import (
	"time"

	"agora/contexts/elections/timeline/domain/entities"
)

// DeriveStatus computes the election-wide status from stage records and a
// point in time. It reads no clock and keeps no state, so identical inputs
// always produce identical output.
func DeriveStatus(stages []entities.Stage, now time.Time) entities.TimelineStatus {
	now = now.UTC()
	status := entities.TimelineStatus{EvaluatedAt: now}

	var current *entities.Stage
	for i := range stages {
		stage := stages[i]
		if !stage.IsActive || !stage.Contains(now) {
			continue
		}
		if current == nil || stage.Precedes(*current) {
			picked := stage
			current = &picked
		}
	}
	status.CurrentStage = current

	if voting, ok := representative(stages, entities.CategoryVoting); ok {
		phase := derivePhase(voting, now)
		status.IsVotingActive = phase.Open
		status.IsVotingEnded = phase.Ended
		status.VotingStartTime = phase.StartTime
		status.VotingEndTime = phase.EndTime
	}
	if results, ok := representative(stages, entities.CategoryResults); ok {
		status.IsResultsPublished = results.IsActive && !now.Before(results.StartTime)
		status.ResultsPublishTime = timePtr(results.StartTime)
	}
	if registration, ok := representative(stages, entities.CategoryRegistration); ok {
		status.Registration = derivePhase(registration, now)
	}
	if application, ok := representative(stages, entities.CategoryApplication); ok {
		status.Application = derivePhase(application, now)
	}
	return status
}

// representative returns the stage standing for a category. Writes keep
// categories unique; for legacy rows the earliest start, then lowest id wins.
func representative(stages []entities.Stage, category entities.Category) (entities.Stage, bool) {
	var (
		picked entities.Stage
		found  bool
	)
	for _, stage := range stages {
		if stage.Category != category {
			continue
		}
		if !found || stage.Precedes(picked) {
			picked = stage
			found = true
		}
	}
	return picked, found
}

// derivePhase leaves Ended independent of IsActive: once the window closes
// it stays closed.
func derivePhase(stage entities.Stage, now time.Time) entities.PhaseState {
	return entities.PhaseState{
		Present:   true,
		Open:      stage.IsActive && stage.Contains(now),
		Ended:     now.After(stage.EndTime),
		StartTime: timePtr(stage.StartTime),
		EndTime:   timePtr(stage.EndTime),
	}
}

func timePtr(value time.Time) *time.Time {
	v := value.UTC()
	return &v
}
