package services

import (
	"reflect"
	"testing"
	"time"

	"agora/contexts/elections/timeline/domain/entities"
)

func mustTime(t *testing.T, raw string) time.Time {
	t.Helper()
	value, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		t.Fatalf("parse time %q: %v", raw, err)
	}
	return value
}

func votingStage(t *testing.T, active bool) entities.Stage {
	return entities.Stage{
		StageID:   3,
		Name:      "General Election",
		Category:  entities.CategoryVoting,
		StartTime: mustTime(t, "2025-01-01T00:00:00Z"),
		EndTime:   mustTime(t, "2025-01-03T00:00:00Z"),
		IsActive:  active,
	}
}

func TestDeriveStatusVotingWindowOpen(t *testing.T) {
	status := DeriveStatus([]entities.Stage{votingStage(t, true)}, mustTime(t, "2025-01-02T00:00:00Z"))
	if !status.IsVotingActive {
		t.Fatalf("expected voting active")
	}
	if status.IsVotingEnded {
		t.Fatalf("expected voting not ended")
	}
	if status.CurrentStage == nil || status.CurrentStage.StageID != 3 {
		t.Fatalf("expected current stage 3, got %+v", status.CurrentStage)
	}
	if status.VotingEndTime == nil || !status.VotingEndTime.Equal(mustTime(t, "2025-01-03T00:00:00Z")) {
		t.Fatalf("unexpected voting end time %v", status.VotingEndTime)
	}
}

func TestDeriveStatusVotingEndedIgnoresActiveFlag(t *testing.T) {
	now := mustTime(t, "2025-01-04T00:00:00Z")
	for _, active := range []bool{true, false} {
		status := DeriveStatus([]entities.Stage{votingStage(t, active)}, now)
		if !status.IsVotingEnded {
			t.Fatalf("expected voting ended with is_active=%v", active)
		}
		if status.IsVotingActive {
			t.Fatalf("expected voting inactive with is_active=%v", active)
		}
		if status.CurrentStage != nil {
			t.Fatalf("expected no current stage, got %+v", status.CurrentStage)
		}
	}
}

func TestDeriveStatusInactiveVotingStageIsNotActive(t *testing.T) {
	status := DeriveStatus([]entities.Stage{votingStage(t, false)}, mustTime(t, "2025-01-02T00:00:00Z"))
	if status.IsVotingActive || status.IsVotingEnded {
		t.Fatalf("expected neither active nor ended, got %+v", status)
	}
}

func TestDeriveStatusBoundariesAreInclusive(t *testing.T) {
	stage := votingStage(t, true)
	if !DeriveStatus([]entities.Stage{stage}, stage.StartTime).IsVotingActive {
		t.Fatalf("expected voting active at start instant")
	}
	atEnd := DeriveStatus([]entities.Stage{stage}, stage.EndTime)
	if !atEnd.IsVotingActive || atEnd.IsVotingEnded {
		t.Fatalf("expected voting active and not ended at end instant, got %+v", atEnd)
	}
	after := DeriveStatus([]entities.Stage{stage}, stage.EndTime.Add(time.Nanosecond))
	if after.IsVotingActive || !after.IsVotingEnded {
		t.Fatalf("expected voting ended right after end instant, got %+v", after)
	}
}

func TestDeriveStatusMissingCategoriesDefaultToFalse(t *testing.T) {
	status := DeriveStatus([]entities.Stage{{
		StageID:   1,
		Name:      "Manifesto week",
		Category:  entities.CategoryOther,
		StartTime: mustTime(t, "2025-01-01T00:00:00Z"),
		EndTime:   mustTime(t, "2025-01-10T00:00:00Z"),
		IsActive:  true,
	}}, mustTime(t, "2025-01-05T00:00:00Z"))

	if status.IsVotingActive || status.IsVotingEnded || status.IsResultsPublished {
		t.Fatalf("expected all voting/results flags false, got %+v", status)
	}
	if status.VotingStartTime != nil || status.VotingEndTime != nil || status.ResultsPublishTime != nil {
		t.Fatalf("expected nil timestamps, got %+v", status)
	}
	if status.Registration.Present || status.Application.Present {
		t.Fatalf("expected absent registration/application phases")
	}
	if status.CurrentStage == nil || status.CurrentStage.Category != entities.CategoryOther {
		t.Fatalf("expected other stage as current, got %+v", status.CurrentStage)
	}
}

func TestDeriveStatusResultsPublication(t *testing.T) {
	results := entities.Stage{
		StageID:   4,
		Name:      "Results",
		Category:  entities.CategoryResults,
		StartTime: mustTime(t, "2025-01-05T00:00:00Z"),
		EndTime:   mustTime(t, "2025-02-05T00:00:00Z"),
		IsActive:  true,
	}
	if DeriveStatus([]entities.Stage{results}, mustTime(t, "2025-01-04T23:59:59Z")).IsResultsPublished {
		t.Fatalf("expected results unpublished before start")
	}
	if !DeriveStatus([]entities.Stage{results}, results.StartTime).IsResultsPublished {
		t.Fatalf("expected results published at start")
	}
	if !DeriveStatus([]entities.Stage{results}, mustTime(t, "2025-03-01T00:00:00Z")).IsResultsPublished {
		t.Fatalf("expected results to stay published after the window end")
	}
	results.IsActive = false
	if DeriveStatus([]entities.Stage{results}, mustTime(t, "2025-01-06T00:00:00Z")).IsResultsPublished {
		t.Fatalf("expected inactive results stage to stay unpublished")
	}
}

func TestDeriveStatusCurrentStageTieBreak(t *testing.T) {
	start := mustTime(t, "2025-01-01T00:00:00Z")
	end := mustTime(t, "2025-01-09T00:00:00Z")
	stages := []entities.Stage{
		{StageID: 9, Name: "late", Category: entities.CategoryOther, StartTime: start.Add(time.Hour), EndTime: end, IsActive: true},
		{StageID: 7, Name: "b", Category: entities.CategoryOther, StartTime: start, EndTime: end, IsActive: true},
		{StageID: 5, Name: "a", Category: entities.CategoryApplication, StartTime: start, EndTime: end, IsActive: true},
		{StageID: 1, Name: "disabled", Category: entities.CategoryRegistration, StartTime: start.Add(-time.Hour), EndTime: end, IsActive: false},
	}
	status := DeriveStatus(stages, mustTime(t, "2025-01-02T00:00:00Z"))
	if status.CurrentStage == nil || status.CurrentStage.StageID != 5 {
		t.Fatalf("expected stage 5 by earliest start then lowest id, got %+v", status.CurrentStage)
	}
	if !status.Application.Open {
		t.Fatalf("expected application phase open")
	}
	if status.Registration.Open || status.Registration.Ended || !status.Registration.Present {
		t.Fatalf("expected registration present but not open, got %+v", status.Registration)
	}
}

func TestDeriveStatusIsPure(t *testing.T) {
	stages := []entities.Stage{
		votingStage(t, true),
		{
			StageID:   4,
			Name:      "Results",
			Category:  entities.CategoryResults,
			StartTime: mustTime(t, "2025-01-03T00:00:00Z"),
			EndTime:   mustTime(t, "2025-01-30T00:00:00Z"),
			IsActive:  true,
		},
	}
	now := mustTime(t, "2025-01-02T12:00:00Z")
	first := DeriveStatus(stages, now)
	second := DeriveStatus(stages, now)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical status, got %+v and %+v", first, second)
	}
}
