package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"agora/contexts/elections/timeline/adapters/memory"
	"agora/contexts/elections/timeline/domain/entities"
	domainerrors "agora/contexts/elections/timeline/domain/errors"
)

type recordingNotifier struct {
	changes []entities.StageChange
	err     error
}

func (n *recordingNotifier) PublishStageChange(_ context.Context, change entities.StageChange) error {
	n.changes = append(n.changes, change)
	return n.err
}

func newStageUseCase(seed []entities.Stage) (StageUseCase, *memory.Store, *recordingNotifier) {
	store := memory.NewStore(seed)
	notifier := &recordingNotifier{}
	return StageUseCase{
		Stages:   store,
		Notifier: notifier,
		Clock:    store,
	}, store, notifier
}

func TestUpsertStageCreatesAndAnnounces(t *testing.T) {
	uc, store, notifier := newStageUseCase(nil)
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	stage, err := uc.UpsertStage(context.Background(), UpsertStageCommand{
		Name:      "  Voting  ",
		Category:  "Voting",
		StartTime: start,
		EndTime:   start.Add(48 * time.Hour),
		IsActive:  true,
	})
	if err != nil {
		t.Fatalf("upsert stage failed: %v", err)
	}
	if stage.StageID == 0 || stage.Name != "Voting" || stage.Category != entities.CategoryVoting {
		t.Fatalf("unexpected stage %+v", stage)
	}
	stored, err := store.GetStage(context.Background(), stage.StageID)
	if err != nil {
		t.Fatalf("get stage failed: %v", err)
	}
	if !stored.IsActive {
		t.Fatalf("expected stored stage to be active")
	}
	if len(notifier.changes) != 1 || notifier.changes[0].Kind != entities.StageChangeUpserted {
		t.Fatalf("expected one upsert notification, got %+v", notifier.changes)
	}
}

func TestUpsertStageRejectsInvertedWindow(t *testing.T) {
	uc, _, notifier := newStageUseCase(nil)
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	_, err := uc.UpsertStage(context.Background(), UpsertStageCommand{
		Name:      "Voting",
		Category:  entities.CategoryVoting,
		StartTime: start,
		EndTime:   start.Add(-time.Minute),
	})
	if !errors.Is(err, domainerrors.ErrInvalidWindow) {
		t.Fatalf("expected invalid window, got %v", err)
	}
	if len(notifier.changes) != 0 {
		t.Fatalf("expected no notifications on rejected write")
	}
}

func TestUpsertStageRejectsUnknownCategory(t *testing.T) {
	uc, _, _ := newStageUseCase(nil)
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	_, err := uc.UpsertStage(context.Background(), UpsertStageCommand{
		Name:      "Voting day",
		Category:  "polling",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	})
	if !errors.Is(err, domainerrors.ErrInvalidStageInput) {
		t.Fatalf("expected invalid stage input, got %v", err)
	}
}

func TestUpsertStageEnforcesCategoryUniqueness(t *testing.T) {
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	uc, _, _ := newStageUseCase([]entities.Stage{{
		StageID:   1,
		Name:      "Voting",
		Category:  entities.CategoryVoting,
		StartTime: start,
		EndTime:   start.Add(24 * time.Hour),
		IsActive:  true,
	}})

	_, err := uc.UpsertStage(context.Background(), UpsertStageCommand{
		Name:      "Voting (runoff)",
		Category:  entities.CategoryVoting,
		StartTime: start.Add(48 * time.Hour),
		EndTime:   start.Add(72 * time.Hour),
	})
	if !errors.Is(err, domainerrors.ErrCategoryConflict) {
		t.Fatalf("expected category conflict, got %v", err)
	}

	// Updating the existing voting stage keeps its own category.
	updated, err := uc.UpsertStage(context.Background(), UpsertStageCommand{
		StageID:   1,
		Name:      "Voting",
		Category:  entities.CategoryVoting,
		StartTime: start,
		EndTime:   start.Add(36 * time.Hour),
		IsActive:  false,
	})
	if err != nil {
		t.Fatalf("update existing stage failed: %v", err)
	}
	if updated.IsActive || !updated.EndTime.Equal(start.Add(36*time.Hour)) {
		t.Fatalf("unexpected updated stage %+v", updated)
	}

	for i := 0; i < 2; i++ {
		if _, err := uc.UpsertStage(context.Background(), UpsertStageCommand{
			Name:      "Debate night",
			Category:  entities.CategoryOther,
			StartTime: start,
			EndTime:   start.Add(time.Hour),
		}); err != nil {
			t.Fatalf("expected repeated other stages to be accepted, got %v", err)
		}
	}
}

func TestUpsertStageUnknownIDAndDelete(t *testing.T) {
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	uc, store, notifier := newStageUseCase([]entities.Stage{{
		StageID:   4,
		Name:      "Results",
		Category:  entities.CategoryResults,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	}})

	_, err := uc.UpsertStage(context.Background(), UpsertStageCommand{
		StageID:   42,
		Name:      "Registration",
		Category:  entities.CategoryRegistration,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	})
	if !errors.Is(err, domainerrors.ErrStageNotFound) {
		t.Fatalf("expected stage not found, got %v", err)
	}

	if err := uc.DeleteStage(context.Background(), 4); err != nil {
		t.Fatalf("delete stage failed: %v", err)
	}
	if _, err := store.GetStage(context.Background(), 4); !errors.Is(err, domainerrors.ErrStageNotFound) {
		t.Fatalf("expected deleted stage to be gone, got %v", err)
	}
	if len(notifier.changes) != 1 || notifier.changes[0].Kind != entities.StageChangeDeleted {
		t.Fatalf("expected delete notification, got %+v", notifier.changes)
	}
	if err := uc.DeleteStage(context.Background(), 4); !errors.Is(err, domainerrors.ErrStageNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestUpsertStageSurvivesNotifierFailure(t *testing.T) {
	uc, _, notifier := newStageUseCase(nil)
	notifier.err = errors.New("redis unavailable")
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	if _, err := uc.UpsertStage(context.Background(), UpsertStageCommand{
		Name:      "Applications",
		Category:  entities.CategoryApplication,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	}); err != nil {
		t.Fatalf("expected write to succeed despite notifier failure, got %v", err)
	}
}
