package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "agora/contexts/elections/timeline/application"
	"agora/contexts/elections/timeline/domain/entities"
	domainerrors "agora/contexts/elections/timeline/domain/errors"
	"agora/contexts/elections/timeline/ports"
)

// UpsertStageCommand creates a stage when StageID is zero and replaces it
// otherwise.
type UpsertStageCommand struct {
	StageID   int64
	Name      string
	Category  entities.Category
	StartTime time.Time
	EndTime   time.Time
	IsActive  bool
}

// StageUseCase owns stage writes. Every successful write is announced on the
// change feed so status evaluators re-read the catalog.
type StageUseCase struct {
	Stages   ports.StageRepository
	Notifier ports.ChangeNotifier
	Clock    ports.Clock
	Logger   *slog.Logger
}

func (uc StageUseCase) UpsertStage(ctx context.Context, cmd UpsertStageCommand) (entities.Stage, error) {
	logger := application.ResolveLogger(uc.Logger)
	name := strings.TrimSpace(cmd.Name)
	category := entities.Category(strings.ToLower(strings.TrimSpace(string(cmd.Category))))
	if name == "" || !category.Valid() || cmd.StartTime.IsZero() || cmd.EndTime.IsZero() || cmd.StageID < 0 {
		logger.Warn("stage upsert validation failed",
			"event", "timeline_stage_upsert_validation_failed",
			"module", "elections/timeline",
			"layer", "application",
			"stage_id", cmd.StageID,
			"category", string(cmd.Category),
		)
		return entities.Stage{}, domainerrors.ErrInvalidStageInput
	}
	if cmd.StartTime.After(cmd.EndTime) {
		return entities.Stage{}, domainerrors.ErrInvalidWindow
	}

	existing, err := uc.Stages.ListStages(ctx)
	if err != nil {
		return entities.Stage{}, err
	}

	now := uc.now()
	stage := entities.Stage{
		StageID:   cmd.StageID,
		Name:      name,
		Category:  category,
		StartTime: cmd.StartTime.UTC(),
		EndTime:   cmd.EndTime.UTC(),
		IsActive:  cmd.IsActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	found := cmd.StageID == 0
	for _, item := range existing {
		if item.StageID == cmd.StageID {
			stage.CreatedAt = item.CreatedAt
			found = true
			continue
		}
		if category.Unique() && item.Category == category {
			logger.Warn("stage category already taken",
				"event", "timeline_stage_category_conflict",
				"module", "elections/timeline",
				"layer", "application",
				"stage_id", cmd.StageID,
				"existing_stage_id", item.StageID,
				"category", string(category),
			)
			return entities.Stage{}, domainerrors.ErrCategoryConflict
		}
	}
	if !found {
		return entities.Stage{}, domainerrors.ErrStageNotFound
	}

	saved, err := uc.Stages.SaveStage(ctx, stage)
	if err != nil {
		return entities.Stage{}, err
	}
	uc.announce(ctx, entities.StageChange{
		StageID:    saved.StageID,
		Kind:       entities.StageChangeUpserted,
		Category:   saved.Category,
		OccurredAt: now,
	})

	logger.Info("stage saved",
		"event", "timeline_stage_saved",
		"module", "elections/timeline",
		"layer", "application",
		"stage_id", saved.StageID,
		"category", string(saved.Category),
		"is_active", saved.IsActive,
	)
	return saved, nil
}

func (uc StageUseCase) DeleteStage(ctx context.Context, stageID int64) error {
	logger := application.ResolveLogger(uc.Logger)
	if stageID <= 0 {
		return domainerrors.ErrInvalidStageInput
	}
	stage, err := uc.Stages.GetStage(ctx, stageID)
	if err != nil {
		return err
	}
	if err := uc.Stages.DeleteStage(ctx, stageID); err != nil {
		return err
	}
	uc.announce(ctx, entities.StageChange{
		StageID:    stageID,
		Kind:       entities.StageChangeDeleted,
		Category:   stage.Category,
		OccurredAt: uc.now(),
	})
	logger.Info("stage deleted",
		"event", "timeline_stage_deleted",
		"module", "elections/timeline",
		"layer", "application",
		"stage_id", stageID,
	)
	return nil
}

// announce is best effort: subscribers that miss the change catch up on the
// next periodic refresh.
func (uc StageUseCase) announce(ctx context.Context, change entities.StageChange) {
	if uc.Notifier == nil {
		return
	}
	if err := uc.Notifier.PublishStageChange(ctx, change); err != nil && !errors.Is(err, context.Canceled) {
		application.ResolveLogger(uc.Logger).Warn("stage change publish failed",
			"event", "timeline_stage_change_publish_failed",
			"module", "elections/timeline",
			"layer", "application",
			"stage_id", change.StageID,
			"kind", string(change.Kind),
			"error", err.Error(),
		)
	}
}

func (uc StageUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
