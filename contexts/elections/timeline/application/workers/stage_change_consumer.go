package workers

import (
	"context"
	"log/slog"

	application "agora/contexts/elections/timeline/application"
	"agora/contexts/elections/timeline/domain/entities"
	"agora/contexts/elections/timeline/ports"
)

// SnapshotRefresher is satisfied by queries.StatusService.
type SnapshotRefresher interface {
	Invalidate()
	Refresh(ctx context.Context) error
}

// StageChangeConsumer re-evaluates the timeline whenever the change feed
// reports a stage write.
type StageChangeConsumer struct {
	Subscriber ports.ChangeSubscriber
	Status     SnapshotRefresher
	Logger     *slog.Logger
}

// Start registers the subscription. The subscription lives until ctx is
// cancelled.
func (c StageChangeConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	if c.Subscriber == nil {
		logger.Info("stage change feed not configured, relying on periodic refresh",
			"event", "timeline_stage_change_feed_disabled",
			"module", "elections/timeline",
			"layer", "worker",
		)
		return nil
	}
	return c.Subscriber.SubscribeStageChanges(ctx, c.Handle)
}

func (c StageChangeConsumer) Handle(ctx context.Context, change entities.StageChange) error {
	logger := application.ResolveLogger(c.Logger)
	c.Status.Invalidate()
	if err := c.Status.Refresh(ctx); err != nil {
		logger.Error("stage change refresh failed",
			"event", "timeline_stage_change_refresh_failed",
			"module", "elections/timeline",
			"layer", "worker",
			"stage_id", change.StageID,
			"kind", string(change.Kind),
			"error", err.Error(),
		)
		return err
	}
	logger.Info("stage change consumed",
		"event", "timeline_stage_change_consumed",
		"module", "elections/timeline",
		"layer", "worker",
		"stage_id", change.StageID,
		"kind", string(change.Kind),
		"category", string(change.Category),
	)
	return nil
}

// StatusRefresher is the periodic fallback for missed change notifications.
type StatusRefresher struct {
	Status SnapshotRefresher
	Logger *slog.Logger
}

func (r StatusRefresher) RunOnce(ctx context.Context) error {
	if err := r.Status.Refresh(ctx); err != nil {
		application.ResolveLogger(r.Logger).Error("timeline periodic refresh failed",
			"event", "timeline_periodic_refresh_failed",
			"module", "elections/timeline",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	return nil
}
