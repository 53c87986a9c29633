package queries

import (
	"context"
	"log/slog"
	"sync"
	"time"

	application "agora/contexts/elections/timeline/application"
	"agora/contexts/elections/timeline/domain/entities"
	"agora/contexts/elections/timeline/domain/services"
	"agora/contexts/elections/timeline/ports"
)

// StatusService is the single evaluator of timeline status for a process.
// It caches stage rows, never derived status: every call re-derives status
// against the current clock.
type StatusService struct {
	stages          ports.StageRepository
	clock           ports.Clock
	refreshInterval time.Duration
	logger          *slog.Logger

	mu       sync.RWMutex
	snapshot []entities.Stage
	loadedAt time.Time
	loaded   bool
}

// NewStatusService builds an evaluator. A refreshInterval of zero disables
// the snapshot so every evaluation reads the repository.
func NewStatusService(
	stages ports.StageRepository,
	clock ports.Clock,
	refreshInterval time.Duration,
	logger *slog.Logger,
) *StatusService {
	return &StatusService{
		stages:          stages,
		clock:           clock,
		refreshInterval: refreshInterval,
		logger:          logger,
	}
}

func (s *StatusService) Status(ctx context.Context) (entities.TimelineStatus, error) {
	stages, err := s.currentStages(ctx)
	if err != nil {
		return entities.TimelineStatus{}, err
	}
	return services.DeriveStatus(stages, s.now()), nil
}

// Authorize evaluates status at call time and applies the eligibility gate.
func (s *StatusService) Authorize(ctx context.Context, action services.Action) (services.Decision, entities.TimelineStatus, error) {
	status, err := s.Status(ctx)
	if err != nil {
		return services.Decision{}, entities.TimelineStatus{}, err
	}
	decision, err := services.Authorize(action, status)
	if err != nil {
		return services.Decision{}, entities.TimelineStatus{}, err
	}
	if !decision.Allowed {
		application.ResolveLogger(s.logger).Debug("timeline action denied",
			"event", "timeline_action_denied",
			"module", "elections/timeline",
			"layer", "application",
			"action", string(action),
			"reason", string(decision.Reason),
		)
	}
	return decision, status, nil
}

func (s *StatusService) ListStages(ctx context.Context) ([]entities.Stage, error) {
	stages, err := s.currentStages(ctx)
	if err != nil {
		return nil, err
	}
	return append([]entities.Stage(nil), stages...), nil
}

// GetStage reads one stage straight from the repository.
func (s *StatusService) GetStage(ctx context.Context, stageID int64) (entities.Stage, error) {
	return s.stages.GetStage(ctx, stageID)
}

// Refresh reloads the snapshot from the repository.
func (s *StatusService) Refresh(ctx context.Context) error {
	_, err := s.reload(ctx)
	return err
}

// Invalidate drops the snapshot; the next evaluation reads the repository.
func (s *StatusService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
	s.snapshot = nil
}

func (s *StatusService) currentStages(ctx context.Context) ([]entities.Stage, error) {
	if s.refreshInterval <= 0 {
		return s.stages.ListStages(ctx)
	}
	s.mu.RLock()
	if s.loaded && s.now().Sub(s.loadedAt) < s.refreshInterval {
		stages := s.snapshot
		s.mu.RUnlock()
		return stages, nil
	}
	s.mu.RUnlock()
	return s.reload(ctx)
}

func (s *StatusService) reload(ctx context.Context) ([]entities.Stage, error) {
	logger := application.ResolveLogger(s.logger)
	stages, err := s.stages.ListStages(ctx)
	if err != nil {
		logger.Error("timeline stage snapshot load failed",
			"event", "timeline_snapshot_load_failed",
			"module", "elections/timeline",
			"layer", "application",
			"error", err.Error(),
		)
		return nil, err
	}
	if s.refreshInterval <= 0 {
		return stages, nil
	}

	s.mu.Lock()
	s.snapshot = stages
	s.loadedAt = s.now()
	s.loaded = true
	s.mu.Unlock()

	logger.Debug("timeline stage snapshot refreshed",
		"event", "timeline_snapshot_refreshed",
		"module", "elections/timeline",
		"layer", "application",
		"stage_count", len(stages),
	)
	return stages, nil
}

func (s *StatusService) now() time.Time {
	if s.clock != nil {
		return s.clock.Now().UTC()
	}
	return time.Now().UTC()
}
