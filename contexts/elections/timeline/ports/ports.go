//go:generate mockgen -destination=mocks/mock_ports.go -package=mocks agora/contexts/elections/timeline/ports StageRepository

package ports

import (
	"context"
	"time"

	"agora/contexts/elections/timeline/domain/entities"
)

type StageRepository interface {
	ListStages(ctx context.Context) ([]entities.Stage, error)
	GetStage(ctx context.Context, stageID int64) (entities.Stage, error)
	SaveStage(ctx context.Context, stage entities.Stage) (entities.Stage, error)
	DeleteStage(ctx context.Context, stageID int64) error
}

// ChangeNotifier announces stage writes to every status evaluator.
type ChangeNotifier interface {
	PublishStageChange(ctx context.Context, change entities.StageChange) error
}

// ChangeSubscriber delivers stage changes until ctx is cancelled. Delivery is
// at-most-once; evaluators fall back to periodic refresh for missed events.
type ChangeSubscriber interface {
	SubscribeStageChanges(ctx context.Context, handler func(context.Context, entities.StageChange) error) error
}

type Clock interface {
	Now() time.Time
}
