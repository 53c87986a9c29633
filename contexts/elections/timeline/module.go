package timeline

import (
	"log/slog"
	"time"

	httpadapter "agora/contexts/elections/timeline/adapters/http"
	"agora/contexts/elections/timeline/adapters/memory"
	"agora/contexts/elections/timeline/application/commands"
	"agora/contexts/elections/timeline/application/queries"
	"agora/contexts/elections/timeline/application/workers"
	"agora/contexts/elections/timeline/domain/entities"
	"agora/contexts/elections/timeline/ports"
)

type Module struct {
	Handler   httpadapter.Handler
	Status    *queries.StatusService
	Consumer  workers.StageChangeConsumer
	Refresher workers.StatusRefresher
	Store     *memory.Store
}

type Dependencies struct {
	Stages          ports.StageRepository
	Notifier        ports.ChangeNotifier
	Subscriber      ports.ChangeSubscriber
	Clock           ports.Clock
	RefreshInterval time.Duration
	Logger          *slog.Logger
}

func NewModule(deps Dependencies) Module {
	status := queries.NewStatusService(deps.Stages, deps.Clock, deps.RefreshInterval, deps.Logger)
	stageUseCase := commands.StageUseCase{
		Stages:   deps.Stages,
		Notifier: deps.Notifier,
		Clock:    deps.Clock,
		Logger:   deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Stages: stageUseCase,
			Status: status,
			Logger: deps.Logger,
		},
		Status: status,
		Consumer: workers.StageChangeConsumer{
			Subscriber: deps.Subscriber,
			Status:     status,
			Logger:     deps.Logger,
		},
		Refresher: workers.StatusRefresher{
			Status: status,
			Logger: deps.Logger,
		},
	}
}

// NewInMemoryModule wires the in-process store as repository, clock and
// change feed. Caching is disabled so tests observe writes immediately.
func NewInMemoryModule(seed []entities.Stage, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Stages:     store,
		Notifier:   store,
		Subscriber: store,
		Clock:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}
