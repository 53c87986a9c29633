package balloting

import (
	"log/slog"
	"time"

	httpadapter "agora/contexts/elections/balloting/adapters/http"
	"agora/contexts/elections/balloting/adapters/memory"
	"agora/contexts/elections/balloting/adapters/token"
	"agora/contexts/elections/balloting/application/commands"
	"agora/contexts/elections/balloting/application/queries"
	"agora/contexts/elections/balloting/application/workers"
	"agora/contexts/elections/balloting/ports"
)

type Module struct {
	Handler         httpadapter.Handler
	Votes           commands.VoteUseCase
	Results         queries.ResultsUseCase
	TallyReconciler workers.TallyReconciler
	AnomalyScanner  workers.AnomalyScanner
	OutboxRelay     workers.OutboxRelay
	Store           *memory.Store
}

type Dependencies struct {
	Voters         ports.VoterRepository
	Catalog        ports.CatalogReader
	Ballots        ports.BallotStore
	Tallies        ports.TallyRepository
	Audit          ports.AuditWriter
	Reconciliation ports.ReconciliationQueue
	Eligibility    ports.Eligibility
	Phase          ports.PhaseReader
	Outbox         ports.OutboxWriter
	OutboxStore    ports.OutboxRepository
	Publisher      ports.EventPublisher
	Tokens         ports.TokenGenerator
	IDGen          ports.IDGenerator
	Clock          ports.Clock
	Metrics        ports.BallotMetrics
	SubmitTimeout  time.Duration
	GracePeriod    time.Duration
	TopicPrefix    string
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	tokens := deps.Tokens
	if tokens == nil {
		tokens = token.Generator{}
	}
	votes := commands.VoteUseCase{
		Voters:         deps.Voters,
		Catalog:        deps.Catalog,
		Ballots:        deps.Ballots,
		Tallies:        deps.Tallies,
		Audit:          deps.Audit,
		Reconciliation: deps.Reconciliation,
		Eligibility:    deps.Eligibility,
		Outbox:         deps.Outbox,
		Tokens:         tokens,
		IDGen:          deps.IDGen,
		Clock:          deps.Clock,
		Metrics:        deps.Metrics,
		SubmitTimeout:  deps.SubmitTimeout,
		Logger:         deps.Logger,
	}
	results := queries.ResultsUseCase{
		Catalog:     deps.Catalog,
		Voters:      deps.Voters,
		Phase:       deps.Phase,
		Eligibility: deps.Eligibility,
		Logger:      deps.Logger,
	}
	tallies := workers.TallyReconciler{
		Catalog: deps.Catalog,
		Tallies: deps.Tallies,
		Outbox:  deps.Outbox,
		IDGen:   deps.IDGen,
		Clock:   deps.Clock,
		Metrics: deps.Metrics,
		Logger:  deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Votes: votes,
			Reconciliation: commands.ReconciliationUseCase{
				Queue:         deps.Reconciliation,
				Audit:         deps.Audit,
				IDGen:         deps.IDGen,
				Clock:         deps.Clock,
				SubmitTimeout: deps.SubmitTimeout,
				Logger:        deps.Logger,
			},
			Queue:   queries.ReconciliationQuery{Queue: deps.Reconciliation},
			Results: results,
			Tallies: tallies,
			Logger:  deps.Logger,
		},
		Votes:           votes,
		Results:         results,
		TallyReconciler: tallies,
		AnomalyScanner: workers.AnomalyScanner{
			Voters:      deps.Voters,
			Queue:       deps.Reconciliation,
			IDGen:       deps.IDGen,
			Clock:       deps.Clock,
			Metrics:     deps.Metrics,
			GracePeriod: deps.GracePeriod,
			Logger:      deps.Logger,
		},
		OutboxRelay: workers.OutboxRelay{
			Outbox:      deps.OutboxStore,
			Publisher:   deps.Publisher,
			Clock:       deps.Clock,
			TopicPrefix: deps.TopicPrefix,
			Logger:      deps.Logger,
		},
	}
}

// NewInMemoryModule backs every balloting port with one in-process store.
// The outbox relay has no publisher until the caller assigns one.
func NewInMemoryModule(
	seed memory.Seed,
	eligibility ports.Eligibility,
	phase ports.PhaseReader,
	logger *slog.Logger,
) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Voters:         store,
		Catalog:        store,
		Ballots:        store,
		Tallies:        store,
		Audit:          store,
		Reconciliation: store,
		Eligibility:    eligibility,
		Phase:          phase,
		Outbox:         store,
		OutboxStore:    store,
		IDGen:          store,
		Clock:          store,
		Logger:         logger,
	})
	module.Store = store
	return module
}
