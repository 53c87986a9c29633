package queries

import (
	"context"
	"fmt"
	"log/slog"

	application "agora/contexts/elections/balloting/application"
	"agora/contexts/elections/balloting/domain/entities"
	domainerrors "agora/contexts/elections/balloting/domain/errors"
	"agora/contexts/elections/balloting/domain/services"
	"agora/contexts/elections/balloting/ports"
)

type ResultsUseCase struct {
	Catalog     ports.CatalogReader
	Voters      ports.VoterRepository
	Phase       ports.PhaseReader
	Eligibility ports.Eligibility
	Logger      *slog.Logger
}

// PublishedResults gates on view_results before aggregating.
func (uc ResultsUseCase) PublishedResults(ctx context.Context) (entities.ResultsSummary, error) {
	if uc.Eligibility != nil {
		decision, err := uc.Eligibility.Authorize(ctx, ports.ActionViewResults)
		if err != nil {
			return entities.ResultsSummary{}, err
		}
		if !decision.Allowed {
			return entities.ResultsSummary{}, fmt.Errorf("%w: %s", domainerrors.ErrResultsNotPublished, decision.Reason)
		}
	}
	return uc.Results(ctx)
}

// Results aggregates tallies. Positions are withheld while the current phase
// says results are unpublished.
func (uc ResultsUseCase) Results(ctx context.Context) (entities.ResultsSummary, error) {
	phase, err := uc.Phase.CurrentPhase(ctx)
	if err != nil {
		return entities.ResultsSummary{}, err
	}
	positions, err := uc.Catalog.ListPositions(ctx)
	if err != nil {
		return entities.ResultsSummary{}, err
	}
	candidates, err := uc.Catalog.ListCandidates(ctx)
	if err != nil {
		return entities.ResultsSummary{}, err
	}
	counts, err := uc.Voters.CountVoters(ctx)
	if err != nil {
		return entities.ResultsSummary{}, err
	}

	results := services.ComputeResults(positions, candidates, phase)
	application.ResolveLogger(uc.Logger).Debug("results computed",
		"event", "balloting_results_computed",
		"module", "elections/balloting",
		"layer", "application",
		"position_count", len(results),
		"results_published", phase.ResultsPublished,
	)
	return entities.ResultsSummary{
		Positions:      results,
		VerifiedVoters: counts.Verified,
		VotedVoters:    counts.Voted,
		Turnout:        services.Turnout(counts),
		Phase:          phase,
	}, nil
}
