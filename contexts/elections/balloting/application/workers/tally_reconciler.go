package workers

import (
	"context"
	"log/slog"
	"sort"
	"time"

	application "agora/contexts/elections/balloting/application"
	"agora/contexts/elections/balloting/domain/entities"
	"agora/contexts/elections/balloting/ports"
)

// TallyReconciler rewrites cached vote counts from the vote rows, which are
// the ground truth. The bulk count only finds drifted candidates; each one is
// recounted in a single statement so increments landing mid-cycle survive.
type TallyReconciler struct {
	Catalog ports.CatalogReader
	Tallies ports.TallyRepository
	Outbox  ports.OutboxWriter
	IDGen   ports.IDGenerator
	Clock   ports.Clock
	Metrics ports.BallotMetrics
	Logger  *slog.Logger
}

func (r TallyReconciler) RunOnce(ctx context.Context) error {
	_, err := r.Reconcile(ctx)
	return err
}

// Reconcile returns the corrections it applied, ordered by candidate id.
func (r TallyReconciler) Reconcile(ctx context.Context) ([]entities.TallyCorrection, error) {
	logger := application.ResolveLogger(r.Logger)
	candidates, err := r.Catalog.ListCandidates(ctx)
	if err != nil {
		return nil, err
	}
	actual, err := r.Tallies.CountVotesByCandidate(ctx)
	if err != nil {
		logger.Error("tally ground truth count failed",
			"event", "balloting_tally_count_failed",
			"module", "elections/balloting",
			"layer", "worker",
			"error", err.Error(),
		)
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CandidateID < candidates[j].CandidateID
	})
	corrections := make([]entities.TallyCorrection, 0)
	for _, candidate := range candidates {
		if candidate.VoteCount == actual[candidate.CandidateID] {
			continue
		}
		recounted, err := r.Tallies.RecountVotes(ctx, candidate.CandidateID)
		if err != nil {
			logger.Error("tally correction failed",
				"event", "balloting_tally_correction_failed",
				"module", "elections/balloting",
				"layer", "worker",
				"candidate_id", candidate.CandidateID,
				"error", err.Error(),
			)
			return corrections, err
		}
		if recounted == candidate.VoteCount {
			continue
		}
		corrections = append(corrections, entities.TallyCorrection{
			CandidateID: candidate.CandidateID,
			Cached:      candidate.VoteCount,
			Actual:      recounted,
		})
	}

	if len(corrections) == 0 {
		logger.Debug("tallies consistent",
			"event", "balloting_tally_consistent",
			"module", "elections/balloting",
			"layer", "worker",
			"candidate_count", len(candidates),
		)
		return corrections, nil
	}
	if r.Metrics != nil {
		r.Metrics.AddTallyCorrections(len(corrections))
	}
	if err := r.appendCorrectionEvent(ctx, corrections); err != nil {
		logger.Error("tally correction outbox append failed",
			"event", "balloting_tally_outbox_append_failed",
			"module", "elections/balloting",
			"layer", "worker",
			"error", err.Error(),
		)
	}
	logger.Warn("tally drift corrected",
		"event", "balloting_tally_drift_corrected",
		"module", "elections/balloting",
		"layer", "worker",
		"corrected_count", len(corrections),
	)
	return corrections, nil
}

func (r TallyReconciler) appendCorrectionEvent(ctx context.Context, corrections []entities.TallyCorrection) error {
	if r.Outbox == nil || r.IDGen == nil {
		return nil
	}
	eventID, err := r.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	counts := make(map[string]int64, len(corrections))
	for _, correction := range corrections {
		counts[correction.CandidateID] = correction.Actual
	}
	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}
	envelope, err := application.NewEnvelope(eventID, "tally.corrected", "election", "election", now, map[string]any{
		"vote_counts": counts,
	})
	if err != nil {
		return err
	}
	return r.Outbox.AppendOutbox(ctx, envelope)
}
