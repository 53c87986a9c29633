package workers

import (
	"context"
	"log/slog"
	"time"

	application "agora/contexts/elections/balloting/application"
	"agora/contexts/elections/balloting/domain/entities"
	"agora/contexts/elections/balloting/ports"
)

const defaultGracePeriod = 5 * time.Minute

// AnomalyScanner finds voters marked voted with no ballot, which covers
// failures the escalation path could not record itself.
type AnomalyScanner struct {
	Voters      ports.VoterRepository
	Queue       ports.ReconciliationQueue
	IDGen       ports.IDGenerator
	Clock       ports.Clock
	Metrics     ports.BallotMetrics
	GracePeriod time.Duration
	BatchSize   int
	Logger      *slog.Logger
}

func (s AnomalyScanner) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(s.Logger)
	limit := s.BatchSize
	if limit <= 0 {
		limit = 100
	}
	grace := s.GracePeriod
	if grace <= 0 {
		grace = defaultGracePeriod
	}
	now := time.Now().UTC()
	if s.Clock != nil {
		now = s.Clock.Now().UTC()
	}

	voters, err := s.Voters.ListClaimedWithoutBallot(ctx, now.Add(-grace), limit)
	if err != nil {
		logger.Error("anomaly scan failed",
			"event", "balloting_anomaly_scan_failed",
			"module", "elections/balloting",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	enqueued := 0
	for _, voter := range voters {
		itemID, err := s.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		_, created, err := s.Queue.EnqueueReconciliation(ctx, entities.ReconciliationItem{
			ItemID:    itemID,
			VoterID:   voter.VoterID,
			Reason:    entities.ReasonClaimedWithoutBallot,
			Status:    entities.ReconciliationPending,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			logger.Error("anomaly enqueue failed",
				"event", "balloting_anomaly_enqueue_failed",
				"module", "elections/balloting",
				"layer", "worker",
				"voter_id", voter.VoterID,
				"error", err.Error(),
			)
			return err
		}
		if !created {
			continue
		}
		enqueued++
		if s.Metrics != nil {
			s.Metrics.IncReconciliationEnqueued(entities.ReasonClaimedWithoutBallot)
		}
		logger.Warn("voter claimed without ballot",
			"event", "balloting_claimed_without_ballot",
			"module", "elections/balloting",
			"layer", "worker",
			"voter_id", voter.VoterID,
		)
	}

	logger.Debug("anomaly scan completed",
		"event", "balloting_anomaly_scan_completed",
		"module", "elections/balloting",
		"layer", "worker",
		"candidates", len(voters),
		"enqueued", enqueued,
	)
	return nil
}
