package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "agora/contexts/elections/balloting/application"
	"agora/contexts/elections/balloting/domain/entities"
	domainerrors "agora/contexts/elections/balloting/domain/errors"
	"agora/contexts/elections/balloting/domain/services"
	"agora/contexts/elections/balloting/ports"
)

const (
	defaultSubmitTimeout = 10 * time.Second
	detachedTimeout      = 5 * time.Second
)

type SubmitVoteCommand struct {
	VoterID    string
	Selections entities.Selections
}

type SubmitVoteResult struct {
	Positions []string
	CastAt    time.Time
}

// VoteUseCase runs the claim-then-write ballot transaction. The voter claim is
// the only serialization point; everything after it is either part of the
// atomic ballot write or a best-effort tail repaired by workers.
type VoteUseCase struct {
	Voters         ports.VoterRepository
	Catalog        ports.CatalogReader
	Ballots        ports.BallotStore
	Tallies        ports.TallyRepository
	Audit          ports.AuditWriter
	Reconciliation ports.ReconciliationQueue
	Eligibility    ports.Eligibility
	Outbox         ports.OutboxWriter
	Tokens         ports.TokenGenerator
	IDGen          ports.IDGenerator
	Clock          ports.Clock
	Metrics        ports.BallotMetrics
	SubmitTimeout  time.Duration
	Logger         *slog.Logger
}

// SubmitVote casts a ballot for a voter who has not voted yet.
func (uc VoteUseCase) SubmitVote(ctx context.Context, cmd SubmitVoteCommand) (result SubmitVoteResult, err error) {
	started := time.Now()
	defer func() { uc.observe(err, time.Since(started)) }()

	logger := application.ResolveLogger(uc.Logger)
	voterID := strings.TrimSpace(cmd.VoterID)
	if voterID == "" {
		return SubmitVoteResult{}, domainerrors.ErrInvalidInput
	}
	ctx, cancel := context.WithTimeout(ctx, uc.submitTimeout())
	defer cancel()

	voter, err := uc.Voters.GetVoter(ctx, voterID)
	if err != nil {
		return SubmitVoteResult{}, err
	}
	if !voter.Verified {
		return SubmitVoteResult{}, domainerrors.ErrNotVerified
	}
	if voter.Voted {
		return SubmitVoteResult{}, domainerrors.ErrAlreadyVoted
	}
	if err := uc.authorizeVote(ctx); err != nil {
		return SubmitVoteResult{}, err
	}
	selections, err := uc.validateBallot(ctx, cmd.Selections)
	if err != nil {
		logger.Warn("ballot rejected",
			"event", "balloting_ballot_rejected",
			"module", "elections/balloting",
			"layer", "application",
			"voter_id", voterID,
			"error", err.Error(),
		)
		return SubmitVoteResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return SubmitVoteResult{}, err
	}

	now := uc.now()
	claimed, err := uc.Voters.ClaimVoter(ctx, voterID, now)
	if err != nil {
		return SubmitVoteResult{}, uc.claimFailed(ctx, voterID, err)
	}
	if !claimed {
		logger.Info("voter claim lost",
			"event", "balloting_voter_claim_lost",
			"module", "elections/balloting",
			"layer", "application",
			"voter_id", voterID,
		)
		return SubmitVoteResult{}, domainerrors.ErrAlreadyVoted
	}

	if err := uc.castBallot(ctx, voterID, selections, now, entities.AuditVoteCast); err != nil {
		return SubmitVoteResult{}, uc.escalate(ctx, voterID, err)
	}
	logger.Info("ballot cast",
		"event", "balloting_ballot_cast",
		"module", "elections/balloting",
		"layer", "application",
		"voter_id", voterID,
	)
	return SubmitVoteResult{Positions: services.BallotPositions(selections), CastAt: now}, nil
}

// RecoverBallot re-presents the ballot to a voter whose claim stands without a
// persisted ballot. It never claims the voter again; the pending
// reconciliation item is claimed instead.
func (uc VoteUseCase) RecoverBallot(ctx context.Context, cmd SubmitVoteCommand) (result SubmitVoteResult, err error) {
	started := time.Now()
	defer func() { uc.observe(err, time.Since(started)) }()

	logger := application.ResolveLogger(uc.Logger)
	voterID := strings.TrimSpace(cmd.VoterID)
	if voterID == "" {
		return SubmitVoteResult{}, domainerrors.ErrInvalidInput
	}
	ctx, cancel := context.WithTimeout(ctx, uc.submitTimeout())
	defer cancel()

	voter, err := uc.Voters.GetVoter(ctx, voterID)
	if err != nil {
		return SubmitVoteResult{}, err
	}
	if !voter.Verified {
		return SubmitVoteResult{}, domainerrors.ErrNotVerified
	}
	if !voter.Voted {
		return SubmitVoteResult{}, domainerrors.ErrNoClaimedBallot
	}
	if cast, err := uc.Ballots.HasCastBallot(ctx, voterID); err != nil {
		return SubmitVoteResult{}, err
	} else if cast {
		return SubmitVoteResult{}, domainerrors.ErrAlreadyVoted
	}
	if err := uc.authorizeVote(ctx); err != nil {
		return SubmitVoteResult{}, err
	}
	selections, err := uc.validateBallot(ctx, cmd.Selections)
	if err != nil {
		return SubmitVoteResult{}, err
	}

	now := uc.now()
	item, err := uc.Reconciliation.ClaimRecovery(ctx, voterID, now, now.Add(-recoveryLease(uc.SubmitTimeout)))
	if err != nil {
		return SubmitVoteResult{}, err
	}
	detached, release := detachedContext(ctx)
	defer release()

	// A slow original write may have landed between the check and the claim.
	if cast, err := uc.Ballots.HasCastBallot(ctx, voterID); err != nil {
		uc.releaseRecovery(detached, item)
		return SubmitVoteResult{}, err
	} else if cast {
		uc.resolveRecovery(detached, item, voterID, entities.ResolutionBallotPresent)
		return SubmitVoteResult{}, domainerrors.ErrAlreadyVoted
	}

	if err := uc.castBallot(ctx, voterID, selections, now, entities.AuditVoteRecovered); err != nil {
		uc.releaseRecovery(detached, item)
		logger.Error("ballot recovery failed",
			"event", "balloting_ballot_recovery_failed",
			"module", "elections/balloting",
			"layer", "application",
			"voter_id", voterID,
			"item_id", item.ItemID,
			"error", err.Error(),
		)
		return SubmitVoteResult{}, fmt.Errorf("%w: %v", domainerrors.ErrPersistence, err)
	}
	uc.resolveRecovery(detached, item, voterID, entities.ResolutionBallotRecovered)
	logger.Info("ballot recovered",
		"event", "balloting_ballot_recovered",
		"module", "elections/balloting",
		"layer", "application",
		"voter_id", voterID,
		"item_id", item.ItemID,
	)
	return SubmitVoteResult{Positions: services.BallotPositions(selections), CastAt: now}, nil
}

// castBallot persists the issuance record and vote rows in one write, then
// runs the best-effort tail on a detached context so a deadline that fires
// after persistence cannot drop the audit trail.
func (uc VoteUseCase) castBallot(
	ctx context.Context,
	voterID string,
	selections []entities.Selection,
	now time.Time,
	auditType string,
) error {
	token, err := uc.Tokens.NewIssuanceToken()
	if err != nil {
		return err
	}
	votes := make([]entities.Vote, 0, len(selections))
	for _, selection := range selections {
		voteID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		votes = append(votes, entities.Vote{
			VoteID:        voteID,
			IssuanceToken: token,
			CandidateID:   selection.CandidateID,
			Position:      selection.Position,
		})
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := uc.Ballots.PersistBallot(ctx, entities.IssuanceRecord{
		Token:    token,
		VoterID:  voterID,
		IssuedAt: now,
	}, votes); err != nil {
		return err
	}

	tail, cancel := detachedContext(ctx)
	defer cancel()
	uc.finishBallot(tail, voterID, token, selections, now, auditType)
	return nil
}

func (uc VoteUseCase) finishBallot(
	ctx context.Context,
	voterID string,
	token string,
	selections []entities.Selection,
	now time.Time,
	auditType string,
) {
	logger := application.ResolveLogger(uc.Logger)
	for _, selection := range selections {
		if err := uc.Tallies.IncrementVoteCount(ctx, selection.CandidateID); err != nil {
			if uc.Metrics != nil {
				uc.Metrics.IncTallyIncrementFailure()
			}
			logger.Warn("vote count increment failed, left to tally reconciler",
				"event", "balloting_tally_increment_failed",
				"module", "elections/balloting",
				"layer", "application",
				"candidate_id", selection.CandidateID,
				"error", err.Error(),
			)
		}
	}

	if err := uc.Voters.SetIssuanceToken(ctx, voterID, token); err != nil {
		logger.Error("issuance token link failed",
			"event", "balloting_issuance_token_link_failed",
			"module", "elections/balloting",
			"layer", "application",
			"voter_id", voterID,
			"error", err.Error(),
		)
	}

	positions := services.BallotPositions(selections)
	if err := appendAudit(ctx, uc.Audit, uc.IDGen, auditType, voterID, "ballot cast", map[string]any{
		"positions": positions,
		"timestamp": now.Format(time.RFC3339),
	}, now); err != nil {
		logger.Error("ballot audit append failed",
			"event", "balloting_audit_append_failed",
			"module", "elections/balloting",
			"layer", "application",
			"voter_id", voterID,
			"audit_type", auditType,
			"error", err.Error(),
		)
	}

	if err := uc.appendBallotEvent(ctx, positions, now); err != nil {
		logger.Error("ballot outbox append failed",
			"event", "balloting_outbox_append_failed",
			"module", "elections/balloting",
			"layer", "application",
			"error", err.Error(),
		)
	}
}

// escalate routes a post-claim failure to the operator queue. The claim
// stands; the voter recovers through RecoverBallot.
func (uc VoteUseCase) escalate(ctx context.Context, voterID string, cause error) error {
	logger := application.ResolveLogger(uc.Logger)
	detached, cancel := detachedContext(ctx)
	defer cancel()

	now := uc.now()
	itemID, err := uc.IDGen.NewID(detached)
	if err == nil {
		var created bool
		_, created, err = uc.Reconciliation.EnqueueReconciliation(detached, entities.ReconciliationItem{
			ItemID:    itemID,
			VoterID:   voterID,
			Reason:    entities.ReasonBallotPersistFailed,
			Status:    entities.ReconciliationPending,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err == nil && created && uc.Metrics != nil {
			uc.Metrics.IncReconciliationEnqueued(entities.ReasonBallotPersistFailed)
		}
	}
	if err != nil {
		logger.Error("reconciliation enqueue failed, left to anomaly scanner",
			"event", "balloting_reconciliation_enqueue_failed",
			"module", "elections/balloting",
			"layer", "application",
			"voter_id", voterID,
			"error", err.Error(),
		)
	}

	if err := appendAudit(detached, uc.Audit, uc.IDGen, entities.AuditBallotPersistFailed, voterID,
		"ballot persistence failed after voter claim", map[string]any{
			"reason": entities.ReasonBallotPersistFailed,
			"error":  cause.Error(),
		}, now); err != nil {
		logger.Error("persistence failure audit append failed",
			"event", "balloting_persist_failure_audit_failed",
			"module", "elections/balloting",
			"layer", "application",
			"voter_id", voterID,
			"error", err.Error(),
		)
	}

	logger.Error("ballot persistence failed after claim",
		"event", "balloting_ballot_persist_failed",
		"module", "elections/balloting",
		"layer", "application",
		"voter_id", voterID,
		"error", cause.Error(),
	)
	return fmt.Errorf("%w: %v", domainerrors.ErrPersistence, cause)
}

// claimFailed settles an ambiguous claim error: the write may have committed
// even though the driver reported a failure. A claim that landed goes to the
// operator queue; a claim still in flight is caught by the anomaly scanner.
func (uc VoteUseCase) claimFailed(ctx context.Context, voterID string, cause error) error {
	detached, cancel := detachedContext(ctx)
	defer cancel()
	voter, err := uc.Voters.GetVoter(detached, voterID)
	if err == nil && !voter.Voted {
		application.ResolveLogger(uc.Logger).Warn("voter claim failed before landing",
			"event", "balloting_voter_claim_failed",
			"module", "elections/balloting",
			"layer", "application",
			"voter_id", voterID,
			"error", cause.Error(),
		)
		return cause
	}
	return uc.escalate(ctx, voterID, cause)
}

func (uc VoteUseCase) releaseRecovery(ctx context.Context, item entities.ReconciliationItem) {
	if err := uc.Reconciliation.ReleaseRecovery(ctx, item.ItemID, uc.now()); err != nil {
		application.ResolveLogger(uc.Logger).Error("recovery release failed",
			"event", "balloting_recovery_release_failed",
			"module", "elections/balloting",
			"layer", "application",
			"item_id", item.ItemID,
			"error", err.Error(),
		)
	}
}

func (uc VoteUseCase) resolveRecovery(ctx context.Context, item entities.ReconciliationItem, voterID string, resolution string) {
	if _, err := uc.Reconciliation.ResolveReconciliation(ctx, item.ItemID, entities.ReconciliationInProgress,
		entities.ReconciliationResolution{
			Resolution: resolution,
			ResolvedBy: voterID,
			ResolvedAt: uc.now(),
		}); err != nil {
		application.ResolveLogger(uc.Logger).Error("recovery resolve failed",
			"event", "balloting_recovery_resolve_failed",
			"module", "elections/balloting",
			"layer", "application",
			"item_id", item.ItemID,
			"error", err.Error(),
		)
	}
}

func (uc VoteUseCase) authorizeVote(ctx context.Context) error {
	if uc.Eligibility == nil {
		return fmt.Errorf("%w: eligibility unavailable", domainerrors.ErrWindowClosed)
	}
	decision, err := uc.Eligibility.Authorize(ctx, ports.ActionVote)
	if err != nil {
		return err
	}
	if !decision.Allowed {
		return fmt.Errorf("%w: %s", domainerrors.ErrWindowClosed, decision.Reason)
	}
	return nil
}

func (uc VoteUseCase) validateBallot(ctx context.Context, raw entities.Selections) ([]entities.Selection, error) {
	positions, err := uc.Catalog.ListPositions(ctx)
	if err != nil {
		return nil, err
	}
	candidates, err := uc.Catalog.ListCandidates(ctx)
	if err != nil {
		return nil, err
	}
	return services.ValidateBallot(positions, candidates, raw)
}

func (uc VoteUseCase) appendBallotEvent(ctx context.Context, positions []string, now time.Time) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := application.NewEnvelope(eventID, "ballot.cast", "election", "election", now, map[string]any{
		"positions": positions,
	})
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}

func (uc VoteUseCase) observe(err error, duration time.Duration) {
	if uc.Metrics == nil {
		return
	}
	uc.Metrics.ObserveSubmission(submissionOutcome(err), duration)
}

func (uc VoteUseCase) submitTimeout() time.Duration {
	return submitTimeout(uc.SubmitTimeout)
}

func submitTimeout(configured time.Duration) time.Duration {
	if configured <= 0 {
		return defaultSubmitTimeout
	}
	return configured
}

// recoveryLease is how long an in_progress recovery claim is honoured. A
// recovery that is still alive has either finished or released its claim
// once the submit deadline and the detached tail have both run out.
func recoveryLease(configured time.Duration) time.Duration {
	return submitTimeout(configured) + detachedTimeout
}

func (uc VoteUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func submissionOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domainerrors.ErrAlreadyVoted):
		return "already_voted"
	case errors.Is(err, domainerrors.ErrPersistence):
		return "persistence_error"
	case errors.Is(err, domainerrors.ErrWindowClosed):
		return "window_closed"
	case errors.Is(err, domainerrors.ErrIncompleteBallot),
		errors.Is(err, domainerrors.ErrInvalidSelection),
		errors.Is(err, domainerrors.ErrInvalidInput):
		return "invalid_ballot"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "error"
	}
}

func detachedContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), detachedTimeout)
}
