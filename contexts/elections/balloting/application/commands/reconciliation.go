package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "agora/contexts/elections/balloting/application"
	"agora/contexts/elections/balloting/domain/entities"
	domainerrors "agora/contexts/elections/balloting/domain/errors"
	"agora/contexts/elections/balloting/ports"
)

type ResolveReconciliationCommand struct {
	ItemID  string
	ActorID string
	Note    string
}

// ReconciliationUseCase lets an operator close a queue item by hand, for
// example after confirming a voter abandoned the recovery path. An item held
// by a recovery whose lease ran out can be closed too.
type ReconciliationUseCase struct {
	Queue         ports.ReconciliationQueue
	Audit         ports.AuditWriter
	IDGen         ports.IDGenerator
	Clock         ports.Clock
	SubmitTimeout time.Duration
	Logger        *slog.Logger
}

func (uc ReconciliationUseCase) Resolve(
	ctx context.Context,
	cmd ResolveReconciliationCommand,
) (entities.ReconciliationItem, error) {
	logger := application.ResolveLogger(uc.Logger)
	itemID := strings.TrimSpace(cmd.ItemID)
	actorID := strings.TrimSpace(cmd.ActorID)
	if itemID == "" || actorID == "" {
		return entities.ReconciliationItem{}, domainerrors.ErrInvalidInput
	}

	now := uc.now()
	resolution := entities.ReconciliationResolution{
		Resolution: entities.ResolutionManual,
		ResolvedBy: actorID,
		Note:       strings.TrimSpace(cmd.Note),
		ResolvedAt: now,
	}
	item, err := uc.Queue.ResolveReconciliation(ctx, itemID, entities.ReconciliationPending, resolution)
	if errors.Is(err, domainerrors.ErrRecoveryInProgress) {
		item, err = uc.resolveAbandoned(ctx, itemID, resolution)
	}
	if err != nil {
		logger.Warn("reconciliation resolve rejected",
			"event", "balloting_reconciliation_resolve_rejected",
			"module", "elections/balloting",
			"layer", "application",
			"item_id", itemID,
			"actor_id", actorID,
			"error", err.Error(),
		)
		return entities.ReconciliationItem{}, err
	}

	if err := appendAudit(ctx, uc.Audit, uc.IDGen, entities.AuditReconciliationResolved, actorID,
		"reconciliation item resolved by operator", map[string]any{
			"item_id":  item.ItemID,
			"voter_id": item.VoterID,
			"reason":   item.Reason,
			"note":     item.Note,
		}, now); err != nil {
		logger.Error("reconciliation audit append failed",
			"event", "balloting_reconciliation_audit_failed",
			"module", "elections/balloting",
			"layer", "application",
			"item_id", item.ItemID,
			"error", err.Error(),
		)
	}
	logger.Info("reconciliation item resolved",
		"event", "balloting_reconciliation_resolved",
		"module", "elections/balloting",
		"layer", "application",
		"item_id", item.ItemID,
		"voter_id", item.VoterID,
		"actor_id", actorID,
	)
	return item, nil
}

// resolveAbandoned takes over an in_progress item whose recovery lease has
// expired and closes it. A live recovery keeps ErrRecoveryInProgress.
func (uc ReconciliationUseCase) resolveAbandoned(
	ctx context.Context,
	itemID string,
	resolution entities.ReconciliationResolution,
) (entities.ReconciliationItem, error) {
	held, err := uc.Queue.GetReconciliation(ctx, itemID)
	if err != nil {
		return entities.ReconciliationItem{}, err
	}
	staleBefore := resolution.ResolvedAt.Add(-recoveryLease(uc.SubmitTimeout))
	claimed, err := uc.Queue.ClaimRecovery(ctx, held.VoterID, resolution.ResolvedAt, staleBefore)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNoClaimedBallot) {
			return entities.ReconciliationItem{}, domainerrors.ErrRecoveryInProgress
		}
		return entities.ReconciliationItem{}, err
	}
	if claimed.ItemID != itemID {
		return entities.ReconciliationItem{}, domainerrors.ErrRecoveryInProgress
	}
	application.ResolveLogger(uc.Logger).Warn("abandoned recovery taken over by operator",
		"event", "balloting_recovery_abandoned_taken_over",
		"module", "elections/balloting",
		"layer", "application",
		"item_id", itemID,
		"voter_id", held.VoterID,
		"claimed_at", held.UpdatedAt,
	)
	return uc.Queue.ResolveReconciliation(ctx, itemID, entities.ReconciliationInProgress, resolution)
}

func (uc ReconciliationUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
