package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"agora/contexts/elections/balloting/domain/entities"
	domainerrors "agora/contexts/elections/balloting/domain/errors"
	"agora/contexts/elections/balloting/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates the balloting tables. The partial index keeps at most one
// open reconciliation item per voter.
func (r *Repository) Migrate(ctx context.Context) error {
	db := r.db.WithContext(ctx)
	if err := db.AutoMigrate(
		&voterModel{},
		&positionModel{},
		&candidateModel{},
		&issuanceModel{},
		&voteModel{},
		&auditModel{},
		&reconciliationModel{},
		&outboxModel{},
	); err != nil {
		return r.logError("balloting_repo_migrate_failed", err)
	}
	if err := db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS reconciliation_items_open_voter ON reconciliation_items (voter_id) WHERE status <> 'resolved'",
	).Error; err != nil {
		return r.logError("balloting_repo_migrate_index_failed", err)
	}
	return nil
}

func (r *Repository) GetVoter(ctx context.Context, voterID string) (entities.Voter, error) {
	var row voterModel
	err := r.db.WithContext(ctx).Where("id = ?", strings.TrimSpace(voterID)).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entities.Voter{}, domainerrors.ErrVoterNotFound
	}
	if err != nil {
		return entities.Voter{}, r.logError("balloting_repo_get_voter_failed", err, "voter_id", voterID)
	}
	return row.toEntity(), nil
}

// ClaimVoter is the compare-and-swap on voted; zero affected rows means the
// claim was lost.
func (r *Repository) ClaimVoter(ctx context.Context, voterID string, claimedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&voterModel{}).
		Where("id = ? AND voted = ? AND verified = ?", voterID, false, true).
		Updates(map[string]any{
			"voted":    true,
			"voted_at": claimedAt.UTC(),
		})
	if result.Error != nil {
		return false, r.logError("balloting_repo_claim_voter_failed", result.Error, "voter_id", voterID)
	}
	return result.RowsAffected == 1, nil
}

func (r *Repository) SetIssuanceToken(ctx context.Context, voterID string, token string) error {
	result := r.db.WithContext(ctx).
		Model(&voterModel{}).
		Where("id = ?", voterID).
		Update("issuance_token", token)
	if result.Error != nil {
		return r.logError("balloting_repo_set_issuance_token_failed", result.Error, "voter_id", voterID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrVoterNotFound
	}
	return nil
}

func (r *Repository) CountVoters(ctx context.Context) (entities.VoterCounts, error) {
	var row struct {
		Verified int64
		Voted    int64
	}
	if err := r.db.WithContext(ctx).
		Model(&voterModel{}).
		Select("COUNT(*) FILTER (WHERE verified) AS verified, COUNT(*) FILTER (WHERE verified AND voted) AS voted").
		Scan(&row).Error; err != nil {
		return entities.VoterCounts{}, r.logError("balloting_repo_count_voters_failed", err)
	}
	return entities.VoterCounts{Verified: row.Verified, Voted: row.Voted}, nil
}

// ListClaimedWithoutBallot skips voters that already have a reconciliation
// item, open or resolved, so a manual resolution is not re-queued.
func (r *Repository) ListClaimedWithoutBallot(
	ctx context.Context,
	claimedBefore time.Time,
	limit int,
) ([]entities.Voter, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []voterModel
	if err := r.db.WithContext(ctx).
		Where("voted = ? AND voted_at < ?", true, claimedBefore.UTC()).
		Where("NOT EXISTS (SELECT 1 FROM issuance_log i JOIN votes v ON v.issuance_token = i.token WHERE i.voter_id = voters.id)").
		Where("NOT EXISTS (SELECT 1 FROM reconciliation_items ri WHERE ri.voter_id = voters.id)").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("balloting_repo_list_claimed_without_ballot_failed", err, "limit", limit)
	}
	items := make([]entities.Voter, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListPositions(ctx context.Context) ([]entities.Position, error) {
	var rows []positionModel
	if err := r.db.WithContext(ctx).Order("display_order ASC, name ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("balloting_repo_list_positions_failed", err)
	}
	items := make([]entities.Position, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListCandidates(ctx context.Context) ([]entities.Candidate, error) {
	var rows []candidateModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("balloting_repo_list_candidates_failed", err)
	}
	items := make([]entities.Candidate, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// PersistBallot writes the issuance record and all vote rows in one
// transaction; a partial ballot is never visible.
func (r *Repository) PersistBallot(ctx context.Context, issuance entities.IssuanceRecord, votes []entities.Vote) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&issuanceModel{
			Token:    issuance.Token,
			VoterID:  issuance.VoterID,
			IssuedAt: issuance.IssuedAt.UTC(),
		}).Error; err != nil {
			return err
		}
		rows := make([]voteModel, 0, len(votes))
		for _, vote := range votes {
			rows = append(rows, voteModel{
				ID:            vote.VoteID,
				IssuanceToken: vote.IssuanceToken,
				CandidateID:   vote.CandidateID,
				Position:      vote.Position,
			})
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		r.logError("balloting_repo_persist_ballot_failed", err, "vote_rows", len(votes))
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: duplicate issuance token", domainerrors.ErrPersistence)
		}
		return err
	}
	return nil
}

func (r *Repository) HasCastBallot(ctx context.Context, voterID string) (bool, error) {
	var exists bool
	if err := r.db.WithContext(ctx).Raw(
		"SELECT EXISTS (SELECT 1 FROM issuance_log i JOIN votes v ON v.issuance_token = i.token WHERE i.voter_id = ?)",
		voterID,
	).Scan(&exists).Error; err != nil {
		return false, r.logError("balloting_repo_has_cast_ballot_failed", err, "voter_id", voterID)
	}
	return exists, nil
}

func (r *Repository) IncrementVoteCount(ctx context.Context, candidateID string) error {
	result := r.db.WithContext(ctx).
		Model(&candidateModel{}).
		Where("id = ?", candidateID).
		UpdateColumn("vote_count", gorm.Expr("vote_count + ?", 1))
	if result.Error != nil {
		return r.logError("balloting_repo_increment_vote_count_failed", result.Error, "candidate_id", candidateID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrCandidateNotFound
	}
	return nil
}

func (r *Repository) CountVotesByCandidate(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		CandidateID string
		Votes       int64
	}
	if err := r.db.WithContext(ctx).
		Model(&voteModel{}).
		Select("candidate_id, COUNT(*) AS votes").
		Group("candidate_id").
		Scan(&rows).Error; err != nil {
		return nil, r.logError("balloting_repo_count_votes_failed", err)
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.CandidateID] = row.Votes
	}
	return counts, nil
}

func (r *Repository) RecountVotes(ctx context.Context, candidateID string) (int64, error) {
	var counts []int64
	err := r.db.WithContext(ctx).Raw(`
		UPDATE candidates
		SET vote_count = (SELECT COUNT(*) FROM votes WHERE votes.candidate_id = candidates.id)
		WHERE id = ?
		RETURNING vote_count`, candidateID).
		Scan(&counts).Error
	if err != nil {
		return 0, r.logError("balloting_repo_recount_votes_failed", err, "candidate_id", candidateID)
	}
	if len(counts) == 0 {
		return 0, domainerrors.ErrCandidateNotFound
	}
	return counts[0], nil
}

func (r *Repository) AppendAudit(ctx context.Context, event entities.AuditEvent) error {
	row := auditModel{
		ID:          event.EventID,
		EventType:   event.EventType,
		ActorID:     event.ActorID,
		Description: event.Description,
		Metadata:    []byte(event.Metadata),
		CreatedAt:   event.CreatedAt.UTC(),
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("balloting_repo_append_audit_failed", err, "event_type", event.EventType)
	}
	return nil
}

func (r *Repository) EnqueueReconciliation(
	ctx context.Context,
	item entities.ReconciliationItem,
) (entities.ReconciliationItem, bool, error) {
	row := reconciliationModelFromEntity(item)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "voter_id"}},
		TargetWhere: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "status <> ?", Vars: []any{string(entities.ReconciliationResolved)}},
		}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return entities.ReconciliationItem{}, false, r.logError("balloting_repo_enqueue_reconciliation_failed", create.Error,
			"voter_id", item.VoterID,
		)
	}
	if create.RowsAffected > 0 {
		return row.toEntity(), true, nil
	}

	var existing reconciliationModel
	if err := r.db.WithContext(ctx).
		Where("voter_id = ? AND status <> ?", item.VoterID, string(entities.ReconciliationResolved)).
		First(&existing).Error; err != nil {
		return entities.ReconciliationItem{}, false, r.logError("balloting_repo_enqueue_load_existing_failed", err,
			"voter_id", item.VoterID,
		)
	}
	return existing.toEntity(), false, nil
}

func (r *Repository) GetReconciliation(ctx context.Context, itemID string) (entities.ReconciliationItem, error) {
	var row reconciliationModel
	err := r.db.WithContext(ctx).Where("id = ?", itemID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entities.ReconciliationItem{}, domainerrors.ErrReconciliationNotFound
	}
	if err != nil {
		return entities.ReconciliationItem{}, r.logError("balloting_repo_get_reconciliation_failed", err, "item_id", itemID)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListReconciliation(
	ctx context.Context,
	status entities.ReconciliationStatus,
) ([]entities.ReconciliationItem, error) {
	query := r.db.WithContext(ctx).Order("created_at ASC, id ASC")
	if status != "" {
		query = query.Where("status = ?", string(status))
	}
	var rows []reconciliationModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, r.logError("balloting_repo_list_reconciliation_failed", err, "status", string(status))
	}
	items := make([]entities.ReconciliationItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ClaimRecovery(
	ctx context.Context,
	voterID string,
	claimedAt time.Time,
	staleBefore time.Time,
) (entities.ReconciliationItem, error) {
	result := r.db.WithContext(ctx).
		Model(&reconciliationModel{}).
		Where("voter_id = ? AND (status = ? OR (status = ? AND updated_at < ?))",
			voterID,
			string(entities.ReconciliationPending),
			string(entities.ReconciliationInProgress),
			staleBefore.UTC(),
		).
		Updates(map[string]any{
			"status":     string(entities.ReconciliationInProgress),
			"updated_at": claimedAt.UTC(),
		})
	if result.Error != nil {
		return entities.ReconciliationItem{}, r.logError("balloting_repo_claim_recovery_failed", result.Error,
			"voter_id", voterID,
		)
	}

	var row reconciliationModel
	err := r.db.WithContext(ctx).
		Where("voter_id = ? AND status = ?", voterID, string(entities.ReconciliationInProgress)).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entities.ReconciliationItem{}, domainerrors.ErrNoClaimedBallot
	}
	if err != nil {
		return entities.ReconciliationItem{}, r.logError("balloting_repo_claim_recovery_load_failed", err,
			"voter_id", voterID,
		)
	}
	if result.RowsAffected == 0 {
		return entities.ReconciliationItem{}, domainerrors.ErrRecoveryInProgress
	}
	return row.toEntity(), nil
}

func (r *Repository) ReleaseRecovery(ctx context.Context, itemID string, releasedAt time.Time) error {
	if err := r.db.WithContext(ctx).
		Model(&reconciliationModel{}).
		Where("id = ? AND status = ?", itemID, string(entities.ReconciliationInProgress)).
		Updates(map[string]any{
			"status":     string(entities.ReconciliationPending),
			"updated_at": releasedAt.UTC(),
		}).Error; err != nil {
		return r.logError("balloting_repo_release_recovery_failed", err, "item_id", itemID)
	}
	return nil
}

func (r *Repository) ResolveReconciliation(
	ctx context.Context,
	itemID string,
	from entities.ReconciliationStatus,
	resolution entities.ReconciliationResolution,
) (entities.ReconciliationItem, error) {
	resolvedAt := resolution.ResolvedAt.UTC()
	result := r.db.WithContext(ctx).
		Model(&reconciliationModel{}).
		Where("id = ? AND status = ?", itemID, string(from)).
		Updates(map[string]any{
			"status":      string(entities.ReconciliationResolved),
			"resolution":  resolution.Resolution,
			"resolved_by": resolution.ResolvedBy,
			"note":        resolution.Note,
			"updated_at":  resolvedAt,
			"resolved_at": resolvedAt,
		})
	if result.Error != nil {
		return entities.ReconciliationItem{}, r.logError("balloting_repo_resolve_reconciliation_failed", result.Error,
			"item_id", itemID,
		)
	}
	item, err := r.GetReconciliation(ctx, itemID)
	if err != nil {
		return entities.ReconciliationItem{}, err
	}
	if result.RowsAffected == 0 {
		if item.Status == entities.ReconciliationInProgress {
			return entities.ReconciliationItem{}, domainerrors.ErrRecoveryInProgress
		}
		return entities.ReconciliationItem{}, domainerrors.ErrReconciliationResolved
	}
	return item, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("balloting_repo_append_outbox_marshal_failed", err, "event_type", envelope.EventType)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    envelope.EventType,
		PartitionKey: envelope.PartitionKey,
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row).Error; err != nil {
		return r.logError("balloting_repo_append_outbox_failed", err, "outbox_id", row.OutboxID)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("balloting_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	if err := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		}).Error; err != nil {
		return r.logError("balloting_repo_mark_outbox_published_failed", err, "outbox_id", outboxID)
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "elections/balloting",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("balloting repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

var _ ports.VoterRepository = (*Repository)(nil)
var _ ports.CatalogReader = (*Repository)(nil)
var _ ports.BallotStore = (*Repository)(nil)
var _ ports.TallyRepository = (*Repository)(nil)
var _ ports.AuditWriter = (*Repository)(nil)
var _ ports.ReconciliationQueue = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
