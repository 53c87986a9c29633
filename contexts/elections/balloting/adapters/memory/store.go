package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"agora/contexts/elections/balloting/domain/entities"
	domainerrors "agora/contexts/elections/balloting/domain/errors"
	"agora/contexts/elections/balloting/ports"
)

// Operation names a store call that tests can make fail.
type Operation string

const (
	OpClaimVoter       Operation = "claim_voter"
	OpPersistBallot    Operation = "persist_ballot"
	OpIncrementCount   Operation = "increment_vote_count"
	OpSetIssuanceToken Operation = "set_issuance_token"
	OpAppendAudit      Operation = "append_audit"
	OpEnqueue          Operation = "enqueue_reconciliation"
	OpAppendOutbox     Operation = "append_outbox"
)

type Seed struct {
	Voters     []entities.Voter
	Positions  []entities.Position
	Candidates []entities.Candidate
}

// Store keeps balloting state in process. It implements every balloting
// storage port and supports fault injection per operation.
type Store struct {
	mu sync.RWMutex

	voters         map[string]entities.Voter
	positions      []entities.Position
	candidates     map[string]entities.Candidate
	issuance       map[string]entities.IssuanceRecord
	votes          []entities.Vote
	audit          []entities.AuditEvent
	reconciliation map[string]entities.ReconciliationItem
	outbox         map[string]outboxRecord
	outboxOrder    []string

	faults map[Operation]error
	now    func() time.Time
}

type outboxRecord struct {
	message     ports.OutboxMessage
	publishedAt *time.Time
}

func NewStore(seed Seed) *Store {
	store := &Store{
		voters:         make(map[string]entities.Voter, len(seed.Voters)),
		positions:      append([]entities.Position(nil), seed.Positions...),
		candidates:     make(map[string]entities.Candidate, len(seed.Candidates)),
		issuance:       make(map[string]entities.IssuanceRecord),
		reconciliation: make(map[string]entities.ReconciliationItem),
		outbox:         make(map[string]outboxRecord),
		faults:         make(map[Operation]error),
		now:            func() time.Time { return time.Now().UTC() },
	}
	for _, voter := range seed.Voters {
		store.voters[voter.VoterID] = voter
	}
	for _, candidate := range seed.Candidates {
		store.candidates[candidate.CandidateID] = candidate
	}
	return store
}

// Fail makes every later call of op return err; a nil err clears the fault.
func (s *Store) Fail(op Operation, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, op)
		return
	}
	s.faults[op] = err
}

func (s *Store) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) GetVoter(_ context.Context, voterID string) (entities.Voter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	voter, ok := s.voters[strings.TrimSpace(voterID)]
	if !ok {
		return entities.Voter{}, domainerrors.ErrVoterNotFound
	}
	return voter, nil
}

func (s *Store) ClaimVoter(_ context.Context, voterID string, claimedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.faults[OpClaimVoter]; err != nil {
		return false, err
	}
	voter, ok := s.voters[voterID]
	if !ok || voter.Voted || !voter.Verified {
		return false, nil
	}
	at := claimedAt.UTC()
	voter.Voted = true
	voter.VotedAt = &at
	s.voters[voterID] = voter
	return true, nil
}

func (s *Store) SetIssuanceToken(_ context.Context, voterID string, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.faults[OpSetIssuanceToken]; err != nil {
		return err
	}
	voter, ok := s.voters[voterID]
	if !ok {
		return domainerrors.ErrVoterNotFound
	}
	value := token
	voter.IssuanceToken = &value
	s.voters[voterID] = voter
	return nil
}

func (s *Store) CountVoters(_ context.Context) (entities.VoterCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var counts entities.VoterCounts
	for _, voter := range s.voters {
		if voter.Verified {
			counts.Verified++
			if voter.Voted {
				counts.Voted++
			}
		}
	}
	return counts, nil
}

func (s *Store) ListClaimedWithoutBallot(_ context.Context, claimedBefore time.Time, limit int) ([]entities.Voter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	queued := make(map[string]struct{}, len(s.reconciliation))
	for _, item := range s.reconciliation {
		queued[item.VoterID] = struct{}{}
	}
	items := make([]entities.Voter, 0)
	for _, voter := range s.voters {
		if !voter.Voted || voter.VotedAt == nil || !voter.VotedAt.Before(claimedBefore) {
			continue
		}
		if _, ok := queued[voter.VoterID]; ok {
			continue
		}
		if s.hasBallotLocked(voter.VoterID) {
			continue
		}
		items = append(items, voter)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].VoterID < items[j].VoterID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) ListPositions(_ context.Context) ([]entities.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.Position(nil), s.positions...), nil
}

func (s *Store) ListCandidates(_ context.Context) ([]entities.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Candidate, 0, len(s.candidates))
	for _, candidate := range s.candidates {
		items = append(items, candidate)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CandidateID < items[j].CandidateID
	})
	return items, nil
}

func (s *Store) PersistBallot(ctx context.Context, issuance entities.IssuanceRecord, votes []entities.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.faults[OpPersistBallot]; err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, exists := s.issuance[issuance.Token]; exists {
		return domainerrors.ErrPersistence
	}
	s.issuance[issuance.Token] = issuance
	s.votes = append(s.votes, votes...)
	return nil
}

func (s *Store) HasCastBallot(_ context.Context, voterID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasBallotLocked(voterID), nil
}

func (s *Store) hasBallotLocked(voterID string) bool {
	tokens := make(map[string]struct{})
	for token, record := range s.issuance {
		if record.VoterID == voterID {
			tokens[token] = struct{}{}
		}
	}
	if len(tokens) == 0 {
		return false
	}
	for _, vote := range s.votes {
		if _, ok := tokens[vote.IssuanceToken]; ok {
			return true
		}
	}
	return false
}

func (s *Store) IncrementVoteCount(_ context.Context, candidateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.faults[OpIncrementCount]; err != nil {
		return err
	}
	candidate, ok := s.candidates[candidateID]
	if !ok {
		return domainerrors.ErrCandidateNotFound
	}
	candidate.VoteCount++
	s.candidates[candidateID] = candidate
	return nil
}

func (s *Store) CountVotesByCandidate(_ context.Context) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int64, len(s.candidates))
	for _, vote := range s.votes {
		counts[vote.CandidateID]++
	}
	return counts, nil
}

func (s *Store) RecountVotes(_ context.Context, candidateID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	candidate, ok := s.candidates[candidateID]
	if !ok {
		return 0, domainerrors.ErrCandidateNotFound
	}
	var count int64
	for _, vote := range s.votes {
		if vote.CandidateID == candidateID {
			count++
		}
	}
	candidate.VoteCount = count
	s.candidates[candidateID] = candidate
	return count, nil
}

func (s *Store) AppendAudit(_ context.Context, event entities.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.faults[OpAppendAudit]; err != nil {
		return err
	}
	s.audit = append(s.audit, event)
	return nil
}

func (s *Store) EnqueueReconciliation(
	_ context.Context,
	item entities.ReconciliationItem,
) (entities.ReconciliationItem, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.faults[OpEnqueue]; err != nil {
		return entities.ReconciliationItem{}, false, err
	}
	for _, existing := range s.reconciliation {
		if existing.VoterID == item.VoterID && existing.Open() {
			return existing, false, nil
		}
	}
	s.reconciliation[item.ItemID] = item
	return item, true, nil
}

func (s *Store) GetReconciliation(_ context.Context, itemID string) (entities.ReconciliationItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.reconciliation[itemID]
	if !ok {
		return entities.ReconciliationItem{}, domainerrors.ErrReconciliationNotFound
	}
	return item, nil
}

func (s *Store) ListReconciliation(
	_ context.Context,
	status entities.ReconciliationStatus,
) ([]entities.ReconciliationItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.ReconciliationItem, 0, len(s.reconciliation))
	for _, item := range s.reconciliation {
		if status != "" && item.Status != status {
			continue
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ItemID < items[j].ItemID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) ClaimRecovery(
	_ context.Context,
	voterID string,
	claimedAt time.Time,
	staleBefore time.Time,
) (entities.ReconciliationItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inProgress := false
	for id, item := range s.reconciliation {
		if item.VoterID != voterID {
			continue
		}
		switch item.Status {
		case entities.ReconciliationPending:
		case entities.ReconciliationInProgress:
			if !item.UpdatedAt.Before(staleBefore) {
				inProgress = true
				continue
			}
		default:
			continue
		}
		item.Status = entities.ReconciliationInProgress
		item.UpdatedAt = claimedAt.UTC()
		s.reconciliation[id] = item
		return item, nil
	}
	if inProgress {
		return entities.ReconciliationItem{}, domainerrors.ErrRecoveryInProgress
	}
	return entities.ReconciliationItem{}, domainerrors.ErrNoClaimedBallot
}

func (s *Store) ReleaseRecovery(_ context.Context, itemID string, releasedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.reconciliation[itemID]
	if !ok {
		return domainerrors.ErrReconciliationNotFound
	}
	if item.Status != entities.ReconciliationInProgress {
		return nil
	}
	item.Status = entities.ReconciliationPending
	item.UpdatedAt = releasedAt.UTC()
	s.reconciliation[itemID] = item
	return nil
}

func (s *Store) ResolveReconciliation(
	_ context.Context,
	itemID string,
	from entities.ReconciliationStatus,
	resolution entities.ReconciliationResolution,
) (entities.ReconciliationItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.reconciliation[itemID]
	if !ok {
		return entities.ReconciliationItem{}, domainerrors.ErrReconciliationNotFound
	}
	if item.Status != from {
		return entities.ReconciliationItem{}, statusConflict(item.Status)
	}
	resolvedAt := resolution.ResolvedAt.UTC()
	item.Status = entities.ReconciliationResolved
	item.Resolution = resolution.Resolution
	item.ResolvedBy = resolution.ResolvedBy
	item.Note = resolution.Note
	item.UpdatedAt = resolvedAt
	item.ResolvedAt = &resolvedAt
	s.reconciliation[itemID] = item
	return item, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.faults[OpAppendOutbox]; err != nil {
		return err
	}
	if _, exists := s.outbox[envelope.EventID]; exists {
		return nil
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.outbox[envelope.EventID] = outboxRecord{message: ports.OutboxMessage{
		OutboxID:     envelope.EventID,
		EventType:    envelope.EventType,
		PartitionKey: envelope.PartitionKey,
		Payload:      payload,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}}
	s.outboxOrder = append(s.outboxOrder, envelope.EventID)
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ports.OutboxMessage, 0)
	for _, id := range s.outboxOrder {
		record := s.outbox[id]
		if record.publishedAt != nil {
			continue
		}
		items = append(items, record.message)
		if limit > 0 && len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.outbox[outboxID]
	if !ok {
		return domainerrors.ErrInvalidInput
	}
	at := publishedAt.UTC()
	record.publishedAt = &at
	s.outbox[outboxID] = record
	return nil
}

// Votes returns a copy of the anonymous vote rows.
func (s *Store) Votes() []entities.Vote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.Vote(nil), s.votes...)
}

func (s *Store) IssuanceRecords() []entities.IssuanceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.IssuanceRecord, 0, len(s.issuance))
	for _, record := range s.issuance {
		items = append(items, record)
	}
	return items
}

func (s *Store) AuditEvents() []entities.AuditEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.AuditEvent(nil), s.audit...)
}

func statusConflict(status entities.ReconciliationStatus) error {
	if status == entities.ReconciliationInProgress {
		return domainerrors.ErrRecoveryInProgress
	}
	return domainerrors.ErrReconciliationResolved
}

var _ ports.VoterRepository = (*Store)(nil)
var _ ports.CatalogReader = (*Store)(nil)
var _ ports.BallotStore = (*Store)(nil)
var _ ports.TallyRepository = (*Store)(nil)
var _ ports.AuditWriter = (*Store)(nil)
var _ ports.ReconciliationQueue = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
