package ports

import (
	"context"
	"time"

	"agora/contexts/elections/balloting/domain/entities"
	contractsv1 "agora/contracts/events/v1"
)

type VoterRepository interface {
	GetVoter(ctx context.Context, voterID string) (entities.Voter, error)
	// ClaimVoter flips voted from false to true in one conditional write. It
	// reports false when the voter was already claimed or is not verified.
	ClaimVoter(ctx context.Context, voterID string, claimedAt time.Time) (bool, error)
	SetIssuanceToken(ctx context.Context, voterID string, token string) error
	CountVoters(ctx context.Context) (entities.VoterCounts, error)
	// ListClaimedWithoutBallot returns voters claimed before the cutoff that
	// have no persisted ballot.
	ListClaimedWithoutBallot(ctx context.Context, claimedBefore time.Time, limit int) ([]entities.Voter, error)
}

type CatalogReader interface {
	ListPositions(ctx context.Context) ([]entities.Position, error)
	ListCandidates(ctx context.Context) ([]entities.Candidate, error)
}

type BallotStore interface {
	// PersistBallot writes the issuance record and every vote row atomically.
	PersistBallot(ctx context.Context, issuance entities.IssuanceRecord, votes []entities.Vote) error
	// HasCastBallot is the audit-only join from voter to vote rows.
	HasCastBallot(ctx context.Context, voterID string) (bool, error)
}

type TallyRepository interface {
	IncrementVoteCount(ctx context.Context, candidateID string) error
	CountVotesByCandidate(ctx context.Context) (map[string]int64, error)
	// RecountVotes rewrites the candidate's cached count from its vote rows in
	// one statement and returns the stored value.
	RecountVotes(ctx context.Context, candidateID string) (int64, error)
}

type AuditWriter interface {
	AppendAudit(ctx context.Context, event entities.AuditEvent) error
}

type ReconciliationQueue interface {
	// EnqueueReconciliation is idempotent per voter while an item is open; it
	// returns the open item and whether a new one was created.
	EnqueueReconciliation(ctx context.Context, item entities.ReconciliationItem) (entities.ReconciliationItem, bool, error)
	GetReconciliation(ctx context.Context, itemID string) (entities.ReconciliationItem, error)
	ListReconciliation(ctx context.Context, status entities.ReconciliationStatus) ([]entities.ReconciliationItem, error)
	// ClaimRecovery moves the voter's pending item to in_progress. An
	// in_progress item last touched before staleBefore is an abandoned claim
	// and is taken over.
	ClaimRecovery(ctx context.Context, voterID string, claimedAt time.Time, staleBefore time.Time) (entities.ReconciliationItem, error)
	ReleaseRecovery(ctx context.Context, itemID string, releasedAt time.Time) error
	// ResolveReconciliation closes an item that is currently in status from.
	ResolveReconciliation(
		ctx context.Context,
		itemID string,
		from entities.ReconciliationStatus,
		resolution entities.ReconciliationResolution,
	) (entities.ReconciliationItem, error)
}

const (
	ActionVote        = "vote"
	ActionViewResults = "view_results"
)

type EligibilityDecision struct {
	Allowed bool
	Reason  string
}

// Eligibility is evaluated immediately before each state-changing step.
type Eligibility interface {
	Authorize(ctx context.Context, action string) (EligibilityDecision, error)
}

type PhaseReader interface {
	CurrentPhase(ctx context.Context) (entities.ElectionPhase, error)
}

type TokenGenerator interface {
	NewIssuanceToken() (string, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// BallotMetrics is optional; nil disables instrumentation.
type BallotMetrics interface {
	ObserveSubmission(outcome string, duration time.Duration)
	IncTallyIncrementFailure()
	IncReconciliationEnqueued(reason string)
	AddTallyCorrections(count int)
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
