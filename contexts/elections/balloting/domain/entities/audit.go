package entities

import (
	"encoding/json"
	"time"
)

const (
	AuditVoteCast               = "VOTE_CAST"
	AuditBallotPersistFailed    = "BALLOT_PERSIST_FAILED"
	AuditVoteRecovered          = "VOTE_RECOVERED"
	AuditReconciliationResolved = "RECONCILIATION_RESOLVED"
)

// AuditEvent is append-only.
type AuditEvent struct {
	EventID     string
	EventType   string
	ActorID     *string
	Description string
	Metadata    json.RawMessage
	CreatedAt   time.Time
}
