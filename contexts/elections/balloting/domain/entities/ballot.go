package entities

import "time"

// Selections maps a position name to the chosen candidate ids.
type Selections map[string][]string

// Selection is one validated (position, candidate) pair of a ballot.
type Selection struct {
	Position    string
	CandidateID string
}

// IssuanceRecord is the append-only link between a voter and a ballot token.
type IssuanceRecord struct {
	Token    string
	VoterID  string
	IssuedAt time.Time
}

// Vote carries no voter identifier and no timestamp, so it cannot be lined up
// with the voter's claim time.
type Vote struct {
	VoteID        string
	IssuanceToken string
	CandidateID   string
	Position      string
}

// ReconciliationStatus tracks an operator queue item.
type ReconciliationStatus string

const (
	ReconciliationPending    ReconciliationStatus = "pending"
	ReconciliationInProgress ReconciliationStatus = "in_progress"
	ReconciliationResolved   ReconciliationStatus = "resolved"
)

func (s ReconciliationStatus) Valid() bool {
	switch s {
	case ReconciliationPending, ReconciliationInProgress, ReconciliationResolved:
		return true
	default:
		return false
	}
}

const (
	ReasonBallotPersistFailed  = "ballot_persist_failed"
	ReasonClaimedWithoutBallot = "claimed_without_ballot"

	ResolutionBallotRecovered = "ballot_recovered"
	ResolutionBallotPresent   = "ballot_present"
	ResolutionManual          = "manual"
)

// ReconciliationItem records a voter whose claim stands without a ballot.
type ReconciliationItem struct {
	ItemID     string
	VoterID    string
	Reason     string
	Status     ReconciliationStatus
	Resolution string
	ResolvedBy string
	Note       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ResolvedAt *time.Time
}

type ReconciliationResolution struct {
	Resolution string
	ResolvedBy string
	Note       string
	ResolvedAt time.Time
}

// Open reports whether the item still needs attention.
func (i ReconciliationItem) Open() bool {
	return i.Status == ReconciliationPending || i.Status == ReconciliationInProgress
}
