package entities

import "time"

// Voter is created by registration and verified by the identity collaborator.
// Voted moves from false to true once and is never reset.
type Voter struct {
	VoterID       string
	Matric        string
	Email         string
	Verified      bool
	Voted         bool
	IssuanceToken *string
	VotedAt       *time.Time
}

// VoterCounts feeds turnout.
type VoterCounts struct {
	Verified int64
	Voted    int64
}
