package entities

type VoteType string

const (
	VoteTypeSingle   VoteType = "single"
	VoteTypeMultiple VoteType = "multiple"
)

type Position struct {
	PositionID    string
	Name          string
	VoteType      VoteType
	MaxSelections int
	DisplayOrder  int
}

// SelectionLimit is the most candidates a ballot may pick for the position.
func (p Position) SelectionLimit() int {
	if p.VoteType != VoteTypeMultiple {
		return 1
	}
	if p.MaxSelections < 1 {
		return 1
	}
	return p.MaxSelections
}

// Candidate.VoteCount is a cache of the vote rows referencing the candidate.
type Candidate struct {
	CandidateID string
	FullName    string
	Position    string
	VoteCount   int64
}
