package entities

// ElectionPhase is the slice of timeline status the result path depends on.
type ElectionPhase struct {
	VotingActive     bool
	VotingEnded      bool
	ResultsPublished bool
}

type CandidateResult struct {
	CandidateID string
	FullName    string
	VoteCount   int64
	Percentage  float64
}

// PositionResult is withheld, with no tally detail, until results are published.
type PositionResult struct {
	Position   string
	TotalVotes int64
	Candidates []CandidateResult
	Winner     *CandidateResult
	IsDraw     bool
	Withheld   bool
}

type ResultsSummary struct {
	Positions      []PositionResult
	VerifiedVoters int64
	VotedVoters    int64
	Turnout        float64
	Phase          ElectionPhase
}

// TallyCorrection records one cached vote_count rewritten from vote rows.
type TallyCorrection struct {
	CandidateID string
	Cached      int64
	Actual      int64
}
