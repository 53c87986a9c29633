package httptransport

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// SubmitVoteRequest is shared by the submit and recover routes. An empty
// ballot passes here; completeness is judged against the configured positions.
type SubmitVoteRequest struct {
	VoterID    string              `json:"voterId"`
	Selections map[string][]string `json:"selections"`
}

func (r *SubmitVoteRequest) Validate() error {
	return validation.ValidateStruct(
		r,
		validation.Field(&r.VoterID, validation.Required, validation.Length(1, 64)),
		validation.Field(&r.Selections, validation.By(validSelections)),
	)
}

func validSelections(value interface{}) error {
	selections, _ := value.(map[string][]string)
	for position, ids := range selections {
		if strings.TrimSpace(position) == "" {
			return errors.New("position name must not be blank")
		}
		for _, id := range ids {
			if strings.TrimSpace(id) == "" {
				return errors.New("candidate id must not be blank")
			}
		}
	}
	return nil
}

type SubmitVoteResponse struct {
	Success bool `json:"success"`
}

type CandidateResultResponse struct {
	CandidateID string  `json:"candidate_id"`
	FullName    string  `json:"full_name"`
	VoteCount   int64   `json:"vote_count"`
	Percentage  float64 `json:"percentage"`
}

type PositionResultResponse struct {
	Position   string                    `json:"position"`
	TotalVotes int64                     `json:"total_votes"`
	Candidates []CandidateResultResponse `json:"candidates"`
	Winner     *CandidateResultResponse  `json:"winner"`
	IsDraw     bool                      `json:"is_draw"`
	Withheld   bool                      `json:"withheld,omitempty"`
}

type ResultsResponse struct {
	Positions      []PositionResultResponse `json:"positions"`
	VerifiedVoters int64                    `json:"verified_voters"`
	VotedVoters    int64                    `json:"voted_voters"`
	Turnout        float64                  `json:"turnout"`
	VotingEnded    bool                     `json:"voting_ended"`
}

type ReconciliationItemResponse struct {
	ID         string     `json:"id"`
	VoterID    string     `json:"voter_id"`
	Reason     string     `json:"reason"`
	Status     string     `json:"status"`
	Resolution string     `json:"resolution,omitempty"`
	ResolvedBy string     `json:"resolved_by,omitempty"`
	Note       string     `json:"note,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

type ListReconciliationResponse struct {
	Items []ReconciliationItemResponse `json:"items"`
}

type ResolveReconciliationRequest struct {
	ActorID string `json:"actor_id"`
	Note    string `json:"note"`
}

func (r *ResolveReconciliationRequest) Validate() error {
	return validation.ValidateStruct(
		r,
		validation.Field(&r.ActorID, validation.Required, validation.Length(1, 64)),
		validation.Field(&r.Note, validation.Length(0, 1000)),
	)
}

type TallyCorrectionResponse struct {
	CandidateID string `json:"candidate_id"`
	Cached      int64  `json:"cached"`
	Actual      int64  `json:"actual"`
}

type ReconcileTalliesResponse struct {
	Corrections []TallyCorrectionResponse `json:"corrections"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
