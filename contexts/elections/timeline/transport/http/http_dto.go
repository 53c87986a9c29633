package httptransport

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

type UpsertStageRequest struct {
	ID        int64     `json:"id,omitempty"`
	StageName string    `json:"stage_name"`
	Category  string    `json:"category"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	IsActive  bool      `json:"is_active"`
}

func (r *UpsertStageRequest) Validate() error {
	return validation.ValidateStruct(
		r,
		validation.Field(&r.ID, validation.Min(int64(0))),
		validation.Field(&r.StageName, validation.Required, validation.Length(1, 120)),
		validation.Field(&r.Category, validation.Required,
			validation.In("registration", "application", "voting", "results", "other"),
		),
		validation.Field(&r.StartTime, validation.Required),
		validation.Field(&r.EndTime, validation.Required),
	)
}

type StageResponse struct {
	ID        int64     `json:"id"`
	StageName string    `json:"stage_name"`
	Category  string    `json:"category"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	IsActive  bool      `json:"is_active"`
}

type ListStagesResponse struct {
	Items []StageResponse `json:"items"`
}

type PhaseResponse struct {
	Open      bool       `json:"open"`
	Ended     bool       `json:"ended"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
}

type StatusResponse struct {
	CurrentStage       *StageResponse `json:"current_stage"`
	IsVotingActive     bool           `json:"is_voting_active"`
	IsVotingEnded      bool           `json:"is_voting_ended"`
	IsResultsPublished bool           `json:"is_results_published"`
	VotingStartTime    *time.Time     `json:"voting_start_time"`
	VotingEndTime      *time.Time     `json:"voting_end_time"`
	ResultsPublishTime *time.Time     `json:"results_publish_time"`
	Registration       *PhaseResponse `json:"registration,omitempty"`
	Application        *PhaseResponse `json:"application,omitempty"`
	EvaluatedAt        time.Time      `json:"evaluated_at"`
}

type EligibilityResponse struct {
	Action  string `json:"action"`
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
