package entities

import "time"

// PhaseState is the derived state of the single stage that represents a
// category. Present is false when no stage of the category exists.
type PhaseState struct {
	Present   bool
	Open      bool
	Ended     bool
	StartTime *time.Time
	EndTime   *time.Time
}

// TimelineStatus is recomputed on every evaluation and never persisted.
type TimelineStatus struct {
	CurrentStage       *Stage
	IsVotingActive     bool
	IsVotingEnded      bool
	IsResultsPublished bool
	VotingStartTime    *time.Time
	VotingEndTime      *time.Time
	ResultsPublishTime *time.Time

	Registration PhaseState
	Application  PhaseState

	EvaluatedAt time.Time
}
