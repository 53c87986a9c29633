package services

import (
	"strings"

	"agora/contexts/elections/timeline/domain/entities"
	domainerrors "agora/contexts/elections/timeline/domain/errors"
)

type Action string

const (
	ActionRegister    Action = "register"
	ActionApply       Action = "apply"
	ActionVote        Action = "vote"
	ActionViewResults Action = "view_results"
)

// ParseAction normalizes user supplied action names.
func ParseAction(raw string) (Action, error) {
	action := Action(strings.ToLower(strings.TrimSpace(raw)))
	switch action {
	case ActionRegister, ActionApply, ActionVote, ActionViewResults:
		return action, nil
	default:
		return "", domainerrors.ErrUnknownAction
	}
}

type DenyReason string

const (
	DenyStageNotOpen        DenyReason = "stage_not_open"
	DenyStageClosed         DenyReason = "stage_closed"
	DenyResultsNotPublished DenyReason = "results_not_published"
)

type Decision struct {
	Allowed bool
	Reason  DenyReason
}

func Allow() Decision {
	return Decision{Allowed: true}
}

func Deny(reason DenyReason) Decision {
	return Decision{Reason: reason}
}

// Authorize maps an action onto the evaluated status. It must be evaluated
// right before the state change it guards and never reused afterwards.
func Authorize(action Action, status entities.TimelineStatus) (Decision, error) {
	switch action {
	case ActionRegister:
		return phaseDecision(status.Registration), nil
	case ActionApply:
		return phaseDecision(status.Application), nil
	case ActionVote:
		if status.IsVotingEnded {
			return Deny(DenyStageClosed), nil
		}
		if !status.IsVotingActive {
			return Deny(DenyStageNotOpen), nil
		}
		return Allow(), nil
	case ActionViewResults:
		if !status.IsResultsPublished {
			return Deny(DenyResultsNotPublished), nil
		}
		return Allow(), nil
	default:
		return Decision{}, domainerrors.ErrUnknownAction
	}
}

func phaseDecision(phase entities.PhaseState) Decision {
	if phase.Ended {
		return Deny(DenyStageClosed)
	}
	if !phase.Open {
		return Deny(DenyStageNotOpen)
	}
	return Allow()
}
