package bootstrap

import (
	"context"

	ballotingentities "agora/contexts/elections/balloting/domain/entities"
	ballotingports "agora/contexts/elections/balloting/ports"
	"agora/contexts/elections/timeline/application/queries"
	"agora/contexts/elections/timeline/domain/services"
)

// timelineGate answers balloting's eligibility and phase questions from the
// timeline status service, so the two modules never share types.
type timelineGate struct {
	status *queries.StatusService
}

func newTimelineGate(status *queries.StatusService) timelineGate {
	return timelineGate{status: status}
}

func (g timelineGate) Authorize(ctx context.Context, action string) (ballotingports.EligibilityDecision, error) {
	parsed, err := services.ParseAction(action)
	if err != nil {
		return ballotingports.EligibilityDecision{}, err
	}
	decision, _, err := g.status.Authorize(ctx, parsed)
	if err != nil {
		return ballotingports.EligibilityDecision{}, err
	}
	return ballotingports.EligibilityDecision{
		Allowed: decision.Allowed,
		Reason:  string(decision.Reason),
	}, nil
}

func (g timelineGate) CurrentPhase(ctx context.Context) (ballotingentities.ElectionPhase, error) {
	status, err := g.status.Status(ctx)
	if err != nil {
		return ballotingentities.ElectionPhase{}, err
	}
	return ballotingentities.ElectionPhase{
		VotingActive:     status.IsVotingActive,
		VotingEnded:      status.IsVotingEnded,
		ResultsPublished: status.IsResultsPublished,
	}, nil
}

var _ ballotingports.Eligibility = timelineGate{}
var _ ballotingports.PhaseReader = timelineGate{}
