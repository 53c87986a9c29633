package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	ballotingports "agora/contexts/elections/balloting/ports"
	"agora/contexts/elections/timeline"
	"agora/contexts/elections/timeline/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimelineGateFollowsStageWindows(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	module := timeline.NewInMemoryModule([]entities.Stage{
		{StageID: 1, Name: "Voting", Category: entities.CategoryVoting, StartTime: now.Add(-2 * time.Hour), EndTime: now.Add(-time.Hour)},
		{StageID: 2, Name: "Results", Category: entities.CategoryResults, StartTime: now.Add(-30 * time.Minute), EndTime: now.Add(24 * time.Hour), IsActive: true},
	}, nil)
	module.Store.SetNow(func() time.Time { return now })
	gate := newTimelineGate(module.Status)

	vote, err := gate.Authorize(context.Background(), ballotingports.ActionVote)
	require.NoError(t, err)
	assert.False(t, vote.Allowed)
	assert.Equal(t, "stage_closed", vote.Reason)

	results, err := gate.Authorize(context.Background(), ballotingports.ActionViewResults)
	require.NoError(t, err)
	assert.True(t, results.Allowed)

	phase, err := gate.CurrentPhase(context.Background())
	require.NoError(t, err)
	assert.False(t, phase.VotingActive)
	assert.True(t, phase.VotingEnded)
	assert.True(t, phase.ResultsPublished)
}

func TestTimelineGateRejectsUnknownAction(t *testing.T) {
	module := timeline.NewInMemoryModule(nil, nil)
	_, err := newTimelineGate(module.Status).Authorize(context.Background(), "teleport")
	require.Error(t, err)
}

func TestNormalizeAddr(t *testing.T) {
	assert.Equal(t, ":8080", normalizeAddr(""))
	assert.Equal(t, ":9000", normalizeAddr("9000"))
	assert.Equal(t, ":9000", normalizeAddr(" :9000 "))
}

func TestRunLoopRunsImmediatelyAndStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := runLoop(ctx, slog.Default(), time.Hour, func(context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
