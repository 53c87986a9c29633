package services

import (
	"math"
	"testing"

	"agora/contexts/elections/balloting/domain/entities"
)

var published = entities.ElectionPhase{VotingEnded: true, ResultsPublished: true}

func TestComputeResultsDraw(t *testing.T) {
	results := ComputeResults(
		[]entities.Position{{Name: "President", VoteType: entities.VoteTypeSingle}},
		[]entities.Candidate{
			{CandidateID: "a", FullName: "A", Position: "President", VoteCount: 10},
			{CandidateID: "b", FullName: "B", Position: "President", VoteCount: 10},
			{CandidateID: "c", FullName: "C", Position: "President", VoteCount: 5},
		},
		published,
	)
	if len(results) != 1 {
		t.Fatalf("expected one position, got %d", len(results))
	}
	if !results[0].IsDraw || results[0].Winner != nil {
		t.Fatalf("expected a draw without winner, got %+v", results[0])
	}
	if results[0].TotalVotes != 25 {
		t.Fatalf("expected 25 total votes, got %d", results[0].TotalVotes)
	}
}

func TestComputeResultsWinner(t *testing.T) {
	results := ComputeResults(
		[]entities.Position{{Name: "President", VoteType: entities.VoteTypeSingle}},
		[]entities.Candidate{
			{CandidateID: "b", FullName: "B", Position: "President", VoteCount: 10},
			{CandidateID: "a", FullName: "A", Position: "President", VoteCount: 12},
		},
		published,
	)
	result := results[0]
	if result.Winner == nil || result.Winner.CandidateID != "a" {
		t.Fatalf("expected A to win, got %+v", result.Winner)
	}
	if math.Abs(result.Winner.Percentage-54.545454) > 0.01 {
		t.Fatalf("expected A at about 54.55%%, got %f", result.Winner.Percentage)
	}
	if result.Candidates[0].CandidateID != "a" || result.Candidates[1].CandidateID != "b" {
		t.Fatalf("expected candidates sorted by votes, got %+v", result.Candidates)
	}
	if result.IsDraw {
		t.Fatalf("expected no draw")
	}
}

func TestComputeResultsNoWinnerWhileVotingOpen(t *testing.T) {
	results := ComputeResults(
		[]entities.Position{{Name: "President"}},
		[]entities.Candidate{
			{CandidateID: "a", FullName: "A", Position: "President", VoteCount: 3},
			{CandidateID: "b", FullName: "B", Position: "President", VoteCount: 1},
		},
		entities.ElectionPhase{VotingActive: true, ResultsPublished: true},
	)
	if results[0].Winner != nil || results[0].IsDraw {
		t.Fatalf("expected neither winner nor draw while voting is open, got %+v", results[0])
	}
}

func TestComputeResultsZeroVotes(t *testing.T) {
	results := ComputeResults(
		[]entities.Position{{Name: "President"}},
		[]entities.Candidate{
			{CandidateID: "a", FullName: "A", Position: "President"},
			{CandidateID: "b", FullName: "B", Position: "President"},
		},
		published,
	)
	result := results[0]
	if result.Winner != nil || result.IsDraw {
		t.Fatalf("expected no winner and no draw without votes, got %+v", result)
	}
	for _, candidate := range result.Candidates {
		if candidate.Percentage != 0 {
			t.Fatalf("expected 0%% without votes, got %f", candidate.Percentage)
		}
	}
}

func TestComputeResultsWithheldUntilPublished(t *testing.T) {
	results := ComputeResults(
		[]entities.Position{{Name: "President", DisplayOrder: 1}},
		[]entities.Candidate{
			{CandidateID: "a", FullName: "A", Position: "President", VoteCount: 12},
			{CandidateID: "x", FullName: "X", Position: "Auditor", VoteCount: 2},
		},
		entities.ElectionPhase{VotingEnded: true},
	)
	if len(results) != 2 {
		t.Fatalf("expected catalog and candidate-only positions, got %+v", results)
	}
	if results[0].Position != "President" || results[1].Position != "Auditor" {
		t.Fatalf("expected catalog positions first, got %+v", results)
	}
	for _, result := range results {
		if !result.Withheld || len(result.Candidates) != 0 || result.Winner != nil || result.TotalVotes != 0 {
			t.Fatalf("expected withheld result, got %+v", result)
		}
	}
}

func TestTurnout(t *testing.T) {
	if got := Turnout(entities.VoterCounts{Verified: 0, Voted: 0}); got != 0 {
		t.Fatalf("expected 0 turnout with no verified voters, got %f", got)
	}
	if got := Turnout(entities.VoterCounts{Verified: 8, Voted: 6}); got != 75 {
		t.Fatalf("expected 75 turnout, got %f", got)
	}
}
