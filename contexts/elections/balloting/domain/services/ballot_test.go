package services

import (
	"errors"
	"testing"

	"agora/contexts/elections/balloting/domain/entities"
	domainerrors "agora/contexts/elections/balloting/domain/errors"
)

func ballotCatalog() ([]entities.Position, []entities.Candidate) {
	positions := []entities.Position{
		{PositionID: "p2", Name: "Senate", VoteType: entities.VoteTypeMultiple, MaxSelections: 2, DisplayOrder: 2},
		{PositionID: "p1", Name: "President", VoteType: entities.VoteTypeSingle, MaxSelections: 1, DisplayOrder: 1},
	}
	candidates := []entities.Candidate{
		{CandidateID: "c1", FullName: "Ada Obi", Position: "President"},
		{CandidateID: "c2", FullName: "Bola Ade", Position: "President"},
		{CandidateID: "s1", FullName: "Chidi Eze", Position: "Senate"},
		{CandidateID: "s2", FullName: "Dayo Lawal", Position: "Senate"},
		{CandidateID: "s3", FullName: "Efe Musa", Position: "Senate"},
	}
	return positions, candidates
}

func TestValidateBallotAcceptsCompleteBallot(t *testing.T) {
	positions, candidates := ballotCatalog()
	selections, err := ValidateBallot(positions, candidates, entities.Selections{
		"Senate":    {"s1", "s3"},
		"President": {"c2"},
	})
	if err != nil {
		t.Fatalf("validate ballot failed: %v", err)
	}
	want := []entities.Selection{
		{Position: "President", CandidateID: "c2"},
		{Position: "Senate", CandidateID: "s1"},
		{Position: "Senate", CandidateID: "s3"},
	}
	if len(selections) != len(want) {
		t.Fatalf("expected %d selections, got %+v", len(want), selections)
	}
	for i := range want {
		if selections[i] != want[i] {
			t.Fatalf("selection %d: expected %+v, got %+v", i, want[i], selections[i])
		}
	}
	if got := BallotPositions(selections); len(got) != 2 || got[0] != "President" || got[1] != "Senate" {
		t.Fatalf("unexpected ballot positions %v", got)
	}
}

func TestValidateBallotRejections(t *testing.T) {
	positions, candidates := ballotCatalog()
	cases := []struct {
		name       string
		selections entities.Selections
		want       error
	}{
		{
			name:       "missing position",
			selections: entities.Selections{"President": {"c1"}},
			want:       domainerrors.ErrIncompleteBallot,
		},
		{
			name:       "empty selection",
			selections: entities.Selections{"President": {}, "Senate": {"s1"}},
			want:       domainerrors.ErrIncompleteBallot,
		},
		{
			name:       "single with two picks",
			selections: entities.Selections{"President": {"c1", "c2"}, "Senate": {"s1"}},
			want:       domainerrors.ErrInvalidSelection,
		},
		{
			name:       "multiple above max",
			selections: entities.Selections{"President": {"c1"}, "Senate": {"s1", "s2", "s3"}},
			want:       domainerrors.ErrInvalidSelection,
		},
		{
			name:       "candidate of another position",
			selections: entities.Selections{"President": {"s1"}, "Senate": {"s2"}},
			want:       domainerrors.ErrInvalidSelection,
		},
		{
			name:       "duplicate candidate",
			selections: entities.Selections{"President": {"c1"}, "Senate": {"s2", "s2"}},
			want:       domainerrors.ErrInvalidSelection,
		},
		{
			name:       "unknown position",
			selections: entities.Selections{"President": {"c1"}, "Senate": {"s2"}, "Treasurer": {"t1"}},
			want:       domainerrors.ErrInvalidSelection,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ValidateBallot(positions, candidates, tc.selections); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestValidateBallotWithoutPositions(t *testing.T) {
	if _, err := ValidateBallot(nil, nil, entities.Selections{}); !errors.Is(err, domainerrors.ErrIncompleteBallot) {
		t.Fatalf("expected incomplete ballot, got %v", err)
	}
}
