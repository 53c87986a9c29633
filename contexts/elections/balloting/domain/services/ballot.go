package services

import (
	"fmt"
	"sort"
	"strings"

	"agora/contexts/elections/balloting/domain/entities"
	domainerrors "agora/contexts/elections/balloting/domain/errors"
)

// ValidateBallot checks a ballot against the configured positions and returns
// its selections in display order. It never touches storage, so a rejected
// ballot leaves no trace.
func ValidateBallot(
	positions []entities.Position,
	candidates []entities.Candidate,
	selections entities.Selections,
) ([]entities.Selection, error) {
	if len(positions) == 0 {
		return nil, fmt.Errorf("%w: no positions are configured", domainerrors.ErrIncompleteBallot)
	}

	byPosition := make(map[string]map[string]struct{}, len(positions))
	for _, candidate := range candidates {
		set, ok := byPosition[candidate.Position]
		if !ok {
			set = make(map[string]struct{})
			byPosition[candidate.Position] = set
		}
		set[candidate.CandidateID] = struct{}{}
	}

	ordered := SortPositions(positions)
	known := make(map[string]struct{}, len(ordered))
	result := make([]entities.Selection, 0, len(ordered))
	for _, position := range ordered {
		known[position.Name] = struct{}{}
		picked := selections[position.Name]
		if len(picked) == 0 {
			return nil, fmt.Errorf("%w: no selection for %q", domainerrors.ErrIncompleteBallot, position.Name)
		}
		if limit := position.SelectionLimit(); len(picked) > limit {
			return nil, fmt.Errorf("%w: %q allows at most %d selection(s), got %d",
				domainerrors.ErrInvalidSelection, position.Name, limit, len(picked))
		}
		seen := make(map[string]struct{}, len(picked))
		for _, raw := range picked {
			candidateID := strings.TrimSpace(raw)
			if _, ok := byPosition[position.Name][candidateID]; !ok {
				return nil, fmt.Errorf("%w: candidate %q is not standing for %q",
					domainerrors.ErrInvalidSelection, candidateID, position.Name)
			}
			if _, dup := seen[candidateID]; dup {
				return nil, fmt.Errorf("%w: candidate %q selected twice for %q",
					domainerrors.ErrInvalidSelection, candidateID, position.Name)
			}
			seen[candidateID] = struct{}{}
			result = append(result, entities.Selection{Position: position.Name, CandidateID: candidateID})
		}
	}

	for name := range selections {
		if _, ok := known[name]; !ok {
			return nil, fmt.Errorf("%w: unknown position %q", domainerrors.ErrInvalidSelection, name)
		}
	}
	return result, nil
}

// SortPositions orders positions by display order, then name.
func SortPositions(positions []entities.Position) []entities.Position {
	ordered := append([]entities.Position(nil), positions...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].DisplayOrder != ordered[j].DisplayOrder {
			return ordered[i].DisplayOrder < ordered[j].DisplayOrder
		}
		return ordered[i].Name < ordered[j].Name
	})
	return ordered
}

// BallotPositions lists the distinct positions a ballot touches, in order.
func BallotPositions(selections []entities.Selection) []string {
	names := make([]string, 0, len(selections))
	for _, selection := range selections {
		if len(names) == 0 || names[len(names)-1] != selection.Position {
			names = append(names, selection.Position)
		}
	}
	return names
}
