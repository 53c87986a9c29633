package services

import (
	"sort"

	"agora/contexts/elections/balloting/domain/entities"
)

// ComputeResults groups candidates by position and resolves winners. When
// results are not published every position comes back withheld, whatever the
// caller already checked.
func ComputeResults(
	positions []entities.Position,
	candidates []entities.Candidate,
	phase entities.ElectionPhase,
) []entities.PositionResult {
	order := positionOrder(positions, candidates)
	if !phase.ResultsPublished {
		withheld := make([]entities.PositionResult, 0, len(order))
		for _, name := range order {
			withheld = append(withheld, entities.PositionResult{Position: name, Withheld: true})
		}
		return withheld
	}

	grouped := make(map[string][]entities.Candidate, len(order))
	for _, candidate := range candidates {
		grouped[candidate.Position] = append(grouped[candidate.Position], candidate)
	}

	results := make([]entities.PositionResult, 0, len(order))
	for _, name := range order {
		results = append(results, tallyPosition(name, grouped[name], phase))
	}
	return results
}

func tallyPosition(name string, group []entities.Candidate, phase entities.ElectionPhase) entities.PositionResult {
	var total int64
	for _, candidate := range group {
		total += candidate.VoteCount
	}

	sorted := append([]entities.Candidate(nil), group...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].VoteCount != sorted[j].VoteCount {
			return sorted[i].VoteCount > sorted[j].VoteCount
		}
		if sorted[i].FullName != sorted[j].FullName {
			return sorted[i].FullName < sorted[j].FullName
		}
		return sorted[i].CandidateID < sorted[j].CandidateID
	})

	result := entities.PositionResult{
		Position:   name,
		TotalVotes: total,
		Candidates: make([]entities.CandidateResult, 0, len(sorted)),
	}
	for _, candidate := range sorted {
		result.Candidates = append(result.Candidates, entities.CandidateResult{
			CandidateID: candidate.CandidateID,
			FullName:    candidate.FullName,
			VoteCount:   candidate.VoteCount,
			Percentage:  Percentage(candidate.VoteCount, total),
		})
	}
	if len(result.Candidates) == 0 {
		return result
	}

	top := result.Candidates[0]
	tied := len(result.Candidates) > 1 && result.Candidates[1].VoteCount == top.VoteCount
	switch {
	case tied && top.VoteCount > 0:
		result.IsDraw = true
	case !tied && top.VoteCount > 0 && phase.VotingEnded && phase.ResultsPublished:
		winner := top
		result.Winner = &winner
	}
	return result
}

// positionOrder lists catalog positions first, then positions that only
// appear on candidates.
func positionOrder(positions []entities.Position, candidates []entities.Candidate) []string {
	seen := make(map[string]struct{}, len(positions))
	order := make([]string, 0, len(positions))
	for _, position := range SortPositions(positions) {
		if _, ok := seen[position.Name]; ok {
			continue
		}
		seen[position.Name] = struct{}{}
		order = append(order, position.Name)
	}
	var extra []string
	for _, candidate := range candidates {
		if _, ok := seen[candidate.Position]; ok {
			continue
		}
		seen[candidate.Position] = struct{}{}
		extra = append(extra, candidate.Position)
	}
	sort.Strings(extra)
	return append(order, extra...)
}

// Percentage is part/total*100 and 0 when total is 0.
func Percentage(part int64, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// Turnout is voted/verified*100 and 0 when nobody is verified.
func Turnout(counts entities.VoterCounts) float64 {
	return Percentage(counts.Voted, counts.Verified)
}
