package matching

import "sort"

// Assignment pairs an entry of the old roster with an entry of the new one
type Assignment struct {
	OldIndex int
	NewIndex int
	Score    float64
}

// AssignRosters pairs old and new roster names one-to-one using greedy
// best-score-first assignment. Names must already be normalized; pairs below
// the threshold are never matched. Each old entry matches at most one new
// entry and vice versa.
func (s *Scorer) AssignRosters(oldNames, newNames []string, threshold float64) []Assignment {
	candidates := make([]Assignment, 0, len(oldNames))
	for i, oldName := range oldNames {
		for j, newName := range newNames {
			score := s.NameSimilarity(oldName, newName)
			if score >= threshold {
				candidates = append(candidates, Assignment{OldIndex: i, NewIndex: j, Score: score})
			}
		}
	}

	// Best score first; index order breaks ties so assignment is deterministic.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		if candidates[i].OldIndex != candidates[j].OldIndex {
			return candidates[i].OldIndex < candidates[j].OldIndex
		}
		return candidates[i].NewIndex < candidates[j].NewIndex
	})

	usedOld := make(map[int]bool, len(oldNames))
	usedNew := make(map[int]bool, len(newNames))
	assignments := make([]Assignment, 0, len(candidates))

	for _, c := range candidates {
		if usedOld[c.OldIndex] || usedNew[c.NewIndex] {
			continue
		}
		usedOld[c.OldIndex] = true
		usedNew[c.NewIndex] = true
		assignments = append(assignments, c)
	}

	return assignments
}
