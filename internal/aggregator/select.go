package aggregator

import (
	"cmp"
	"slices"

	"github.com/pable/go-cup-rating/internal/model"
)

// compareForSelection orders results best-first: points descending, then the
// earliest tournament, then tournament and team ID. Distinct results never compare equal.
func compareForSelection(a, b *model.TournamentResult) int {
	if c := cmp.Compare(b.Points, a.Points); c != 0 {
		return c
	}
	if c := a.TournamentDate.Compare(b.TournamentDate); c != 0 {
		return c
	}
	if c := cmp.Compare(a.TournamentID, b.TournamentID); c != 0 {
		return c
	}
	return cmp.Compare(a.TeamID, b.TeamID)
}

// SelectBest returns a copy of results with IsCounted set on the n best entries.
// The copy keeps the input order. Selection is always recomputed from the whole set.
func SelectBest(results []model.TournamentResult, n int) ([]model.TournamentResult, error) {
	if n < MinBestResults {
		return nil, &ConfigError{Field: "bestResultsCount", Value: n, Err: ErrInvalidBestCount}
	}
	out := make([]model.TournamentResult, len(results))
	copy(out, results)

	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
		out[i].IsCounted = false
	}
	slices.SortStableFunc(idx, func(i, j int) int {
		return compareForSelection(&out[i], &out[j])
	})
	for _, i := range idx[:min(n, len(idx))] {
		out[i].IsCounted = true
	}
	return out, nil
}

// Counted returns the IsCounted subset of results ordered best-first.
func Counted(results []model.TournamentResult) []model.TournamentResult {
	var best []model.TournamentResult
	for _, r := range results {
		if r.IsCounted {
			best = append(best, r)
		}
	}
	slices.SortStableFunc(best, func(a, b model.TournamentResult) int {
		return compareForSelection(&a, &b)
	})
	return best
}

// TotalPoints sums Points over the counted results.
func TotalPoints(results []model.TournamentResult) int {
	total := 0
	for _, r := range results {
		if r.IsCounted {
			total += r.Points
		}
	}
	return total
}
