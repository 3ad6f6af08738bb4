package aggregator

import "github.com/pable/go-cup-rating/internal/model"

// WinRate sums wins and losses over results from non-manual tournaments.
// Negative tallies are reported, never clamped.
func WinRate(results []model.TournamentResult) (model.WinStats, error) {
	var s model.WinStats
	for i := range results {
		r := &results[i]
		if r.TournamentManual {
			continue
		}
		w, l := r.WinsOrZero(), r.LossesOrZero()
		if w < 0 || l < 0 {
			return model.WinStats{}, &DataError{TournamentID: r.TournamentID, Err: ErrNegativeTally}
		}
		s.Wins += w
		s.Losses += l
	}
	if games := s.Wins + s.Losses; games > 0 {
		s.WinRate = float64(s.Wins) / float64(games) * 100
	}
	return s, nil
}
