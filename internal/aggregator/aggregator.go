package aggregator

import (
	"cmp"
	"slices"

	"github.com/pable/go-cup-rating/internal/model"
)

// Result is the outcome of one aggregation pass.
type Result struct {
	Ratings  []model.PlayerRating // sorted by TotalPoints desc, ranked 1..n
	Rejected []*DataError         // players excluded for data-integrity faults
}

// Aggregate computes ranked ratings for entries under cfg.
//
// An invalid cfg fails the whole pass. A player with corrupt data (negative
// points or tallies, duplicate identity) is left out and reported in
// Result.Rejected without blocking the others. Players with equal totals keep
// their relative input order and still receive consecutive ranks.
func Aggregate(entries []model.PlayerEntry, cfg model.RatingConfig) (*Result, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	res := &Result{Ratings: make([]model.PlayerRating, 0, len(entries))}
	seen := make(map[string]struct{}, len(entries))

	for i := range entries {
		e := &entries[i]
		key := e.Key()
		if _, dup := seen[key]; dup {
			res.Rejected = append(res.Rejected, &DataError{PlayerKey: key, Err: ErrDuplicatePlayer})
			continue
		}
		seen[key] = struct{}{}

		if err := checkResults(key, e.Results); err != nil {
			res.Rejected = append(res.Rejected, err)
			continue
		}

		tagged, err := SelectBest(e.Results, cfg.BestResultsCount)
		if err != nil {
			return nil, err
		}
		slices.SortStableFunc(tagged, compareChronological)

		gender := e.Gender
		if gender == "" {
			gender = model.GenderUnknown
		}
		res.Ratings = append(res.Ratings, model.PlayerRating{
			Key:         key,
			PlayerID:    e.PlayerID,
			DisplayName: e.DisplayName(),
			Gender:      gender,
			TotalPoints: TotalPoints(tagged),
			AllResults:  tagged,
			BestResults: Counted(tagged),
		})
	}

	slices.SortStableFunc(res.Ratings, func(a, b model.PlayerRating) int {
		return cmp.Compare(b.TotalPoints, a.TotalPoints)
	})
	assignRanks(res.Ratings)
	return res, nil
}

func checkResults(key string, results []model.TournamentResult) *DataError {
	for i := range results {
		r := &results[i]
		if r.Points < 0 {
			return &DataError{PlayerKey: key, TournamentID: r.TournamentID, Err: ErrNegativePoints}
		}
		if r.WinsOrZero() < 0 || r.LossesOrZero() < 0 {
			return &DataError{PlayerKey: key, TournamentID: r.TournamentID, Err: ErrNegativeTally}
		}
	}
	return nil
}

// compareChronological orders results newest first for display.
func compareChronological(a, b model.TournamentResult) int {
	if c := b.TournamentDate.Compare(a.TournamentDate); c != 0 {
		return c
	}
	if c := cmp.Compare(a.TournamentID, b.TournamentID); c != 0 {
		return c
	}
	return cmp.Compare(a.TeamID, b.TeamID)
}

func assignRanks(ratings []model.PlayerRating) {
	for i := range ratings {
		ratings[i].Rank = i + 1
	}
}

// GenderViews holds independently ranked rating views per gender.
type GenderViews struct {
	Male    []model.PlayerRating
	Female  []model.PlayerRating
	Unknown []model.PlayerRating
}

// View returns the partition for g.
func (v *GenderViews) View(g model.Gender) []model.PlayerRating {
	switch g {
	case model.GenderMale:
		return v.Male
	case model.GenderFemale:
		return v.Female
	default:
		return v.Unknown
	}
}

// Partition splits sorted ratings by gender and re-ranks each view from 1.
// Totals are not recomputed.
func Partition(ratings []model.PlayerRating) *GenderViews {
	views := &GenderViews{}
	for _, r := range ratings {
		switch r.Gender {
		case model.GenderMale:
			views.Male = append(views.Male, r)
		case model.GenderFemale:
			views.Female = append(views.Female, r)
		default:
			views.Unknown = append(views.Unknown, r)
		}
	}
	assignRanks(views.Male)
	assignRanks(views.Female)
	assignRanks(views.Unknown)
	return views
}

// Find returns the rating with the given key, or nil.
func Find(ratings []model.PlayerRating, key string) *model.PlayerRating {
	for i := range ratings {
		if ratings[i].Key == key {
			return &ratings[i]
		}
	}
	return nil
}
