package aggregator

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"

	"github.com/pable/go-cup-rating/internal/model"
)

func intp(v int) *int     { return &v }
func idp(v int64) *int64  { return &v }
func day(d int) time.Time { return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC) }

func cfgN(n int) model.RatingConfig {
	return model.RatingConfig{BestResultsCount: n, PositionPoints: map[int]int{1: 100, 2: 90, 3: 80}}
}

// result builds a minimal TournamentResult; tournament IDs are derived from the date.
func result(d, points, wins, losses int, manual bool) model.TournamentResult {
	return model.TournamentResult{
		TournamentID:     fmt.Sprintf("t%02d", d),
		TournamentDate:   day(d),
		TeamID:           "team",
		Points:           points,
		Wins:             intp(wins),
		Losses:           intp(losses),
		TournamentManual: manual,
	}
}

func countedFlags(results []model.TournamentResult) []bool {
	out := make([]bool, len(results))
	for i, r := range results {
		out[i] = r.IsCounted
	}
	return out
}

// ---- Best-N selection ----

func TestSelectBest_Example(t *testing.T) {
	in := []model.TournamentResult{
		result(1, 100, 4, 1, false),
		result(2, 80, 3, 2, false),
		result(3, 50, 0, 0, true),
	}
	got, err := SelectBest(in, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]bool{true, true, false}, countedFlags(got)); diff != "" {
		t.Errorf("isCounted mismatch (-want +got):\n%s", diff)
	}
	if TotalPoints(got) != 180 {
		t.Errorf("expected total 180, got %d", TotalPoints(got))
	}
	for _, r := range in {
		if r.IsCounted {
			t.Fatal("SelectBest mutated its input")
		}
	}
}

func TestSelectBest_EmptyInput(t *testing.T) {
	got, err := SelectBest(nil, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty output, got %d", len(got))
	}
}

func TestSelectBest_ZeroIsRejected(t *testing.T) {
	_, err := SelectBest([]model.TournamentResult{result(1, 10, 0, 0, false)}, 0)
	if !errors.Is(err, ErrInvalidBestCount) {
		t.Fatalf("expected ErrInvalidBestCount, got %v", err)
	}
}

func TestSelectBest_NLargerThanResults(t *testing.T) {
	in := []model.TournamentResult{result(1, 10, 0, 0, false), result(2, 20, 0, 0, false)}
	got, err := SelectBest(in, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]bool{true, true}, countedFlags(got)); diff != "" {
		t.Errorf("isCounted mismatch (-want +got):\n%s", diff)
	}
}

// Equal points at the cutoff: the earlier tournament wins the slot.
func TestSelectBest_TieBreakEarliestDate(t *testing.T) {
	in := []model.TournamentResult{
		result(9, 60, 0, 0, false),
		result(3, 60, 0, 0, false),
		result(5, 90, 0, 0, false),
	}
	got, err := SelectBest(in, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]bool{false, true, true}, countedFlags(got)); diff != "" {
		t.Errorf("isCounted mismatch (-want +got):\n%s", diff)
	}
}

// Same date and points: tournament ID then team ID decide.
func TestSelectBest_TieBreakIDs(t *testing.T) {
	a := model.TournamentResult{TournamentID: "b", TeamID: "1", Points: 10, TournamentDate: day(1)}
	b := model.TournamentResult{TournamentID: "a", TeamID: "2", Points: 10, TournamentDate: day(1)}
	c := model.TournamentResult{TournamentID: "a", TeamID: "1", Points: 10, TournamentDate: day(1)}
	for _, in := range [][]model.TournamentResult{{a, b, c}, {c, b, a}, {b, a, c}} {
		got, err := SelectBest(in, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, r := range got {
			want := r.TournamentID == "a" && r.TeamID == "1"
			if r.IsCounted != want {
				t.Errorf("%s/%s: IsCounted=%v, want %v", r.TournamentID, r.TeamID, r.IsCounted, want)
			}
		}
	}
}

// ---- Properties over generated data ----

func fakeResults(f *gofakeit.Faker, n int) []model.TournamentResult {
	out := make([]model.TournamentResult, n)
	for i := range out {
		out[i] = model.TournamentResult{
			TournamentID:   fmt.Sprintf("t%03d", i),
			TeamID:         f.UUID(),
			TournamentDate: day(1).AddDate(0, 0, f.IntRange(0, 30)),
			Points:         f.IntRange(0, 10) * 10, // coarse values force ties
			Wins:           intp(f.IntRange(0, 6)),
			Losses:         intp(f.IntRange(0, 6)),
		}
	}
	return out
}

func TestSelectBest_SizeLaw(t *testing.T) {
	f := gofakeit.New(42)
	for k := 0; k <= 12; k++ {
		results := fakeResults(f, k)
		for n := 1; n <= 14; n++ {
			got, err := SelectBest(results, n)
			if err != nil {
				t.Fatalf("k=%d n=%d: %v", k, n, err)
			}
			if c := len(Counted(got)); c != min(n, k) {
				t.Errorf("k=%d n=%d: counted %d, want %d", k, n, c, min(n, k))
			}
		}
	}
}

func TestSelectBest_CountedAreTheLargest(t *testing.T) {
	f := gofakeit.New(7)
	for trial := 0; trial < 50; trial++ {
		results := fakeResults(f, f.IntRange(1, 15))
		n := f.IntRange(1, 10)
		got, _ := SelectBest(results, n)
		minCounted := math.MaxInt
		maxUncounted := -1
		for _, r := range got {
			if r.IsCounted {
				minCounted = min(minCounted, r.Points)
			} else {
				maxUncounted = max(maxUncounted, r.Points)
			}
		}
		if maxUncounted > minCounted {
			t.Fatalf("trial %d: uncounted %d beats counted %d", trial, maxUncounted, minCounted)
		}
	}
}

func TestAggregate_PermutationInvariance(t *testing.T) {
	f := gofakeit.New(1234)
	for trial := 0; trial < 30; trial++ {
		results := fakeResults(f, f.IntRange(0, 12))
		shuffled := make([]model.TournamentResult, len(results))
		copy(shuffled, results)
		f.ShuffleAnySlice(shuffled)

		n := f.IntRange(1, 10)
		a, err := Aggregate([]model.PlayerEntry{{PlayerID: idp(1), Results: results}}, cfgN(n))
		if err != nil {
			t.Fatalf("aggregate: %v", err)
		}
		b, err := Aggregate([]model.PlayerEntry{{PlayerID: idp(1), Results: shuffled}}, cfgN(n))
		if err != nil {
			t.Fatalf("aggregate shuffled: %v", err)
		}
		if diff := cmp.Diff(a, b); diff != "" {
			t.Fatalf("trial %d: output depends on input order (-orig +shuffled):\n%s", trial, diff)
		}
	}
}

func TestAggregate_MonotonicInN(t *testing.T) {
	f := gofakeit.New(99)
	entries := make([]model.PlayerEntry, 20)
	for i := range entries {
		entries[i] = model.PlayerEntry{PlayerID: idp(int64(i + 1)), Results: fakeResults(f, f.IntRange(0, 15))}
	}
	prev := map[string]int{}
	for n := MinBestResults; n <= MaxBestResults; n++ {
		res, err := Aggregate(entries, cfgN(n))
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		for _, r := range res.Ratings {
			if r.TotalPoints < prev[r.Key] {
				t.Fatalf("n=%d: %s total dropped from %d to %d", n, r.Key, prev[r.Key], r.TotalPoints)
			}
			prev[r.Key] = r.TotalPoints
		}
	}
}

// ---- Aggregation ----

func TestAggregate_Example(t *testing.T) {
	entry := model.PlayerEntry{
		PlayerID: idp(1),
		Name:     "p1",
		Gender:   model.GenderMale,
		Results: []model.TournamentResult{
			result(1, 100, 4, 1, false),
			result(2, 80, 3, 2, false),
			result(3, 50, 0, 0, true),
		},
	}
	res, err := Aggregate([]model.PlayerEntry{entry}, cfgN(2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Ratings) != 1 {
		t.Fatalf("expected 1 rating, got %d", len(res.Ratings))
	}
	r := res.Ratings[0]
	if r.TotalPoints != 180 {
		t.Errorf("expected total 180, got %d", r.TotalPoints)
	}
	if len(r.BestResults) != 2 {
		t.Errorf("expected 2 best results, got %d", len(r.BestResults))
	}
	if r.Rank != 1 {
		t.Errorf("expected rank 1, got %d", r.Rank)
	}
	// AllResults are newest first.
	if diff := cmp.Diff([]bool{false, true, true}, countedFlags(r.AllResults)); diff != "" {
		t.Errorf("isCounted mismatch (-want +got):\n%s", diff)
	}

	stats, err := WinRate(r.AllResults)
	if err != nil {
		t.Fatalf("win rate: %v", err)
	}
	if stats.Wins != 7 || stats.Losses != 3 {
		t.Errorf("expected 7-3 excluding manual entry, got %d-%d", stats.Wins, stats.Losses)
	}
	if math.Abs(stats.WinRate-70) > 1e-9 {
		t.Errorf("expected 70%%, got %.4f", stats.WinRate)
	}
}

func TestAggregate_InvalidConfigIsFatal(t *testing.T) {
	entries := []model.PlayerEntry{{PlayerID: idp(1), Results: []model.TournamentResult{result(1, 10, 0, 0, false)}}}
	for _, n := range []int{0, -3, 51} {
		res, err := Aggregate(entries, cfgN(n))
		var ce *ConfigError
		if !errors.As(err, &ce) {
			t.Fatalf("n=%d: expected ConfigError, got %v", n, err)
		}
		if res != nil {
			t.Errorf("n=%d: expected no partial result", n)
		}
	}

	bad := model.RatingConfig{BestResultsCount: 8, PositionPoints: map[int]int{0: 10}}
	if _, err := Aggregate(entries, bad); !errors.Is(err, ErrInvalidPosition) {
		t.Errorf("expected ErrInvalidPosition, got %v", err)
	}
	bad = model.RatingConfig{BestResultsCount: 8, PositionPoints: map[int]int{1: -10}}
	if _, err := Aggregate(entries, bad); !errors.Is(err, ErrNegativePoints) {
		t.Errorf("expected ErrNegativePoints, got %v", err)
	}
}

func TestAggregate_RanksAndStableTies(t *testing.T) {
	entries := []model.PlayerEntry{
		{PlayerID: idp(1), Name: "low", Results: []model.TournamentResult{result(1, 10, 0, 0, false)}},
		{PlayerID: idp(2), Name: "tieA", Results: []model.TournamentResult{result(1, 50, 0, 0, false)}},
		{PlayerID: idp(3), Name: "top", Results: []model.TournamentResult{result(1, 90, 0, 0, false)}},
		{PlayerID: idp(4), Name: "tieB", Results: []model.TournamentResult{result(2, 50, 0, 0, false)}},
		{PlayerID: idp(5), Name: "none"},
	}
	res, err := Aggregate(entries, cfgN(8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var names []string
	var ranks []int
	for _, r := range res.Ratings {
		names = append(names, r.DisplayName)
		ranks = append(ranks, r.Rank)
	}
	if diff := cmp.Diff([]string{"top", "tieA", "tieB", "low", "none"}, names); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 2, 3, 4, 5}, ranks); diff != "" {
		t.Errorf("rank mismatch (-want +got):\n%s", diff)
	}
	if last := res.Ratings[4]; last.TotalPoints != 0 || len(last.AllResults) != 0 {
		t.Errorf("player without results: %+v", last)
	}
}

func TestAggregate_RejectsOnlyFaultyPlayer(t *testing.T) {
	entries := []model.PlayerEntry{
		{PlayerID: idp(1), Name: "ok", Results: []model.TournamentResult{result(1, 10, 1, 0, false)}},
		{PlayerID: idp(2), Name: "neg", Results: []model.TournamentResult{result(1, 10, -1, 0, false)}},
		{PlayerID: idp(3), Name: "negpts", Results: []model.TournamentResult{result(2, -5, 0, 0, false)}},
		{PlayerID: idp(1), Name: "dup"},
	}
	res, err := Aggregate(entries, cfgN(8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Ratings) != 1 || res.Ratings[0].DisplayName != "ok" {
		t.Fatalf("expected only 'ok' rated, got %+v", res.Ratings)
	}
	if len(res.Rejected) != 3 {
		t.Fatalf("expected 3 rejections, got %d", len(res.Rejected))
	}
	wantErrs := []error{ErrNegativeTally, ErrNegativePoints, ErrDuplicatePlayer}
	for i, want := range wantErrs {
		if !errors.Is(res.Rejected[i], want) {
			t.Errorf("rejection %d: expected %v, got %v", i, want, res.Rejected[i])
		}
	}
}

func TestAggregate_LicensedNameAndKey(t *testing.T) {
	entries := []model.PlayerEntry{
		{PlayerID: idp(1), Name: "jd", LicensedName: "John Doe", Results: []model.TournamentResult{result(1, 30, 0, 0, false)}},
		{LicensedName: "Unmatched Licensee", Gender: model.GenderFemale},
	}
	res, err := Aggregate(entries, cfgN(8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Ratings[0].DisplayName != "John Doe" || res.Ratings[0].Key != "id:1" {
		t.Errorf("unexpected first rating %+v", res.Ratings[0])
	}
	if res.Ratings[1].PlayerID != nil || res.Ratings[1].Key != "lic:Unmatched Licensee" {
		t.Errorf("unexpected licensed-only rating %+v", res.Ratings[1])
	}
	if Find(res.Ratings, "lic:Unmatched Licensee") == nil {
		t.Error("Find did not locate licensed-only player")
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	f := gofakeit.New(5)
	entries := make([]model.PlayerEntry, 10)
	for i := range entries {
		entries[i] = model.PlayerEntry{PlayerID: idp(int64(i)), Results: fakeResults(f, 6)}
	}
	a, _ := Aggregate(entries, cfgN(3))
	b, _ := Aggregate(entries, cfgN(3))
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("aggregate not idempotent:\n%s", diff)
	}
}

func TestPartition(t *testing.T) {
	entries := []model.PlayerEntry{
		{PlayerID: idp(1), Gender: model.GenderMale, Results: []model.TournamentResult{result(1, 10, 0, 0, false)}},
		{PlayerID: idp(2), Gender: model.GenderFemale, Results: []model.TournamentResult{result(1, 40, 0, 0, false)}},
		{PlayerID: idp(3), Gender: model.GenderMale, Results: []model.TournamentResult{result(1, 30, 0, 0, false)}},
		{PlayerID: idp(4), Results: []model.TournamentResult{result(1, 20, 0, 0, false)}},
	}
	res, err := Aggregate(entries, cfgN(8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	views := Partition(res.Ratings)

	type row struct {
		Key   string
		Rank  int
		Total int
	}
	rows := func(rs []model.PlayerRating) []row {
		var out []row
		for _, r := range rs {
			out = append(out, row{r.Key, r.Rank, r.TotalPoints})
		}
		return out
	}
	if diff := cmp.Diff([]row{{"id:3", 1, 30}, {"id:1", 2, 10}}, rows(views.View(model.GenderMale))); diff != "" {
		t.Errorf("male view (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]row{{"id:2", 1, 40}}, rows(views.View(model.GenderFemale))); diff != "" {
		t.Errorf("female view (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]row{{"id:4", 1, 20}}, rows(views.View(model.GenderUnknown))); diff != "" {
		t.Errorf("unknown view (-want +got):\n%s", diff)
	}
	// overall ranks untouched
	if res.Ratings[0].Key != "id:2" || res.Ratings[0].Rank != 1 {
		t.Errorf("partition mutated overall ranking: %+v", res.Ratings[0])
	}
}

// ---- Win rate ----

func TestWinRate(t *testing.T) {
	cases := []struct {
		name    string
		results []model.TournamentResult
		want    model.WinStats
	}{
		{"empty", nil, model.WinStats{}},
		{"all zero", []model.TournamentResult{result(1, 0, 0, 0, false)}, model.WinStats{}},
		{"only manual", []model.TournamentResult{result(1, 0, 5, 5, true)}, model.WinStats{}},
		{"mixed", []model.TournamentResult{result(1, 0, 3, 1, false), result(2, 0, 0, 0, true)}, model.WinStats{Wins: 3, Losses: 1, WinRate: 75}},
		{"nil tallies", []model.TournamentResult{{TournamentID: "x"}}, model.WinStats{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := WinRate(tc.results)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.IsNaN(got.WinRate) {
				t.Fatal("win rate is NaN")
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("stats mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWinRate_NegativeIsReported(t *testing.T) {
	_, err := WinRate([]model.TournamentResult{result(1, 0, 2, -1, false)})
	var de *DataError
	if !errors.As(err, &de) || !errors.Is(err, ErrNegativeTally) {
		t.Fatalf("expected DataError wrapping ErrNegativeTally, got %v", err)
	}
	if de.TournamentID != "t01" {
		t.Errorf("expected tournament t01, got %q", de.TournamentID)
	}
}

func TestValidateConfig(t *testing.T) {
	if err := ValidateConfig(cfgN(1)); err != nil {
		t.Errorf("n=1 should be valid: %v", err)
	}
	if err := ValidateConfig(cfgN(50)); err != nil {
		t.Errorf("n=50 should be valid: %v", err)
	}
	if err := ValidateConfig(model.RatingConfig{BestResultsCount: 8}); err != nil {
		t.Errorf("empty points table should be valid: %v", err)
	}
}
