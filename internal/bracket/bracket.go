// Package bracket orders and labels cup placements for single-tournament views.
package bracket

import (
	"slices"
	"strings"

	"github.com/pable/go-cup-rating/internal/model"
)

// UnknownPriority sorts codes absent from the priority table last.
const UnknownPriority = 999

// QualificationLabel is shown for results that never reached a bracket.
const QualificationLabel = "Qualification"

type round struct {
	priority int
	name     string
}

var rounds = map[string]round{
	"WINNER":      {1, "1"},
	"1":           {1, "1"},
	"RUNNER_UP":   {2, "2"},
	"2":           {2, "2"},
	"THIRD_PLACE": {3, "3"},
	"3":           {3, "3"},
	"ROUND_OF_4":  {4, "1/2"},
	"1/2":         {4, "1/2"},
	"ROUND_OF_8":  {5, "1/4"},
	"1/4":         {5, "1/4"},
	"ROUND_OF_16": {6, "1/8"},
	"1/8":         {6, "1/8"},
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Priority returns the display priority for a cup position code; lower sorts first.
func Priority(code string) int {
	if r, ok := rounds[normalize(code)]; ok {
		return r.priority
	}
	return UnknownPriority
}

// RoundName returns the short round name for code ("1", "1/2", ...).
// Unknown codes are returned as given.
func RoundName(code string) string {
	if r, ok := rounds[normalize(code)]; ok {
		return r.name
	}
	return strings.TrimSpace(code)
}

// Label renders the human label for a placement, e.g. "2 A" or "1/2 B".
func Label(cup model.Cup, code string) string {
	name := RoundName(code)
	if name == "" {
		return QualificationLabel
	}
	if cup == model.CupNone {
		return QualificationLabel
	}
	return name + " " + cup.String()
}

// Order returns a copy of results stable-sorted by cup position priority.
// Equal priorities keep their input order.
func Order(results []model.TournamentResult) []model.TournamentResult {
	out := slices.Clone(results)
	slices.SortStableFunc(out, func(a, b model.TournamentResult) int {
		return Priority(a.CupPosition) - Priority(b.CupPosition)
	})
	return out
}

// Row is one rendered bracket line.
type Row struct {
	Label  string
	Result model.TournamentResult
}

// View filters results to one tournament and cup and returns them ordered and labeled.
func View(tournamentID string, cup model.Cup, results []model.TournamentResult) []Row {
	var filtered []model.TournamentResult
	for _, r := range results {
		if r.TournamentID == tournamentID && r.Cup == cup {
			filtered = append(filtered, r)
		}
	}
	ordered := Order(filtered)
	rows := make([]Row, len(ordered))
	for i, r := range ordered {
		rows[i] = Row{Label: Label(r.Cup, r.CupPosition), Result: r}
	}
	return rows
}
