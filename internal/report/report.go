package report

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-cup-rating/internal/aggregator"
	"github.com/pable/go-cup-rating/internal/bracket"
	"github.com/pable/go-cup-rating/internal/model"
)

const dateLayout = "2006-01-02"

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// PrintRatingTable prints ranked ratings. Each player's results are listed
// newest first; counted results carry a "*".
// If focusKey is non-empty, that player's row is marked with ">".
func PrintRatingTable(w io.Writer, title string, ratings []model.PlayerRating, focusKey string) {
	if title != "" {
		fmt.Fprintf(w, "\n%s  |  Players: %d\n\n", title, len(ratings))
	}
	if len(ratings) == 0 {
		fmt.Fprintln(w, "No rated players.")
		return
	}

	table := newTable(w)
	table.Header(" ", "RANK", "PLAYER", "GENDER", "TOTAL", "COUNTED", "RESULTS")
	for _, r := range ratings {
		marker := " "
		if focusKey != "" && r.Key == focusKey {
			marker = ">"
		}
		table.Append(
			marker,
			strconv.Itoa(r.Rank),
			r.DisplayName,
			string(r.Gender),
			strconv.Itoa(r.TotalPoints),
			fmt.Sprintf("%d/%d", len(r.BestResults), len(r.AllResults)),
			resultTrail(r.AllResults),
		)
	}
	table.Render()
}

// resultTrail renders points newest first, e.g. "100* 90* 20".
func resultTrail(results []model.TournamentResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		s := strconv.Itoa(r.Points)
		if r.IsCounted {
			s += "*"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

// PrintRejected lists players left out of the table for data faults.
func PrintRejected(w io.Writer, rejected []*aggregator.DataError) {
	if len(rejected) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%d player(s) excluded:\n", len(rejected))
	for _, e := range rejected {
		fmt.Fprintf(w, "  - %v\n", e)
	}
}

// PrintBracket prints the ordered cup view of one tournament.
func PrintBracket(w io.Writer, t model.Tournament, cup model.Cup, rows []bracket.Row) {
	fmt.Fprintf(w, "\n%s  |  Date: %s  |  Cup %s  |  ID: %s\n\n",
		t.Name, t.Date.Format(dateLayout), cup, t.ID)
	if len(rows) == 0 {
		fmt.Fprintln(w, "No teams in this cup.")
		return
	}

	table := newTable(w)
	table.Header("PLACE", "TEAM", "POINTS", "W", "L")
	for _, row := range rows {
		r := row.Result
		table.Append(
			row.Label,
			r.TeamPlayers,
			strconv.Itoa(r.Points),
			optInt(r.Wins),
			optInt(r.Losses),
		)
	}
	table.Render()
}

// PrintPlayerDetail prints one player's full result history with counted
// flags, their ranks and the informational win rate.
func PrintPlayerDetail(w io.Writer, r model.PlayerRating, genderRank int, stats model.WinStats) {
	id := "-"
	if r.PlayerID != nil {
		id = strconv.FormatInt(*r.PlayerID, 10)
	}
	fmt.Fprintf(w, "\n%s  |  ID: %s  |  Gender: %s  |  Total: %d  |  Rank: %d (%s #%d)\n",
		r.DisplayName, id, r.Gender, r.TotalPoints, r.Rank, r.Gender, genderRank)
	fmt.Fprintf(w, "Win rate: %.1f%% (%dW / %dL, manual tournaments excluded)\n\n",
		stats.WinRate, stats.Wins, stats.Losses)
	if len(r.AllResults) == 0 {
		fmt.Fprintln(w, "No results.")
		return
	}

	table := newTable(w)
	table.Header("DATE", "TOURNAMENT", "RESULT", "REASON", "POINTS", "COUNTED", "W", "L")
	for _, res := range r.AllResults {
		counted := ""
		if res.IsCounted {
			counted = "*"
		}
		name := res.TournamentName
		if res.TournamentManual {
			name += " (manual)"
		}
		table.Append(
			res.TournamentDate.Format(dateLayout),
			name,
			bracket.Label(res.Cup, res.CupPosition),
			res.Reason.String(),
			strconv.Itoa(res.Points),
			counted,
			optInt(res.Wins),
			optInt(res.Losses),
		)
	}
	table.Render()
}

// PrintTournaments prints a list of stored tournaments.
func PrintTournaments(w io.Writer, ts []model.Tournament) {
	if len(ts) == 0 {
		fmt.Fprintln(w, "No tournaments stored yet.")
		return
	}
	table := newTable(w)
	table.Header("ID", "DATE", "NAME", "TEAMS", "MANUAL")
	for _, t := range ts {
		manual := ""
		if t.Manual {
			manual = "yes"
		}
		table.Append(t.ID, t.Date.Format(dateLayout), t.Name, strconv.Itoa(t.Results), manual)
	}
	table.Render()
}

// PrintConfig prints the rating configuration in position order.
func PrintConfig(w io.Writer, cfg model.RatingConfig) {
	fmt.Fprintf(w, "\nBest results counted: %d\n\n", cfg.BestResultsCount)
	if len(cfg.PositionPoints) == 0 {
		fmt.Fprintln(w, "Position points table is empty.")
		return
	}
	positions := make([]int, 0, len(cfg.PositionPoints))
	for pos := range cfg.PositionPoints {
		positions = append(positions, pos)
	}
	slices.Sort(positions)

	table := newTable(w)
	table.Header("POSITION", "POINTS")
	for _, pos := range positions {
		table.Append(strconv.Itoa(pos), strconv.Itoa(cfg.PositionPoints[pos]))
	}
	table.Render()
}

// PrintRows prints an arbitrary query result.
func PrintRows(w io.Writer, cols []string, rows [][]string) {
	table := newTable(w)
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	table.Header(header...)
	for _, row := range rows {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = v
		}
		table.Append(cells...)
	}
	table.Render()
}

func optInt(p *int) string {
	if p == nil {
		return "—"
	}
	return strconv.Itoa(*p)
}
