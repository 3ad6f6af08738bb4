package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/pable/go-cup-rating/internal/aggregator"
	"github.com/pable/go-cup-rating/internal/model"
)

type exportResult struct {
	TournamentID string `json:"tournament_id"`
	Tournament   string `json:"tournament"`
	Date         string `json:"date"`
	TeamID       string `json:"team_id"`
	Points       int    `json:"points"`
	Reason       string `json:"reason"`
	Cup          string `json:"cup,omitempty"`
	CupPosition  string `json:"cup_position,omitempty"`
	Manual       bool   `json:"manual,omitempty"`
	Counted      bool   `json:"counted"`
}

type exportRating struct {
	Rank        int            `json:"rank"`
	PlayerID    *int64         `json:"player_id"`
	Name        string         `json:"name"`
	Gender      string         `json:"gender"`
	TotalPoints int            `json:"total_points"`
	Results     []exportResult `json:"results"`
}

type exportDoc struct {
	All     []exportRating `json:"all"`
	Male    []exportRating `json:"male"`
	Female  []exportRating `json:"female"`
	Unknown []exportRating `json:"unknown"`
}

func toExport(ratings []model.PlayerRating) []exportRating {
	out := make([]exportRating, 0, len(ratings))
	for _, r := range ratings {
		er := exportRating{
			Rank:        r.Rank,
			PlayerID:    r.PlayerID,
			Name:        r.DisplayName,
			Gender:      string(r.Gender),
			TotalPoints: r.TotalPoints,
			Results:     make([]exportResult, 0, len(r.AllResults)),
		}
		for _, res := range r.AllResults {
			er.Results = append(er.Results, exportResult{
				TournamentID: res.TournamentID,
				Tournament:   res.TournamentName,
				Date:         res.TournamentDate.Format(dateLayout),
				TeamID:       res.TeamID,
				Points:       res.Points,
				Reason:       res.Reason.String(),
				Cup:          res.Cup.String(),
				CupPosition:  res.CupPosition,
				Manual:       res.TournamentManual,
				Counted:      res.IsCounted,
			})
		}
		out = append(out, er)
	}
	return out
}

// WriteRatingJSON writes the overall table and each gender view as indented JSON.
func WriteRatingJSON(w io.Writer, ratings []model.PlayerRating) error {
	views := aggregator.Partition(ratings)
	doc := exportDoc{
		All:     toExport(ratings),
		Male:    toExport(views.Male),
		Female:  toExport(views.Female),
		Unknown: toExport(views.Unknown),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode ratings: %w", err)
	}
	return nil
}

var xlsxHeader = []any{"Rank", "Player ID", "Player", "Gender", "Total", "Counted", "Results"}

// WriteRatingXLSX writes a workbook with one sheet for the overall table and
// one per gender view.
func WriteRatingXLSX(w io.Writer, ratings []model.PlayerRating) error {
	f := excelize.NewFile()
	defer f.Close()

	views := aggregator.Partition(ratings)
	sheets := []struct {
		name    string
		ratings []model.PlayerRating
	}{
		{"All", ratings},
		{"Male", views.Male},
		{"Female", views.Female},
		{"Unknown", views.Unknown},
	}

	first := f.GetSheetName(f.GetActiveSheetIndex())
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(first, s.name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("create sheet %s: %w", s.name, err)
		}
		if err := writeSheet(f, s.name, s.ratings); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, ratings []model.PlayerRating) error {
	if err := f.SetSheetRow(sheet, "A1", &xlsxHeader); err != nil {
		return fmt.Errorf("sheet %s header: %w", sheet, err)
	}
	for i, r := range ratings {
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		var id any = ""
		if r.PlayerID != nil {
			id = *r.PlayerID
		}
		row := []any{
			r.Rank, id, r.DisplayName, string(r.Gender), r.TotalPoints,
			len(r.BestResults), resultTrail(r.AllResults),
		}
		if err := f.SetSheetRow(sheet, axis, &row); err != nil {
			return fmt.Errorf("sheet %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}
