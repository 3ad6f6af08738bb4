package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-cup-rating/internal/report"
	"github.com/pable/go-cup-rating/internal/storage"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw read-only SQL query against the rating database",
	Long: `Run an arbitrary read query against the rating database and print results as a table.

Schema overview:
  players(id, name, gender)
  licensed_players(name, player_id, gender)
  tournaments(id, name, date, manual)
  results(tournament_id, team_id, team_players, points, points_reason,
    cup, cup_position, qualifying_wins, wins, losses)
  team_members(tournament_id, team_id, player_id, licensed_name)
  settings(key, value)
  position_points(position, points)

Only SELECT, WITH and PRAGMA statements are accepted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(cmd.Context(), query)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return nil
	}
	report.PrintRows(os.Stdout, cols, rows)
	fmt.Fprintf(os.Stdout, "\n(%d rows)\n", len(rows))
	return nil
}
