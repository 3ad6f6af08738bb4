package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-cup-rating/internal/report"
	"github.com/pable/go-cup-rating/internal/standings"
)

var playerBest int

// playerCmd shows one player's results, counted flags, ranks and win rate.
var playerCmd = &cobra.Command{
	Use:   "player <player-id|licensed-name>",
	Short: "Show one player's results and rating",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPlayer,
}

func init() {
	playerCmd.Flags().IntVar(&playerBest, "best", 0, "override the stored best-results count")
}

func runPlayer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	// Licensed names may contain spaces.
	ref := strings.Join(args, " ")
	d, err := newService(db).Player(ctx, ref, standings.Options{BestOverride: bestOverride(cmd, playerBest)})
	if err != nil {
		return err
	}
	report.PrintPlayerDetail(os.Stdout, d.Rating, d.GenderRank, d.Stats)
	return nil
}
