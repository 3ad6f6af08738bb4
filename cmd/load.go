package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-cup-rating/internal/logger"
	"github.com/pable/go-cup-rating/internal/model"
	"github.com/pable/go-cup-rating/internal/parser"
	"github.com/pable/go-cup-rating/internal/report"
)

var loadDryRun bool

var loadCmd = &cobra.Command{
	Use:   "load <feed.json> [<feed.json>...]",
	Short: "Load tournament result feeds and store them",
	Long: `Resolve points for every team in the given feeds using the stored position
points table and store the tournaments. Loading a tournament ID that is already
stored replaces it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().BoolVar(&loadDryRun, "dry-run", false, "resolve points and print the result without storing")
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	rc, err := db.RatingConfig(ctx, appCfg.Defaults.BestResultsCount)
	if err != nil {
		return fmt.Errorf("read rating config: %w", err)
	}
	res, err := appCfg.Resolver(rc.PositionPoints)
	if err != nil {
		return err
	}

	var loaded []model.Tournament
	for _, path := range args {
		fmt.Fprintf(os.Stdout, "Loading %s...\n", path)
		feed, err := parser.LoadFeed(path)
		if err != nil {
			return err
		}
		recs, err := feed.Records(res)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		for _, rec := range recs {
			if !loadDryRun {
				exists, err := db.TournamentExists(ctx, rec.Tournament.ID)
				if err != nil {
					return fmt.Errorf("check tournament: %w", err)
				}
				if err := db.ReplaceTournament(ctx, rec); err != nil {
					return fmt.Errorf("store tournament: %w", err)
				}
				logger.Info("tournament stored", "id", rec.Tournament.ID, "teams", len(rec.Teams), "replaced", exists)
			}
			loaded = append(loaded, rec.Tournament)
		}
	}

	if loadDryRun {
		fmt.Fprintln(os.Stdout, "Dry run, nothing stored.")
	}
	report.PrintTournaments(os.Stdout, loaded)
	return nil
}
