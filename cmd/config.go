package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pable/go-cup-rating/internal/aggregator"
	"github.com/pable/go-cup-rating/internal/logger"
	"github.com/pable/go-cup-rating/internal/report"
)

// configCmd administers the stored rating configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or edit the rating configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the best-results count and position points table",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetBestCmd = &cobra.Command{
	Use:   "set-best <n>",
	Short: "Set how many best results count toward a player's total",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigSetBest,
}

var configSetPointsCmd = &cobra.Command{
	Use:   "set-points <position> <points> [<position> <points>...]",
	Short: "Set points awarded for finishing positions",
	Long: `Set points for one or more finishing positions. Stored results keep the
points they were loaded with; reload feeds to apply a new table.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 || len(args)%2 != 0 {
			return fmt.Errorf("expected position/points pairs, got %d args", len(args))
		}
		return nil
	},
	RunE: runConfigSetPoints,
}

var configUnsetPointsCmd = &cobra.Command{
	Use:   "unset-points <position> [<position>...]",
	Short: "Remove finishing positions from the points table",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runConfigUnsetPoints,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetBestCmd)
	configCmd.AddCommand(configSetPointsCmd)
	configCmd.AddCommand(configUnsetPointsCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	db, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer db.Close()

	rc, err := db.RatingConfig(cmd.Context(), appCfg.Defaults.BestResultsCount)
	if err != nil {
		return err
	}
	report.PrintConfig(os.Stdout, rc)
	fmt.Fprintf(os.Stdout, "\nMissing position policy: %s  |  Cup B offset: %d\n",
		appCfg.MissingPositionPolicy, appCfg.Schedule.CupBOffset)
	return nil
}

func runConfigSetBest(cmd *cobra.Command, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid count %q: %w", args[0], err)
	}
	if err := aggregator.ValidateBestCount(n); err != nil {
		return err
	}

	db, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.SetBestResultsCount(cmd.Context(), n); err != nil {
		return fmt.Errorf("store best count: %w", err)
	}
	logger.Info("best results count updated", "n", n)
	fmt.Fprintf(os.Stdout, "Best results counted: %d\n", n)
	return nil
}

func runConfigSetPoints(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	rc, err := db.RatingConfig(ctx, appCfg.Defaults.BestResultsCount)
	if err != nil {
		return err
	}
	entries := make(map[int]int, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		pos, err := strconv.Atoi(args[i])
		if err != nil {
			return fmt.Errorf("invalid position %q: %w", args[i], err)
		}
		pts, err := strconv.Atoi(args[i+1])
		if err != nil {
			return fmt.Errorf("invalid points %q: %w", args[i+1], err)
		}
		entries[pos] = pts
		rc.PositionPoints[pos] = pts
	}
	// Validate the table as it will be after the edit.
	if err := aggregator.ValidateConfig(rc); err != nil {
		return err
	}

	if err := db.SetPositionPoints(ctx, entries); err != nil {
		return fmt.Errorf("store position points: %w", err)
	}
	logger.Info("position points updated", "entries", len(entries))
	report.PrintConfig(os.Stdout, rc)
	return nil
}

func runConfigUnsetPoints(cmd *cobra.Command, args []string) error {
	positions := make([]int, 0, len(args))
	for _, a := range args {
		pos, err := strconv.Atoi(a)
		if err != nil {
			return fmt.Errorf("invalid position %q: %w", a, err)
		}
		positions = append(positions, pos)
	}

	db, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.DeletePositionPoints(cmd.Context(), positions...); err != nil {
		return fmt.Errorf("delete position points: %w", err)
	}
	logger.Info("position points removed", "positions", positions)
	fmt.Fprintf(os.Stdout, "Removed %d position(s).\n", len(positions))
	return nil
}
