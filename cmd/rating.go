package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-cup-rating/internal/model"
	"github.com/pable/go-cup-rating/internal/report"
	"github.com/pable/go-cup-rating/internal/standings"
)

var (
	ratingGender   string
	ratingBest     int
	ratingLicensed bool
	ratingFocus    string
)

var ratingCmd = &cobra.Command{
	Use:   "rating",
	Short: "Show the rating table",
	Long: `Compute the rating table from all stored results. Each player's total is the
sum of their best N results; counted results are marked with "*".`,
	Args: cobra.NoArgs,
	RunE: runRating,
}

func init() {
	ratingCmd.Flags().StringVar(&ratingGender, "gender", "all", "view: all, male, female or unknown")
	ratingCmd.Flags().IntVar(&ratingBest, "best", 0, "override the stored best-results count")
	ratingCmd.Flags().BoolVar(&ratingLicensed, "licensed", false, "only include licensed players")
	ratingCmd.Flags().StringVar(&ratingFocus, "player", "", "highlight a player (ID or licensed name)")
}

func runRating(cmd *cobra.Command, args []string) error {
	g, err := viewGender(ratingGender)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := newService(db)
	opts := standings.Options{BestOverride: bestOverride(cmd, ratingBest), LicensedOnly: ratingLicensed}
	res, err := svc.Ratings(ctx, opts)
	if err != nil {
		return err
	}

	focus := ""
	if ratingFocus != "" {
		if focus, err = db.FindPlayerKey(ctx, ratingFocus); err != nil {
			return err
		}
	}

	ratings := res.Ratings
	title := "Rating"
	if g != "" {
		views, err := svc.Views(ctx, opts)
		if err != nil {
			return err
		}
		ratings = views.View(g)
		title = "Rating (" + string(g) + ")"
	}

	report.PrintRatingTable(os.Stdout, title, ratings, focus)
	report.PrintRejected(os.Stderr, res.Rejected)
	return nil
}

// viewGender maps a view name to its gender. "all" (or empty) returns "" for
// the overall table.
func viewGender(name string) (model.Gender, error) {
	switch g := strings.ToLower(strings.TrimSpace(name)); g {
	case "", "all":
		return "", nil
	case string(model.GenderMale), string(model.GenderFemale), string(model.GenderUnknown):
		return model.Gender(g), nil
	}
	return "", fmt.Errorf("unknown gender view %q (want all, male, female or unknown)", name)
}
