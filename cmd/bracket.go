package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-cup-rating/internal/model"
	"github.com/pable/go-cup-rating/internal/report"
)

var bracketCup string

var bracketCmd = &cobra.Command{
	Use:   "bracket <tournament-id>",
	Short: "Show a tournament's cup bracket in finishing order",
	Args:  cobra.ExactArgs(1),
	RunE:  runBracket,
}

func init() {
	bracketCmd.Flags().StringVar(&bracketCup, "cup", "A", "cup to show: A or B")
}

func runBracket(cmd *cobra.Command, args []string) error {
	cup, err := model.ParseCup(bracketCup)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	t, rows, err := newService(db).Bracket(ctx, args[0], cup)
	if err != nil {
		return err
	}
	report.PrintBracket(os.Stdout, *t, cup, rows)
	return nil
}
