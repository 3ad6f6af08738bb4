package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-cup-rating/internal/report"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored tournaments",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer db.Close()

	ts, err := db.ListTournaments(cmd.Context())
	if err != nil {
		return fmt.Errorf("list tournaments: %w", err)
	}
	if len(ts) == 0 {
		fmt.Fprintln(os.Stdout, "No tournaments stored yet. Run 'cuprating load <feed.json>' to add one.")
		return nil
	}
	report.PrintTournaments(os.Stdout, ts)
	return nil
}
