package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-cup-rating/internal/logger"
	"github.com/pable/go-cup-rating/internal/report"
	"github.com/pable/go-cup-rating/internal/standings"
)

var (
	exportFormat   string
	exportOut      string
	exportBest     int
	exportLicensed bool
)

// exportCmd writes the rating table and its gender views to a file.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the rating table as JSON or XLSX",
	Long: `Export the overall rating table and the male, female and unknown views.
JSON is written to stdout unless --out is given; XLSX requires --out.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "output format: json or xlsx")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file path")
	exportCmd.Flags().IntVar(&exportBest, "best", 0, "override the stored best-results count")
	exportCmd.Flags().BoolVar(&exportLicensed, "licensed", false, "only include licensed players")
}

func runExport(cmd *cobra.Command, args []string) error {
	format := strings.ToLower(exportFormat)
	if format != "json" && format != "xlsx" {
		return fmt.Errorf("unknown format %q (want json or xlsx)", exportFormat)
	}
	if format == "xlsx" && exportOut == "" {
		return fmt.Errorf("--out is required for xlsx")
	}

	ctx := cmd.Context()
	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := newService(db).Ratings(ctx, standings.Options{BestOverride: bestOverride(cmd, exportBest), LicensedOnly: exportLicensed})
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	if format == "xlsx" {
		err = report.WriteRatingXLSX(w, res.Ratings)
	} else {
		err = report.WriteRatingJSON(w, res.Ratings)
	}
	if err != nil {
		return err
	}
	if exportOut != "" {
		logger.Info("ratings exported", "format", format, "path", exportOut, "players", len(res.Ratings))
		fmt.Fprintf(os.Stderr, "Wrote %d players to %s\n", len(res.Ratings), exportOut)
	}
	report.PrintRejected(os.Stderr, res.Rejected)
	return nil
}
