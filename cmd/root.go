package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pable/go-cup-rating/internal/config"
	"github.com/pable/go-cup-rating/internal/logger"
	"github.com/pable/go-cup-rating/internal/standings"
	"github.com/pable/go-cup-rating/internal/storage"
)

var (
	dbPath     string
	configPath string
	logLevel   string

	appCfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "cuprating",
	Short: "Tournament series rating tool",
	Long:  "Load tournament result feeds and compute the best-N rating table, gender views and cup brackets.",

	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) { logger.Sync() },
}

// Execute runs the root command. Ctrl-C cancels in-flight storage work.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	defaultConfig := filepath.Join(mustUserHome(), ".cuprating", "config.yaml")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to SQLite database (default ~/.cuprating/rating.db)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfig, "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error or production")

	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(ratingCmd)
	rootCmd.AddCommand(bracketCmd)
	rootCmd.AddCommand(playerCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(shellCmd)
}

// setup loads configuration and the logger. Explicit flags win over the file and env.
func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	dbPath = cfg.DBPath
	appCfg = cfg

	if err := logger.Init(cfg.LogLevel); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.Debug("config loaded", "config", configPath, "db", cfg.DBPath, "missing_policy", cfg.MissingPositionPolicy)
	return nil
}

// openStore opens the database, creating its directory, and seeds the
// position points table from the configured defaults when it is empty.
func openStore(ctx context.Context) (*storage.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	seeded, err := db.SeedPositionPoints(ctx, appCfg.Defaults.PositionPoints)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("seed position points: %w", err)
	}
	if seeded {
		logger.Info("seeded position points", "positions", len(appCfg.Defaults.PositionPoints))
	}
	return db, nil
}

func newService(db *storage.DB) *standings.Service {
	return standings.New(db, appCfg.Defaults.BestResultsCount)
}

// bestOverride returns the --best value only when the flag was given, so an
// explicit 0 is validated instead of read as "use the stored count".
func bestOverride(cmd *cobra.Command, n int) *int {
	if !cmd.Flags().Changed("best") {
		return nil
	}
	return &n
}

func mustUserHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
