// Package standings is the boundary between stored data and the rating engine.
// It loads the configuration and the result feed, computes the views and
// caches them until either input changes.
package standings

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/pable/go-cup-rating/internal/aggregator"
	"github.com/pable/go-cup-rating/internal/bracket"
	"github.com/pable/go-cup-rating/internal/logger"
	"github.com/pable/go-cup-rating/internal/model"
	"github.com/pable/go-cup-rating/internal/ratingcache"
	"github.com/pable/go-cup-rating/internal/storage"
)

var (
	ErrPlayerNotFound     = errors.New("player not found")
	ErrTournamentNotFound = errors.New("tournament not found")
)

// Store is the subset of storage the service reads.
type Store interface {
	Versions(ctx context.Context) (storage.Versions, error)
	RatingConfig(ctx context.Context, fallbackBest int) (model.RatingConfig, error)
	PlayerEntries(ctx context.Context, licensedOnly bool) ([]model.PlayerEntry, error)
	GetTournament(ctx context.Context, id string) (*model.Tournament, error)
	TournamentResults(ctx context.Context, tournamentID string) ([]model.TournamentResult, error)
	FindPlayerKey(ctx context.Context, ref string) (string, error)
}

// Options adjusts one rating computation.
type Options struct {
	// BestOverride replaces the stored best-results count when set. It is
	// validated like a stored count.
	BestOverride *int
	// LicensedOnly leaves out players without a licensed registry entry.
	LicensedOnly bool
}

func (o Options) view() string {
	best := "stored"
	if o.BestOverride != nil {
		best = strconv.Itoa(*o.BestOverride)
	}
	return fmt.Sprintf("best=%s,licensed=%t", best, o.LicensedOnly)
}

// Service computes rating and bracket views over a Store.
type Service struct {
	store       Store
	defaultBest int
	cache       *ratingcache.Cache
}

// New returns a service. defaultBest applies while no best count is stored.
func New(store Store, defaultBest int) *Service {
	return &Service{store: store, defaultBest: defaultBest, cache: ratingcache.New()}
}

// Invalidate drops every cached view.
func (s *Service) Invalidate() { s.cache.Invalidate() }

// Ratings returns the overall ranked table. The computation waits for both
// the configuration and the player entries before running.
func (s *Service) Ratings(ctx context.Context, opts Options) (*aggregator.Result, error) {
	if opts.BestOverride != nil {
		if err := aggregator.ValidateBestCount(*opts.BestOverride); err != nil {
			return nil, err
		}
	}
	versions, err := s.store.Versions(ctx)
	if err != nil {
		return nil, fmt.Errorf("read versions: %w", err)
	}
	key := ratingcache.Key{
		ResultsVersion: versions.Results,
		ConfigVersion:  versions.Config,
		View:           opts.view(),
	}
	v, hit, err := s.cache.Get(key, func() (any, error) {
		return s.compute(ctx, opts)
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("ratings", "cache_hit", hit, "results_version", key.ResultsVersion, "config_version", key.ConfigVersion, "view", key.View)
	return v.(*aggregator.Result), nil
}

func (s *Service) compute(ctx context.Context, opts Options) (*aggregator.Result, error) {
	var (
		cfg     model.RatingConfig
		entries []model.PlayerEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if cfg, err = s.store.RatingConfig(gctx, s.defaultBest); err != nil {
			return fmt.Errorf("load rating config: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if entries, err = s.store.PlayerEntries(gctx, opts.LicensedOnly); err != nil {
			return fmt.Errorf("load player entries: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if opts.BestOverride != nil {
		cfg.BestResultsCount = *opts.BestOverride
	}
	res, err := aggregator.Aggregate(entries, cfg)
	if err != nil {
		return nil, err
	}
	for _, rej := range res.Rejected {
		logger.Warn("player excluded from rating", "player", rej.PlayerKey, "tournament", rej.TournamentID, "error", rej.Err)
	}
	logger.Info("ratings computed", "players", len(res.Ratings), "rejected", len(res.Rejected), "best", cfg.BestResultsCount)
	return res, nil
}

// Views returns the gender partitions of the overall table.
func (s *Service) Views(ctx context.Context, opts Options) (*aggregator.GenderViews, error) {
	res, err := s.Ratings(ctx, opts)
	if err != nil {
		return nil, err
	}
	return aggregator.Partition(res.Ratings), nil
}

// Bracket returns the ordered, labeled cup view of one tournament.
func (s *Service) Bracket(ctx context.Context, tournamentID string, cup model.Cup) (*model.Tournament, []bracket.Row, error) {
	t, err := s.store.GetTournament(ctx, tournamentID)
	if err != nil {
		return nil, nil, err
	}
	if t == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrTournamentNotFound, tournamentID)
	}
	results, err := s.store.TournamentResults(ctx, tournamentID)
	if err != nil {
		return nil, nil, err
	}
	return t, bracket.View(tournamentID, cup, results), nil
}

// PlayerDetail is one player's rating row together with their gender-view
// rank and informational win statistics.
type PlayerDetail struct {
	Rating     model.PlayerRating
	GenderRank int
	Stats      model.WinStats
}

// Player looks up a player by numeric ID or licensed name.
func (s *Service) Player(ctx context.Context, ref string, opts Options) (*PlayerDetail, error) {
	key, err := s.store.FindPlayerKey(ctx, ref)
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, ref)
	}
	res, err := s.Ratings(ctx, opts)
	if err != nil {
		return nil, err
	}
	r := aggregator.Find(res.Ratings, key)
	if r == nil {
		for _, rej := range res.Rejected {
			if rej.PlayerKey == key {
				return nil, rej
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, ref)
	}

	stats, err := aggregator.WinRate(r.AllResults)
	if err != nil {
		return nil, err
	}
	detail := &PlayerDetail{Rating: *r, Stats: stats}
	view := aggregator.Partition(res.Ratings).View(r.Gender)
	if g := aggregator.Find(view, key); g != nil {
		detail.GenderRank = g.Rank
	}
	return detail, nil
}
