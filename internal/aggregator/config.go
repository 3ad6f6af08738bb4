package aggregator

import (
	"slices"

	"github.com/pable/go-cup-rating/internal/model"
)

const (
	MinBestResults = 1
	MaxBestResults = 50
)

// ValidateBestCount checks n against the admin-allowed range.
func ValidateBestCount(n int) error {
	if n < MinBestResults || n > MaxBestResults {
		return &ConfigError{Field: "bestResultsCount", Value: n, Err: ErrInvalidBestCount}
	}
	return nil
}

// ValidateConfig rejects a configuration snapshot that would produce a misleading rating.
// Positions are checked in ascending order so the reported error is stable.
func ValidateConfig(cfg model.RatingConfig) error {
	if err := ValidateBestCount(cfg.BestResultsCount); err != nil {
		return err
	}
	positions := make([]int, 0, len(cfg.PositionPoints))
	for pos := range cfg.PositionPoints {
		positions = append(positions, pos)
	}
	slices.Sort(positions)
	for _, pos := range positions {
		if pos <= 0 {
			return &ConfigError{Field: "position", Value: pos, Err: ErrInvalidPosition}
		}
		if pts := cfg.PositionPoints[pos]; pts < 0 {
			return &ConfigError{Field: "positionPoints", Value: pts, Err: ErrNegativePoints}
		}
	}
	return nil
}
