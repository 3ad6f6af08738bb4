package aggregator

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidBestCount = errors.New("best results count out of range")
	ErrInvalidPosition  = errors.New("finishing position must be positive")
	ErrNegativePoints   = errors.New("negative points")
	ErrNegativeTally    = errors.New("negative wins or losses")
	ErrDuplicatePlayer  = errors.New("duplicate player")
)

// ConfigError is fatal to every computation depending on the configuration.
type ConfigError struct {
	Field string
	Value int
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s=%d: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// DataError is a data-integrity fault confined to a single player.
type DataError struct {
	PlayerKey    string
	TournamentID string
	Err          error
}

func (e *DataError) Error() string {
	switch {
	case e.TournamentID == "":
		return fmt.Sprintf("player %s: %v", e.PlayerKey, e.Err)
	case e.PlayerKey == "":
		return fmt.Sprintf("tournament %s: %v", e.TournamentID, e.Err)
	}
	return fmt.Sprintf("player %s, tournament %s: %v", e.PlayerKey, e.TournamentID, e.Err)
}

func (e *DataError) Unwrap() error { return e.Err }
