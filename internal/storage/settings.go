package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/pable/go-cup-rating/internal/model"
)

const (
	keyBestResultsCount = "best_results_count"
	keyResultsVersion   = "results_version"
	keyConfigVersion    = "config_version"
)

// Versions identifies the state of the result feed and the rating configuration.
// Any write to either bumps the corresponding counter.
type Versions struct {
	Results int64
	Config  int64
}

func bumpVersion(ctx context.Context, tx *sql.Tx, key string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO settings(key, value) VALUES (?, '1')
		ON CONFLICT(key) DO UPDATE SET value = CAST(settings.value AS INTEGER) + 1`, key)
	if err != nil {
		return fmt.Errorf("bump %s: %w", key, err)
	}
	return nil
}

func getSetting(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}, key string) (string, bool, error) {
	var v string
	err := q.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Versions returns the current results and config versions (0 when never written).
func (db *DB) Versions(ctx context.Context) (Versions, error) {
	var v Versions
	for key, dst := range map[string]*int64{keyResultsVersion: &v.Results, keyConfigVersion: &v.Config} {
		s, ok, err := getSetting(ctx, db.conn, key)
		if err != nil {
			return v, err
		}
		if !ok {
			continue
		}
		if *dst, err = strconv.ParseInt(s, 10, 64); err != nil {
			return v, fmt.Errorf("setting %s: %w", key, err)
		}
	}
	return v, nil
}

// RatingConfig returns the stored configuration snapshot. When no best count
// has been set, fallbackBest is used. The position table may be empty.
func (db *DB) RatingConfig(ctx context.Context, fallbackBest int) (model.RatingConfig, error) {
	cfg := model.RatingConfig{BestResultsCount: fallbackBest, PositionPoints: map[int]int{}}

	s, ok, err := getSetting(ctx, db.conn, keyBestResultsCount)
	if err != nil {
		return cfg, err
	}
	if ok {
		if cfg.BestResultsCount, err = strconv.Atoi(s); err != nil {
			return cfg, fmt.Errorf("setting %s: %w", keyBestResultsCount, err)
		}
	}

	rows, err := db.conn.QueryContext(ctx, "SELECT position, points FROM position_points ORDER BY position")
	if err != nil {
		return cfg, err
	}
	defer rows.Close()
	for rows.Next() {
		var pos, pts int
		if err := rows.Scan(&pos, &pts); err != nil {
			return cfg, err
		}
		cfg.PositionPoints[pos] = pts
	}
	return cfg, rows.Err()
}

// SetBestResultsCount stores n; the caller validates the range.
func (db *DB) SetBestResultsCount(ctx context.Context, n int) error {
	return db.configTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO settings(key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			keyBestResultsCount, strconv.Itoa(n))
		return err
	})
}

// SetPositionPoints upserts the given entries.
func (db *DB) SetPositionPoints(ctx context.Context, entries map[int]int) error {
	return db.configTx(ctx, func(tx *sql.Tx) error {
		for pos, pts := range entries {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO position_points(position, points) VALUES (?, ?)
				ON CONFLICT(position) DO UPDATE SET points = excluded.points`, pos, pts); err != nil {
				return fmt.Errorf("set position %d: %w", pos, err)
			}
		}
		return nil
	})
}

// DeletePositionPoints removes positions from the table.
func (db *DB) DeletePositionPoints(ctx context.Context, positions ...int) error {
	return db.configTx(ctx, func(tx *sql.Tx) error {
		for _, pos := range positions {
			if _, err := tx.ExecContext(ctx, "DELETE FROM position_points WHERE position = ?", pos); err != nil {
				return fmt.Errorf("delete position %d: %w", pos, err)
			}
		}
		return nil
	})
}

// SeedPositionPoints fills the table from seed only when it is empty.
// It reports whether anything was written.
func (db *DB) SeedPositionPoints(ctx context.Context, seed map[int]int) (bool, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(1) FROM position_points").Scan(&count); err != nil {
		return false, err
	}
	if count > 0 || len(seed) == 0 {
		return false, nil
	}
	return true, db.SetPositionPoints(ctx, seed)
}

// configTx runs fn and bumps the config version in one transaction.
func (db *DB) configTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	if err := bumpVersion(ctx, tx, keyConfigVersion); err != nil {
		return err
	}
	return tx.Commit()
}
