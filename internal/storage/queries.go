package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pable/go-cup-rating/internal/model"
)

const dateLayout = "2006-01-02"

// TournamentExists returns true if a tournament with the given ID is already stored.
func (db *DB) TournamentExists(ctx context.Context, id string) (bool, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(1) FROM tournaments WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ReplaceTournament stores rec, replacing any previous upload of the same tournament,
// and bumps the results version in the same transaction.
func (db *DB) ReplaceTournament(ctx context.Context, rec model.TournamentRecord) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	t := rec.Tournament
	if _, err := tx.ExecContext(ctx, "DELETE FROM tournaments WHERE id = ?", t.ID); err != nil {
		return fmt.Errorf("delete tournament %s: %w", t.ID, err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO tournaments(id, name, date, manual) VALUES (?, ?, ?, ?)",
		t.ID, t.Name, t.Date.Format(dateLayout), boolInt(t.Manual),
	); err != nil {
		return fmt.Errorf("insert tournament %s: %w", t.ID, err)
	}

	resStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO results(
			tournament_id, team_id, team_players, points, points_reason,
			cup, cup_position, qualifying_wins, wins, losses
		) VALUES (?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer resStmt.Close()

	memStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO team_members(tournament_id, team_id, player_id, licensed_name) VALUES (?,?,?,?)")
	if err != nil {
		return err
	}
	defer memStmt.Close()

	for _, team := range rec.Teams {
		r := team.Result
		if _, err := resStmt.ExecContext(ctx,
			t.ID, r.TeamID, r.TeamPlayers, r.Points, r.Reason.String(),
			r.Cup.String(), r.CupPosition,
			nullInt(r.QualifyingWins), nullInt(r.Wins), nullInt(r.Losses),
		); err != nil {
			return fmt.Errorf("insert result %s/%s: %w", t.ID, r.TeamID, err)
		}
		for _, m := range team.Members {
			if err := upsertMember(ctx, tx, m); err != nil {
				return err
			}
			var licensed any
			if m.LicensedName != "" {
				licensed = m.LicensedName
			}
			if _, err := memStmt.ExecContext(ctx, t.ID, r.TeamID, nullInt64(m.PlayerID), licensed); err != nil {
				return fmt.Errorf("insert member of %s/%s: %w", t.ID, r.TeamID, err)
			}
		}
	}

	if err := bumpVersion(ctx, tx, keyResultsVersion); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertMember(ctx context.Context, tx *sql.Tx, m model.Member) error {
	gender := string(m.Gender)
	if gender == "" {
		gender = string(model.GenderUnknown)
	}
	if m.PlayerID != nil {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO players(id, name, gender) VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = CASE WHEN excluded.name <> '' THEN excluded.name ELSE players.name END,
				gender = CASE WHEN excluded.gender <> 'unknown' THEN excluded.gender ELSE players.gender END`,
			*m.PlayerID, m.Name, gender,
		); err != nil {
			return fmt.Errorf("upsert player %d: %w", *m.PlayerID, err)
		}
	}
	if m.LicensedName != "" {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO licensed_players(name, player_id, gender) VALUES (?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				player_id = COALESCE(excluded.player_id, licensed_players.player_id),
				gender = CASE WHEN excluded.gender <> 'unknown' THEN excluded.gender ELSE licensed_players.gender END`,
			m.LicensedName, nullInt64(m.PlayerID), gender,
		); err != nil {
			return fmt.Errorf("upsert licensed player %q: %w", m.LicensedName, err)
		}
	}
	return nil
}

// DeleteTournament removes a tournament and its results.
func (db *DB) DeleteTournament(ctx context.Context, id string) (bool, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM tournaments WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return false, nil
	}
	if err := bumpVersion(ctx, tx, keyResultsVersion); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

// ListTournaments returns all stored tournaments ordered by date desc.
func (db *DB) ListTournaments(ctx context.Context) ([]model.Tournament, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT t.id, t.name, t.date, t.manual, COUNT(r.team_id)
		FROM tournaments t LEFT JOIN results r ON r.tournament_id = t.id
		GROUP BY t.id ORDER BY t.date DESC, t.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Tournament
	for rows.Next() {
		var t model.Tournament
		var date string
		var manual int
		if err := rows.Scan(&t.ID, &t.Name, &date, &manual, &t.Results); err != nil {
			return nil, err
		}
		if t.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("tournament %s: bad date %q: %w", t.ID, date, err)
		}
		t.Manual = manual != 0
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetTournament returns the tournament with id, or nil if absent.
func (db *DB) GetTournament(ctx context.Context, id string) (*model.Tournament, error) {
	var t model.Tournament
	var date string
	var manual int
	err := db.conn.QueryRowContext(ctx, "SELECT id, name, date, manual FROM tournaments WHERE id = ?", id).
		Scan(&t.ID, &t.Name, &date, &manual)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if t.Date, err = time.Parse(dateLayout, date); err != nil {
		return nil, fmt.Errorf("tournament %s: bad date %q: %w", t.ID, date, err)
	}
	t.Manual = manual != 0
	return &t, nil
}

const resultColumns = `
	r.tournament_id, t.name, t.date, t.manual,
	r.team_id, r.team_players, r.points, r.points_reason,
	r.cup, r.cup_position, r.qualifying_wins, r.wins, r.losses`

type scanner interface {
	Scan(dest ...any) error
}

// scanResult reads resultColumns. A stored reason outside the known set is an
// error rather than a silent default.
func scanResult(s scanner, extra ...any) (model.TournamentResult, error) {
	var r model.TournamentResult
	var date, reason, cup string
	var manual int
	var qw, wins, losses sql.NullInt64
	dest := append([]any{
		&r.TournamentID, &r.TournamentName, &date, &manual,
		&r.TeamID, &r.TeamPlayers, &r.Points, &reason,
		&cup, &r.CupPosition, &qw, &wins, &losses,
	}, extra...)
	if err := s.Scan(dest...); err != nil {
		return r, err
	}
	var err error
	if r.TournamentDate, err = time.Parse(dateLayout, date); err != nil {
		return r, fmt.Errorf("result %s/%s: bad date %q: %w", r.TournamentID, r.TeamID, date, err)
	}
	if r.Reason, err = model.ParseReason(reason); err != nil {
		return r, fmt.Errorf("result %s/%s: %w", r.TournamentID, r.TeamID, err)
	}
	if r.Cup, err = model.ParseCup(cup); err != nil {
		return r, fmt.Errorf("result %s/%s: %w", r.TournamentID, r.TeamID, err)
	}
	r.TournamentManual = manual != 0
	r.QualifyingWins = intPtr(qw)
	r.Wins = intPtr(wins)
	r.Losses = intPtr(losses)
	return r, nil
}

// TournamentResults returns every team result of one tournament in storage order.
func (db *DB) TournamentResults(ctx context.Context, tournamentID string) ([]model.TournamentResult, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT `+resultColumns+`
		FROM results r JOIN tournaments t ON t.id = r.tournament_id
		WHERE r.tournament_id = ? ORDER BY r.rowid`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TournamentResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PlayerEntries assembles the aggregator input: every player record (with its
// licensed name when linked), every licensed player without a record, and each
// one's results. With licensedOnly, unlicensed player records are left out.
func (db *DB) PlayerEntries(ctx context.Context, licensedOnly bool) ([]model.PlayerEntry, error) {
	var entries []model.PlayerEntry
	index := make(map[string]int)

	rows, err := db.conn.QueryContext(ctx, `
		SELECT p.id, p.name, p.gender, COALESCE(l.name, ''), COALESCE(l.gender, 'unknown')
		FROM players p LEFT JOIN licensed_players l ON l.player_id = p.id
		ORDER BY p.id`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var id int64
		var e model.PlayerEntry
		var gender, licGender string
		if err := rows.Scan(&id, &e.Name, &gender, &e.LicensedName, &licGender); err != nil {
			rows.Close()
			return nil, err
		}
		if licensedOnly && e.LicensedName == "" {
			continue
		}
		e.PlayerID = &id
		e.Gender = model.ParseGender(gender)
		if e.Gender == model.GenderUnknown {
			e.Gender = model.ParseGender(licGender)
		}
		index[e.Key()] = len(entries)
		entries = append(entries, e)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = db.conn.QueryContext(ctx,
		"SELECT name, gender FROM licensed_players WHERE player_id IS NULL ORDER BY name")
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var e model.PlayerEntry
		var gender string
		if err := rows.Scan(&e.LicensedName, &gender); err != nil {
			rows.Close()
			return nil, err
		}
		e.Gender = model.ParseGender(gender)
		index[e.Key()] = len(entries)
		entries = append(entries, e)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = db.conn.QueryContext(ctx, `SELECT `+resultColumns+`,
			COALESCE(m.player_id, l.player_id), COALESCE(m.licensed_name, '')
		FROM team_members m
		LEFT JOIN licensed_players l ON l.name = m.licensed_name
		JOIN results r ON r.tournament_id = m.tournament_id AND r.team_id = m.team_id
		JOIN tournaments t ON t.id = r.tournament_id
		ORDER BY t.date, r.tournament_id, r.team_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var pid sql.NullInt64
		var licensed string
		r, err := scanResult(rows, &pid, &licensed)
		if err != nil {
			return nil, err
		}
		key := "lic:" + licensed
		if pid.Valid {
			key = "id:" + strconv.FormatInt(pid.Int64, 10)
		}
		if i, ok := index[key]; ok {
			entries[i].Results = append(entries[i].Results, r)
		}
	}
	return entries, rows.Err()
}

// FindPlayerKey resolves a player reference (numeric ID or licensed name) to an
// aggregation key. It returns "" when nothing matches.
func (db *DB) FindPlayerKey(ctx context.Context, ref string) (string, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return "id:" + strconv.FormatInt(id, 10), nil
	}
	var name string
	var pid sql.NullInt64
	err := db.conn.QueryRowContext(ctx,
		"SELECT name, player_id FROM licensed_players WHERE name = ? COLLATE NOCASE", ref).Scan(&name, &pid)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if pid.Valid {
		return "id:" + strconv.FormatInt(pid.Int64, 10), nil
	}
	return "lic:" + name, nil
}

// QueryRaw runs an arbitrary read query and returns column names and stringified rows.
func (db *DB) QueryRaw(ctx context.Context, query string) ([]string, [][]string, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(query))
	if !strings.HasPrefix(trimmed, "SELECT") && !strings.HasPrefix(trimmed, "WITH") && !strings.HasPrefix(trimmed, "PRAGMA") {
		return nil, nil, fmt.Errorf("only read queries are allowed")
	}
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			switch x := v.(type) {
			case nil:
				row[i] = "NULL"
			case []byte:
				row[i] = string(x)
			default:
				row[i] = fmt.Sprint(x)
			}
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	return rows.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
