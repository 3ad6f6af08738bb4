// Package parser reads normalized tournament result feeds and resolves each
// team's points before the feed is stored.
package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pable/go-cup-rating/internal/model"
	"github.com/pable/go-cup-rating/internal/points"
)

const dateLayout = "2006-01-02"

// Feed is the on-disk result feed: one or more tournaments with team outcomes.
type Feed struct {
	Tournaments []FeedTournament `json:"tournaments"`
}

// FeedTournament is one tournament in a feed. An empty ID is replaced by a
// generated identifier, so such a tournament cannot be re-loaded in place.
type FeedTournament struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Date   string     `json:"date"`
	Manual bool       `json:"manual"`
	Teams  []FeedTeam `json:"teams"`
}

// FeedTeam is one team's outcome. Reason is optional and derived from the
// cup placement and qualifying wins when empty. Place is required for
// PLAYER_RESULT entries.
type FeedTeam struct {
	ID             string       `json:"id"`
	Players        []FeedPlayer `json:"players"`
	Cup            string       `json:"cup"`
	CupPosition    string       `json:"cup_position"`
	QualifyingWins *int         `json:"qualifying_wins"`
	Wins           *int         `json:"wins"`
	Losses         *int         `json:"losses"`
	Reason         string       `json:"reason"`
	Place          int          `json:"place"`
}

// FeedPlayer identifies a team member by player record, licensed name or both.
type FeedPlayer struct {
	PlayerID     *int64 `json:"player_id"`
	Name         string `json:"name"`
	LicensedName string `json:"licensed_name"`
	Gender       string `json:"gender"`
}

var (
	// ErrEmptyTeam is returned for a team without players.
	ErrEmptyTeam = errors.New("team has no players")
	// ErrUnidentifiedPlayer is returned for a player with neither an ID nor a licensed name.
	ErrUnidentifiedPlayer = errors.New("player has no id or licensed name")
)

// ParseFeed decodes a feed, rejecting unknown fields.
func ParseFeed(r io.Reader) (*Feed, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var f Feed
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	return &f, nil
}

// LoadFeed opens and decodes the feed at path.
func LoadFeed(path string) (*Feed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feed: %w", err)
	}
	defer f.Close()
	return ParseFeed(f)
}

// Records converts the feed into storable tournaments, resolving each team's
// points through res. The first invalid team aborts the conversion.
func (f *Feed) Records(res *points.Resolver) ([]model.TournamentRecord, error) {
	out := make([]model.TournamentRecord, 0, len(f.Tournaments))
	for i := range f.Tournaments {
		rec, err := f.Tournaments[i].record(res)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (ft *FeedTournament) record(res *points.Resolver) (model.TournamentRecord, error) {
	id := strings.TrimSpace(ft.ID)
	if id == "" {
		id = uuid.NewString()
	}
	date, err := time.Parse(dateLayout, ft.Date)
	if err != nil {
		return model.TournamentRecord{}, fmt.Errorf("tournament %s: bad date %q: %w", id, ft.Date, err)
	}
	name := ft.Name
	if name == "" {
		name = id
	}

	rec := model.TournamentRecord{
		Tournament: model.Tournament{ID: id, Name: name, Date: date, Manual: ft.Manual},
		Teams:      make([]model.TeamRecord, 0, len(ft.Teams)),
	}
	for i, team := range ft.Teams {
		tr, err := team.record(res, rec.Tournament, i)
		if err != nil {
			return model.TournamentRecord{}, fmt.Errorf("tournament %s: %w", id, err)
		}
		rec.Teams = append(rec.Teams, tr)
	}
	rec.Tournament.Results = len(rec.Teams)
	return rec, nil
}

func (ft *FeedTeam) record(res *points.Resolver, t model.Tournament, index int) (model.TeamRecord, error) {
	teamID := strings.TrimSpace(ft.ID)
	if teamID == "" {
		teamID = fmt.Sprintf("team-%d", index+1)
	}

	cup, err := model.ParseCup(ft.Cup)
	if err != nil {
		return model.TeamRecord{}, fmt.Errorf("team %s: %w", teamID, err)
	}
	reason, err := ft.reason(cup)
	if err != nil {
		return model.TeamRecord{}, fmt.Errorf("team %s: %w", teamID, err)
	}
	pts, err := res.Resolve(points.Outcome{Reason: reason, Cup: cup, Place: ft.Place})
	if err != nil {
		return model.TeamRecord{}, fmt.Errorf("team %s: %w", teamID, err)
	}

	members := make([]model.Member, 0, len(ft.Players))
	names := make([]string, 0, len(ft.Players))
	for i, p := range ft.Players {
		m := model.Member{
			PlayerID:     p.PlayerID,
			Name:         strings.TrimSpace(p.Name),
			LicensedName: strings.TrimSpace(p.LicensedName),
			Gender:       model.ParseGender(p.Gender),
		}
		if m.PlayerID == nil && m.LicensedName == "" {
			return model.TeamRecord{}, fmt.Errorf("team %s: player %d (%q): %w", teamID, i+1, m.Name, ErrUnidentifiedPlayer)
		}
		members = append(members, m)
		names = append(names, memberLabel(m))
	}
	if len(members) == 0 {
		return model.TeamRecord{}, fmt.Errorf("team %s: %w", teamID, ErrEmptyTeam)
	}

	return model.TeamRecord{
		Result: model.TournamentResult{
			TournamentID:     t.ID,
			TournamentName:   t.Name,
			TournamentDate:   t.Date,
			TeamID:           teamID,
			TeamPlayers:      strings.Join(names, " / "),
			Points:           pts,
			Reason:           reason,
			Cup:              cup,
			CupPosition:      strings.ToUpper(strings.TrimSpace(ft.CupPosition)),
			QualifyingWins:   ft.QualifyingWins,
			Wins:             ft.Wins,
			Losses:           ft.Losses,
			TournamentManual: t.Manual,
		},
		Members: members,
	}, nil
}

// memberLabel is the name shown in a team line: licensed name, then feed
// name, then the numeric ID.
func memberLabel(m model.Member) string {
	switch {
	case m.LicensedName != "":
		return m.LicensedName
	case m.Name != "":
		return m.Name
	}
	return "#" + strconv.FormatInt(*m.PlayerID, 10)
}

// reason returns the explicit reason when given. Otherwise an explicit place
// means a player result and anything else is derived from the bracket.
func (ft *FeedTeam) reason(cup model.Cup) (model.PointsReason, error) {
	if ft.Reason != "" {
		return model.ParseReason(ft.Reason)
	}
	if ft.Place > 0 {
		return model.ReasonPlayerResult, nil
	}
	qw := 0
	if ft.QualifyingWins != nil {
		qw = *ft.QualifyingWins
	}
	return points.ReasonFor(cup, ft.CupPosition, qw)
}
