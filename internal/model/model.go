package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Cup identifies the elimination bracket a team reached after qualification.
type Cup int

const (
	CupNone Cup = 0
	CupA    Cup = 1
	CupB    Cup = 2
)

func (c Cup) String() string {
	switch c {
	case CupA:
		return "A"
	case CupB:
		return "B"
	default:
		return ""
	}
}

// ParseCup accepts "A", "B" (any case) or an empty string for no cup.
func ParseCup(s string) (Cup, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return CupNone, nil
	case "A":
		return CupA, nil
	case "B":
		return CupB, nil
	}
	return CupNone, fmt.Errorf("unknown cup %q", s)
}

// Gender partitions the rating table.
type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = "unknown"
)

// ParseGender maps free-form storage values onto the three rating buckets.
// Anything unrecognised lands in GenderUnknown.
func ParseGender(s string) Gender {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return GenderMale
	case "female", "f":
		return GenderFemale
	default:
		return GenderUnknown
	}
}

// ---- Points reasons ----

// ErrUnknownReason is returned for any points reason outside the closed set.
var ErrUnknownReason = errors.New("unknown points reason")

// PointsReason is the closed set of causes a result's points can come from.
type PointsReason int

const (
	ReasonNone PointsReason = iota
	ReasonCupWinner
	ReasonCupRunnerUp
	ReasonCupThird
	ReasonCupSemiFinal
	ReasonCupQuarterFinal
	ReasonQualifyingHigh // >= 3 qualifying wins
	ReasonQualifyingLow  // 1-2 qualifying wins
	ReasonPlayerResult   // explicit placement, e.g. manually entered tournaments

	reasonEnd
)

var reasonCodes = [...]string{
	ReasonNone:            "NONE",
	ReasonCupWinner:       "CUP_WINNER",
	ReasonCupRunnerUp:     "CUP_RUNNER_UP",
	ReasonCupThird:        "CUP_THIRD_PLACE",
	ReasonCupSemiFinal:    "CUP_SEMI_FINAL",
	ReasonCupQuarterFinal: "CUP_QUARTER_FINAL",
	ReasonQualifyingHigh:  "QUALIFYING_HIGH",
	ReasonQualifyingLow:   "QUALIFYING_LOW",
	ReasonPlayerResult:    "PLAYER_RESULT",
}

// Valid reports whether r is one of the declared reasons.
func (r PointsReason) Valid() bool {
	return r >= ReasonNone && r < reasonEnd
}

// IsCup reports whether the reason names a bracket round.
func (r PointsReason) IsCup() bool {
	return r >= ReasonCupWinner && r <= ReasonCupQuarterFinal
}

func (r PointsReason) String() string {
	if !r.Valid() {
		return "PointsReason(" + strconv.Itoa(int(r)) + ")"
	}
	return reasonCodes[r]
}

// ParseReason converts a wire code into a PointsReason. An empty string maps to ReasonNone.
func ParseReason(s string) (PointsReason, error) {
	code := strings.ToUpper(strings.TrimSpace(s))
	if code == "" {
		return ReasonNone, nil
	}
	for r, c := range reasonCodes {
		if c == code {
			return PointsReason(r), nil
		}
	}
	return ReasonNone, fmt.Errorf("%w: %q", ErrUnknownReason, s)
}

// ---- Engine input ----

// TournamentResult is one team's recorded outcome in one tournament.
// Points is precomputed upstream by the points resolver; the engine only reads it
// and tags copies with IsCounted.
type TournamentResult struct {
	TournamentID   string
	TournamentName string
	TournamentDate time.Time
	TeamID         string
	TeamPlayers    string

	Points      int
	Reason      PointsReason
	Cup         Cup
	CupPosition string // e.g. "WINNER", "ROUND_OF_8", "1/2"

	QualifyingWins *int
	Wins           *int // cumulative, including bracket wins
	Losses         *int

	TournamentManual bool

	IsCounted bool
}

// WinsOrZero returns Wins, treating a missing value as 0.
func (r *TournamentResult) WinsOrZero() int {
	if r.Wins == nil {
		return 0
	}
	return *r.Wins
}

// LossesOrZero returns Losses, treating a missing value as 0.
func (r *TournamentResult) LossesOrZero() int {
	if r.Losses == nil {
		return 0
	}
	return *r.Losses
}

// RatingConfig is the admin-editable configuration snapshot for one aggregation pass.
type RatingConfig struct {
	BestResultsCount int
	PositionPoints   map[int]int // finishing position -> points; sparse
}

// DefaultBestResultsCount is used when no admin setting exists.
const DefaultBestResultsCount = 8

// PlayerEntry is one player's input to the aggregator.
type PlayerEntry struct {
	PlayerID     *int64 // nil for licensed players without a player record
	Name         string
	LicensedName string
	Gender       Gender
	Results      []TournamentResult
}

// Key is the aggregation identity: the player record when one exists,
// otherwise the licensed name.
func (e *PlayerEntry) Key() string {
	if e.PlayerID != nil {
		return "id:" + strconv.FormatInt(*e.PlayerID, 10)
	}
	return "lic:" + e.LicensedName
}

// DisplayName prefers the licensed registry name over the raw player name.
func (e *PlayerEntry) DisplayName() string {
	if e.LicensedName != "" {
		return e.LicensedName
	}
	return e.Name
}

// ---- Engine output ----

// PlayerRating is the computed rating row for one player.
type PlayerRating struct {
	Key         string
	PlayerID    *int64
	DisplayName string
	Gender      Gender
	TotalPoints int
	Rank        int

	AllResults  []TournamentResult // every result, each tagged with IsCounted
	BestResults []TournamentResult // IsCounted subset
}

// WinStats is the informational win/loss summary for a player.
type WinStats struct {
	Wins    int
	Losses  int
	WinRate float64 // percent, 0 when no games
}

// Tournament is a stored tournament header.
type Tournament struct {
	ID      string
	Name    string
	Date    time.Time
	Manual  bool
	Results int // number of team results, populated by list queries
}

// ---- Ingestion records ----

// Member is one player on a team as supplied by the result feed.
type Member struct {
	PlayerID     *int64
	Name         string
	LicensedName string
	Gender       Gender
}

// TeamRecord is a team's result in a tournament together with its roster.
type TeamRecord struct {
	Result  TournamentResult
	Members []Member
}

// TournamentRecord is one tournament ready to be stored.
type TournamentRecord struct {
	Tournament Tournament
	Teams      []TeamRecord
}
