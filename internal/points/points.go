package points

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pable/go-cup-rating/internal/model"
)

var (
	// ErrNegativeWins is returned when a qualifying win count is below zero.
	ErrNegativeWins = errors.New("negative qualifying wins")
	// ErrMissingPlace is returned for a player result without a finishing position.
	ErrMissingPlace = errors.New("player result without place")
	// ErrNoPosition is wrapped by MissingPositionError.
	ErrNoPosition = errors.New("position has no points defined")
	// ErrMissingCup is returned for a cup round reason without a cup.
	ErrMissingCup = errors.New("cup round without cup")
)

// MissingPositionError reports a finishing position absent from the points table.
type MissingPositionError struct {
	Position int
}

func (e *MissingPositionError) Error() string {
	return fmt.Sprintf("position %d: %v", e.Position, ErrNoPosition)
}

func (e *MissingPositionError) Unwrap() error { return ErrNoPosition }

// MissingPolicy decides what a lookup gap resolves to.
type MissingPolicy int

const (
	MissingReject MissingPolicy = iota // return *MissingPositionError
	MissingZero                        // resolve to 0 points
)

func (p MissingPolicy) String() string {
	if p == MissingZero {
		return "zero"
	}
	return "reject"
}

// ParseMissingPolicy accepts "reject" or "zero".
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reject":
		return MissingReject, nil
	case "zero":
		return MissingZero, nil
	}
	return MissingReject, fmt.Errorf("unknown missing position policy %q", s)
}

// Table is a sparse finishing-position -> points mapping.
type Table map[int]int

// Lookup returns the points for pos and whether the position is defined.
func (t Table) Lookup(pos int) (int, bool) {
	v, ok := t[pos]
	return v, ok
}

// Schedule maps a reason to the finishing position it implies.
type Schedule struct {
	CupBOffset             int // added to cup B round positions
	QualifyingHighPosition int
	QualifyingLowPosition  int
}

// DefaultSchedule places cup A in positions 1-8, cup B in 9-16 and the
// qualifying tiers after both brackets.
func DefaultSchedule() Schedule {
	return Schedule{
		CupBOffset:             8,
		QualifyingHighPosition: 17,
		QualifyingLowPosition:  25,
	}
}

var cupRoundPositions = map[model.PointsReason]int{
	model.ReasonCupWinner:       1,
	model.ReasonCupRunnerUp:     2,
	model.ReasonCupThird:        3,
	model.ReasonCupSemiFinal:    4,
	model.ReasonCupQuarterFinal: 5,
}

// Position returns the finishing position implied by the outcome.
// ok is false for ReasonNone, which carries no points.
func (s Schedule) Position(o Outcome) (pos int, ok bool, err error) {
	r := o.Reason
	switch {
	case !r.Valid():
		return 0, false, fmt.Errorf("%w: %s", model.ErrUnknownReason, r)
	case r == model.ReasonNone:
		return 0, false, nil
	case r.IsCup():
		if o.Cup == model.CupNone {
			return 0, false, fmt.Errorf("%w: %s", ErrMissingCup, r)
		}
		pos = cupRoundPositions[r]
		if o.Cup == model.CupB {
			pos += s.CupBOffset
		}
		return pos, true, nil
	case r == model.ReasonQualifyingHigh:
		return s.QualifyingHighPosition, true, nil
	case r == model.ReasonQualifyingLow:
		return s.QualifyingLowPosition, true, nil
	case r == model.ReasonPlayerResult:
		if o.Place <= 0 {
			return 0, false, ErrMissingPlace
		}
		return o.Place, true, nil
	}
	return 0, false, fmt.Errorf("%w: %s", model.ErrUnknownReason, r)
}

// QualifyingReason classifies the qualification stage by win count.
func QualifyingReason(wins int) (model.PointsReason, error) {
	switch {
	case wins < 0:
		return model.ReasonNone, fmt.Errorf("%w: %d", ErrNegativeWins, wins)
	case wins >= 3:
		return model.ReasonQualifyingHigh, nil
	case wins >= 1:
		return model.ReasonQualifyingLow, nil
	}
	return model.ReasonNone, nil
}

var cupCodeReasons = map[string]model.PointsReason{
	"WINNER":      model.ReasonCupWinner,
	"1":           model.ReasonCupWinner,
	"RUNNER_UP":   model.ReasonCupRunnerUp,
	"2":           model.ReasonCupRunnerUp,
	"THIRD_PLACE": model.ReasonCupThird,
	"3":           model.ReasonCupThird,
	"ROUND_OF_4":  model.ReasonCupSemiFinal,
	"1/2":         model.ReasonCupSemiFinal,
	"ROUND_OF_8":  model.ReasonCupQuarterFinal,
	"1/4":         model.ReasonCupQuarterFinal,
}

// ReasonFor derives the points reason for a team from its bracket placement,
// falling back to the qualification stage when the cup round earns no cup points.
func ReasonFor(cup model.Cup, cupPosition string, qualifyingWins int) (model.PointsReason, error) {
	if cup != model.CupNone {
		if r, ok := cupCodeReasons[strings.ToUpper(strings.TrimSpace(cupPosition))]; ok {
			return r, nil
		}
	}
	return QualifyingReason(qualifyingWins)
}

// Outcome is the resolver input for one result.
type Outcome struct {
	Reason model.PointsReason
	Cup    model.Cup
	Place  int // only for ReasonPlayerResult
}

// Resolver turns outcomes into points using an admin-editable table.
type Resolver struct {
	Table    Table
	Schedule Schedule
	Missing  MissingPolicy
}

// NewResolver returns a resolver over table with the default schedule and reject policy.
func NewResolver(table map[int]int) *Resolver {
	return &Resolver{Table: Table(table), Schedule: DefaultSchedule()}
}

// Resolve returns the points for o. Unknown reasons are always an error;
// table gaps follow the resolver's MissingPolicy.
func (r *Resolver) Resolve(o Outcome) (int, error) {
	pos, ok, err := r.Schedule.Position(o)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	v, found := r.Table.Lookup(pos)
	if !found {
		if r.Missing == MissingZero {
			return 0, nil
		}
		return 0, &MissingPositionError{Position: pos}
	}
	return v, nil
}
