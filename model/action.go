package model

import "fmt"

// UnitAction is a candidate action for a mobile unit.
type UnitAction uint8

const (
	Harvest UnitAction = iota // stay in place and collect
	MoveNorth
	MoveEast
	MoveSouth
	MoveWest
	Convert // turn the unit into a base
)

// CandidateOrder is the fixed order used to break ties between equally
// weighted actions: staying put first, then the moves, then conversion.
var CandidateOrder = [6]UnitAction{Harvest, MoveNorth, MoveEast, MoveSouth, MoveWest, Convert}

var unitActionNames = map[UnitAction]string{
	Harvest:   "HARVEST",
	MoveNorth: "NORTH",
	MoveEast:  "EAST",
	MoveSouth: "SOUTH",
	MoveWest:  "WEST",
	Convert:   "CONVERT",
}

func (a UnitAction) String() string {
	if s, ok := unitActionNames[a]; ok {
		return s
	}
	return fmt.Sprintf("UnitAction(%d)", uint8(a))
}

func (a UnitAction) MarshalText() ([]byte, error) {
	if _, ok := unitActionNames[a]; !ok {
		return nil, fmt.Errorf("unknown unit action %d", uint8(a))
	}
	return []byte(a.String()), nil
}

func (a *UnitAction) UnmarshalText(b []byte) error {
	for k, v := range unitActionNames {
		if v == string(b) {
			*a = k
			return nil
		}
	}
	return fmt.Errorf("unknown unit action %q", string(b))
}

// IsMove reports whether the action changes the unit's position.
func (a UnitAction) IsMove() bool {
	return a >= MoveNorth && a <= MoveWest
}

// Direction returns the travel direction of a move action, None otherwise.
func (a UnitAction) Direction() Direction {
	switch a {
	case MoveNorth:
		return North
	case MoveEast:
		return East
	case MoveSouth:
		return South
	case MoveWest:
		return West
	}
	return None
}

// MoveToward returns the move action for direction d. None maps to Harvest.
func MoveToward(d Direction) UnitAction {
	switch d {
	case North:
		return MoveNorth
	case East:
		return MoveEast
	case South:
		return MoveSouth
	case West:
		return MoveWest
	}
	return Harvest
}

// BaseAction is the per-tick decision for a base.
type BaseAction uint8

const (
	Idle BaseAction = iota
	Produce
)

func (a BaseAction) String() string {
	if a == Produce {
		return "SPAWN"
	}
	return "IDLE"
}

func (a BaseAction) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *BaseAction) UnmarshalText(b []byte) error {
	switch string(b) {
	case "SPAWN":
		*a = Produce
	case "IDLE":
		*a = Idle
	default:
		return fmt.Errorf("unknown base action %q", string(b))
	}
	return nil
}

// Actions is the per-tick output of a controller. Harvest entries are kept
// so callers can tell a deliberate harvest from a unit that was skipped.
type Actions struct {
	Tick  int                   `json:"tick"`
	Units map[string]UnitAction `json:"units"`
	Bases map[string]BaseAction `json:"bases"`
}

// NewActions returns an empty action set for tick.
func NewActions(tick int) Actions {
	return Actions{
		Tick:  tick,
		Units: make(map[string]UnitAction),
		Bases: make(map[string]BaseAction),
	}
}
