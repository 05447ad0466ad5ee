// Package sim is a reference host for offline matches: it applies single
// unit actions for the in-tick working snapshot and resolves a full tick
// once every player has submitted its actions.
package sim

import (
	"errors"
	"fmt"

	"github.com/damoonsh/Halite/model"
)

var (
	ErrUnknownUnit  = errors.New("unknown unit")
	ErrCannotAfford = errors.New("cannot afford")
	ErrOccupied     = errors.New("cell already has a base")
)

// Rules are the host-side game constants.
type Rules struct {
	ConvertCost float64
	SpawnCost   float64
	CollectRate float64 // share of a cell's resource collected per harvest
	RegenRate   float64 // growth of unoccupied cells per tick
	MaxRegen    float64 // regeneration never lifts a cell above this
}

func DefaultRules() Rules {
	return Rules{
		ConvertCost: 500,
		SpawnCost:   500,
		CollectRate: 0.25,
		RegenRate:   0.02,
		MaxRegen:    500,
	}
}

// Sim implements the host operations over a set of rules.
type Sim struct {
	rules Rules
}

func New(r Rules) *Sim { return &Sim{rules: r} }

// Advance applies one unit action to a copy of snap. Moves do not resolve
// collisions: the moved unit may share a cell with another until Resolve.
func (s *Sim) Advance(snap *model.Snapshot, unitID string, a model.UnitAction) (*model.Snapshot, error) {
	next := snap.Clone()
	i := unitIndex(next, unitID)
	if i < 0 {
		return nil, fmt.Errorf("advance %s: %w", unitID, ErrUnknownUnit)
	}
	switch {
	case a.IsMove():
		next.Units[i].Pos = next.Neighbor(next.Units[i].Pos, a.Direction())
	case a == model.Convert:
		if err := s.convert(next, i); err != nil {
			return nil, fmt.Errorf("advance %s: %w", unitID, err)
		}
	}
	next.Invalidate()
	return next, nil
}

// convert turns unit i into a base. The cargo is banked first and the
// conversion cost is taken from the bank.
func (s *Sim) convert(w *model.Snapshot, i int) error {
	u := w.Units[i]
	if _, ok := w.BaseAt(u.Pos); ok {
		return ErrOccupied
	}
	p := playerIndex(w, u.Owner)
	if p < 0 {
		w.Players = append(w.Players, model.Player{ID: u.Owner})
		p = len(w.Players) - 1
	}
	if w.Players[p].Bank+u.Cargo < s.rules.ConvertCost {
		return fmt.Errorf("%w conversion: %v available", ErrCannotAfford, w.Players[p].Bank+u.Cargo)
	}
	w.Players[p].Bank += u.Cargo - s.rules.ConvertCost
	w.Bases = append(w.Bases, model.Base{ID: BaseID(w.Tick, u.ID), Owner: u.Owner, Pos: w.Wrap(u.Pos)})
	w.Units = append(w.Units[:i], w.Units[i+1:]...)
	return nil
}

// BaseID names the base created when unitID converts at tick.
func BaseID(tick int, unitID string) string { return fmt.Sprintf("b%d-%s", tick, unitID) }

// UnitID names the unit spawned by baseID at tick.
func UnitID(tick int, baseID string) string { return fmt.Sprintf("u%d-%s", tick, baseID) }

func unitIndex(w *model.Snapshot, id string) int {
	for i, u := range w.Units {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func playerIndex(w *model.Snapshot, id string) int {
	for i, p := range w.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}
