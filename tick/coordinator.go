// Package tick sequences one decision tick: units are scored one at a time,
// heaviest cargo first, and every committed move or conversion is applied to
// a working snapshot before the next unit is scored. Bases decide last,
// against the final working snapshot.
package tick

import (
	"sort"

	"github.com/damoonsh/Halite/config"
	"github.com/damoonsh/Halite/model"
	"github.com/damoonsh/Halite/scoring"
	"github.com/damoonsh/Halite/tendency"
)

// Advancer applies a single unit action to a snapshot and returns the
// resulting snapshot. It must not modify its input and does not resolve
// collisions between units; that happens at the real tick boundary.
type Advancer interface {
	Advance(snap *model.Snapshot, unitID string, a model.UnitAction) (*model.Snapshot, error)
}

// AdvanceFunc adapts a function to Advancer.
type AdvanceFunc func(snap *model.Snapshot, unitID string, a model.UnitAction) (*model.Snapshot, error)

func (f AdvanceFunc) Advance(snap *model.Snapshot, unitID string, a model.UnitAction) (*model.Snapshot, error) {
	return f(snap, unitID, a)
}

// UnitStep is the trace of one unit in processing order.
type UnitStep struct {
	scoring.UnitTrace
	AdvanceError string `json:"advance_error,omitempty"`
}

// Trace explains a whole tick.
type Trace struct {
	Tick   int                 `json:"tick"`
	Player string              `json:"player"`
	Bank   float64             `json:"bank"`
	Units  []UnitStep          `json:"units"`
	Bases  []scoring.BaseTrace `json:"bases"`
}

// Coordinator runs decision ticks. It keeps no state between ticks.
type Coordinator struct {
	units *scoring.UnitScorer
	bases *scoring.BaseScorer
	adv   Advancer
}

func New(cfg config.Config, tend *tendency.Engine, adv Advancer) *Coordinator {
	return &Coordinator{
		units: scoring.NewUnitScorer(cfg, tend),
		bases: scoring.NewBaseScorer(cfg),
		adv:   adv,
	}
}

// Order returns the ids of the owner's units by descending cargo, ties by
// id so the order is stable across runs.
func Order(snap *model.Snapshot, owner string) []string {
	units := snap.UnitsOf(owner)
	sort.SliceStable(units, func(i, j int) bool {
		if units[i].Cargo != units[j].Cargo {
			return units[i].Cargo > units[j].Cargo
		}
		return units[i].ID < units[j].ID
	})
	ids := make([]string, len(units))
	for i, u := range units {
		ids[i] = u.ID
	}
	return ids
}

// Run decides every unit and base of snap.Self. It never fails: a unit
// whose action cannot be applied keeps the previous working snapshot and
// the error is recorded in its step.
func (c *Coordinator) Run(snap *model.Snapshot) (model.Actions, Trace) {
	owner := snap.Self
	acts := model.NewActions(snap.Tick)
	tr := Trace{Tick: snap.Tick, Player: owner}

	work := snap
	for _, id := range Order(snap, owner) {
		u, ok := work.Unit(id)
		if !ok {
			continue
		}
		d := c.units.Score(u, c.units.Survey(work, u), work)
		acts.Units[id] = d.Action
		step := UnitStep{UnitTrace: d.Trace}
		if d.Action != model.Harvest {
			next, err := c.adv.Advance(work, id, d.Action)
			if err != nil {
				step.AdvanceError = err.Error()
			} else {
				work = next
			}
		}
		tr.Units = append(tr.Units, step)
	}

	// Bases created by this tick's conversions do not exist for the host yet.
	var decisions []scoring.BaseDecision
	for _, b := range snap.BasesOf(owner) {
		cur, ok := work.Base(b.ID)
		if !ok {
			continue
		}
		decisions = append(decisions, c.bases.Score(cur, c.bases.Survey(work, cur), work))
	}
	bank := work.SelfPlayer().Bank
	for _, d := range c.bases.Allocate(decisions, bank) {
		acts.Bases[d.Trace.BaseID] = d.Action
		tr.Bases = append(tr.Bases, d.Trace)
	}
	tr.Bank = bank
	return acts, tr
}
