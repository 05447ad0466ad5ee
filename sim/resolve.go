package sim

import (
	"sort"

	"github.com/damoonsh/Halite/model"
)

// Report summarizes what happened at a tick boundary.
type Report struct {
	Spawned   []string `json:"spawned,omitempty"`
	Converted []string `json:"converted,omitempty"`
	Destroyed []string `json:"destroyed,omitempty"`
	Captured  []string `json:"captured,omitempty"`
	Deposited float64  `json:"deposited"`
	Collected float64  `json:"collected"`
	Rejected  []string `json:"rejected,omitempty"`
}

// Resolve applies the actions of every player to world and advances it by
// one tick. Orders for units or bases a player does not own are ignored.
//
// Order of resolution: spawns, conversions, moves, unit collisions (the
// lightest unit survives and takes the others' cargo, a tie for lightest
// destroys all of them), enemy bases overrun by units, deposits, harvesting
// by units that stayed put, regeneration of unoccupied cells.
func (s *Sim) Resolve(world *model.Snapshot, orders map[string]model.Actions) (*model.Snapshot, Report) {
	w := world.Clone()
	var rep Report

	owned := func(owner string) model.Actions { return orders[owner] }

	// spawns
	for _, b := range world.Bases {
		if owned(b.Owner).Bases[b.ID] != model.Produce {
			continue
		}
		p := playerIndex(w, b.Owner)
		if p < 0 || w.Players[p].Bank < s.rules.SpawnCost {
			rep.Rejected = append(rep.Rejected, b.ID)
			continue
		}
		w.Players[p].Bank -= s.rules.SpawnCost
		id := UnitID(w.Tick, b.ID)
		w.Units = append(w.Units, model.Unit{ID: id, Owner: b.Owner, Pos: b.Pos})
		rep.Spawned = append(rep.Spawned, id)
	}
	w.Invalidate()

	// conversions and moves
	moved := make(map[string]bool)
	for _, u := range world.Units {
		a, ok := owned(u.Owner).Units[u.ID]
		if !ok {
			continue
		}
		i := unitIndex(w, u.ID)
		switch {
		case a == model.Convert:
			if err := s.convert(w, i); err != nil {
				rep.Rejected = append(rep.Rejected, u.ID)
			} else {
				rep.Converted = append(rep.Converted, u.ID)
			}
			w.Invalidate()
		case a.IsMove():
			w.Units[i].Pos = w.Neighbor(w.Units[i].Pos, a.Direction())
			moved[u.ID] = true
		}
	}
	w.Invalidate()

	rep.Destroyed = append(rep.Destroyed, s.collide(w)...)
	captured, destroyed := s.overrun(w)
	rep.Captured = append(rep.Captured, captured...)
	rep.Destroyed = append(rep.Destroyed, destroyed...)
	rep.Deposited = s.deposit(w)
	rep.Collected = s.harvest(w, moved)
	s.regenerate(w)

	w.Tick++
	w.Invalidate()
	return w, rep
}

// collide resolves units sharing a cell.
func (s *Sim) collide(w *model.Snapshot) []string {
	byCell := make(map[model.Position][]int)
	for i, u := range w.Units {
		p := w.Wrap(u.Pos)
		byCell[p] = append(byCell[p], i)
	}
	dead := make(map[int]bool)
	for _, idx := range byCell {
		if len(idx) < 2 {
			continue
		}
		sort.Slice(idx, func(a, b int) bool { return w.Units[idx[a]].Cargo < w.Units[idx[b]].Cargo })
		lightest := idx[0]
		if w.Units[idx[1]].Cargo == w.Units[lightest].Cargo {
			for _, i := range idx {
				dead[i] = true
			}
			continue
		}
		for _, i := range idx[1:] {
			w.Units[lightest].Cargo += w.Units[i].Cargo
			dead[i] = true
		}
	}
	return removeUnits(w, dead)
}

// overrun destroys enemy bases with a unit on them, together with the unit.
func (s *Sim) overrun(w *model.Snapshot) (captured, destroyed []string) {
	w.Invalidate()
	deadUnits := make(map[int]bool)
	keep := w.Bases[:0]
	for _, b := range w.Bases {
		u, ok := w.UnitAt(b.Pos)
		if ok && u.Owner != b.Owner {
			captured = append(captured, b.ID)
			deadUnits[unitIndex(w, u.ID)] = true
			continue
		}
		keep = append(keep, b)
	}
	w.Bases = keep
	destroyed = removeUnits(w, deadUnits)
	w.Invalidate()
	return captured, destroyed
}

// deposit banks the cargo of units standing on their own base.
func (s *Sim) deposit(w *model.Snapshot) float64 {
	total := 0.0
	for i, u := range w.Units {
		b, ok := w.BaseAt(u.Pos)
		if !ok || b.Owner != u.Owner || u.Cargo == 0 {
			continue
		}
		if p := playerIndex(w, u.Owner); p >= 0 {
			w.Players[p].Bank += u.Cargo
			total += u.Cargo
			w.Units[i].Cargo = 0
		}
	}
	return total
}

// harvest lets units that did not move collect from their cell.
func (s *Sim) harvest(w *model.Snapshot, moved map[string]bool) float64 {
	total := 0.0
	for i, u := range w.Units {
		if moved[u.ID] {
			continue
		}
		if _, ok := w.BaseAt(u.Pos); ok {
			continue
		}
		p := w.Wrap(u.Pos)
		c := w.Resources[p.Y*w.Size+p.X] * s.rules.CollectRate
		w.Resources[p.Y*w.Size+p.X] -= c
		w.Units[i].Cargo += c
		total += c
	}
	return total
}

func (s *Sim) regenerate(w *model.Snapshot) {
	occupied := make(map[model.Position]bool, len(w.Units))
	for _, u := range w.Units {
		occupied[w.Wrap(u.Pos)] = true
	}
	for i, r := range w.Resources {
		if occupied[model.Position{X: i % w.Size, Y: i / w.Size}] || r >= s.rules.MaxRegen {
			continue
		}
		r *= 1 + s.rules.RegenRate
		if r > s.rules.MaxRegen {
			r = s.rules.MaxRegen
		}
		w.Resources[i] = r
	}
}

func removeUnits(w *model.Snapshot, dead map[int]bool) []string {
	if len(dead) == 0 {
		return nil
	}
	var ids []string
	keep := w.Units[:0]
	for i, u := range w.Units {
		if dead[i] {
			ids = append(ids, u.ID)
			continue
		}
		keep = append(keep, u)
	}
	w.Units = keep
	w.Invalidate()
	sort.Strings(ids)
	return ids
}
