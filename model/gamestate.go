package model

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Unit is a mobile harvester owned by a player.
type Unit struct {
	ID    string   `json:"id"`
	Owner string   `json:"owner"`
	Pos   Position `json:"pos"`
	Cargo float64  `json:"cargo"`
}

// Base is a stationary production site; units deposit cargo here and new
// units spawn on it.
type Base struct {
	ID    string   `json:"id"`
	Owner string   `json:"owner"`
	Pos   Position `json:"pos"`
}

// Player carries the banked resource total. Unit and base ownership is
// recorded on the units and bases themselves.
type Player struct {
	ID   string  `json:"id"`
	Bank float64 `json:"bank"`
}

// Snapshot is the world state at one instant, seen from the controlling
// player (Self). Treat it as read-only: changes go through Clone.
type Snapshot struct {
	Tick      int       `json:"tick"`
	Size      int       `json:"size"`
	Self      string    `json:"self"`
	Resources []float64 `json:"resources"` // row-major: Resources[y*Size + x]
	Players   []Player  `json:"players"`
	Units     []Unit    `json:"units"`
	Bases     []Base    `json:"bases"`

	mu  sync.Mutex
	idx *index
}

type index struct {
	unitAt map[Position][]int
	baseAt map[Position]int
	unitID map[string]int
	baseID map[string]int
	player map[string]int
	ownedU map[string][]int
	ownedB map[string][]int
}

// index is built on first use and dropped by Invalidate.
func (s *Snapshot) index() *index {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idx != nil {
		return s.idx
	}
	ix := &index{
		unitAt: make(map[Position][]int, len(s.Units)),
		baseAt: make(map[Position]int, len(s.Bases)),
		unitID: make(map[string]int, len(s.Units)),
		baseID: make(map[string]int, len(s.Bases)),
		player: make(map[string]int, len(s.Players)),
		ownedU: make(map[string][]int),
		ownedB: make(map[string][]int),
	}
	for i, u := range s.Units {
		p := Wrap(u.Pos, s.Size)
		ix.unitAt[p] = append(ix.unitAt[p], i)
		ix.unitID[u.ID] = i
		ix.ownedU[u.Owner] = append(ix.ownedU[u.Owner], i)
	}
	for i, b := range s.Bases {
		ix.baseAt[Wrap(b.Pos, s.Size)] = i
		ix.baseID[b.ID] = i
		ix.ownedB[b.Owner] = append(ix.ownedB[b.Owner], i)
	}
	for i, p := range s.Players {
		ix.player[p.ID] = i
	}
	s.idx = ix
	return ix
}

// Clone returns a deep copy that can be modified without affecting s.
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{
		Tick:      s.Tick,
		Size:      s.Size,
		Self:      s.Self,
		Resources: append([]float64(nil), s.Resources...),
		Players:   append([]Player(nil), s.Players...),
		Units:     append([]Unit(nil), s.Units...),
		Bases:     append([]Base(nil), s.Bases...),
	}
	return c
}

// Invalidate drops cached lookups after the slices were modified in place.
func (s *Snapshot) Invalidate() {
	s.mu.Lock()
	s.idx = nil
	s.mu.Unlock()
}

// Wrap normalizes p onto this snapshot's grid.
func (s *Snapshot) Wrap(p Position) Position { return Wrap(p, s.Size) }

// Neighbor returns the cell one step from p in direction d.
func (s *Snapshot) Neighbor(p Position, d Direction) Position { return Step(p, d, s.Size) }

// Distance is the toroidal Manhattan distance between two cells.
func (s *Snapshot) Distance(a, b Position) int { return ManhattanDistance(a, b, s.Size) }

// ResourceAt returns the resource quantity of the cell at p.
// Returns 0 for a snapshot without a resource field.
func (s *Snapshot) ResourceAt(p Position) float64 {
	if s.Size <= 0 || len(s.Resources) != s.Size*s.Size {
		return 0
	}
	p = s.Wrap(p)
	return s.Resources[p.Y*s.Size+p.X]
}

// UnitAt returns the first unit occupying p, in snapshot order.
func (s *Snapshot) UnitAt(p Position) (Unit, bool) {
	idx := s.index().unitAt[s.Wrap(p)]
	if len(idx) == 0 {
		return Unit{}, false
	}
	return s.Units[idx[0]], true
}

// UnitsAt returns every unit on p. A working snapshot can hold several
// units per cell until the host resolves collisions.
func (s *Snapshot) UnitsAt(p Position) []Unit {
	idx := s.index().unitAt[s.Wrap(p)]
	if len(idx) == 0 {
		return nil
	}
	out := make([]Unit, 0, len(idx))
	for _, i := range idx {
		out = append(out, s.Units[i])
	}
	return out
}

// BaseAt returns the base occupying p, if any.
func (s *Snapshot) BaseAt(p Position) (Base, bool) {
	i, ok := s.index().baseAt[s.Wrap(p)]
	if !ok {
		return Base{}, false
	}
	return s.Bases[i], true
}

func (s *Snapshot) Unit(id string) (Unit, bool) {
	i, ok := s.index().unitID[id]
	if !ok {
		return Unit{}, false
	}
	return s.Units[i], true
}

func (s *Snapshot) Base(id string) (Base, bool) {
	i, ok := s.index().baseID[id]
	if !ok {
		return Base{}, false
	}
	return s.Bases[i], true
}

func (s *Snapshot) Player(id string) (Player, bool) {
	i, ok := s.index().player[id]
	if !ok {
		return Player{}, false
	}
	return s.Players[i], true
}

// SelfPlayer returns the controlling player. A missing entry yields a
// zero-bank player with the Self id.
func (s *Snapshot) SelfPlayer() Player {
	if p, ok := s.Player(s.Self); ok {
		return p
	}
	return Player{ID: s.Self}
}

// Opponents returns every player other than Self, in snapshot order.
func (s *Snapshot) Opponents() []Player {
	var out []Player
	for _, p := range s.Players {
		if p.ID != s.Self {
			out = append(out, p)
		}
	}
	return out
}

// UnitsOf returns the units owned by a player, in snapshot order.
func (s *Snapshot) UnitsOf(owner string) []Unit {
	idx := s.index().ownedU[owner]
	out := make([]Unit, 0, len(idx))
	for _, i := range idx {
		out = append(out, s.Units[i])
	}
	return out
}

// BasesOf returns the bases owned by a player, sorted by id.
func (s *Snapshot) BasesOf(owner string) []Base {
	idx := s.index().ownedB[owner]
	out := make([]Base, 0, len(idx))
	for _, i := range idx {
		out = append(out, s.Bases[i])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Snapshot) UnitCount(owner string) int { return len(s.index().ownedU[owner]) }
func (s *Snapshot) BaseCount(owner string) int { return len(s.index().ownedB[owner]) }

// NearestBase returns the owner's base closest to p. ok is false when the
// owner has no base; callers must skip distance-dependent work in that case.
// Ties go to the lowest base id.
func (s *Snapshot) NearestBase(owner string, p Position) (b Base, dist int, ok bool) {
	for _, cand := range s.BasesOf(owner) {
		d := s.Distance(p, cand.Pos)
		if !ok || d < dist {
			b, dist, ok = cand, d, true
		}
	}
	return b, dist, ok
}

// Validate checks the structural invariants of the snapshot: a positive grid
// size, a complete non-negative resource field, non-negative cargo and bank,
// and at most one unit and one base per cell.
func (s *Snapshot) Validate() error {
	if s.Size <= 0 {
		return fmt.Errorf("invalid grid size %d", s.Size)
	}
	if len(s.Resources) != s.Size*s.Size {
		return fmt.Errorf("resource field has %d cells, want %d", len(s.Resources), s.Size*s.Size)
	}
	if s.Self == "" {
		return errors.New("snapshot has no controlling player")
	}
	for i, r := range s.Resources {
		if r < 0 {
			return fmt.Errorf("cell %d has negative resource %v", i, r)
		}
	}
	for _, p := range s.Players {
		if p.Bank < 0 {
			return fmt.Errorf("player %s has negative bank %v", p.ID, p.Bank)
		}
	}
	seenU := make(map[Position]string, len(s.Units))
	for _, u := range s.Units {
		if u.Cargo < 0 {
			return fmt.Errorf("unit %s has negative cargo %v", u.ID, u.Cargo)
		}
		p := s.Wrap(u.Pos)
		if other, ok := seenU[p]; ok {
			return fmt.Errorf("units %s and %s share cell (%d,%d)", other, u.ID, p.X, p.Y)
		}
		seenU[p] = u.ID
	}
	seenB := make(map[Position]string, len(s.Bases))
	for _, b := range s.Bases {
		p := s.Wrap(b.Pos)
		if other, ok := seenB[p]; ok {
			return fmt.Errorf("bases %s and %s share cell (%d,%d)", other, b.ID, p.X, p.Y)
		}
		seenB[p] = b.ID
	}
	return nil
}
