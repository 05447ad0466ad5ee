// Package survey catalogues the cells around a reference cell and decomposes
// each of them into per-axis directions and decay weights.
package survey

import "github.com/damoonsh/Halite/model"

// Occupant classifies what sits on a surveyed cell, relative to the
// surveying player.
type Occupant uint8

const (
	Empty Occupant = iota
	OwnUnit
	EnemyUnit
	OwnBase
	EnemyBase
)

func (o Occupant) String() string {
	switch o {
	case OwnUnit:
		return "own-unit"
	case EnemyUnit:
		return "enemy-unit"
	case OwnBase:
		return "own-base"
	case EnemyBase:
		return "enemy-base"
	}
	return "empty"
}

// Entry is one surveyed cell.
type Entry struct {
	Pos      model.Position
	Offset   Offset
	Distance int // path length from the reference cell
	Resource float64
	WeightX  float64
	WeightY  float64

	// Unit is the cell's primary occupant: an enemy unit when one is
	// present, otherwise an own unit.
	Unit    *model.Unit
	OwnUnit bool

	// Friend is set whenever an own unit stands on the cell, including one
	// sharing it with an enemy.
	Friend *model.Unit

	Base    *model.Base
	OwnBase bool
	// OwnerBank is the banked total of the base owner, 0 without a base.
	OwnerBank float64
}

// Occupant returns the primary classification of the cell. A unit standing
// on a base classifies as the unit; Base stays available on the entry.
func (e Entry) Occupant() Occupant {
	switch {
	case e.Unit != nil && e.OwnUnit:
		return OwnUnit
	case e.Unit != nil:
		return EnemyUnit
	case e.Base != nil && e.OwnBase:
		return OwnBase
	case e.Base != nil:
		return EnemyBase
	}
	return Empty
}

// Survey is the catalogue of every cell within Radius of Origin, nearest
// first. The origin cell itself is not part of Entries.
type Survey struct {
	Origin    model.Position
	Radius    int
	Owner     string
	Entries   []Entry
	Truncated bool // the cell cap cut the catalogue short
}

// Options tunes a survey. MaxCells <= 0 means no cap.
type Options struct {
	Radius   int
	MaxCells int
}

// CellCap is the per-unit cell budget under load: the smaller of maxCells
// and budget / (units + 1). The adjacent ring is always kept because the
// collision eliminations read it.
func CellCap(units, maxCells, budget int) int {
	n := maxCells
	if budget > 0 {
		if b := budget / (units + 1); n <= 0 || b < n {
			n = b
		}
	}
	if n > 0 && n < 4 {
		n = 4
	}
	return n
}

// Build surveys the snapshot around origin from the point of view of owner.
// Offsets are enumerated ring by ring; on grids smaller than the survey
// diameter an offset is kept only when it is the shortest path to its cell,
// so every cell appears at most once.
func Build(snap *model.Snapshot, origin model.Position, owner string, opts Options) *Survey {
	origin = snap.Wrap(origin)
	sv := &Survey{Origin: origin, Radius: opts.Radius, Owner: owner}
	for _, off := range ringOffsets(opts.Radius) {
		if opts.MaxCells > 0 && len(sv.Entries) >= opts.MaxCells {
			sv.Truncated = true
			break
		}
		target := snap.Wrap(model.Position{X: origin.X + off.dx, Y: origin.Y + off.dy})
		if dx, dy := model.Delta(origin, target, snap.Size); dx != off.dx || dy != off.dy {
			continue
		}
		sv.Entries = append(sv.Entries, entryFor(snap, origin, target, owner))
	}
	return sv
}

func entryFor(snap *model.Snapshot, origin, target model.Position, owner string) Entry {
	off := OffsetBetween(origin, target, snap.Size)
	wx, wy := off.Weights()
	e := Entry{
		Pos:      target,
		Offset:   off,
		Distance: off.PathLength(),
		Resource: snap.ResourceAt(target),
		WeightX:  wx,
		WeightY:  wy,
	}
	for _, u := range snap.UnitsAt(target) {
		u := u // per-iteration copy; go directive lowered to 1.21 for the local toolchain
		switch {
		case u.Owner == owner:
			if e.Friend == nil {
				e.Friend = &u
			}
		case e.Unit == nil:
			e.Unit = &u
		}
	}
	if e.Unit == nil && e.Friend != nil {
		e.Unit, e.OwnUnit = e.Friend, true
	}
	if b, ok := snap.BaseAt(target); ok {
		e.Base = &b
		e.OwnBase = b.Owner == owner
		if p, ok := snap.Player(b.Owner); ok {
			e.OwnerBank = p.Bank
		}
	}
	return e
}

type delta struct{ dx, dy int }

// ringOffsets lists every offset with 1 <= |dx|+|dy| <= radius, ordered by
// distance and then clockwise from north within a ring.
func ringOffsets(radius int) []delta {
	var out []delta
	for d := 1; d <= radius; d++ {
		// north tip down the east side, then south tip up the west side
		for dy := -d; dy <= d; dy++ {
			dx := d - iabs(dy)
			out = append(out, delta{dx, dy})
		}
		for dy := d - 1; dy > -d; dy-- {
			dx := d - iabs(dy)
			out = append(out, delta{-dx, dy})
		}
	}
	return out
}

// Counts tallies the occupants of a survey.
func (s *Survey) Counts() map[Occupant]int {
	out := make(map[Occupant]int, 5)
	for _, e := range s.Entries {
		out[e.Occupant()]++
	}
	return out
}
