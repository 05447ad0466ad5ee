package scoring

import (
	"testing"

	"github.com/damoonsh/Halite/config"
	"github.com/damoonsh/Halite/model"
	"github.com/damoonsh/Halite/tendency"
)

const (
	me  = "me"
	foe = "foe"
)

type world struct {
	snap *model.Snapshot
}

func newWorld(size int) *world {
	return &world{snap: &model.Snapshot{
		Size:      size,
		Self:      me,
		Resources: make([]float64, size*size),
		Players:   []model.Player{{ID: me}, {ID: foe}},
	}}
}

func (w *world) unit(id, owner string, x, y int, cargo float64) *world {
	w.snap.Units = append(w.snap.Units, model.Unit{ID: id, Owner: owner, Pos: model.Position{X: x, Y: y}, Cargo: cargo})
	w.snap.Invalidate()
	return w
}

func (w *world) base(id, owner string, x, y int) *world {
	w.snap.Bases = append(w.snap.Bases, model.Base{ID: id, Owner: owner, Pos: model.Position{X: x, Y: y}})
	w.snap.Invalidate()
	return w
}

func (w *world) resource(x, y int, v float64) *world {
	w.snap.Resources[y*w.snap.Size+x] = v
	return w
}

func (w *world) bank(owner string, v float64) *world {
	for i := range w.snap.Players {
		if w.snap.Players[i].ID == owner {
			w.snap.Players[i].Bank = v
			return w
		}
	}
	w.snap.Players = append(w.snap.Players, model.Player{ID: owner, Bank: v})
	w.snap.Invalidate()
	return w
}

func (w *world) tick(n int) *world {
	w.snap.Tick = n
	return w
}

func newUnitScorer(t *testing.T, cfg config.Config) *UnitScorer {
	t.Helper()
	eng, err := tendency.Compile(cfg.Tendencies)
	if err != nil {
		t.Fatalf("compile tendencies: %v", err)
	}
	return NewUnitScorer(cfg, eng)
}

func decide(t *testing.T, snap *model.Snapshot, id string) UnitDecision {
	t.Helper()
	if err := snap.Validate(); err != nil {
		t.Fatalf("invalid fixture: %v", err)
	}
	sc := newUnitScorer(t, config.Default())
	u, ok := snap.Unit(id)
	if !ok {
		t.Fatalf("no unit %s", id)
	}
	return sc.Score(u, sc.Survey(snap, u), snap)
}

func eliminated(tr UnitTrace, a model.UnitAction) bool {
	for _, e := range tr.Eliminations {
		if e.Action == a {
			return true
		}
	}
	return false
}

func weightOf(tr UnitTrace, a model.UnitAction) (float64, bool) {
	for _, c := range tr.Ranking {
		if c.Action == a {
			return c.Weight, true
		}
	}
	return 0, false
}

func contribution(tr UnitTrace, r Rule, a model.UnitAction) float64 {
	for _, c := range tr.Contributions {
		if c.Rule == r && c.Action == a {
			return c.Value
		}
	}
	return 0
}
