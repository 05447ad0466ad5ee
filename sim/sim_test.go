package sim

import (
	"errors"
	"math"
	"testing"

	"github.com/damoonsh/Halite/model"
)

func world(size int) *model.Snapshot {
	return &model.Snapshot{
		Size:      size,
		Self:      "a",
		Resources: make([]float64, size*size),
		Players:   []model.Player{{ID: "a"}, {ID: "b"}},
	}
}

func pos(x, y int) model.Position { return model.Position{X: x, Y: y} }

func TestAdvanceMoveWraps(t *testing.T) {
	w := world(5)
	w.Units = []model.Unit{{ID: "u1", Owner: "a", Pos: pos(0, 0)}}

	next, err := New(DefaultRules()).Advance(w, "u1", model.MoveNorth)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	u, _ := next.Unit("u1")
	if u.Pos != pos(0, 4) {
		t.Errorf("pos = %v, want (0,4)", u.Pos)
	}
	if w.Units[0].Pos != pos(0, 0) {
		t.Error("Advance modified its input")
	}
	if _, ok := next.UnitAt(pos(0, 4)); !ok {
		t.Error("index not rebuilt after move")
	}
}

func TestAdvanceConvert(t *testing.T) {
	tests := []struct {
		name    string
		cargo   float64
		bank    float64
		onBase  bool
		wantErr error
		wantBk  float64
	}{
		{"cargo pays", 700, 0, false, nil, 200},
		{"bank tops up", 100, 450, false, nil, 50},
		{"too poor", 100, 100, false, ErrCannotAfford, 0},
		{"already a base", 900, 0, true, ErrOccupied, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := world(7)
			w.Players[0].Bank = tc.bank
			w.Units = []model.Unit{{ID: "u1", Owner: "a", Pos: pos(3, 3), Cargo: tc.cargo}}
			if tc.onBase {
				w.Bases = []model.Base{{ID: "x", Owner: "b", Pos: pos(3, 3)}}
			}
			next, err := New(DefaultRules()).Advance(w, "u1", model.Convert)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Advance: %v", err)
			}
			if _, ok := next.Unit("u1"); ok {
				t.Error("converted unit still present")
			}
			b, ok := next.BaseAt(pos(3, 3))
			if !ok || b.Owner != "a" || b.ID != BaseID(0, "u1") {
				t.Errorf("base = %+v ok=%v", b, ok)
			}
			if got := next.SelfPlayer().Bank; got != tc.wantBk {
				t.Errorf("bank = %v, want %v", got, tc.wantBk)
			}
		})
	}
}

func TestAdvanceUnknownUnit(t *testing.T) {
	_, err := New(DefaultRules()).Advance(world(5), "ghost", model.MoveEast)
	if !errors.Is(err, ErrUnknownUnit) {
		t.Fatalf("err = %v, want ErrUnknownUnit", err)
	}
}

func TestResolveCollisions(t *testing.T) {
	tests := []struct {
		name      string
		units     []model.Unit
		survivor  string
		wantCargo float64
		destroyed int
	}{
		{
			name: "lightest survives",
			units: []model.Unit{
				{ID: "a1", Owner: "a", Pos: pos(1, 2), Cargo: 10},
				{ID: "b1", Owner: "b", Pos: pos(3, 2), Cargo: 90},
			},
			survivor: "a1", wantCargo: 100, destroyed: 1,
		},
		{
			name: "tie destroys both",
			units: []model.Unit{
				{ID: "a1", Owner: "a", Pos: pos(1, 2), Cargo: 40},
				{ID: "b1", Owner: "b", Pos: pos(3, 2), Cargo: 40},
			},
			destroyed: 2,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := world(5)
			w.Units = tc.units
			orders := map[string]model.Actions{
				"a": {Units: map[string]model.UnitAction{"a1": model.MoveEast}},
				"b": {Units: map[string]model.UnitAction{"b1": model.MoveWest}},
			}
			next, rep := New(DefaultRules()).Resolve(w, orders)
			if len(rep.Destroyed) != tc.destroyed {
				t.Fatalf("destroyed = %v, want %d", rep.Destroyed, tc.destroyed)
			}
			if tc.survivor == "" {
				if len(next.Units) != 0 {
					t.Errorf("units left: %v", next.Units)
				}
				return
			}
			u, ok := next.Unit(tc.survivor)
			if !ok {
				t.Fatalf("%s destroyed", tc.survivor)
			}
			if u.Pos != pos(2, 2) || u.Cargo != tc.wantCargo {
				t.Errorf("survivor = %+v", u)
			}
		})
	}
}

func TestResolveEconomy(t *testing.T) {
	w := world(5)
	w.Players[0].Bank = 600
	w.Resources[1*5+1] = 100 // harvested
	w.Resources[4*5+4] = 50  // regenerates
	w.Resources[0] = 500     // at cap
	w.Units = []model.Unit{
		{ID: "h", Owner: "a", Pos: pos(1, 1)},
		{ID: "d", Owner: "a", Pos: pos(2, 3), Cargo: 80},
		{ID: "r", Owner: "b", Pos: pos(3, 2)},
	}
	w.Bases = []model.Base{
		{ID: "home", Owner: "a", Pos: pos(2, 2)},
		{ID: "raided", Owner: "a", Pos: pos(4, 2)},
	}
	orders := map[string]model.Actions{
		"a": {
			Units: map[string]model.UnitAction{"h": model.Harvest, "d": model.MoveNorth},
			Bases: map[string]model.BaseAction{"home": model.Produce, "raided": model.Produce},
		},
		"b": {Units: map[string]model.UnitAction{"r": model.MoveEast}},
	}

	next, rep := New(DefaultRules()).Resolve(w, orders)

	if next.Tick != 1 {
		t.Errorf("tick = %d, want 1", next.Tick)
	}
	// one spawn paid, the second rejected for lack of bank
	if len(rep.Spawned) != 1 || len(rep.Rejected) != 1 {
		t.Errorf("spawned %v rejected %v", rep.Spawned, rep.Rejected)
	}
	// the spawned unit on home (cargo 0) collides with the depositing unit (80):
	// the spawn survives and takes the cargo, which is then deposited
	if got := next.SelfPlayer().Bank; got != 100+80 {
		t.Errorf("bank = %v, want 180", got)
	}
	if _, ok := next.Base("raided"); ok {
		t.Error("overrun base still present")
	}
	if len(rep.Captured) != 1 || rep.Captured[0] != "raided" {
		t.Errorf("captured = %v", rep.Captured)
	}
	h, _ := next.Unit("h")
	if h.Cargo != 25 || next.Resources[1*5+1] != 75 {
		t.Errorf("harvest: cargo %v cell %v", h.Cargo, next.Resources[1*5+1])
	}
	if got := next.Resources[4*5+4]; math.Abs(got-51) > 1e-9 {
		t.Errorf("regen = %v, want 51", got)
	}
	if next.Resources[0] != 500 {
		t.Errorf("capped cell = %v, want 500", next.Resources[0])
	}
	if w.Tick != 0 || len(w.Units) != 3 {
		t.Error("Resolve modified its input")
	}
}

func TestResolveIgnoresForeignOrders(t *testing.T) {
	w := world(5)
	w.Units = []model.Unit{{ID: "b1", Owner: "b", Pos: pos(2, 2)}}
	orders := map[string]model.Actions{
		"a": {Units: map[string]model.UnitAction{"b1": model.MoveEast}},
	}
	next, _ := New(DefaultRules()).Resolve(w, orders)
	if u, _ := next.Unit("b1"); u.Pos != pos(2, 2) {
		t.Errorf("foreign order moved unit to %v", u.Pos)
	}
}
