package model

import (
	"strings"
	"sync"
	"testing"
)

func fixture() *Snapshot {
	return &Snapshot{
		Size:      5,
		Self:      "me",
		Resources: make([]float64, 25),
		Players:   []Player{{ID: "me", Bank: 100}, {ID: "foe", Bank: 50}},
		Units: []Unit{
			{ID: "u1", Owner: "me", Pos: Position{1, 1}, Cargo: 10},
			{ID: "e1", Owner: "foe", Pos: Position{3, 3}},
		},
		Bases: []Base{
			{ID: "b2", Owner: "me", Pos: Position{4, 4}},
			{ID: "b1", Owner: "me", Pos: Position{1, 3}},
		},
	}
}

func TestSnapshotLookups(t *testing.T) {
	s := fixture()
	if u, ok := s.UnitAt(Position{6, 6}); !ok || u.ID != "u1" {
		t.Errorf("UnitAt wrapped = %+v %v", u, ok)
	}
	if _, ok := s.UnitAt(Position{0, 0}); ok {
		t.Error("UnitAt on empty cell")
	}
	if got := s.BasesOf("me"); len(got) != 2 || got[0].ID != "b1" {
		t.Errorf("BasesOf = %v, want sorted by id", got)
	}
	if s.UnitCount("foe") != 1 || s.BaseCount("foe") != 0 {
		t.Error("counts wrong")
	}
	if opp := s.Opponents(); len(opp) != 1 || opp[0].ID != "foe" {
		t.Errorf("Opponents = %v", opp)
	}
	b, d, ok := s.NearestBase("me", Position{1, 1})
	if !ok || b.ID != "b1" || d != 2 {
		t.Errorf("NearestBase = %s %d %v, want b1 2", b.ID, d, ok)
	}
	if _, _, ok := s.NearestBase("foe", Position{1, 1}); ok {
		t.Error("NearestBase for a player without bases")
	}
}

func TestNearestBaseTieGoesToLowestID(t *testing.T) {
	s := fixture()
	// (2,4) is two steps from both b2 (4,4) and b1 (1,3)
	b, d, _ := s.NearestBase("me", Position{2, 4})
	if b.ID != "b1" {
		t.Errorf("NearestBase = %s at %d, want b1", b.ID, d)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := fixture()
	_ = s.UnitCount("me")
	c := s.Clone()
	c.Units[0].Pos = Position{2, 2}
	c.Resources[0] = 9
	c.Players[0].Bank = 0
	c.Invalidate()

	if s.Units[0].Pos != (Position{1, 1}) || s.Resources[0] != 0 || s.Players[0].Bank != 100 {
		t.Error("clone shares state with original")
	}
	if _, ok := c.UnitAt(Position{2, 2}); !ok {
		t.Error("clone index stale")
	}
	if _, ok := s.UnitAt(Position{1, 1}); !ok {
		t.Error("original index broken")
	}
}

func TestUnitsAtKeepsEveryOccupant(t *testing.T) {
	s := fixture()
	s.Units = append(s.Units, Unit{ID: "u2", Owner: "me", Pos: Position{3, 3}})

	got := s.UnitsAt(Position{8, 8})
	if len(got) != 2 || got[0].ID != "e1" || got[1].ID != "u2" {
		t.Errorf("UnitsAt = %v, want e1 then u2", got)
	}
	if u, _ := s.UnitAt(Position{3, 3}); u.ID != "e1" {
		t.Errorf("UnitAt = %s, want first in snapshot order", u.ID)
	}
	if got := s.UnitsAt(Position{0, 0}); got != nil {
		t.Errorf("UnitsAt on empty cell = %v", got)
	}
}

func TestConcurrentFirstLookups(t *testing.T) {
	s := fixture()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := s.UnitAt(Position{1, 1}); !ok {
				t.Error("UnitAt missed u1")
			}
			if s.BaseCount("me") != 2 {
				t.Error("BaseCount wrong")
			}
		}()
	}
	wg.Wait()
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Snapshot)
		want   string
	}{
		{"ok", func(*Snapshot) {}, ""},
		{"bad size", func(s *Snapshot) { s.Size = 0 }, "grid size"},
		{"short field", func(s *Snapshot) { s.Resources = s.Resources[:3] }, "resource field"},
		{"negative resource", func(s *Snapshot) { s.Resources[4] = -1 }, "negative resource"},
		{"negative cargo", func(s *Snapshot) { s.Units[0].Cargo = -1 }, "negative cargo"},
		{"negative bank", func(s *Snapshot) { s.Players[1].Bank = -1 }, "negative bank"},
		{"stacked units", func(s *Snapshot) { s.Units[1].Pos = Position{6, 1} }, "share cell"},
		{"stacked bases", func(s *Snapshot) { s.Bases[1].Pos = Position{-1, -1} }, "share cell"},
		{"no self", func(s *Snapshot) { s.Self = "" }, "controlling player"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := fixture()
			tc.mutate(s)
			err := s.Validate()
			if tc.want == "" {
				if err != nil {
					t.Fatalf("Validate = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Validate = %v, want %q", err, tc.want)
			}
		})
	}
}
