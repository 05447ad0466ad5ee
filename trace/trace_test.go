package trace

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/damoonsh/Halite/model"
	"github.com/damoonsh/Halite/scoring"
	"github.com/damoonsh/Halite/tick"
)

func sampleTrace(n int) tick.Trace {
	return tick.Trace{
		Tick:   n,
		Player: "me",
		Bank:   float64(100 * n),
		Units: []tick.UnitStep{
			{UnitTrace: scoring.UnitTrace{
				UnitID:  "u1",
				Cargo:   300,
				Ranking: []scoring.Candidate{{Action: model.MoveEast, Weight: 12.5}, {Action: model.Harvest, Weight: 3}},
				Eliminations: []scoring.Elimination{
					{Rule: scoring.RuleCollision, Action: model.MoveNorth},
				},
				Action: model.MoveEast,
			}},
			{UnitTrace: scoring.UnitTrace{UnitID: "u2", Action: model.Convert, Forced: true}, AdvanceError: "rejected"},
		},
		Bases: []scoring.BaseTrace{
			{BaseID: "b1", Weight: 7.25, Reason: scoring.ReasonWeighted, Action: model.Produce},
		},
	}
}

func TestStoreRecord(t *testing.T) {
	s, err := OpenStore(filepath.Join(t.TempDir(), "trace.db"), "2")
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer s.Close()

	for n := 1; n <= 3; n++ {
		if err := s.Record(sampleTrace(n)); err != nil {
			t.Fatalf("Record(%d): %v", n, err)
		}
	}

	ticks, err := s.Ticks(s.RunID())
	if err != nil {
		t.Fatal(err)
	}
	if len(ticks) != 3 || ticks[2].Tick != 3 || ticks[2].Bank != 300 || ticks[0].Units != 2 || ticks[0].Bases != 1 {
		t.Errorf("ticks = %+v", ticks)
	}

	units, err := s.UnitDecisions(s.RunID(), "me", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(units) != 2 {
		t.Fatalf("unit decisions = %+v", units)
	}
	if units[0].UnitID != "u1" || units[0].Action != "EAST" || !strings.Contains(units[0].Eliminations, "collision") {
		t.Errorf("first decision = %+v", units[0])
	}
	if !units[1].Forced || units[1].Action != "CONVERT" || units[1].AdvanceError != "rejected" {
		t.Errorf("second decision = %+v", units[1])
	}

	bases, err := s.BaseDecisions(s.RunID(), "me", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(bases) != 1 || bases[0].Action != "SPAWN" || bases[0].Reason != "weighted" || bases[0].Weight != 7.25 {
		t.Errorf("base decisions = %+v", bases)
	}

	if v, err := s.ConfigVersion(s.RunID()); err != nil || v != "2" {
		t.Errorf("ConfigVersion = %q, %v", v, err)
	}
}

func TestStoreRecordRejectsUnencodableTrace(t *testing.T) {
	s, err := OpenStore(filepath.Join(t.TempDir(), "trace.db"), "2")
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer s.Close()

	tr := sampleTrace(1)
	tr.Units[0].Ranking[0].Weight = math.Inf(1)
	err = s.Record(tr)
	if err == nil || !strings.Contains(err.Error(), "marshal ranking of u1") {
		t.Fatalf("Record = %v, want a marshal error for u1", err)
	}

	ticks, err := s.Ticks(s.RunID())
	if err != nil {
		t.Fatal(err)
	}
	if len(ticks) != 0 {
		t.Errorf("failed record left ticks behind: %+v", ticks)
	}
}

func TestStoreRunsAreSeparate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.db")
	first, err := OpenStore(path, "2")
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Record(sampleTrace(1)); err != nil {
		t.Fatal(err)
	}
	first.Close()

	second, err := OpenStore(path, "2")
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()
	if second.RunID() == first.RunID() {
		t.Fatal("runs share an id")
	}
	if rows, _ := second.Ticks(second.RunID()); len(rows) != 0 {
		t.Errorf("new run sees %d ticks", len(rows))
	}
	if rows, _ := second.Ticks(first.RunID()); len(rows) != 1 {
		t.Errorf("old run has %d ticks, want 1", len(rows))
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "run.jsonl.zst")
	a, err := CreateArchive(path)
	if err != nil {
		t.Fatalf("CreateArchive: %v", err)
	}
	for n := 0; n < 5; n++ {
		if err := a.Record(sampleTrace(n)); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := a.Record(sampleTrace(9)); err == nil {
		t.Error("Record after Close succeeded")
	}

	var got []tick.Trace
	if err := ReadArchive(path, func(tr tick.Trace) error {
		got = append(got, tr)
		return nil
	}); err != nil {
		t.Fatalf("ReadArchive: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("read %d traces, want 5", len(got))
	}
	for i, tr := range got {
		if tr.Tick != i {
			t.Errorf("trace %d has tick %d", i, tr.Tick)
		}
	}
	last := got[4]
	if last.Units[0].Action != model.MoveEast || last.Units[0].Ranking[0].Weight != 12.5 ||
		last.Units[1].AdvanceError != "rejected" || last.Bases[0].Action != model.Produce {
		t.Errorf("decoded trace = %+v", last)
	}
}

func TestReadArchiveStopsOnCallbackError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.jsonl.zst")
	a, err := CreateArchive(path)
	if err != nil {
		t.Fatal(err)
	}
	for n := 0; n < 3; n++ {
		_ = a.Record(sampleTrace(n))
	}
	a.Close()

	stop := errors.New("stop")
	calls := 0
	err = ReadArchive(path, func(tick.Trace) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Errorf("err = %v after %d calls", err, calls)
	}
}

func TestReadArchiveRejectsPlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.jsonl")
	if err := os.WriteFile(path, []byte("{\"tick\":1}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := ReadArchive(path, func(tick.Trace) error { return nil }); err == nil {
		t.Error("read an uncompressed file without error")
	}
}

type failing struct{ closed bool }

func (f *failing) Record(tick.Trace) error { return errors.New("disk full") }

func (f *failing) Close() error {
	f.closed = true
	return nil
}

func TestMultiJoinsErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.jsonl.zst")
	a, err := CreateArchive(path)
	if err != nil {
		t.Fatal(err)
	}
	f := &failing{}
	m := Multi(a, f, Discard)

	if err := m.Record(sampleTrace(1)); err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Record = %v", err)
	}
	if err := m.Close(); err != nil || !f.closed {
		t.Errorf("Close = %v closed=%v", err, f.closed)
	}

	n := 0
	_ = ReadArchive(path, func(tick.Trace) error { n++; return nil })
	if n != 1 {
		t.Errorf("archive holds %d traces, want 1 despite the failing sibling", n)
	}
}
