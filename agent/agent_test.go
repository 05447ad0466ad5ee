package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"testing"

	"github.com/damoonsh/Halite/config"
	"github.com/damoonsh/Halite/ipc"
	"github.com/damoonsh/Halite/model"
	"github.com/damoonsh/Halite/tendency"
	"github.com/damoonsh/Halite/tick"
)

type memRecorder struct {
	traces []tick.Trace
	closed bool
}

func (m *memRecorder) Record(tr tick.Trace) error {
	m.traces = append(m.traces, tr)
	return nil
}

func (m *memRecorder) Close() error {
	m.closed = true
	return nil
}

func newAgent(t *testing.T, conn *ipc.Connection, sink *Sink) *Agent {
	t.Helper()
	cfg := config.Default()
	eng, err := tendency.Compile(cfg.Tendencies)
	if err != nil {
		t.Fatalf("compile tendencies: %v", err)
	}
	return New(conn, cfg, eng, sink)
}

func openingState(self string) *model.Snapshot {
	return &model.Snapshot{
		Size:      21,
		Self:      self,
		Resources: make([]float64, 21*21),
		Players:   []model.Player{{ID: "p0", Bank: 5000}, {ID: "p1", Bank: 5000}},
		Units: []model.Unit{
			{ID: "u0", Owner: "p0", Pos: model.Position{X: 5, Y: 10}},
			{ID: "u1", Owner: "p1", Pos: model.Position{X: 15, Y: 10}},
		},
	}
}

func TestSessionOverFramedSocket(t *testing.T) {
	server, client := net.Pipe()
	rec := &memRecorder{}
	sink := NewSink(rec, 8)
	ctx, cancel := context.WithCancel(context.Background())
	go sink.Start(ctx)

	conn := ipc.NewConnection(ipc.NewFramed(server), nil)
	newAgent(t, conn, sink).Register()
	go conn.ReadLoop()

	host := ipc.NewFramed(client)
	hello, _ := ipc.NewEnvelope(ipc.TypeHello, ipc.HelloMessage{Player: "p1"})
	if err := host.Write(hello); err != nil {
		t.Fatal(err)
	}
	resp, err := host.Read()
	if err != nil {
		t.Fatal(err)
	}
	var ack ipc.AckMessage
	if resp.Type != ipc.TypeAck || json.Unmarshal(resp.Data, &ack) != nil || ack.Version != config.Version {
		t.Fatalf("ack = %s %s", resp.Type, resp.Data)
	}

	state, _ := ipc.NewEnvelope(ipc.TypeGameState, openingState("p1"))
	if err := host.Write(state); err != nil {
		t.Fatal(err)
	}
	resp, err = host.Read()
	if err != nil {
		t.Fatal(err)
	}
	var acts model.Actions
	if err := json.Unmarshal(resp.Data, &acts); err != nil || resp.Type != ipc.TypeActions {
		t.Fatalf("actions = %s %s (%v)", resp.Type, resp.Data, err)
	}
	// no base yet: the only unit must found one
	if len(acts.Units) != 1 || acts.Units["u1"] != model.Convert {
		t.Errorf("actions = %+v", acts)
	}
	if !strings.Contains(string(resp.Data), `"u1":"CONVERT"`) {
		t.Errorf("wire actions = %s", resp.Data)
	}

	client.Close()
	cancel()
	sink.Wait()
	if len(rec.traces) != 1 || rec.traces[0].Player != "p1" || !rec.traces[0].Units[0].Forced {
		t.Errorf("recorded %+v", rec.traces)
	}
	if !rec.closed {
		t.Error("recorder not closed on shutdown")
	}
}

func TestHandleGameStateRejects(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	a := newAgent(t, ipc.NewConnection(ipc.NewFramed(server), nil), nil)
	state, _ := ipc.NewEnvelope(ipc.TypeGameState, openingState("p0"))
	if _, err := a.HandleGameState(state); !errors.Is(err, ErrNoHello) {
		t.Fatalf("before hello: err = %v", err)
	}

	hello, _ := ipc.NewEnvelope(ipc.TypeHello, ipc.HelloMessage{Player: "p1"})
	if _, err := a.HandleHello(hello); err != nil {
		t.Fatal(err)
	}
	if _, err := a.HandleGameState(state); err == nil || !strings.Contains(err.Error(), "p0") {
		t.Errorf("foreign state: err = %v", err)
	}

	bad, _ := ipc.NewEnvelope(ipc.TypeGameState, map[string]any{"tick": -1})
	if _, err := a.HandleGameState(bad); err == nil {
		t.Error("schema violation accepted")
	}

	empty, _ := ipc.NewEnvelope(ipc.TypeHello, ipc.HelloMessage{})
	if _, err := a.HandleHello(empty); err == nil {
		t.Error("hello without player accepted")
	}
}

func TestSinkDropsWhenFull(t *testing.T) {
	rec := &memRecorder{}
	sink := NewSink(rec, 1)
	if !sink.Submit(tick.Trace{Tick: 1}) {
		t.Fatal("first submit dropped")
	}
	if sink.Submit(tick.Trace{Tick: 2}) {
		t.Fatal("submit to a full queue succeeded")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink.Start(ctx)
	if len(rec.traces) != 1 || rec.traces[0].Tick != 1 {
		t.Errorf("recorded %+v, want the queued trace drained on shutdown", rec.traces)
	}
}
