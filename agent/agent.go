package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/damoonsh/Halite/config"
	"github.com/damoonsh/Halite/ipc"
	"github.com/damoonsh/Halite/model"
	"github.com/damoonsh/Halite/sim"
	"github.com/damoonsh/Halite/tendency"
	"github.com/damoonsh/Halite/tick"
)

// ErrNoHello is returned when a game state arrives before the handshake.
var ErrNoHello = errors.New("game_state before hello")

// Agent owns the decision-making for a single player session.
type Agent struct {
	Conn   *ipc.Connection
	Player string

	cfg   config.Config
	coord *tick.Coordinator
	sink  *Sink
	prev  *stateSnapshot
}

// New wires a session. Moves and conversions are applied to the working
// snapshot with the reference rules; sink may be nil to skip recording.
func New(conn *ipc.Connection, cfg config.Config, tend *tendency.Engine, sink *Sink) *Agent {
	return &Agent{
		Conn:  conn,
		cfg:   cfg,
		coord: tick.New(cfg, tend, sim.New(sim.DefaultRules())),
		sink:  sink,
	}
}

// Register installs the session handlers on its connection.
func (a *Agent) Register() {
	a.Conn.RegisterHandler(ipc.TypeHello, a.HandleHello)
	a.Conn.RegisterHandler(ipc.TypeGameState, a.HandleGameState)
}

// HandleHello completes the handshake so the host knows the controller is ready.
func (a *Agent) HandleHello(env ipc.Envelope) (*ipc.Envelope, error) {
	var hello ipc.HelloMessage
	if err := json.Unmarshal(env.Data, &hello); err != nil {
		return nil, fmt.Errorf("unmarshal hello: %w", err)
	}
	if hello.Player == "" {
		return nil, errors.New("hello without player")
	}

	a.Player = hello.Player
	a.Conn.Player = hello.Player
	a.prev = nil
	slog.Info("player identified", "player", a.Player, "config", a.cfg.Version)

	ack, err := ipc.NewEnvelope(ipc.TypeAck, ipc.AckMessage{Status: "ok", Version: a.cfg.Version})
	if err != nil {
		return nil, err
	}
	return &ack, nil
}

// HandleGameState runs one decision tick and replies with the actions.
func (a *Agent) HandleGameState(env ipc.Envelope) (*ipc.Envelope, error) {
	if a.Player == "" {
		return nil, ErrNoHello
	}
	snap, err := ipc.DecodeGameState(env.Data)
	if err != nil {
		return nil, err
	}
	if snap.Self != a.Player {
		return nil, fmt.Errorf("game_state for %q on the session of %q", snap.Self, a.Player)
	}

	events, cur := detectEvents(snap, a.cfg, a.prev)
	a.prev = &cur
	for _, e := range events {
		slog.Info("game event", "player", a.Player, "tick", e.Tick, "kind", e.Kind, "detail", e.Detail)
	}

	acts, tr := a.coord.Run(snap)

	produced := 0
	for _, b := range acts.Bases {
		if b == model.Produce {
			produced++
		}
	}
	failed := 0
	for _, u := range tr.Units {
		if u.AdvanceError != "" {
			failed++
		}
	}
	slog.Debug("tick decided",
		"player", a.Player,
		"tick", snap.Tick,
		"bank", tr.Bank,
		"units", len(acts.Units),
		"bases", len(acts.Bases),
		"spawns", produced,
		"advance_errors", failed,
		"phase", cur.phase,
	)

	if a.sink != nil {
		a.sink.Submit(tr)
	}

	resp, err := ipc.NewEnvelope(ipc.TypeActions, acts)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
