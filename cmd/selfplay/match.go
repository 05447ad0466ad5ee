package main

import (
	"log/slog"
	"sort"

	"github.com/damoonsh/Halite/config"
	"github.com/damoonsh/Halite/model"
	"github.com/damoonsh/Halite/sim"
	"github.com/damoonsh/Halite/tendency"
	"github.com/damoonsh/Halite/tick"
	"github.com/damoonsh/Halite/trace"
)

// Standing is one player's position at the end of a match.
type Standing struct {
	Player string
	Bank   float64
	Units  int
	Bases  int
}

// Result is the outcome of a match. Standings are ordered best first.
type Result struct {
	Ticks     int
	Standings []Standing
}

// match plays every player with the same controller configuration against
// the reference host.
type match struct {
	host  *sim.Sim
	coord *tick.Coordinator
	rec   trace.Recorder
	steps int
}

func newMatch(cfg config.Config, tend *tendency.Engine, rec trace.Recorder) *match {
	rules := sim.DefaultRules()
	rules.SpawnCost = cfg.Base.SpawnCost
	host := sim.New(rules)
	return &match{
		host:  host,
		coord: tick.New(cfg, tend, host),
		rec:   rec,
		steps: cfg.EpisodeSteps,
	}
}

// alive reports whether a player still has something to play with.
func alive(w *model.Snapshot, id string) bool {
	return w.UnitCount(id) > 0 || w.BaseCount(id) > 0
}

// play runs the match from world until the last step or until at most one
// player is left.
func (m *match) play(world *model.Snapshot) Result {
	w := world
	for w.Tick < m.steps-1 {
		orders := make(map[string]model.Actions, len(w.Players))
		playing := 0
		for _, p := range w.Players {
			if !alive(w, p.ID) {
				continue
			}
			playing++
			view := w.Clone()
			view.Self = p.ID
			acts, tr := m.coord.Run(view)
			orders[p.ID] = acts
			if err := m.rec.Record(tr); err != nil {
				slog.Error("record trace", "player", p.ID, "tick", w.Tick, "error", err)
			}
		}
		if playing <= 1 {
			break
		}

		next, rep := m.host.Resolve(w, orders)
		slog.Debug("tick resolved",
			"tick", w.Tick,
			"spawned", len(rep.Spawned),
			"converted", len(rep.Converted),
			"destroyed", len(rep.Destroyed),
			"captured", len(rep.Captured),
			"deposited", rep.Deposited,
			"collected", rep.Collected,
			"rejected", len(rep.Rejected),
		)
		w = next
	}
	return standings(w)
}

func standings(w *model.Snapshot) Result {
	res := Result{Ticks: w.Tick}
	for _, p := range w.Players {
		res.Standings = append(res.Standings, Standing{
			Player: p.ID,
			Bank:   p.Bank,
			Units:  w.UnitCount(p.ID),
			Bases:  w.BaseCount(p.ID),
		})
	}
	sort.SliceStable(res.Standings, func(i, j int) bool {
		a, b := res.Standings[i], res.Standings[j]
		if a.Bank != b.Bank {
			return a.Bank > b.Bank
		}
		return a.Player < b.Player
	})
	return res
}
