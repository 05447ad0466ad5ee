package agent

import (
	"fmt"

	"github.com/damoonsh/Halite/config"
	"github.com/damoonsh/Halite/model"
)

// EventKind identifies the category of a significant change between two
// consecutive game states.
type EventKind string

const (
	EventBaseLost        EventKind = "base_lost"
	EventAllBasesLost    EventKind = "all_bases_lost"
	EventFleetDevastated EventKind = "fleet_devastated"
	EventFirstContact    EventKind = "first_contact"
	EventEconomyCrisis   EventKind = "economy_crisis"
	EventPhaseTransition EventKind = "phase_transition"
)

// Event represents a significant game event detected by diffing consecutive
// game states. Events are logged alongside the tick summary.
type Event struct {
	Kind   EventKind
	Tick   int
	Detail string
}

// stateSnapshot captures the diffable fields from a game state tick.
type stateSnapshot struct {
	baseIDs   map[string]model.Position
	unitCount int
	bank      float64
	phase     string
	contact   bool // an enemy unit was within contact range of something we own
}

// Phase names.
const (
	phaseOpening = "opening"
	phaseMid     = "midgame"
	phaseEnd     = "endgame"
)

// devastationFloor avoids reporting fleet losses while the fleet is tiny.
const devastationFloor = 4

// gamePhase is driven by tick only; the thresholds are the ones the scorers
// switch behaviour on.
func gamePhase(tick int, cfg config.Config) string {
	switch {
	case tick > cfg.Unit.NearEndTick:
		return phaseEnd
	case tick < cfg.Base.OpeningTicks:
		return phaseOpening
	default:
		return phaseMid
	}
}

func takeSnapshot(snap *model.Snapshot, cfg config.Config) stateSnapshot {
	self := snap.Self
	s := stateSnapshot{
		baseIDs:   make(map[string]model.Position),
		unitCount: snap.UnitCount(self),
		bank:      snap.SelfPlayer().Bank,
		phase:     gamePhase(snap.Tick, cfg),
	}
	for _, b := range snap.BasesOf(self) {
		s.baseIDs[b.ID] = b.Pos
	}
	s.contact = inContact(snap, cfg.Survey.BaseDefenseRadius)
	return s
}

// inContact reports whether any enemy unit is within radius of one of our
// units or bases.
func inContact(snap *model.Snapshot, radius int) bool {
	var ours []model.Position
	for _, u := range snap.UnitsOf(snap.Self) {
		ours = append(ours, u.Pos)
	}
	for _, b := range snap.BasesOf(snap.Self) {
		ours = append(ours, b.Pos)
	}
	for _, e := range snap.Units {
		if e.Owner == snap.Self {
			continue
		}
		for _, p := range ours {
			if snap.Distance(p, e.Pos) <= radius {
				return true
			}
		}
	}
	return false
}

// detectEvents compares the current game state against the previous snapshot
// and returns any triggered events along with the snapshot to diff against
// next tick. No events are reported when prev is nil (first tick).
func detectEvents(snap *model.Snapshot, cfg config.Config, prev *stateSnapshot) ([]Event, stateSnapshot) {
	cur := takeSnapshot(snap, cfg)
	if prev == nil {
		return nil, cur
	}

	var events []Event

	lost := 0
	for id, p := range prev.baseIDs {
		if _, ok := cur.baseIDs[id]; !ok {
			lost++
			events = append(events, Event{
				Kind:   EventBaseLost,
				Tick:   snap.Tick,
				Detail: fmt.Sprintf("lost base %s at (%d,%d)", id, p.X, p.Y),
			})
		}
	}
	if lost > 0 && len(cur.baseIDs) == 0 {
		events = append(events, Event{
			Kind:   EventAllBasesLost,
			Tick:   snap.Tick,
			Detail: fmt.Sprintf("no bases left, %d units must convert", cur.unitCount),
		})
	}

	if prev.unitCount >= devastationFloor {
		gone := prev.unitCount - cur.unitCount
		if gone > 0 && float64(gone)/float64(prev.unitCount) > 0.5 {
			events = append(events, Event{
				Kind:   EventFleetDevastated,
				Tick:   snap.Tick,
				Detail: fmt.Sprintf("fleet devastated: %d→%d units", prev.unitCount, cur.unitCount),
			})
		}
	}

	if !prev.contact && cur.contact {
		events = append(events, Event{
			Kind:   EventFirstContact,
			Tick:   snap.Tick,
			Detail: "enemy unit within defense radius",
		})
	}
	// contact is reported once per session
	cur.contact = cur.contact || prev.contact

	if prev.bank > 1000 && cur.bank < 200 && cur.unitCount == 0 {
		events = append(events, Event{
			Kind:   EventEconomyCrisis,
			Tick:   snap.Tick,
			Detail: fmt.Sprintf("bank collapsed %.0f→%.0f with no units", prev.bank, cur.bank),
		})
	}

	if prev.phase != cur.phase {
		events = append(events, Event{
			Kind:   EventPhaseTransition,
			Tick:   snap.Tick,
			Detail: fmt.Sprintf("phase transition: %s → %s", prev.phase, cur.phase),
		})
	}

	return events, cur
}
