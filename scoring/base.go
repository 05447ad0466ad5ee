package scoring

import (
	"sort"

	"github.com/damoonsh/Halite/config"
	"github.com/damoonsh/Halite/model"
	"github.com/damoonsh/Halite/survey"
)

// BaseDecision is the spawn decision of one base before the bank is shared
// out between bases.
type BaseDecision struct {
	Action model.BaseAction
	Trace  BaseTrace
}

// BaseScorer decides whether bases produce a unit.
type BaseScorer struct {
	cfg config.Config
}

func NewBaseScorer(cfg config.Config) *BaseScorer {
	return &BaseScorer{cfg: cfg}
}

// Survey catalogues the surroundings of b.
func (s *BaseScorer) Survey(snap *model.Snapshot, b model.Base) *survey.Survey {
	return survey.Build(snap, b.Pos, b.Owner, survey.Options{Radius: s.cfg.Survey.Radius})
}

// Score weighs the surroundings of b: own units crowd it out, enemy units
// and bases call for a new unit.
func (s *BaseScorer) Score(b model.Base, sv *survey.Survey, snap *model.Snapshot) BaseDecision {
	bc := s.cfg.Base
	tr := BaseTrace{BaseID: b.ID, Pos: b.Pos}
	decide := func(a model.BaseAction, r Reason, w float64) BaseDecision {
		tr.Action, tr.Reason, tr.Weight = a, r, w
		return BaseDecision{Action: a, Trace: tr}
	}

	if _, occupied := snap.UnitAt(b.Pos); occupied {
		return decide(model.Idle, ReasonOccupied, 0)
	}
	units := snap.UnitCount(b.Owner)
	if units == 0 {
		return decide(model.Produce, ReasonNoUnits, bc.PriorityWeight)
	}
	if snap.Tick >= bc.SpawnCutoffTick {
		return decide(model.Idle, ReasonCutoff, 0)
	}
	var bank float64
	if p, ok := snap.Player(b.Owner); ok {
		bank = p.Bank
	}
	affordable := bank >= bc.SpawnCost
	if snap.Tick < bc.OpeningTicks && affordable {
		return decide(model.Produce, ReasonOpening, bc.PriorityWeight)
	}

	w := 0.0
	for _, e := range sv.Entries {
		d2 := float64(e.Distance * e.Distance)
		switch e.Occupant() {
		case survey.OwnUnit:
			w -= bc.OwnUnitPenalty / d2
		case survey.EnemyUnit:
			w += bc.EnemyUnitBonus / d2
			if e.Offset.Adjacent() && bank > bc.SpawnCost && e.Unit.Cargo < bc.EmergencyMaxCargo {
				w += bc.EmergencyBonus
			}
		}
		if e.Base != nil && !e.OwnBase {
			w += bc.EnemyBaseBonus / d2
		}
	}
	w = round(w, 2)
	if w > bc.Threshold && affordable {
		return decide(model.Produce, ReasonWeighted, w)
	}
	return decide(model.Idle, ReasonWeighted, w)
}

// Allocate shares bank between the produce decisions, highest weight
// first, and turns those the bank can no longer pay for into idles. Bases
// of a player without units keep producing regardless.
func (s *BaseScorer) Allocate(decisions []BaseDecision, bank float64) []BaseDecision {
	out := make([]BaseDecision, len(decisions))
	copy(out, decisions)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Trace.Weight != out[j].Trace.Weight {
			return out[i].Trace.Weight > out[j].Trace.Weight
		}
		return out[i].Trace.BaseID < out[j].Trace.BaseID
	})
	cost := s.cfg.Base.SpawnCost
	for i := range out {
		d := &out[i]
		if d.Action != model.Produce {
			continue
		}
		if bank < cost && d.Trace.Reason != ReasonNoUnits {
			d.Action, d.Trace.Action, d.Trace.Reason = model.Idle, model.Idle, ReasonBank
			continue
		}
		bank -= cost
	}
	return out
}
