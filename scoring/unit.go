// Package scoring ranks the candidate actions of units and bases. Every
// rule reads a regional survey and either adds weight to candidate actions
// or eliminates them; the highest surviving weight wins. Scoring has no side
// effects: each decision returns a trace instead of logging.
package scoring

import (
	"math"

	"github.com/damoonsh/Halite/config"
	"github.com/damoonsh/Halite/model"
	"github.com/damoonsh/Halite/survey"
	"github.com/damoonsh/Halite/tendency"
)

// UnitDecision is the chosen action of one unit and how it was reached.
type UnitDecision struct {
	Action model.UnitAction
	Trace  UnitTrace
}

// UnitScorer scores unit actions. It holds only immutable configuration and
// is safe for concurrent use.
type UnitScorer struct {
	cfg  config.Config
	tend *tendency.Engine
}

func NewUnitScorer(cfg config.Config, tend *tendency.Engine) *UnitScorer {
	return &UnitScorer{cfg: cfg, tend: tend}
}

// Survey catalogues the surroundings of u with the configured radius and
// the per-unit cell cap for the owner's current unit count.
func (s *UnitScorer) Survey(snap *model.Snapshot, u model.Unit) *survey.Survey {
	sc := s.cfg.Survey
	return survey.Build(snap, u.Pos, u.Owner, survey.Options{
		Radius:   sc.Radius,
		MaxCells: survey.CellCap(snap.UnitCount(u.Owner), sc.MaxCells, sc.CellBudget),
	})
}

// decision is the per-call context shared by the rules.
type decision struct {
	unit   model.Unit
	snap   *model.Snapshot
	bank   float64
	units  int
	bases  int
	onBase bool

	hasBase  bool
	nearest  model.Base
	baseDist int

	nearEnd bool
	t       tendency.Tendencies
	failed  []tendency.Kind
	forced  bool
}

// Score picks the action for u given its survey. It always returns a legal
// action: harvest when every candidate was eliminated.
func (s *UnitScorer) Score(u model.Unit, sv *survey.Survey, snap *model.Snapshot) UnitDecision {
	d := s.newDecision(u, snap)
	acc := newAccumulator()

	s.weighConvert(d, acc)
	s.defendBases(d, acc)

	current := snap.ResourceAt(u.Pos)
	for _, e := range sv.Entries {
		if e.Friend != nil {
			s.distribute(d, acc, e)
		}
		if e.Unit != nil && !e.OwnUnit {
			s.dealEnemy(d, acc, e)
		}
		if e.Base != nil {
			if e.OwnBase {
				acc.accordingly(RuleDeposit, e.Offset, e.WeightX, e.WeightY, d.t.Deposit*u.Cargo)
			} else {
				s.raid(d, acc, e)
			}
		}
		s.harvestCell(d, acc, e, current)
	}
	acc.add(RuleMining, model.Harvest, d.t.Mining*current*current)

	tr := UnitTrace{
		UnitID:        u.ID,
		Pos:           u.Pos,
		Cargo:         u.Cargo,
		NearEnd:       d.nearEnd,
		Tendencies:    d.t,
		Surveyed:      len(sv.Entries),
		Truncated:     sv.Truncated,
		Contributions: acc.contributions,
		Eliminations:  acc.eliminations,
		Ranking:       acc.rank(),
		Forced:        d.forced,
	}
	for _, k := range d.failed {
		tr.FailedTendencies = append(tr.FailedTendencies, k.String())
	}

	switch {
	case d.forced:
		tr.Action = model.Convert
	case len(tr.Ranking) == 0:
		tr.Action = model.Harvest
		tr.Fallback = true
	default:
		tr.Action = tr.Ranking[0].Action
	}
	return UnitDecision{Action: tr.Action, Trace: tr}
}

func (s *UnitScorer) newDecision(u model.Unit, snap *model.Snapshot) *decision {
	d := &decision{
		unit:  u,
		snap:  snap,
		units: snap.UnitCount(u.Owner),
		bases: snap.BaseCount(u.Owner),
	}
	if p, ok := snap.Player(u.Owner); ok {
		d.bank = p.Bank
	}
	_, d.onBase = snap.BaseAt(u.Pos)
	d.nearest, d.baseDist, d.hasBase = snap.NearestBase(u.Owner, u.Pos)
	d.nearEnd = s.nearEnd(snap, u.Owner, d.bank)

	env := tendency.Env{
		Step:         snap.Tick,
		EpisodeSteps: s.cfg.EpisodeSteps,
		Cargo:        u.Cargo,
		Bank:         d.bank,
		HasBase:      d.hasBase,
		NearEnd:      d.nearEnd,
		BaseCount:    d.bases,
		UnitCount:    d.units,
	}
	if d.hasBase {
		env.ClosestBaseDistance = float64(d.baseDist)
	}
	d.t, d.failed = s.tend.Evaluate(env)
	return d
}

// nearEnd reports whether the match is judged to be ending: enough
// opponents are out of units and poorer than us, net of opponents that are
// still rich and active, or the tick limit for it has been reached.
func (s *UnitScorer) nearEnd(snap *model.Snapshot, owner string, bank float64) bool {
	uc := s.cfg.Unit
	if snap.Tick > uc.NearEndTick {
		return true
	}
	count := 0
	for _, p := range snap.Players {
		if p.ID == owner {
			continue
		}
		units := snap.UnitCount(p.ID)
		if p.Bank < uc.NearEndPoorBank && units == 0 && bank > p.Bank {
			count++
		}
		if p.Bank > uc.NearEndRichBank && units > uc.NearEndRichUnits {
			count--
		}
	}
	return count >= uc.NearEndMinOpponents
}

func (s *UnitScorer) weighConvert(d *decision, acc *accumulator) {
	uc := s.cfg.Unit
	viable := d.unit.Cargo+d.bank >= uc.MinViableConvert
	switch {
	case d.onBase:
		acc.eliminate(RuleOnBase, model.Convert)
	case d.bases == 0 && (viable || !uc.ForcedConvertViable):
		acc.add(RuleConvert, model.Convert, uc.ForcedConvertWeight)
		d.forced = true
	case !viable:
		acc.eliminate(RuleViability, model.Convert)
	case d.baseDist <= uc.MinBaseSpacing:
		acc.eliminate(RuleSpacing, model.Convert)
	default:
		threshold := uc.ConvertThreshold + uc.ConvertThresholdStep*float64(d.bases/uc.ConvertThresholdEvery)
		h := uc.ConversionHorizon - float64(d.baseDist)
		denom := math.Max(h*h*float64(d.bases), uc.Epsilon)
		acc.add(RuleConvert, model.Convert, d.t.Conversion*(d.unit.Cargo-threshold)/denom)
	}
}

// distribute keeps own units apart: never step onto an adjacent one, and
// lean away from farther ones in proportion to the cargo difference.
func (s *UnitScorer) distribute(d *decision, acc *accumulator, e survey.Entry) {
	if e.Offset.Adjacent() {
		acc.eliminate(RuleCollision, model.MoveToward(e.Offset.Step()))
		return
	}
	v := d.t.Distribution * math.Abs(d.unit.Cargo-e.Friend.Cargo)
	acc.accordingly(RuleDistribution, e.Offset, e.WeightX, e.WeightY, v)
}

// dealEnemy attacks enemies carrying no more than the unit and retreats
// from the others.
func (s *UnitScorer) dealEnemy(d *decision, acc *accumulator, e survey.Entry) {
	uc := s.cfg.Unit
	cargo, other := d.unit.Cargo, e.Unit.Cargo

	if other <= cargo {
		v := d.t.AttackUnit * (cargo - other + 1)
		if d.hasBase {
			v /= float64(d.baseDist) + uc.AttackDistanceOffset
		}
		acc.accordingly(RuleAttack, e.Offset, e.WeightX, e.WeightY, v)
		if other < cargo && e.Offset.Adjacent() {
			acc.eliminate(RulePrey, model.Harvest)
			acc.eliminate(RulePrey, model.Convert)
		}
		return
	}

	if e.Offset.Adjacent() {
		acc.eliminate(RuleThreat, model.MoveToward(e.Offset.Step()))
		acc.eliminate(RuleThreat, model.Harvest)
		return
	}
	acc.accordingly(RuleGetAway, e.Offset, e.WeightX, e.WeightY, d.t.GetAway*(cargo+uc.GetAwayCargoOffset))
	if d.hasBase && d.baseDist > 0 {
		dist := float64(e.Distance)
		v := d.t.ClosestBase * math.Pow(other-cargo, uc.RetreatExponent) / (dist * dist)
		acc.toward(RuleRetreat, survey.OffsetBetween(d.unit.Pos, d.nearest.Pos, d.snap.Size), v)
	}
}

// raid pulls empty units toward nearby enemy bases when the player can
// afford the loss, and keeps loaded units off adjacent ones.
func (s *UnitScorer) raid(d *decision, acc *accumulator, e survey.Entry) {
	uc := s.cfg.Unit
	if d.units >= uc.RaidMinUnits && d.bank > uc.RaidMinBank &&
		d.unit.Cargo < uc.RaidMaxCargo && e.Distance < uc.RaidMaxDistance {
		dist := float64(e.Distance)
		acc.accordingly(RuleRaid, e.Offset, e.WeightX, e.WeightY, uc.RaidWeight/(dist*dist))
		return
	}
	if e.Offset.Adjacent() && d.unit.Cargo > uc.DonateCargo {
		acc.eliminate(RuleDonate, model.MoveToward(e.Offset.Step()))
	}
}

// defendBases surveys around every own base. A base whose surroundings
// hold more enemy weight than friendly weight pulls the unit toward it.
func (s *UnitScorer) defendBases(d *decision, acc *accumulator) {
	uc := s.cfg.Unit
	sc := s.cfg.Survey
	for _, b := range d.snap.BasesOf(d.unit.Owner) {
		off := survey.OffsetBetween(d.unit.Pos, b.Pos, d.snap.Size)
		if off.IsZero() {
			continue
		}
		around := survey.Build(d.snap, b.Pos, d.unit.Owner, survey.Options{
			Radius:   sc.BaseDefenseRadius,
			MaxCells: survey.CellCap(d.units, sc.MaxCells, sc.CellBudget),
		})
		severity := 0.0
		for _, e := range around.Entries {
			switch e.Occupant() {
			case survey.OwnUnit:
				severity -= uc.DefenseWeight / (d.unit.Cargo + uc.DefenseCargoOffset)
			case survey.EnemyUnit:
				severity += uc.DefenseWeight / (e.Unit.Cargo + uc.DefenseCargoOffset)
			}
		}
		if severity <= 0 {
			continue
		}
		wx, wy := off.Weights()
		acc.accordingly(RuleDefense, off, wx, wy, severity)
	}
}

// harvestCell compares a surveyed cell with the current one: richer
// surroundings argue for moving, a richer current cell for staying.
func (s *UnitScorer) harvestCell(d *decision, acc *accumulator, e survey.Entry, current float64) {
	uc := s.cfg.Unit
	dist := float64(e.Distance)
	acc.add(RuleGradient, model.Harvest, uc.HarvestGradient*(current-e.Resource)/(dist+uc.Epsilon))
	density := d.t.Direction * e.Resource * math.Pow(uc.DensityGrowth, dist) * uc.DensityScale
	acc.accordingly(RuleDensity, e.Offset, e.WeightX, e.WeightY, density)
}
