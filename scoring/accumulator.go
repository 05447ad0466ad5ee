package scoring

import (
	"math"
	"sort"

	"github.com/damoonsh/Halite/model"
	"github.com/damoonsh/Halite/survey"
)

const numActions = len(model.CandidateOrder)

type contribKey struct {
	rule   Rule
	action model.UnitAction
}

// accumulator holds the weights of one decision. A new one is made per
// Score call; nothing is shared between units.
type accumulator struct {
	weights    [numActions]float64
	eliminated [numActions]bool

	index         map[contribKey]int
	contributions []Contribution
	eliminations  []Elimination
}

func newAccumulator() *accumulator {
	return &accumulator{index: make(map[contribKey]int)}
}

func (a *accumulator) add(rule Rule, act model.UnitAction, v float64) {
	if v == 0 || math.IsNaN(v) {
		return
	}
	a.weights[act] += v
	k := contribKey{rule, act}
	if i, ok := a.index[k]; ok {
		a.contributions[i].Value += v
		return
	}
	a.index[k] = len(a.contributions)
	a.contributions = append(a.contributions, Contribution{Rule: rule, Action: act, Value: v})
}

// accordingly splits v over the two axis directions of off using the decay
// weights wx and wy. An axis with zero weight receives nothing.
func (a *accumulator) accordingly(rule Rule, off survey.Offset, wx, wy, v float64) {
	if wx != 0 {
		a.add(rule, model.MoveToward(off.X.Dir), v*wx)
	}
	if wy != 0 {
		a.add(rule, model.MoveToward(off.Y.Dir), v*wy)
	}
}

// toward adds v to the primary directions of off on both travelled axes,
// without decay.
func (a *accumulator) toward(rule Rule, off survey.Offset, v float64) {
	if off.X.Dir != model.None {
		a.add(rule, model.MoveToward(off.X.Dir), v)
	}
	if off.Y.Dir != model.None {
		a.add(rule, model.MoveToward(off.Y.Dir), v)
	}
}

// eliminate removes act from selection. Repeated eliminations are no-ops.
func (a *accumulator) eliminate(rule Rule, act model.UnitAction) {
	if a.eliminated[act] {
		return
	}
	a.eliminated[act] = true
	a.eliminations = append(a.eliminations, Elimination{Rule: rule, Action: act})
}

// rank returns the surviving actions ordered by rounded weight, ties in
// candidate order.
func (a *accumulator) rank() []Candidate {
	out := make([]Candidate, 0, numActions)
	for _, act := range model.CandidateOrder {
		if a.eliminated[act] {
			continue
		}
		out = append(out, Candidate{Action: act, Weight: round(a.weights[act], 1)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Weight > out[j].Weight })
	return out
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
