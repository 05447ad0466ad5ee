// Package tendency turns the match situation of one unit into the scale
// factors used by the contributor rules. Each factor is an expr formula
// compiled once at configuration time and evaluated per decision.
package tendency

import "github.com/expr-lang/expr/vm"

// Env is the variable set visible to tendency formulas.
type Env struct {
	Step                int     // current tick
	EpisodeSteps        int     // configured match length
	Cargo               float64 // acting unit's cargo
	Bank                float64 // controller's banked total
	ClosestBaseDistance float64 // 0 when HasBase is false
	HasBase             bool
	NearEnd             bool
	BaseCount           int
	UnitCount           int
}

// Formulas holds the expr source of every tendency.
type Formulas struct {
	Mining       string `yaml:"mining" json:"mining"`
	Deposit      string `yaml:"deposit" json:"deposit"`
	Direction    string `yaml:"direction" json:"direction"`
	GetAway      string `yaml:"get_away" json:"get_away"`
	AttackUnit   string `yaml:"attack_unit" json:"attack_unit"`
	Distribution string `yaml:"distribution" json:"distribution"`
	ClosestBase  string `yaml:"closest_base" json:"closest_base"`
	Conversion   string `yaml:"conversion" json:"conversion"`
}

// DefaultFormulas returns the hand-tuned tendency formulas.
func DefaultFormulas() Formulas {
	return Formulas{
		// mining grows as the match goes on: moving gets riskier late
		Mining:       `10 + floor(Step / 40)`,
		Deposit:      `5 + 5 * floor(Cargo / 300) * (floor(Step / 100) + 1) / (ClosestBaseDistance + 1) + (NearEnd ? 5000 : 0)`,
		Direction:    `100 * max(EpisodeSteps - Step, 0) / (floor(Cargo / 250) + 1)`,
		GetAway:      `-10 * (floor(Cargo / 50) + 1)`,
		AttackUnit:   `100 / ((floor(Cargo / 100) + 1) * (floor(Step / 50) + 1))`,
		Distribution: `-20 / ((floor(Step / 20) + 1) * (floor(Cargo / 100) + 1))`,
		ClosestBase:  `floor(Step / 25) + 1`,
		Conversion:   `max(60 - BaseCount * 10, 5)`,
	}
}

// Kind identifies one tendency.
type Kind int

const (
	Mining Kind = iota
	Deposit
	Direction
	GetAway
	AttackUnit
	Distribution
	ClosestBase
	Conversion
	numKinds
)

var kindNames = [numKinds]string{
	"mining", "deposit", "direction", "get_away",
	"attack_unit", "distribution", "closest_base", "conversion",
}

func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return "unknown"
	}
	return kindNames[k]
}

func (f Formulas) source(k Kind) string {
	switch k {
	case Mining:
		return f.Mining
	case Deposit:
		return f.Deposit
	case Direction:
		return f.Direction
	case GetAway:
		return f.GetAway
	case AttackUnit:
		return f.AttackUnit
	case Distribution:
		return f.Distribution
	case ClosestBase:
		return f.ClosestBase
	case Conversion:
		return f.Conversion
	}
	return ""
}

// formula is a compiled tendency. Source is kept for traces.
type formula struct {
	kind    Kind
	Source  string
	program *vm.Program
}

// Tendencies are the evaluated scale factors for one decision.
type Tendencies struct {
	Mining       float64 `json:"mining"`
	Deposit      float64 `json:"deposit"`
	Direction    float64 `json:"direction"`
	GetAway      float64 `json:"get_away"`
	AttackUnit   float64 `json:"attack_unit"`
	Distribution float64 `json:"distribution"`
	ClosestBase  float64 `json:"closest_base"`
	Conversion   float64 `json:"conversion"`
}

func (t *Tendencies) set(k Kind, v float64) {
	switch k {
	case Mining:
		t.Mining = v
	case Deposit:
		t.Deposit = v
	case Direction:
		t.Direction = v
	case GetAway:
		t.GetAway = v
	case AttackUnit:
		t.AttackUnit = v
	case Distribution:
		t.Distribution = v
	case ClosestBase:
		t.ClosestBase = v
	case Conversion:
		t.Conversion = v
	}
}
