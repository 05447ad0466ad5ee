package scoring

import (
	"github.com/damoonsh/Halite/model"
	"github.com/damoonsh/Halite/tendency"
)

// Rule names the contributor or elimination rule behind a trace entry.
type Rule string

const (
	RuleConvert      Rule = "convert"
	RuleOnBase       Rule = "on_base"
	RuleViability    Rule = "min_viable"
	RuleSpacing      Rule = "base_spacing"
	RuleCollision    Rule = "collision"
	RuleDistribution Rule = "distribution"
	RuleAttack       Rule = "attack"
	RulePrey         Rule = "prey"
	RuleThreat       Rule = "threat"
	RuleGetAway      Rule = "get_away"
	RuleRetreat      Rule = "retreat"
	RuleDeposit      Rule = "deposit"
	RuleRaid         Rule = "raid"
	RuleDonate       Rule = "donate"
	RuleDefense      Rule = "defense"
	RuleGradient     Rule = "harvest_gradient"
	RuleMining       Rule = "mining"
	RuleDensity      Rule = "density"
)

// Contribution is the summed value one rule added to one action.
type Contribution struct {
	Rule   Rule             `json:"rule"`
	Action model.UnitAction `json:"action"`
	Value  float64          `json:"value"`
}

// Elimination records the first rule that removed an action.
type Elimination struct {
	Rule   Rule             `json:"rule"`
	Action model.UnitAction `json:"action"`
}

// Candidate is a surviving action with its rounded weight.
type Candidate struct {
	Action model.UnitAction `json:"action"`
	Weight float64          `json:"weight"`
}

// UnitTrace explains one unit decision.
type UnitTrace struct {
	UnitID string         `json:"unit_id"`
	Pos    model.Position `json:"pos"`
	Cargo  float64        `json:"cargo"`

	NearEnd          bool                `json:"near_end"`
	Tendencies       tendency.Tendencies `json:"tendencies"`
	FailedTendencies []string            `json:"failed_tendencies,omitempty"`
	Surveyed         int                 `json:"surveyed"`
	Truncated        bool                `json:"truncated,omitempty"`

	Contributions []Contribution `json:"contributions"`
	Eliminations  []Elimination  `json:"eliminations,omitempty"`
	Ranking       []Candidate    `json:"ranking"`

	Action model.UnitAction `json:"action"`
	// Forced is set when the player had no base and the unit had to convert.
	Forced bool `json:"forced,omitempty"`
	// Fallback is set when every candidate was eliminated.
	Fallback bool `json:"fallback,omitempty"`
}

// Reason explains a base decision.
type Reason string

const (
	ReasonOccupied Reason = "occupied"
	ReasonNoUnits  Reason = "no_units"
	ReasonOpening  Reason = "opening"
	ReasonCutoff   Reason = "cutoff"
	ReasonWeighted Reason = "weighted"
	ReasonBank     Reason = "bank"
)

// BaseTrace explains one base decision.
type BaseTrace struct {
	BaseID string           `json:"base_id"`
	Pos    model.Position   `json:"pos"`
	Weight float64          `json:"weight"`
	Reason Reason           `json:"reason"`
	Action model.BaseAction `json:"action"`
}
