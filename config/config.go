// Package config holds every tunable constant of the controller in one
// versionable structure.
package config

import (
	"errors"
	"fmt"

	"github.com/damoonsh/Halite/tendency"
)

// Version is stamped on configs produced by Default.
const Version = "2"

type Config struct {
	Version      string            `yaml:"version"`
	EpisodeSteps int               `yaml:"episode_steps"`
	Survey       SurveyConfig      `yaml:"survey"`
	Unit         UnitConfig        `yaml:"unit"`
	Base         BaseConfig        `yaml:"base"`
	Tendencies   tendency.Formulas `yaml:"tendencies"`
}

// SurveyConfig bounds the regional surveys. The per-unit cell cap is
// min(MaxCells, CellBudget / (units + 1)).
type SurveyConfig struct {
	Radius            int `yaml:"radius"`
	BaseDefenseRadius int `yaml:"base_defense_radius"`
	MaxCells          int `yaml:"max_cells"`
	CellBudget        int `yaml:"cell_budget"`
}

// UnitConfig holds the constants of the unit contributor rules.
type UnitConfig struct {
	// conversion
	ForcedConvertWeight   float64 `yaml:"forced_convert_weight"`
	ForcedConvertViable   bool    `yaml:"forced_convert_viable"` // forced convert also needs MinViableConvert
	ConvertThreshold      float64 `yaml:"convert_threshold"`
	ConvertThresholdStep  float64 `yaml:"convert_threshold_step"`
	ConvertThresholdEvery int     `yaml:"convert_threshold_every"`
	MinViableConvert      float64 `yaml:"min_viable_convert"`
	ConversionHorizon     float64 `yaml:"conversion_horizon"`
	MinBaseSpacing        int     `yaml:"min_base_spacing"`

	// near-end detection
	NearEndTick         int     `yaml:"near_end_tick"`
	NearEndMinOpponents int     `yaml:"near_end_min_opponents"`
	NearEndPoorBank     float64 `yaml:"near_end_poor_bank"`
	NearEndRichBank     float64 `yaml:"near_end_rich_bank"`
	NearEndRichUnits    int     `yaml:"near_end_rich_units"`

	// enemy units
	RetreatExponent      float64 `yaml:"retreat_exponent"`
	GetAwayCargoOffset   float64 `yaml:"get_away_cargo_offset"`
	AttackDistanceOffset float64 `yaml:"attack_distance_offset"`

	// enemy bases
	RaidMinUnits    int     `yaml:"raid_min_units"`
	RaidMinBank     float64 `yaml:"raid_min_bank"`
	RaidMaxCargo    float64 `yaml:"raid_max_cargo"`
	RaidMaxDistance int     `yaml:"raid_max_distance"`
	RaidWeight      float64 `yaml:"raid_weight"`
	DonateCargo     float64 `yaml:"donate_cargo"`

	// base defense
	DefenseWeight      float64 `yaml:"defense_weight"`
	DefenseCargoOffset float64 `yaml:"defense_cargo_offset"`

	// harvesting
	HarvestGradient float64 `yaml:"harvest_gradient"`
	DensityGrowth   float64 `yaml:"density_growth"`
	DensityScale    float64 `yaml:"density_scale"`

	Epsilon float64 `yaml:"epsilon"`
}

// BaseConfig holds the constants of the base spawn rules.
type BaseConfig struct {
	SpawnCost         float64 `yaml:"spawn_cost"`
	// PriorityWeight ranks unconditional spawns (no units left, opening)
	// against weighted ones when the bank is shared.
	PriorityWeight    float64 `yaml:"priority_weight"`
	OpeningTicks      int     `yaml:"opening_ticks"`
	SpawnCutoffTick   int     `yaml:"spawn_cutoff_tick"`
	OwnUnitPenalty    float64 `yaml:"own_unit_penalty"`
	EnemyUnitBonus    float64 `yaml:"enemy_unit_bonus"`
	EmergencyBonus    float64 `yaml:"emergency_bonus"`
	EmergencyMaxCargo float64 `yaml:"emergency_max_cargo"`
	EnemyBaseBonus    float64 `yaml:"enemy_base_bonus"`
	Threshold         float64 `yaml:"threshold"`
}

// Default returns the converged hand-tuned configuration for 400-step
// matches on a 21x21 grid.
func Default() Config {
	return Config{
		Version:      Version,
		EpisodeSteps: 400,
		Survey: SurveyConfig{
			Radius:            10,
			BaseDefenseRadius: 10,
			MaxCells:          220,
			CellBudget:        12000,
		},
		Unit: UnitConfig{
			ForcedConvertWeight:   1e8,
			ConvertThreshold:      600,
			ConvertThresholdStep:  500,
			ConvertThresholdEvery: 4,
			MinViableConvert:      500,
			ConversionHorizon:     10.99,
			MinBaseSpacing:        2,

			NearEndTick:         385,
			NearEndMinOpponents: 2,
			NearEndPoorBank:     500,
			NearEndRichBank:     2000,
			NearEndRichUnits:    1,

			RetreatExponent:      1.5,
			GetAwayCargoOffset:   0.1,
			AttackDistanceOffset: 0.1,

			RaidMinUnits:    2,
			RaidMinBank:     700,
			RaidMaxCargo:    30,
			RaidMaxDistance: 5,
			RaidWeight:      1e6,
			DonateCargo:     100,

			DefenseWeight:      1e4,
			DefenseCargoOffset: 0.99,

			HarvestGradient: 10,
			DensityGrowth:   1.25,
			DensityScale:    1.0 / 800,

			Epsilon: 1e-6,
		},
		Base: BaseConfig{
			SpawnCost:         500,
			PriorityWeight:    100,
			OpeningTicks:      50,
			SpawnCutoffTick:   392,
			OwnUnitPenalty:    11,
			EnemyUnitBonus:    10,
			EmergencyBonus:    1e3,
			EmergencyMaxCargo: 100,
			EnemyBaseBonus:    5,
			Threshold:         5,
		},
		Tendencies: tendency.DefaultFormulas(),
	}
}

// Validate rejects out-of-bound values. All problems are reported together.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.EpisodeSteps >= 1, "episode_steps must be >= 1, got %d", c.EpisodeSteps)

	s := c.Survey
	check(s.Radius >= 1, "survey.radius must be >= 1, got %d", s.Radius)
	check(s.BaseDefenseRadius >= 1, "survey.base_defense_radius must be >= 1, got %d", s.BaseDefenseRadius)
	check(s.MaxCells >= 0, "survey.max_cells must be >= 0, got %d", s.MaxCells)
	check(s.CellBudget >= 0, "survey.cell_budget must be >= 0, got %d", s.CellBudget)

	u := c.Unit
	check(u.ConvertThresholdEvery >= 1, "unit.convert_threshold_every must be >= 1, got %d", u.ConvertThresholdEvery)
	check(u.MinViableConvert >= 0, "unit.min_viable_convert must be >= 0, got %v", u.MinViableConvert)
	check(u.MinBaseSpacing >= 0, "unit.min_base_spacing must be >= 0, got %d", u.MinBaseSpacing)
	check(u.NearEndMinOpponents >= 1, "unit.near_end_min_opponents must be >= 1, got %d", u.NearEndMinOpponents)
	check(u.RaidMaxDistance >= 1, "unit.raid_max_distance must be >= 1, got %d", u.RaidMaxDistance)
	check(u.DensityGrowth > 0, "unit.density_growth must be > 0, got %v", u.DensityGrowth)
	check(u.Epsilon > 0, "unit.epsilon must be > 0, got %v", u.Epsilon)

	b := c.Base
	check(b.SpawnCost >= 0, "base.spawn_cost must be >= 0, got %v", b.SpawnCost)
	check(b.OpeningTicks >= 0, "base.opening_ticks must be >= 0, got %d", b.OpeningTicks)

	if _, err := tendency.Compile(c.Tendencies); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
