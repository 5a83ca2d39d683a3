package podds

import (
	"math"
	"strings"
)

// Modifier scales a team's base scoring rate.
// Factor must be strictly positive and 1.0 when nothing applies.
type Modifier interface {
	Name() string
	Factor(t *Team) float64
}

// ModifierFunc adapts a plain function to the Modifier interface
type ModifierFunc struct {
	Label string
	Fn    func(t *Team) float64
}

func (m ModifierFunc) Name() string { return m.Label }

func (m ModifierFunc) Factor(t *Team) float64 {
	if t == nil || m.Fn == nil {
		return 1.0
	}
	return m.Fn(t)
}

/////////////////////////////////////////////////////////////////////////
////// Form
/////////////////////////////////////////////////////////////////////////

// FormModifier scales by points won over the last five games
type FormModifier struct {
	Sensitivity  float64
	NeutralPoint float64
	MaxPoints    float64
}

func (m FormModifier) Name() string { return "form" }

func (m FormModifier) Factor(t *Team) float64 {
	if t == nil {
		return 1.0
	}
	return m.Multiplier(t.PointsLast5)
}

// Multiplier is 1 for unknown or neutral form and moves linearly with points,
// reaching 1 +/- Sensitivity*(distance from neutral)/MaxPoints at the extremes
func (m FormModifier) Multiplier(points *float64) float64 {
	if points == nil || m.MaxPoints <= 0 {
		return 1.0
	}
	p := math.Max(0, math.Min(*points, m.MaxPoints))
	return 1 + m.Sensitivity*(p-m.NeutralPoint)/m.MaxPoints
}

/////////////////////////////////////////////////////////////////////////
////// Injuries
/////////////////////////////////////////////////////////////////////////

// InjuryModifier reduces the rate for each absent or doubtful player
type InjuryModifier struct {
	Penalty       float64
	Floor         float64
	StatusWeights map[string]float64
}

func (m InjuryModifier) Name() string { return "injuries" }

func (m InjuryModifier) Factor(t *Team) float64 {
	if t == nil {
		return 1.0
	}
	return m.Multiplier(t.Injuries)
}

func (m InjuryModifier) Multiplier(injuries []Injury) float64 {
	factor := 1.0
	for _, inj := range injuries {
		weight := m.StatusWeights[strings.ToLower(strings.TrimSpace(inj.Status))]
		importance := math.Max(0, math.Min(inj.Importance, 1))
		factor *= 1 - m.Penalty*importance*weight
	}
	if factor < m.Floor {
		return m.Floor
	}
	return factor
}

/////////////////////////////////////////////////////////////////////////
////// Tactics
/////////////////////////////////////////////////////////////////////////

// TacticsModifier looks the team's style up in a multiplier table
type TacticsModifier struct {
	Multipliers map[string]float64
}

func (m TacticsModifier) Name() string { return "tactics" }

func (m TacticsModifier) Factor(t *Team) float64 {
	if t == nil {
		return 1.0
	}
	return m.Multiplier(t.Tactics)
}

func (m TacticsModifier) Multiplier(tactics Tactics) float64 {
	if f, ok := m.Multipliers[strings.ToLower(strings.TrimSpace(tactics.Style))]; ok && f > 0 {
		return f
	}
	return 1.0
}

/////////////////////////////////////////////////////////////////////////
////// Defaults
/////////////////////////////////////////////////////////////////////////

// DefaultModifiers returns the form, injury and tactics modifiers configured by cfg
func DefaultModifiers(cfg *PoddsConfig) []Modifier {
	if cfg == nil {
		cfg = DefaultPoddsConfig()
	}
	return []Modifier{
		FormModifier{
			Sensitivity:  cfg.FormSensitivity,
			NeutralPoint: cfg.FormNeutralPoints,
			MaxPoints:    cfg.FormMaxPoints,
		},
		InjuryModifier{
			Penalty:       cfg.InjuryPenalty,
			Floor:         cfg.InjuryFloor,
			StatusWeights: cfg.InjuryStatusWeights,
		},
		TacticsModifier{Multipliers: cfg.TacticsMultipliers},
	}
}

var defaultModifiers = DefaultModifiers(DefaultPoddsConfig())

// FormFactor applies the default form modifier to points won over the last five games
func FormFactor(pointsLast5 *float64) float64 {
	return defaultModifiers[0].(FormModifier).Multiplier(pointsLast5)
}

// InjuryFactor applies the default injury modifier
func InjuryFactor(injuries []Injury) float64 {
	return defaultModifiers[1].(InjuryModifier).Multiplier(injuries)
}

// TacticsFactor applies the default tactics modifier
func TacticsFactor(tactics Tactics) float64 {
	return defaultModifiers[2].(TacticsModifier).Multiplier(tactics)
}
