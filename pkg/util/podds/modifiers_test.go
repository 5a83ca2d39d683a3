package podds

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func points(p float64) *float64 { return &p }

func TestFormFactor(t *testing.T) {
	assert.Equal(t, 1.0, FormFactor(nil))
	assert.InDelta(t, 1.0, FormFactor(points(7.5)), 1e-12)
	assert.InDelta(t, 1.1, FormFactor(points(15)), 1e-12)
	assert.InDelta(t, 0.9, FormFactor(points(0)), 1e-12)
	// clamped to the possible range
	assert.InDelta(t, 1.1, FormFactor(points(40)), 1e-12)
	assert.InDelta(t, 0.9, FormFactor(points(-3)), 1e-12)
	assert.Greater(t, FormFactor(points(12)), FormFactor(points(9)))
}

func TestInjuryFactor(t *testing.T) {
	assert.Equal(t, 1.0, InjuryFactor(nil))
	assert.InDelta(t, 0.95, InjuryFactor([]Injury{{Player: "a", Status: "out", Importance: 1}}), 1e-12)
	assert.InDelta(t, 0.975, InjuryFactor([]Injury{{Player: "a", Status: "Doubtful", Importance: 1}}), 1e-12)
	assert.Equal(t, 1.0, InjuryFactor([]Injury{{Player: "a", Status: "fit", Importance: 1}}))

	many := make([]Injury, 20)
	for i := range many {
		many[i] = Injury{Status: "out", Importance: 1}
	}
	assert.Equal(t, 0.75, InjuryFactor(many))
}

func TestTacticsFactor(t *testing.T) {
	assert.Equal(t, 1.0, TacticsFactor(Tactics{}))
	assert.Equal(t, 1.0, TacticsFactor(Tactics{Style: "route one"}))
	assert.Equal(t, 1.08, TacticsFactor(Tactics{Style: " Attacking "}))
	assert.Equal(t, 0.92, TacticsFactor(Tactics{Style: "defensive"}))
}

func TestModifiersNeutralForBareTeam(t *testing.T) {
	team := &Team{ID: "1"}
	for _, m := range DefaultModifiers(nil) {
		assert.Equal(t, 1.0, m.Factor(team), m.Name())
		assert.Equal(t, 1.0, m.Factor(nil), m.Name())
	}
}

func TestComputeLambda(t *testing.T) {
	team := &Team{
		PointsLast5: points(15),
		Injuries:    []Injury{{Status: "out", Importance: 1}},
		Tactics:     Tactics{Style: "attacking"},
	}
	assert.InDelta(t, 2*1.1*0.95*1.08, ComputeLambda(2, team), 1e-12)
	assert.Equal(t, 1.7, ComputeLambda(1.7, &Team{}))
}

func TestLambdaEstimatorSwapsStrategies(t *testing.T) {
	e := &LambdaEstimator{Modifiers: []Modifier{
		ModifierFunc{Label: "double", Fn: func(*Team) float64 { return 2 }},
	}}
	assert.Equal(t, 3.0, e.ComputeLambda(1.5, &Team{}))
	assert.Equal(t, map[string]float64{"double": 2}, e.Factors(&Team{}))

	empty := &LambdaEstimator{}
	assert.Equal(t, 1.5, empty.ComputeLambda(1.5, &Team{}))
}
