package podds

// LambdaEstimator turns a base scoring rate into a team's expected goals
type LambdaEstimator struct {
	Modifiers []Modifier
}

// NewLambdaEstimator builds an estimator from the configured modifiers
func NewLambdaEstimator(cfg *PoddsConfig) *LambdaEstimator {
	return &LambdaEstimator{Modifiers: DefaultModifiers(cfg)}
}

// ComputeLambda multiplies base by every modifier's factor for team.
// The result is not clamped.
func (e *LambdaEstimator) ComputeLambda(base float64, team *Team) float64 {
	lambda := base
	for _, m := range e.Modifiers {
		lambda *= m.Factor(team)
	}
	return lambda
}

// Factors returns each modifier's factor keyed by modifier name
func (e *LambdaEstimator) Factors(team *Team) map[string]float64 {
	ret := make(map[string]float64, len(e.Modifiers))
	for _, m := range e.Modifiers {
		ret[m.Name()] = m.Factor(team)
	}
	return ret
}

var defaultEstimator = &LambdaEstimator{Modifiers: defaultModifiers}

// ComputeLambda applies the default form, injury and tactics modifiers to base
func ComputeLambda(base float64, team *Team) float64 {
	return defaultEstimator.ComputeLambda(base, team)
}
