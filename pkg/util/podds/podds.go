package podds

/**
* Podds is a golang library for estimating the results of Australian football matches
* - Reads recent results for a team within a league
* - Turns the rolling averages into expected goals (lambda) for each side
* - Scores the match with a Poisson distribution over a small scoreline grid
 */
const (
	// FormWindow is the number of most recent results averaged for a team
	FormWindow = 5
	// DefaultAverageGoals is used when a team has no results in the league
	DefaultAverageGoals = 1.0
	// GridMaxGoals bounds the scoreline grid, 0..GridMaxGoals goals for each side
	GridMaxGoals = 4
	// OverGoalsLine is the total goals line reported as over2_5Goals
	OverGoalsLine = 2.5
	// LambdaPrecision and ProbabilityPrecision are decimal places used when reporting
	LambdaPrecision      = 2
	ProbabilityPrecision = 3
)
