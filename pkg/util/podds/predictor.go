package podds

import (
	"fmt"
	"math"
)

// TeamLambda is one side of a PredictionResult
type TeamLambda struct {
	ID     TeamID  `json:"id"`
	Lambda float64 `json:"lambda"`
}

// Teams holds both sides of a PredictionResult
type Teams struct {
	Home TeamLambda `json:"home"`
	Away TeamLambda `json:"away"`
}

// Probabilities is the 1X2 split of a PredictionResult
type Probabilities struct {
	HomeWin float64 `json:"homeWin"`
	Draw    float64 `json:"draw"`
	AwayWin float64 `json:"awayWin"`
}

// PredictionResult is the rounded, reportable outcome of a prediction
type PredictionResult struct {
	League         string        `json:"league"` // display name of the league
	Teams          Teams         `json:"teams"`
	Probabilities  Probabilities `json:"probabilities"`
	PredictedScore string        `json:"predictedScore"`
	Over2_5Goals   float64       `json:"over2_5Goals"`
}

// MatchAnalysis holds the unrounded intermediate values of a prediction
type MatchAnalysis struct {
	League      LeagueConfig
	HomeID      TeamID
	AwayID      TeamID
	Home        *Team
	Away        *Team
	HomeFor     float64
	HomeAgainst float64
	AwayFor     float64
	AwayAgainst float64
	BaseHome    float64
	BaseAway    float64
	LambdaHome  float64
	LambdaAway  float64
	HomeWin     float64
	Draw        float64
	AwayWin     float64
	Over        float64
	MostLikely  Scoreline
	Grid        *ScoreGrid
}

// Predictor scores fixtures. It holds no mutable state and is safe for concurrent use.
type Predictor struct {
	Estimator            *LambdaEstimator
	FormWindow           int
	DefaultAverageGoals  float64
	GridMaxGoals         int
	OverGoalsLine        float64
	LambdaPrecision      int
	ProbabilityPrecision int
}

// NewPredictor builds a Predictor from cfg
func NewPredictor(cfg *PoddsConfig) *Predictor {
	if cfg == nil {
		cfg = DefaultPoddsConfig()
	}
	return &Predictor{
		Estimator:            NewLambdaEstimator(cfg),
		FormWindow:           cfg.FormWindow,
		DefaultAverageGoals:  cfg.DefaultAverageGoals,
		GridMaxGoals:         cfg.GridMaxGoals,
		OverGoalsLine:        cfg.OverGoalsLine,
		LambdaPrecision:      cfg.LambdaPrecision,
		ProbabilityPrecision: cfg.ProbabilityPrecision,
	}
}

// Predict scores the fixture with the default configuration
func Predict(homeID, awayID TeamID, leagueCode string, matches []MatchRecord, teams map[TeamID]*Team, leagues *LeagueTable) (*PredictionResult, error) {
	return NewPredictor(nil).Predict(homeID, awayID, leagueCode, matches, teams, leagues)
}

// Predict returns the rounded prediction for homeID against awayID in leagueCode.
// No partial result is returned on error.
func (p *Predictor) Predict(homeID, awayID TeamID, leagueCode string, matches []MatchRecord, teams map[TeamID]*Team, leagues *LeagueTable) (*PredictionResult, error) {
	a, err := p.Analyse(homeID, awayID, leagueCode, matches, teams, leagues)
	if err != nil {
		return nil, err
	}
	return p.Result(a), nil
}

// Analyse runs the model and returns every intermediate value unrounded
func (p *Predictor) Analyse(homeID, awayID TeamID, leagueCode string, matches []MatchRecord, teams map[TeamID]*Team, leagues *LeagueTable) (*MatchAnalysis, error) {
	league, err := leagues.Lookup(leagueCode)
	if err != nil {
		return nil, err
	}
	home, away := teams[homeID], teams[awayID]
	if home == nil || away == nil {
		return nil, fmt.Errorf("home %q, away %q: %w", homeID, awayID, ErrUnknownTeam)
	}

	a := &MatchAnalysis{League: league, HomeID: homeID, AwayID: awayID, Home: home, Away: away}
	a.HomeFor = AverageStatWindow(matches, homeID, leagueCode, GoalsFor, p.FormWindow, p.DefaultAverageGoals)
	a.HomeAgainst = AverageStatWindow(matches, homeID, leagueCode, GoalsAgainst, p.FormWindow, p.DefaultAverageGoals)
	a.AwayFor = AverageStatWindow(matches, awayID, leagueCode, GoalsFor, p.FormWindow, p.DefaultAverageGoals)
	a.AwayAgainst = AverageStatWindow(matches, awayID, leagueCode, GoalsAgainst, p.FormWindow, p.DefaultAverageGoals)

	// attack strength * opposition defensive weakness * league average
	avg := league.LeagueAvgGoals
	a.BaseHome = (a.HomeFor / avg) * (a.AwayAgainst / avg) * avg * league.HomeAdvantage
	a.BaseAway = (a.AwayFor / avg) * (a.HomeAgainst / avg) * avg

	a.LambdaHome = p.Estimator.ComputeLambda(a.BaseHome, home)
	a.LambdaAway = p.Estimator.ComputeLambda(a.BaseAway, away)

	a.Grid = NewScoreGrid(a.LambdaHome, a.LambdaAway, p.GridMaxGoals)
	a.HomeWin, a.Draw, a.AwayWin = a.Grid.Outcome()
	a.MostLikely, _ = a.Grid.MostLikely()
	a.Over = a.Grid.Over(p.OverGoalsLine)
	return a, nil
}

// Result rounds an analysis for display
func (p *Predictor) Result(a *MatchAnalysis) *PredictionResult {
	return &PredictionResult{
		League: a.League.Name,
		Teams: Teams{
			Home: TeamLambda{ID: a.HomeID, Lambda: RoundTo(a.LambdaHome, p.LambdaPrecision)},
			Away: TeamLambda{ID: a.AwayID, Lambda: RoundTo(a.LambdaAway, p.LambdaPrecision)},
		},
		Probabilities: Probabilities{
			HomeWin: RoundTo(a.HomeWin, p.ProbabilityPrecision),
			Draw:    RoundTo(a.Draw, p.ProbabilityPrecision),
			AwayWin: RoundTo(a.AwayWin, p.ProbabilityPrecision),
		},
		PredictedScore: a.MostLikely.String(),
		Over2_5Goals:   RoundTo(a.Over, p.ProbabilityPrecision),
	}
}

// RoundTo rounds x to places decimal places, halves away from zero
func RoundTo(x float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(x*pow) / pow
}
