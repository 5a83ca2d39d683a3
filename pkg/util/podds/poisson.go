package podds

import (
	"fmt"
	"math"
)

// PoissonPMF returns the probability of exactly k events when lambda are expected,
// exp(-lambda) * lambda^k / k!
func PoissonPMF(lambda float64, k int) float64 {
	if k < 0 {
		return 0
	}
	if lambda == 0 {
		if k == 0 {
			return 1
		}
		return 0
	}
	// work in logs so large k does not overflow the factorial
	lg, _ := math.Lgamma(float64(k + 1))
	return math.Exp(-lambda + float64(k)*math.Log(lambda) - lg)
}

// Scoreline is a single cell of the grid
type Scoreline struct {
	Home int
	Away int
}

func (s Scoreline) String() string {
	return fmt.Sprintf("%d-%d", s.Home, s.Away)
}

// ScoreGrid holds the joint probability of every scoreline from 0-0 to max-max,
// assuming independent home and away goals. Cells[h][a] is P(home=h)*P(away=a).
// Mass beyond the grid is not redistributed.
type ScoreGrid struct {
	MaxGoals int
	Cells    [][]float64
}

// NewScoreGrid evaluates both Poisson distributions over 0..maxGoals
func NewScoreGrid(lambdaHome, lambdaAway float64, maxGoals int) *ScoreGrid {
	home := make([]float64, maxGoals+1)
	away := make([]float64, maxGoals+1)
	for k := 0; k <= maxGoals; k++ {
		home[k] = PoissonPMF(lambdaHome, k)
		away[k] = PoissonPMF(lambdaAway, k)
	}

	cells := make([][]float64, maxGoals+1)
	for h := range cells {
		cells[h] = make([]float64, maxGoals+1)
		for a := range cells[h] {
			cells[h][a] = home[h] * away[a]
		}
	}
	return &ScoreGrid{MaxGoals: maxGoals, Cells: cells}
}

// Outcome returns the summed home win, draw and away win probabilities
func (g *ScoreGrid) Outcome() (homeWin, draw, awayWin float64) {
	for h, row := range g.Cells {
		for a, p := range row {
			switch {
			case h > a:
				homeWin += p
			case h == a:
				draw += p
			default:
				awayWin += p
			}
		}
	}
	return homeWin, draw, awayWin
}

// MostLikely returns the scoreline with the highest probability.
// Cells are scanned home goals first then away goals and the first maximum wins.
func (g *ScoreGrid) MostLikely() (Scoreline, float64) {
	best := Scoreline{}
	bestP := 0.0
	for h, row := range g.Cells {
		for a, p := range row {
			if p > bestP {
				bestP = p
				best = Scoreline{Home: h, Away: a}
			}
		}
	}
	return best, bestP
}

// Over returns the probability that total goals exceed line
func (g *ScoreGrid) Over(line float64) float64 {
	total := 0.0
	for h, row := range g.Cells {
		for a, p := range row {
			if float64(h+a) > line {
				total += p
			}
		}
	}
	return total
}

// Total returns the probability mass captured by the grid
func (g *ScoreGrid) Total() float64 {
	total := 0.0
	for _, row := range g.Cells {
		for _, p := range row {
			total += p
		}
	}
	return total
}
