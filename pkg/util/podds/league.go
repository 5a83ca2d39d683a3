package podds

import (
	"fmt"
)

// LeagueConfig holds the scoring environment of one league
type LeagueConfig struct {
	Code           string  `json:"code" yaml:"code"`
	Name           string  `json:"name" yaml:"name"`
	LeagueAvgGoals float64 `json:"leagueAvgGoals" yaml:"league_avg_goals"` // average goals per team per game
	HomeAdvantage  float64 `json:"homeAdvantage" yaml:"home_advantage"`    // multiplier applied to the home side
}

// AustralianLeagueCodes is the allow-list of league codes a LeagueTable may hold
var AustralianLeagueCodes = []string{
	"A-LEAGUE",
	"A-LEAGUE-W",
	"NPL-NSW",
	"NPL-VIC",
	"NPL-QLD",
	"NPL-SA",
	"NPL-WA",
}

var defaultLeagues = []LeagueConfig{
	{Code: "A-LEAGUE", Name: "A-League Men", LeagueAvgGoals: 1.45, HomeAdvantage: 1.12},
	{Code: "A-LEAGUE-W", Name: "A-League Women", LeagueAvgGoals: 1.55, HomeAdvantage: 1.08},
	{Code: "NPL-NSW", Name: "NPL New South Wales", LeagueAvgGoals: 1.6, HomeAdvantage: 1.1},
	{Code: "NPL-VIC", Name: "NPL Victoria", LeagueAvgGoals: 1.55, HomeAdvantage: 1.1},
	{Code: "NPL-QLD", Name: "NPL Queensland", LeagueAvgGoals: 1.75, HomeAdvantage: 1.08},
	{Code: "NPL-SA", Name: "NPL South Australia", LeagueAvgGoals: 1.6, HomeAdvantage: 1.1},
	{Code: "NPL-WA", Name: "NPL Western Australia", LeagueAvgGoals: 1.65, HomeAdvantage: 1.1},
}

// LeagueTable is the read only set of supported leagues, keyed by code
type LeagueTable struct {
	leagues map[string]LeagueConfig
	order   []string
}

// NewLeagueTable validates configs against the allow-list and builds a table.
// Codes are matched exactly.
func NewLeagueTable(configs []LeagueConfig) (*LeagueTable, error) {
	allowed := make(map[string]bool, len(AustralianLeagueCodes))
	for _, code := range AustralianLeagueCodes {
		allowed[code] = true
	}

	t := &LeagueTable{leagues: make(map[string]LeagueConfig, len(configs))}
	for _, lc := range configs {
		if !allowed[lc.Code] {
			return nil, fmt.Errorf("%w: league %q: %w", ErrInvalidConfig, lc.Code, ErrUnsupportedLeague)
		}
		if _, dup := t.leagues[lc.Code]; dup {
			return nil, fmt.Errorf("%w: league %q is configured twice", ErrInvalidConfig, lc.Code)
		}
		if lc.LeagueAvgGoals <= 0 {
			return nil, fmt.Errorf("%w: league %q must have a positive average goals, got: %f", ErrInvalidConfig, lc.Code, lc.LeagueAvgGoals)
		}
		if lc.HomeAdvantage <= 0 {
			return nil, fmt.Errorf("%w: league %q must have a positive home advantage, got: %f", ErrInvalidConfig, lc.Code, lc.HomeAdvantage)
		}
		t.leagues[lc.Code] = lc
		t.order = append(t.order, lc.Code)
	}
	return t, nil
}

// DefaultLeagueTable returns the built in Australian league table
func DefaultLeagueTable() *LeagueTable {
	t, err := NewLeagueTable(defaultLeagues)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the league for code or an error wrapping ErrUnsupportedLeague
func (t *LeagueTable) Lookup(code string) (LeagueConfig, error) {
	if t != nil {
		if lc, ok := t.leagues[code]; ok {
			return lc, nil
		}
	}
	return LeagueConfig{}, fmt.Errorf("league %q: %w", code, ErrUnsupportedLeague)
}

// Supports reports whether code is in the table
func (t *LeagueTable) Supports(code string) bool {
	_, err := t.Lookup(code)
	return err == nil
}

// List returns the leagues in configuration order
func (t *LeagueTable) List() []LeagueConfig {
	if t == nil {
		return nil
	}
	ret := make([]LeagueConfig, 0, len(t.order))
	for _, code := range t.order {
		ret = append(ret, t.leagues[code])
	}
	return ret
}
