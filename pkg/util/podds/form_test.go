package podds

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func record(team TeamID, league string, gf, ga float64) MatchRecord {
	return MatchRecord{TeamID: team, League: league, GoalsFor: gf, GoalsAgainst: ga}
}

func TestAverageStatDefaultsWithoutHistory(t *testing.T) {
	matches := []MatchRecord{record("7", "NPL-NSW", 3, 0)}
	assert.Equal(t, 1.0, AverageStat(nil, "7", "A-LEAGUE", GoalsFor))
	assert.Equal(t, 1.0, AverageStat(matches, "7", "A-LEAGUE", GoalsFor))
	assert.Equal(t, 1.0, AverageStat(matches, "8", "NPL-NSW", GoalsAgainst))
}

func TestAverageStatUsesLastFive(t *testing.T) {
	matches := []MatchRecord{
		record("1", "A-LEAGUE", 9, 9), // older, outside the window
		record("1", "A-LEAGUE", 9, 9),
		record("1", "A-LEAGUE", 2, 1),
		record("2", "A-LEAGUE", 5, 5),
		record("1", "A-LEAGUE", 1, 0),
		record("1", "NPL-VIC", 7, 7),
		record("1", "A-LEAGUE", 3, 2),
		record("1", "A-LEAGUE", 2, 1),
		record("1", "A-LEAGUE", 2, 1),
	}
	assert.InDelta(t, 2.0, AverageStat(matches, "1", "A-LEAGUE", GoalsFor), 1e-12)
	assert.InDelta(t, 1.0, AverageStat(matches, "1", "A-LEAGUE", GoalsAgainst), 1e-12)
	assert.InDelta(t, 7.0, AverageStat(matches, "1", "NPL-VIC", GoalsFor), 1e-12)
}

func TestAverageStatFewerThanWindow(t *testing.T) {
	matches := []MatchRecord{record("1", "A-LEAGUE", 1, 2), record("1", "A-LEAGUE", 2, 4)}
	assert.InDelta(t, 1.5, AverageStat(matches, "1", "A-LEAGUE", GoalsFor), 1e-12)
	assert.InDelta(t, 3.0, AverageStat(matches, "1", "A-LEAGUE", GoalsAgainst), 1e-12)
}

func TestAverageStatLeagueIsExact(t *testing.T) {
	matches := []MatchRecord{record("1", "a-league", 4, 4)}
	assert.Equal(t, 1.0, AverageStat(matches, "1", "A-LEAGUE", GoalsFor))
}

func TestRecentMatchesOldestFirst(t *testing.T) {
	matches := []MatchRecord{
		record("1", "A-LEAGUE", 1, 0),
		record("1", "A-LEAGUE", 2, 0),
		record("1", "A-LEAGUE", 3, 0),
	}
	recent := RecentMatches(matches, "1", "A-LEAGUE", 2)
	if assert.Len(t, recent, 2) {
		assert.Equal(t, 2.0, recent[0].GoalsFor)
		assert.Equal(t, 3.0, recent[1].GoalsFor)
	}
	assert.Empty(t, RecentMatches(matches, "1", "A-LEAGUE", 0))
}

func TestNewTeamForm(t *testing.T) {
	matches := []MatchRecord{record("1", "A-LEAGUE", 1, 2), record("1", "A-LEAGUE", 3, 0)}
	form := NewTeamForm(matches, "1", "A-LEAGUE", 5, 1)
	assert.Equal(t, 2, form.Matches)
	assert.InDelta(t, 2.0, form.GoalsFor, 1e-12)
	assert.InDelta(t, 1.0, form.GoalsAgainst, 1e-12)
}
