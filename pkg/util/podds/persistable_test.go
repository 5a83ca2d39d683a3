package podds

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGenerateCreateTableSQL(t *testing.T) {
	sql := generateCreateTableSQL(&MatchRecord{}, "match_record")
	assert.True(t, strings.HasPrefix(sql, "CREATE TABLE IF NOT EXISTS match_record ("))
	assert.Contains(t, sql, "team_id TEXT NOT NULL")
	assert.Contains(t, sql, "PRIMARY KEY (seq)")

	teamSQL := generateCreateTableSQL(&Team{}, "team")
	assert.Contains(t, teamSQL, "injuries TEXT NOT NULL DEFAULT '[]'")
	// fields without a dbtype are not columns
	assert.NotContains(t, teamSQL, "tactics Tactics")

	idx := generateIndexSQL(&MatchRecord{}, "match_record")
	assert.Contains(t, idx, "CREATE INDEX IF NOT EXISTS idx_match_record_team_id ON match_record(team_id)")
}

func TestBuildWhereClauseIsOrdered(t *testing.T) {
	where, values := buildWhereClause(map[string]interface{}{"b": 2, "a": 1})
	assert.Equal(t, "a = ? AND b = ?", where)
	assert.Equal(t, []interface{}{1, 2}, values)
}

func TestStoreAppendMatchesKeepsOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := NewFixtureRecords("A-LEAGUE", "10", "20", 2, 1, testTime)
	second := NewFixtureRecords("A-LEAGUE", "20", "10", 0, 0, testTime.AddDate(0, 0, 7))
	require.NoError(t, s.AppendMatches(ctx, first))
	require.NoError(t, s.AppendMatches(ctx, second))

	matches, err := s.Matches(ctx)
	require.NoError(t, err)
	require.Len(t, matches, 4)
	for i, m := range matches {
		assert.Equal(t, int64(i+1), m.Seq)
	}
	assert.Equal(t, TeamID("10"), matches[0].TeamID)
	assert.Equal(t, TeamID("20"), matches[2].TeamID)
	assert.Equal(t, 2.0, matches[0].GoalsFor)
	assert.True(t, testTime.Equal(matches[0].PlayedAt))
	assert.Equal(t, VenueAway, matches[3].Venue)
}

func TestStoreAppendRejectsIncompleteRecord(t *testing.T) {
	s := openTestStore(t)
	err := s.AppendMatches(context.Background(), []MatchRecord{{TeamID: "1"}})
	require.Error(t, err)

	matches, err := s.Matches(context.Background())
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestStoreTeamsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	teams := map[TeamID]*Team{
		"10": {Name: "Sydney FC", PointsLast5: points(11), Tactics: Tactics{Style: "attacking"}},
		"20": {Name: "Perth Glory", Injuries: []Injury{{Player: "Keeper", Status: "doubtful", Importance: 0.5}}},
	}
	require.NoError(t, s.SaveTeams(ctx, teams))

	// saving again updates rather than duplicating
	teams["10"].Name = "Sydney"
	require.NoError(t, s.SaveTeams(ctx, teams))

	loaded, err := s.Teams(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "Sydney", loaded["10"].Name)
	require.NotNil(t, loaded["10"].PointsLast5)
	assert.Equal(t, 11.0, *loaded["10"].PointsLast5)
	assert.Equal(t, "attacking", loaded["10"].Tactics.Style)
	assert.Nil(t, loaded["20"].PointsLast5)
	assert.Equal(t, teams["20"].Injuries, loaded["20"].Injuries)
}

func TestStoreTeamAndRemoveTeam(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveTeams(ctx, scenarioTeams()))
	require.NoError(t, s.AppendMatches(ctx, scenarioMatches()))

	team, err := s.Team(ctx, "10")
	require.NoError(t, err)
	assert.Equal(t, "Sydney FC", team.Name)
	assert.Empty(t, team.Injuries)

	removed, err := s.RemoveTeam(ctx, "10")
	require.NoError(t, err)
	assert.Equal(t, int64(5), removed)

	_, err = s.Team(ctx, "10")
	assert.True(t, errors.Is(err, ErrNotFound))
	ds, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, ds.Teams, 1)
	assert.Len(t, ds.Matches, 5)
	for _, m := range ds.Matches {
		assert.Equal(t, TeamID("20"), m.TeamID)
	}

	_, err = s.RemoveTeam(ctx, "10")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStoreLoadFeedsPredictor(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveTeams(ctx, scenarioTeams()))
	require.NoError(t, s.AppendMatches(ctx, scenarioMatches()))

	ds, err := s.Load(ctx)
	require.NoError(t, err)
	res, err := Predict("10", "20", "A-LEAGUE", ds.Matches, ds.Teams, scenarioLeagues(t))
	require.NoError(t, err)
	assert.Equal(t, "2-0", res.PredictedScore)
}

func TestStoreImportDataset(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveTeams(ctx, knownTeams()))

	src := &HTMLResultsSource{
		URL:            "https://example.test/results",
		League:         "A-LEAGUE",
		Known:          knownTeams(),
		FuzzyThreshold: 0.8,
		Fetch: func(context.Context, string) ([]byte, error) {
			return []byte(resultsPage), nil
		},
	}
	ds, err := src.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, s.ImportDataset(ctx, ds))

	teams, err := s.Teams(ctx)
	require.NoError(t, err)
	assert.Len(t, teams, 3)
	matches, err := s.Matches(ctx)
	require.NoError(t, err)
	assert.Len(t, matches, 4)
	assert.Equal(t, "https://example.test/results", matches[3].Source)

	assert.NoError(t, s.ImportDataset(ctx, nil))
}
