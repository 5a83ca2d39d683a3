package podds

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2024, 10, 19, 9, 0, 0, 0, time.UTC)

const teamsJSON = `{
	"10": {"name": "Sydney FC", "pointsLast5": 10, "tactics": {"style": "possession"}},
	"20": {"name": "Perth Glory", "injuries": [{"player": "Keeper", "status": "out", "importance": 1}]}
}`

const matchesJSON = `[
	{"teamId": 10, "league": "A-LEAGUE", "goalsFor": 2, "goalsAgainst": 0},
	{"teamId": "20", "league": "A-LEAGUE", "goalsFor": 0, "goalsAgainst": 2},
	{"teamId": 10.0, "league": "A-LEAGUE", "goalsFor": 4, "goalsAgainst": 1}
]`

func writeDataDir(t *testing.T, teams, matches string) string {
	t.Helper()
	dir := t.TempDir()
	if teams != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, TeamsFile), []byte(teams), 0o644))
	}
	if matches != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, MatchesFile), []byte(matches), 0o644))
	}
	return dir
}

func TestJSONFileSourceLoad(t *testing.T) {
	dir := writeDataDir(t, teamsJSON, matchesJSON)
	ds, err := NewJSONFileSource(dir).Load(context.Background())
	require.NoError(t, err)

	require.Len(t, ds.Teams, 2)
	assert.Equal(t, TeamID("10"), ds.Teams["10"].ID)
	assert.Equal(t, "possession", ds.Teams["10"].Tactics.Style)
	require.NotNil(t, ds.Teams["10"].PointsLast5)
	assert.Equal(t, 10.0, *ds.Teams["10"].PointsLast5)
	assert.Len(t, ds.Teams["20"].Injuries, 1)

	require.Len(t, ds.Matches, 3)
	assert.InDelta(t, 3.0, AverageStat(ds.Matches, "10", "A-LEAGUE", GoalsFor), 1e-12)
}

func TestJSONFileSourceMissingTeams(t *testing.T) {
	dir := writeDataDir(t, "", matchesJSON)
	ds, err := NewJSONFileSource(dir).Load(context.Background())
	assert.Nil(t, ds)
	assert.True(t, errors.Is(err, ErrSourceUnavailable))

	var partial *PartialLoadError
	assert.False(t, errors.As(err, &partial))
}

func TestJSONFileSourceMalformedMatchesIsPartial(t *testing.T) {
	dir := writeDataDir(t, teamsJSON, `[{"teamId": `)
	ds, err := NewJSONFileSource(dir).Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSourceUnavailable))

	var partial *PartialLoadError
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, "matches", partial.Part)
	require.NotNil(t, ds)
	assert.Len(t, ds.Teams, 2)
	assert.Empty(t, ds.Matches)
}

func TestMultiSourceMerges(t *testing.T) {
	first := DataSourceFunc(func(context.Context) (*Dataset, error) {
		return &Dataset{
			Matches: []MatchRecord{record("1", "A-LEAGUE", 1, 0)},
			Teams:   map[TeamID]*Team{"1": {ID: "1", Name: "old"}},
		}, nil
	})
	second := DataSourceFunc(func(context.Context) (*Dataset, error) {
		return &Dataset{
			Matches: []MatchRecord{record("1", "A-LEAGUE", 3, 0)},
			Teams:   map[TeamID]*Team{"1": {ID: "1", Name: "new"}, "2": {ID: "2"}},
		}, nil
	})

	ds, err := MultiSource{first, second}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new", ds.Teams["1"].Name)
	assert.Len(t, ds.Teams, 2)
	require.Len(t, ds.Matches, 2)
	assert.Equal(t, 3.0, ds.Matches[1].GoalsFor)
}

func TestMultiSourceFailures(t *testing.T) {
	ok := DataSourceFunc(func(context.Context) (*Dataset, error) {
		return &Dataset{Teams: map[TeamID]*Team{"1": {ID: "1"}}}, nil
	})
	broken := DataSourceFunc(func(context.Context) (*Dataset, error) {
		return nil, sourceError("broken", errors.New("disk on fire"))
	})
	partial := DataSourceFunc(func(context.Context) (*Dataset, error) {
		return &Dataset{Teams: map[TeamID]*Team{"2": {ID: "2"}}}, &PartialLoadError{Part: "matches", Err: errors.New("timeout")}
	})

	_, err := MultiSource{ok, broken}.Load(context.Background())
	assert.True(t, errors.Is(err, ErrSourceUnavailable))

	ds, err := MultiSource{ok, partial}.Load(context.Background())
	var ple *PartialLoadError
	require.True(t, errors.As(err, &ple))
	assert.Len(t, ds.Teams, 2)

	_, err = MultiSource{}.Load(context.Background())
	assert.True(t, errors.Is(err, ErrSourceUnavailable))
}
