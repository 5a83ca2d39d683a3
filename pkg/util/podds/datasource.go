package podds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/richard-senior/podds-au/internal/logger"
)

// Dataset is everything the predictor needs from a data source
type Dataset struct {
	Matches []MatchRecord
	Teams   map[TeamID]*Team
}

// DataSource loads match history and teams.
// A failed load returns an error wrapping ErrSourceUnavailable, never an empty Dataset.
// When only match history fails a *PartialLoadError is returned with the teams.
type DataSource interface {
	Load(ctx context.Context) (*Dataset, error)
}

// DataSourceFunc adapts a function to DataSource
type DataSourceFunc func(ctx context.Context) (*Dataset, error)

func (f DataSourceFunc) Load(ctx context.Context) (*Dataset, error) {
	return f(ctx)
}

/////////////////////////////////////////////////////////////////////////
////// JSON files
/////////////////////////////////////////////////////////////////////////

const (
	MatchesFile = "matches.json"
	TeamsFile   = "teams.json"
)

// JSONFileSource reads matches.json (an array of records) and teams.json
// (an object keyed by team id) from Dir
type JSONFileSource struct {
	Dir string
}

func NewJSONFileSource(dir string) *JSONFileSource {
	return &JSONFileSource{Dir: dir}
}

func (s *JSONFileSource) Load(ctx context.Context) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, sourceError("json", err)
	}

	teams, err := ReadTeamsFile(filepath.Join(s.Dir, TeamsFile))
	if err != nil {
		return nil, err
	}
	ds := &Dataset{Teams: teams}

	matches, err := ReadMatchesFile(filepath.Join(s.Dir, MatchesFile))
	if err != nil {
		return ds, &PartialLoadError{Part: "matches", Err: err}
	}
	ds.Matches = matches
	logger.Debug("Loaded json data", s.Dir, len(matches), len(teams))
	return ds, nil
}

// ReadMatchesFile decodes a JSON array of match records
func ReadMatchesFile(path string) ([]MatchRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, sourceError("failed to read "+path, err)
	}
	var matches []MatchRecord
	if err := json.Unmarshal(data, &matches); err != nil {
		return nil, sourceError("failed to parse "+path, err)
	}
	return matches, nil
}

// ReadTeamsFile decodes a JSON object of teams keyed by id.
// Keys are normalised the same way as TeamID values.
func ReadTeamsFile(path string) (map[TeamID]*Team, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, sourceError("failed to read "+path, err)
	}
	var raw map[string]*Team
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, sourceError("failed to parse "+path, err)
	}
	teams := make(map[TeamID]*Team, len(raw))
	for key, team := range raw {
		id, err := NormalizeTeamID(key)
		if err != nil {
			return nil, sourceError("failed to parse "+path, err)
		}
		if team == nil {
			team = &Team{}
		}
		team.ID = id
		teams[id] = team
	}
	return teams, nil
}

/////////////////////////////////////////////////////////////////////////
////// sqlite
/////////////////////////////////////////////////////////////////////////

// AppendMatches stores records after every existing record, keeping their order
func (s *Store) AppendMatches(ctx context.Context, matches []MatchRecord) error {
	if len(matches) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var last int64
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(seq), 0) FROM match_record").Scan(&last); err != nil {
		return fmt.Errorf("failed to read last match sequence: %w", err)
	}
	for i := range matches {
		m := matches[i]
		m.Seq = last + int64(i) + 1
		if err := m.BeforeSave(); err != nil {
			return fmt.Errorf("match %d: %w", i, err)
		}
		if err := insert(ctx, tx, &m); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	logger.Info("Stored match records", len(matches))
	return nil
}

// SaveTeams inserts or updates each team
func (s *Store) SaveTeams(ctx context.Context, teams map[TeamID]*Team) error {
	objects := make([]Persistable, 0, len(teams))
	for id, t := range teams {
		if t == nil {
			continue
		}
		if t.ID == "" {
			t.ID = id
		}
		objects = append(objects, t)
	}
	return s.BulkSave(ctx, objects)
}

// ImportDataset saves the dataset's teams then appends its matches
func (s *Store) ImportDataset(ctx context.Context, ds *Dataset) error {
	if ds == nil {
		return nil
	}
	if len(ds.Teams) > 0 {
		if err := s.SaveTeams(ctx, ds.Teams); err != nil {
			return fmt.Errorf("failed to save teams: %w", err)
		}
	}
	return s.AppendMatches(ctx, ds.Matches)
}

// Team loads one stored team
func (s *Store) Team(ctx context.Context, id TeamID) (*Team, error) {
	t := &Team{}
	if err := s.FindByPrimaryKey(ctx, t, map[string]interface{}{"id": string(id)}); err != nil {
		return nil, fmt.Errorf("team %s: %w", id, err)
	}
	return t, nil
}

// RemoveTeam deletes a team and the match records written from its side,
// returning how many records went. Opponents keep their own records.
func (s *Store) RemoveTeam(ctx context.Context, id TeamID) (int64, error) {
	team := &Team{ID: id}
	found, err := s.Exists(ctx, team)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("team %s: %w", id, ErrNotFound)
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE team_id = ?", (&MatchRecord{}).GetTableName())
	res, err := s.db.ExecContext(ctx, query, string(id))
	if err != nil {
		return 0, fmt.Errorf("failed to delete matches for team %s: %w", id, err)
	}
	removed, _ := res.RowsAffected()

	if err := s.Delete(ctx, team); err != nil {
		return removed, err
	}
	logger.Info("Removed team", id, "with", removed, "match records")
	return removed, nil
}

// Matches returns every stored record in append order
func (s *Store) Matches(ctx context.Context) ([]MatchRecord, error) {
	rows, err := s.FindWhere(ctx, &MatchRecord{}, "1 = 1 ORDER BY seq")
	if err != nil {
		return nil, err
	}
	matches := make([]MatchRecord, 0, len(rows))
	for _, r := range rows {
		matches = append(matches, *r.(*MatchRecord))
	}
	return matches, nil
}

// Teams returns every stored team keyed by id
func (s *Store) Teams(ctx context.Context) (map[TeamID]*Team, error) {
	rows, err := s.FindAll(ctx, &Team{})
	if err != nil {
		return nil, err
	}
	teams := make(map[TeamID]*Team, len(rows))
	for _, r := range rows {
		t := r.(*Team)
		teams[t.ID] = t
	}
	return teams, nil
}

// Load implements DataSource
func (s *Store) Load(ctx context.Context) (*Dataset, error) {
	teams, err := s.Teams(ctx)
	if err != nil {
		return nil, sourceError("sqlite teams", err)
	}
	ds := &Dataset{Teams: teams}
	matches, err := s.Matches(ctx)
	if err != nil {
		return ds, &PartialLoadError{Part: "matches", Err: err}
	}
	ds.Matches = matches
	return ds, nil
}

/////////////////////////////////////////////////////////////////////////
////// Combining sources
/////////////////////////////////////////////////////////////////////////

// MultiSource loads each source in turn. Matches are concatenated in source
// order and a team from a later source replaces the same id from an earlier one.
// A partial failure of one source is carried forward, any other failure aborts.
type MultiSource []DataSource

func (m MultiSource) Load(ctx context.Context) (*Dataset, error) {
	if len(m) == 0 {
		return nil, sourceError("no data sources configured", errors.New("empty"))
	}
	merged := &Dataset{Teams: map[TeamID]*Team{}}
	var partial error
	for i, src := range m {
		ds, err := src.Load(ctx)
		var ple *PartialLoadError
		if err != nil && !(errors.As(err, &ple) && ds != nil) {
			return nil, fmt.Errorf("source %d: %w", i, err)
		}
		if err != nil {
			logger.Warn("Data source partially loaded", i, err)
			partial = err
		}
		merged.Matches = append(merged.Matches, ds.Matches...)
		for id, t := range ds.Teams {
			merged.Teams[id] = t
		}
	}
	return merged, partial
}
