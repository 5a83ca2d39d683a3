package podds

import (
	"fmt"
	"time"
)

// Venue values of a MatchRecord
const (
	VenueHome = "home"
	VenueAway = "away"
)

// MatchRecord is one team's view of a single historical fixture.
// A played fixture normally yields two records, one per team.
type MatchRecord struct {
	Seq          int64     `json:"-" column:"seq" dbtype:"INTEGER" primary:"true"`
	TeamID       TeamID    `json:"teamId" column:"team_id" dbtype:"TEXT NOT NULL" index:"true"`
	League       string    `json:"league" column:"league" dbtype:"TEXT NOT NULL" index:"true"`
	GoalsFor     float64   `json:"goalsFor" column:"goals_for" dbtype:"REAL NOT NULL"`
	GoalsAgainst float64   `json:"goalsAgainst" column:"goals_against" dbtype:"REAL NOT NULL"`
	Opponent     TeamID    `json:"opponent,omitempty" column:"opponent" dbtype:"TEXT NOT NULL DEFAULT ''"`
	Venue        string    `json:"venue,omitempty" column:"venue" dbtype:"TEXT NOT NULL DEFAULT ''"`
	PlayedAt     time.Time `json:"playedAt,omitempty" column:"played_at" dbtype:"DATETIME"`
	Source       string    `json:"-" column:"source" dbtype:"TEXT NOT NULL DEFAULT ''"`
}

/////////////////////////////////////////////////////////////////////////
////// Persistable Interface Implementation
/////////////////////////////////////////////////////////////////////////

// GetPrimaryKey returns the primary key as a map
func (m *MatchRecord) GetPrimaryKey() map[string]interface{} {
	return map[string]interface{}{
		"seq": m.Seq,
	}
}

// SetPrimaryKey sets the primary key from a map
func (m *MatchRecord) SetPrimaryKey(pk map[string]interface{}) error {
	seq, ok := pk["seq"]
	if !ok {
		return fmt.Errorf("primary key 'seq' not found")
	}
	switch v := seq.(type) {
	case int64:
		m.Seq = v
	case int:
		m.Seq = int64(v)
	default:
		return fmt.Errorf("primary key 'seq' must be an integer, got %T", seq)
	}
	return nil
}

// GetTableName returns the table name for match records
func (m *MatchRecord) GetTableName() string {
	return "match_record"
}

// BeforeSave rejects records the form aggregator could never match
func (m *MatchRecord) BeforeSave() error {
	if m.TeamID == "" {
		return fmt.Errorf("match record has no team id")
	}
	if m.League == "" {
		return fmt.Errorf("match record for team %s has no league", m.TeamID)
	}
	return nil
}

func (m *MatchRecord) AfterSave() error    { return nil }
func (m *MatchRecord) BeforeDelete() error { return nil }
func (m *MatchRecord) AfterDelete() error  { return nil }

// NewFixtureRecords returns the home and away perspective of one played fixture
func NewFixtureRecords(league string, home, away TeamID, homeGoals, awayGoals int, playedAt time.Time) []MatchRecord {
	return []MatchRecord{
		{
			TeamID:       home,
			League:       league,
			GoalsFor:     float64(homeGoals),
			GoalsAgainst: float64(awayGoals),
			Opponent:     away,
			Venue:        VenueHome,
			PlayedAt:     playedAt,
		},
		{
			TeamID:       away,
			League:       league,
			GoalsFor:     float64(awayGoals),
			GoalsAgainst: float64(homeGoals),
			Opponent:     home,
			Venue:        VenueAway,
			PlayedAt:     playedAt,
		},
	}
}
