package podds

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/richard-senior/podds-au/pkg/util"
)

// TeamID is the canonical identifier of a team.
// Numeric ids are held in their shortest decimal form so that 7, "7" and 7.0
// all refer to the same team.
type TeamID string

// NormalizeTeamID converts a string or number into its canonical TeamID
func NormalizeTeamID(v any) (TeamID, error) {
	s, err := util.GetAsString(v)
	if err != nil {
		return "", fmt.Errorf("invalid team id: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("invalid team id: empty")
	}
	if n, ok := canonicalNumber(s); ok {
		return TeamID(n), nil
	}
	return TeamID(s), nil
}

// ids written with larger exponents are kept as plain strings
const maxIDExponent = 64

var decimalPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)(?:[eE]([+-]?\d+))?$`)

// canonicalNumber renders a decimal string exactly in its shortest form,
// so "007", "7.0" and "7e0" agree while long ids keep every digit
func canonicalNumber(s string) (string, bool) {
	groups := decimalPattern.FindStringSubmatch(s)
	if groups == nil {
		return "", false
	}
	if groups[2] != "" {
		exp, err := strconv.Atoi(groups[2])
		if err != nil || exp > maxIDExponent || exp < -maxIDExponent {
			return "", false
		}
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return "", false
	}
	if r.IsInt() {
		return r.Num().String(), true
	}
	// a terminating decimal never needs more places than the bit length of its denominator
	out := r.FloatString(r.Denom().BitLen())
	out = strings.TrimRight(out, "0")
	return strings.TrimSuffix(out, "."), true
}

// UnmarshalJSON accepts both JSON strings and numbers
func (id *TeamID) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	if v == nil {
		*id = ""
		return nil
	}
	switch v.(type) {
	case string, json.Number:
	default:
		return fmt.Errorf("invalid team id %s", string(b))
	}
	n, err := NormalizeTeamID(v)
	if err != nil {
		return err
	}
	*id = n
	return nil
}

func (id TeamID) String() string {
	return string(id)
}

// Injury is a single player absence
type Injury struct {
	Player     string  `json:"player"`
	Status     string  `json:"status"`     // "out" or "doubtful"
	Importance float64 `json:"importance"` // 0 (squad player) .. 1 (key player)
}

// Tactics describes how a team sets up
type Tactics struct {
	Style     string `json:"style"`
	Formation string `json:"formation,omitempty"`
}

// Team represents a team with the attributes read by the strength modifiers
type Team struct {
	ID          TeamID    `json:"id,omitempty" column:"id" dbtype:"TEXT" primary:"true"`
	Name        string    `json:"name" column:"name" dbtype:"TEXT NOT NULL DEFAULT ''" index:"true"`
	PointsLast5 *float64  `json:"pointsLast5,omitempty" column:"points_last5" dbtype:"REAL"`
	Injuries    []Injury  `json:"injuries,omitempty"`
	Tactics     Tactics   `json:"tactics,omitempty"`
	InjuryData  string    `json:"-" column:"injuries" dbtype:"TEXT NOT NULL DEFAULT '[]'"`
	TacticsData string    `json:"-" column:"tactics" dbtype:"TEXT NOT NULL DEFAULT '{}'"`
	CreatedAt   time.Time `json:"-" column:"created_at" dbtype:"DATETIME DEFAULT CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time `json:"-" column:"updated_at" dbtype:"DATETIME DEFAULT CURRENT_TIMESTAMP"`
}

/////////////////////////////////////////////////////////////////////////
////// Persistable Interface Implementation
/////////////////////////////////////////////////////////////////////////

// GetPrimaryKey returns the primary key as a map
func (t *Team) GetPrimaryKey() map[string]interface{} {
	return map[string]interface{}{
		"id": string(t.ID),
	}
}

// SetPrimaryKey sets the primary key from a map
func (t *Team) SetPrimaryKey(pk map[string]interface{}) error {
	id, ok := pk["id"]
	if !ok {
		return fmt.Errorf("primary key 'id' not found")
	}
	n, err := NormalizeTeamID(id)
	if err != nil {
		return fmt.Errorf("primary key 'id': %w", err)
	}
	t.ID = n
	return nil
}

// GetTableName returns the table name for teams
func (t *Team) GetTableName() string {
	return "team"
}

// BeforeSave stamps the team and serialises the columns held as JSON text
func (t *Team) BeforeSave() error {
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	injuries := t.Injuries
	if injuries == nil {
		injuries = []Injury{}
	}
	b, err := json.Marshal(injuries)
	if err != nil {
		return fmt.Errorf("failed to encode injuries for team %s: %w", t.ID, err)
	}
	t.InjuryData = string(b)

	b, err = json.Marshal(t.Tactics)
	if err != nil {
		return fmt.Errorf("failed to encode tactics for team %s: %w", t.ID, err)
	}
	t.TacticsData = string(b)
	return nil
}

// AfterLoad restores the JSON text columns
func (t *Team) AfterLoad() error {
	if t.InjuryData != "" {
		if err := json.Unmarshal([]byte(t.InjuryData), &t.Injuries); err != nil {
			return fmt.Errorf("failed to decode injuries for team %s: %w", t.ID, err)
		}
	}
	if t.TacticsData != "" {
		if err := json.Unmarshal([]byte(t.TacticsData), &t.Tactics); err != nil {
			return fmt.Errorf("failed to decode tactics for team %s: %w", t.ID, err)
		}
	}
	return nil
}

func (t *Team) AfterSave() error    { return nil }
func (t *Team) BeforeDelete() error { return nil }
func (t *Team) AfterDelete() error  { return nil }

// DisplayName returns the team name, falling back to the id
func (t *Team) DisplayName() string {
	if t == nil {
		return ""
	}
	if t.Name != "" {
		return t.Name
	}
	return string(t.ID)
}
