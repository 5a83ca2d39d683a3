package podds

// StatField selects which side of a MatchRecord is averaged
type StatField int

const (
	GoalsFor StatField = iota
	GoalsAgainst
)

func (f StatField) String() string {
	if f == GoalsAgainst {
		return "goalsAgainst"
	}
	return "goalsFor"
}

func (f StatField) value(m *MatchRecord) float64 {
	if f == GoalsAgainst {
		return m.GoalsAgainst
	}
	return m.GoalsFor
}

// AverageStat averages field over the last FormWindow records for teamID in league.
// Returns DefaultAverageGoals when the team has no records in the league.
func AverageStat(matches []MatchRecord, teamID TeamID, league string, field StatField) float64 {
	return AverageStatWindow(matches, teamID, league, field, FormWindow, DefaultAverageGoals)
}

// AverageStatWindow is AverageStat with an explicit window and fallback
func AverageStatWindow(matches []MatchRecord, teamID TeamID, league string, field StatField, window int, fallback float64) float64 {
	recent := RecentMatches(matches, teamID, league, window)
	if len(recent) == 0 {
		return fallback
	}
	sum := 0.0
	for i := range recent {
		sum += field.value(&recent[i])
	}
	return sum / float64(len(recent))
}

// RecentMatches returns up to window of the latest records for teamID in league,
// oldest first. Records are taken in slice order, not by PlayedAt.
func RecentMatches(matches []MatchRecord, teamID TeamID, league string, window int) []MatchRecord {
	if window <= 0 {
		return nil
	}
	var found []MatchRecord
	// walk backwards so only the tail is collected
	for i := len(matches) - 1; i >= 0 && len(found) < window; i-- {
		m := matches[i]
		if m.League == league && m.TeamID == teamID {
			found = append(found, m)
		}
	}
	for i, j := 0, len(found)-1; i < j; i, j = i+1, j-1 {
		found[i], found[j] = found[j], found[i]
	}
	return found
}

// TeamForm is the rolling form of a team in one league
type TeamForm struct {
	TeamID       TeamID  `json:"teamId"`
	Name         string  `json:"name,omitempty"`
	League       string  `json:"league"`
	Matches      int     `json:"matches"`
	GoalsFor     float64 `json:"goalsFor"`
	GoalsAgainst float64 `json:"goalsAgainst"`
}

// NewTeamForm summarises the recent form of teamID using the given window and fallback
func NewTeamForm(matches []MatchRecord, teamID TeamID, league string, window int, fallback float64) *TeamForm {
	return &TeamForm{
		TeamID:       teamID,
		League:       league,
		Matches:      len(RecentMatches(matches, teamID, league, window)),
		GoalsFor:     AverageStatWindow(matches, teamID, league, GoalsFor, window, fallback),
		GoalsAgainst: AverageStatWindow(matches, teamID, league, GoalsAgainst, window, fallback),
	}
}
