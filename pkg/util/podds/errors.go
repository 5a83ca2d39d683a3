package podds

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedLeague is returned for league codes outside the Australian allow-list
	ErrUnsupportedLeague = errors.New("only Australian leagues are supported")
	// ErrUnknownTeam is returned when either side of a fixture is not a known team
	ErrUnknownTeam = errors.New("invalid homeId or awayId")
	// ErrMissingParameter is returned when a prediction request lacks an id or league
	ErrMissingParameter = errors.New("missing homeId, awayId, or league")
	// ErrSourceUnavailable wraps every failure to load match or team data
	ErrSourceUnavailable = errors.New("data source unavailable")
	// ErrInvalidConfig is returned by ValidateConfig and NewLeagueTable
	ErrInvalidConfig = errors.New("invalid configuration")
)

// PartialLoadError reports that teams were loaded but match history was not.
// The dataset returned alongside it is usable with default averages.
type PartialLoadError struct {
	Part string
	Err  error
}

func (e *PartialLoadError) Error() string {
	return fmt.Sprintf("%s: could not load %s: %v", ErrSourceUnavailable, e.Part, e.Err)
}

func (e *PartialLoadError) Unwrap() []error {
	return []error{ErrSourceUnavailable, e.Err}
}

func sourceError(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, what, err)
}
