package podds

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/richard-senior/podds-au/internal/logger"
)

// Service answers prediction requests from an injected data source.
// All front ends (MCP tools, HTTP API, CLI) go through it.
type Service struct {
	config    *PoddsConfig
	leagues   *LeagueTable
	source    DataSource
	predictor *Predictor
}

// NewService wires a service; a nil config or league table falls back to the defaults
func NewService(cfg *PoddsConfig, leagues *LeagueTable, source DataSource) *Service {
	if cfg == nil {
		cfg = DefaultPoddsConfig()
	}
	if leagues == nil {
		leagues = DefaultLeagueTable()
	}
	return &Service{
		config:    cfg,
		leagues:   leagues,
		source:    source,
		predictor: NewPredictor(cfg),
	}
}

// Config returns the service configuration
func (s *Service) Config() *PoddsConfig {
	return s.config
}

// Leagues lists the supported leagues
func (s *Service) Leagues() []LeagueConfig {
	return s.leagues.List()
}

// League looks up a supported league by code
func (s *Service) League(code string) (LeagueConfig, error) {
	return s.leagues.Lookup(strings.TrimSpace(code))
}

// Predict validates the request, loads data and scores the fixture
func (s *Service) Predict(ctx context.Context, homeID, awayID, league string) (*PredictionResult, error) {
	a, err := s.Analyse(ctx, homeID, awayID, league)
	if err != nil {
		return nil, err
	}
	return s.predictor.Result(a), nil
}

// Analyse is Predict without rounding
func (s *Service) Analyse(ctx context.Context, homeID, awayID, league string) (*MatchAnalysis, error) {
	homeID, awayID, league = strings.TrimSpace(homeID), strings.TrimSpace(awayID), strings.TrimSpace(league)
	if homeID == "" || awayID == "" || league == "" {
		return nil, ErrMissingParameter
	}
	home, err := NormalizeTeamID(homeID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnknownTeam, err)
	}
	away, err := NormalizeTeamID(awayID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnknownTeam, err)
	}
	// fail on the league before touching any data
	if _, err := s.leagues.Lookup(league); err != nil {
		return nil, err
	}

	ds, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	a, err := s.predictor.Analyse(home, away, league, ds.Matches, ds.Teams, s.leagues)
	if err != nil {
		return nil, err
	}
	logger.Debug("Prediction", home, away, league, a.LambdaHome, a.LambdaAway)
	return a, nil
}

// TeamForm returns the rolling averages the predictor would use for teamID
func (s *Service) TeamForm(ctx context.Context, teamID, league string) (*TeamForm, error) {
	if strings.TrimSpace(teamID) == "" || strings.TrimSpace(league) == "" {
		return nil, ErrMissingParameter
	}
	id, err := NormalizeTeamID(teamID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnknownTeam, err)
	}
	if _, err := s.leagues.Lookup(league); err != nil {
		return nil, err
	}
	ds, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	team, ok := ds.Teams[id]
	if !ok {
		return nil, fmt.Errorf("team %q: %w", id, ErrUnknownTeam)
	}
	form := NewTeamForm(ds.Matches, id, league, s.config.FormWindow, s.config.DefaultAverageGoals)
	form.Name = team.Name
	return form, nil
}

// load applies the proceed-without-history policy to the source
func (s *Service) load(ctx context.Context) (*Dataset, error) {
	if s.source == nil {
		return nil, fmt.Errorf("%w: no data source configured", ErrSourceUnavailable)
	}
	ds, err := s.source.Load(ctx)
	if err == nil {
		return ds, nil
	}
	var partial *PartialLoadError
	if errors.As(err, &partial) && ds != nil && s.config.ProceedWithoutHistory {
		// whatever history did load is kept, teams without any fall back to the default average
		logger.Warn("Match history unavailable, predicting from default averages", err)
		return ds, nil
	}
	return nil, err
}
