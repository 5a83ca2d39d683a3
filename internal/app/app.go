// Package app wires configuration, logging, storage and the prediction
// service together for the binaries under cmd/.
package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/richard-senior/podds-au/internal/logger"
	"github.com/richard-senior/podds-au/pkg/tools"
	"github.com/richard-senior/podds-au/pkg/transport"
	"github.com/richard-senior/podds-au/pkg/util/podds"
)

const (
	Name    = "podds-au"
	Version = "1.0.0"
)

// App holds everything a front end needs
type App struct {
	Config  *podds.PoddsConfig
	Leagues *podds.LeagueTable
	Store   *podds.Store // nil when no database is configured
	Service *podds.Service
}

// New applies cfg to the package level settings and opens the data sources.
// Match history comes from the JSON data directory (when it exists) followed
// by the sqlite store (when PoddsDbPath is set).
func New(cfg *podds.PoddsConfig) (*App, error) {
	if cfg == nil {
		cfg = podds.DefaultPoddsConfig()
	}
	if err := podds.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	podds.UpdateConfig(cfg)

	if cfg.LogLevel != "" {
		level, err := logger.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", podds.ErrInvalidConfig, err)
		}
		logger.SetLevel(level)
	}
	transport.Configure(transport.ClientConfig{
		Timeout:      cfg.HTTPTimeout,
		CABundlePath: cfg.CABundlePath,
		UserAgent:    cfg.UserAgent,
	})

	leagues, err := cfg.LeagueTable()
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Leagues: leagues}
	var sources podds.MultiSource
	if cfg.PoddsDataDir != "" {
		if info, err := os.Stat(cfg.PoddsDataDir); err == nil && info.IsDir() {
			sources = append(sources, podds.NewJSONFileSource(cfg.PoddsDataDir))
		} else {
			logger.Warn("Data directory not found, skipping JSON files:", cfg.PoddsDataDir)
		}
	}
	if cfg.PoddsDbPath != "" {
		store, err := podds.OpenStore(cfg.PoddsDbPath)
		if err != nil {
			return nil, err
		}
		a.Store = store
		sources = append(sources, store)
	}
	if len(sources) == 0 {
		logger.Warn("No data source configured, predictions will fail until one is")
	}

	var source podds.DataSource
	if len(sources) > 0 {
		source = sources
	}
	a.Service = podds.NewService(cfg, leagues, source)
	return a, nil
}

// Toolset returns the MCP tools backed by this app
func (a *App) Toolset() *tools.Toolset {
	return tools.NewToolset(a.Service, a.Store)
}

// RequireStore fails when no database is configured
func (a *App) RequireStore() (*podds.Store, error) {
	if a.Store == nil {
		return nil, errors.New("no database configured, set PODDS_DB_PATH")
	}
	return a.Store, nil
}

// Close releases the store
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}
