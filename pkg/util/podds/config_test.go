package podds

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultPoddsConfig()
	require.NoError(t, ValidateConfig(cfg))
	assert.Equal(t, FormWindow, cfg.FormWindow)
	assert.Equal(t, GridMaxGoals, cfg.GridMaxGoals)

	leagues, err := cfg.LeagueTable()
	require.NoError(t, err)
	assert.Len(t, leagues.List(), len(AustralianLeagueCodes))
}

func TestLoadConfigYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "podds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: /srv/podds
http_timeout: 5s
form_window: 6
proceed_without_history: true
tactics_multipliers:
  high-press: 1.06
leagues:
  - code: NPL-QLD
    name: Queensland
    league_avg_goals: 1.8
    home_advantage: 1.05
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/podds", cfg.PoddsDataDir)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 6, cfg.FormWindow)
	assert.True(t, cfg.ProceedWithoutHistory)
	// maps are merged over the defaults
	assert.Equal(t, 1.06, cfg.TacticsMultipliers["high-press"])
	assert.Equal(t, 1.08, cfg.TacticsMultipliers["attacking"])
	// untouched values keep their defaults
	assert.Equal(t, GridMaxGoals, cfg.GridMaxGoals)

	leagues, err := cfg.LeagueTable()
	require.NoError(t, err)
	require.Len(t, leagues.List(), 1)
	assert.Equal(t, 1.8, leagues.List()[0].LeagueAvgGoals)
	assert.False(t, leagues.Supports("A-LEAGUE"))
}

func TestLoadConfigRejectsForeignLeague(t *testing.T) {
	path := filepath.Join(t.TempDir(), "podds.yaml")
	require.NoError(t, os.WriteFile(path, []byte("leagues:\n  - code: EPL\n    league_avg_goals: 1.4\n    home_advantage: 1.1\n"), 0o644))
	_, err := LoadConfig(path)
	assert.True(t, errors.Is(err, ErrUnsupportedLeague))
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("form_window: [1"), 0o644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PoddsConfig)
	}{
		{"window", func(c *PoddsConfig) { c.FormWindow = 0 }},
		{"default average", func(c *PoddsConfig) { c.DefaultAverageGoals = 0 }},
		{"grid", func(c *PoddsConfig) { c.GridMaxGoals = 0 }},
		{"form sensitivity", func(c *PoddsConfig) { c.FormSensitivity = 1.5 }},
		{"neutral points above max", func(c *PoddsConfig) { c.FormNeutralPoints = 100 }},
		{"negative neutral points", func(c *PoddsConfig) { c.FormNeutralPoints = -1 }},
		{"injury floor", func(c *PoddsConfig) { c.InjuryFloor = 0 }},
		{"injury weight", func(c *PoddsConfig) { c.InjuryStatusWeights["out"] = 30 }},
		{"negative injury weight", func(c *PoddsConfig) { c.InjuryStatusWeights["doubtful"] = -0.5 }},
		{"tactics", func(c *PoddsConfig) { c.TacticsMultipliers["broken"] = 0 }},
		{"fuzzy", func(c *PoddsConfig) { c.FuzzyMatchThreshold = 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultPoddsConfig()
			tt.mutate(cfg)
			assert.True(t, errors.Is(ValidateConfig(cfg), ErrInvalidConfig))
		})
	}
}

func TestLoadConfigRejectsNegativeForm(t *testing.T) {
	path := filepath.Join(t.TempDir(), "podds.yaml")
	require.NoError(t, os.WriteFile(path, []byte("form_neutral_points: 100\n"), 0o644))
	_, err := LoadConfig(path)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PODDS_DB_PATH", "/tmp/podds-test.db")
	t.Setenv("PODDS_HTTP_ADDR", ":9090")
	t.Setenv("PODDS_PROCEED_WITHOUT_HISTORY", "true")

	cfg := DefaultPoddsConfig()
	require.NoError(t, ApplyEnv(cfg))
	assert.Equal(t, "/tmp/podds-test.db", cfg.PoddsDbPath)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.True(t, cfg.ProceedWithoutHistory)

	t.Setenv("PODDS_PROCEED_WITHOUT_HISTORY", "sometimes")
	assert.True(t, errors.Is(ApplyEnv(DefaultPoddsConfig()), ErrInvalidConfig))
}
