package podds

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// PoddsConfig contains all configurable parameters that influence prediction outcomes
// This centralizes all magic numbers and constants for easy adjustment
type PoddsConfig struct {
	// Storage and data parameters
	PoddsDataDir string `yaml:"data_dir"` // directory holding matches.json and teams.json
	PoddsDbPath  string `yaml:"db_path"`  // the location of the podds sqlite database

	// Service parameters
	HTTPAddr     string        `yaml:"http_addr"`    // listen address of the HTTP API
	HTTPTimeout  time.Duration `yaml:"http_timeout"` // timeout for fetching results pages
	CABundlePath string        `yaml:"ca_bundle"`    // optional extra CA certificates for outbound HTTPS
	LogLevel     string        `yaml:"log_level"`    // DEBUG, INFO, WARN, ERROR
	LogFile      string        `yaml:"log_file"`     // log file used when logging to file
	UserAgent    string        `yaml:"user_agent"`   // sent when fetching results pages

	// === FORM ===
	FormWindow          int     `yaml:"form_window"`           // number of recent results averaged (default: 5)
	DefaultAverageGoals float64 `yaml:"default_average_goals"` // average used without history (default: 1.0)

	// === POISSON GRID ===
	GridMaxGoals         int     `yaml:"grid_max_goals"`        // grid covers 0..N goals per side (default: 4)
	OverGoalsLine        float64 `yaml:"over_goals_line"`       // total goals line (default: 2.5)
	LambdaPrecision      int     `yaml:"lambda_precision"`      // decimal places of reported lambdas (default: 2)
	ProbabilityPrecision int     `yaml:"probability_precision"` // decimal places of reported probabilities (default: 3)

	// === STRENGTH MODIFIERS ===
	FormSensitivity     float64            `yaml:"form_sensitivity"`      // swing either side of neutral form (default: 0.2)
	FormNeutralPoints   float64            `yaml:"form_neutral_points"`   // points from 5 games treated as average (default: 7.5)
	FormMaxPoints       float64            `yaml:"form_max_points"`       // maximum points from 5 games (default: 15)
	InjuryPenalty       float64            `yaml:"injury_penalty"`        // reduction for an absent key player (default: 0.05)
	InjuryFloor         float64            `yaml:"injury_floor"`          // lowest combined injury multiplier (default: 0.75)
	InjuryStatusWeights map[string]float64 `yaml:"injury_status_weights"` // weight per injury status
	TacticsMultipliers  map[string]float64 `yaml:"tactics_multipliers"`   // multiplier per tactical style

	// === LOADING POLICY ===
	ProceedWithoutHistory bool    `yaml:"proceed_without_history"` // predict from defaults when match history fails to load
	FuzzyMatchThreshold   float64 `yaml:"fuzzy_match_threshold"`   // minimum similarity when resolving team names (default: 0.8)

	// Leagues replaces the built in league table when present
	Leagues []LeagueConfig `yaml:"leagues"`
}

// DefaultPoddsConfig returns the default configuration with all standard values
func DefaultPoddsConfig() *PoddsConfig {
	return &PoddsConfig{
		PoddsDataDir: "data",
		PoddsDbPath:  "",

		HTTPAddr:    ":8080",
		HTTPTimeout: 30 * time.Second,
		LogLevel:    "INFO",
		LogFile:     "/tmp/podds-au.log",
		UserAgent:   "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",

		FormWindow:          FormWindow,
		DefaultAverageGoals: DefaultAverageGoals,

		GridMaxGoals:         GridMaxGoals,
		OverGoalsLine:        OverGoalsLine,
		LambdaPrecision:      LambdaPrecision,
		ProbabilityPrecision: ProbabilityPrecision,

		FormSensitivity:   0.2,
		FormNeutralPoints: 7.5,
		FormMaxPoints:     15,
		InjuryPenalty:     0.05,
		InjuryFloor:       0.75,
		InjuryStatusWeights: map[string]float64{
			"out":      1.0,
			"doubtful": 0.5,
		},
		TacticsMultipliers: map[string]float64{
			"attacking":  1.08,
			"possession": 1.04,
			"balanced":   1.0,
			"counter":    0.97,
			"defensive":  0.92,
		},

		ProceedWithoutHistory: false,
		FuzzyMatchThreshold:   0.8,
	}
}

// Global configuration instance, replaced once by main at start up
var Config *PoddsConfig

func init() {
	Config = DefaultPoddsConfig()
}

// UpdateConfig replaces the global configuration
func UpdateConfig(newConfig *PoddsConfig) {
	Config = newConfig
}

// LoadConfig reads a YAML file over the defaults and validates the result
func LoadConfig(path string) (*PoddsConfig, error) {
	cfg := DefaultPoddsConfig()
	if path == "" {
		return cfg, ValidateConfig(cfg)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigFromEnv loads .env (if present), then the YAML file named by
// PODDS_CONFIG, then applies the individual PODDS_* overrides
func LoadConfigFromEnv() (*PoddsConfig, error) {
	_ = godotenv.Load()

	cfg, err := LoadConfig(os.Getenv("PODDS_CONFIG"))
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, ValidateConfig(cfg)
}

// ApplyEnv overrides cfg with any PODDS_* environment variables that are set
func ApplyEnv(cfg *PoddsConfig) error {
	cfg.PoddsDbPath = envStr("PODDS_DB_PATH", cfg.PoddsDbPath)
	cfg.PoddsDataDir = envStr("PODDS_DATA_DIR", cfg.PoddsDataDir)
	cfg.HTTPAddr = envStr("PODDS_HTTP_ADDR", cfg.HTTPAddr)
	cfg.LogLevel = envStr("PODDS_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = envStr("PODDS_LOG_FILE", cfg.LogFile)
	cfg.CABundlePath = envStr("PODDS_CA_BUNDLE", cfg.CABundlePath)

	if v := os.Getenv("PODDS_PROCEED_WITHOUT_HISTORY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: PODDS_PROCEED_WITHOUT_HISTORY: %w", ErrInvalidConfig, err)
		}
		cfg.ProceedWithoutHistory = b
	}
	return nil
}

func envStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// === CONFIGURATION VALIDATION ===

// ValidateConfig ensures all configuration values are within reasonable ranges
func ValidateConfig(config *PoddsConfig) error {
	if config.FormWindow < 1 {
		return fmt.Errorf("%w: FormWindow must be at least 1, got: %d", ErrInvalidConfig, config.FormWindow)
	}
	if config.DefaultAverageGoals <= 0 {
		return fmt.Errorf("%w: DefaultAverageGoals must be positive, got: %f", ErrInvalidConfig, config.DefaultAverageGoals)
	}
	if config.GridMaxGoals < 1 || config.GridMaxGoals > 20 {
		return fmt.Errorf("%w: GridMaxGoals should be between 1 and 20, got: %d", ErrInvalidConfig, config.GridMaxGoals)
	}
	if config.LambdaPrecision < 0 || config.ProbabilityPrecision < 0 {
		return fmt.Errorf("%w: precision cannot be negative", ErrInvalidConfig)
	}
	if config.FormMaxPoints <= 0 {
		return fmt.Errorf("%w: FormMaxPoints must be positive, got: %f", ErrInvalidConfig, config.FormMaxPoints)
	}
	if config.FormNeutralPoints < 0 || config.FormNeutralPoints > config.FormMaxPoints {
		return fmt.Errorf("%w: FormNeutralPoints should be between 0 and FormMaxPoints, got: %f", ErrInvalidConfig, config.FormNeutralPoints)
	}
	// the form multiplier has to stay positive at both ends of the points range
	if config.FormSensitivity < 0 || config.FormSensitivity >= 1 {
		return fmt.Errorf("%w: FormSensitivity should be between 0 and 1, got: %f", ErrInvalidConfig, config.FormSensitivity)
	}
	if config.InjuryFloor <= 0 || config.InjuryFloor > 1 {
		return fmt.Errorf("%w: InjuryFloor should be in (0, 1], got: %f", ErrInvalidConfig, config.InjuryFloor)
	}
	if config.InjuryPenalty < 0 || config.InjuryPenalty >= 1 {
		return fmt.Errorf("%w: InjuryPenalty should be between 0 and 1, got: %f", ErrInvalidConfig, config.InjuryPenalty)
	}
	for status, w := range config.InjuryStatusWeights {
		if w < 0 || w > 1 {
			return fmt.Errorf("%w: injury weight for %s should be between 0 and 1, got: %f", ErrInvalidConfig, status, w)
		}
	}
	for style, m := range config.TacticsMultipliers {
		if m <= 0 {
			return fmt.Errorf("%w: tactics multiplier for %s must be positive, got: %f", ErrInvalidConfig, style, m)
		}
	}
	if config.FuzzyMatchThreshold < 0 || config.FuzzyMatchThreshold > 1 {
		return fmt.Errorf("%w: FuzzyMatchThreshold should be between 0 and 1, got: %f", ErrInvalidConfig, config.FuzzyMatchThreshold)
	}
	if len(config.Leagues) > 0 {
		if _, err := NewLeagueTable(config.Leagues); err != nil {
			return err
		}
	}
	return nil
}

// LeagueTable builds the league table from Leagues, or the built in table when none are configured
func (c *PoddsConfig) LeagueTable() (*LeagueTable, error) {
	if len(c.Leagues) == 0 {
		return DefaultLeagueTable(), nil
	}
	return NewLeagueTable(c.Leagues)
}
