package config

import (
	"fmt"
	"os"

	"github.com/uyouii/powercurve-sensitivity/common"
	"github.com/uyouii/powercurve-sensitivity/powercurve"
	"github.com/uyouii/powercurve-sensitivity/sensitivity"
	"github.com/uyouii/powercurve-sensitivity/utils"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const DefaultLogLevel = "info"

// Config is the yaml form of the sensitivity options.
type Config struct {
	// TimeStepSeconds is the averaging period of one record (default 600).
	TimeStepSeconds      float64 `yaml:"time_step_seconds"`
	RandomTests          int     `yaml:"random_tests"`
	MinPointsPerCategory int     `yaml:"min_points_per_category"`
	// Seed of the random covariates, 0 draws a new one per run.
	Seed        uint64 `yaml:"seed"`
	Parallelism int    `yaml:"parallelism"`
	// Interpolation is one of linear | grid_dict | grid_array | grid_nearest.
	// Empty keeps the curve power of the records.
	Interpolation   string        `yaml:"interpolation"`
	UpperQuantile   float64       `yaml:"upper_quantile"`
	Columns         ColumnsConfig `yaml:"columns"`
	ExtraCovariates []string      `yaml:"extra_covariates"`
	Logging         LoggingConfig `yaml:"logging"`
}

type ColumnsConfig struct {
	HubDensity    string `yaml:"hub_density"`
	ShearExponent string `yaml:"shear_exponent"`
	WindDirection string `yaml:"wind_direction"`
	HubTurbulence string `yaml:"hub_turbulence"`
	InflowAngle   string `yaml:"inflow_angle"`
}

type LoggingConfig struct {
	// Level is a zap level name: debug | info | warn | error.
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Load reads and parses the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse fills missing fields with defaults before validation.
func Parse(data []byte) (*Config, error) {
	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		TimeStepSeconds:      sensitivity.DefaultTimeStepSeconds,
		RandomTests:          sensitivity.DefaultRandomTests,
		MinPointsPerCategory: sensitivity.DefaultMinPointsPerCategory,
		UpperQuantile:        sensitivity.DefaultUpperQuantile,
		Columns: ColumnsConfig{
			HubDensity:    sensitivity.DefaultHubDensityColumn,
			ShearExponent: sensitivity.DefaultShearExponentColumn,
			WindDirection: sensitivity.DefaultWindDirectionColumn,
			HubTurbulence: sensitivity.DefaultHubTurbulenceColumn,
			InflowAngle:   sensitivity.DefaultInflowAngleColumn,
		},
		Logging: LoggingConfig{Level: DefaultLogLevel},
	}
}

func validate(cfg *Config) error {
	if !(cfg.TimeStepSeconds > 0) {
		return fmt.Errorf("%w: time_step_seconds %v must be positive", common.ErrorInvalidValue, cfg.TimeStepSeconds)
	}
	if cfg.RandomTests < 1 {
		return fmt.Errorf("%w: random_tests %d must be at least 1", common.ErrorInvalidValue, cfg.RandomTests)
	}
	if cfg.MinPointsPerCategory < 1 {
		return fmt.Errorf("%w: min_points_per_category %d must be at least 1", common.ErrorInvalidValue, cfg.MinPointsPerCategory)
	}
	if cfg.Parallelism < 0 {
		return fmt.Errorf("%w: parallelism must not be negative", common.ErrorInvalidValue)
	}
	if !(cfg.UpperQuantile > 0 && cfg.UpperQuantile < 1) {
		return fmt.Errorf("%w: upper_quantile %v is out of range (0, 1)", common.ErrorInvalidValue, cfg.UpperQuantile)
	}
	if cfg.Interpolation != "" {
		if _, err := powercurve.ParseStrategy(cfg.Interpolation); err != nil {
			return fmt.Errorf("interpolation: %w", err)
		}
	}
	if _, err := zap.ParseAtomicLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level %q", common.ErrorInvalidValue, cfg.Logging.Level)
	}
	return nil
}

func (c *Config) Logger() (*zap.Logger, error) {
	return utils.NewLogger(c.Logging.Level, c.Logging.Development)
}

// EngineOptions converts the config, logger may be nil.
func (c *Config) EngineOptions(logger *zap.Logger) sensitivity.Options {
	return sensitivity.Options{
		TimeStepSeconds:      c.TimeStepSeconds,
		MinPointsPerCategory: c.MinPointsPerCategory,
		RandomTests:          c.RandomTests,
		Seed:                 c.Seed,
		Parallelism:          c.Parallelism,
		Interpolation:        powercurve.Strategy(c.Interpolation),
		UpperQuantile:        c.UpperQuantile,
		Columns: sensitivity.ColumnNames{
			HubDensity:    c.Columns.HubDensity,
			ShearExponent: c.Columns.ShearExponent,
			WindDirection: c.Columns.WindDirection,
			HubTurbulence: c.Columns.HubTurbulence,
			InflowAngle:   c.Columns.InflowAngle,
		},
		ExtraCovariates: append([]string(nil), c.ExtraCovariates...),
		Logger:          logger,
	}
}

// NewEngine builds the configured engine with its logger.
func (c *Config) NewEngine() (*sensitivity.Engine, error) {
	logger, err := c.Logger()
	if err != nil {
		return nil, err
	}
	return sensitivity.NewEngine(c.EngineOptions(logger))
}
