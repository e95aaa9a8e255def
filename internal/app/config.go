package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/kelseyhightower/envconfig"

	"github.com/emiliopalmerini/mobserve/internal/adapters/otel"
	"github.com/emiliopalmerini/mobserve/internal/adapters/prometheus"
	"github.com/emiliopalmerini/mobserve/internal/metrics"
	"github.com/emiliopalmerini/mobserve/internal/trajectory"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "MOBSERVE"

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Model                  string        `envconfig:"MODEL" default:"claude-sonnet-4-5"`
	CostThreshold          float64       `envconfig:"COST_THRESHOLD" default:"1.0"`
	SpeedThreshold         time.Duration `envconfig:"SPEED_THRESHOLD" default:"10s"`
	MetricsInjectFrequency int           `envconfig:"METRICS_INJECT_FREQUENCY" default:"5"`

	WindowSize                int     `envconfig:"WINDOW_SIZE" default:"10"`
	TrajectoryInjectFrequency int     `envconfig:"TRAJECTORY_INJECT_FREQUENCY" default:"3"`
	ConfidenceThreshold       float64 `envconfig:"CONFIDENCE_THRESHOLD" default:"0.60"`
	PredictionLength          int     `envconfig:"PREDICTION_LENGTH" default:"2"`

	TurnOnProvider bool   `envconfig:"TURN_ON_PROVIDER" default:"true"`
	CatalogFile    string `envconfig:"CATALOG_FILE"`
	Verbose        bool   `envconfig:"VERBOSE"`

	OTel       otel.Config       `envconfig:"OTEL"`
	Prometheus prometheus.Config `envconfig:"PROMETHEUS"`
}

// Load reads the configuration from MOBSERVE_* environment variables.
// It does not validate; flags may still override values.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return &cfg, nil
}

func (c *Config) Metrics() metrics.Config {
	return metrics.Config{
		Model:           c.Model,
		CostThreshold:   c.CostThreshold,
		SpeedThreshold:  c.SpeedThreshold,
		InjectFrequency: c.MetricsInjectFrequency,
	}
}

func (c *Config) Trajectory() trajectory.Config {
	return trajectory.Config{
		WindowSize:          c.WindowSize,
		InjectFrequency:     c.TrajectoryInjectFrequency,
		ConfidenceThreshold: c.ConfidenceThreshold,
		PredictionLength:    c.PredictionLength,
	}
}

// Validate checks both observer configurations and reports every problem at once.
func (c *Config) Validate() error {
	var result *multierror.Error
	if err := c.Metrics().Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.Trajectory().Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
