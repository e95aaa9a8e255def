package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/emiliopalmerini/mobserve/internal/domain"
)

var ErrInvalidConfig = errors.New("invalid metrics config")

// Config holds the tracker thresholds and injection cadence.
type Config struct {
	// Model is the pricing fallback for calls whose model is unknown.
	Model string
	// CostThreshold is the dollar amount whose every multiple raises one warning.
	CostThreshold float64
	// SpeedThreshold is the tool duration from which a slow tool warning is raised.
	SpeedThreshold time.Duration
	// InjectFrequency is the number of turns between two metrics digests.
	InjectFrequency int
}

// DefaultConfig returns the documented defaults: $1.00, 10s and every 5 turns.
func DefaultConfig() Config {
	return Config{
		Model:           domain.DefaultPricingModel,
		CostThreshold:   1.0,
		SpeedThreshold:  10 * time.Second,
		InjectFrequency: 5,
	}
}

// Validate reports every out-of-range option at once.
func (c Config) Validate() error {
	var result *multierror.Error
	if c.Model == "" {
		result = multierror.Append(result, errors.New("model must not be empty"))
	}
	if c.CostThreshold <= 0 {
		result = multierror.Append(result, fmt.Errorf("cost_threshold must be positive, got %v", c.CostThreshold))
	}
	if c.SpeedThreshold <= 0 {
		result = multierror.Append(result, fmt.Errorf("speed_threshold must be positive, got %v", c.SpeedThreshold))
	}
	if c.InjectFrequency <= 0 {
		result = multierror.Append(result, fmt.Errorf("inject_frequency must be positive, got %d", c.InjectFrequency))
	}
	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
