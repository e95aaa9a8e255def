package trajectory

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

var ErrInvalidConfig = errors.New("invalid trajectory config")

// Config holds the scoring window, thresholds and injection cadence.
type Config struct {
	// WindowSize is the number of most recent tools the phase is scored on.
	WindowSize int
	// InjectFrequency is the number of turns between two trajectory digests.
	InjectFrequency int
	// ConfidenceThreshold is the minimal confidence a candidate needs to become the phase.
	ConfidenceThreshold float64
	// PredictionLength caps the number of predicted successor phases.
	PredictionLength int
}

// DefaultConfig returns a window of 10 tools, a digest every 3 turns,
// a 0.60 threshold and two predicted phases.
func DefaultConfig() Config {
	return Config{
		WindowSize:          10,
		InjectFrequency:     3,
		ConfidenceThreshold: 0.60,
		PredictionLength:    2,
	}
}

// Validate reports every out-of-range option at once.
func (c Config) Validate() error {
	var result *multierror.Error
	if c.WindowSize <= 0 {
		result = multierror.Append(result, fmt.Errorf("window_size must be positive, got %d", c.WindowSize))
	}
	if c.InjectFrequency <= 0 {
		result = multierror.Append(result, fmt.Errorf("inject_frequency must be positive, got %d", c.InjectFrequency))
	}
	if c.ConfidenceThreshold <= 0 || c.ConfidenceThreshold > 1 {
		result = multierror.Append(result, fmt.Errorf("confidence_threshold must be in (0,1], got %v", c.ConfidenceThreshold))
	}
	if c.PredictionLength < 0 {
		result = multierror.Append(result, fmt.Errorf("prediction_length must not be negative, got %d", c.PredictionLength))
	}
	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
