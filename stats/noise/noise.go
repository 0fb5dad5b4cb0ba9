package noise

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-fluo/dsp/core"
	"github.com/cwbudde/algo-fluo/dsp/rank"
	"github.com/cwbudde/algo-fluo/dsp/smooth"
	"github.com/cwbudde/algo-fluo/stats/robust"
)

const (
	defaultDetailWidth = 20
	defaultCorrection  = 1.0
)

// ErrInvalidConfig is returned for unusable estimator parameters.
var ErrInvalidConfig = errors.New("noise: invalid configuration")

// Config holds the estimator parameters.
type Config struct {
	// HalfWindow is the half width of the rolling window. Zero selects
	// len(x)/10 (at least 1).
	HalfWindow int

	Correction   float64 // divides the final profile
	SmoothOutput bool    // smooth the profile at scale 2*HalfWindow
	DetailInput  bool    // skip the median-filter detrending step

	// Smoother is used when SmoothOutput is set. Nil selects smooth.Default.
	Smoother smooth.Operator
}

// Option mutates a Config.
type Option func(*Config) error

// DefaultConfig returns the default estimator configuration.
func DefaultConfig() Config {
	return Config{
		Correction:   defaultCorrection,
		SmoothOutput: true,
	}
}

// WithHalfWindow sets the half width of the rolling window.
func WithHalfWindow(hw int) Option {
	return func(cfg *Config) error {
		if hw < 1 {
			return fmt.Errorf("%w: half window must be >= 1: %d", ErrInvalidConfig, hw)
		}
		cfg.HalfWindow = hw
		return nil
	}
}

// WithCorrection sets the divisor applied to the final profile.
func WithCorrection(c float64) Option {
	return func(cfg *Config) error {
		cfg.Correction = c
		return cfg.Validate()
	}
}

// WithSmoothOutput enables or disables smoothing of the profile.
func WithSmoothOutput(enabled bool) Option {
	return func(cfg *Config) error {
		cfg.SmoothOutput = enabled
		return nil
	}
}

// WithDetailInput declares that x is already a detail (detrended) signal.
func WithDetailInput() Option {
	return func(cfg *Config) error {
		cfg.DetailInput = true
		return nil
	}
}

// WithSmoother selects the smoothing operator for the output profile.
func WithSmoother(op smooth.Operator) Option {
	return func(cfg *Config) error {
		cfg.Smoother = op
		return nil
	}
}

// Validate reports whether the configuration is usable.
func (c Config) Validate() error {
	if c.Correction <= 0 || math.IsNaN(c.Correction) || math.IsInf(c.Correction, 0) {
		return fmt.Errorf("%w: correction must be > 0 and finite: %f", ErrInvalidConfig, c.Correction)
	}
	if c.HalfWindow < 0 {
		return fmt.Errorf("%w: half window must be >= 0: %d", ErrInvalidConfig, c.HalfWindow)
	}
	return nil
}

// Estimate returns the noise profile of x.
func Estimate(x []float64, opts ...Option) ([]float64, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	return EstimateWithConfig(x, cfg)
}

// EstimateWithConfig is like Estimate with an explicit configuration.
func EstimateWithConfig(x []float64, cfg Config) ([]float64, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := len(x)
	if n < 2 {
		return make([]float64, n), nil
	}

	detail := x
	if !cfg.DetailInput {
		trend, err := rank.Median(x, defaultDetailWidth)
		if err != nil {
			return nil, err
		}
		detail = make([]float64, n)
		for i := range detail {
			detail[i] = x[i] - trend[i]
		}
	}

	hw := cfg.HalfWindow
	if hw == 0 {
		hw = max(n/10, 1)
	}
	width := 2 * hw

	padded := core.PadReflect(detail, width, width)
	center, err := rank.RollingMedian(padded, width)
	if err != nil {
		return nil, err
	}
	for i := range center {
		center[i] = math.Abs(padded[i] - center[i])
	}
	spread, err := rank.RollingMedian(center, width)
	if err != nil {
		return nil, err
	}

	out := core.Unpad(spread, width, width)
	for i := range out {
		out[i] *= robust.MADScale
	}

	if cfg.SmoothOutput {
		out, err = smooth.OrDefault(cfg.Smoother).Smooth(out, float64(width), nil)
		if err != nil {
			return nil, fmt.Errorf("noise: smoothing profile: %w", err)
		}
	}

	for i := range out {
		out[i] /= cfg.Correction
	}
	core.ClampNonNegative(out)

	return out, nil
}
