package baseline

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-fluo/dsp/core"
	"github.com/cwbudde/algo-fluo/dsp/rank"
	"github.com/cwbudde/algo-fluo/dsp/smooth"
	"github.com/cwbudde/algo-fluo/stats/noise"
	"github.com/cwbudde/algo-fluo/stats/robust"
)

// minBackground is the number of background samples needed before the
// simple baseline is re-centred.
const minBackground = 10

// SimpleConfig controls the percentile baseline.
type SimpleConfig struct {
	PercentileLow float64
	Threshold     float64 // background limit in units of the noise
	Smooth        int     // percentile filter width

	// Smoother is used for the spline step. Nil selects smooth.Default.
	Smoother smooth.Operator
}

// DefaultSimpleConfig returns the defaults of Simple.
func DefaultSimpleConfig() SimpleConfig {
	return SimpleConfig{PercentileLow: 25, Threshold: 3, Smooth: 25}
}

// Validate reports whether the configuration is usable.
func (c SimpleConfig) Validate() error {
	switch {
	case c.PercentileLow < 0 || c.PercentileLow > 100:
		return fmt.Errorf("%w: percentile must be in [0, 100]: %f", ErrInvalidConfig, c.PercentileLow)
	case !(c.Threshold > 0):
		return fmt.Errorf("%w: threshold must be > 0: %f", ErrInvalidConfig, c.Threshold)
	case c.Smooth < 1:
		return fmt.Errorf("%w: smooth must be >= 1: %d", ErrInvalidConfig, c.Smooth)
	}
	return nil
}

// Simple follows a low running percentile of x, smooths it and shifts it by
// the median residual of the background samples. ns may be nil, in which
// case the noise is estimated from x.
func Simple(x, ns []float64, cfg SimpleConfig) ([]float64, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := len(x)
	if ns != nil && len(ns) != n {
		return nil, fmt.Errorf("%w: noise has %d samples, signal %d", ErrLengthMismatch, len(ns), n)
	}
	if n == 0 {
		return []float64{}, nil
	}

	low, err := rank.Percentile(x, cfg.Smooth, cfg.PercentileLow)
	if err != nil {
		return nil, err
	}
	b, err := smooth.OrDefault(cfg.Smoother).Smooth(low, float64(cfg.Smooth)/5, nil)
	if err != nil {
		return nil, fmt.Errorf("baseline: simple: %w", err)
	}

	if ns == nil {
		if ns, err = noise.Estimate(x); err != nil {
			return nil, err
		}
	}
	if core.IsZero(ns) {
		ns = make([]float64, n)
		core.Fill(ns, robust.Std(x))
	}

	d := make([]float64, n)
	floats.SubTo(d, x, b)
	bg := robust.Select(d, func(i int, v float64) bool {
		return math.Abs(v) <= cfg.Threshold*ns[i]
	})
	if len(bg) > minBackground {
		floats.AddConst(robust.Median(bg), b)
	}
	return b, nil
}

// DefaultMultiScaleSimpleConfig returns the defaults of MultiScaleSimple,
// which follows the median rather than the lower quartile.
func DefaultMultiScaleSimpleConfig() SimpleConfig {
	cfg := DefaultSimpleConfig()
	cfg.PercentileLow = 50
	return cfg
}

// DefaultLevels are the percentile widths used by MultiScaleSimple.
var DefaultLevels = []int{10, 20, 40, 80, 160}

// MultiScaleSimple returns the lower envelope of Simple baselines computed
// at several widths, clipped to the range of x and smoothed at the smallest
// width. cfg.Smooth is ignored; empty levels select DefaultLevels.
func MultiScaleSimple(x []float64, levels []int, cfg SimpleConfig) ([]float64, error) {
	if len(levels) == 0 {
		levels = DefaultLevels
	}
	if len(x) == 0 {
		return []float64{}, nil
	}

	ns, err := noise.Estimate(x)
	if err != nil {
		return nil, err
	}

	var env []float64
	for _, level := range levels {
		c := cfg
		c.Smooth = level
		b, err := Simple(x, ns, c)
		if err != nil {
			return nil, fmt.Errorf("baseline: level %d: %w", level, err)
		}
		if env == nil {
			env = b
			continue
		}
		env = core.Minimum(env, b)
	}

	lo, hi := floats.Min(x), floats.Max(x)
	for i, v := range env {
		env[i] = core.Clamp(v, lo, hi)
	}

	out, err := smooth.OrDefault(cfg.Smoother).Smooth(env, float64(slices.Min(levels)), nil)
	if err != nil {
		return nil, fmt.Errorf("baseline: multi-scale: %w", err)
	}
	return out, nil
}
