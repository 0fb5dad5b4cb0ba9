package baseline

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-fluo/dsp/excursion"
	"github.com/cwbudde/algo-fluo/dsp/rank"
	"github.com/cwbudde/algo-fluo/dsp/smooth"
	"github.com/cwbudde/algo-fluo/stats/noise"
	"github.com/cwbudde/algo-fluo/stats/robust"
)

const (
	defaultTMVMPercentile = 25.0
	defaultTMVMSmooth     = 100
	defaultTMVMDivisor    = 2.0
	defaultBiasThreshold  = 3.0
)

// TMVMConfig controls the excursion-removal baseline.
type TMVMConfig struct {
	PercentileLow float64 // percentile of the residual that the baseline follows
	SmoothLevel   int     // percentile filter width
	Symmetric     bool    // also remove negative excursions

	// SmoothDivisor sets the spline scale of the baseline to
	// SmoothLevel/SmoothDivisor.
	SmoothDivisor float64

	// Finder detects the excursions. Nil selects excursion.Multiscale.
	Finder excursion.Finder

	// Smoother is used for the baseline spline. Nil selects smooth.Default.
	Smoother smooth.Operator
}

// DefaultTMVMConfig returns the default parameters.
func DefaultTMVMConfig() TMVMConfig {
	return TMVMConfig{
		PercentileLow: defaultTMVMPercentile,
		SmoothLevel:   defaultTMVMSmooth,
		SmoothDivisor: defaultTMVMDivisor,
	}
}

// Validate reports whether the configuration is usable.
func (c TMVMConfig) Validate() error {
	switch {
	case c.PercentileLow < 0 || c.PercentileLow > 100:
		return fmt.Errorf("%w: percentile must be in [0, 100]: %f", ErrInvalidConfig, c.PercentileLow)
	case c.SmoothLevel < 1:
		return fmt.Errorf("%w: smooth level must be >= 1: %d", ErrInvalidConfig, c.SmoothLevel)
	case !(c.SmoothDivisor > 0):
		return fmt.Errorf("%w: smooth divisor must be > 0: %f", ErrInvalidConfig, c.SmoothDivisor)
	}
	return nil
}

// TMVMResult holds the baseline, its noise profile and the residual after
// excursion removal.
type TMVMResult struct {
	Baseline []float64
	Noise    []float64
	Residual []float64
}

// TMVM removes significant positive excursions of x (and negative ones if
// Symmetric) and follows a low percentile of what remains.
func TMVM(x []float64, cfg TMVMConfig) (TMVMResult, error) {
	if err := cfg.Validate(); err != nil {
		return TMVMResult{}, err
	}

	n := len(x)
	if n == 0 {
		return TMVMResult{Baseline: []float64{}, Noise: []float64{}, Residual: []float64{}}, nil
	}

	finder := cfg.Finder
	if finder == nil {
		finder = excursion.Multiscale{Smoother: cfg.Smoother}
	}

	pcfg := excursion.DefaultProcessConfig()
	pcfg.RecVariant = 1
	pcfg.Smoother = cfg.Smoother

	rec, err := excursion.Process(finder, x, pcfg)
	if err != nil {
		return TMVMResult{}, fmt.Errorf("baseline: positive excursions: %w", err)
	}
	if cfg.Symmetric {
		neg := make([]float64, n)
		floats.ScaleTo(neg, -1, x)
		recNeg, err := excursion.Process(finder, neg, pcfg)
		if err != nil {
			return TMVMResult{}, fmt.Errorf("baseline: negative excursions: %w", err)
		}
		floats.Sub(rec, recNeg)
	}

	res := make([]float64, n)
	floats.SubTo(res, x, rec)

	low, err := rank.Percentile(res, cfg.SmoothLevel, cfg.PercentileLow)
	if err != nil {
		return TMVMResult{}, err
	}
	b, err := smooth.OrDefault(cfg.Smoother).Smooth(low, float64(cfg.SmoothLevel)/cfg.SmoothDivisor, nil)
	if err != nil {
		return TMVMResult{}, fmt.Errorf("baseline: smoothing: %w", err)
	}

	d := make([]float64, n)
	floats.SubTo(d, res, b)
	ns, err := noise.Estimate(d)
	if err != nil {
		return TMVMResult{}, err
	}

	return TMVMResult{Baseline: b, Noise: ns, Residual: res}, nil
}

// TMVMBiasCorrected shifts the TMVM baseline by the median of the
// residual samples that lie within threshold noise levels of it. A
// non-positive threshold selects 3.
func TMVMBiasCorrected(x []float64, threshold float64, cfg TMVMConfig) ([]float64, error) {
	if threshold <= 0 {
		threshold = defaultBiasThreshold
	}

	r, err := TMVM(x, cfg)
	if err != nil {
		return nil, err
	}

	d := make([]float64, len(x))
	floats.SubTo(d, r.Residual, r.Baseline)
	floats.AddConst(biasOffset(d, r.Noise, threshold), r.Baseline)
	return r.Baseline, nil
}

// biasOffset is the median of the deviations d within threshold noise
// levels of zero on either side, or 0 if there are none.
func biasOffset(d, ns []float64, threshold float64) float64 {
	bg := robust.Select(d, func(i int, v float64) bool {
		return math.Abs(v) <= threshold*ns[i]
	})
	if len(bg) == 0 {
		return 0
	}
	return robust.Median(bg)
}
