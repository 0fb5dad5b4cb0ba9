package transient

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-fluo/dsp/smooth"
	"github.com/cwbudde/algo-fluo/stats/robust"
)

// Labeler marks the samples of a noise-normalised trace that belong to
// candidate transients.
type Labeler func(v []float64) ([]bool, error)

// SimpleLabel marks samples whose spline-smoothed value at scale tau
// reaches threshold.
func SimpleLabel(v []float64, threshold, tau float64) ([]bool, error) {
	vs, err := smooth.Default.Smooth(v, tau, nil)
	if err != nil {
		return nil, err
	}
	return Threshold(vs, threshold), nil
}

// SimpleLabeler returns SimpleLabel bound to threshold and tau.
func SimpleLabeler(threshold, tau float64) Labeler {
	return func(v []float64) ([]bool, error) {
		return SimpleLabel(v, threshold, tau)
	}
}

// PercentileLabel derives the threshold from the negative tail of v: the
// plow percentile of the samples below min(median, 0), mirrored. Without
// such samples nothing is labelled.
func PercentileLabel(v []float64, plow, tau float64) ([]bool, error) {
	mu := math.Min(robust.Median(v), 0)
	below := robust.Select(v, func(_ int, x float64) bool { return x < mu })
	if len(below) == 0 {
		return make([]bool, len(v)), nil
	}
	low := robust.Percentile(below, plow)

	vs, err := smooth.Default.Smooth(v, tau, nil)
	if err != nil {
		return nil, err
	}
	return Threshold(vs, -low), nil
}

// PercentileLabeler returns PercentileLabel bound to plow and tau.
func PercentileLabeler(plow, tau float64) Labeler {
	return func(v []float64) ([]bool, error) {
		return PercentileLabel(v, plow, tau)
	}
}

// Threshold converts soft labels to a mask of values >= th.
func Threshold(soft []float64, th float64) []bool {
	out := make([]bool, len(soft))
	for i, v := range soft {
		out[i] = v >= th
	}
	return out
}

// LocalJitter returns a copy of v in which every sample is swapped with a
// neighbour at a normally distributed offset of standard deviation sigma.
func LocalJitter(v []float64, sigma float64, rng *rand.Rand) []float64 {
	n := len(v)
	out := append([]float64(nil), v...)
	for i := 0; i < n; i++ {
		j := i + int(math.Round(rng.NormFloat64()*sigma))
		j = max(0, min(j, n-1))
		out[i] = v[j]
		out[j] = v[i]
	}
	return out
}

// JitterConfig controls WithLocalJitter.
type JitterConfig struct {
	Iterations      int
	WeightThreshold float64 // fraction of runs that must agree
	Tau             float64 // jitter sigma is Tau/2
	Seed            int64
}

// DefaultJitterConfig returns the jitter defaults.
func DefaultJitterConfig() JitterConfig {
	return JitterConfig{Iterations: 100, WeightThreshold: 0.85, Tau: 5}
}

// Validate reports whether the configuration is usable.
func (c JitterConfig) Validate() error {
	switch {
	case c.Iterations < 1:
		return fmt.Errorf("%w: jitter iterations must be >= 1: %d", ErrInvalidConfig, c.Iterations)
	case c.WeightThreshold < 0 || c.WeightThreshold > 1:
		return fmt.Errorf("%w: weight threshold must be in [0, 1]: %f", ErrInvalidConfig, c.WeightThreshold)
	case c.Tau < 0:
		return fmt.Errorf("%w: tau must be >= 0: %f", ErrInvalidConfig, c.Tau)
	}
	return nil
}

// WithLocalJitter stabilises l by labelling many locally jittered copies of
// the input and keeping the samples labelled in at least the configured
// fraction of them. Every call reseeds its own generator, so the result is
// deterministic and the labeler is safe for concurrent use.
func WithLocalJitter(l Labeler, cfg JitterConfig) (Labeler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return func(v []float64) ([]bool, error) {
		rng := rand.New(rand.NewSource(cfg.Seed))
		votes := make([]float64, len(v))
		for it := 0; it < cfg.Iterations; it++ {
			lab, err := l(LocalJitter(v, 0.5*cfg.Tau, rng))
			if err != nil {
				return nil, err
			}
			for i, set := range lab {
				if set {
					votes[i]++
				}
			}
		}
		for i := range votes {
			votes[i] /= float64(cfg.Iterations)
		}
		return Threshold(votes, cfg.WeightThreshold), nil
	}, nil
}

// Committee labels a sample only when every labeler agrees.
func Committee(ls ...Labeler) Labeler {
	return func(v []float64) ([]bool, error) {
		out := make([]bool, len(v))
		for i := range out {
			out[i] = true
		}
		for k, l := range ls {
			lab, err := l(v)
			if err != nil {
				return nil, fmt.Errorf("transient: committee member %d: %w", k, err)
			}
			if len(lab) != len(v) {
				return nil, fmt.Errorf("%w: member %d returned %d labels for %d samples", ErrLengthMismatch, k, len(lab), len(v))
			}
			for i, set := range lab {
				out[i] = out[i] && set
			}
		}
		return out, nil
	}
}
