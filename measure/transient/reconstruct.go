package transient

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-fluo/dsp/label"
	"github.com/cwbudde/algo-fluo/dsp/smooth"
)

var (
	// ErrInvalidConfig is returned for unusable reconstruction or labeling
	// parameters.
	ErrInvalidConfig = errors.New("transient: invalid configuration")
	// ErrLengthMismatch is returned when labels and signal differ in length.
	ErrLengthMismatch = errors.New("transient: length mismatch")
)

// ReconstructConfig controls the label-guided reconstruction.
type ReconstructConfig struct {
	MinScale      float64 // spline scale of the working smoother
	MaxScale      float64
	MinRegionSize int // label runs shorter than this are dropped
	Iterations    int
	Gain          float64 // feedback gain in (0, 1]
	MedianWidth   int

	// TailFloor is the reconstruction level above which a run keeps
	// growing forward.
	TailFloor float64

	// ShrinkLevel is the working-signal level below which runs are eroded.
	ShrinkLevel float64
}

// DefaultReconstructConfig returns the reconstruction defaults.
func DefaultReconstructConfig() ReconstructConfig {
	return ReconstructConfig{
		MinScale:      1,
		MaxScale:      50,
		MinRegionSize: 3,
		Iterations:    10,
		Gain:          0.25,
		MedianWidth:   3,
		TailFloor:     0.1,
		ShrinkLevel:   0.5,
	}
}

// Validate reports whether the configuration is usable.
func (c ReconstructConfig) Validate() error {
	switch {
	case !(c.MinScale > 0):
		return fmt.Errorf("%w: min scale must be > 0: %f", ErrInvalidConfig, c.MinScale)
	case c.MinScale > c.MaxScale:
		return fmt.Errorf("%w: min scale %f exceeds max scale %f", ErrInvalidConfig, c.MinScale, c.MaxScale)
	case float64(c.MinRegionSize) > c.MaxScale:
		return fmt.Errorf("%w: min region size %d exceeds max scale %f", ErrInvalidConfig, c.MinRegionSize, c.MaxScale)
	case c.Iterations < 0:
		return fmt.Errorf("%w: iterations must be >= 0: %d", ErrInvalidConfig, c.Iterations)
	case !(c.Gain > 0 && c.Gain <= 1):
		return fmt.Errorf("%w: gain must be in (0, 1]: %f", ErrInvalidConfig, c.Gain)
	case c.MedianWidth < 1:
		return fmt.Errorf("%w: median width must be >= 1: %d", ErrInvalidConfig, c.MedianWidth)
	}
	return nil
}

// Reconstructor rebuilds transients from a signal and its labels. It is
// safe for concurrent use.
type Reconstructor struct {
	cfg ReconstructConfig
	op  smooth.Operator
}

// NewReconstructor validates cfg and returns a Reconstructor.
func NewReconstructor(cfg ReconstructConfig) (*Reconstructor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Reconstructor{cfg: cfg, op: smooth.MedianSpline{Width: cfg.MedianWidth}}, nil
}

// Reconstruct is a convenience wrapper around NewReconstructor.
func Reconstruct(x []float64, labels []bool, cfg ReconstructConfig) ([]float64, error) {
	r, err := NewReconstructor(cfg)
	if err != nil {
		return nil, err
	}
	return r.Reconstruct(x, labels)
}

// Reconstruct returns x restricted to the refined label support and to
// positive samples. The result is zero where no label run survives.
func (r *Reconstructor) Reconstruct(x []float64, labels []bool) ([]float64, error) {
	n := len(x)
	if len(labels) != n {
		return nil, fmt.Errorf("%w: %d labels for %d samples", ErrLengthMismatch, len(labels), n)
	}

	cfg := r.cfg
	weights := append([]bool(nil), labels...)
	if cfg.MinRegionSize > 1 {
		weights = label.FilterRuns(labels, cfg.MinRegionSize)
	}
	out := make([]float64, n)
	if !label.Any(weights) {
		return out, nil
	}

	vs, err := r.op.Smooth(x, cfg.MinScale, nil)
	if err != nil {
		return nil, fmt.Errorf("transient: smoothing: %w", err)
	}

	v1 := append([]float64(nil), x...)
	masked := make([]float64, n)
	for i, v := range x {
		if v > 0 {
			masked[i] = vs[i]
		}
	}
	vrec, err := r.op.Smooth(masked, cfg.MinScale, nil)
	if err != nil {
		return nil, fmt.Errorf("transient: smoothing: %w", err)
	}

	for it := 0; it < cfg.Iterations; it++ {
		for i := range v1 {
			v1[i] -= cfg.Gain * (v1[i] - vrec[i])
		}

		for _, run := range label.Runs(weights) {
			for stop := run.Stop; stop < n && vrec[stop] > cfg.TailFloor; stop++ {
				weights[stop] = true
			}
		}

		eroded := label.Erode(weights)
		for i := range weights {
			if v1[i] < cfg.ShrinkLevel {
				weights[i] = eroded[i]
			}
		}

		for i := range masked {
			masked[i] = 0
			if weights[i] {
				masked[i] = vs[i]
			}
		}
		if vrec, err = r.op.Smooth(masked, cfg.MinScale, nil); err != nil {
			return nil, fmt.Errorf("transient: iteration %d: %w", it, err)
		}
		for i, v := range vrec {
			vrec[i] = math.Max(v, 0)
		}
	}

	for i, v := range x {
		if weights[i] && v > 0 {
			out[i] = v
		}
	}
	return out, nil
}
