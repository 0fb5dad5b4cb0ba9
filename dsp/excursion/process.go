package excursion

import (
	"fmt"

	"github.com/cwbudde/algo-fluo/dsp/core"
	"github.com/cwbudde/algo-fluo/dsp/smooth"
)

// ProcessConfig controls how excursions are merged into one signal.
type ProcessConfig struct {
	K          float64
	Level      int
	StartScale int
	RecVariant int
	TauSmooth  float64 // scale of the final smoothing; zero disables it

	// NonNegative merges by elementwise maximum and clamps the result at
	// zero; otherwise excursions of both signs are summed.
	NonNegative bool

	// Smoother is used for the final smoothing. Nil selects smooth.Default.
	Smoother smooth.Operator
}

// DefaultProcessConfig returns the merge defaults.
func DefaultProcessConfig() ProcessConfig {
	return ProcessConfig{
		K:           3,
		Level:       7,
		StartScale:  1,
		TauSmooth:   1.5,
		RecVariant:  2,
		NonNegative: true,
	}
}

// Params returns the detection parameters implied by cfg.
func (cfg ProcessConfig) Params() Params {
	p := DefaultParams()
	p.K = cfg.K
	p.Level = cfg.Level
	p.StartScale = cfg.StartScale
	p.RecVariant = cfg.RecVariant
	p.Modulus = !cfg.NonNegative
	return p
}

// Process detects excursions of x with f and merges them. Without
// excursions the result is all zero.
func Process(f Finder, x []float64, cfg ProcessConfig) ([]float64, error) {
	if f == nil {
		f = Multiscale{}
	}

	objs, err := f.Find(x, cfg.Params())
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(x))
	if len(objs) == 0 {
		return out, nil
	}

	for k, o := range objs {
		if len(o) != len(x) {
			return nil, fmt.Errorf("excursion: reconstruction %d has length %d, want %d", k, len(o), len(x))
		}
	}

	if cfg.NonNegative {
		copy(out, objs[0])
		for _, o := range objs[1:] {
			for i, v := range o {
				out[i] = max(out[i], v)
			}
		}
	} else {
		for _, o := range objs {
			for i, v := range o {
				out[i] += v
			}
		}
	}

	if cfg.TauSmooth > 0 {
		out, err = smooth.OrDefault(cfg.Smoother).Smooth(out, cfg.TauSmooth, nil)
		if err != nil {
			return nil, fmt.Errorf("excursion: smoothing: %w", err)
		}
	}
	if cfg.NonNegative {
		core.ClampNonNegative(out)
	}

	return out, nil
}
