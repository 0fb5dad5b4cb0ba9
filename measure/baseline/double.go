package baseline

import (
	"fmt"

	"github.com/cwbudde/algo-fluo/dsp/core"
	"github.com/cwbudde/algo-fluo/dsp/smooth"
)

const (
	defaultDoubleSmooth1 = 15.0
	defaultDoubleSmooth2 = 25.0
)

// DoubleScale fits two ALS baselines at spline scales smooth1 and smooth2
// (both with median width smooth1) on a shared noise profile and returns
// their pointwise minimum smoothed at smooth1. Non-positive scales select
// 15 and 25.
func DoubleScale(x []float64, smooth1, smooth2 float64, opts ...ALSOption) ([]float64, error) {
	if smooth1 <= 0 {
		smooth1 = defaultDoubleSmooth1
	}
	if smooth2 <= 0 {
		smooth2 = defaultDoubleSmooth2
	}
	if len(x) < minALSLength {
		return make([]float64, len(x)), nil
	}

	ns, err := DetailNoise(x)
	if err != nil {
		return nil, err
	}

	fit := func(s float64) ([]float64, error) {
		cfg := ApplyALSOptions(opts...)
		cfg.Tau = smooth1
		cfg.Smooth = s
		a, err := NewALS(cfg)
		if err != nil {
			return nil, err
		}
		return a.Fit(x, ns)
	}

	b1, err := fit(smooth1)
	if err != nil {
		return nil, err
	}
	b2, err := fit(smooth2)
	if err != nil {
		return nil, err
	}

	cfg := ApplyALSOptions(opts...)
	out, err := smooth.OrDefault(cfg.Smoother).Smooth(core.Minimum(b1, b2), smooth1, nil)
	if err != nil {
		return nil, fmt.Errorf("baseline: double scale: %w", err)
	}
	return out, nil
}
