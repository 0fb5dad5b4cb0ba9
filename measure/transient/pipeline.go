package transient

import (
	"fmt"

	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-fluo/dsp/core"
	"github.com/cwbudde/algo-fluo/dsp/label"
	"github.com/cwbudde/algo-fluo/measure/baseline"
	"github.com/cwbudde/algo-fluo/stats/noise"
	"github.com/cwbudde/algo-fluo/stats/robust"
)

// lowFactor bounds the samples used to estimate the offset of a trace:
// those below lowFactor times its median.
const lowFactor = 2.5

// Pipeline maps a raw trace to its reconstructed transients.
type Pipeline func(y []float64) ([]float64, error)

// SimplePipeline normalises a trace by its noise, removes a positive offset,
// labels it with l and reconstructs the labelled transients in the original
// units. A nil labeler selects PercentileLabeler(5, 1). All-zero input
// yields all-zero output.
func SimplePipeline(l Labeler, cfg ReconstructConfig) (Pipeline, error) {
	rec, err := NewReconstructor(cfg)
	if err != nil {
		return nil, err
	}
	if l == nil {
		l = PercentileLabeler(5, 1)
	}

	return func(y []float64) ([]float64, error) {
		if core.IsZero(y) {
			return make([]float64, len(y)), nil
		}
		vn, ns, _, err := normalise(y)
		if err != nil {
			return nil, err
		}

		labels, err := l(vn)
		if err != nil {
			return nil, err
		}
		if !label.Any(labels) {
			return make([]float64, len(y)), nil
		}

		out, err := rec.Reconstruct(vn, labels)
		if err != nil {
			return nil, err
		}
		vecmath.MulBlockInPlace(out, ns)
		return out, nil
	}, nil
}

// NoJitterPipeline keeps the offset-corrected trace where SimpleLabel with
// threshold 1 and scale tau fires on the normalised trace, and zeroes it
// elsewhere.
func NoJitterPipeline(tau float64) Pipeline {
	return func(y []float64) ([]float64, error) {
		if core.IsZero(y) {
			return make([]float64, len(y)), nil
		}
		vn, _, yc, err := normalise(y)
		if err != nil {
			return nil, err
		}
		labels, err := SimpleLabel(vn, 1, tau)
		if err != nil {
			return nil, err
		}

		out := make([]float64, len(y))
		for i, set := range labels {
			if set {
				out[i] = yc[i]
			}
		}
		return out, nil
	}
}

// BaselinePipeline normalises a trace against its TMVM baseline, labels it
// with a jittered SimpleLabel at scale tau and reconstructs the raw trace.
// Samples where the baseline is not positive are zeroed.
func BaselinePipeline(tau float64, seed int64, bcfg baseline.TMVMConfig, rcfg ReconstructConfig) (Pipeline, error) {
	if err := bcfg.Validate(); err != nil {
		return nil, err
	}
	rec, err := NewReconstructor(rcfg)
	if err != nil {
		return nil, err
	}
	jcfg := DefaultJitterConfig()
	jcfg.Tau = tau
	jcfg.Seed = seed
	lab, err := WithLocalJitter(SimpleLabeler(1, tau), jcfg)
	if err != nil {
		return nil, err
	}

	return func(y []float64) ([]float64, error) {
		n := len(y)
		r, err := baseline.TMVM(y, bcfg)
		if err != nil {
			return nil, err
		}
		b := r.Baseline

		d := make([]float64, n)
		floats.SubTo(d, y, b)
		if n > 0 {
			floats.AddConst(robust.Median(d), b)
		}

		vn := make([]float64, n)
		for i := range vn {
			if r.Noise[i] > 0 {
				vn[i] = (y[i] - b[i]) / r.Noise[i]
			}
		}

		labels, err := lab(vn)
		if err != nil {
			return nil, err
		}
		out, err := rec.Reconstruct(y, labels)
		if err != nil {
			return nil, err
		}
		for i := range out {
			if !(b[i] > 0) {
				out[i] = 0
			}
		}
		return out, nil
	}, nil
}

// normalise removes a positive offset estimated from the low samples of y
// and divides by the running noise. Samples with zero noise map to zero.
// yc is the offset-corrected trace.
func normalise(y []float64) (vn, ns, yc []float64, err error) {
	ns, err = noise.Estimate(y)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("transient: noise: %w", err)
	}

	lim := lowFactor * robust.Median(y)
	low := robust.Select(y, func(_ int, v float64) bool { return v < lim })
	if len(low) == 0 {
		low = y
	}
	bias := robust.Median(low)
	if !(bias > 0) {
		bias = 0
	}

	vn = make([]float64, len(y))
	yc = make([]float64, len(y))
	for i, v := range y {
		yc[i] = v - bias
		if ns[i] > 0 {
			vn[i] = yc[i] / ns[i]
		}
	}
	return vn, ns, yc, nil
}
