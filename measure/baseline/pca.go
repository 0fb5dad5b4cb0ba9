package baseline

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-fluo/dsp/frames"
	"github.com/cwbudde/algo-fluo/dsp/rank"
	"github.com/cwbudde/algo-fluo/stats/robust"
)

const defaultPCASmooth = 60.0

// ErrFactorization is returned when the SVD of a stack fails.
var ErrFactorization = errors.New("baseline: SVD failed")

// PCAConfig controls the principal-component baseline of a frame stack.
type PCAConfig struct {
	Smooth     float64 // ALS spline scale for the temporal coordinates
	Components int     // zero selects T/20, at least one

	// Fit replaces the baseline fit applied to every temporal coordinate.
	// Nil selects ALS with Smooth.
	Fit func(x []float64) ([]float64, error)
}

// DefaultPCAConfig returns the PCA baseline defaults.
func DefaultPCAConfig() PCAConfig {
	return PCAConfig{Smooth: defaultPCASmooth}
}

// PCA decomposes the mean-removed stack into principal components, replaces
// each temporal coordinate by its baseline and reconstructs. Components are
// oriented so that transients are positive before fitting.
func PCA(s *frames.Stack, cfg PCAConfig) (*frames.Stack, error) {
	if s == nil || len(s.Data) != s.T*s.R*s.C || s.T <= 0 {
		return nil, fmt.Errorf("%w: unusable stack", frames.ErrShape)
	}
	if cfg.Smooth <= 0 {
		cfg.Smooth = defaultPCASmooth
	}
	fit := cfg.Fit
	if fit == nil {
		a, err := NewALS(ApplyALSOptions(WithSmooth(cfg.Smooth)))
		if err != nil {
			return nil, err
		}
		fit = func(x []float64) ([]float64, error) { return a.Fit(x, nil) }
	}

	t, npx := s.T, s.R*s.C
	mean := s.MeanFrame()

	centred := mat.NewDense(t, npx, nil)
	for i := 0; i < t; i++ {
		row := make([]float64, npx)
		floats.SubTo(row, s.Frame(i), mean)
		centred.SetRow(i, row)
	}

	out := &frames.Stack{T: t, R: s.R, C: s.C, Data: make([]float64, t*npx), Channel: frames.ChannelBaselinePCA}
	for i := 0; i < t; i++ {
		copy(out.Frame(i), mean)
	}

	npc := cfg.Components
	if npc <= 0 {
		npc = max(t/20, 1)
	}
	npc = min(npc, t, npx)

	if mat.Norm(centred, 2) == 0 {
		return out, nil
	}

	var svd mat.SVD
	if !svd.Factorize(centred, mat.SVDThin) {
		return nil, ErrFactorization
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	sv := svd.Values(nil)

	filt := max(t/5, 1)
	coord := make([]float64, t)
	comp := make([]float64, npx)
	for k := 0; k < npc; k++ {
		mat.Col(coord, k, &u)
		floats.Scale(sv[k], coord)
		mat.Col(comp, k, &v)

		trend, err := rank.Median(coord, filt)
		if err != nil {
			return nil, err
		}
		detail := make([]float64, t)
		floats.SubTo(detail, coord, trend)
		if robust.Skewness(detail) < 0 {
			floats.Scale(-1, coord)
			floats.Scale(-1, comp)
		}

		bc, err := fit(coord)
		if err != nil {
			return nil, fmt.Errorf("baseline: component %d: %w", k, err)
		}
		for i := 0; i < t; i++ {
			floats.AddScaled(out.Frame(i), bc[i], comp)
		}
	}

	return out, nil
}
