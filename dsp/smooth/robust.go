package smooth

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-fluo/dsp/core"
	"github.com/cwbudde/algo-fluo/dsp/rank"
	"github.com/cwbudde/algo-fluo/stats/robust"
)

const (
	defaultL1MaxIter = 20
	defaultL1Tol     = 1e-4
)

// L1Spline is a robust spline smoother. It refits an [L2Spline] with
// Huber weights min(1, c/|r|), where c is the MAD-derived sigma of the
// current residual r, so isolated excursions pull the fit much less than
// they would in a plain least-squares fit.
type L1Spline struct {
	// MaxIter bounds the reweighting loop (default 20).
	MaxIter int

	// Tol stops the loop once the relative change of the fit drops below it
	// (default 1e-4).
	Tol float64
}

// Smooth implements Operator. Caller weights multiply the robust weights.
func (s L1Spline) Smooth(x []float64, scale float64, weights []float64) ([]float64, error) {
	if err := checkWeights(x, weights); err != nil {
		return nil, err
	}

	maxIter := s.MaxIter
	if maxIter <= 0 {
		maxIter = defaultL1MaxIter
	}
	tol := s.Tol
	if tol <= 0 {
		tol = defaultL1Tol
	}

	var l2 L2Spline
	z, err := l2.Smooth(x, scale, weights)
	if err != nil || len(x) <= 1 || scale <= 0 {
		return z, err
	}

	resid := make([]float64, len(x))
	w := make([]float64, len(x))
	for it := 0; it < maxIter; it++ {
		floats.SubTo(resid, x, z)
		c := robust.MADStd(resid)
		if c == 0 {
			break
		}

		for i, r := range resid {
			w[i] = 1
			if a := math.Abs(r); a > c {
				w[i] = c / a
			}
			if weights != nil {
				w[i] *= weights[i]
			}
		}

		next, err := l2.Smooth(x, scale, w)
		if err != nil {
			return nil, err
		}

		ref := floats.Norm(z, 2)
		change := floats.Distance(next, z, 2)
		z = next
		if change == 0 || (ref > 0 && change/ref < tol) {
			break
		}
	}

	return z, nil
}

// MedianSpline smooths with an [L2Spline] after a sliding median filter of
// the given width. Widths below 2 skip the median stage.
type MedianSpline struct {
	Width int
}

// Smooth implements Operator.
func (s MedianSpline) Smooth(x []float64, scale float64, weights []float64) ([]float64, error) {
	if err := checkWeights(x, weights); err != nil {
		return nil, err
	}

	pre := core.Clone(x)
	if s.Width > 1 && len(x) > 0 {
		var err error
		pre, err = rank.Median(x, s.Width)
		if err != nil {
			return nil, err
		}
	}

	return L2Spline{}.Smooth(pre, scale, weights)
}
