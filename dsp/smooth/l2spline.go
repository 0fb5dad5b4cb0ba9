package smooth

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-fluo/dsp/core"
)

// L2Spline is a penalised least-squares (Whittaker-type) smoother with a
// second-difference roughness penalty of strength scale^4.
//
// The zero value is ready to use and safe for concurrent use.
type L2Spline struct{}

// Smooth implements Operator. A non-positive scale returns a copy of x.
// All-zero weights are treated as no weights.
func (L2Spline) Smooth(x []float64, scale float64, weights []float64) ([]float64, error) {
	if err := checkWeights(x, weights); err != nil {
		return nil, err
	}

	n := len(x)
	if n <= 1 || scale <= 0 {
		return core.Clone(x), nil
	}

	penalty := math.Pow(scale, 4)

	// Extend to a power of two so the FFT path is always available; the
	// half-sample reflection keeps the boundary condition of the DCT.
	m := core.NextPowerOf2(n)
	xe := core.PadSymmetric(x, 0, m-n)

	var (
		z   []float64
		err error
	)
	if weights == nil || core.IsZero(weights) {
		z, err = spectralSolve(xe, penalty)
	} else {
		z, err = bandedSolve(xe, core.PadSymmetric(weights, 0, m-n), penalty)
	}
	if err != nil {
		return nil, err
	}

	return z[:n], nil
}

// spectralSolve applies 1/(1 + penalty·λ_k²) in the DCT domain, using an FFT
// of the symmetric extension of x. len(x) must be a power of two.
func spectralSolve(x []float64, penalty float64) ([]float64, error) {
	m := len(x)
	size := 2 * m

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("smooth: failed to create FFT plan: %w", err)
	}

	buf := make([]complex128, size)
	for i, v := range x {
		buf[i] = complex(v, 0)
		buf[size-1-i] = complex(v, 0)
	}

	freq := make([]complex128, size)
	if err := plan.Forward(freq, buf); err != nil {
		return nil, fmt.Errorf("smooth: forward FFT failed: %w", err)
	}

	for k := range freq {
		lambda := 2 - 2*math.Cos(2*math.Pi*float64(k)/float64(size))
		freq[k] *= complex(1/(1+penalty*lambda*lambda), 0)
	}

	if err := plan.Inverse(buf, freq); err != nil {
		return nil, fmt.Errorf("smooth: inverse FFT failed: %w", err)
	}

	out := make([]float64, m)
	for i := range out {
		out[i] = real(buf[i])
	}
	return out, nil
}

// bandedSolve solves (W + penalty·L²) z = W x where L is the reflective
// second-difference operator. The system is symmetric pentadiagonal.
func bandedSolve(x, w []float64, penalty float64) ([]float64, error) {
	m := len(x)

	// L is tridiagonal: diagonal d, super-diagonal 1.
	d := make([]float64, m)
	for i := range d {
		d[i] = -2
	}
	d[0], d[m-1] = -1, -1
	off := func(i int) float64 {
		if i < 0 || i >= m-1 {
			return 0
		}
		return 1
	}

	k := 2
	if m-1 < k {
		k = m - 1
	}
	a := mat.NewSymBandDense(m, k, nil)
	for i := 0; i < m; i++ {
		a.SetSymBand(i, i, w[i]+penalty*(d[i]*d[i]+off(i-1)*off(i-1)+off(i)*off(i)))
		if i+1 < m {
			a.SetSymBand(i, i+1, penalty*off(i)*(d[i]+d[i+1]))
		}
		if k >= 2 && i+2 < m {
			a.SetSymBand(i, i+2, penalty*off(i)*off(i+1))
		}
	}

	var chol mat.BandCholesky
	if ok := chol.Factorize(a); !ok {
		return nil, ErrSingular
	}

	rhs := make([]float64, m)
	for i := range rhs {
		rhs[i] = w[i] * x[i]
	}

	var z mat.VecDense
	if err := chol.SolveVecTo(&z, mat.NewVecDense(m, rhs)); err != nil {
		// A large condition number is reported but the solution is still
		// usable; heavy penalties with tiny weights routinely trigger it.
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("smooth: banded solve failed: %w", err)
		}
	}

	out := make([]float64, m)
	for i := range out {
		out[i] = z.AtVec(i)
	}
	return out, nil
}
