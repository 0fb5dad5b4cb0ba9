// Package smooth provides weighted low-pass smoothing operators for 1-D
// signals.
//
// Every smoother implements [Operator]: Smooth(x, scale, weights) returns a
// signal of the same length as x; larger scales give smoother output and
// per-sample weights de-emphasise samples in the fit (a zero weight removes
// the sample entirely).
//
// [L2Spline] is the workhorse. It minimises
//
//	Σ w_i (x_i - z_i)^2 + scale^4 · ||L z||^2
//
// where L is the second-difference operator with reflective boundaries.
// Without weights the solution is a diagonal filter in the DCT domain,
// evaluated with an FFT. With weights the pentadiagonal system is solved
// directly by banded Cholesky factorisation. Both paths solve the same system
// and agree to rounding error.
//
// [L1Spline] is a robust variant that iteratively down-weights large
// residuals, and [MedianSpline] pre-filters with a sliding median.
package smooth
