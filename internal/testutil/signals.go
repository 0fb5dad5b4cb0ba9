package testutil

import (
	"math"
	"math/rand"
)

// DeterministicNoise generates uniform white noise in [-amplitude, amplitude)
// with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// GaussianNoise generates zero-mean normal noise with standard deviation sigma.
func GaussianNoise(seed int64, sigma float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = sigma * rng.NormFloat64()
	}
	return out
}

// SineBump returns a signal of the given length that is zero except for one
// positive half-wave of the given amplitude on [start, start+width).
func SineBump(length, start, width int, amplitude float64) []float64 {
	out := make([]float64, length)
	for i := 0; i < width && start+i < length; i++ {
		out[start+i] = amplitude * math.Sin(math.Pi*float64(i)/float64(width))
	}
	return out
}

// Transient returns a signal with an instantaneous rise of the given
// amplitude at onset followed by an exponential decay with time constant tau.
func Transient(length, onset int, amplitude, tau float64) []float64 {
	out := make([]float64, length)
	for i := onset; i < length; i++ {
		out[i] = amplitude * math.Exp(-float64(i-onset)/tau)
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// Ones returns a slice of length n filled with 1.0.
func Ones(n int) []float64 {
	return DC(1.0, n)
}

// Add returns the elementwise sum of the given equally long slices.
func Add(xs ...[]float64) []float64 {
	if len(xs) == 0 {
		return nil
	}
	out := make([]float64, len(xs[0]))
	for _, x := range xs {
		for i := range out {
			out[i] += x[i]
		}
	}
	return out
}

// RMS returns the root-mean-square of x.
func RMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

// MaxAbs returns the largest absolute value of x[lo:hi].
func MaxAbs(x []float64, lo, hi int) float64 {
	var m float64
	for _, v := range x[lo:hi] {
		m = math.Max(m, math.Abs(v))
	}
	return m
}
