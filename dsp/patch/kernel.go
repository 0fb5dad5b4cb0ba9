package patch

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-fluo/dsp/window"
)

// DefaultSigma is the width of the default Gaussian weighting kernel.
const DefaultSigma = 1.5

// Kernel is a Rows x Cols row-major weight array.
type Kernel struct {
	Rows, Cols int
	Weights    []float64
}

// GaussianKernel returns a size x size isotropic Gaussian centred on the
// middle of the window, normalised to sum 1.
func GaussianKernel(size int, sigma float64) (Kernel, error) {
	if size <= 0 {
		return Kernel{}, fmt.Errorf("%w: kernel size must be > 0: %d", ErrInvalidConfig, size)
	}
	if sigma <= 0 || math.IsNaN(sigma) || math.IsInf(sigma, 0) {
		return Kernel{}, fmt.Errorf("%w: sigma must be > 0: %f", ErrInvalidConfig, sigma)
	}

	k := Kernel{Rows: size, Cols: size, Weights: make([]float64, size*size)}
	center := float64(size-1) / 2
	for r := 0; r < size; r++ {
		y := (float64(r) - center) / sigma
		for c := 0; c < size; c++ {
			x := (float64(c) - center) / sigma
			k.Weights[r*size+c] = math.Exp(-0.5 * (x*x + y*y))
		}
	}
	floats.Scale(1/floats.Sum(k.Weights), k.Weights)

	return k, nil
}

// WindowKernel returns the separable size x size kernel of a window shape,
// normalised to sum 1.
func WindowKernel(t window.Type, size int, opts ...window.Option) (Kernel, error) {
	w, err := window.Kernel2D(t, size, size, opts...)
	if err != nil {
		return Kernel{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return Kernel{Rows: size, Cols: size, Weights: w}, nil
}

// UniformKernel returns a size x size kernel of equal weights.
func UniformKernel(size int) (Kernel, error) {
	return WindowKernel(window.TypeRectangular, size)
}

// clip returns the top-left h x w corner of k renormalised to sum 1, or all
// zeros if the corner carries no weight.
func (k Kernel) clip(h, w int) []float64 {
	out := make([]float64, h*w)
	for r := 0; r < h; r++ {
		copy(out[r*w:(r+1)*w], k.Weights[r*k.Cols:r*k.Cols+w])
	}
	if sum := floats.Sum(out); sum > 0 {
		floats.Scale(1/sum, out)
	}
	return out
}
