package patch

import (
	"fmt"

	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-fluo/dsp/frames"
)

const weightEpsilon = 1e-12

// Patch is a window together with its per-pixel weights (Height x Width,
// row-major).
type Patch struct {
	Window  Window
	Weights []float64
}

// Signal pairs a patch with a time series derived from it.
type Signal struct {
	Patch
	Values []float64
}

// Extract returns one signal per window of t: the weighted spatial average
// of each frame of s over the window. The kernel is clipped to the window
// from its top-left corner and renormalised. A window whose clipped kernel
// has no weight yields zero values and zero weights.
func Extract(s *frames.Stack, t Tiling, k Kernel) ([]Signal, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil stack", ErrInvalidConfig)
	}
	if s.R != t.Rows || s.C != t.Cols {
		return nil, fmt.Errorf("%w: tiling plane %dx%d does not match stack %dx%d",
			ErrInvalidConfig, t.Rows, t.Cols, s.R, s.C)
	}
	if len(k.Weights) != k.Rows*k.Cols {
		return nil, fmt.Errorf("%w: kernel holds %d weights for %dx%d",
			ErrInvalidConfig, len(k.Weights), k.Rows, k.Cols)
	}

	out := make([]Signal, len(t.Windows))
	for i, w := range t.Windows {
		if w.Height > k.Rows || w.Width > k.Cols {
			return nil, fmt.Errorf("%w: window %v larger than %dx%d kernel",
				ErrInvalidConfig, w, k.Rows, k.Cols)
		}

		weights := k.clip(w.Height, w.Width)
		values := make([]float64, s.T)
		prod := make([]float64, w.Width)
		for f := 0; f < s.T; f++ {
			var acc float64
			for r := 0; r < w.Height; r++ {
				off := s.Index(f, w.Row+r, w.Col)
				vecmath.MulBlock(prod, s.Data[off:off+w.Width], weights[r*w.Width:(r+1)*w.Width])
				acc += floats.Sum(prod)
			}
			values[f] = acc
		}

		out[i] = Signal{Patch: Patch{Window: w, Weights: weights}, Values: values}
	}

	return out, nil
}

// Recombine spreads every signal over its window scaled by its weights and
// normalises each pixel by its accumulated weight. Pixels without weight
// are zero.
func Recombine(signals []Signal, t, r, c int) (*frames.Stack, error) {
	out, err := frames.New(t, r, c)
	if err != nil {
		return nil, err
	}
	counts := make([]float64, r*c)

	for i, sig := range signals {
		w := sig.Window
		if len(sig.Values) != t {
			return nil, fmt.Errorf("%w: signal %d has %d samples, want %d", ErrInvalidConfig, i, len(sig.Values), t)
		}
		if w.Row < 0 || w.Col < 0 || w.Height <= 0 || w.Width <= 0 || w.Row+w.Height > r || w.Col+w.Width > c {
			return nil, fmt.Errorf("%w: signal %d window %v outside %dx%d", ErrInvalidConfig, i, w, r, c)
		}
		if len(sig.Weights) != w.Size() {
			return nil, fmt.Errorf("%w: signal %d has %d weights for window %v", ErrInvalidConfig, i, len(sig.Weights), w)
		}

		for row := 0; row < w.Height; row++ {
			wrow := sig.Weights[row*w.Width : (row+1)*w.Width]
			off := (w.Row+row)*c + w.Col
			floats.Add(counts[off:off+w.Width], wrow)
			for f, v := range sig.Values {
				dst := out.Frame(f)[off : off+w.Width]
				floats.AddScaled(dst, v, wrow)
			}
		}
	}

	for p, wsum := range counts {
		if wsum == 0 {
			for f := 0; f < t; f++ {
				out.Data[f*r*c+p] = 0
			}
			continue
		}
		norm := 1 / (wsum + weightEpsilon)
		for f := 0; f < t; f++ {
			out.Data[f*r*c+p] *= norm
		}
	}

	return out, nil
}

// Crop returns a copy of the stack restricted to window w.
func Crop(s *frames.Stack, w Window) (*frames.Stack, error) {
	sub, err := frames.New(s.T, w.Height, w.Width)
	if err != nil {
		return nil, err
	}
	if w.Row < 0 || w.Col < 0 || w.Row+w.Height > s.R || w.Col+w.Width > s.C {
		return nil, fmt.Errorf("%w: window %v outside %dx%d", ErrInvalidConfig, w, s.R, s.C)
	}
	for f := 0; f < s.T; f++ {
		for r := 0; r < w.Height; r++ {
			off := s.Index(f, w.Row+r, w.Col)
			copy(sub.Data[sub.Index(f, r, 0):], s.Data[off:off+w.Width])
		}
	}
	sub.Channel = s.Channel
	return sub, nil
}

// Map reduces every window of a size/stride tiling of s to a scalar with fn
// and returns the R x C map of per-pixel averages over the windows that
// contain each pixel.
func Map(s *frames.Stack, size, stride int, fn func(*frames.Stack) (float64, error)) ([]float64, error) {
	t, err := Tile(s.R, s.C, size, stride)
	if err != nil {
		return nil, err
	}

	sum := make([]float64, s.R*s.C)
	for _, w := range t.Windows {
		sub, err := Crop(s, w)
		if err != nil {
			return nil, err
		}
		v, err := fn(sub)
		if err != nil {
			return nil, fmt.Errorf("patch: window %v: %w", w, err)
		}
		for r := w.Row; r < w.Row+w.Height; r++ {
			for c := w.Col; c < w.Col+w.Width; c++ {
				sum[r*s.C+c] += v
			}
		}
	}

	for p, n := range t.Coverage() {
		if n > 0 {
			sum[p] /= float64(n)
		}
	}
	return sum, nil
}
