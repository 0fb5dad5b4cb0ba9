package patch

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned for unusable tiling or kernel parameters.
var ErrInvalidConfig = errors.New("patch: invalid configuration")

// Window is a rectangular index range: rows [Row, Row+Height) and columns
// [Col, Col+Width).
type Window struct {
	Row, Col      int
	Height, Width int
}

// Size returns the number of pixels in the window.
func (w Window) Size() int { return w.Height * w.Width }

// Contains reports whether pixel (r, c) lies inside the window.
func (w Window) Contains(r, c int) bool {
	return r >= w.Row && r < w.Row+w.Height && c >= w.Col && c < w.Col+w.Width
}

// String implements fmt.Stringer.
func (w Window) String() string {
	return fmt.Sprintf("[%d:%d, %d:%d]", w.Row, w.Row+w.Height, w.Col, w.Col+w.Width)
}

// Tiling is an ordered set of windows over a Rows x Cols plane.
type Tiling struct {
	Rows, Cols int
	Windows    []Window
}

// Tile places size x size windows with origins 0, stride, 2*stride, ...
// below each dimension, in row-major order. Windows are clipped to the
// plane, never padded.
func Tile(rows, cols, size, stride int) (Tiling, error) {
	switch {
	case rows <= 0 || cols <= 0:
		return Tiling{}, fmt.Errorf("%w: plane %dx%d", ErrInvalidConfig, rows, cols)
	case size <= 0:
		return Tiling{}, fmt.Errorf("%w: window size must be > 0: %d", ErrInvalidConfig, size)
	case stride <= 0:
		return Tiling{}, fmt.Errorf("%w: stride must be > 0: %d", ErrInvalidConfig, stride)
	}

	t := Tiling{Rows: rows, Cols: cols}
	for r := 0; r < rows; r += stride {
		for c := 0; c < cols; c += stride {
			t.Windows = append(t.Windows, Window{
				Row:    r,
				Col:    c,
				Height: min(size, rows-r),
				Width:  min(size, cols-c),
			})
		}
	}

	return t, nil
}

// Coverage returns, for every pixel, the number of windows that contain it.
func (t Tiling) Coverage() []int {
	out := make([]int, t.Rows*t.Cols)
	for _, w := range t.Windows {
		for r := w.Row; r < w.Row+w.Height; r++ {
			for c := w.Col; c < w.Col+w.Width; c++ {
				out[r*t.Cols+c]++
			}
		}
	}
	return out
}
