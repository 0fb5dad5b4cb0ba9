// Package frames holds dense time x row x column image stacks.
package frames

import (
	"errors"
	"fmt"
)

// ErrShape is returned for non-positive or inconsistent dimensions.
var ErrShape = errors.New("frames: invalid shape")

// Channel tags used by stack producers. The tag is passthrough metadata.
const (
	ChannelBaseline     = "baseline"
	ChannelBaselinePCA  = "baseline_pca"
	ChannelBaselineComb = "baseline_comb"
	ChannelF0           = "F0"
	ChannelDFoF         = "dF/F0"
	ChannelEvents       = "events"
)

// Stack is a T x R x C array stored row-major: frame t, row r, column c is
// at Data[(t*R+r)*C+c].
type Stack struct {
	T, R, C int
	Data    []float64
	Channel string
}

// New allocates a zero-filled stack.
func New(t, r, c int) (*Stack, error) {
	if t <= 0 || r <= 0 || c <= 0 {
		return nil, fmt.Errorf("%w: %dx%dx%d", ErrShape, t, r, c)
	}
	return &Stack{T: t, R: r, C: c, Data: make([]float64, t*r*c)}, nil
}

// FromData wraps data without copying.
func FromData(t, r, c int, data []float64) (*Stack, error) {
	if t <= 0 || r <= 0 || c <= 0 || len(data) != t*r*c {
		return nil, fmt.Errorf("%w: %dx%dx%d with %d values", ErrShape, t, r, c, len(data))
	}
	return &Stack{T: t, R: r, C: c, Data: data}, nil
}

// Index returns the offset of (t, r, c) in Data.
func (s *Stack) Index(t, r, c int) int {
	return (t*s.R+r)*s.C + c
}

// At returns the value at (t, r, c).
func (s *Stack) At(t, r, c int) float64 {
	return s.Data[s.Index(t, r, c)]
}

// Set stores v at (t, r, c).
func (s *Stack) Set(t, r, c int, v float64) {
	s.Data[s.Index(t, r, c)] = v
}

// Frame returns the r*c values of frame t. The slice aliases Data.
func (s *Stack) Frame(t int) []float64 {
	n := s.R * s.C
	return s.Data[t*n : (t+1)*n]
}

// Pixel returns a copy of the time series at (r, c).
func (s *Stack) Pixel(r, c int) []float64 {
	out := make([]float64, s.T)
	for t := range out {
		out[t] = s.At(t, r, c)
	}
	return out
}

// SetPixel overwrites the time series at (r, c). len(v) must equal T.
func (s *Stack) SetPixel(r, c int, v []float64) {
	for t := 0; t < s.T; t++ {
		s.Set(t, r, c, v[t])
	}
}

// Shape returns (T, R, C).
func (s *Stack) Shape() (int, int, int) {
	return s.T, s.R, s.C
}

// SameShape reports whether o has the dimensions of s.
func (s *Stack) SameShape(o *Stack) bool {
	return s.T == o.T && s.R == o.R && s.C == o.C
}

// Clone returns a deep copy of s.
func (s *Stack) Clone() *Stack {
	out := *s
	out.Data = append([]float64(nil), s.Data...)
	return &out
}

// WithChannel returns a shallow copy of s carrying a different tag.
func (s *Stack) WithChannel(ch string) *Stack {
	out := *s
	out.Channel = ch
	return &out
}

// MeanFrame returns the temporal mean of every pixel.
func (s *Stack) MeanFrame() []float64 {
	n := s.R * s.C
	out := make([]float64, n)
	for t := 0; t < s.T; t++ {
		f := s.Frame(t)
		for i, v := range f {
			out[i] += v
		}
	}
	for i := range out {
		out[i] /= float64(s.T)
	}
	return out
}
