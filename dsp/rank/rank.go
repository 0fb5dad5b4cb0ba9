package rank

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cwbudde/algo-fluo/dsp/core"
)

// ErrInvalidSize is returned for non-positive window sizes.
var ErrInvalidSize = errors.New("rank: window size must be > 0")

// Filter replaces every sample with the element of the given rank (0-based,
// ascending) inside its sliding window.
func Filter(x []float64, size, rank int) ([]float64, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	if rank < 0 || rank >= size {
		return nil, fmt.Errorf("rank: rank %d outside window of size %d", rank, size)
	}

	n := len(x)
	out := make([]float64, n)
	if n == 0 {
		return out, nil
	}

	half := size / 2
	w := newSortedWindow(size)
	for k := 0; k < size; k++ {
		w.insert(x[core.SymmetricIndex(k-half, n)])
	}
	out[0] = w.at(rank)

	for i := 1; i < n; i++ {
		w.remove(x[core.SymmetricIndex(i-1-half, n)])
		w.insert(x[core.SymmetricIndex(i-half+size-1, n)])
		out[i] = w.at(rank)
	}

	return out, nil
}

// Median applies a sliding median filter of the given size.
func Median(x []float64, size int) ([]float64, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	return Filter(x, size, size/2)
}

// Percentile applies a sliding percentile filter. p is in [-100, 100];
// negative values count from the top.
func Percentile(x []float64, size int, p float64) ([]float64, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	if p < 0 {
		p += 100
	}
	if p < 0 || p > 100 {
		return nil, fmt.Errorf("rank: percentile must be in [-100, 100]: %f", p)
	}

	r := int(float64(size) * p / 100)
	if r >= size {
		r = size - 1
	}

	return Filter(x, size, r)
}

// RollingMedian returns the median over a centred window of the given width,
// truncated at the signal boundaries. Even-sized windows average their two
// central values.
func RollingMedian(x []float64, width int) ([]float64, error) {
	if width <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, width)
	}

	n := len(x)
	out := make([]float64, n)
	half := width / 2
	w := newSortedWindow(width)

	lo, hi := 0, 0
	for i := 0; i < n; i++ {
		wantLo := i - half
		if wantLo < 0 {
			wantLo = 0
		}
		wantHi := i - half + width
		if wantHi > n {
			wantHi = n
		}
		for hi < wantHi {
			w.insert(x[hi])
			hi++
		}
		for lo < wantLo {
			w.remove(x[lo])
			lo++
		}
		out[i] = w.median()
	}

	return out, nil
}

// sortedWindow keeps the samples of a sliding window in ascending order.
type sortedWindow struct {
	vals []float64
}

func newSortedWindow(capacity int) *sortedWindow {
	return &sortedWindow{vals: make([]float64, 0, capacity)}
}

func (w *sortedWindow) insert(v float64) {
	i := sort.SearchFloat64s(w.vals, v)
	w.vals = append(w.vals, 0)
	copy(w.vals[i+1:], w.vals[i:])
	w.vals[i] = v
}

func (w *sortedWindow) remove(v float64) {
	i := sort.SearchFloat64s(w.vals, v)
	if i >= len(w.vals) || w.vals[i] != v {
		return
	}
	copy(w.vals[i:], w.vals[i+1:])
	w.vals = w.vals[:len(w.vals)-1]
}

func (w *sortedWindow) at(rank int) float64 {
	return w.vals[rank]
}

func (w *sortedWindow) median() float64 {
	n := len(w.vals)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return w.vals[n/2]
	}
	return 0.5 * (w.vals[n/2-1] + w.vals[n/2])
}
