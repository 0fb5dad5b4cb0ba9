package excursion

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-fluo/dsp/core"
	"github.com/cwbudde/algo-fluo/dsp/label"
	"github.com/cwbudde/algo-fluo/dsp/smooth"
	"github.com/cwbudde/algo-fluo/stats/robust"
)

const defaultBase = 1.5

// ErrInvalidParams is returned for unusable detection parameters.
var ErrInvalidParams = errors.New("excursion: invalid parameters")

// Params controls excursion detection.
type Params struct {
	K          float64 // significance threshold in units of the per-scale noise
	Level      int     // number of detail scales
	MinSize    int     // minimum number of significant (scale, time) cells
	MinScales  int     // minimum number of scales an excursion spans
	StartScale int     // first detail scale (1-based) taken into account
	Modulus    bool    // detect negative as well as positive excursions

	// RecVariant selects the reconstruction: 1 keeps the signed sum of the
	// details on the support, 2 additionally clamps it to non-negative.
	RecVariant int
}

// DefaultParams returns the detection defaults.
func DefaultParams() Params {
	return Params{
		K:          3,
		Level:      7,
		MinSize:    10,
		MinScales:  3,
		StartScale: 1,
		RecVariant: 2,
	}
}

// Validate reports whether the parameters are usable.
func (p Params) Validate() error {
	switch {
	case p.K <= 0 || math.IsNaN(p.K):
		return fmt.Errorf("%w: k must be > 0: %f", ErrInvalidParams, p.K)
	case p.Level < 1:
		return fmt.Errorf("%w: level must be >= 1: %d", ErrInvalidParams, p.Level)
	case p.StartScale < 1 || p.StartScale > p.Level:
		return fmt.Errorf("%w: start scale must be in [1, %d]: %d", ErrInvalidParams, p.Level, p.StartScale)
	case p.MinScales < 1:
		return fmt.Errorf("%w: min scales must be >= 1: %d", ErrInvalidParams, p.MinScales)
	case p.RecVariant != 1 && p.RecVariant != 2:
		return fmt.Errorf("%w: reconstruction variant must be 1 or 2: %d", ErrInvalidParams, p.RecVariant)
	}
	return nil
}

// Finder detects significant excursions. Each returned slice has the length
// of x and is zero outside the excursion.
type Finder interface {
	Find(x []float64, p Params) ([][]float64, error)
}

// None is a Finder that never detects anything.
type None struct{}

// Find returns no excursions.
func (None) Find(_ []float64, p Params) ([][]float64, error) {
	return nil, p.Validate()
}

// Multiscale detects excursions in a spline-difference pyramid.
//
// Approximations a_0 = x and a_j = S(x, Base^j) define details
// d_j = a_{j-1} - a_j. A detail sample is significant when it exceeds K
// times the MAD-sigma of its scale. Face-connected groups of significant
// (scale, time) cells form excursions; the reconstruction of an excursion
// is the sum of its details over the cells it covers.
type Multiscale struct {
	// Base is the ratio between consecutive scales. Zero selects 1.5.
	Base float64
	// Smoother builds the approximations. Nil selects smooth.Default.
	Smoother smooth.Operator
}

// Find implements Finder.
func (m Multiscale) Find(x []float64, p Params) ([][]float64, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	n := len(x)
	if n < 3 {
		return nil, nil
	}

	details, err := m.decompose(x, p.Level)
	if err != nil {
		return nil, err
	}

	levels := p.Level - p.StartScale + 1
	sig := make([]bool, levels*n)
	for j := 0; j < levels; j++ {
		d := details[p.StartScale-1+j]
		th := p.K * robust.MADStd(d)
		for t, v := range d {
			if p.Modulus {
				v = math.Abs(v)
			}
			sig[j*n+t] = v > th && v != 0
		}
	}

	labels, count, err := label.Label(sig, levels, n)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	boxes, err := label.Boxes(labels, count, levels, n)
	if err != nil {
		return nil, err
	}

	sizes := make([]int, count)
	for _, id := range labels {
		if id > 0 {
			sizes[id-1]++
		}
	}

	var out [][]float64
	for k, box := range boxes {
		if sizes[k] < p.MinSize || box.Extent(0) < p.MinScales {
			continue
		}

		rec := make([]float64, n)
		id := k + 1
		for j := box.Lo[0]; j < box.Hi[0]; j++ {
			d := details[p.StartScale-1+j]
			for t := box.Lo[1]; t < box.Hi[1]; t++ {
				if labels[j*n+t] == id {
					rec[t] += d[t]
				}
			}
		}
		if p.RecVariant == 2 {
			core.ClampNonNegative(rec)
		}
		out = append(out, rec)
	}

	return out, nil
}

func (m Multiscale) decompose(x []float64, level int) ([][]float64, error) {
	base := m.Base
	if base <= 1 {
		base = defaultBase
	}
	op := smooth.OrDefault(m.Smoother)

	details := make([][]float64, level)
	prev := x
	scale := 1.0
	for j := 0; j < level; j++ {
		scale *= base
		next, err := op.Smooth(x, scale, nil)
		if err != nil {
			return nil, fmt.Errorf("excursion: smoothing at scale %g: %w", scale, err)
		}
		d := make([]float64, len(x))
		for i := range d {
			d[i] = prev[i] - next[i]
		}
		details[j] = d
		prev = next
	}

	return details, nil
}
