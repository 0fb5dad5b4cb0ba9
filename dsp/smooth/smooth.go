package smooth

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-fluo/dsp/core"
)

// Errors returned by smoothers.
var (
	ErrLengthMismatch = errors.New("smooth: weights and signal length mismatch")
	ErrNegativeWeight = errors.New("smooth: weights must be non-negative")
	ErrSingular       = errors.New("smooth: system is not positive definite")
)

// Operator is a possibly-weighted low-pass smoother.
type Operator interface {
	// Smooth returns a smoothed copy of x. weights may be nil.
	Smooth(x []float64, scale float64, weights []float64) ([]float64, error)
}

// Func adapts an ordinary function to the Operator interface.
type Func func(x []float64, scale float64, weights []float64) ([]float64, error)

// Smooth calls f.
func (f Func) Smooth(x []float64, scale float64, weights []float64) ([]float64, error) {
	return f(x, scale, weights)
}

// Identity returns its input unchanged. It is useful as a stand-in when
// testing components that depend on a smoother.
type Identity struct{}

// Smooth returns a copy of x.
func (Identity) Smooth(x []float64, _ float64, weights []float64) ([]float64, error) {
	if err := checkWeights(x, weights); err != nil {
		return nil, err
	}
	return core.Clone(x), nil
}

// Default is the smoother used by packages that are not given one explicitly.
var Default Operator = L2Spline{}

// OrDefault returns op, or Default when op is nil.
func OrDefault(op Operator) Operator {
	if op == nil {
		return Default
	}
	return op
}

func checkWeights(x, weights []float64) error {
	if weights == nil {
		return nil
	}
	if len(weights) != len(x) {
		return fmt.Errorf("%w: %d weights for %d samples", ErrLengthMismatch, len(weights), len(x))
	}
	for i, w := range weights {
		if w < 0 {
			return fmt.Errorf("%w: weights[%d] = %v", ErrNegativeWeight, i, w)
		}
	}
	return nil
}
