package window

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSize is returned for non-positive window lengths.
	ErrInvalidSize = errors.New("window: size must be > 0")
	// ErrInvalidParam is returned for out-of-range shape parameters.
	ErrInvalidParam = errors.New("window: invalid shape parameter")
	// ErrZeroSum is returned when a kernel cannot be normalised.
	ErrZeroSum = errors.New("window: coefficients sum to zero")
)

func validateLength(size int) error {
	if size <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	return nil
}

// validateShape checks the alpha parameter of the shapes that use it.
func validateShape(t Type, cfg config) error {
	a := cfg.alpha
	switch t {
	case TypeGauss:
		if a <= 0 {
			return fmt.Errorf("%w: gauss alpha must be > 0: %f", ErrInvalidParam, a)
		}
	case TypeTukey:
		if a > 1 {
			return fmt.Errorf("%w: tukey alpha must be in [0, 1]: %f", ErrInvalidParam, a)
		}
	}
	return nil
}
