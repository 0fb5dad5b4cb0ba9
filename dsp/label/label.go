package label

import (
	"errors"
	"fmt"
)

// ErrShape is returned when a shape is invalid or does not match the mask.
var ErrShape = errors.New("label: invalid shape")

// Box is the bounding box of a component. Lo is inclusive and Hi exclusive
// on every axis.
type Box struct {
	Lo []int
	Hi []int
}

// Clone returns a copy of b that shares no memory with it.
func (b Box) Clone() Box {
	return Box{Lo: append([]int(nil), b.Lo...), Hi: append([]int(nil), b.Hi...)}
}

// Extent returns the size of the box along axis.
func (b Box) Extent(axis int) int {
	return b.Hi[axis] - b.Lo[axis]
}

// Label assigns ids 1..n to the face-connected components of mask, which is
// laid out row-major with the given shape (last axis varies fastest).
// Background elements get 0. Ids follow the raster order of each
// component's first element.
func Label(mask []bool, shape ...int) ([]int, int, error) {
	strides, err := layout(len(mask), shape)
	if err != nil {
		return nil, 0, err
	}

	labels := make([]int, len(mask))
	n := 0
	var stack []int

	for seed, on := range mask {
		if !on || labels[seed] != 0 {
			continue
		}

		n++
		labels[seed] = n
		stack = append(stack[:0], seed)

		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			for axis, stride := range strides {
				c := (p / stride) % shape[axis]
				if c > 0 {
					if q := p - stride; mask[q] && labels[q] == 0 {
						labels[q] = n
						stack = append(stack, q)
					}
				}
				if c < shape[axis]-1 {
					if q := p + stride; mask[q] && labels[q] == 0 {
						labels[q] = n
						stack = append(stack, q)
					}
				}
			}
		}
	}

	return labels, n, nil
}

// Boxes returns the bounding boxes of components 1..n; element k-1 belongs
// to id k.
func Boxes(labels []int, n int, shape ...int) ([]Box, error) {
	strides, err := layout(len(labels), shape)
	if err != nil {
		return nil, err
	}

	boxes := make([]Box, n)
	for k := range boxes {
		boxes[k] = Box{Lo: make([]int, len(shape)), Hi: make([]int, len(shape))}
		for axis := range shape {
			boxes[k].Lo[axis] = shape[axis]
		}
	}

	for p, id := range labels {
		if id <= 0 || id > n {
			continue
		}
		b := boxes[id-1]
		for axis, stride := range strides {
			c := (p / stride) % shape[axis]
			b.Lo[axis] = min(b.Lo[axis], c)
			b.Hi[axis] = max(b.Hi[axis], c+1)
		}
	}

	return boxes, nil
}

func layout(size int, shape []int) ([]int, error) {
	if len(shape) == 0 {
		return nil, fmt.Errorf("%w: no dimensions", ErrShape)
	}

	strides := make([]int, len(shape))
	total := 1
	for axis := len(shape) - 1; axis >= 0; axis-- {
		if shape[axis] <= 0 {
			return nil, fmt.Errorf("%w: dimension %d is %d", ErrShape, axis, shape[axis])
		}
		strides[axis] = total
		total *= shape[axis]
	}

	if total != size {
		return nil, fmt.Errorf("%w: shape %v holds %d elements, have %d", ErrShape, shape, total, size)
	}

	return strides, nil
}
