package core

// ReflectIndex maps an out-of-range index onto [0, n) by reflection about
// the edge samples, which are not repeated: ... 2 1 | 0 1 2 ... n-1 | n-2 ...
// This is whole-sample reflection.
func ReflectIndex(i, n int) int {
	if n <= 1 {
		return 0
	}
	period := 2 * (n - 1)
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i
	}
	return i
}

// SymmetricIndex maps an out-of-range index onto [0, n) by reflection about
// the half-sample boundary, so the edge sample is repeated: ... 1 0 | 0 1 ... n-1 | n-1 ...
// This is half-sample (symmetric) reflection.
func SymmetricIndex(i, n int) int {
	if n <= 1 {
		return 0
	}
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}

// PadReflect returns x extended by left and right samples using [ReflectIndex].
func PadReflect(x []float64, left, right int) []float64 {
	return pad(x, left, right, ReflectIndex)
}

// PadSymmetric returns x extended by left and right samples using [SymmetricIndex].
func PadSymmetric(x []float64, left, right int) []float64 {
	return pad(x, left, right, SymmetricIndex)
}

// Unpad returns a copy of x with left and right samples removed.
func Unpad(x []float64, left, right int) []float64 {
	if left+right >= len(x) {
		return []float64{}
	}
	return Clone(x[left : len(x)-right])
}

func pad(x []float64, left, right int, index func(i, n int) int) []float64 {
	n := len(x)
	if n == 0 {
		return []float64{}
	}
	if left < 0 {
		left = 0
	}
	if right < 0 {
		right = 0
	}
	out := make([]float64, n+left+right)
	for i := range out {
		out[i] = x[index(i-left, n)]
	}
	return out
}
