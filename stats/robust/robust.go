// Package robust provides order-statistic estimators of location and scale
// that tolerate outliers: median, percentile, median absolute deviation and
// the MAD-derived standard deviation.
//
// All functions accept raw []float64 and never modify their input.
package robust

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MADScale converts a median absolute deviation into a standard deviation
// estimate for normally distributed data.
const MADScale = 1.4826

// Median returns the median of x, averaging the two central values for even
// lengths. It returns 0 for empty input.
func Median(x []float64) float64 {
	return Percentile(x, 50)
}

// Percentile returns the p-th percentile (0..100) of x using linear
// interpolation between closest ranks. It returns 0 for empty input.
func Percentile(x []float64, p float64) float64 {
	n := len(x)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, x)
	sort.Float64s(sorted)

	return percentileSorted(sorted, p)
}

func percentileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}

	p = math.Max(0, math.Min(100, p))
	pos := p / 100 * float64(n-1)
	lo := int(math.Floor(pos))
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// MAD returns the median absolute deviation of x from its median.
func MAD(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}

	md := Median(x)
	dev := make([]float64, len(x))
	for i, v := range x {
		dev[i] = math.Abs(v - md)
	}

	return Median(dev)
}

// MADStd returns MADScale * MAD(x), a robust standard deviation estimate.
func MADStd(x []float64) float64 {
	return MADScale * MAD(x)
}

// StdMedian returns the root mean squared deviation of x from its median.
func StdMedian(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}

	md := Median(x)
	var sum float64
	for _, v := range x {
		d := v - md
		sum += d * d
	}

	return math.Sqrt(sum / float64(len(x)))
}

// Mean returns the arithmetic mean of x, or 0 for empty input.
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}

// Std returns the population standard deviation of x.
func Std(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	_, variance := stat.PopMeanVariance(x, nil)
	return math.Sqrt(variance)
}

// Skewness returns the sample skewness of x, or 0 when x has fewer than
// three samples or no spread.
func Skewness(x []float64) float64 {
	if len(x) < 3 || floats.Max(x) == floats.Min(x) {
		return 0
	}
	return stat.Skew(x, nil)
}

// Select returns the values of x where keep is true.
func Select(x []float64, keep func(i int, v float64) bool) []float64 {
	out := make([]float64, 0, len(x))
	for i, v := range x {
		if keep(i, v) {
			out = append(out, v)
		}
	}
	return out
}
