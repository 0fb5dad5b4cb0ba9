package robust

import (
	"math"
	"math/rand"
	"testing"
)

const tolerance = 1e-12

func TestMedian(t *testing.T) {
	tests := []struct {
		name string
		x    []float64
		want float64
	}{
		{name: "empty", x: nil, want: 0},
		{name: "single", x: []float64{3}, want: 3},
		{name: "odd", x: []float64{5, 1, 3}, want: 3},
		{name: "even", x: []float64{4, 1, 3, 2}, want: 2.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Median(tt.x); math.Abs(got-tt.want) > tolerance {
				t.Fatalf("Median() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMedianDoesNotModifyInput(t *testing.T) {
	x := []float64{3, 1, 2}
	Median(x)
	if x[0] != 3 || x[1] != 1 || x[2] != 2 {
		t.Fatalf("input modified: %v", x)
	}
}

func TestPercentileInterpolates(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	tests := map[float64]float64{0: 1, 25: 2, 50: 3, 90: 4.6, 100: 5}
	for p, want := range tests {
		if got := Percentile(x, p); math.Abs(got-want) > tolerance {
			t.Fatalf("Percentile(%v) = %v, want %v", p, got, want)
		}
	}
}

func TestMADStdGaussian(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	x := make([]float64, 20000)
	for i := range x {
		x[i] = 2 * rng.NormFloat64()
	}

	got := MADStd(x)
	if math.Abs(got-2) > 0.1 {
		t.Fatalf("MADStd() = %v, want ~2", got)
	}
}

func TestMADConstant(t *testing.T) {
	if got := MAD([]float64{4, 4, 4, 4}); got != 0 {
		t.Fatalf("MAD() = %v, want 0", got)
	}
}

func TestStdMedian(t *testing.T) {
	got := StdMedian([]float64{1, 2, 3})
	want := math.Sqrt(2.0 / 3.0)
	if math.Abs(got-want) > tolerance {
		t.Fatalf("StdMedian() = %v, want %v", got, want)
	}
}

func TestMeanStd(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	if got := Mean(x); got != 2.5 {
		t.Fatalf("Mean() = %v, want 2.5", got)
	}
	if got := Std(x); math.Abs(got-math.Sqrt(1.25)) > tolerance {
		t.Fatalf("Std() = %v, want %v", got, math.Sqrt(1.25))
	}
	if Mean(nil) != 0 || Std(nil) != 0 {
		t.Fatal("empty input must yield 0")
	}
}

func TestSkewnessSign(t *testing.T) {
	if got := Skewness([]float64{0, 0, 0, 0, 10}); got <= 0 {
		t.Fatalf("Skewness() = %v, want > 0", got)
	}
	if got := Skewness([]float64{1, 1, 1}); got != 0 {
		t.Fatalf("Skewness(constant) = %v, want 0", got)
	}
}

func TestSelect(t *testing.T) {
	got := Select([]float64{-1, 2, -3, 4}, func(_ int, v float64) bool { return v > 0 })
	if len(got) != 2 || got[0] != 2 || got[1] != 4 {
		t.Fatalf("Select() = %v, want [2 4]", got)
	}
}
