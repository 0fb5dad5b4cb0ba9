package window

import (
	"strconv"
	"testing"
)

func BenchmarkGenerate(b *testing.B) {
	sizes := []int{256, 1024, 4096}
	for _, n := range sizes {
		b.Run("hann/"+strconv.Itoa(n), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				_ = Generate(TypeHann, n)
			}
		})
		b.Run("kaiser/"+strconv.Itoa(n), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				_ = Generate(TypeKaiser, n, WithAlpha(8))
			}
		})
	}
}

func BenchmarkKernel2D(b *testing.B) {
	b.ReportAllocs()
	for b.Loop() {
		if _, err := Kernel2D(TypeGauss, 16, 16); err != nil {
			b.Fatal(err)
		}
	}
}
