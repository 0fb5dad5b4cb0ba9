package window

import (
	"errors"
	"math"
	"testing"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

var allTypes = []Type{
	TypeRectangular,
	TypeHann,
	TypeHamming,
	TypeBlackman,
	TypeTriangle,
	TypeCosine,
	TypeWelch,
	TypeGauss,
	TypeTukey,
	TypeKaiser,
}

func TestGenerateAllTypes(t *testing.T) {
	for _, typ := range allTypes {
		t.Run(typ.String(), func(t *testing.T) {
			w := Generate(typ, 64, WithAlpha(0.5))
			if len(w) != 64 {
				t.Fatalf("len=%d, want 64", len(w))
			}

			for i, v := range w {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Fatalf("coefficient[%d] invalid: %v", i, v)
				}
				if !almostEqual(v, w[63-i], 1e-12) {
					t.Fatalf("coefficient[%d]=%v not symmetric with %v", i, v, w[63-i])
				}
			}
		})
	}
}

func TestGenerateInvalidLength(t *testing.T) {
	if w := Generate(TypeHann, 0); w != nil {
		t.Fatalf("Generate(0) = %v, want nil", w)
	}
}

func TestPeriodicDiffersFromSymmetric(t *testing.T) {
	a := Generate(TypeHann, 16)

	b := Generate(TypeHann, 16, WithPeriodic())
	if len(a) != 16 || len(b) != 16 {
		t.Fatalf("unexpected lengths: %d %d", len(a), len(b))
	}

	if almostEqual(a[15], b[15], 1e-12) {
		t.Fatal("expected different end coefficient for periodic form")
	}
}

func TestGaussHalfMaximum(t *testing.T) {
	// With alpha=1 the window falls to one half at both ends.
	w := Generate(TypeGauss, 9, WithAlpha(1))
	if !almostEqual(w[0], 0.5, 1e-12) || !almostEqual(w[4], 1, 1e-12) {
		t.Fatalf("gauss ends=%v center=%v, want 0.5 and 1", w[0], w[4])
	}
}

func TestKernel2D(t *testing.T) {
	for _, typ := range allTypes {
		t.Run(typ.String(), func(t *testing.T) {
			k, err := Kernel2D(typ, 5, 3)
			if err != nil {
				t.Fatalf("Kernel2D() error = %v", err)
			}
			if len(k) != 15 {
				t.Fatalf("len=%d, want 15", len(k))
			}

			sum := 0.0
			for i, v := range k {
				if v <= 0 {
					t.Fatalf("k[%d]=%v, want > 0", i, v)
				}
				sum += v
			}
			if !almostEqual(sum, 1, 1e-12) {
				t.Fatalf("sum=%v, want 1", sum)
			}

			// Separable kernels are symmetric about both axes.
			if !almostEqual(k[0], k[14], 1e-12) || !almostEqual(k[2], k[12], 1e-12) {
				t.Fatalf("kernel not symmetric: %v", k)
			}
		})
	}
}

func TestKernel2DRectangularIsUniform(t *testing.T) {
	k, err := Kernel2D(TypeRectangular, 2, 2)
	if err != nil {
		t.Fatalf("Kernel2D() error = %v", err)
	}
	for i, v := range k {
		if !almostEqual(v, 0.25, 1e-15) {
			t.Fatalf("k[%d]=%v, want 0.25", i, v)
		}
	}
}

func TestKernel2DInvalidSize(t *testing.T) {
	if _, err := Kernel2D(TypeHann, 0, 3); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("Kernel2D(0 rows) error = %v, want ErrInvalidSize", err)
	}
	if _, err := Kernel2D(TypeHann, 3, -1); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("Kernel2D(-1 cols) error = %v, want ErrInvalidSize", err)
	}
}

func TestParseType(t *testing.T) {
	for _, typ := range allTypes {
		got, ok := ParseType(typ.String())
		if !ok || got != typ {
			t.Fatalf("ParseType(%q) = %v, %v", typ.String(), got, ok)
		}
	}
	if _, ok := ParseType("nope"); ok {
		t.Fatal("ParseType accepted unknown name")
	}
}

func TestKernel2DInvalidShape(t *testing.T) {
	tests := []struct {
		name string
		typ  Type
		opts []Option
	}{
		{name: "gauss zero alpha", typ: TypeGauss, opts: []Option{WithAlpha(0)}},
		{name: "tukey alpha above one", typ: TypeTukey, opts: []Option{WithAlpha(1.5)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Kernel2D(tt.typ, 3, 3, tt.opts...); !errors.Is(err, ErrInvalidParam) {
				t.Fatalf("Kernel2D() error = %v, want ErrInvalidParam", err)
			}
		})
	}
}

func TestKernel2DParametricShapes(t *testing.T) {
	for _, tc := range []struct {
		typ   Type
		alpha float64
	}{
		{TypeKaiser, 8},
		{TypeTukey, 0.5},
		{TypeGauss, 0.4},
	} {
		if _, err := Kernel2D(tc.typ, 5, 5, WithAlpha(tc.alpha)); err != nil {
			t.Fatalf("Kernel2D(%s, alpha %v) error = %v", tc.typ, tc.alpha, err)
		}
	}
}
