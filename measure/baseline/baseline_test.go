package baseline

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-fluo/dsp/core"
	"github.com/cwbudde/algo-fluo/dsp/excursion"
	"github.com/cwbudde/algo-fluo/dsp/frames"
	"github.com/cwbudde/algo-fluo/internal/testutil"
	"github.com/cwbudde/algo-fluo/stats/robust"
)

func TestFitALSConstant(t *testing.T) {
	for _, level := range []float64{0, 1, 5, -3.25} {
		x := testutil.DC(level, 150)
		got, err := FitALS(x)
		if err != nil {
			t.Fatalf("FitALS() error = %v", err)
		}
		eps := 1e-5 * math.Max(1, math.Abs(level))
		testutil.RequireSliceNearlyEqual(t, got, x, eps)
	}
}

func TestFitALSShortSignal(t *testing.T) {
	for _, x := range [][]float64{nil, {4}, {1, 2}} {
		got, err := FitALS(x)
		if err != nil {
			t.Fatalf("FitALS(%v) error = %v", x, err)
		}
		if len(got) != len(x) || !core.IsZero(got) {
			t.Fatalf("FitALS(%v) = %v, want zeros", x, got)
		}
	}
}

func TestFitALSIgnoresTransient(t *testing.T) {
	const peak = 1.0
	x := testutil.Add(
		testutil.SineBump(200, 75, 50, peak),
		testutil.GaussianNoise(11, 0.05, 200),
	)

	b, err := FitALS(x)
	if err != nil {
		t.Fatalf("FitALS() error = %v", err)
	}
	testutil.RequireFinite(t, b)

	if got := testutil.MaxAbs(b, 75, 125); got > peak/5 {
		t.Fatalf("max |baseline| over bump = %v, want <= %v", got, peak/5)
	}
}

func TestFitALSTransientAtStart(t *testing.T) {
	const n, width = 200, 50
	for _, seed := range []int64{1, 2, 3, 4, 5} {
		x := testutil.GaussianNoise(seed, 0.05, n)
		for i := range width {
			x[i] += math.Sin(float64(i))
		}

		b, err := FitALS(x)
		if err != nil {
			t.Fatalf("seed %d: FitALS() error = %v", seed, err)
		}
		testutil.RequireFinite(t, b)

		if got := testutil.MaxAbs(b, 0, n); got > 0.2 {
			t.Fatalf("seed %d: max |baseline| = %v, want <= 0.2", seed, got)
		}
	}
}

func TestALSNonConvergence(t *testing.T) {
	a, err := NewALS(ApplyALSOptions(WithMaxIter(1)))
	if err != nil {
		t.Fatalf("NewALS() error = %v", err)
	}

	x := testutil.Add(testutil.DC(1, 100), testutil.GaussianNoise(3, 0.1, 100))
	res, err := a.FitWithInfo(x, nil)
	if err != nil {
		t.Fatalf("FitWithInfo() error = %v", err)
	}
	if res.Converged {
		t.Fatal("Converged = true, want false")
	}
	if res.Iterations != 1 {
		t.Fatalf("Iterations = %d, want 1", res.Iterations)
	}
	if len(res.Baseline) != len(x) {
		t.Fatalf("len = %d, want %d", len(res.Baseline), len(x))
	}
}

func TestALSConvergesOnConstant(t *testing.T) {
	a, err := NewALS(DefaultALSConfig())
	if err != nil {
		t.Fatalf("NewALS() error = %v", err)
	}
	res, err := a.FitWithInfo(testutil.DC(2, 80), nil)
	if err != nil {
		t.Fatalf("FitWithInfo() error = %v", err)
	}
	if !res.Converged {
		t.Fatalf("Converged = false after %d iterations", res.Iterations)
	}
}

func TestALSConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ALSConfig)
	}{
		{"k", func(c *ALSConfig) { c.K = 0 }},
		{"tau", func(c *ALSConfig) { c.Tau = -1 }},
		{"smooth", func(c *ALSConfig) { c.Smooth = math.Inf(1) }},
		{"p", func(c *ALSConfig) { c.P = 1 }},
		{"iter", func(c *ALSConfig) { c.MaxIter = 0 }},
		{"eps", func(c *ALSConfig) { c.Eps = math.NaN() }},
		{"ratio", func(c *ALSConfig) { c.AsymmetryRatio = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultALSConfig()
			tt.mutate(&cfg)
			if _, err := NewALS(cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("NewALS() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestALSOptionsIgnoreInvalid(t *testing.T) {
	cfg := ApplyALSOptions(WithK(-1), WithP(2), WithSmooth(0), WithMaxIter(-4), nil)
	if cfg != DefaultALSConfig() {
		t.Fatalf("ApplyALSOptions() = %+v, want defaults", cfg)
	}

	cfg = ApplyALSOptions(WithK(2), WithSkewCorrection(), WithSmooth(40))
	if cfg.K != 2 || !cfg.CorrectSkew || cfg.Smooth != 40 {
		t.Fatalf("ApplyALSOptions() = %+v", cfg)
	}
}

func TestALSNoiseLengthMismatch(t *testing.T) {
	a, err := NewALS(DefaultALSConfig())
	if err != nil {
		t.Fatalf("NewALS() error = %v", err)
	}
	if _, err := a.Fit(make([]float64, 10), make([]float64, 9)); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("Fit() error = %v, want ErrLengthMismatch", err)
	}
}

func TestDetailNoiseNonNegative(t *testing.T) {
	got, err := DetailNoise(testutil.GaussianNoise(5, 0.2, 300))
	if err != nil {
		t.Fatalf("DetailNoise() error = %v", err)
	}
	testutil.RequireNonNegative(t, got)
}

func TestDoubleScaleConstant(t *testing.T) {
	x := testutil.DC(3, 120)
	got, err := DoubleScale(x, 0, 0)
	if err != nil {
		t.Fatalf("DoubleScale() error = %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, got, x, 1e-4)
}

func TestTMVMWithoutExcursions(t *testing.T) {
	x := testutil.DC(2, 300)
	cfg := DefaultTMVMConfig()
	cfg.Finder = excursion.None{}

	r, err := TMVM(x, cfg)
	if err != nil {
		t.Fatalf("TMVM() error = %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, r.Residual, x, 0)
	testutil.RequireSliceNearlyEqual(t, r.Baseline, x, 1e-6)
	testutil.RequireNonNegative(t, r.Noise)
}

func TestTMVMBiasCorrectedNoisyLevel(t *testing.T) {
	x := testutil.Add(testutil.DC(1, 600), testutil.GaussianNoise(9, 0.1, 600))
	cfg := DefaultTMVMConfig()
	cfg.Finder = excursion.None{}

	b, err := TMVMBiasCorrected(x, 0, cfg)
	if err != nil {
		t.Fatalf("TMVMBiasCorrected() error = %v", err)
	}
	if got := robust.Mean(b); math.Abs(got-1) > 0.05 {
		t.Fatalf("mean baseline = %v, want 1 +- 0.05", got)
	}
}

func TestBiasOffsetSymmetricWindow(t *testing.T) {
	ns := testutil.Ones(9)
	tests := []struct {
		name string
		d    []float64
		want float64
	}{
		{"centred", []float64{-1, -0.5, 0, 0.5, 1, 0.2, -0.2, 0.1, -0.1}, 0},
		{"deep dips ignored", []float64{-9, -9, -9, -9, 0.1, 0.2, 0.3, 0.4, 0.5}, 0.3},
		{"spikes ignored", []float64{9, 9, 9, 9, -0.1, -0.2, -0.3, -0.4, -0.5}, -0.3},
		{"none selected", []float64{9, -9, 9, -9, 9, -9, 9, -9, 9}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := biasOffset(tt.d, ns, 3); math.Abs(got-tt.want) > 1e-12 {
				t.Fatalf("biasOffset() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTMVMConfigValidate(t *testing.T) {
	tests := []TMVMConfig{
		{PercentileLow: 25, SmoothLevel: 0, SmoothDivisor: 2},
		{PercentileLow: 120, SmoothLevel: 100, SmoothDivisor: 2},
		{PercentileLow: 25, SmoothLevel: 100, SmoothDivisor: 0},
	}
	for _, cfg := range tests {
		if _, err := TMVM([]float64{1, 2, 3}, cfg); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("TMVM(%+v) error = %v, want ErrInvalidConfig", cfg, err)
		}
	}
}

func TestSimpleRecentresNoise(t *testing.T) {
	x := testutil.Add(testutil.DC(1, 500), testutil.GaussianNoise(4, 0.1, 500))

	b, err := Simple(x, nil, DefaultSimpleConfig())
	if err != nil {
		t.Fatalf("Simple() error = %v", err)
	}
	if got := robust.Mean(b); math.Abs(got-1) > 0.05 {
		t.Fatalf("mean baseline = %v, want 1 +- 0.05", got)
	}
}

func TestSimpleNoiseLengthMismatch(t *testing.T) {
	_, err := Simple(make([]float64, 20), make([]float64, 3), DefaultSimpleConfig())
	if !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("Simple() error = %v, want ErrLengthMismatch", err)
	}
}

func TestMultiScaleSimple(t *testing.T) {
	x := testutil.Add(testutil.DC(1, 500), testutil.GaussianNoise(8, 0.1, 500))
	b, err := MultiScaleSimple(x, nil, DefaultMultiScaleSimpleConfig())
	if err != nil {
		t.Fatalf("MultiScaleSimple() error = %v", err)
	}
	if len(b) != len(x) {
		t.Fatalf("len = %d, want %d", len(b), len(x))
	}
	if got := robust.Mean(b); math.Abs(got-1) > 0.1 {
		t.Fatalf("mean baseline = %v, want 1 +- 0.1", got)
	}
}

func TestPCAConstantStack(t *testing.T) {
	s, _ := frames.New(40, 3, 3)
	for i := 0; i < s.T; i++ {
		for p := range s.Frame(i) {
			s.Frame(i)[p] = float64(p + 1)
		}
	}

	got, err := PCA(s, DefaultPCAConfig())
	if err != nil {
		t.Fatalf("PCA() error = %v", err)
	}
	if got.Channel != frames.ChannelBaselinePCA {
		t.Fatalf("Channel = %q, want %q", got.Channel, frames.ChannelBaselinePCA)
	}
	testutil.RequireSliceNearlyEqual(t, got.Data, s.Data, 1e-12)
}

func TestPCAReconstructsLowRank(t *testing.T) {
	const tlen, rows, cols = 100, 4, 4
	s, _ := frames.New(tlen, rows, cols)
	for i := 0; i < tlen; i++ {
		drift := math.Sin(2 * math.Pi * float64(i) / tlen)
		f := s.Frame(i)
		for p := range f {
			f[p] = 10 + float64(p) + float64(p%3+1)*drift
		}
	}

	identity := func(x []float64) ([]float64, error) { return core.Clone(x), nil }
	got, err := PCA(s, PCAConfig{Fit: identity})
	if err != nil {
		t.Fatalf("PCA() error = %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, got.Data, s.Data, 1e-9)
}

func TestPCARejectsBadStack(t *testing.T) {
	if _, err := PCA(&frames.Stack{T: 2, R: 2, C: 2}, DefaultPCAConfig()); !errors.Is(err, frames.ErrShape) {
		t.Fatalf("PCA() error = %v, want ErrShape", err)
	}
}

func BenchmarkFitALS(b *testing.B) {
	x := testutil.Add(testutil.SineBump(2048, 900, 200, 1), testutil.GaussianNoise(1, 0.05, 2048))
	a, err := NewALS(DefaultALSConfig())
	if err != nil {
		b.Fatal(err)
	}

	for b.Loop() {
		if _, err := a.Fit(x, nil); err != nil {
			b.Fatal(err)
		}
	}
}
