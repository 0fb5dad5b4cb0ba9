package baseline

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-fluo/dsp/core"
	"github.com/cwbudde/algo-fluo/dsp/rank"
	"github.com/cwbudde/algo-fluo/dsp/smooth"
	"github.com/cwbudde/algo-fluo/stats/noise"
)

const (
	defaultALSK              = 0.5
	defaultALSTau            = 11.0
	defaultALSSmooth         = 25.0
	defaultALSP              = 0.001
	defaultALSMaxIter        = 100
	defaultALSEps            = 1e-4
	defaultALSAsymmetryRatio = 0.9

	// noiseDetailWidth is the median filter width used to detrend the
	// signal before estimating its noise.
	noiseDetailWidth = 7

	minALSLength = 3
)

var (
	// ErrInvalidConfig is returned for unusable fitter parameters.
	ErrInvalidConfig = errors.New("baseline: invalid configuration")
	// ErrLengthMismatch is returned when a noise profile does not match the
	// signal length.
	ErrLengthMismatch = errors.New("baseline: length mismatch")
)

// ALSConfig holds the asymmetric least-squares parameters.
type ALSConfig struct {
	K              float64 // outlier threshold in units of the noise
	Tau            float64 // median pre-filter width
	Smooth         float64 // spline scale of the baseline
	P              float64 // asymmetry of the weights
	MaxIter        int
	Eps            float64 // relative change that ends the iteration
	AsymmetryRatio float64

	// CorrectSkew adds AsymmetryRatio times the noise to the result to
	// compensate for the downward bias of the asymmetric fit.
	CorrectSkew bool

	// Smoother fits the weighted spline. Nil selects smooth.Default.
	Smoother smooth.Operator
}

// ALSOption mutates an ALSConfig.
type ALSOption func(*ALSConfig)

// DefaultALSConfig returns the default fitter parameters.
func DefaultALSConfig() ALSConfig {
	return ALSConfig{
		K:              defaultALSK,
		Tau:            defaultALSTau,
		Smooth:         defaultALSSmooth,
		P:              defaultALSP,
		MaxIter:        defaultALSMaxIter,
		Eps:            defaultALSEps,
		AsymmetryRatio: defaultALSAsymmetryRatio,
	}
}

// WithK sets the outlier threshold.
func WithK(k float64) ALSOption {
	return func(cfg *ALSConfig) {
		if k > 0 {
			cfg.K = k
		}
	}
}

// WithTau sets the width of the median pre-filter.
func WithTau(tau float64) ALSOption {
	return func(cfg *ALSConfig) {
		if tau > 0 {
			cfg.Tau = tau
		}
	}
}

// WithSmooth sets the spline scale.
func WithSmooth(s float64) ALSOption {
	return func(cfg *ALSConfig) {
		if s > 0 {
			cfg.Smooth = s
		}
	}
}

// WithP sets the weight asymmetry in (0, 1).
func WithP(p float64) ALSOption {
	return func(cfg *ALSConfig) {
		if p > 0 && p < 1 {
			cfg.P = p
		}
	}
}

// WithMaxIter bounds the number of reweighting iterations.
func WithMaxIter(n int) ALSOption {
	return func(cfg *ALSConfig) {
		if n > 0 {
			cfg.MaxIter = n
		}
	}
}

// WithEps sets the convergence tolerance.
func WithEps(eps float64) ALSOption {
	return func(cfg *ALSConfig) {
		if eps > 0 {
			cfg.Eps = eps
		}
	}
}

// WithAsymmetryRatio sets the share of weight given to negative outliers.
func WithAsymmetryRatio(r float64) ALSOption {
	return func(cfg *ALSConfig) {
		if r >= 0 && r <= 1 {
			cfg.AsymmetryRatio = r
		}
	}
}

// WithSkewCorrection enables the skew correction.
func WithSkewCorrection() ALSOption {
	return func(cfg *ALSConfig) {
		cfg.CorrectSkew = true
	}
}

// WithSmoother selects the spline operator.
func WithSmoother(op smooth.Operator) ALSOption {
	return func(cfg *ALSConfig) {
		cfg.Smoother = op
	}
}

// ApplyALSOptions applies zero or more options to the default config.
func ApplyALSOptions(opts ...ALSOption) ALSConfig {
	cfg := DefaultALSConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}

// Validate reports whether the configuration is usable.
func (c ALSConfig) Validate() error {
	switch {
	case !(c.K > 0):
		return fmt.Errorf("%w: k must be > 0: %f", ErrInvalidConfig, c.K)
	case !(c.Tau > 0):
		return fmt.Errorf("%w: tau must be > 0: %f", ErrInvalidConfig, c.Tau)
	case !(c.Smooth > 0) || math.IsInf(c.Smooth, 0):
		return fmt.Errorf("%w: smooth must be > 0 and finite: %f", ErrInvalidConfig, c.Smooth)
	case !(c.P > 0 && c.P < 1):
		return fmt.Errorf("%w: p must be in (0, 1): %f", ErrInvalidConfig, c.P)
	case c.MaxIter < 1:
		return fmt.Errorf("%w: max iterations must be >= 1: %d", ErrInvalidConfig, c.MaxIter)
	case !(c.Eps > 0):
		return fmt.Errorf("%w: eps must be > 0: %f", ErrInvalidConfig, c.Eps)
	case !(c.AsymmetryRatio >= 0 && c.AsymmetryRatio <= 1):
		return fmt.Errorf("%w: asymmetry ratio must be in [0, 1]: %f", ErrInvalidConfig, c.AsymmetryRatio)
	}
	return nil
}

// ALSResult is the outcome of an asymmetric least-squares fit.
type ALSResult struct {
	Baseline   []float64
	Iterations int
	// Converged is false when the iteration budget ran out first. The
	// baseline is still the best available estimate.
	Converged bool
}

// ALS is an asymmetric least-squares baseline fitter. It is safe for
// concurrent use.
type ALS struct {
	cfg ALSConfig
	op  smooth.Operator
}

// NewALS validates cfg and returns a fitter.
func NewALS(cfg ALSConfig) (*ALS, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &ALS{cfg: cfg, op: smooth.OrDefault(cfg.Smoother)}, nil
}

// Config returns the fitter configuration.
func (a *ALS) Config() ALSConfig {
	return a.cfg
}

// Fit returns the baseline of x. noise may be nil, in which case it is
// estimated from x.
func (a *ALS) Fit(x, ns []float64) ([]float64, error) {
	res, err := a.FitWithInfo(x, ns)
	if err != nil {
		return nil, err
	}
	return res.Baseline, nil
}

// FitWithInfo is like Fit and also reports how the iteration ended.
func (a *ALS) FitWithInfo(x, ns []float64) (ALSResult, error) {
	n := len(x)
	if ns != nil && len(ns) != n {
		return ALSResult{}, fmt.Errorf("%w: noise has %d samples, signal %d", ErrLengthMismatch, len(ns), n)
	}
	if n < minALSLength {
		return ALSResult{Baseline: make([]float64, n), Converged: true}, nil
	}

	cfg := a.cfg
	if ns == nil {
		var err error
		if ns, err = DetailNoise(x); err != nil {
			return ALSResult{}, err
		}
	}

	npad := core.CeilInt(cfg.Smooth)
	y := core.PadReflect(x, npad, npad)
	sigma := core.PadReflect(ns, npad, npad)
	m := len(y)

	ys, err := rank.Median(y, core.CeilInt(cfg.Tau))
	if err != nil {
		return ALSResult{}, err
	}
	env, err := smooth.L1Spline{}.Smooth(y, cfg.Smooth/4, nil)
	if err != nil {
		return ALSResult{}, fmt.Errorf("baseline: lower envelope: %w", err)
	}

	w := make([]float64, m)
	core.Fill(w, 1)
	wPos := cfg.P * (1 - cfg.AsymmetryRatio)
	wNeg := cfg.P * cfg.AsymmetryRatio
	wIn := 1 - cfg.P

	var (
		z, zprev []float64
		result   ALSResult
	)
	for it := 0; it < cfg.MaxIter; it++ {
		z, err = a.op.Smooth(ys, cfg.Smooth, w)
		if err != nil {
			return ALSResult{}, fmt.Errorf("baseline: iteration %d: %w", it, err)
		}
		result.Iterations = it + 1

		for i := range w {
			r := y[i] - z[i]
			th := cfg.K * sigma[i]
			w[i] = 0
			if r > th {
				w[i] += wPos
			}
			if math.Abs(r) <= th {
				w[i] += wIn
			}
			if r <= -th {
				w[i] += wNeg
			}
		}
		// Padding is held to the inlier weight unless it carries a
		// positive outlier, which a transient at the edge reflects into it.
		for i := 0; i < npad && i < m; i++ {
			for _, j := range [2]int{i, m - 1 - i} {
				if y[j]-z[j] <= cfg.K*sigma[j] {
					w[j] = wIn
				}
			}
		}

		if zprev != nil && relativeChange(z, zprev) < cfg.Eps {
			result.Converged = true
			break
		}
		zprev = z
	}

	lower := core.Minimum(z, env)
	b, err := a.op.Smooth(lower, cfg.Smooth, nil)
	if err != nil {
		return ALSResult{}, fmt.Errorf("baseline: final smoothing: %w", err)
	}
	if cfg.CorrectSkew {
		floats.AddScaled(b, cfg.AsymmetryRatio, sigma)
	}

	result.Baseline = core.Unpad(b, npad, npad)
	return result, nil
}

// FitALS fits a baseline with the given options.
func FitALS(x []float64, opts ...ALSOption) ([]float64, error) {
	a, err := NewALS(ApplyALSOptions(opts...))
	if err != nil {
		return nil, err
	}
	return a.Fit(x, nil)
}

// DetailNoise estimates the noise of x from its deviation from a short
// median filter.
func DetailNoise(x []float64) ([]float64, error) {
	med, err := rank.Median(x, noiseDetailWidth)
	if err != nil {
		return nil, err
	}
	detail := make([]float64, len(x))
	floats.SubTo(detail, x, med)
	return noise.Estimate(detail, noise.WithDetailInput())
}

func relativeChange(z, zprev []float64) float64 {
	ref := floats.Norm(zprev, 2)
	d := floats.Distance(z, zprev, 2)
	if ref == 0 {
		if d == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return d / ref
}
