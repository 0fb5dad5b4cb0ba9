package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-fluo/dsp/patch"
)

var (
	// ErrInvalidConfig is returned for unusable runner or driver parameters.
	ErrInvalidConfig = errors.New("pipeline: invalid configuration")
	// ErrLengthMismatch is returned when a per-trace function changes the
	// length of its input.
	ErrLengthMismatch = errors.New("pipeline: output length mismatch")
)

// Func processes one trace. It must not retain or modify x.
type Func func(x []float64) ([]float64, error)

// PatchError reports which patch of a run failed.
type PatchError struct {
	Index  int
	Window patch.Window
	Err    error
}

func (e *PatchError) Error() string {
	return fmt.Sprintf("pipeline: patch %d (%v): %v", e.Index, e.Window, e.Err)
}

func (e *PatchError) Unwrap() error { return e.Err }

// Runner applies a Func to patch signals in parallel.
type Runner struct {
	concurrency int
	logger      *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner) error

// WithConcurrency bounds the number of patches processed at once.
func WithConcurrency(n int) RunnerOption {
	return func(r *Runner) error {
		if n < 1 {
			return fmt.Errorf("%w: concurrency must be >= 1: %d", ErrInvalidConfig, n)
		}
		r.concurrency = n
		return nil
	}
}

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) error {
		if l == nil {
			return fmt.Errorf("%w: nil logger", ErrInvalidConfig)
		}
		r.logger = l.With("component", "pipeline.runner")
		return nil
	}
}

// NewRunner returns a Runner using GOMAXPROCS goroutines unless configured
// otherwise.
func NewRunner(opts ...RunnerOption) (*Runner, error) {
	r := &Runner{
		concurrency: runtime.GOMAXPROCS(0),
		logger:      slog.Default().With("component", "pipeline.runner"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Concurrency returns the configured parallelism.
func (r *Runner) Concurrency() int { return r.concurrency }

// Run applies fn to the values of every signal. Output i carries the patch
// of input i unchanged. If any patch fails, Run returns a *PatchError and no
// signals.
func (r *Runner) Run(ctx context.Context, in []patch.Signal, fn Func) ([]patch.Signal, error) {
	if fn == nil {
		return nil, fmt.Errorf("%w: nil function", ErrInvalidConfig)
	}

	start := time.Now()
	out, err := mapIndexed(ctx, in, r.concurrency, func(i int, s patch.Signal) (patch.Signal, error) {
		v, err := fn(s.Values)
		if err == nil && len(v) != len(s.Values) {
			err = fmt.Errorf("%w: got %d samples, want %d", ErrLengthMismatch, len(v), len(s.Values))
		}
		if err != nil {
			return patch.Signal{}, &PatchError{Index: i, Window: s.Window, Err: err}
		}
		return patch.Signal{Patch: s.Patch, Values: v}, nil
	})
	if err != nil {
		r.logger.Debug("run failed", "patches", len(in), "error", err)
		return nil, err
	}

	r.logger.Debug("run complete",
		"patches", len(in),
		"concurrency", r.concurrency,
		"elapsed", time.Since(start),
	)
	return out, nil
}

// Map applies fn to every item with at most concurrency calls in flight and
// returns the results in input order. The first error cancels the remaining
// work and is returned annotated with the item index.
func Map[T, U any](ctx context.Context, items []T, concurrency int, fn func(T) (U, error)) ([]U, error) {
	if concurrency < 1 {
		return nil, fmt.Errorf("%w: concurrency must be >= 1: %d", ErrInvalidConfig, concurrency)
	}
	return mapIndexed(ctx, items, concurrency, func(i int, item T) (U, error) {
		u, err := fn(item)
		if err != nil {
			return u, fmt.Errorf("pipeline: item %d: %w", i, err)
		}
		return u, nil
	})
}

func mapIndexed[T, U any](ctx context.Context, items []T, concurrency int, fn func(int, T) (U, error)) ([]U, error) {
	out := make([]U, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, item := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			u, err := fn(i, item)
			if err != nil {
				return err
			}
			out[i] = u
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
