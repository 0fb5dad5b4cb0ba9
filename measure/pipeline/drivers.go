package pipeline

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-fluo/dsp/frames"
	"github.com/cwbudde/algo-fluo/dsp/patch"
	"github.com/cwbudde/algo-fluo/measure/baseline"
	"github.com/cwbudde/algo-fluo/measure/events"
	"github.com/cwbudde/algo-fluo/measure/transient"
)

// PatchConfig selects the tiling and weight kernel of a patch-wise pass.
type PatchConfig struct {
	PatchSize int
	Stride    int
	Sigma     float64 // Gaussian kernel width; zero selects patch.DefaultSigma

	// Kernel replaces the Gaussian kernel. It must cover PatchSize x
	// PatchSize.
	Kernel *patch.Kernel
}

// DefaultPatchConfig returns 5x5 patches on a stride of 2.
func DefaultPatchConfig() PatchConfig {
	return PatchConfig{PatchSize: 5, Stride: 2, Sigma: patch.DefaultSigma}
}

// BaselineConfig controls CalculateBaseline.
type BaselineConfig struct {
	PatchConfig

	// Fn estimates the baseline of one patch signal. Nil selects the
	// bias-corrected TMVM baseline with a percentile window of 100.
	Fn Func
}

// DefaultBaselineConfig returns the patch baseline defaults.
func DefaultBaselineConfig() BaselineConfig {
	return BaselineConfig{PatchConfig: DefaultPatchConfig()}
}

// FramesConfig controls BaselineFrames.
type FramesConfig struct {
	PCA   baseline.PCAConfig
	Patch BaselineConfig
}

// DefaultFramesConfig returns the two-stage baseline defaults.
func DefaultFramesConfig() FramesConfig {
	return FramesConfig{PCA: baseline.DefaultPCAConfig(), Patch: DefaultBaselineConfig()}
}

// EventConfig controls EventFrames.
type EventConfig struct {
	PatchConfig

	// Pipeline reconstructs transients of one patch signal. Nil selects
	// transient.SimplePipeline with the default labeler.
	Pipeline Func
}

// DefaultEventConfig returns the event extraction defaults.
func DefaultEventConfig() EventConfig {
	return EventConfig{PatchConfig: DefaultPatchConfig()}
}

// ProcessConfig controls Process.
type ProcessConfig struct {
	Baseline   FramesConfig
	Events     EventConfig
	Collection events.CollectionConfig
}

// DefaultProcessConfig returns the full-pipeline defaults. Events must
// cover more than 16 pixels.
func DefaultProcessConfig() ProcessConfig {
	cc := events.DefaultCollectionConfig()
	cc.MinArea = 16
	return ProcessConfig{
		Baseline:   DefaultFramesConfig(),
		Events:     DefaultEventConfig(),
		Collection: cc,
	}
}

// Result bundles the outputs of Process.
type Result struct {
	Events     *frames.Stack // transients masked to the filtered events
	DFoF       *frames.Stack
	F0         *frames.Stack
	Collection *events.Collection
}

// ApplyPatches tiles s, extracts one weighted signal per patch, processes
// them with fn and recombines the results into a stack of the same shape.
func (r *Runner) ApplyPatches(ctx context.Context, s *frames.Stack, pc PatchConfig, fn Func) (*frames.Stack, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil stack", frames.ErrShape)
	}
	sigma := pc.Sigma
	if sigma <= 0 {
		sigma = patch.DefaultSigma
	}

	tiling, err := patch.Tile(s.R, s.C, pc.PatchSize, pc.Stride)
	if err != nil {
		return nil, err
	}
	var kern patch.Kernel
	if pc.Kernel != nil {
		kern = *pc.Kernel
	} else if kern, err = patch.GaussianKernel(pc.PatchSize, sigma); err != nil {
		return nil, err
	}
	signals, err := patch.Extract(s, tiling, kern)
	if err != nil {
		return nil, err
	}

	processed, err := r.Run(ctx, signals, fn)
	if err != nil {
		return nil, err
	}
	return patch.Recombine(processed, s.T, s.R, s.C)
}

// CalculateBaseline estimates a slowly varying baseline for every pixel
// from overlapping patch signals.
func (r *Runner) CalculateBaseline(ctx context.Context, s *frames.Stack, cfg BaselineConfig) (*frames.Stack, error) {
	fn := cfg.Fn
	if fn == nil {
		tcfg := baseline.DefaultTMVMConfig()
		fn = func(x []float64) ([]float64, error) {
			return baseline.TMVMBiasCorrected(x, 0, tcfg)
		}
	}

	out, err := r.ApplyPatches(ctx, s, cfg.PatchConfig, fn)
	if err != nil {
		return nil, fmt.Errorf("pipeline: baseline: %w", err)
	}
	out.Channel = frames.ChannelBaseline
	r.logger.Debug("baseline estimated", "frames", s.T, "rows", s.R, "cols", s.C)
	return out, nil
}

// BaselinePCA estimates a global baseline from smoothed principal
// components of s.
func BaselinePCA(s *frames.Stack, cfg baseline.PCAConfig) (*frames.Stack, error) {
	out, err := baseline.PCA(s, cfg)
	if err != nil {
		return nil, fmt.Errorf("pipeline: PCA baseline: %w", err)
	}
	return out, nil
}

// BaselineFrames estimates F0 in two stages: global trends from
// BaselinePCA, then local corrections from CalculateBaseline applied to
// the remainder.
func (r *Runner) BaselineFrames(ctx context.Context, s *frames.Stack, cfg FramesConfig) (*frames.Stack, error) {
	base1, err := BaselinePCA(s, cfg.PCA)
	if err != nil {
		return nil, err
	}

	rest := s.Clone()
	floats.Sub(rest.Data, base1.Data)
	base2, err := r.CalculateBaseline(ctx, rest, cfg.Patch)
	if err != nil {
		return nil, err
	}

	floats.Add(base2.Data, base1.Data)
	base2.Channel = frames.ChannelBaselineComb
	return base2, nil
}

// DeltaFOverF0 returns (F - F0) / F0. Pixels where F0 is zero are zero.
func DeltaFOverF0(f, f0 *frames.Stack) (*frames.Stack, error) {
	if f == nil || f0 == nil || !f.SameShape(f0) {
		return nil, fmt.Errorf("%w: F and F0 differ in shape", frames.ErrShape)
	}

	out := &frames.Stack{T: f.T, R: f.R, C: f.C, Data: make([]float64, len(f.Data)), Channel: frames.ChannelDFoF}
	for i, v := range f.Data {
		if b := f0.Data[i]; b != 0 {
			out.Data[i] = v/b - 1
		}
	}
	return out, nil
}

// EventFrames reconstructs transient activity of a ΔF/F0 stack patch by
// patch.
func (r *Runner) EventFrames(ctx context.Context, dfof *frames.Stack, cfg EventConfig) (*frames.Stack, error) {
	fn := cfg.Pipeline
	if fn == nil {
		p, err := transient.SimplePipeline(nil, transient.DefaultReconstructConfig())
		if err != nil {
			return nil, err
		}
		fn = Func(p)
	}

	out, err := r.ApplyPatches(ctx, dfof, cfg.PatchConfig, fn)
	if err != nil {
		return nil, fmt.Errorf("pipeline: events: %w", err)
	}
	out.Channel = frames.ChannelEvents
	return out, nil
}

// Process runs the full analysis of a raw fluorescence stack: F0, ΔF/F0,
// transient reconstruction and event segmentation. The event stack keeps
// only voxels of filtered events. s is not modified.
func (r *Runner) Process(ctx context.Context, s *frames.Stack, cfg ProcessConfig) (*Result, error) {
	if err := cfg.Collection.Validate(); err != nil {
		return nil, err
	}

	r.logger.Debug("estimating baseline")
	f0, err := r.BaselineFrames(ctx, s, cfg.Baseline)
	if err != nil {
		return nil, err
	}
	f0.Channel = frames.ChannelF0

	dfof, err := DeltaFOverF0(s, f0)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("detecting events")
	evs, err := r.EventFrames(ctx, dfof, cfg.Events)
	if err != nil {
		return nil, err
	}

	coll, err := events.NewCollection(evs, cfg.Collection)
	if err != nil {
		return nil, err
	}
	mask := coll.FilteredMask()
	for i, keep := range mask {
		if !keep {
			evs.Data[i] = 0
		}
	}

	r.logger.Debug("events collected",
		"regions", len(coll.Records()),
		"events", len(coll.Filtered()),
	)
	return &Result{Events: evs, DFoF: dfof, F0: f0, Collection: coll}, nil
}
