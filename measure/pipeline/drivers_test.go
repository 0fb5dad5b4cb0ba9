package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/cwbudde/algo-fluo/dsp/core"
	"github.com/cwbudde/algo-fluo/dsp/frames"
	"github.com/cwbudde/algo-fluo/dsp/patch"
	"github.com/cwbudde/algo-fluo/dsp/signal"
	"github.com/cwbudde/algo-fluo/dsp/window"
	"github.com/cwbudde/algo-fluo/internal/testutil"
	"github.com/cwbudde/algo-fluo/measure/baseline"
)

func identity(x []float64) ([]float64, error) { return core.Clone(x), nil }

func constantStack(t *testing.T, tlen, rows, cols int, v float64) *frames.Stack {
	t.Helper()
	s, err := frames.New(tlen, rows, cols)
	if err != nil {
		t.Fatalf("frames.New() error = %v", err)
	}
	core.Fill(s.Data, v)
	return s
}

// syntheticStack is a unit background with Gaussian noise and one
// spatially Gaussian transient.
func syntheticStack(t *testing.T) *frames.Stack {
	t.Helper()
	s, err := signal.NewGenerator(signal.WithSeed(3)).Stack(signal.StackConfig{
		Frames: 120, Rows: 12, Cols: 12,
		Noise: 0.02,
		Blobs: []signal.Blob{{Row: 6, Col: 6, Width: 2, Onset: 50, Tau: 15, Amplitude: 1}},
	})
	if err != nil {
		t.Fatalf("Stack() error = %v", err)
	}
	return s
}

func TestApplyPatchesUnitWindowsIsIdentity(t *testing.T) {
	r, err := NewRunner(WithConcurrency(2))
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	s := syntheticStack(t)

	got, err := r.ApplyPatches(context.Background(), s, PatchConfig{PatchSize: 1, Stride: 1}, identity)
	if err != nil {
		t.Fatalf("ApplyPatches() error = %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, got.Data, s.Data, 1e-9)
}

func TestApplyPatchesWindowKernel(t *testing.T) {
	r, err := NewRunner()
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	k, err := patch.WindowKernel(window.TypeHann, 5)
	if err != nil {
		t.Fatalf("WindowKernel() error = %v", err)
	}
	s := constantStack(t, 8, 9, 9, 2)

	got, err := r.ApplyPatches(context.Background(), s, PatchConfig{PatchSize: 5, Stride: 2, Kernel: &k}, identity)
	if err != nil {
		t.Fatalf("ApplyPatches() error = %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, got.Data, s.Data, 1e-9)
}

func TestApplyPatchesInvalidTiling(t *testing.T) {
	r, err := NewRunner()
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	s := constantStack(t, 4, 4, 4, 1)
	if _, err := r.ApplyPatches(context.Background(), s, PatchConfig{PatchSize: 0, Stride: 1}, identity); !errors.Is(err, patch.ErrInvalidConfig) {
		t.Fatalf("ApplyPatches() error = %v, want patch.ErrInvalidConfig", err)
	}
}

func TestCalculateBaselineConstant(t *testing.T) {
	r, err := NewRunner()
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	s := constantStack(t, 200, 6, 6, 5)

	got, err := r.CalculateBaseline(context.Background(), s, DefaultBaselineConfig())
	if err != nil {
		t.Fatalf("CalculateBaseline() error = %v", err)
	}
	if got.Channel != frames.ChannelBaseline {
		t.Fatalf("Channel = %q, want %q", got.Channel, frames.ChannelBaseline)
	}
	testutil.RequireSliceNearlyEqual(t, got.Data, s.Data, 1e-6)
}

func TestBaselineFramesConstant(t *testing.T) {
	r, err := NewRunner()
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	s := constantStack(t, 60, 5, 5, 3)
	cfg := DefaultFramesConfig()
	cfg.Patch.Fn = identity

	got, err := r.BaselineFrames(context.Background(), s, cfg)
	if err != nil {
		t.Fatalf("BaselineFrames() error = %v", err)
	}
	if got.Channel != frames.ChannelBaselineComb {
		t.Fatalf("Channel = %q, want %q", got.Channel, frames.ChannelBaselineComb)
	}
	testutil.RequireSliceNearlyEqual(t, got.Data, s.Data, 1e-9)
}

func TestBaselinePCAChannel(t *testing.T) {
	s := constantStack(t, 40, 3, 3, 1)
	got, err := BaselinePCA(s, baseline.DefaultPCAConfig())
	if err != nil {
		t.Fatalf("BaselinePCA() error = %v", err)
	}
	if got.Channel != frames.ChannelBaselinePCA {
		t.Fatalf("Channel = %q, want %q", got.Channel, frames.ChannelBaselinePCA)
	}
}

func TestDeltaFOverF0(t *testing.T) {
	f, _ := frames.FromData(1, 1, 4, []float64{2, 3, 1, 5})
	f0, _ := frames.FromData(1, 1, 4, []float64{1, 2, 0, 5})

	got, err := DeltaFOverF0(f, f0)
	if err != nil {
		t.Fatalf("DeltaFOverF0() error = %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, got.Data, []float64{1, 0.5, 0, 0}, 1e-15)
	if got.Channel != frames.ChannelDFoF {
		t.Fatalf("Channel = %q, want %q", got.Channel, frames.ChannelDFoF)
	}

	other, _ := frames.New(2, 1, 4)
	if _, err := DeltaFOverF0(f, other); !errors.Is(err, frames.ErrShape) {
		t.Fatalf("DeltaFOverF0() error = %v, want ErrShape", err)
	}
}

func TestEventFramesZeroInput(t *testing.T) {
	r, err := NewRunner()
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	s := constantStack(t, 50, 6, 6, 0)

	got, err := r.EventFrames(context.Background(), s, DefaultEventConfig())
	if err != nil {
		t.Fatalf("EventFrames() error = %v", err)
	}
	if got.Channel != frames.ChannelEvents {
		t.Fatalf("Channel = %q, want %q", got.Channel, frames.ChannelEvents)
	}
	if !core.IsZero(got.Data) {
		t.Fatal("EventFrames() of a zero stack is not zero")
	}
}

func TestProcess(t *testing.T) {
	r, err := NewRunner()
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	s := syntheticStack(t)
	orig := s.Clone()

	res, err := r.Process(context.Background(), s, DefaultProcessConfig())
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	testutil.RequireSliceNearlyEqual(t, s.Data, orig.Data, 0)
	for _, st := range []*frames.Stack{res.Events, res.DFoF, res.F0} {
		if !st.SameShape(s) {
			t.Fatalf("%s stack has shape %dx%dx%d", st.Channel, st.T, st.R, st.C)
		}
		testutil.RequireFinite(t, st.Data)
	}
	if res.F0.Channel != frames.ChannelF0 || res.DFoF.Channel != frames.ChannelDFoF || res.Events.Channel != frames.ChannelEvents {
		t.Fatalf("channels = %q, %q, %q", res.F0.Channel, res.DFoF.Channel, res.Events.Channel)
	}

	testutil.RequireNonNegative(t, res.Events.Data)
	mask := res.Collection.FilteredMask()
	for i, v := range res.Events.Data {
		if v != 0 && !mask[i] {
			t.Fatalf("event voxel %d outside the filtered events", i)
		}
	}
}

func TestProcessInvalidCollection(t *testing.T) {
	r, err := NewRunner()
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	cfg := DefaultProcessConfig()
	cfg.Collection.MinArea = -1
	if _, err := r.Process(context.Background(), constantStack(t, 4, 4, 4, 1), cfg); err == nil {
		t.Fatal("Process() error = nil, want configuration error")
	}
}
