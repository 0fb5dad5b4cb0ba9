// Package signal generates synthetic fluorescence traces and recordings
// with known ground truth.
package signal

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-fluo/dsp/frames"
)

// Generator creates deterministic signals from a seed.
type Generator struct {
	seed int64
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed sets the random seed.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.seed = seed
	}
}

// NewGenerator returns a generator seeded with 1 unless configured
// otherwise.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{seed: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Seed returns the generator seed.
func (g *Generator) Seed() int64 { return g.seed }

// Noise returns zero-mean Gaussian noise with standard deviation sigma.
func (g *Generator) Noise(sigma float64, samples int) ([]float64, error) {
	if samples < 0 {
		return nil, fmt.Errorf("signal: noise samples must be >= 0: %d", samples)
	}
	if sigma < 0 {
		return nil, fmt.Errorf("signal: noise sigma must be >= 0: %f", sigma)
	}
	out := make([]float64, samples)
	rng := rand.New(rand.NewSource(g.seed))
	for i := range out {
		out[i] = sigma * rng.NormFloat64()
	}
	return out, nil
}

// Transient returns an instantaneous rise of amplitude at onset followed by
// an exponential decay with time constant tau.
func Transient(samples, onset int, amplitude, tau float64) ([]float64, error) {
	if samples < 0 {
		return nil, fmt.Errorf("signal: transient samples must be >= 0: %d", samples)
	}
	if !(tau > 0) {
		return nil, fmt.Errorf("signal: transient tau must be > 0: %f", tau)
	}
	out := make([]float64, samples)
	for i := max(onset, 0); i < samples; i++ {
		out[i] = amplitude * math.Exp(-float64(i-onset)/tau)
	}
	return out, nil
}

// Blob is a spatially Gaussian transient in a synthetic recording.
type Blob struct {
	Row, Col  float64
	Width     float64 // spatial standard deviation in pixels
	Onset     int
	Tau       float64
	Amplitude float64 // peak ΔF/F0
}

// StackConfig describes a synthetic recording.
type StackConfig struct {
	Frames, Rows, Cols int
	Noise              float64

	// Bleach is the relative loss of baseline fluorescence over the
	// recording.
	Bleach float64

	Blobs []Blob
}

// RandomBlobs places n transients at random positions, onsets, widths and
// decay times. Amplitudes vary between half and one and a half times amp.
func (g *Generator) RandomBlobs(n, frames, rows, cols int, amp float64) []Blob {
	rng := rand.New(rand.NewSource(g.seed))
	out := make([]Blob, n)
	for i := range out {
		out[i] = Blob{
			Row:       rng.Float64() * float64(rows),
			Col:       rng.Float64() * float64(cols),
			Width:     2 + 2*rng.Float64(),
			Onset:     rng.Intn(max(frames/2, 1)) + frames/8,
			Tau:       5 + 15*rng.Float64(),
			Amplitude: amp * (0.5 + rng.Float64()),
		}
	}
	return out
}

// Stack renders a recording: a unit baseline decaying linearly by Bleach,
// multiplied by 1 plus the blob activity, plus Gaussian noise.
func (g *Generator) Stack(cfg StackConfig) (*frames.Stack, error) {
	s, err := frames.New(cfg.Frames, cfg.Rows, cfg.Cols)
	if err != nil {
		return nil, err
	}
	noise, err := g.Noise(cfg.Noise, len(s.Data))
	if err != nil {
		return nil, err
	}

	for t := 0; t < s.T; t++ {
		f0 := 1 - cfg.Bleach*float64(t)/float64(s.T)
		for r := 0; r < s.R; r++ {
			for c := 0; c < s.C; c++ {
				act := 0.0
				for _, b := range cfg.Blobs {
					if t < b.Onset || !(b.Tau > 0) || !(b.Width > 0) {
						continue
					}
					dr, dc := float64(r)-b.Row, float64(c)-b.Col
					act += b.Amplitude * math.Exp(-float64(t-b.Onset)/b.Tau) *
						math.Exp(-(dr*dr+dc*dc)/(2*b.Width*b.Width))
				}
				i := s.Index(t, r, c)
				s.Data[i] = f0*(1+act) + noise[i]
			}
		}
	}
	return s, nil
}
