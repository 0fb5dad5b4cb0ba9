// Command fluodemo synthesises a fluorescence recording, runs the full
// baseline and event pipeline on it and prints the detected events.
//
// Usage:
//
//	fluodemo [flags]
//
// Examples:
//
//	fluodemo
//	fluodemo -frames 400 -size 48 -events 5
//	fluodemo -kernel Hann -csv > events.csv
//	fluodemo -v
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/cwbudde/algo-fluo/dsp/frames"
	"github.com/cwbudde/algo-fluo/dsp/patch"
	"github.com/cwbudde/algo-fluo/dsp/signal"
	"github.com/cwbudde/algo-fluo/dsp/window"
	"github.com/cwbudde/algo-fluo/measure/events"
	"github.com/cwbudde/algo-fluo/measure/pipeline"
)

type synthConfig struct {
	frames, size int
	events       int
	amplitude    float64
	noise        float64
	bleach       float64 // relative baseline loss over the recording
	seed         int64
}

func main() {
	var sc synthConfig
	flag.IntVar(&sc.frames, "frames", 240, "number of frames")
	flag.IntVar(&sc.size, "size", 32, "frame width and height in pixels")
	flag.IntVar(&sc.events, "events", 3, "number of synthetic transients")
	flag.Float64Var(&sc.amplitude, "amp", 0.8, "peak ΔF/F0 of the transients")
	flag.Float64Var(&sc.noise, "noise", 0.03, "noise standard deviation")
	flag.Float64Var(&sc.bleach, "bleach", 0.2, "relative baseline decay over the recording")
	flag.Int64Var(&sc.seed, "seed", 1, "random seed")
	patchSize := flag.Int("patch", 5, "patch size in pixels")
	stride := flag.Int("stride", 2, "patch stride in pixels")
	kernel := flag.String("kernel", "gaussian", "patch weighting: gaussian or a window name such as Hann")
	workers := flag.Int("j", 0, "concurrent patches (0 = GOMAXPROCS)")
	minArea := flag.Int("min-area", 16, "minimum event area in pixels")
	asCSV := flag.Bool("csv", false, "write the event table as CSV")
	verbose := flag.Bool("v", false, "log pipeline progress")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: fluodemo [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Synthesises a fluorescence stack and prints the events found in it.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	opts := []pipeline.RunnerOption{pipeline.WithLogger(logger)}
	if *workers > 0 {
		opts = append(opts, pipeline.WithConcurrency(*workers))
	}
	runner, err := pipeline.NewRunner(opts...)
	if err != nil {
		fatal(err)
	}

	cfg := pipeline.DefaultProcessConfig()
	cfg.Collection.MinArea = *minArea
	pc := pipeline.PatchConfig{PatchSize: *patchSize, Stride: *stride, Sigma: patch.DefaultSigma}
	if *kernel != "gaussian" {
		t, ok := window.ParseType(*kernel)
		if !ok {
			fatal(fmt.Errorf("unknown kernel %q", *kernel))
		}
		k, err := patch.WindowKernel(t, *patchSize)
		if err != nil {
			fatal(err)
		}
		pc.Kernel = &k
	}
	cfg.Baseline.Patch.PatchConfig = pc
	cfg.Events.PatchConfig = pc

	stack, err := synthesise(sc)
	if err != nil {
		fatal(err)
	}
	logger.Info("processing", "frames", stack.T, "rows", stack.R, "cols", stack.C)

	res, err := runner.Process(context.Background(), stack, cfg)
	if err != nil {
		fatal(err)
	}

	if *asCSV {
		if err := res.Collection.WriteCSV(os.Stdout); err != nil {
			fatal(err)
		}
		return
	}
	printEvents(res.Collection.Filtered())
}

// synthesise renders a bleaching recording with sc.events random
// transients.
func synthesise(sc synthConfig) (*frames.Stack, error) {
	g := signal.NewGenerator(signal.WithSeed(sc.seed))
	return g.Stack(signal.StackConfig{
		Frames: sc.frames,
		Rows:   sc.size,
		Cols:   sc.size,
		Noise:  sc.noise,
		Bleach: sc.bleach,
		Blobs:  g.RandomBlobs(sc.events, sc.frames, sc.size, sc.size, sc.amplitude),
	})
}

func printEvents(recs []events.Record) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tStart\tStop\tDuration\tArea\tVolume\tPeak\tMean\n")
	fmt.Fprintf(tw, "--\t-----\t----\t--------\t----\t------\t----\t----\n")
	for _, r := range recs {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%d\t%.4f\t%.4f\n",
			r.ID, r.Start, r.Stop, r.Duration, r.Area, r.Volume, r.Peak, r.Mean)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
	}
	if len(recs) == 0 {
		fmt.Println("no events")
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
