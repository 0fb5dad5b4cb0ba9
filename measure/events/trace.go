package events

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-fluo/dsp/label"
	"github.com/cwbudde/algo-fluo/dsp/smooth"
)

const (
	// splitScale is the L1-spline scale of the trace searched for peaks.
	splitScale = 6
	// splitMinPeak is the smoothed level a maximum must exceed to count
	// as a separate peak.
	splitMinPeak = 1.0
	// splitRatio scales the smallest peak of a component into the level
	// below which a minimum separates two events.
	splitRatio = 0.75
)

// TraceEvent summarises one event of a 1-D reconstruction.
type TraceEvent struct {
	Label      int
	Start      int
	Stop       int // one past the last sample
	Peak       float64
	TimeToPeak int // samples from the first sample of the event to its peak
	Mean       float64
}

// Quantify summarises the samples of rec carrying each label id
// 1..max(labels). Ids without samples are skipped.
func Quantify(rec []float64, labels []int) ([]TraceEvent, error) {
	if len(rec) != len(labels) {
		return nil, fmt.Errorf("events: %d labels for %d samples", len(labels), len(rec))
	}

	n := 0
	for _, id := range labels {
		n = max(n, id)
	}

	out := make([]TraceEvent, 0, n)
	for id := 1; id <= n; id++ {
		ev := TraceEvent{Label: id, Start: -1, Peak: math.Inf(-1)}
		count := 0
		for i, l := range labels {
			if l != id {
				continue
			}
			if ev.Start < 0 {
				ev.Start = i
			}
			ev.Stop = i + 1
			if rec[i] > ev.Peak {
				ev.Peak = rec[i]
				ev.TimeToPeak = count
			}
			ev.Mean += rec[i]
			count++
		}
		if count == 0 {
			continue
		}
		ev.Mean /= float64(count)
		out = append(out, ev)
	}
	return out, nil
}

// SegmentTrace labels the runs of rec above th. A run holding more than
// one peak of the smoothed trace is cut at every interior minimum lower
// than 0.75 of its smallest peak. A non-positive th selects 0.25.
func SegmentTrace(rec []float64, th float64) ([]int, int, error) {
	if th <= 0 {
		th = 0.25
	}

	levels := make([]bool, len(rec))
	for i, v := range rec {
		levels[i] = v > th
	}
	if len(rec) < 3 {
		labels, n := label.Label1D(levels)
		return labels, n, nil
	}

	sm, err := smooth.L1Spline{}.Smooth(rec, splitScale, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("events: smoothing: %w", err)
	}

	var peaks []label.Extremum
	for _, m := range label.LocalMaxima(sm) {
		if m.Value > splitMinPeak {
			peaks = append(peaks, m)
		}
	}
	dips := label.LocalMinima(sm)

	if len(peaks) > 0 && len(dips) > 0 {
		for _, run := range label.Runs(levels) {
			lowest, count := math.Inf(1), 0
			for _, p := range peaks {
				if p.Index >= run.Start && p.Index < run.Stop {
					lowest = math.Min(lowest, p.Value)
					count++
				}
			}
			if count < 2 {
				continue
			}
			for _, d := range dips {
				if d.Index >= run.Start && d.Index < run.Stop && d.Value < splitRatio*lowest {
					levels[d.Index] = false
				}
			}
		}
	}

	labels, n := label.Label1D(levels)
	return labels, n, nil
}
