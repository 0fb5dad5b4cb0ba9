package events

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/cwbudde/algo-fluo/dsp/frames"
	"github.com/cwbudde/algo-fluo/dsp/label"
)

// ErrInvalidConfig is returned for unusable collection parameters.
var ErrInvalidConfig = errors.New("events: invalid configuration")

// Segment labels the face-connected regions of field that lie strictly
// above threshold. Ids start at 1 in raster order; boxes[k-1] bounds id k
// on the (time, row, column) axes.
func Segment(field *frames.Stack, threshold float64) ([]int, []label.Box, error) {
	if field == nil {
		return nil, nil, fmt.Errorf("%w: nil field", frames.ErrShape)
	}

	mask := make([]bool, len(field.Data))
	for i, v := range field.Data {
		mask[i] = v > threshold
	}

	labels, n, err := label.Label(mask, field.T, field.R, field.C)
	if err != nil {
		return nil, nil, err
	}
	boxes, err := label.Boxes(labels, n, field.T, field.R, field.C)
	if err != nil {
		return nil, nil, err
	}
	return labels, boxes, nil
}

// CollectionConfig holds the segmentation threshold and the event filter.
type CollectionConfig struct {
	Threshold   float64
	MinDuration int // frames; events must last longer
	MinArea     int // pixels; events must cover more
	MinPeak     float64
}

// DefaultCollectionConfig returns the collection defaults.
func DefaultCollectionConfig() CollectionConfig {
	return CollectionConfig{Threshold: 0.025, MinDuration: 3, MinArea: 9, MinPeak: 0.05}
}

// Validate reports whether the configuration is usable.
func (c CollectionConfig) Validate() error {
	switch {
	case math.IsNaN(c.Threshold):
		return fmt.Errorf("%w: threshold is NaN", ErrInvalidConfig)
	case c.MinDuration < 0:
		return fmt.Errorf("%w: min duration must be >= 0: %d", ErrInvalidConfig, c.MinDuration)
	case c.MinArea < 0:
		return fmt.Errorf("%w: min area must be >= 0: %d", ErrInvalidConfig, c.MinArea)
	case math.IsNaN(c.MinPeak):
		return fmt.Errorf("%w: min peak is NaN", ErrInvalidConfig)
	}
	return nil
}

// Record describes one segmented region.
type Record struct {
	ID       int // Label - 1
	Label    int
	Start    int // first frame
	Stop     int // one past the last frame
	Duration int
	Area     int // pixels covered in at least one frame
	Volume   int // voxels
	Peak     float64
	Mean     float64
	Box      label.Box
}

// Collection holds every region of a field and the subset that passes the
// event filter. It is immutable after construction.
type Collection struct {
	cfg      CollectionConfig
	t, r, c  int
	labels   []int
	records  []Record
	filtered []Record
}

// NewCollection segments field and measures every region.
func NewCollection(field *frames.Stack, cfg CollectionConfig) (*Collection, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	labels, boxes, err := Segment(field, cfg.Threshold)
	if err != nil {
		return nil, err
	}
	n := len(boxes)

	records := make([]Record, n)
	for k := range records {
		records[k] = Record{
			ID:       k,
			Label:    k + 1,
			Start:    boxes[k].Lo[0],
			Stop:     boxes[k].Hi[0],
			Duration: boxes[k].Extent(0),
			Peak:     math.Inf(-1),
			Box:      boxes[k],
		}
	}

	npx := field.R * field.C
	lastPixel := make([]int, n+1)
	for p := 0; p < npx; p++ {
		for t := 0; t < field.T; t++ {
			i := t*npx + p
			id := labels[i]
			if id == 0 {
				continue
			}
			rec := &records[id-1]
			v := field.Data[i]
			rec.Volume++
			rec.Mean += v
			rec.Peak = math.Max(rec.Peak, v)
			if lastPixel[id] != p+1 {
				lastPixel[id] = p + 1
				rec.Area++
			}
		}
	}

	var filtered []Record
	for k := range records {
		rec := &records[k]
		rec.Mean /= float64(rec.Volume)
		if rec.Duration > cfg.MinDuration && rec.Peak > cfg.MinPeak && rec.Area > cfg.MinArea {
			f := *rec
			f.Box = rec.Box.Clone()
			filtered = append(filtered, f)
		}
	}

	return &Collection{
		cfg:      cfg,
		t:        field.T,
		r:        field.R,
		c:        field.C,
		labels:   labels,
		records:  records,
		filtered: filtered,
	}, nil
}

// Records returns a copy of every region in label order.
func (c *Collection) Records() []Record {
	return cloneRecords(c.records)
}

// Filtered returns a copy of the regions that pass the event filter, in
// label order.
func (c *Collection) Filtered() []Record {
	return cloneRecords(c.filtered)
}

func cloneRecords(recs []Record) []Record {
	out := make([]Record, len(recs))
	for i, r := range recs {
		r.Box = r.Box.Clone()
		out[i] = r
	}
	return out
}

// Labels returns a copy of the region labels of the segmented field.
func (c *Collection) Labels() []int {
	return append([]int(nil), c.labels...)
}

// Shape returns the (T, R, C) shape of the segmented field.
func (c *Collection) Shape() (int, int, int) {
	return c.t, c.r, c.c
}

// ToFilteredArray rasterises the filtered events, writing each event's ID
// over its voxels. The event with ID 0 cannot be told apart from the
// background; use FilteredMask for the support.
func (c *Collection) ToFilteredArray() []int {
	out := make([]int, len(c.labels))
	keep := c.filteredIDs()
	for i, id := range c.labels {
		if id > 0 && keep[id] {
			out[i] = id - 1
		}
	}
	return out
}

// FilteredMask reports which voxels belong to a filtered event.
func (c *Collection) FilteredMask() []bool {
	out := make([]bool, len(c.labels))
	keep := c.filteredIDs()
	for i, id := range c.labels {
		out[i] = id > 0 && keep[id]
	}
	return out
}

func (c *Collection) filteredIDs() []bool {
	keep := make([]bool, len(c.records)+1)
	for _, rec := range c.filtered {
		keep[rec.Label] = true
	}
	return keep
}

var csvHeader = []string{"id", "start", "stop", "duration", "area", "volume", "peak", "mean"}

// WriteCSV writes the filtered events as CSV with a header row.
func (c *Collection) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, rec := range c.filtered {
		row := []string{
			strconv.Itoa(rec.ID),
			strconv.Itoa(rec.Start),
			strconv.Itoa(rec.Stop),
			strconv.Itoa(rec.Duration),
			strconv.Itoa(rec.Area),
			strconv.Itoa(rec.Volume),
			strconv.FormatFloat(rec.Peak, 'g', -1, 64),
			strconv.FormatFloat(rec.Mean, 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
