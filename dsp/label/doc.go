// Package label finds connected regions in binary masks.
//
// [Label] assigns 1-based ids to face-connected components of an
// N-dimensional row-major mask and [Boxes] reports their bounding boxes.
// The 1-D helpers operate on contiguous runs: [Runs], [FilterRuns] and
// [Erode], plus [LocalMaxima] and [LocalMinima] for real-valued signals.
package label
