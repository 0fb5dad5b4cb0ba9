// Package transient detects and reconstructs transient elevations in
// noise-normalised fluorescence traces.
//
// A Labeler marks candidate samples. [Reconstructor] turns the labels into a
// non-negative reconstruction by iteratively growing label runs along
// decaying tails and eroding them where the signal does not support them.
// The pipelines combine noise normalisation, labeling and reconstruction
// into per-trace functions suitable for patch-wise processing.
package transient
