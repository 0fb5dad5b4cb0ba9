// Package window generates tapering windows and separable 2-D kernels.
//
// [Generate] evaluates a window shape along one axis; [Kernel2D] builds
// normalised spatial weighting kernels from the same window shapes, as used
// for overlapping patch extraction.
package window
