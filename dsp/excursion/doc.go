// Package excursion finds significant transient elevations in a 1-D signal
// at multiple time scales and combines them into a single reconstruction.
//
// A [Finder] returns one full-length reconstruction per detected excursion.
// [Multiscale] is a spline-difference pyramid detector; [None] detects
// nothing and is useful as a deterministic stand-in. [Process] merges the
// reconstructions of any Finder.
package excursion
