// Package pipeline runs per-patch signal processing over frame stacks.
//
// A [Runner] applies a per-trace function to every patch signal of a tiling
// concurrently and returns the results in input order. The stack-level
// drivers built on it estimate the F0 baseline of a recording, convert it to
// ΔF/F0 and extract transient events.
package pipeline
