// Package noise estimates a time-varying noise level for fluorescence
// traces.
//
// The estimate is a rolling robust standard deviation: the rolling median of
// the absolute deviation from a rolling median, scaled by [robust.MADScale]
// so that it matches sigma for Gaussian noise. Slow trends are removed first
// with a median filter, and the resulting profile is optionally smoothed.
//
// The returned profile has the same length as the input and is never
// negative.
package noise
