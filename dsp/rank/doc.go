// Package rank provides sliding-window order-statistic filters.
//
// [Filter], [Median] and [Percentile] use the usual image-filter conventions:
// the window of size w covers samples i-w/2 ... i-w/2+w-1 and the signal is
// extended past its edges by half-sample symmetric reflection. The rank used
// by [Percentile] is int(w*p/100), clamped to w-1.
//
// [RollingMedian] instead truncates the window at the signal edges, which is
// what callers want when the input has already been padded.
package rank
