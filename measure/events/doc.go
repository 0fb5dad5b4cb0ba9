// Package events segments transient activity into discrete events.
//
// [Segment] finds face-connected regions of a (time, row, column) field
// above a threshold. [Collection] measures every region and keeps the ones
// that are long, large and strong enough to count as events. For single
// traces, [SegmentTrace] and [Quantify] do the same along one axis and can
// split components that contain several separate peaks.
package events
