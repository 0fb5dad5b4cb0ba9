// Package patch splits the spatial plane of a frame stack into overlapping
// weighted windows, turns every window into one time series and puts
// processed series back together.
//
// A [Tiling] is an ordered list of windows on a stride grid. [Extract]
// reduces every window to its kernel-weighted spatial average per frame;
// [Recombine] is the inverse weighted overlap-add: every processed value is
// spread over its window scaled by the window's weights, and the sum is
// divided by the accumulated weight of each pixel. Pixels that no window
// weighs are exactly zero in the result.
package patch
