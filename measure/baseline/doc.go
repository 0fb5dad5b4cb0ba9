// Package baseline estimates the slowly varying fluorescence floor (F0) of
// a trace.
//
// [ALS] is an asymmetric least-squares fit: a weighted spline is refit
// while samples far above the current fit are down-weighted, so the fit
// settles on the lower envelope of the signal. [TMVM] first removes
// significant transient elevations found by a multiscale excursion finder
// and then follows a low percentile of the residual. [Simple] and
// [MultiScaleSimple] are percentile-filter baselines with a scalar bias
// correction, and [PCA] estimates a baseline for a whole frame stack from
// smoothed principal components.
package baseline
