package label

// Run is a contiguous stretch of set samples, Start inclusive and Stop
// exclusive.
type Run struct {
	Start int
	Stop  int
}

// Len returns the number of samples in the run.
func (r Run) Len() int { return r.Stop - r.Start }

// Runs returns the contiguous runs of set samples in ascending order.
func Runs(mask []bool) []Run {
	var runs []Run
	for i := 0; i < len(mask); {
		if !mask[i] {
			i++
			continue
		}
		start := i
		for i < len(mask) && mask[i] {
			i++
		}
		runs = append(runs, Run{Start: start, Stop: i})
	}
	return runs
}

// Label1D labels the runs of mask with ids 1..n.
func Label1D(mask []bool) ([]int, int) {
	labels := make([]int, len(mask))
	runs := Runs(mask)
	for k, r := range runs {
		for i := r.Start; i < r.Stop; i++ {
			labels[i] = k + 1
		}
	}
	return labels, len(runs)
}

// FilterRuns returns a copy of mask without runs shorter than minSize.
func FilterRuns(mask []bool, minSize int) []bool {
	out := make([]bool, len(mask))
	for _, r := range Runs(mask) {
		if r.Len() < minSize {
			continue
		}
		for i := r.Start; i < r.Stop; i++ {
			out[i] = true
		}
	}
	return out
}

// Erode applies a binary erosion with a 3-sample structuring element.
// Samples outside the mask count as unset, so both ends always erode.
func Erode(mask []bool) []bool {
	n := len(mask)
	out := make([]bool, n)
	for i := 1; i < n-1; i++ {
		out[i] = mask[i-1] && mask[i] && mask[i+1]
	}
	return out
}

// Any reports whether any sample of mask is set.
func Any(mask []bool) bool {
	for _, v := range mask {
		if v {
			return true
		}
	}
	return false
}
