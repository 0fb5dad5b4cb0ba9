package label

// Extremum is a local extremum of a sampled signal.
type Extremum struct {
	Index int
	Value float64
}

// LocalMaxima returns the interior samples that rise strictly from the left
// and do not rise to the right. A plateau reports its first sample.
func LocalMaxima(x []float64) []Extremum {
	var out []Extremum
	for i := 1; i < len(x)-1; i++ {
		if x[i] > x[i-1] && x[i] >= x[i+1] {
			out = append(out, Extremum{Index: i, Value: x[i]})
		}
	}
	return out
}

// LocalMinima returns the interior samples that fall strictly from the left
// and do not fall to the right.
func LocalMinima(x []float64) []Extremum {
	var out []Extremum
	for i := 1; i < len(x)-1; i++ {
		if x[i] < x[i-1] && x[i] <= x[i+1] {
			out = append(out, Extremum{Index: i, Value: x[i]})
		}
	}
	return out
}
