package label

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func bits(s string) []bool {
	out := make([]bool, len(s))
	for i, ch := range s {
		out[i] = ch == '1'
	}
	return out
}

func TestRuns(t *testing.T) {
	got := Runs(bits("0110111001"))
	want := []Run{{1, 3}, {4, 7}, {9, 10}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Runs() mismatch (-want +got):\n%s", diff)
	}
}

func TestLabel1D(t *testing.T) {
	labels, n := Label1D(bits("1100101"))
	if n != 3 {
		t.Fatalf("n = %d, want 3", n)
	}
	want := []int{1, 1, 0, 0, 2, 0, 3}
	if diff := cmp.Diff(want, labels); diff != "" {
		t.Fatalf("Label1D() mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterRuns(t *testing.T) {
	tests := []struct {
		in      string
		minSize int
		want    string
	}{
		{in: "0110111001", minSize: 3, want: "0000111000"},
		{in: "0110111001", minSize: 1, want: "0110111001"},
		{in: "1111", minSize: 5, want: "0000"},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(bits(tt.want), FilterRuns(bits(tt.in), tt.minSize)); diff != "" {
			t.Fatalf("FilterRuns(%s, %d) mismatch (-want +got):\n%s", tt.in, tt.minSize, diff)
		}
	}
}

func TestErode(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: "11111", want: "01110"},
		{in: "01110", want: "00100"},
		{in: "0110", want: "0000"},
		{in: "1", want: "0"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(bits(tt.want), Erode(bits(tt.in))); diff != "" {
			t.Fatalf("Erode(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestAny(t *testing.T) {
	if Any(bits("000")) {
		t.Fatal("Any(000) = true")
	}
	if !Any(bits("010")) {
		t.Fatal("Any(010) = false")
	}
}

func TestLocalExtrema(t *testing.T) {
	x := []float64{0, 2, 1, 3, 3, 0, 1}

	maxima := LocalMaxima(x)
	wantMax := []Extremum{{Index: 1, Value: 2}, {Index: 3, Value: 3}}
	if diff := cmp.Diff(wantMax, maxima); diff != "" {
		t.Fatalf("LocalMaxima() mismatch (-want +got):\n%s", diff)
	}

	minima := LocalMinima(x)
	wantMin := []Extremum{{Index: 2, Value: 1}, {Index: 5, Value: 0}}
	if diff := cmp.Diff(wantMin, minima); diff != "" {
		t.Fatalf("LocalMinima() mismatch (-want +got):\n%s", diff)
	}
}
