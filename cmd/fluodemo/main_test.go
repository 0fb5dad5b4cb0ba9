package main

import (
	"testing"

	"github.com/cwbudde/algo-fluo/internal/testutil"
)

func TestSynthesise(t *testing.T) {
	sc := synthConfig{frames: 40, size: 8, events: 2, amplitude: 1, noise: 0.01, bleach: 0.1, seed: 3}

	a, err := synthesise(sc)
	if err != nil {
		t.Fatalf("synthesise() error = %v", err)
	}
	if a.T != 40 || a.R != 8 || a.C != 8 {
		t.Fatalf("shape = %dx%dx%d, want 40x8x8", a.T, a.R, a.C)
	}
	testutil.RequireFinite(t, a.Data)

	b, err := synthesise(sc)
	if err != nil {
		t.Fatalf("synthesise() error = %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, a.Data, b.Data, 0)
}

func TestSynthesiseInvalidShape(t *testing.T) {
	if _, err := synthesise(synthConfig{frames: 0, size: 4}); err == nil {
		t.Fatal("synthesise() error = nil, want shape error")
	}
}
