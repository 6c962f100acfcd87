package testutil

import (
	"math"
	"testing"
)

func TestMaxAbs(t *testing.T) {
	if got := MaxAbs([]float64{0.5, -2, 1}); got != 2 {
		t.Fatalf("MaxAbs = %v, want 2", got)
	}
	if got := MaxAbs(nil); got != 0 {
		t.Fatalf("MaxAbs(nil) = %v, want 0", got)
	}
}

func TestCountRisingEdges(t *testing.T) {
	data := []float64{0, 5, 5, 0, 5, 0, 0, 5}
	if got := CountRisingEdges(data, 2.5); got != 3 {
		t.Fatalf("CountRisingEdges = %d, want 3", got)
	}

	// A signal that never crosses the threshold has no edges.
	if got := CountRisingEdges([]float64{1, 2, 1}, 2.5); got != 0 {
		t.Fatalf("CountRisingEdges below threshold = %d, want 0", got)
	}
}

func TestRequireFiniteAccepts(t *testing.T) {
	RequireFinite(t, []float64{0, -1, math.Pi})
}
