package geometry

import (
	"errors"
	"math"
	"testing"
)

// unitSquareTo maps the unit square corners onto the given quad.
func unitSquareTo(quad [4]Point) (Matrix3, error) {
	src := []Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	return ComputeHomography(src, quad[:])
}

func TestComputeHomography_ScaleTranslate(t *testing.T) {
	// A pure scale+translate has an exact homography, so every
	// correspondence must reproject with zero error.
	src := []Point{{0, 0}, {100, 0}, {100, 80}, {0, 80}, {50, 40}}
	dst := make([]Point, len(src))
	for i, p := range src {
		dst[i] = Point{X: 3*p.X + 20, Y: 3*p.Y - 10}
	}

	h, err := ComputeHomography(src, dst)
	if err != nil {
		t.Fatalf("ComputeHomography() error = %v", err)
	}

	for i, p := range src {
		got := h.Apply(p)
		if Distance(got, dst[i]) > 1e-6 {
			t.Errorf("Apply(%v) = %v, want %v", p, got, dst[i])
		}
	}

	if e := ReprojectionError(h, src, dst); e > 1e-6 {
		t.Errorf("ReprojectionError() = %g, want ~0", e)
	}
}

func TestComputeHomography_Perspective(t *testing.T) {
	h, err := unitSquareTo([4]Point{{10, 10}, {200, 30}, {180, 220}, {20, 190}})
	if err != nil {
		t.Fatalf("ComputeHomography() error = %v", err)
	}

	got := h.Apply(Point{X: 0, Y: 0})
	if Distance(got, Point{X: 10, Y: 10}) > 1e-6 {
		t.Errorf("corner mapped to %v, want (10,10)", got)
	}
}

func TestComputeHomography_TooFewPoints(t *testing.T) {
	src := []Point{{0, 0}, {1, 0}, {1, 1}}
	dst := []Point{{0, 0}, {2, 0}, {2, 2}}
	if _, err := ComputeHomography(src, dst); err == nil {
		t.Fatal("expected error for 3 correspondences")
	}
}

func TestComputeHomography_CountMismatch(t *testing.T) {
	src := []Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	dst := []Point{{0, 0}, {2, 0}, {2, 2}}
	if _, err := ComputeHomography(src, dst); err == nil {
		t.Fatal("expected error for mismatched correspondence counts")
	}
}

func TestMatrix3_RoundTrip(t *testing.T) {
	h, err := unitSquareTo([4]Point{{5, 5}, {300, 20}, {280, 240}, {15, 250}})
	if err != nil {
		t.Fatalf("ComputeHomography() error = %v", err)
	}

	inv, err := h.Invert()
	if err != nil {
		t.Fatalf("Invert() error = %v", err)
	}

	probes := []Point{{0.1, 0.1}, {0.9, 0.2}, {0.5, 0.5}, {0.3, 0.8}}
	for _, p := range probes {
		back := inv.Apply(h.Apply(p))
		if Distance(back, p) > 1e-3 {
			t.Errorf("round trip of %v = %v, drift %g", p, back, Distance(back, p))
		}
	}
}

func TestMatrix3_InvertSingular(t *testing.T) {
	var zero Matrix3
	if _, err := zero.Invert(); !errors.Is(err, ErrSingularMatrix) {
		t.Fatalf("Invert() error = %v, want ErrSingularMatrix", err)
	}
}

func TestMatrix3_ApplyZeroW(t *testing.T) {
	// A projective row that zeroes w for the probe point.
	m := Matrix3{{1, 0, 0}, {0, 1, 0}, {1, 0, -2}}
	got := m.Apply(Point{X: 2, Y: 0})
	if !math.IsInf(got.X, 1) || !math.IsInf(got.Y, 1) {
		t.Errorf("Apply() with w==0 = %v, want {+Inf, +Inf}", got)
	}
}

func TestNearCollinear(t *testing.T) {
	collinear := []Point{{0, 0}, {10, 10}, {20, 20}, {30, 30}}
	if !NearCollinear(collinear) {
		t.Error("NearCollinear() = false for points on a line")
	}

	square := []Point{{0, 0}, {100, 0}, {100, 100}, {0, 100}}
	if NearCollinear(square) {
		t.Error("NearCollinear() = true for a proper square")
	}

	// Scale independence: the same line at tiny scale is still a line.
	tiny := []Point{{0, 0}, {1e-4, 1e-4}, {2e-4, 2e-4}, {3e-4, 3e-4}}
	if !NearCollinear(tiny) {
		t.Error("NearCollinear() = false for a tiny collinear set")
	}
}
