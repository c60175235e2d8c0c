// Package geometry provides the planar projective math used by wall
// calibration and per-frame coordinate transforms.
package geometry

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// MinCorrespondences is the minimum number of point pairs needed to
// solve a planar homography.
const MinCorrespondences = 4

// ErrSingularMatrix is returned when a homography cannot be inverted.
// Callers must treat this as fatal for the calibration, not retryable.
var ErrSingularMatrix = errors.New("singular matrix")

// Point is a 2-D point in either camera (pixel) or wall (SVG) space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Matrix3 is a row-major 3×3 matrix.
type Matrix3 [3][3]float64

// Identity returns the 3×3 identity matrix.
func Identity() Matrix3 {
	return Matrix3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Apply maps p through the matrix as a homogeneous point (x, y, 1) and
// renormalizes by the resulting w coordinate. When w is zero the point
// has no valid mapping and {+Inf, +Inf} is returned; callers must treat
// that as "no mapping", not as a coordinate.
func (m Matrix3) Apply(p Point) Point {
	x := m[0][0]*p.X + m[0][1]*p.Y + m[0][2]
	y := m[1][0]*p.X + m[1][1]*p.Y + m[1][2]
	w := m[2][0]*p.X + m[2][1]*p.Y + m[2][2]
	if w == 0 {
		return Point{X: math.Inf(1), Y: math.Inf(1)}
	}
	return Point{X: x / w, Y: y / w}
}

// Det returns the determinant of the matrix.
func (m Matrix3) Det() float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// Invert returns the inverse of the matrix, or ErrSingularMatrix if the
// matrix is not invertible.
func (m Matrix3) Invert() (Matrix3, error) {
	var d mat.Dense
	if err := d.Inverse(m.dense()); err != nil {
		return Matrix3{}, fmt.Errorf("%w: %v", ErrSingularMatrix, err)
	}
	return fromDense(&d), nil
}

func (m Matrix3) dense() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		m[0][0], m[0][1], m[0][2],
		m[1][0], m[1][1], m[1][2],
		m[2][0], m[2][1], m[2][2],
	})
}

func fromDense(d *mat.Dense) Matrix3 {
	var m Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m[i][j] = d.At(i, j)
		}
	}
	return m
}

// ComputeHomography solves the least-squares planar homography mapping
// src[i] onto dst[i] using the direct linear transform with h33 fixed
// to 1. It requires at least MinCorrespondences pairs of equal count.
func ComputeHomography(src, dst []Point) (Matrix3, error) {
	if len(src) != len(dst) {
		return Matrix3{}, fmt.Errorf("correspondence count mismatch: %d source vs %d destination", len(src), len(dst))
	}
	if len(src) < MinCorrespondences {
		return Matrix3{}, fmt.Errorf("need at least %d correspondences, got %d", MinCorrespondences, len(src))
	}

	n := len(src)
	a := mat.NewDense(2*n, 8, nil)
	b := mat.NewVecDense(2*n, nil)
	for i := 0; i < n; i++ {
		sx, sy := src[i].X, src[i].Y
		dx, dy := dst[i].X, dst[i].Y
		a.SetRow(2*i, []float64{sx, sy, 1, 0, 0, 0, -sx * dx, -sy * dx})
		a.SetRow(2*i+1, []float64{0, 0, 0, sx, sy, 1, -sx * dy, -sy * dy})
		b.SetVec(2*i, dx)
		b.SetVec(2*i+1, dy)
	}

	var h mat.VecDense
	if err := h.SolveVec(a, b); err != nil {
		return Matrix3{}, fmt.Errorf("%w: homography system has no solution: %v", ErrSingularMatrix, err)
	}

	m := Matrix3{
		{h.AtVec(0), h.AtVec(1), h.AtVec(2)},
		{h.AtVec(3), h.AtVec(4), h.AtVec(5)},
		{h.AtVec(6), h.AtVec(7), 1},
	}
	if m.Det() == 0 {
		return Matrix3{}, fmt.Errorf("%w: computed homography has zero determinant", ErrSingularMatrix)
	}
	return m, nil
}

// ReprojectionError returns the mean Euclidean distance between each
// source point mapped through h and its known destination.
func ReprojectionError(h Matrix3, src, dst []Point) float64 {
	if len(src) == 0 {
		return 0
	}
	var sum float64
	for i := range src {
		sum += Distance(h.Apply(src[i]), dst[i])
	}
	return sum / float64(len(src))
}

// NearCollinear reports whether the first four points span a degenerate
// (near-zero area) configuration. Such a set cannot anchor a usable
// homography.
func NearCollinear(pts []Point) bool {
	if len(pts) < 4 {
		return true
	}

	// Shoelace over the first four points, normalized by the squared
	// span so the threshold is scale independent.
	var area float64
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		area += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	area = math.Abs(area) / 2

	var span float64
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			if d := Distance(pts[i], pts[j]); d > span {
				span = d
			}
		}
	}
	if span == 0 {
		return true
	}
	return area < 1e-6*span*span
}
