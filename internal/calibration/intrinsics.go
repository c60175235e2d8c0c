package calibration

import (
	"errors"
	"math"

	"github.com/anvith/gripstream/internal/geometry"
	"gonum.org/v1/gonum/mat"
)

// minIntrinsicObservations is the number of marker detections across
// all captured frames required before an intrinsics estimate is
// attempted.
const minIntrinsicObservations = 10

var errIntrinsicsUnderdetermined = errors.New("marker observations do not constrain the camera intrinsics")

// estimateIntrinsics runs the closed-form planar self-calibration over
// per-frame wall→image homographies. Each frame with at least four
// shared markers contributes two constraint rows on the image of the
// absolute conic; the conic is recovered as the null vector of the
// stacked system and factored into the camera matrix.
//
// Distortion is not estimable from this closed form, so callers report
// zero distortion coefficients alongside the result.
func estimateIntrinsics(observations []map[int]geometry.Point, known map[int]geometry.Point) (*geometry.Matrix3, error) {
	var rows [][]float64
	for _, obs := range observations {
		var src, dst []geometry.Point
		for id, imagePt := range obs {
			wallPt, ok := known[id]
			if !ok {
				continue
			}
			src = append(src, wallPt)
			dst = append(dst, imagePt)
		}
		if len(src) < geometry.MinCorrespondences {
			continue
		}
		h, err := geometry.ComputeHomography(src, dst)
		if err != nil {
			continue
		}
		rows = append(rows, conicRow(h, 0, 1))
		r1 := conicRow(h, 0, 0)
		r2 := conicRow(h, 1, 1)
		diff := make([]float64, 6)
		for k := range diff {
			diff[k] = r1[k] - r2[k]
		}
		rows = append(rows, diff)
	}
	if len(rows) < 4 {
		return nil, errIntrinsicsUnderdetermined
	}

	v := mat.NewDense(len(rows), 6, nil)
	for i, r := range rows {
		v.SetRow(i, r)
	}

	var svd mat.SVD
	if !svd.Factorize(v, mat.SVDThin) {
		return nil, errIntrinsicsUnderdetermined
	}
	var vt mat.Dense
	svd.VTo(&vt)
	// Null vector: right singular vector for the smallest singular value.
	b := make([]float64, 6)
	for i := range b {
		b[i] = vt.At(i, 5)
	}

	return factorConic(b)
}

// conicRow builds the constraint row v_ij from columns i and j of the
// homography, per the standard planar calibration derivation.
func conicRow(h geometry.Matrix3, i, j int) []float64 {
	hi := [3]float64{h[0][i], h[1][i], h[2][i]}
	hj := [3]float64{h[0][j], h[1][j], h[2][j]}
	return []float64{
		hi[0] * hj[0],
		hi[0]*hj[1] + hi[1]*hj[0],
		hi[1] * hj[1],
		hi[2]*hj[0] + hi[0]*hj[2],
		hi[2]*hj[1] + hi[1]*hj[2],
		hi[2] * hj[2],
	}
}

// factorConic extracts the camera matrix from the conic coefficients
// b = [B11 B12 B22 B13 B23 B33].
func factorConic(b []float64) (*geometry.Matrix3, error) {
	b11, b12, b22, b13, b23, b33 := b[0], b[1], b[2], b[3], b[4], b[5]

	den := b11*b22 - b12*b12
	if den == 0 {
		return nil, errIntrinsicsUnderdetermined
	}
	v0 := (b12*b13 - b11*b23) / den
	lambda := b33 - (b13*b13+v0*(b12*b13-b11*b23))/b11
	if b11 == 0 || lambda/b11 <= 0 {
		return nil, errIntrinsicsUnderdetermined
	}
	alpha := math.Sqrt(lambda / b11)
	beta2 := lambda * b11 / den
	if beta2 <= 0 {
		return nil, errIntrinsicsUnderdetermined
	}
	beta := math.Sqrt(beta2)
	gamma := -b12 * alpha * alpha * beta / lambda
	u0 := gamma*v0/beta - b13*alpha*alpha/lambda

	if math.IsNaN(alpha) || math.IsNaN(beta) || math.IsNaN(u0) || math.IsNaN(v0) {
		return nil, errIntrinsicsUnderdetermined
	}

	return &geometry.Matrix3{
		{alpha, gamma, u0},
		{0, beta, v0},
		{0, 0, 1},
	}, nil
}
