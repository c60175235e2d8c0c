package calibration

import (
	"fmt"
	"sort"

	"github.com/anvith/gripstream/internal/geometry"
	"github.com/google/uuid"
)

// Result carries the artifacts of one calibration computation.
type Result struct {
	Homography        geometry.Matrix3
	ReprojectionError float64
	// Correspondences is the number of point pairs actually used.
	Correspondences int
}

// ComputeFromMarkers computes the camera→wall homography from fiducial
// marker centers. detected maps marker ID to its center in camera
// space; known maps marker ID to its center in wall space. Only
// markers present in both maps contribute; at least four shared
// markers are required.
func ComputeFromMarkers(detected, known map[int]geometry.Point) (Result, error) {
	ids := make([]int, 0, len(detected))
	for id := range detected {
		if _, ok := known[id]; ok {
			ids = append(ids, id)
		}
	}
	if len(ids) < geometry.MinCorrespondences {
		return Result{}, fmt.Errorf("%w: %d markers detected in both camera and wall layouts, need %d",
			ErrInsufficientCorrespondences, len(ids), geometry.MinCorrespondences)
	}
	// Deterministic ordering keeps the least-squares solve reproducible.
	sort.Ints(ids)

	src := make([]geometry.Point, len(ids))
	dst := make([]geometry.Point, len(ids))
	for i, id := range ids {
		src[i] = detected[id]
		dst[i] = known[id]
	}

	h, err := geometry.ComputeHomography(src, dst)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Homography:        h,
		ReprojectionError: geometry.ReprojectionError(h, src, dst),
		Correspondences:   len(ids),
	}, nil
}

// ComputeFromManualPoints computes the camera→wall homography from
// manually selected correspondences. imagePoints and wallPoints must
// have equal length, at least four entries, and a non-degenerate
// leading quad on both sides.
func ComputeFromManualPoints(imagePoints, wallPoints []geometry.Point) (Result, error) {
	if len(imagePoints) != len(wallPoints) {
		return Result{}, fmt.Errorf("%w: %d image points vs %d wall points",
			ErrInsufficientCorrespondences, len(imagePoints), len(wallPoints))
	}
	if len(imagePoints) < geometry.MinCorrespondences {
		return Result{}, fmt.Errorf("%w: %d point pairs selected, need %d",
			ErrInsufficientCorrespondences, len(imagePoints), geometry.MinCorrespondences)
	}
	if geometry.NearCollinear(imagePoints) {
		return Result{}, fmt.Errorf("%w: first four image points are collinear", ErrDegenerateConfiguration)
	}
	if geometry.NearCollinear(wallPoints) {
		return Result{}, fmt.Errorf("%w: first four wall points are collinear", ErrDegenerateConfiguration)
	}

	h, err := geometry.ComputeHomography(imagePoints, wallPoints)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Homography:        h,
		ReprojectionError: geometry.ReprojectionError(h, imagePoints, wallPoints),
		Correspondences:   len(imagePoints),
	}, nil
}

// NewFromMarkers builds a full calibration record for a wall from
// fiducial marker observations. observations holds one detected-center
// map per captured frame; all frames contribute correspondences, and
// when enough observations exist an intrinsics estimate is attached.
func NewFromMarkers(wallID string, observations []map[int]geometry.Point, known map[int]geometry.Point, handExtensionPercent float64) (*Calibration, error) {
	merged := make(map[int]geometry.Point)
	total := 0
	for _, obs := range observations {
		for id, p := range obs {
			merged[id] = p
			total++
		}
	}

	res, err := ComputeFromMarkers(merged, known)
	if err != nil {
		return nil, err
	}

	c := &Calibration{
		ID:                   uuid.NewString(),
		WallID:               wallID,
		Method:               MethodFiducial,
		Homography:           res.Homography,
		HandExtensionPercent: handExtensionPercent,
		ReprojectionError:    res.ReprojectionError,
	}

	// Intrinsics need enough marker observations to constrain the
	// image of the absolute conic; with fewer the calibration stays
	// perspective-only and the error reported is the perspective one.
	if total >= minIntrinsicObservations {
		if cm, err := estimateIntrinsics(observations, known); err == nil {
			c.CameraMatrix = cm
			c.DistortionCoeffs = make([]float64, 5)
		}
	}
	return c, nil
}

// NewFromManualPoints builds a full calibration record for a wall from
// manually selected correspondences.
func NewFromManualPoints(wallID string, imagePoints, wallPoints []geometry.Point, handExtensionPercent float64) (*Calibration, error) {
	res, err := ComputeFromManualPoints(imagePoints, wallPoints)
	if err != nil {
		return nil, err
	}
	return &Calibration{
		ID:                   uuid.NewString(),
		WallID:               wallID,
		Method:               MethodManualPoints,
		Homography:           res.Homography,
		HandExtensionPercent: handExtensionPercent,
		ReprojectionError:    res.ReprojectionError,
	}, nil
}
