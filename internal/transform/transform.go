// Package transform maps pose frames from camera space into wall
// space and synthesizes the extended hand landmarks.
package transform

import (
	"math"

	"github.com/anvith/gripstream/internal/calibration"
	"github.com/anvith/gripstream/internal/geometry"
	"github.com/anvith/gripstream/internal/pose"
)

// ToWallSpace maps a camera-space point into wall space.
func ToWallSpace(p geometry.Point, cal *calibration.Calibration) geometry.Point {
	return cal.Homography.Apply(p)
}

// ToCameraSpace maps a wall-space point back into camera space. It
// fails only when the calibration's homography is singular, which is
// fatal for the calibration as a whole.
func ToCameraSpace(p geometry.Point, cal *calibration.Calibration) (geometry.Point, error) {
	inv, err := cal.Inverse()
	if err != nil {
		return geometry.Point{}, err
	}
	return inv.Apply(p), nil
}

// Frame denormalizes each landmark from [0,1] image coordinates to
// pixels, maps it into wall space, and preserves z and visibility.
// Landmarks that fail validation or map to no valid point are skipped;
// a frame with a few bad landmarks still transforms.
func Frame(f *pose.Frame, cal *calibration.Calibration) *pose.Frame {
	out := &pose.Frame{
		Timestamp: f.Timestamp,
		Width:     f.Width,
		Height:    f.Height,
		Landmarks: make([]pose.Landmark, 0, len(f.Landmarks)+2),
	}

	w, h := float64(f.Width), float64(f.Height)
	for _, lm := range f.Landmarks {
		px := geometry.Point{X: lm.X * w, Y: lm.Y * h}
		wp := ToWallSpace(px, cal)
		if math.IsInf(wp.X, 0) || math.IsInf(wp.Y, 0) || math.IsNaN(wp.X) || math.IsNaN(wp.Y) {
			continue
		}
		out.Landmarks = append(out.Landmarks, pose.Landmark{
			Index:      lm.Index,
			X:          wp.X,
			Y:          wp.Y,
			Z:          lm.Z,
			Visibility: lm.Visibility,
		})
	}

	extendHands(out, cal.HandExtensionPercent)
	return out
}

// extendHands appends one synthetic landmark per hand at the point a
// gripping hand reaches beyond the palm. Skipped for a hand when any
// of its five source landmarks is absent from the frame.
func extendHands(f *pose.Frame, extensionPercent float64) {
	for _, hand := range pose.Hands {
		lm, ok := ExtendHand(f, hand, extensionPercent)
		if ok {
			f.Landmarks = append(f.Landmarks, lm)
		}
	}
}

// ExtendHand computes the synthetic extended landmark for one hand:
// the palm center (mean of wrist, pinky, index and thumb) pushed along
// the elbow→palm direction by palmSize · extensionPercent/100, where
// palm size is the pinky↔index distance. Visibility is the minimum of
// the four palm landmarks.
func ExtendHand(f *pose.Frame, hand pose.Hand, extensionPercent float64) (pose.Landmark, bool) {
	byIndex := make(map[int]pose.Landmark, len(f.Landmarks))
	for _, lm := range f.Landmarks {
		byIndex[lm.Index] = lm
	}

	wrist, okW := byIndex[hand.Wrist()]
	pinky, okP := byIndex[hand.Pinky()]
	index, okI := byIndex[hand.Index()]
	thumb, okT := byIndex[hand.Thumb()]
	elbow, okE := byIndex[hand.Elbow()]
	if !okW || !okP || !okI || !okT || !okE {
		return pose.Landmark{}, false
	}

	palm := geometry.Point{
		X: (wrist.X + pinky.X + index.X + thumb.X) / 4,
		Y: (wrist.Y + pinky.Y + index.Y + thumb.Y) / 4,
	}

	dirX := palm.X - elbow.X
	dirY := palm.Y - elbow.Y
	norm := math.Hypot(dirX, dirY)
	if norm == 0 {
		return pose.Landmark{}, false
	}
	dirX /= norm
	dirY /= norm

	palmSize := geometry.Distance(
		geometry.Point{X: pinky.X, Y: pinky.Y},
		geometry.Point{X: index.X, Y: index.Y},
	)
	reach := palmSize * extensionPercent / 100

	vis := wrist.Visibility
	for _, v := range []float64{pinky.Visibility, index.Visibility, thumb.Visibility} {
		if v < vis {
			vis = v
		}
	}

	return pose.Landmark{
		Index:      hand.Extended(),
		X:          palm.X + dirX*reach,
		Y:          palm.Y + dirY*reach,
		Z:          wrist.Z,
		Visibility: vis,
	}, true
}
