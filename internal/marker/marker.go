// Package marker provides fiducial marker detection for wall
// calibration using GoCV (OpenCV).
package marker

import (
	"gocv.io/x/gocv"

	"github.com/anvith/gripstream/internal/geometry"
)

// Detection is one fiducial marker found in a camera frame. Corners
// are in camera pixel coordinates, clockwise from top-left.
type Detection struct {
	ID      int
	Corners [4]geometry.Point
}

// Center returns the marker center, the point used as the calibration
// correspondence for this marker ID.
func (d Detection) Center() geometry.Point {
	var c geometry.Point
	for _, p := range d.Corners {
		c.X += p.X
		c.Y += p.Y
	}
	c.X /= 4
	c.Y /= 4
	return c
}

// Detector defines the interface for fiducial marker detection
// implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the markers found in
	// it. Returns an empty slice if no markers are visible.
	Detect(frame *gocv.Mat) ([]Detection, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Observations converts detections to the marker-ID-to-center form
// consumed by the calibration engine. Duplicate IDs in one frame keep
// the last detection.
func Observations(detections []Detection) map[int]geometry.Point {
	obs := make(map[int]geometry.Point, len(detections))
	for _, d := range detections {
		obs[d.ID] = d.Center()
	}
	return obs
}
