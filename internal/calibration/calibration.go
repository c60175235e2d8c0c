// Package calibration computes and represents the camera→wall mapping
// for a climbing wall.
package calibration

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/anvith/gripstream/internal/geometry"
)

// Method identifies how a calibration was produced.
type Method string

const (
	// MethodFiducial means the homography was computed from detected
	// fiducial (ArUco) marker centers.
	MethodFiducial Method = "fiducial"
	// MethodManualPoints means the homography was computed from
	// manually selected point correspondences.
	MethodManualPoints Method = "manualPoints"
)

// ErrInsufficientCorrespondences is returned when fewer than four
// usable point pairs are available.
var ErrInsufficientCorrespondences = errors.New("insufficient correspondences")

// ErrDegenerateConfiguration is returned when the selected points are
// (near-)collinear and cannot anchor a homography.
var ErrDegenerateConfiguration = errors.New("degenerate point configuration")

// DefaultHandExtensionPercent is the default reach extension applied
// beyond the palm when synthesizing extended hand landmarks.
const DefaultHandExtensionPercent = 50.0

// Calibration is an immutable camera→wall mapping for one wall. A wall
// is recalibrated by storing a new record, never by mutating an old
// one; at most one record per wall is active at a time.
type Calibration struct {
	ID                   string
	WallID               string
	Method               Method
	Homography           geometry.Matrix3
	CameraMatrix         *geometry.Matrix3
	DistortionCoeffs     []float64
	HandExtensionPercent float64
	ReprojectionError    float64
	Active               bool

	invOnce sync.Once
	inv     geometry.Matrix3
	invErr  error
}

// Inverse returns the wall→camera homography, computed lazily on first
// use. It fails with geometry.ErrSingularMatrix when the homography is
// not invertible; that failure is fatal for this calibration.
func (c *Calibration) Inverse() (geometry.Matrix3, error) {
	c.invOnce.Do(func() {
		c.inv, c.invErr = c.Homography.Invert()
	})
	return c.inv, c.invErr
}

// Document is the JSON persistence form of a calibration, exchanged
// with the external calibration store.
type Document struct {
	CalibrationType      string                     `json:"calibrationType"`
	CameraMatrix         *[3][3]float64             `json:"cameraMatrix,omitempty"`
	DistortionCoeffs     []float64                  `json:"distortionCoeffs,omitempty"`
	PerspectiveTransform [3][3]float64              `json:"perspectiveTransform"`
	ArucoMarkers         map[string]geometry.Point  `json:"arucoMarkers,omitempty"`
	ManualImagePoints    []geometry.Point           `json:"manualImagePoints,omitempty"`
	ManualSVGPoints      []geometry.Point           `json:"manualSvgPoints,omitempty"`
	ReprojectionError    float64                    `json:"reprojectionError"`
	IsActive             bool                       `json:"isActive"`
	HandExtensionPercent float64                    `json:"handExtensionPercent"`
}

// ToDocument converts the calibration into its persistence form.
func (c *Calibration) ToDocument() Document {
	doc := Document{
		CalibrationType:      string(c.Method),
		PerspectiveTransform: c.Homography,
		DistortionCoeffs:     c.DistortionCoeffs,
		ReprojectionError:    c.ReprojectionError,
		IsActive:             c.Active,
		HandExtensionPercent: c.HandExtensionPercent,
	}
	if c.CameraMatrix != nil {
		cm := [3][3]float64(*c.CameraMatrix)
		doc.CameraMatrix = &cm
	}
	return doc
}

// FromDocument reconstructs a calibration from its persistence form.
// The homography is validated for invertibility up front so a stored
// but unusable calibration fails fast at load time.
func FromDocument(doc Document) (*Calibration, error) {
	c := &Calibration{
		Method:               Method(doc.CalibrationType),
		Homography:           doc.PerspectiveTransform,
		DistortionCoeffs:     doc.DistortionCoeffs,
		HandExtensionPercent: doc.HandExtensionPercent,
		ReprojectionError:    doc.ReprojectionError,
		Active:               doc.IsActive,
	}
	if doc.CameraMatrix != nil {
		cm := geometry.Matrix3(*doc.CameraMatrix)
		c.CameraMatrix = &cm
	}
	if _, err := c.Inverse(); err != nil {
		return nil, fmt.Errorf("stored calibration is unusable: %w", err)
	}
	return c, nil
}

// UnmarshalDocument parses a persisted JSON calibration document.
func UnmarshalDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("parse calibration document: %w", err)
	}
	return doc, nil
}
