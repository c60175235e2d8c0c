package marker

import (
	"gocv.io/x/gocv"

	"github.com/anvith/gripstream/internal/geometry"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	detections []Detection
	err        error
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetDetections sets the detections that will be returned by Detect.
func (m *MockDetector) SetDetections(detections []Detection) {
	m.detections = detections
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Detect returns the pre-configured detections or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]Detection, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.detections, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// SquareDetection returns a preset Detection: an axis-aligned marker
// of the given size centered at (x, y).
func SquareDetection(id int, x, y, size float64) Detection {
	half := size / 2
	return Detection{
		ID: id,
		Corners: [4]geometry.Point{
			{X: x - half, Y: y - half},
			{X: x + half, Y: y - half},
			{X: x + half, Y: y + half},
			{X: x - half, Y: y + half},
		},
	}
}
