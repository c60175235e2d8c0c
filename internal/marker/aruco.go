package marker

import (
	"gocv.io/x/gocv"

	"github.com/anvith/gripstream/internal/geometry"
)

// ArucoDetector detects ArUco fiducial markers in camera frames.
type ArucoDetector struct {
	detector gocv.ArucoDetector
	gray     gocv.Mat
}

// NewArucoDetector creates a detector for the 4x4_50 dictionary, the
// dictionary printed on the wall marker sheets.
func NewArucoDetector() *ArucoDetector {
	params := gocv.NewArucoDetectorParameters()
	dict := gocv.GetPredefinedDictionary(gocv.ArucoDict4x4_50)
	return &ArucoDetector{
		detector: gocv.NewArucoDetectorWithParams(dict, params),
		gray:     gocv.NewMat(),
	}
}

// Detect finds ArUco markers in the given frame.
func (a *ArucoDetector) Detect(frame *gocv.Mat) ([]Detection, error) {
	gocv.CvtColor(*frame, &a.gray, gocv.ColorBGRToGray)

	corners, ids, _ := a.detector.DetectMarkers(a.gray)

	detections := make([]Detection, 0, len(ids))
	for i, id := range ids {
		if len(corners[i]) != 4 {
			continue
		}
		var d Detection
		d.ID = id
		for j, p := range corners[i] {
			d.Corners[j] = geometry.Point{X: float64(p.X), Y: float64(p.Y)}
		}
		detections = append(detections, d)
	}
	return detections, nil
}

// Close releases the underlying OpenCV resources.
func (a *ArucoDetector) Close() error {
	a.gray.Close()
	return a.detector.Close()
}
