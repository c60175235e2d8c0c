// Command calibrate computes and stores a camera-to-wall calibration.
//
// Fiducial mode detects ArUco markers with a camera and matches them
// against known wall positions:
//
//	calibrate -wall-id main -markers markers.json -frames 12
//
// Manual mode reads operator-selected point pairs:
//
//	calibrate -wall-id main -points points.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/anvith/gripstream/internal/calibration"
	"github.com/anvith/gripstream/internal/capture"
	"github.com/anvith/gripstream/internal/geometry"
	"github.com/anvith/gripstream/internal/marker"
	"github.com/anvith/gripstream/internal/store"
)

func main() {
	var (
		dbPath      = flag.String("db", "", "path to the sqlite database (default ~/.gripstream/gripstream.db)")
		wallID      = flag.String("wall-id", "main", "wall identifier")
		markersPath = flag.String("markers", "", "JSON file of known marker wall positions (fiducial mode)")
		pointsPath  = flag.String("points", "", "JSON file of image/wall point pairs (manual mode)")
		cameraID    = flag.Int("camera", 0, "camera device ID for fiducial mode")
		frames      = flag.Int("frames", 12, "number of frames to observe in fiducial mode")
		handExtend  = flag.Float64("hand-extension", calibration.DefaultHandExtensionPercent,
			"extended hand reach as a percent of detected hand size")
	)
	flag.Parse()

	if (*markersPath == "") == (*pointsPath == "") {
		log.Fatal("exactly one of -markers or -points is required")
	}

	st, err := openStore(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	var calib *calibration.Calibration
	if *markersPath != "" {
		calib, err = calibrateFiducial(*wallID, *markersPath, *cameraID, *frames, *handExtend)
	} else {
		calib, err = calibrateManual(*wallID, *pointsPath, *handExtend)
	}
	if err != nil {
		log.Fatalf("Calibration failed: %v", err)
	}

	calib.Active = true
	if err := st.Calibrations().Save(calib); err != nil {
		log.Fatalf("Failed to store calibration: %v", err)
	}

	fmt.Printf("Stored %s calibration %s for wall %s (reprojection error %.3f)\n",
		calib.Method, calib.ID, calib.WallID, calib.ReprojectionError)
}

// knownMarker is one entry of the markers file: where a printed
// marker sits on the wall, in wall (SVG) coordinates.
type knownMarker struct {
	ID    int     `json:"id"`
	WallX float64 `json:"wallX"`
	WallY float64 `json:"wallY"`
}

func calibrateFiducial(wallID, markersPath string, cameraID, frames int, handExtend float64) (*calibration.Calibration, error) {
	data, err := os.ReadFile(markersPath)
	if err != nil {
		return nil, err
	}
	var entries []knownMarker
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse markers file: %w", err)
	}
	known := make(map[int]geometry.Point, len(entries))
	for _, e := range entries {
		known[e.ID] = geometry.Point{X: e.WallX, Y: e.WallY}
	}

	cam := capture.NewCamera(cameraID)
	if err := cam.Open(); err != nil {
		return nil, fmt.Errorf("open camera: %w", err)
	}
	defer cam.Close()

	det := marker.NewArucoDetector()
	defer det.Close()

	var observations []map[int]geometry.Point
	for i := 0; i < frames; i++ {
		frame, err := cam.ReadFrame()
		if err != nil {
			return nil, fmt.Errorf("read frame %d: %w", i, err)
		}

		detections, err := det.Detect(frame)
		frame.Close()
		if err != nil {
			return nil, fmt.Errorf("detect markers in frame %d: %w", i, err)
		}

		obs := marker.Observations(detections)
		log.Printf("Frame %d: %d markers visible", i, len(obs))
		if len(obs) > 0 {
			observations = append(observations, obs)
		}

		time.Sleep(200 * time.Millisecond)
	}

	return calibration.NewFromMarkers(wallID, observations, known, handExtend)
}

// pointPairs is the manual mode input: operator-clicked camera pixels
// and the wall coordinates they correspond to, in the same order.
type pointPairs struct {
	ImagePoints []geometry.Point `json:"imagePoints"`
	WallPoints  []geometry.Point `json:"wallPoints"`
}

func calibrateManual(wallID, pointsPath string, handExtend float64) (*calibration.Calibration, error) {
	data, err := os.ReadFile(pointsPath)
	if err != nil {
		return nil, err
	}
	var pairs pointPairs
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("parse points file: %w", err)
	}

	return calibration.NewFromManualPoints(wallID, pairs.ImagePoints, pairs.WallPoints, handExtend)
}

// openStore opens the sqlite store, defaulting to ~/.gripstream.
func openStore(path string) (*store.Store, error) {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir := filepath.Join(homeDir, ".gripstream")
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "gripstream.db")
	}
	return store.New(path)
}
