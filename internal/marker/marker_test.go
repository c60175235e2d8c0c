package marker

import (
	"errors"
	"testing"

	"github.com/anvith/gripstream/internal/geometry"
)

func TestDetection_Center(t *testing.T) {
	d := SquareDetection(7, 120, 80, 40)

	if d.ID != 7 {
		t.Errorf("ID = %d, want 7", d.ID)
	}
	center := d.Center()
	if center.X != 120 || center.Y != 80 {
		t.Errorf("Center() = %v, want (120, 80)", center)
	}
}

func TestObservations(t *testing.T) {
	detections := []Detection{
		SquareDetection(0, 100, 100, 20),
		SquareDetection(3, 500, 100, 20),
		SquareDetection(5, 300, 400, 20),
	}

	obs := Observations(detections)

	if len(obs) != 3 {
		t.Fatalf("len(obs) = %d, want 3", len(obs))
	}
	want := map[int]geometry.Point{
		0: {X: 100, Y: 100},
		3: {X: 500, Y: 100},
		5: {X: 300, Y: 400},
	}
	for id, p := range want {
		if obs[id] != p {
			t.Errorf("obs[%d] = %v, want %v", id, obs[id], p)
		}
	}
}

func TestObservations_DuplicateIDsKeepLast(t *testing.T) {
	detections := []Detection{
		SquareDetection(1, 100, 100, 20),
		SquareDetection(1, 200, 200, 20),
	}

	obs := Observations(detections)

	if len(obs) != 1 {
		t.Fatalf("len(obs) = %d, want 1", len(obs))
	}
	if obs[1] != (geometry.Point{X: 200, Y: 200}) {
		t.Errorf("obs[1] = %v, want (200, 200)", obs[1])
	}
}

func TestMockDetector(t *testing.T) {
	m := NewMockDetector()
	m.SetDetections([]Detection{SquareDetection(2, 50, 50, 10)})

	detections, err := m.Detect(nil)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(detections) != 1 || detections[0].ID != 2 {
		t.Errorf("Detect() = %+v, want one detection with ID 2", detections)
	}

	wantErr := errors.New("camera unplugged")
	m.SetError(wantErr)
	if _, err := m.Detect(nil); !errors.Is(err, wantErr) {
		t.Errorf("Detect() error = %v, want %v", err, wantErr)
	}

	if err := m.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
