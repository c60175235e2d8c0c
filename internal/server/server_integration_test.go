package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/anvith/gripstream/internal/calibration"
	"github.com/anvith/gripstream/internal/geometry"
	"github.com/anvith/gripstream/internal/store"
)

func TestAPI_CalibrationWorkflow(t *testing.T) {
	// Setup
	tmpDir := t.TempDir()
	s, _ := store.New(filepath.Join(tmpDir, "test.db"))
	defer s.Close()

	c := &calibration.Calibration{
		ID:                   uuid.NewString(),
		WallID:               "wall-1",
		Method:               calibration.MethodFiducial,
		Homography:           geometry.Identity(),
		HandExtensionPercent: calibration.DefaultHandExtensionPercent,
		Active:               true,
	}
	if err := s.Calibrations().Save(c); err != nil {
		t.Fatalf("failed to save calibration: %v", err)
	}

	srv := New(Config{Store: s})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	// 1. List the wall's calibrations
	resp, err := client.Get(ts.URL + "/api/calibrations?wall=wall-1")
	if err != nil {
		t.Fatalf("GET /api/calibrations error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/calibrations status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var listed struct {
		Calibrations []struct {
			ID     string `json:"id"`
			Active bool   `json:"active"`
		} `json:"calibrations"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()

	if len(listed.Calibrations) != 1 {
		t.Fatalf("len(calibrations) = %d, want 1", len(listed.Calibrations))
	}
	if listed.Calibrations[0].ID != c.ID || !listed.Calibrations[0].Active {
		t.Errorf("listed = %+v, want active calibration %s", listed.Calibrations[0], c.ID)
	}

	// 2. Fetch the active calibration document
	resp, _ = client.Get(ts.URL + "/api/calibrations/active?wall=wall-1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/calibrations/active status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var doc calibration.Document
	json.NewDecoder(resp.Body).Decode(&doc)
	resp.Body.Close()

	if doc.CalibrationType != string(calibration.MethodFiducial) {
		t.Errorf("calibrationType = %s, want %s", doc.CalibrationType, calibration.MethodFiducial)
	}

	// 3. Unknown wall reports not found
	resp, _ = client.Get(ts.URL + "/api/calibrations/active?wall=wall-9")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("GET unknown wall status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	resp.Body.Close()
}

func TestAPI_HealthCheck(t *testing.T) {
	srv := New(Config{})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var health struct {
		Status string `json:"status"`
		Uptime string `json:"uptime"`
	}
	json.NewDecoder(resp.Body).Decode(&health)

	if health.Status != "ok" {
		t.Errorf("status = %s, want ok", health.Status)
	}
}
