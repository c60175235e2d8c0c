// Package api provides HTTP API handlers for the GripStream operator
// server.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/anvith/gripstream/internal/store"
)

// CalibrationHandler handles HTTP requests for calibration resources.
type CalibrationHandler struct {
	store *store.Store
}

// NewCalibrationHandler creates a new CalibrationHandler with the given store.
func NewCalibrationHandler(s *store.Store) *CalibrationHandler {
	return &CalibrationHandler{store: s}
}

// ServeHTTP implements the http.Handler interface and routes requests
// to appropriate methods.
func (h *CalibrationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/calibrations?wall={id} or /api/calibrations/active?wall={id}
	path := strings.TrimPrefix(r.URL.Path, "/api/calibrations")
	path = strings.TrimPrefix(path, "/")

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	wallID := r.URL.Query().Get("wall")
	if wallID == "" {
		writeError(w, http.StatusBadRequest, "wall query parameter is required")
		return
	}

	switch path {
	case "":
		h.list(w, wallID)
	case "active":
		h.active(w, wallID)
	default:
		writeError(w, http.StatusNotFound, "Unknown calibration resource")
	}
}

type calibrationResponse struct {
	ID                string  `json:"id"`
	WallID            string  `json:"wallId"`
	Method            string  `json:"method"`
	ReprojectionError float64 `json:"reprojectionError"`
	Active            bool    `json:"active"`
	CreatedAt         string  `json:"createdAt"`
}

type listCalibrationsResponse struct {
	Calibrations []calibrationResponse `json:"calibrations"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toResponse(rec store.CalibrationRecord) calibrationResponse {
	return calibrationResponse{
		ID:                rec.ID,
		WallID:            rec.WallID,
		Method:            string(rec.Method),
		ReprojectionError: rec.ReprojectionError,
		Active:            rec.Active,
		CreatedAt:         rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// list handles GET /api/calibrations and returns a wall's calibration
// history, newest first.
func (h *CalibrationHandler) list(w http.ResponseWriter, wallID string) {
	recs, err := h.store.Calibrations().List(wallID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list calibrations")
		return
	}

	response := listCalibrationsResponse{
		Calibrations: make([]calibrationResponse, 0, len(recs)),
	}
	for _, rec := range recs {
		response.Calibrations = append(response.Calibrations, toResponse(rec))
	}

	writeJSON(w, http.StatusOK, response)
}

// active handles GET /api/calibrations/active and returns the wall's
// active calibration document.
func (h *CalibrationHandler) active(w http.ResponseWriter, wallID string) {
	c, err := h.store.Calibrations().Active(wallID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Wall has no active calibration")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load calibration")
		return
	}

	writeJSON(w, http.StatusOK, c.ToDocument())
}
