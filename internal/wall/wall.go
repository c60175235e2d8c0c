// Package wall loads a climbing wall's hold geometry from its vector
// (SVG) file. Holds are derived once per wall and are read-only for a
// session's lifetime.
package wall

import (
	"errors"
	"fmt"

	"github.com/anvith/gripstream/internal/geometry"
)

// DefaultSampleResolution is the number of points a hold outline is
// flattened to.
const DefaultSampleResolution = 100

// ErrNoGeometry is returned when a wall file contains no usable hold
// paths. Starting a pipeline without geometry is fatal and surfaced to
// the operator.
var ErrNoGeometry = errors.New("wall has no hold geometry")

// HoldType classifies a hold within a route.
type HoldType string

const (
	// HoldTypeStart marks a route's starting hold.
	HoldTypeStart HoldType = "start"
	// HoldTypeNormal marks an ordinary hold.
	HoldTypeNormal HoldType = "normal"
	// HoldTypeFinish marks a route's finishing hold.
	HoldTypeFinish HoldType = "finish"
)

// Hold is one physical hold in wall space. The polygon is an ordered
// outline sampled from the hold's SVG path; Center is its centroid.
type Hold struct {
	ID      string
	Center  geometry.Point
	Polygon []geometry.Point
	Type    HoldType
}

// Contains reports whether p lies inside the hold's outline.
func (h *Hold) Contains(p geometry.Point) bool {
	return polygonContains(h.Polygon, p)
}

// Wall is the full hold set for one wall.
type Wall struct {
	ID    string
	Holds []Hold

	byID map[string]*Hold
}

// NewWall builds a wall from an already-derived hold list.
func NewWall(id string, holds []Hold) (*Wall, error) {
	if len(holds) == 0 {
		return nil, fmt.Errorf("%w: wall %q", ErrNoGeometry, id)
	}
	w := &Wall{ID: id, Holds: holds}
	w.index()
	return w, nil
}

func (w *Wall) index() {
	w.byID = make(map[string]*Hold, len(w.Holds))
	for i := range w.Holds {
		w.byID[w.Holds[i].ID] = &w.Holds[i]
	}
}

// Hold returns the hold with the given id, if present.
func (w *Wall) Hold(id string) (*Hold, bool) {
	h, ok := w.byID[id]
	return h, ok
}

// RouteHold names one hold belonging to a route, with its role.
type RouteHold struct {
	HoldID string   `json:"holdId"`
	Type   HoldType `json:"type"`
}

// Scope restricts the wall to the holds of a route, applying the
// route's hold types. Holds outside the route are dropped entirely.
// Route entries naming unknown holds are reported as an error so a
// stale route is caught at setup time rather than silently ignored.
func (w *Wall) Scope(route []RouteHold) (*Wall, error) {
	if len(route) == 0 {
		return w, nil
	}
	holds := make([]Hold, 0, len(route))
	for _, rh := range route {
		src, ok := w.byID[rh.HoldID]
		if !ok {
			return nil, fmt.Errorf("route references unknown hold %q on wall %q", rh.HoldID, w.ID)
		}
		h := *src
		h.Type = rh.Type
		if h.Type == "" {
			h.Type = HoldTypeNormal
		}
		holds = append(holds, h)
	}
	scoped := &Wall{ID: w.ID, Holds: holds}
	scoped.index()
	return scoped, nil
}
