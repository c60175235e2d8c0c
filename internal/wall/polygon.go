package wall

import (
	"math"

	"github.com/anvith/gripstream/internal/geometry"
)

// resamplePolygon redistributes a polyline's points evenly by arc
// length, producing exactly n points.
func resamplePolygon(poly []geometry.Point, n int) []geometry.Point {
	if len(poly) < 2 || n < 2 {
		return poly
	}

	total := 0.0
	segs := make([]float64, len(poly)-1)
	for i := 0; i < len(poly)-1; i++ {
		segs[i] = geometry.Distance(poly[i], poly[i+1])
		total += segs[i]
	}
	if total == 0 {
		return poly[:1]
	}

	out := make([]geometry.Point, 0, n)
	step := total / float64(n)
	seg := 0
	walked := 0.0
	for i := 0; i < n; i++ {
		target := float64(i) * step
		for seg < len(segs)-1 && walked+segs[seg] < target {
			walked += segs[seg]
			seg++
		}
		t := 0.0
		if segs[seg] > 0 {
			t = (target - walked) / segs[seg]
		}
		a, b := poly[seg], poly[seg+1]
		out = append(out, geometry.Point{
			X: a.X + (b.X-a.X)*t,
			Y: a.Y + (b.Y-a.Y)*t,
		})
	}
	return out
}

// polygonCentroid returns the area centroid of a closed polygon,
// falling back to the vertex mean when the outline encloses no area.
func polygonCentroid(poly []geometry.Point) geometry.Point {
	var area, cx, cy float64
	for i := range poly {
		j := (i + 1) % len(poly)
		cross := poly[i].X*poly[j].Y - poly[j].X*poly[i].Y
		area += cross
		cx += (poly[i].X + poly[j].X) * cross
		cy += (poly[i].Y + poly[j].Y) * cross
	}
	area /= 2
	if math.Abs(area) < 1e-9 {
		var sx, sy float64
		for _, p := range poly {
			sx += p.X
			sy += p.Y
		}
		n := float64(len(poly))
		return geometry.Point{X: sx / n, Y: sy / n}
	}
	return geometry.Point{X: cx / (6 * area), Y: cy / (6 * area)}
}

// polygonContains runs an even-odd ray cast from p.
func polygonContains(poly []geometry.Point, p geometry.Point) bool {
	inside := false
	for i, j := 0, len(poly)-1; i < len(poly); j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) &&
			p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			inside = !inside
		}
	}
	return inside
}
