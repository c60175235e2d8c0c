package wall

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/anvith/gripstream/internal/geometry"
)

// svgPath is the subset of an SVG <path> element we care about: the id
// names the hold, the d attribute carries its outline.
type svgPath struct {
	ID string `xml:"id,attr"`
	D  string `xml:"d,attr"`
}

// LoadSVG reads a wall's vector file and derives its holds. Every
// named <path> element becomes one hold; paths without an id are
// decoration and skipped. resolution is the outline sample count;
// pass 0 for DefaultSampleResolution.
func LoadSVG(wallID, path string, resolution int) (*Wall, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wall geometry: %w", err)
	}
	defer f.Close()
	return ParseSVG(wallID, f, resolution)
}

// ParseSVG derives a wall's holds from SVG content.
func ParseSVG(wallID string, r io.Reader, resolution int) (*Wall, error) {
	if resolution <= 0 {
		resolution = DefaultSampleResolution
	}

	dec := xml.NewDecoder(r)
	var holds []Hold
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse wall geometry: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "path" {
			continue
		}
		var p svgPath
		if err := dec.DecodeElement(&p, &start); err != nil {
			return nil, fmt.Errorf("parse wall geometry: %w", err)
		}
		if p.ID == "" || p.D == "" {
			continue
		}

		outline, err := flattenPath(p.D, resolution)
		if err != nil {
			return nil, fmt.Errorf("hold %q: %w", p.ID, err)
		}
		if len(outline) < 3 {
			continue
		}
		holds = append(holds, Hold{
			ID:      p.ID,
			Center:  polygonCentroid(outline),
			Polygon: outline,
			Type:    HoldTypeNormal,
		})
	}

	return NewWall(wallID, holds)
}

// flattenPath approximates a path's outline as a polygon with exactly
// resolution points, spaced evenly along its length. Supported
// commands: M/m, L/l, H/h, V/v, C/c, Q/q, Z/z; curves are subdivided
// before resampling.
func flattenPath(d string, resolution int) ([]geometry.Point, error) {
	cmds, err := tokenizePath(d)
	if err != nil {
		return nil, err
	}

	const curveSteps = 16
	var poly []geometry.Point
	var cur, start geometry.Point
	for _, c := range cmds {
		rel := c.op >= 'a'
		abs := func(p geometry.Point) geometry.Point {
			if rel {
				return geometry.Point{X: cur.X + p.X, Y: cur.Y + p.Y}
			}
			return p
		}

		switch c.op {
		case 'M', 'm':
			if len(c.args)%2 != 0 || len(c.args) < 2 {
				return nil, fmt.Errorf("malformed moveto in path data")
			}
			cur = abs(geometry.Point{X: c.args[0], Y: c.args[1]})
			start = cur
			poly = append(poly, cur)
			// Extra coordinate pairs after a moveto are implicit linetos.
			for i := 2; i+1 < len(c.args); i += 2 {
				cur = abs(geometry.Point{X: c.args[i], Y: c.args[i+1]})
				poly = append(poly, cur)
			}
		case 'L', 'l':
			if len(c.args)%2 != 0 || len(c.args) < 2 {
				return nil, fmt.Errorf("malformed lineto in path data")
			}
			for i := 0; i+1 < len(c.args); i += 2 {
				cur = abs(geometry.Point{X: c.args[i], Y: c.args[i+1]})
				poly = append(poly, cur)
			}
		case 'H', 'h':
			for _, x := range c.args {
				if rel {
					cur = geometry.Point{X: cur.X + x, Y: cur.Y}
				} else {
					cur = geometry.Point{X: x, Y: cur.Y}
				}
				poly = append(poly, cur)
			}
		case 'V', 'v':
			for _, y := range c.args {
				if rel {
					cur = geometry.Point{X: cur.X, Y: cur.Y + y}
				} else {
					cur = geometry.Point{X: cur.X, Y: y}
				}
				poly = append(poly, cur)
			}
		case 'C', 'c':
			if len(c.args)%6 != 0 || len(c.args) < 6 {
				return nil, fmt.Errorf("malformed cubic curve in path data")
			}
			for i := 0; i+5 < len(c.args); i += 6 {
				p1 := abs(geometry.Point{X: c.args[i], Y: c.args[i+1]})
				p2 := abs(geometry.Point{X: c.args[i+2], Y: c.args[i+3]})
				p3 := abs(geometry.Point{X: c.args[i+4], Y: c.args[i+5]})
				for s := 1; s <= curveSteps; s++ {
					t := float64(s) / curveSteps
					poly = append(poly, cubicAt(cur, p1, p2, p3, t))
				}
				cur = p3
			}
		case 'Q', 'q':
			if len(c.args)%4 != 0 || len(c.args) < 4 {
				return nil, fmt.Errorf("malformed quadratic curve in path data")
			}
			for i := 0; i+3 < len(c.args); i += 4 {
				p1 := abs(geometry.Point{X: c.args[i], Y: c.args[i+1]})
				p2 := abs(geometry.Point{X: c.args[i+2], Y: c.args[i+3]})
				for s := 1; s <= curveSteps; s++ {
					t := float64(s) / curveSteps
					poly = append(poly, quadAt(cur, p1, p2, t))
				}
				cur = p2
			}
		case 'Z', 'z':
			cur = start
			poly = append(poly, cur)
		default:
			return nil, fmt.Errorf("unsupported path command %q", string(c.op))
		}
	}

	if len(poly) < 3 {
		return poly, nil
	}
	return resamplePolygon(poly, resolution), nil
}

type pathCommand struct {
	op   byte
	args []float64
}

// tokenizePath splits SVG path data into commands with numeric
// arguments. Separators are commas and whitespace; a '-' also starts a
// new number.
func tokenizePath(d string) ([]pathCommand, error) {
	var cmds []pathCommand
	i := 0
	for i < len(d) {
		ch := d[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == ',':
			i++
		case (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z'):
			cmds = append(cmds, pathCommand{op: ch})
			i++
		case ch == '-' || ch == '+' || ch == '.' || (ch >= '0' && ch <= '9'):
			j := i + 1
			for j < len(d) {
				c := d[j]
				if (c >= '0' && c <= '9') || c == '.' || c == 'e' || c == 'E' {
					j++
					continue
				}
				if (c == '-' || c == '+') && (d[j-1] == 'e' || d[j-1] == 'E') {
					j++
					continue
				}
				break
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(d[i:j]), 64)
			if err != nil {
				return nil, fmt.Errorf("bad number %q in path data", d[i:j])
			}
			if len(cmds) == 0 {
				return nil, fmt.Errorf("path data starts with a number, not a command")
			}
			cmds[len(cmds)-1].args = append(cmds[len(cmds)-1].args, v)
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q in path data", string(ch))
		}
	}
	return cmds, nil
}

func cubicAt(p0, p1, p2, p3 geometry.Point, t float64) geometry.Point {
	u := 1 - t
	return geometry.Point{
		X: u*u*u*p0.X + 3*u*u*t*p1.X + 3*u*t*t*p2.X + t*t*t*p3.X,
		Y: u*u*u*p0.Y + 3*u*u*t*p1.Y + 3*u*t*t*p2.Y + t*t*t*p3.Y,
	}
}

func quadAt(p0, p1, p2 geometry.Point, t float64) geometry.Point {
	u := 1 - t
	return geometry.Point{
		X: u*u*p0.X + 2*u*t*p1.X + t*t*p2.X,
		Y: u*u*p0.Y + 2*u*t*p1.Y + t*t*p2.Y,
	}
}
