package export

import (
	"bytes"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	kml "github.com/twpayne/go-kml"

	"github.com/dpup/xctsk-viewer/server/internal/lib/geometry"
	"github.com/dpup/xctsk-viewer/server/internal/lib/task"
)

// KML encodes the task as a self-contained KML document: shared styles, one
// placemark per turnpoint (point plus cylinder polygon where the task has
// one) and one path placemark per route mode present.
func KML(in Input) ([]byte, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	t := in.Task

	name := t.Name
	if name == "" {
		name = "XCTSK Task"
	}
	doc := kml.Document(kml.Name(name))

	styled := map[string]bool{}
	for _, tp := range t.Turnpoints {
		id := roleStyleID(tp.Role)
		if styled[id] {
			continue
		}
		styled[id] = true
		s := geometry.RoleStyle(tp.Role)
		doc.Add(kml.SharedStyle(id,
			kml.LineStyle(kml.Color(hexColor(s.Stroke, s.Opacity)), kml.Width(s.Weight)),
			kml.PolyStyle(kml.Color(hexColor(s.Fill, s.FillOpacity))),
		))
	}
	paths := in.paths()
	for _, table := range paths {
		s := geometry.ModeStyle(table.Mode)
		doc.Add(kml.SharedStyle(string(table.Mode),
			kml.LineStyle(kml.Color(hexColor(s.Stroke, s.Opacity)), kml.Width(s.Weight)),
		))
	}

	for i, tp := range t.Turnpoints {
		point := kml.Point(kml.Coordinates(kmlCoordinate(tp.Coordinate)))
		var shape kml.Element = point
		if in.hasCylinder(i) {
			ring, err := cylinderRing(in.Geodesy, tp)
			if err != nil {
				return nil, err
			}
			shape = kml.MultiGeometry(
				point,
				kml.Polygon(kml.OuterBoundaryIs(kml.LinearRing(kml.Coordinates(kmlCoordinates(ring)...)))),
			)
		}
		doc.Add(kml.Placemark(
			kml.Name(tp.Name),
			kml.Description(describe(tp)),
			kml.StyleURL("#"+roleStyleID(tp.Role)),
			shape,
		))
	}

	for _, table := range paths {
		doc.Add(kml.Placemark(
			kml.Name(geometry.ModeName(table.Mode)),
			kml.Description(fmt.Sprintf("Distance: %.0f m", table.Total())),
			kml.StyleURL("#"+string(table.Mode)),
			kml.LineString(kml.Tessellate(true), kml.Coordinates(kmlCoordinates(table.Points)...)),
		))
	}

	var buf bytes.Buffer
	if err := kml.KML(doc).WriteIndent(&buf, "", "  "); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return buf.Bytes(), nil
}

func roleStyleID(role task.Role) string {
	return strings.ToLower(role.String())
}

func kmlCoordinate(c task.Coordinate) kml.Coordinate {
	return kml.Coordinate{Lon: c.Lon, Lat: c.Lat, Alt: c.Alt}
}

func kmlCoordinates(cs []task.Coordinate) []kml.Coordinate {
	out := make([]kml.Coordinate, len(cs))
	for i, c := range cs {
		out[i] = kmlCoordinate(c)
	}
	return out
}

// hexColor parses a #rrggbb string into a color with the given opacity
func hexColor(hex string, opacity float64) color.Color {
	v, err := strconv.ParseUint(strings.TrimPrefix(hex, "#"), 16, 32)
	if err != nil {
		return color.NRGBA{A: 0xff}
	}
	return color.NRGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: uint8(opacity * 0xff),
	}
}
