// Package export writes tasks as standalone geography interchange documents
// (KML and GPX) for use in external mapping tools.
package export

import (
	"errors"
	"fmt"

	"github.com/peterstace/simplefeatures/geom"

	"github.com/dpup/xctsk-viewer/server/internal/lib/distance"
	"github.com/dpup/xctsk-viewer/server/internal/lib/geo"
	"github.com/dpup/xctsk-viewer/server/internal/lib/task"
)

// ErrEncoding is returned when part of a task cannot be serialized
var ErrEncoding = errors.New("export encoding failed")

// Content types for the supported documents
const (
	KMLContentType = "application/vnd.google-earth.kml+xml"
	GPXContentType = "application/gpx+xml"
)

// Number of segments used to approximate a cylinder as a polygon
const circleSegments = 64

// Input is everything an encoder needs. Optimized may be nil.
type Input struct {
	Task      *task.Task
	Centers   *distance.Table
	Optimized *distance.Table
	Geodesy   geo.Geodesy
}

// paths returns the route tables present in the input, in mode order
func (in Input) paths() []*distance.Table {
	var out []*distance.Table
	if in.Centers != nil && len(in.Centers.Points) >= 2 {
		out = append(out, in.Centers)
	}
	if in.Task != nil && !in.Task.IsWaypoints() && in.Optimized != nil && len(in.Optimized.Points) >= 2 {
		out = append(out, in.Optimized)
	}
	return out
}

// hasCylinder matches the geometry builder: waypoints tasks, point
// turnpoints and the line goal have no cylinder.
func (in Input) hasCylinder(i int) bool {
	t := in.Task
	if t.IsWaypoints() || t.Turnpoints[i].Radius <= 0 {
		return false
	}
	return !(t.HasLineGoal() && i == len(t.Turnpoints)-1)
}

func (in Input) validate() error {
	if in.Task == nil || len(in.Task.Turnpoints) == 0 {
		return fmt.Errorf("%w: no turnpoints", ErrEncoding)
	}
	if in.Geodesy == nil {
		return fmt.Errorf("%w: no geodesy", ErrEncoding)
	}
	return nil
}

// cylinderRing approximates a turnpoint cylinder and checks the resulting
// polygon is valid before it is written.
func cylinderRing(g geo.Geodesy, tp task.Turnpoint) ([]task.Coordinate, error) {
	ring := geo.Circle(g, tp.Coordinate, tp.Radius, circleSegments)
	flat := make([]float64, 0, 2*len(ring))
	for _, c := range ring {
		flat = append(flat, c.Lon, c.Lat)
	}
	ls, err := geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
	if err == nil {
		_, err = geom.NewPolygon([]geom.LineString{ls})
	}
	if err != nil {
		return nil, fmt.Errorf("%w: cylinder %d (%s): %v", ErrEncoding, tp.Index, tp.Name, err)
	}
	return ring, nil
}

func describe(tp task.Turnpoint) string {
	desc := fmt.Sprintf("Role: %s\nRadius: %.0f m", tp.Role.Label(), tp.Radius)
	if tp.Description != "" {
		desc = tp.Description + "\n" + desc
	}
	return desc
}
