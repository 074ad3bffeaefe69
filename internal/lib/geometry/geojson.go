package geometry

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/dpup/xctsk-viewer/server/internal/lib/task"
)

func toPoint(c task.Coordinate) orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

func toLineString(path []task.Coordinate) orb.LineString {
	ls := make(orb.LineString, len(path))
	for i, c := range path {
		ls[i] = toPoint(c)
	}
	return ls
}

func toRing(ring []task.Coordinate) orb.Ring {
	return orb.Ring(toLineString(ring))
}

func styleProperties(p geojson.Properties, s Style) {
	p["color"] = s.Stroke
	p["opacity"] = s.Opacity
	p["weight"] = s.Weight
	if s.Fill != "" {
		p["fillColor"] = s.Fill
		p["fillOpacity"] = s.FillOpacity
	}
	if s.DashArray != "" {
		p["dashArray"] = s.DashArray
	}
}

func turnpointFeature(kind Kind, tp task.Turnpoint, s Style) *geojson.Feature {
	f := geojson.NewFeature(toPoint(tp.Coordinate))
	f.Properties["type"] = string(kind)
	f.Properties["name"] = tp.Name
	f.Properties["index"] = tp.Index
	f.Properties["role"] = tp.Role.String()
	f.Properties["radius"] = tp.Radius
	if tp.Coordinate.Alt != 0 {
		f.Properties["altitude"] = tp.Coordinate.Alt
	}
	if tp.Description != "" {
		f.Properties["description"] = tp.Description
	}
	styleProperties(f.Properties, s)
	return f
}

// FeatureCollection converts the collection to GeoJSON. Cylinders are points
// carrying a radius property for the client to draw, and the goal line
// produces two features: the line and its control zone polygon.
func (c *Collection) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, feature := range c.Features {
		switch f := feature.(type) {
		case Cylinder:
			fc.Append(turnpointFeature(KindCylinder, f.Turnpoint, f.Style))
		case Marker:
			fc.Append(turnpointFeature(KindMarker, f.Turnpoint, f.Style))
		case RouteLine:
			gf := geojson.NewFeature(toLineString(f.Path))
			gf.Properties["type"] = string(KindRoute)
			gf.Properties["name"] = ModeName(f.Mode)
			gf.Properties["mode"] = string(f.Mode)
			styleProperties(gf.Properties, f.Style)
			if f.ArrowSpacing > 0 {
				gf.Properties["arrowheads"] = true
				gf.Properties["arrow_spacing"] = f.ArrowSpacing
				gf.Properties["arrow_size"] = ArrowSize
				gf.Properties["arrow_color"] = f.Style.Stroke
			}
			fc.Append(gf)
		case GoalLine:
			line := geojson.NewFeature(toLineString(f.Line))
			line.Properties["type"] = string(KindGoalLine)
			line.Properties["name"] = "Goal Line"
			line.Properties["role"] = f.Turnpoint.Role.String()
			line.Properties["length"] = f.Length
			styleProperties(line.Properties, f.Style)
			fc.Append(line)

			zone := geojson.NewFeature(orb.Polygon{toRing(f.Zone)})
			zone.Properties["type"] = "goal_control_zone"
			zone.Properties["name"] = "Goal Control Zone"
			styleProperties(zone.Properties, f.ZoneStyle)
			fc.Append(zone)
		}
	}
	return fc
}

// GeoJSON encodes the collection as a GeoJSON FeatureCollection document
func (c *Collection) GeoJSON() ([]byte, error) {
	data, err := json.Marshal(c.FeatureCollection())
	if err != nil {
		return nil, fmt.Errorf("failed to encode geojson: %w", err)
	}
	return data, nil
}
