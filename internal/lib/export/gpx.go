package export

import (
	"fmt"

	"github.com/tkrajina/gpxgo/gpx"

	"github.com/dpup/xctsk-viewer/server/internal/lib/geometry"
	"github.com/dpup/xctsk-viewer/server/internal/lib/task"
)

const gpxCreator = "xctsk-viewer"

// GPX encodes the task as a GPX 1.1 document: a waypoint per turnpoint and a
// route per route mode present. Cylinders are carried in the waypoint
// description since GPX has no area geometry.
func GPX(in Input) ([]byte, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	t := in.Task

	doc := &gpx.GPX{
		Version: "1.1",
		Creator: gpxCreator,
		Name:    t.Name,
	}
	for _, tp := range t.Turnpoints {
		wpt := gpxPoint(tp.Coordinate)
		wpt.Name = tp.Name
		wpt.Description = describe(tp)
		wpt.Type = tp.Role.Label()
		doc.Waypoints = append(doc.Waypoints, wpt)
	}

	for _, table := range in.paths() {
		rte := gpx.GPXRoute{
			Name:        geometry.ModeName(table.Mode),
			Description: fmt.Sprintf("Distance: %.0f m", table.Total()),
			Type:        string(table.Mode),
		}
		for i, c := range table.Points {
			pt := gpxPoint(c)
			if i < len(t.Turnpoints) {
				pt.Name = t.Turnpoints[i].Name
			}
			rte.Points = append(rte.Points, pt)
		}
		doc.Routes = append(doc.Routes, rte)
	}

	data, err := doc.ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return data, nil
}

func gpxPoint(c task.Coordinate) gpx.GPXPoint {
	pt := gpx.GPXPoint{
		Point: gpx.Point{Latitude: c.Lat, Longitude: c.Lon},
	}
	if c.Alt != 0 {
		pt.Elevation = *gpx.NewNullableFloat64(c.Alt)
	}
	return pt
}
