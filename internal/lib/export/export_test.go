package export

import (
	"encoding/xml"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tkrajina/gpxgo/gpx"

	"github.com/dpup/xctsk-viewer/server/internal/lib/distance"
	"github.com/dpup/xctsk-viewer/server/internal/lib/geo"
	"github.com/dpup/xctsk-viewer/server/internal/lib/geometry"
	"github.com/dpup/xctsk-viewer/server/internal/lib/optimize"
	"github.com/dpup/xctsk-viewer/server/internal/lib/task"
)

type kmlDoc struct {
	Document struct {
		Name       string         `xml:"name"`
		Styles     []kmlStyle     `xml:"Style"`
		Placemarks []kmlPlacemark `xml:"Placemark"`
	} `xml:"Document"`
}

type kmlStyle struct {
	ID string `xml:"id,attr"`
}

type kmlPlacemark struct {
	Name          string `xml:"name"`
	Description   string `xml:"description"`
	StyleURL      string `xml:"styleUrl"`
	Point         *struct {
		Coordinates string `xml:"coordinates"`
	} `xml:"Point"`
	MultiGeometry *struct {
		Point struct {
			Coordinates string `xml:"coordinates"`
		} `xml:"Point"`
		Polygon struct {
			Coordinates string `xml:"outerBoundaryIs>LinearRing>coordinates"`
		} `xml:"Polygon"`
	} `xml:"MultiGeometry"`
	LineString *struct {
		Coordinates string `xml:"coordinates"`
	} `xml:"LineString"`
}

func (p kmlPlacemark) pointCoordinates() string {
	if p.Point != nil {
		return p.Point.Coordinates
	}
	if p.MultiGeometry != nil {
		return p.MultiGeometry.Point.Coordinates
	}
	return ""
}

func parseCoordinates(t *testing.T, s string) []task.Coordinate {
	var out []task.Coordinate
	for _, tuple := range strings.Fields(s) {
		parts := strings.Split(tuple, ",")
		require.GreaterOrEqual(t, len(parts), 2)
		lon, err := strconv.ParseFloat(parts[0], 64)
		require.NoError(t, err)
		lat, err := strconv.ParseFloat(parts[1], 64)
		require.NoError(t, err)
		out = append(out, task.Coordinate{Lat: lat, Lon: lon})
	}
	return out
}

func parseKML(t *testing.T, data []byte) kmlDoc {
	var doc kmlDoc
	require.NoError(t, xml.Unmarshal(data, &doc))
	return doc
}

func competitionInput(t *testing.T) Input {
	tk := &task.Task{
		Name: "Race to Goal",
		Type: task.Classic,
		Turnpoints: []task.Turnpoint{
			{Index: 1, Name: "TO", Coordinate: task.Coordinate{Lat: 46.00, Lon: 7.00, Alt: 1500}, Radius: 400, Role: task.RoleTakeoff},
			{Index: 2, Name: "SSS", Coordinate: task.Coordinate{Lat: 46.10, Lon: 7.10}, Radius: 3000, Role: task.RoleSSS},
			{Index: 3, Name: "TP", Description: "Church", Coordinate: task.Coordinate{Lat: 46.00, Lon: 7.20}, Radius: 0},
			{Index: 4, Name: "ESS", Coordinate: task.Coordinate{Lat: 46.15, Lon: 7.30}, Radius: 1000, Role: task.RoleESS},
			{Index: 5, Name: "GOAL", Coordinate: task.Coordinate{Lat: 46.16, Lon: 7.32}, Radius: 400, Role: task.RoleGoal},
		},
	}
	g := geo.NewEllipsoid()
	route, err := optimize.NewOptimizer().Optimize(tk, g)
	require.NoError(t, err)
	opt, err := distance.OptimizedTable(tk.Turnpoints, route.Points, g)
	require.NoError(t, err)
	return Input{Task: tk, Centers: distance.CenterTable(tk.Turnpoints, g), Optimized: opt, Geodesy: g}
}

func waypointsInput() Input {
	tk := &task.Task{
		Type: task.Waypoints,
		Turnpoints: []task.Turnpoint{
			{Index: 1, Name: "A", Coordinate: task.Coordinate{Lat: 46.00, Lon: 7.00}},
			{Index: 2, Name: "B", Coordinate: task.Coordinate{Lat: 46.05, Lon: 7.05}},
			{Index: 3, Name: "C", Coordinate: task.Coordinate{Lat: 46.10, Lon: 7.00}},
		},
	}
	g := geo.NewSphere()
	return Input{Task: tk, Centers: distance.CenterTable(tk.Turnpoints, g), Geodesy: g}
}

func assertSameCoordinate(t *testing.T, want, got task.Coordinate) {
	t.Helper()
	assert.InDelta(t, want.Lat, got.Lat, 1e-7)
	assert.InDelta(t, want.Lon, got.Lon, 1e-7)
}

func TestKML_Document(t *testing.T) {
	in := competitionInput(t)

	data, err := KML(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `xmlns="http://www.opengis.net/kml/2.2"`)

	doc := parseKML(t, data)
	assert.Equal(t, "Race to Goal", doc.Document.Name)
	require.Len(t, doc.Document.Placemarks, 7, "5 turnpoints and 2 paths")

	tp := doc.Document.Placemarks[1]
	assert.Equal(t, "SSS", tp.Name)
	assert.Equal(t, "#sss", tp.StyleURL)
	assert.Contains(t, tp.Description, "Role: SSS")
	assert.Contains(t, tp.Description, "Radius: 3000 m")
	require.NotNil(t, tp.MultiGeometry)
	ring := parseCoordinates(t, tp.MultiGeometry.Polygon.Coordinates)
	assert.Len(t, ring, circleSegments+1)
	assert.InDelta(t, 3000, in.Geodesy.Distance(in.Task.Turnpoints[1].Coordinate, ring[10]), 0.5)

	point := doc.Document.Placemarks[2]
	assert.Nil(t, point.MultiGeometry, "point turnpoint has no polygon")
	assert.Contains(t, point.Description, "Church")

	centers := doc.Document.Placemarks[5]
	assert.Equal(t, "Route Through Centers", centers.Name)
	require.NotNil(t, centers.LineString)
	assert.Len(t, parseCoordinates(t, centers.LineString.Coordinates), 5)

	optimized := doc.Document.Placemarks[6]
	assert.Equal(t, "#optimized", optimized.StyleURL)

	ids := map[string]bool{}
	for _, s := range doc.Document.Styles {
		ids[s.ID] = true
	}
	for _, p := range doc.Document.Placemarks {
		assert.True(t, ids[strings.TrimPrefix(p.StyleURL, "#")], "style %s is defined", p.StyleURL)
	}
}

func TestKML_RoundTripMatchesGeometry(t *testing.T) {
	for name, in := range map[string]Input{
		"competition": competitionInput(t),
		"waypoints":   waypointsInput(),
	} {
		t.Run(name, func(t *testing.T) {
			data, err := KML(in)
			require.NoError(t, err)
			doc := parseKML(t, data)

			c := geometry.Build(in.Task, in.Centers, in.Optimized, in.Geodesy)

			var turnpoints []task.Turnpoint
			for _, f := range c.Features {
				switch f := f.(type) {
				case geometry.Cylinder:
					turnpoints = append(turnpoints, f.Turnpoint)
				case geometry.Marker:
					turnpoints = append(turnpoints, f.Turnpoint)
				}
			}
			routes := c.Routes()
			require.Len(t, doc.Document.Placemarks, len(turnpoints)+len(routes))

			for i, tp := range turnpoints {
				p := doc.Document.Placemarks[i]
				assert.Equal(t, tp.Name, p.Name)
				assert.Contains(t, p.Description, "Role: "+tp.Role.Label())
				coords := parseCoordinates(t, p.pointCoordinates())
				require.Len(t, coords, 1)
				assertSameCoordinate(t, tp.Coordinate, coords[0])
			}
			for i, r := range routes {
				p := doc.Document.Placemarks[len(turnpoints)+i]
				assert.Equal(t, geometry.ModeName(r.Mode), p.Name)
				coords := parseCoordinates(t, p.LineString.Coordinates)
				require.Len(t, coords, len(r.Path))
				for j := range coords {
					assertSameCoordinate(t, r.Path[j], coords[j])
				}
			}
		})
	}
}

func TestKML_LineGoalHasNoCylinder(t *testing.T) {
	in := competitionInput(t)
	in.Task.Goal = &task.Goal{Type: task.GoalLine}

	data, err := KML(in)
	require.NoError(t, err)
	doc := parseKML(t, data)
	assert.Nil(t, doc.Document.Placemarks[4].MultiGeometry)
	assert.NotNil(t, doc.Document.Placemarks[4].Point)
}

func TestKML_SingleTurnpoint(t *testing.T) {
	g := geo.NewSphere()
	tk := &task.Task{Type: task.Classic, Turnpoints: []task.Turnpoint{
		{Index: 1, Name: "Solo", Coordinate: task.Coordinate{Lat: 1, Lon: 2}, Radius: 100},
	}}
	data, err := KML(Input{Task: tk, Centers: distance.CenterTable(tk.Turnpoints, g), Geodesy: g})
	require.NoError(t, err)
	doc := parseKML(t, data)
	require.Len(t, doc.Document.Placemarks, 1)
	assert.Nil(t, doc.Document.Placemarks[0].LineString)
}

func TestKML_EncodingFailure(t *testing.T) {
	in := waypointsInput()
	in.Task.Type = task.Classic
	in.Task.Turnpoints[0].Radius = math.Inf(1)

	_, err := KML(in)
	assert.ErrorIs(t, err, ErrEncoding)

	// The other artifact is unaffected
	_, err = GPX(in)
	assert.NoError(t, err)
}

func TestKML_NoTurnpoints(t *testing.T) {
	_, err := KML(Input{Task: &task.Task{}, Geodesy: geo.NewSphere()})
	assert.ErrorIs(t, err, ErrEncoding)
}

func TestGPX_Document(t *testing.T) {
	in := competitionInput(t)

	data, err := GPX(in)
	require.NoError(t, err)

	doc, err := gpx.ParseBytes(data)
	require.NoError(t, err)
	assert.Equal(t, "Race to Goal", doc.Name)
	require.Len(t, doc.Waypoints, 5)
	for i, wpt := range doc.Waypoints {
		tp := in.Task.Turnpoints[i]
		assert.Equal(t, tp.Name, wpt.Name)
		assert.Equal(t, tp.Role.Label(), wpt.Type)
		assertSameCoordinate(t, tp.Coordinate, task.Coordinate{Lat: wpt.Latitude, Lon: wpt.Longitude})
	}
	assert.Equal(t, 1500.0, doc.Waypoints[0].Elevation.Value())

	require.Len(t, doc.Routes, 2)
	assert.Equal(t, string(distance.ThroughCenters), doc.Routes[0].Type)
	assert.Equal(t, string(distance.Optimized), doc.Routes[1].Type)
	require.Len(t, doc.Routes[1].Points, 5)
	for i, pt := range doc.Routes[1].Points {
		assertSameCoordinate(t, in.Optimized.Points[i], task.Coordinate{Lat: pt.Latitude, Lon: pt.Longitude})
	}
}

func TestGPX_Waypoints(t *testing.T) {
	data, err := GPX(waypointsInput())
	require.NoError(t, err)

	doc, err := gpx.ParseBytes(data)
	require.NoError(t, err)
	assert.Len(t, doc.Waypoints, 3)
	require.Len(t, doc.Routes, 1)
	assert.Len(t, doc.Routes[0].Points, 3)
}

func TestHexColor(t *testing.T) {
	r, g, b, a := hexColor("#ff4136", 1).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0x4141), g)
	assert.Equal(t, uint32(0x3636), b)
	assert.Equal(t, uint32(0xffff), a)
}
