package geo

import (
	"github.com/tidwall/geodesic"

	"github.com/dpup/xctsk-viewer/server/internal/lib/task"
)

// ellipsoid implements Geodesy on the WGS84 ellipsoid using Karney's geodesics
type ellipsoid struct {
	e *geodesic.Ellipsoid
}

// NewEllipsoid creates a Geodesy on the WGS84 ellipsoid
func NewEllipsoid() Geodesy {
	return &ellipsoid{e: geodesic.WGS84}
}

func (w *ellipsoid) Model() task.EarthModel {
	return task.WGS84
}

func (w *ellipsoid) Distance(a, b task.Coordinate) float64 {
	if a.Equal(b) {
		return 0
	}
	var s12 float64
	w.e.Inverse(a.Lat, a.Lon, b.Lat, b.Lon, &s12, nil, nil)
	return s12
}

func (w *ellipsoid) Bearing(a, b task.Coordinate) float64 {
	if a.Equal(b) {
		return 0
	}
	var azi1 float64
	w.e.Inverse(a.Lat, a.Lon, b.Lat, b.Lon, nil, &azi1, nil)
	return NormalizeBearing(azi1)
}

func (w *ellipsoid) Destination(a task.Coordinate, bearing, distance float64) task.Coordinate {
	if distance == 0 {
		return a
	}
	var lat2, lon2 float64
	w.e.Direct(a.Lat, a.Lon, bearing, distance, &lat2, &lon2, nil)
	return task.Coordinate{Lat: lat2, Lon: NormalizeLongitude(lon2), Alt: a.Alt}
}
