package geo

import (
	"math"

	"github.com/dpup/xctsk-viewer/server/internal/lib/task"
)

// FAIEarthRadius is the FAI sphere radius in meters
const FAIEarthRadius = 6371000

// sphere implements Geodesy on the FAI sphere
type sphere struct {
	radius float64
}

// NewSphere creates a Geodesy on the FAI mean-earth sphere
func NewSphere() Geodesy {
	return &sphere{radius: FAIEarthRadius}
}

func (s *sphere) Model() task.EarthModel {
	return task.FAISphere
}

// Distance calculates great-circle distance using the Haversine formula
func (s *sphere) Distance(a, b task.Coordinate) float64 {
	if a.Equal(b) {
		return 0
	}

	lat1, lon1 := radians(a.Lat), radians(a.Lon)
	lat2, lon2 := radians(b.Lat), radians(b.Lon)

	dlat := lat2 - lat1
	dlon := lon2 - lon1

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return s.radius * c
}

// Bearing calculates the initial great-circle bearing from a to b
func (s *sphere) Bearing(a, b task.Coordinate) float64 {
	if a.Equal(b) {
		return 0
	}

	lat1, lon1 := radians(a.Lat), radians(a.Lon)
	lat2, lon2 := radians(b.Lat), radians(b.Lon)

	y := math.Sin(lon2-lon1) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(lon2-lon1)

	return NormalizeBearing(degrees(math.Atan2(y, x)))
}

// Destination solves the direct problem on the sphere
func (s *sphere) Destination(a task.Coordinate, bearing, distance float64) task.Coordinate {
	if distance == 0 {
		return a
	}

	delta := distance / s.radius
	theta := radians(bearing)
	lat1, lon1 := radians(a.Lat), radians(a.Lon)

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(delta) + math.Cos(lat1)*math.Sin(delta)*math.Cos(theta))
	lon2 := lon1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(lat1),
		math.Cos(delta)-math.Sin(lat1)*math.Sin(lat2),
	)

	return task.Coordinate{Lat: degrees(lat2), Lon: NormalizeLongitude(degrees(lon2)), Alt: a.Alt}
}

// PathLength sums the segment distances of an ordered coordinate list
func PathLength(g Geodesy, path []task.Coordinate) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += g.Distance(path[i-1], path[i])
	}
	return total
}

// Circle approximates a cylinder as a closed ring of segments+1 coordinates,
// starting and ending due north of the center and running clockwise.
func Circle(g Geodesy, center task.Coordinate, radius float64, segments int) []task.Coordinate {
	if segments < 3 {
		segments = 3
	}
	ring := make([]task.Coordinate, 0, segments+1)
	for i := 0; i < segments; i++ {
		bearing := 360 * float64(i) / float64(segments)
		ring = append(ring, g.Destination(center, bearing, radius))
	}
	return append(ring, ring[0])
}

// LineEnds returns the endpoints of a line of the given length centered on
// center and perpendicular to the bearing from approach to center. left is
// on the left hand when travelling along that bearing.
func LineEnds(g Geodesy, approach, center task.Coordinate, length float64) (left, right task.Coordinate) {
	forward := g.Bearing(approach, center)
	left = g.Destination(center, NormalizeBearing(forward-90), length/2)
	right = g.Destination(center, NormalizeBearing(forward+90), length/2)
	return left, right
}

// NormalizeBearing maps any angle in degrees to [0, 360)
func NormalizeBearing(b float64) float64 {
	b = math.Mod(b, 360)
	if b < 0 {
		b += 360
	}
	return b
}

// NormalizeLongitude maps a longitude in degrees to [-180, 180]
func NormalizeLongitude(lon float64) float64 {
	if lon >= -180 && lon <= 180 {
		return lon
	}
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

func radians(d float64) float64 { return d * math.Pi / 180 }

func degrees(r float64) float64 { return r * 180 / math.Pi }
