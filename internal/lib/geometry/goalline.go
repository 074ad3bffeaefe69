package geometry

import (
	"github.com/dpup/xctsk-viewer/server/internal/lib/geo"
	"github.com/dpup/xctsk-viewer/server/internal/lib/task"
)

// Number of arc segments used to draw the goal control zone
const zoneSegments = 20

// goalLine computes the goal line for the last turnpoint of t. The line is
// perpendicular to the approach bearing from the previous distinct turnpoint
// and the control zone is the half disc on the far side of the line. Returns
// false when no approach direction can be determined.
func goalLine(t *task.Task, g geo.Geodesy) (GoalLine, bool) {
	if !t.HasLineGoal() {
		return GoalLine{}, false
	}

	last := t.Turnpoints[len(t.Turnpoints)-1]
	prev, ok := t.GoalApproach()
	if !ok {
		return GoalLine{}, false
	}

	length := t.GoalLineLength()
	if length <= 0 {
		return GoalLine{}, false
	}
	half := length / 2

	forward := g.Bearing(prev.Coordinate, last.Coordinate)
	left, right := geo.LineEnds(g, prev.Coordinate, last.Coordinate, length)

	// Arc from the left end through the forward bearing to the right end
	zone := make([]task.Coordinate, 0, zoneSegments+2)
	for i := 0; i <= zoneSegments; i++ {
		bearing := forward - 90 + 180*float64(i)/zoneSegments
		zone = append(zone, g.Destination(last.Coordinate, geo.NormalizeBearing(bearing), half))
	}
	zone = append(zone, zone[0])

	lineStyle, zoneStyle := GoalLineStyles()
	return GoalLine{
		Turnpoint: last,
		Length:    length,
		Line:      []task.Coordinate{left, right},
		Zone:      zone,
		Style:     lineStyle,
		ZoneStyle: zoneStyle,
	}, true
}
