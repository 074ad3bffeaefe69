package distance

import (
	"errors"
	"fmt"

	"github.com/dpup/xctsk-viewer/server/internal/lib/geo"
	"github.com/dpup/xctsk-viewer/server/internal/lib/task"
)

// ErrEntryPointMismatch is returned when an optimized route does not supply
// exactly one entry point per turnpoint
var ErrEntryPointMismatch = errors.New("optimized entry points do not match turnpoints")

// RouteMode selects how consecutive turnpoints are connected
type RouteMode string

const (
	ThroughCenters RouteMode = "through_centers"
	Optimized      RouteMode = "optimized"
)

// Table holds cumulative distances in meters from the first turnpoint, one
// entry per turnpoint, along the route points of a mode
type Table struct {
	Mode       RouteMode         `json:"mode"`
	Points     []task.Coordinate `json:"points"`
	Cumulative []float64         `json:"cumulative"`
}

// Total returns the cumulative distance at the last turnpoint
func (t *Table) Total() float64 {
	if t == nil || len(t.Cumulative) == 0 {
		return 0
	}
	return t.Cumulative[len(t.Cumulative)-1]
}

// Leg returns the distance between turnpoint i-1 and i (0-based), 0 for the first
func (t *Table) Leg(i int) float64 {
	if t == nil || i <= 0 || i >= len(t.Cumulative) {
		return 0
	}
	return t.Cumulative[i] - t.Cumulative[i-1]
}

// CenterTable accumulates distances between turnpoint centers
func CenterTable(turnpoints []task.Turnpoint, g geo.Geodesy) *Table {
	points := make([]task.Coordinate, len(turnpoints))
	for i, tp := range turnpoints {
		points[i] = tp.Coordinate
	}
	return accumulate(ThroughCenters, points, g)
}

// OptimizedTable accumulates distances along the optimized entry points
// supplied by the route optimizer. The entry point list must have one
// coordinate per turnpoint.
func OptimizedTable(turnpoints []task.Turnpoint, entryPoints []task.Coordinate, g geo.Geodesy) (*Table, error) {
	if len(entryPoints) != len(turnpoints) {
		return nil, fmt.Errorf("%w: %d entry points for %d turnpoints", ErrEntryPointMismatch, len(entryPoints), len(turnpoints))
	}
	points := make([]task.Coordinate, len(entryPoints))
	copy(points, entryPoints)
	return accumulate(Optimized, points, g), nil
}

// accumulate sums consecutive segment distances; the first entry is always 0
// and duplicate consecutive coordinates add zero-length segments.
func accumulate(mode RouteMode, points []task.Coordinate, g geo.Geodesy) *Table {
	cumulative := make([]float64, len(points))
	for i := 1; i < len(points); i++ {
		cumulative[i] = cumulative[i-1] + g.Distance(points[i-1], points[i])
	}
	return &Table{Mode: mode, Points: points, Cumulative: cumulative}
}
