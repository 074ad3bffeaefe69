package optimize

import (
	"errors"
	"fmt"
	"math"

	"github.com/dpup/xctsk-viewer/server/internal/lib/geo"
	"github.com/dpup/xctsk-viewer/server/internal/lib/task"
)

// ErrUnavailable is returned when no optimized route can be computed for a task
var ErrUnavailable = errors.New("optimized route unavailable")

const (
	// DefaultPasses is the number of refinement passes over the task
	DefaultPasses = 5
	// DefaultTolerance stops refinement once a pass improves the total by less (meters)
	DefaultTolerance = 0.1

	scanStep       = 10.0 // degrees between coarse azimuth samples
	azimuthEpsilon = 0.01 // golden-section termination width in degrees
	lineEpsilon    = 1e-6 // golden-section termination width along a goal line, as a fraction of its length
)

var invPhi = (math.Sqrt(5) - 1) / 2

// Route is an optimized route: one entry coordinate per turnpoint
type Route struct {
	Points   []task.Coordinate
	Distance float64 // meters
	Passes   int
}

// Optimizer finds the shortest route touching every turnpoint cylinder in order
type Optimizer struct {
	passes    int
	tolerance float64
}

// NewOptimizer creates an Optimizer with default refinement settings
func NewOptimizer() *Optimizer {
	return &Optimizer{passes: DefaultPasses, tolerance: DefaultTolerance}
}

// NewOptimizerWithConfig creates an Optimizer with explicit refinement settings
func NewOptimizerWithConfig(passes int, tolerance float64) *Optimizer {
	if passes < 1 {
		passes = 1
	}
	return &Optimizer{passes: passes, tolerance: tolerance}
}

// Optimize computes the optimized route for a competition task. The route
// starts at the first turnpoint's center; every later turnpoint contributes
// the point on its cylinder that minimizes the path to its neighbours, with
// each pass using the previous pass's choice for the next turnpoint as the
// look-ahead target. A goal line contributes its point closest to the
// previous entry point.
func (o *Optimizer) Optimize(t *task.Task, g geo.Geodesy) (Route, error) {
	if t == nil || t.IsWaypoints() {
		return Route{}, fmt.Errorf("%w: waypoints tasks have no cylinders", ErrUnavailable)
	}
	n := len(t.Turnpoints)
	if n < 2 {
		return Route{}, fmt.Errorf("%w: need at least 2 turnpoints, got %d", ErrUnavailable, n)
	}

	centers := t.Coordinates()
	points := make([]task.Coordinate, n)
	copy(points, centers)
	centerTotal := geo.PathLength(g, centers)

	total := math.Inf(1)
	passes := 0
	for passes < o.passes {
		passes++
		for i := 1; i < n; i++ {
			points[i] = o.stagePoint(t, g, i, points)
		}

		next := geo.PathLength(g, points)
		if math.IsNaN(next) || math.IsInf(next, 0) {
			return Route{}, fmt.Errorf("%w: non-finite route length", ErrUnavailable)
		}
		improved := total - next
		total = next
		if improved < o.tolerance {
			break
		}
	}

	// Centers always satisfy every cylinder, so never report a longer route.
	if total > centerTotal {
		copy(points, centers)
		total = centerTotal
	}

	return Route{Points: points, Distance: total, Passes: passes}, nil
}

// stagePoint picks the entry point for turnpoint i given the current route
func (o *Optimizer) stagePoint(t *task.Task, g geo.Geodesy, i int, points []task.Coordinate) task.Coordinate {
	tp := t.Turnpoints[i]
	last := i == len(t.Turnpoints)-1

	prev := points[i-1]
	if last && t.HasLineGoal() {
		approach, ok := t.GoalApproach()
		length := t.GoalLineLength()
		if !ok || length <= 0 {
			return tp.Coordinate
		}
		left, right := geo.LineEnds(g, approach.Coordinate, tp.Coordinate, length)
		return bestOnLine(g, left, right, prev)
	}

	if tp.Radius == 0 {
		return tp.Coordinate
	}

	if last {
		// Already inside the goal cylinder
		if g.Distance(tp.Coordinate, prev) <= tp.Radius {
			return prev
		}
		// Nearest point of the goal cylinder
		return g.Destination(tp.Coordinate, g.Bearing(tp.Coordinate, prev), tp.Radius)
	}

	return bestOnCircle(g, tp.Coordinate, tp.Radius, prev, points[i+1])
}

// bestOnLine returns the point of the segment from left to right closest to
// prev. Distance to prev is unimodal along the segment.
func bestOnLine(g geo.Geodesy, left, right, prev task.Coordinate) task.Coordinate {
	bearing := g.Bearing(left, right)
	length := g.Distance(left, right)
	at := func(f float64) task.Coordinate {
		return g.Destination(left, bearing, f*length)
	}
	cost := func(f float64) float64 {
		return g.Distance(prev, at(f))
	}

	f := goldenSection(cost, 0, 1, lineEpsilon)
	best, bestCost := f, cost(f)
	for _, end := range []float64{0, 1} {
		if c := cost(end); c < bestCost {
			best, bestCost = end, c
		}
	}
	if best == 0 {
		return left
	}
	if best == 1 {
		return right
	}
	return at(best)
}

// bestOnCircle minimizes d(prev, p) + d(p, next) over points p on the circle
func bestOnCircle(g geo.Geodesy, center task.Coordinate, radius float64, prev, next task.Coordinate) task.Coordinate {
	cost := func(azimuth float64) float64 {
		p := g.Destination(center, azimuth, radius)
		return g.Distance(prev, p) + g.Distance(p, next)
	}

	bestAz, bestCost := 0.0, math.Inf(1)
	for az := 0.0; az < 360; az += scanStep {
		if c := cost(az); c < bestCost {
			bestAz, bestCost = az, c
		}
	}

	az := goldenSection(cost, bestAz-scanStep, bestAz+scanStep, azimuthEpsilon)
	if cost(az) > bestCost {
		az = bestAz
	}
	return g.Destination(center, geo.NormalizeBearing(az), radius)
}

// goldenSection returns the midpoint of the bracket left once [lo, hi] has
// been narrowed below eps around a minimum of cost
func goldenSection(cost func(float64) float64, lo, hi, eps float64) float64 {
	x1 := hi - invPhi*(hi-lo)
	x2 := lo + invPhi*(hi-lo)
	f1, f2 := cost(x1), cost(x2)
	for hi-lo > eps {
		if f1 < f2 {
			hi, x2, f2 = x2, x1, f1
			x1 = hi - invPhi*(hi-lo)
			f1 = cost(x1)
		} else {
			lo, x1, f1 = x1, x2, f2
			x2 = lo + invPhi*(hi-lo)
			f2 = cost(x2)
		}
	}
	return (lo + hi) / 2
}
