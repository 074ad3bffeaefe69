package optimize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpup/xctsk-viewer/server/internal/lib/geo"
	"github.com/dpup/xctsk-viewer/server/internal/lib/task"
)

// straightTask lays out turnpoints due north of origin at the given cumulative distances
func straightTask(g geo.Geodesy, radii []float64, cumulative []float64) *task.Task {
	origin := task.Coordinate{Lat: 45, Lon: 6}
	t := &task.Task{Type: task.Classic, EarthModel: g.Model()}
	for i := range radii {
		t.Turnpoints = append(t.Turnpoints, task.Turnpoint{
			Index:      i + 1,
			Name:       "TP",
			Coordinate: g.Destination(origin, 0, cumulative[i]),
			Radius:     radii[i],
		})
	}
	return t
}

func TestOptimize_ShortcutsMiddleCylinder(t *testing.T) {
	g := geo.NewSphere()
	tk := straightTask(g, []float64{400, 2000, 400}, []float64{0, 10000, 22000})

	route, err := NewOptimizer().Optimize(tk, g)
	require.NoError(t, err)
	require.Len(t, route.Points, 3)

	centerTotal := geo.PathLength(g, tk.Coordinates())
	assert.InDelta(t, 22000, centerTotal, 1e-6)
	assert.Less(t, route.Distance, centerTotal)

	// A straight course only loses the goal radius
	assert.InDelta(t, 21600, route.Distance, 1)
	assert.Equal(t, tk.Turnpoints[0].Coordinate, route.Points[0], "route starts at the takeoff center")

	// Entry points lie on the cylinders
	assert.InDelta(t, 2000, g.Distance(tk.Turnpoints[1].Coordinate, route.Points[1]), 0.01)
	assert.InDelta(t, 400, g.Distance(tk.Turnpoints[2].Coordinate, route.Points[2]), 0.01)
}

func TestOptimize_DogLeg(t *testing.T) {
	g := geo.NewEllipsoid()
	tk := &task.Task{
		Type: task.Classic,
		Turnpoints: []task.Turnpoint{
			{Index: 1, Coordinate: task.Coordinate{Lat: 46.00, Lon: 7.00}, Radius: 400, Role: task.RoleTakeoff},
			{Index: 2, Coordinate: task.Coordinate{Lat: 46.10, Lon: 7.10}, Radius: 3000, Role: task.RoleSSS},
			{Index: 3, Coordinate: task.Coordinate{Lat: 46.00, Lon: 7.20}, Radius: 1000},
			{Index: 4, Coordinate: task.Coordinate{Lat: 46.15, Lon: 7.30}, Radius: 400, Role: task.RoleGoal},
		},
	}

	route, err := NewOptimizer().Optimize(tk, g)
	require.NoError(t, err)

	centerTotal := geo.PathLength(g, tk.Coordinates())
	assert.Less(t, route.Distance, centerTotal)
	assert.InDelta(t, geo.PathLength(g, route.Points), route.Distance, 1e-6)
	assert.GreaterOrEqual(t, route.Passes, 1)
	assert.LessOrEqual(t, route.Passes, DefaultPasses)
}

func TestOptimize_PointTurnpointsUseCenters(t *testing.T) {
	g := geo.NewSphere()
	tk := straightTask(g, []float64{0, 0, 0}, []float64{0, 5000, 9000})

	route, err := NewOptimizer().Optimize(tk, g)
	require.NoError(t, err)
	assert.Equal(t, tk.Coordinates(), route.Points)
	assert.InDelta(t, 9000, route.Distance, 1e-6)
}

func TestOptimize_StraightLineGoalCrossesAtCenter(t *testing.T) {
	g := geo.NewSphere()
	tk := straightTask(g, []float64{0, 200}, []float64{0, 5000})
	tk.Goal = &task.Goal{Type: task.GoalLine, LineLength: 400}

	route, err := NewOptimizer().Optimize(tk, g)
	require.NoError(t, err)
	assert.InDelta(t, 0, g.Distance(tk.Turnpoints[1].Coordinate, route.Points[1]), 0.01)
	assert.InDelta(t, 5000, route.Distance, 0.01)
}

func TestOptimize_OffsetLineGoal(t *testing.T) {
	g := geo.NewSphere()
	origin := task.Coordinate{Lat: 45, Lon: 6}
	turn := g.Destination(origin, 90, 20000)
	goal := g.Destination(turn, 0, 15000)
	tk := &task.Task{
		Type:       task.Classic,
		EarthModel: g.Model(),
		Goal:       &task.Goal{Type: task.GoalLine, LineLength: 2000},
		Turnpoints: []task.Turnpoint{
			{Index: 1, Coordinate: origin, Role: task.RoleTakeoff},
			{Index: 2, Coordinate: turn, Radius: 5000},
			{Index: 3, Coordinate: goal, Radius: 1000, Role: task.RoleGoal},
		},
	}
	left, right := geo.LineEnds(g, turn, goal, 2000)

	// Exhaustive search over the cylinder and the line
	var line []task.Coordinate
	for f := 0.0; f <= 1; f += 0.0025 {
		line = append(line, g.Destination(left, g.Bearing(left, right), f*2000))
	}
	best := math.Inf(1)
	for az := 0.0; az < 360; az += 0.05 {
		p := g.Destination(turn, az, 5000)
		leg := g.Distance(origin, p)
		for _, q := range line {
			best = math.Min(best, leg+g.Distance(p, q))
		}
	}

	route, err := NewOptimizer().Optimize(tk, g)
	require.NoError(t, err)
	assert.InDelta(t, best, route.Distance, 1)

	crossing := route.Points[2]
	assert.InDelta(t, 2000, g.Distance(left, crossing)+g.Distance(crossing, right), 0.01, "crossing lies on the goal line")
	assert.Greater(t, g.Distance(goal, crossing), 100.0, "offset approach does not cross at the center")

	viaCenter := g.Distance(origin, route.Points[1]) + g.Distance(route.Points[1], goal)
	assert.Less(t, route.Distance, viaCenter)
}

func TestOptimize_PreviousPointInsideGoal(t *testing.T) {
	g := geo.NewSphere()
	tk := straightTask(g, []float64{0, 0, 1000}, []float64{0, 10000, 10500})

	route, err := NewOptimizer().Optimize(tk, g)
	require.NoError(t, err)
	assert.InDelta(t, 10500, geo.PathLength(g, tk.Coordinates()), 1e-6)
	assert.InDelta(t, 10000, route.Distance, 0.01)
	assert.Equal(t, route.Points[1], route.Points[2])
}

func TestOptimize_Unavailable(t *testing.T) {
	g := geo.NewSphere()

	_, err := NewOptimizer().Optimize(&task.Task{Type: task.Waypoints, Turnpoints: make([]task.Turnpoint, 3)}, g)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = NewOptimizer().Optimize(straightTask(g, []float64{400}, []float64{0}), g)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = NewOptimizer().Optimize(nil, g)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestOptimize_Deterministic(t *testing.T) {
	g := geo.NewEllipsoid()
	tk := straightTask(g, []float64{400, 2000, 1500, 400}, []float64{0, 8000, 15000, 30000})

	first, err := NewOptimizer().Optimize(tk, g)
	require.NoError(t, err)
	second, err := NewOptimizer().Optimize(tk, g)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNewOptimizerWithConfig(t *testing.T) {
	o := NewOptimizerWithConfig(0, 1)
	assert.Equal(t, 1, o.passes)
}
