package geometry

import (
	"github.com/dpup/xctsk-viewer/server/internal/lib/distance"
	"github.com/dpup/xctsk-viewer/server/internal/lib/geo"
	"github.com/dpup/xctsk-viewer/server/internal/lib/task"
)

// Collection is the ordered list of features making up a task map:
// turnpoints first, then route lines, then goal line decorations.
type Collection struct {
	Features []Feature
}

// Build converts a task and its distance tables into styled features.
// optimized may be nil when no optimized route is available.
func Build(t *task.Task, centers, optimized *distance.Table, g geo.Geodesy) *Collection {
	c := &Collection{Features: []Feature{}}
	if t == nil {
		return c
	}

	lineGoal := t.HasLineGoal()
	for i, tp := range t.Turnpoints {
		style := RoleStyle(tp.Role)
		isLineGoal := lineGoal && i == len(t.Turnpoints)-1
		if t.IsWaypoints() || tp.Radius <= 0 || isLineGoal {
			c.Features = append(c.Features, Marker{Turnpoint: tp, Style: style})
			continue
		}
		c.Features = append(c.Features, Cylinder{Turnpoint: tp, Style: style})
	}

	if line, ok := routeLine(centers, 0); ok {
		c.Features = append(c.Features, line)
	}
	if !t.IsWaypoints() {
		if line, ok := routeLine(optimized, ArrowSpacing); ok {
			c.Features = append(c.Features, line)
		}
	}

	if gl, ok := goalLine(t, g); ok {
		c.Features = append(c.Features, gl)
	}
	return c
}

func routeLine(table *distance.Table, arrowSpacing float64) (RouteLine, bool) {
	if table == nil || len(table.Points) < 2 {
		return RouteLine{}, false
	}
	path := make([]task.Coordinate, len(table.Points))
	copy(path, table.Points)
	return RouteLine{
		Mode:         table.Mode,
		Path:         path,
		Style:        ModeStyle(table.Mode),
		ArrowSpacing: arrowSpacing,
	}, true
}

// Cylinders returns the cylinder features in order
func (c *Collection) Cylinders() []Cylinder {
	var out []Cylinder
	for _, f := range c.Features {
		if cyl, ok := f.(Cylinder); ok {
			out = append(out, cyl)
		}
	}
	return out
}

// Markers returns the marker features in order
func (c *Collection) Markers() []Marker {
	var out []Marker
	for _, f := range c.Features {
		if m, ok := f.(Marker); ok {
			out = append(out, m)
		}
	}
	return out
}

// Routes returns the route line features in order
func (c *Collection) Routes() []RouteLine {
	var out []RouteLine
	for _, f := range c.Features {
		if r, ok := f.(RouteLine); ok {
			out = append(out, r)
		}
	}
	return out
}

// Route returns the route line for a mode, if present
func (c *Collection) Route(mode distance.RouteMode) (RouteLine, bool) {
	for _, r := range c.Routes() {
		if r.Mode == mode {
			return r, true
		}
	}
	return RouteLine{}, false
}

// GoalLine returns the goal line feature, if present
func (c *Collection) GoalLine() (GoalLine, bool) {
	for _, f := range c.Features {
		if gl, ok := f.(GoalLine); ok {
			return gl, true
		}
	}
	return GoalLine{}, false
}
