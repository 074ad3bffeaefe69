package geometry

import (
	"github.com/dpup/xctsk-viewer/server/internal/lib/distance"
	"github.com/dpup/xctsk-viewer/server/internal/lib/task"
)

// ArrowSpacing is the distance in meters between direction arrows drawn on
// the optimized route
const ArrowSpacing = 100.0

// ArrowSize is the arrow head size in pixels
const ArrowSize = 8

var roleStyles = map[task.Role]Style{
	task.RoleOrdinary: {Stroke: "#269abc", Fill: "#269abc", Opacity: 0.7, FillOpacity: 0.1, Weight: 2},
	task.RoleTakeoff:  {Stroke: "#204d74", Fill: "#204d74", Opacity: 0.7, FillOpacity: 0.1, Weight: 2},
	task.RoleSSS:      {Stroke: "#ac2925", Fill: "#ac2925", Opacity: 0.7, FillOpacity: 0.1, Weight: 2},
	task.RoleESS:      {Stroke: "#ac2925", Fill: "#ac2925", Opacity: 0.7, FillOpacity: 0.1, Weight: 2},
	task.RoleGoal:     {Stroke: "#398439", Fill: "#398439", Opacity: 0.7, FillOpacity: 0.1, Weight: 2},
}

var modeStyles = map[distance.RouteMode]Style{
	distance.ThroughCenters: {Stroke: "#0074d9", Opacity: 0.6, Weight: 2, DashArray: "6 6"},
	distance.Optimized:      {Stroke: "#ff4136", Opacity: 0.8, Weight: 3},
}

var (
	goalLineStyle = Style{Stroke: "#00ff00", Opacity: 1.0, Weight: 4}
	goalZoneStyle = Style{Stroke: "#00bcd4", Fill: "#4ecdc4", Opacity: 0.8, FillOpacity: 0.3, Weight: 2}
)

// RoleStyle returns the style for turnpoints with the given role
func RoleStyle(role task.Role) Style {
	if s, ok := roleStyles[role]; ok {
		return s
	}
	return roleStyles[task.RoleOrdinary]
}

// ModeStyle returns the style for route lines of the given mode
func ModeStyle(mode distance.RouteMode) Style {
	return modeStyles[mode]
}

// ModeName returns the display name of a route mode
func ModeName(mode distance.RouteMode) string {
	if mode == distance.Optimized {
		return "Optimized Route"
	}
	return "Route Through Centers"
}

// GoalLineStyles returns the styles of the goal line and its control zone
func GoalLineStyles() (line, zone Style) {
	return goalLineStyle, goalZoneStyle
}
