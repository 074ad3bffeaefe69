package geometry

import (
	"github.com/dpup/xctsk-viewer/server/internal/lib/distance"
	"github.com/dpup/xctsk-viewer/server/internal/lib/task"
)

// Kind identifies the variant of a Feature
type Kind string

const (
	KindCylinder Kind = "cylinder"
	KindMarker   Kind = "marker"
	KindRoute    Kind = "route"
	KindGoalLine Kind = "goal_line"
)

// Style is the rendering record attached to every feature
type Style struct {
	Stroke      string  `json:"color"`
	Fill        string  `json:"fillColor,omitempty"`
	Opacity     float64 `json:"opacity"`
	FillOpacity float64 `json:"fillOpacity,omitempty"`
	Weight      float64 `json:"weight"`
	DashArray   string  `json:"dashArray,omitempty"`
}

// Feature is one renderable element of a task map
type Feature interface {
	Kind() Kind
	isFeature()
}

// Cylinder is a turnpoint drawn with its activation radius
type Cylinder struct {
	Turnpoint task.Turnpoint
	Style     Style
}

// Marker is a turnpoint drawn as a labelled point (no radius to show)
type Marker struct {
	Turnpoint task.Turnpoint
	Style     Style
}

// RouteLine connects route points in task order
type RouteLine struct {
	Mode         distance.RouteMode
	Path         []task.Coordinate
	Style        Style
	ArrowSpacing float64 // meters between direction arrows, 0 for none
}

// GoalLine is the finish line of a LINE goal together with its
// semicircular control zone
type GoalLine struct {
	Turnpoint task.Turnpoint
	Length    float64
	Line      []task.Coordinate // two endpoints
	Zone      []task.Coordinate // closed ring
	Style     Style
	ZoneStyle Style
}

func (Cylinder) Kind() Kind  { return KindCylinder }
func (Marker) Kind() Kind    { return KindMarker }
func (RouteLine) Kind() Kind { return KindRoute }
func (GoalLine) Kind() Kind  { return KindGoalLine }

func (Cylinder) isFeature()  {}
func (Marker) isFeature()    {}
func (RouteLine) isFeature() {}
func (GoalLine) isFeature()  {}
