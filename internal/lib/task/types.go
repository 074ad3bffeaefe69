package task

import "fmt"

// TaskType discriminates route-only tasks from full competition tasks
type TaskType string

const (
	Classic   TaskType = "CLASSIC" // competition task with cylinders, start and deadline
	Waypoints TaskType = "W"       // route-only task, radii are ignored
)

// EarthModel names the earth model a competition task is scored on
type EarthModel string

const (
	WGS84     EarthModel = "WGS84"
	FAISphere EarthModel = "FAI_SPHERE"
)

// Role tags a turnpoint with its part in the task
type Role string

const (
	RoleOrdinary Role = "TURNPOINT"
	RoleTakeoff  Role = "TAKEOFF"
	RoleSSS      Role = "SSS" // start of speed section
	RoleESS      Role = "ESS" // end of speed section
	RoleGoal     Role = "GOAL"
)

// String returns the role's wire name. The zero value is an ordinary turnpoint.
func (r Role) String() string {
	if r == "" {
		return string(RoleOrdinary)
	}
	return string(r)
}

// Label returns the human readable role name used in tables and exports
func (r Role) Label() string {
	switch r {
	case RoleTakeoff:
		return "Takeoff"
	case RoleSSS:
		return "SSS"
	case RoleESS:
		return "ESS"
	case RoleGoal:
		return "Goal"
	default:
		return "Turnpoint"
	}
}

// SSSType is the kind of race start
type SSSType string

const (
	SSSRace        SSSType = "RACE"
	SSSElapsedTime SSSType = "ELAPSED-TIME"
)

// Direction is the crossing direction of the start cylinder
type Direction string

const (
	Enter Direction = "ENTER"
	Exit  Direction = "EXIT"
)

// GoalType is the shape of the goal
type GoalType string

const (
	GoalCylinder GoalType = "CYLINDER"
	GoalLine     GoalType = "LINE"
)

// Coordinate is a WGS84 position in decimal degrees with optional altitude in meters
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	Alt float64 `json:"alt,omitempty"`
}

// Valid reports whether the coordinate is within latitude/longitude bounds
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Equal reports whether two coordinates share the same horizontal position
func (c Coordinate) Equal(o Coordinate) bool {
	return c.Lat == o.Lat && c.Lon == o.Lon
}

// Turnpoint is a named location with an activation radius
type Turnpoint struct {
	Index       int        `json:"index"` // 1-based position in the task
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Coordinate  Coordinate `json:"coordinate"`
	Radius      float64    `json:"radius"` // meters
	Role        Role       `json:"role"`
}

// TimeOfDay is a UTC time of day as used by XCTSK documents
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// String formats the time as HH:MM:SSZ
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02dZ", t.Hour, t.Minute, t.Second)
}

// Takeoff holds the takeoff window
type Takeoff struct {
	TimeOpen  *TimeOfDay
	TimeClose *TimeOfDay
}

// SSS holds the start of speed section configuration
type SSS struct {
	Type      SSSType
	Direction Direction
	TimeGates []TimeOfDay
	TimeClose *TimeOfDay
}

// Goal holds the goal configuration
type Goal struct {
	Type       GoalType
	Deadline   *TimeOfDay
	LineLength float64 // meters, only meaningful for LINE goals
}

// Task is a parsed XCTSK task
type Task struct {
	Name       string
	Type       TaskType
	Version    int
	EarthModel EarthModel
	Turnpoints []Turnpoint
	Takeoff    *Takeoff
	SSS        *SSS
	Goal       *Goal
}
