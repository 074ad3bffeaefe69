package task

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidTask is returned for structurally impossible turnpoint sequences
var ErrInvalidTask = errors.New("invalid task")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTask, fmt.Sprintf(format, args...))
}

// IsWaypoints reports whether the task is a route-only task
func (t *Task) IsWaypoints() bool {
	return t.Type == Waypoints
}

// Model returns the earth model the task should be measured on. Waypoints
// tasks always use the FAI sphere, competition tasks default to WGS84.
func (t *Task) Model() EarthModel {
	if t.IsWaypoints() {
		return FAISphere
	}
	if t.EarthModel == "" {
		return WGS84
	}
	return t.EarthModel
}

// Coordinates returns the turnpoint centers in task order
func (t *Task) Coordinates() []Coordinate {
	coords := make([]Coordinate, len(t.Turnpoints))
	for i, tp := range t.Turnpoints {
		coords[i] = tp.Coordinate
	}
	return coords
}

// HasLineGoal reports whether the last turnpoint is rendered and scored as a goal line
func (t *Task) HasLineGoal() bool {
	return !t.IsWaypoints() && t.Goal != nil && t.Goal.Type == GoalLine && len(t.Turnpoints) >= 2
}

// GoalApproach returns the closest turnpoint before the goal whose center
// differs from the goal's, which fixes the direction of a goal line
func (t *Task) GoalApproach() (Turnpoint, bool) {
	if len(t.Turnpoints) < 2 {
		return Turnpoint{}, false
	}
	last := t.Turnpoints[len(t.Turnpoints)-1]
	for i := len(t.Turnpoints) - 2; i >= 0; i-- {
		if !t.Turnpoints[i].Coordinate.Equal(last.Coordinate) {
			return t.Turnpoints[i], true
		}
	}
	return Turnpoint{}, false
}

// GoalLineLength returns the goal line length in meters, defaulting to the
// goal cylinder's diameter
func (t *Task) GoalLineLength() float64 {
	if t.Goal != nil && t.Goal.LineLength > 0 {
		return t.Goal.LineLength
	}
	if len(t.Turnpoints) == 0 {
		return 0
	}
	return 2 * t.Turnpoints[len(t.Turnpoints)-1].Radius
}

// FindRole returns the first turnpoint with the given role
func (t *Task) FindRole(role Role) (Turnpoint, bool) {
	for _, tp := range t.Turnpoints {
		if tp.Role == role {
			return tp, true
		}
	}
	return Turnpoint{}, false
}

// Validate checks the turnpoint sequence. Roles must be monotonic: at most
// one takeoff (first), at most one SSS, at most one ESS that does not
// precede the SSS, and a goal only in last position.
func (t *Task) Validate() error {
	if t == nil || len(t.Turnpoints) == 0 {
		return invalid("task has no turnpoints")
	}

	sssIndex, essIndex := -1, -1
	for i, tp := range t.Turnpoints {
		if tp.Index != i+1 {
			return invalid("turnpoint %q has index %d, expected %d", tp.Name, tp.Index, i+1)
		}
		if !tp.Coordinate.Valid() {
			return invalid("turnpoint %d (%s) has invalid coordinates %.6f,%.6f", tp.Index, tp.Name, tp.Coordinate.Lat, tp.Coordinate.Lon)
		}
		if tp.Radius < 0 || math.IsNaN(tp.Radius) || math.IsInf(tp.Radius, 0) {
			return invalid("turnpoint %d (%s) has invalid radius %v", tp.Index, tp.Name, tp.Radius)
		}

		switch tp.Role {
		case RoleTakeoff:
			if i != 0 {
				return invalid("takeoff must be the first turnpoint, found at %d", tp.Index)
			}
		case RoleSSS:
			if sssIndex >= 0 {
				return invalid("more than one start of speed section")
			}
			sssIndex = i
		case RoleESS:
			if essIndex >= 0 {
				return invalid("more than one end of speed section")
			}
			if sssIndex < 0 && t.hasRoleAfter(RoleSSS, i) {
				return invalid("end of speed section precedes start of speed section")
			}
			essIndex = i
		case RoleGoal:
			if i != len(t.Turnpoints)-1 {
				return invalid("goal must be the last turnpoint, found at %d", tp.Index)
			}
		case RoleOrdinary, "":
		default:
			return invalid("turnpoint %d has unknown role %q", tp.Index, tp.Role)
		}
	}

	if t.IsWaypoints() && (sssIndex >= 0 || essIndex >= 0) {
		return invalid("waypoints task cannot define a speed section")
	}
	return nil
}

func (t *Task) hasRoleAfter(role Role, index int) bool {
	for _, tp := range t.Turnpoints[index+1:] {
		if tp.Role == role {
			return true
		}
	}
	return false
}
