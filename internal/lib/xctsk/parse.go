// Package xctsk reads and writes XCTrack task documents: the version 1 JSON
// file format, the compact version 2 "XCTSK:" encoding and QR code images
// carrying the compact encoding.
package xctsk

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	polyline "github.com/twpayne/go-polyline"

	"github.com/dpup/xctsk-viewer/server/internal/lib/sharecode"
	"github.com/dpup/xctsk-viewer/server/internal/lib/task"
)

var (
	// ErrEmptyInput is returned when there is nothing to parse
	ErrEmptyInput = errors.New("empty input")

	// ErrInvalidFormat is returned when input is not a recognizable task document
	ErrInvalidFormat = errors.New("invalid task format")
)

// Radius used for compact turnpoints that do not carry one
const defaultRadius = 1000

// Parse reads a task from a version 1 JSON document, a compact XCTSK: string
// (or its bare JSON body) or a PNG/JPEG image holding an XCTSK: QR code.
func Parse(data []byte) (*task.Task, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrEmptyInput
	}

	switch {
	case bytes.HasPrefix(trimmed, []byte(Scheme)):
		return decodeCompact(trimmed[len(Scheme):])
	case trimmed[0] == '{':
		var p layout
		if err := json.Unmarshal(trimmed, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		if len(p.Turnpoints) == 0 && len(p.T) > 0 {
			return decodeCompact(trimmed)
		}
		return decodeDocument(trimmed)
	}
	return ParseImage(data)
}

// ParseImage reads a task from an image holding an XCTSK: QR code
func ParseImage(data []byte) (*task.Task, error) {
	text, err := sharecode.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if !strings.HasPrefix(text, Scheme) {
		return nil, fmt.Errorf("%w: QR code does not contain a task", ErrInvalidFormat)
	}
	return decodeCompact([]byte(text[len(Scheme):]))
}

func formatError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidFormat, fmt.Sprintf(format, args...))
}

func decodeDocument(data []byte) (*task.Task, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	t := &task.Task{Version: doc.Version}
	var err error
	if t.Type, err = parseTaskType(doc.TaskType); err != nil {
		return nil, err
	}
	switch task.EarthModel(doc.EarthModel) {
	case "", task.WGS84, task.FAISphere:
		t.EarthModel = task.EarthModel(doc.EarthModel)
	default:
		return nil, formatError("unknown earth model %q", doc.EarthModel)
	}

	for _, tp := range doc.Turnpoints {
		role, err := parseRole(tp.Type)
		if err != nil {
			return nil, err
		}
		t.Turnpoints = append(t.Turnpoints, task.Turnpoint{
			Name:        tp.Waypoint.Name,
			Description: tp.Waypoint.Description,
			Coordinate: task.Coordinate{
				Lat: tp.Waypoint.Lat,
				Lon: tp.Waypoint.Lon,
				Alt: tp.Waypoint.AltSmoothed,
			},
			Radius: tp.Radius,
			Role:   role,
		})
	}

	if doc.Takeoff != nil {
		t.Takeoff = &task.Takeoff{}
		if t.Takeoff.TimeOpen, err = parseOptionalTime(doc.Takeoff.TimeOpen); err != nil {
			return nil, err
		}
		if t.Takeoff.TimeClose, err = parseOptionalTime(doc.Takeoff.TimeClose); err != nil {
			return nil, err
		}
	}

	if doc.SSS != nil {
		sss := &task.SSS{Type: task.SSSType(doc.SSS.Type), Direction: task.Direction(doc.SSS.Direction)}
		if sss.Type != task.SSSRace && sss.Type != task.SSSElapsedTime {
			return nil, formatError("unknown start type %q", doc.SSS.Type)
		}
		if sss.Direction != task.Enter && sss.Direction != task.Exit {
			return nil, formatError("unknown start direction %q", doc.SSS.Direction)
		}
		if sss.TimeGates, err = parseTimes(doc.SSS.TimeGates); err != nil {
			return nil, err
		}
		if sss.TimeClose, err = parseOptionalTime(doc.SSS.TimeClose); err != nil {
			return nil, err
		}
		t.SSS = sss
	}

	if doc.Goal != nil {
		goal := &task.Goal{Type: task.GoalType(doc.Goal.Type)}
		switch goal.Type {
		case "", task.GoalCylinder, task.GoalLine:
		default:
			return nil, formatError("unknown goal type %q", doc.Goal.Type)
		}
		if goal.Deadline, err = parseOptionalTime(doc.Goal.Deadline); err != nil {
			return nil, err
		}
		if doc.Goal.LineLength != nil {
			goal.LineLength = *doc.Goal.LineLength
		}
		t.Goal = goal
	}

	return finalize(t)
}

func decodeCompact(data []byte) (*task.Task, error) {
	var doc qrDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	t := &task.Task{Version: doc.Version}
	var err error
	if t.Type, err = parseTaskType(doc.TaskType); err != nil {
		return nil, err
	}
	if doc.EarthModel != nil {
		switch *doc.EarthModel {
		case qrEarthWGS84:
			t.EarthModel = task.WGS84
		case qrEarthFAISphere:
			t.EarthModel = task.FAISphere
		default:
			return nil, formatError("unknown earth model %d", *doc.EarthModel)
		}
	}

	for i, qtp := range doc.Turnpoints {
		tp := task.Turnpoint{Name: qtp.Name, Description: qtp.Description, Radius: defaultRadius}
		switch qtp.Type {
		case qrTypeNone:
			tp.Role = task.RoleOrdinary
		case qrTypeTakeoff:
			tp.Role = task.RoleTakeoff
		case qrTypeSSS:
			tp.Role = task.RoleSSS
		case qrTypeESS:
			tp.Role = task.RoleESS
		default:
			return nil, formatError("turnpoint %d has unknown type %d", i+1, qtp.Type)
		}

		if qtp.X != nil && qtp.Y != nil {
			tp.Coordinate = task.Coordinate{Lat: *qtp.Y, Lon: *qtp.X}
			if qtp.A != nil {
				tp.Coordinate.Alt = *qtp.A
			}
			if qtp.R != nil {
				tp.Radius = *qtp.R
			}
		} else if qtp.Z != "" {
			if tp.Coordinate, tp.Radius, err = decodeZ(qtp.Z); err != nil {
				return nil, formatError("turnpoint %d: %v", i+1, err)
			}
		} else {
			return nil, formatError("turnpoint %d has no coordinates", i+1)
		}
		t.Turnpoints = append(t.Turnpoints, tp)
	}

	if doc.TakeoffOpen != "" || doc.TakeoffClose != "" {
		t.Takeoff = &task.Takeoff{}
		if t.Takeoff.TimeOpen, err = parseOptionalTime(doc.TakeoffOpen); err != nil {
			return nil, err
		}
		if t.Takeoff.TimeClose, err = parseOptionalTime(doc.TakeoffClose); err != nil {
			return nil, err
		}
	}

	if doc.SSS != nil {
		sss := &task.SSS{Type: task.SSSRace, Direction: task.Enter}
		if doc.SSS.Type == qrSSSElapsed {
			sss.Type = task.SSSElapsedTime
		}
		if doc.SSS.Direction == qrDirectionExit {
			sss.Direction = task.Exit
		}
		if sss.TimeGates, err = parseTimes(doc.SSS.Gates); err != nil {
			return nil, err
		}
		t.SSS = sss
	}

	if doc.Goal != nil {
		goal := &task.Goal{}
		switch doc.Goal.Type {
		case 0:
		case qrGoalLine:
			goal.Type = task.GoalLine
		case qrGoalCylinder:
			goal.Type = task.GoalCylinder
		default:
			return nil, formatError("unknown goal type %d", doc.Goal.Type)
		}
		if goal.Deadline, err = parseOptionalTime(doc.Goal.Deadline); err != nil {
			return nil, err
		}
		t.Goal = goal
	}

	return finalize(t)
}

// finalize numbers turnpoints, derives the goal role and goal defaults and
// validates the result.
func finalize(t *task.Task) (*task.Task, error) {
	for i := range t.Turnpoints {
		t.Turnpoints[i].Index = i + 1
	}

	if t.IsWaypoints() {
		for i := range t.Turnpoints {
			if t.Turnpoints[i].Role != task.RoleTakeoff {
				t.Turnpoints[i].Role = task.RoleOrdinary
			}
		}
		t.SSS = nil
		t.Goal = nil
	} else if n := len(t.Turnpoints); n > 0 {
		last := &t.Turnpoints[n-1]
		if n > 1 && (last.Role == task.RoleOrdinary || last.Role == "") {
			last.Role = task.RoleGoal
		}
		if t.Goal == nil {
			t.Goal = &task.Goal{}
		}
		if t.Goal.Type == "" {
			t.Goal.Type = task.GoalCylinder
		}
		if t.Goal.Type == task.GoalLine && t.Goal.LineLength <= 0 {
			t.Goal.LineLength = 2 * last.Radius
		}
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func parseTaskType(s string) (task.TaskType, error) {
	switch s {
	case "CLASSIC", "":
		return task.Classic, nil
	case "W", "WAYPOINTS":
		return task.Waypoints, nil
	}
	return "", formatError("unknown task type %q", s)
}

func parseRole(s string) (task.Role, error) {
	switch task.Role(s) {
	case "", task.RoleOrdinary:
		return task.RoleOrdinary, nil
	case task.RoleTakeoff, task.RoleSSS, task.RoleESS:
		return task.Role(s), nil
	}
	return "", formatError("unknown turnpoint type %q", s)
}

// parseTime reads an "HH:MM:SSZ" time of day, tolerating surrounding quotes
func parseTime(s string) (task.TimeOfDay, error) {
	s = strings.Trim(s, `"`)
	ts, err := time.Parse("15:04:05Z", s)
	if err != nil {
		return task.TimeOfDay{}, formatError("invalid time %q", s)
	}
	return task.TimeOfDay{Hour: ts.Hour(), Minute: ts.Minute(), Second: ts.Second()}, nil
}

func parseOptionalTime(s string) (*task.TimeOfDay, error) {
	if s == "" {
		return nil, nil
	}
	tod, err := parseTime(s)
	if err != nil {
		return nil, err
	}
	return &tod, nil
}

func parseTimes(in []string) ([]task.TimeOfDay, error) {
	var out []task.TimeOfDay
	for _, s := range in {
		tod, err := parseTime(s)
		if err != nil {
			return nil, err
		}
		out = append(out, tod)
	}
	return out, nil
}

// decodeZ reads the polyline encoded lon, lat, altitude and radius of a
// compact turnpoint
func decodeZ(z string) (task.Coordinate, float64, error) {
	buf := []byte(z)
	var vals []int
	for len(buf) > 0 && len(vals) < 4 {
		v, rest, err := polyline.DecodeInt(buf)
		if err != nil {
			return task.Coordinate{}, 0, fmt.Errorf("bad polyline %q: %w", z, err)
		}
		vals = append(vals, v)
		buf = rest
	}
	if len(vals) < 2 {
		return task.Coordinate{}, 0, fmt.Errorf("polyline %q holds %d values, need at least 2", z, len(vals))
	}

	c := task.Coordinate{Lon: float64(vals[0]) / 1e5, Lat: float64(vals[1]) / 1e5}
	radius := float64(defaultRadius)
	if len(vals) > 2 {
		c.Alt = float64(vals[2])
	}
	if len(vals) > 3 {
		radius = float64(vals[3])
	}
	return c, radius, nil
}

// encodeZ is the inverse of decodeZ
func encodeZ(c task.Coordinate, radius float64) string {
	var buf []byte
	buf = polyline.EncodeInt(buf, int(math.Round(c.Lon*1e5)))
	buf = polyline.EncodeInt(buf, int(math.Round(c.Lat*1e5)))
	buf = polyline.EncodeInt(buf, int(math.Round(c.Alt)))
	buf = polyline.EncodeInt(buf, int(math.Round(radius)))
	return string(buf)
}
