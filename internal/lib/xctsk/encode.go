package xctsk

import (
	"encoding/json"
	"fmt"

	"github.com/dpup/xctsk-viewer/server/internal/lib/task"
)

// EncodeQRString produces the compact XCTSK: string for a task, the payload
// XCTrack expects in a task QR code.
func EncodeQRString(t *task.Task) (string, error) {
	if t == nil || len(t.Turnpoints) == 0 {
		return "", fmt.Errorf("%w: task has no turnpoints", task.ErrInvalidTask)
	}

	doc := qrDocument{TaskType: string(task.Classic), Version: QRVersion}
	if t.IsWaypoints() {
		doc.TaskType = string(task.Waypoints)
	} else {
		e := qrEarthWGS84
		if t.Model() == task.FAISphere {
			e = qrEarthFAISphere
		}
		doc.EarthModel = &e
	}

	for _, tp := range t.Turnpoints {
		qtp := qrTurnpoint{
			Name:        tp.Name,
			Description: tp.Description,
			Z:           encodeZ(tp.Coordinate, tp.Radius),
		}
		switch tp.Role {
		case task.RoleTakeoff:
			qtp.Type = qrTypeTakeoff
		case task.RoleSSS:
			qtp.Type = qrTypeSSS
		case task.RoleESS:
			qtp.Type = qrTypeESS
		}
		doc.Turnpoints = append(doc.Turnpoints, qtp)
	}

	if t.Takeoff != nil {
		if t.Takeoff.TimeOpen != nil {
			doc.TakeoffOpen = t.Takeoff.TimeOpen.String()
		}
		if t.Takeoff.TimeClose != nil {
			doc.TakeoffClose = t.Takeoff.TimeClose.String()
		}
	}

	if !t.IsWaypoints() {
		if t.SSS != nil {
			sss := &qrSSS{Type: qrSSSRace, Direction: qrDirectionEnter}
			if t.SSS.Type == task.SSSElapsedTime {
				sss.Type = qrSSSElapsed
			}
			if t.SSS.Direction == task.Exit {
				sss.Direction = qrDirectionExit
			}
			for _, gate := range t.SSS.TimeGates {
				sss.Gates = append(sss.Gates, gate.String())
			}
			doc.SSS = sss
		}
		if t.Goal != nil {
			goal := &qrGoal{}
			switch t.Goal.Type {
			case task.GoalLine:
				goal.Type = qrGoalLine
			case task.GoalCylinder:
				goal.Type = qrGoalCylinder
			}
			if t.Goal.Deadline != nil {
				goal.Deadline = t.Goal.Deadline.String()
			}
			doc.Goal = goal
		}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode task: %w", err)
	}
	return Scheme + string(data), nil
}
