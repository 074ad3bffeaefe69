package services

import (
	"github.com/dpup/xctsk-viewer/server/internal/lib/distance"
	"github.com/dpup/xctsk-viewer/server/internal/lib/task"
)

// TurnpointRow is one line of the turnpoint display table. Distances are
// cumulative meters from the first turnpoint; legs are meters from the
// previous turnpoint.
type TurnpointRow struct {
	Index             int      `json:"index"`
	Name              string   `json:"name"`
	Description       string   `json:"description,omitempty"`
	Lat               float64  `json:"lat"`
	Lon               float64  `json:"lon"`
	Altitude          float64  `json:"altitude"`
	Radius            float64  `json:"radius"`
	Role              string   `json:"role"`
	RoleLabel         string   `json:"role_label"`
	CenterDistance    float64  `json:"center_distance"`
	CenterLeg         float64  `json:"center_leg"`
	OptimizedDistance *float64 `json:"optimized_distance,omitempty"`
	OptimizedLeg      *float64 `json:"optimized_leg,omitempty"`
}

// Metadata summarises a task for display. Times are "HH:MM:SSZ" strings.
type Metadata struct {
	Name              string   `json:"name,omitempty"`
	TaskType          string   `json:"task_type"`
	EarthModel        string   `json:"earth_model"`
	TurnpointCount    int      `json:"turnpoint_count"`
	CenterDistance    float64  `json:"center_distance"`
	OptimizedDistance *float64 `json:"optimized_distance,omitempty"`
	Savings           *float64 `json:"savings,omitempty"`
	SavingsPercent    *float64 `json:"savings_percent,omitempty"`
	TakeoffOpen       string   `json:"takeoff_open,omitempty"`
	TakeoffClose      string   `json:"takeoff_close,omitempty"`
	SSSType           string   `json:"sss_type,omitempty"`
	SSSDirection      string   `json:"sss_direction,omitempty"`
	SSSFirstGate      string   `json:"sss_first_gate,omitempty"`
	SSSTimeGates      []string `json:"sss_time_gates,omitempty"`
	GoalType          string   `json:"goal_type,omitempty"`
	GoalDeadline      string   `json:"goal_deadline,omitempty"`
	GoalLineLength    float64  `json:"goal_line_length,omitempty"`
}

func buildRows(t *task.Task, centers, optimized *distance.Table) []TurnpointRow {
	rows := make([]TurnpointRow, len(t.Turnpoints))
	for i, tp := range t.Turnpoints {
		rows[i] = TurnpointRow{
			Index:          tp.Index,
			Name:           tp.Name,
			Description:    tp.Description,
			Lat:            tp.Coordinate.Lat,
			Lon:            tp.Coordinate.Lon,
			Altitude:       tp.Coordinate.Alt,
			Radius:         tp.Radius,
			Role:           tp.Role.String(),
			RoleLabel:      tp.Role.Label(),
			CenterDistance: centers.Cumulative[i],
			CenterLeg:      centers.Leg(i),
		}
		if optimized != nil {
			d, leg := optimized.Cumulative[i], optimized.Leg(i)
			rows[i].OptimizedDistance = &d
			rows[i].OptimizedLeg = &leg
		}
	}
	return rows
}

func buildMetadata(t *task.Task, centers, optimized *distance.Table) Metadata {
	m := Metadata{
		Name:           t.Name,
		TaskType:       string(t.Type),
		EarthModel:     string(t.Model()),
		TurnpointCount: len(t.Turnpoints),
		CenterDistance: centers.Total(),
	}

	if optimized != nil {
		total := optimized.Total()
		savings := m.CenterDistance - total
		m.OptimizedDistance = &total
		m.Savings = &savings
		if m.CenterDistance > 0 {
			pct := savings / m.CenterDistance * 100
			m.SavingsPercent = &pct
		}
	}

	if t.Takeoff != nil {
		m.TakeoffOpen = timeString(t.Takeoff.TimeOpen)
		m.TakeoffClose = timeString(t.Takeoff.TimeClose)
	}
	if t.SSS != nil {
		m.SSSType = string(t.SSS.Type)
		m.SSSDirection = string(t.SSS.Direction)
		for _, gate := range t.SSS.TimeGates {
			m.SSSTimeGates = append(m.SSSTimeGates, gate.String())
		}
		if len(m.SSSTimeGates) > 0 {
			m.SSSFirstGate = m.SSSTimeGates[0]
		}
	}
	if t.Goal != nil {
		m.GoalType = string(t.Goal.Type)
		m.GoalDeadline = timeString(t.Goal.Deadline)
		if t.Goal.Type == task.GoalLine {
			m.GoalLineLength = t.Goal.LineLength
		}
	}
	return m
}

func timeString(t *task.TimeOfDay) string {
	if t == nil {
		return ""
	}
	return t.String()
}
