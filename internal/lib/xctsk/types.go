package xctsk

import "encoding/json"

// Scheme prefixes the compact task encoding carried in QR codes
const Scheme = "XCTSK:"

// QRVersion is the version of the compact encoding
const QRVersion = 2

// document is the XCTSK version 1 JSON file format
type document struct {
	TaskType   string          `json:"taskType"`
	Version    int             `json:"version"`
	EarthModel string          `json:"earthModel,omitempty"`
	Turnpoints []turnpointJSON `json:"turnpoints"`
	Takeoff    *takeoffJSON    `json:"takeoff,omitempty"`
	SSS        *sssJSON        `json:"sss,omitempty"`
	Goal       *goalJSON       `json:"goal,omitempty"`
}

type turnpointJSON struct {
	Type     string       `json:"type,omitempty"`
	Radius   float64      `json:"radius"`
	Waypoint waypointJSON `json:"waypoint"`
}

type waypointJSON struct {
	Name        string  `json:"name"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	AltSmoothed float64 `json:"altSmoothed"`
	Description string  `json:"description,omitempty"`
}

type takeoffJSON struct {
	TimeOpen  string `json:"timeOpen,omitempty"`
	TimeClose string `json:"timeClose,omitempty"`
}

type sssJSON struct {
	Type      string   `json:"type"`
	Direction string   `json:"direction"`
	TimeGates []string `json:"timeGates,omitempty"`
	TimeClose string   `json:"timeClose,omitempty"`
}

type goalJSON struct {
	Type       string   `json:"type,omitempty"`
	Deadline   string   `json:"deadline,omitempty"`
	LineLength *float64 `json:"lineLength,omitempty"`
}

// qrDocument is the compact version 2 encoding
type qrDocument struct {
	TaskType     string        `json:"taskType,omitempty"`
	Version      int           `json:"version"`
	EarthModel   *int          `json:"e,omitempty"`
	Turnpoints   []qrTurnpoint `json:"t"`
	TakeoffOpen  string        `json:"to,omitempty"`
	TakeoffClose string        `json:"tc,omitempty"`
	SSS          *qrSSS        `json:"s,omitempty"`
	Goal         *qrGoal       `json:"g,omitempty"`
}

// qrTurnpoint carries coordinates either polyline encoded in Z or as
// explicit fields
type qrTurnpoint struct {
	Name        string   `json:"n"`
	Description string   `json:"d,omitempty"`
	Type        int      `json:"t,omitempty"`
	Z           string   `json:"z,omitempty"`
	X           *float64 `json:"x,omitempty"`
	Y           *float64 `json:"y,omitempty"`
	A           *float64 `json:"a,omitempty"`
	R           *float64 `json:"r,omitempty"`
}

type qrSSS struct {
	Gates     []string `json:"g,omitempty"`
	Direction int      `json:"d"`
	Type      int      `json:"t"`
}

type qrGoal struct {
	Deadline string `json:"d,omitempty"`
	Type     int    `json:"t,omitempty"`
}

// Compact encoding enumerations
const (
	qrEarthWGS84     = 0
	qrEarthFAISphere = 1

	qrTypeNone    = 0
	qrTypeTakeoff = 1
	qrTypeSSS     = 2
	qrTypeESS     = 3

	qrDirectionEnter = 1
	qrDirectionExit  = 2

	qrSSSRace    = 1
	qrSSSElapsed = 2

	qrGoalLine     = 1
	qrGoalCylinder = 2
)

// layout is used to tell the two JSON layouts apart
type layout struct {
	Turnpoints json.RawMessage `json:"turnpoints"`
	T          json.RawMessage `json:"t"`
}
