package geo

import "github.com/dpup/xctsk-viewer/server/internal/lib/task"

// Geodesy defines distance and bearing calculations on a fixed earth model.
// Implementations are pure and total: identical points yield distance 0.
type Geodesy interface {
	// Distance between two coordinates in meters
	Distance(a, b task.Coordinate) float64

	// Initial bearing from a to b in degrees, normalized to [0, 360)
	Bearing(a, b task.Coordinate) float64

	// Destination reached travelling distance meters from a on the given bearing
	Destination(a task.Coordinate, bearing, distance float64) task.Coordinate

	// Model returns the earth model the implementation measures on
	Model() task.EarthModel
}

// ForModel returns the Geodesy for an earth model, defaulting to the FAI sphere
func ForModel(model task.EarthModel) Geodesy {
	if model == task.WGS84 {
		return NewEllipsoid()
	}
	return NewSphere()
}

// ForTask returns the Geodesy matching the task's declared earth model
func ForTask(t *task.Task) Geodesy {
	return ForModel(t.Model())
}
