package services

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dpup/xctsk-viewer/server/internal/config"
	"github.com/dpup/xctsk-viewer/server/internal/lib/distance"
	"github.com/dpup/xctsk-viewer/server/internal/lib/export"
	"github.com/dpup/xctsk-viewer/server/internal/lib/geo"
	"github.com/dpup/xctsk-viewer/server/internal/lib/optimize"
	"github.com/dpup/xctsk-viewer/server/internal/lib/sharecode"
	"github.com/dpup/xctsk-viewer/server/internal/lib/task"
	"github.com/dpup/xctsk-viewer/server/internal/lib/xctsk"
)

// MockProvider is a mock implementation of TaskModelProvider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) ParseTask(data []byte) (*task.Task, error) {
	args := m.Called(data)
	t, _ := args.Get(0).(*task.Task)
	return t, args.Error(1)
}

func (m *MockProvider) OptimizeRoute(t *task.Task, g geo.Geodesy) ([]task.Coordinate, error) {
	args := m.Called(t, g)
	points, _ := args.Get(0).([]task.Coordinate)
	return points, args.Error(1)
}

// straightTask lays turnpoints due north on the FAI sphere at the given
// cumulative distances
func straightTask(radii, cumulative []float64) (*task.Task, geo.Geodesy) {
	g := geo.NewSphere()
	origin := task.Coordinate{Lat: 45, Lon: 6}
	t := &task.Task{Name: "Straight", Type: task.Classic, EarthModel: task.FAISphere}
	for i := range radii {
		t.Turnpoints = append(t.Turnpoints, task.Turnpoint{
			Index:      i + 1,
			Name:       string(rune('A' + i)),
			Coordinate: g.Destination(origin, 0, cumulative[i]),
			Radius:     radii[i],
		})
	}
	return t, g
}

func newService(p TaskModelProvider) *ArtifactService {
	return NewArtifactService(p, &config.RenderConfig{QRSize: 512})
}

func TestBuild_StraightTaskShortcut(t *testing.T) {
	tk, g := straightTask([]float64{400, 2000, 400}, []float64{0, 10000, 22000})
	origin := tk.Turnpoints[0].Coordinate

	p := &MockProvider{}
	p.On("OptimizeRoute", tk, mock.Anything).Return([]task.Coordinate{
		origin,
		g.Destination(origin, 0, 8000),
		g.Destination(origin, 0, 21600),
	}, nil)

	a, err := newService(p).Build(tk, "ABC123")
	require.NoError(t, err)
	p.AssertExpectations(t)

	assert.InDelta(t, 22000, a.Centers.Total(), 1e-6)
	require.True(t, a.OptimizedAvailable())
	assert.Less(t, a.Optimized.Total(), 22000.0)

	require.Len(t, a.Rows, 3)
	assert.Equal(t, 0.0, a.Rows[0].CenterDistance)
	require.NotNil(t, a.Rows[2].OptimizedDistance)
	assert.InDelta(t, 21600, *a.Rows[2].OptimizedDistance, 1e-6)
	assert.Equal(t, 0.0, a.Rows[0].CenterLeg)
	assert.InDelta(t, 12000, a.Rows[2].CenterLeg, 1e-6)
	require.NotNil(t, a.Rows[2].OptimizedLeg)
	assert.InDelta(t, 13600, *a.Rows[2].OptimizedLeg, 1e-6)

	require.NotNil(t, a.Metadata.Savings)
	assert.InDelta(t, 400, *a.Metadata.Savings, 1e-6)
	assert.InDelta(t, 400.0/22000*100, *a.Metadata.SavingsPercent, 1e-9)
	assert.Equal(t, "FAI_SPHERE", a.Metadata.EarthModel)

	assert.Len(t, a.Features.Cylinders(), 3)
	assert.Len(t, a.Features.Routes(), 2)
}

func TestBuild_WithRealOptimizer(t *testing.T) {
	tk, _ := straightTask([]float64{400, 2000, 400}, []float64{0, 10000, 22000})

	a, err := newService(NewXCTSKProvider()).Build(tk, "")
	require.NoError(t, err)
	require.True(t, a.OptimizedAvailable())
	assert.InDelta(t, 22000, a.Centers.Total(), 1e-6)
	assert.Less(t, a.Optimized.Total(), a.Centers.Total())
}

func TestBuild_OptimizationUnavailable(t *testing.T) {
	tk, _ := straightTask([]float64{400, 2000, 400}, []float64{0, 10000, 22000})

	p := &MockProvider{}
	p.On("OptimizeRoute", tk, mock.Anything).Return(nil, optimize.ErrUnavailable)

	a, err := newService(p).Build(tk, "")
	require.NoError(t, err, "optimizer failure is recovered")

	assert.False(t, a.OptimizedAvailable())
	assert.Nil(t, a.Rows[2].OptimizedDistance)
	assert.Nil(t, a.Metadata.OptimizedDistance)
	assert.Nil(t, a.Metadata.Savings)
	_, ok := a.Features.Route(distance.Optimized)
	assert.False(t, ok)

	data, err := json.Marshal(a.Rows[2])
	require.NoError(t, err)
	assert.NotContains(t, string(data), "optimized_distance", "absent, not zero")
	assert.NotContains(t, string(data), "optimized_leg")
}

func TestBuild_DiscardsLongerOptimizedRoute(t *testing.T) {
	tk, g := straightTask([]float64{400, 400}, []float64{0, 10000})
	origin := tk.Turnpoints[0].Coordinate

	p := &MockProvider{}
	p.On("OptimizeRoute", tk, mock.Anything).Return([]task.Coordinate{
		g.Destination(origin, 180, 500),
		tk.Turnpoints[1].Coordinate,
	}, nil)

	a, err := newService(p).Build(tk, "")
	require.NoError(t, err)
	assert.False(t, a.OptimizedAvailable())
}

func TestBuild_EntryPointMismatch(t *testing.T) {
	tk, _ := straightTask([]float64{400, 2000, 400}, []float64{0, 10000, 22000})

	p := &MockProvider{}
	p.On("OptimizeRoute", tk, mock.Anything).Return([]task.Coordinate{tk.Turnpoints[0].Coordinate}, nil)

	_, err := newService(p).Build(tk, "")
	assert.ErrorIs(t, err, distance.ErrEntryPointMismatch)
}

func TestBuild_InvalidTask(t *testing.T) {
	p := &MockProvider{}
	_, err := newService(p).Build(&task.Task{Type: task.Classic}, "")
	assert.ErrorIs(t, err, task.ErrInvalidTask)
	p.AssertNotCalled(t, "OptimizeRoute", mock.Anything, mock.Anything)
}

func TestBuild_WaypointsSkipsOptimizer(t *testing.T) {
	g := geo.NewSphere()
	tk := &task.Task{Type: task.Waypoints}
	for i := 0; i < 4; i++ {
		tk.Turnpoints = append(tk.Turnpoints, task.Turnpoint{
			Index:      i + 1,
			Name:       string(rune('A' + i)),
			Coordinate: g.Destination(task.Coordinate{Lat: 46, Lon: 7}, 90, float64(i)*5000),
		})
	}

	p := &MockProvider{}
	a, err := newService(p).Build(tk, "")
	require.NoError(t, err)
	p.AssertNotCalled(t, "OptimizeRoute", mock.Anything, mock.Anything)

	assert.Empty(t, a.Features.Cylinders())
	routes := a.Features.Routes()
	require.Len(t, routes, 1)
	assert.Len(t, routes[0].Path, 4)
	assert.InDelta(t, 15000, a.Centers.Total(), 1e-6)
}

func TestBuild_SingleTurnpoint(t *testing.T) {
	tk, _ := straightTask([]float64{400}, []float64{0})

	a, err := newService(NewXCTSKProvider()).Build(tk, "")
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, a.Centers.Cumulative)
	assert.False(t, a.OptimizedAvailable())
	assert.Empty(t, a.Features.Routes())
}

func TestBuild_Idempotent(t *testing.T) {
	tk, _ := straightTask([]float64{400, 2000, 1500, 400}, []float64{0, 8000, 15000, 30000})
	svc := newService(NewXCTSKProvider())

	first, err := svc.Build(tk, "")
	require.NoError(t, err)
	second, err := svc.Build(tk, "")
	require.NoError(t, err)

	a, err := first.GeoJSON()
	require.NoError(t, err)
	b, err := second.GeoJSON()
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, first.Rows, second.Rows)
}

func TestArtifacts_LazyExports(t *testing.T) {
	tk, _ := straightTask([]float64{400, 2000, 400}, []float64{0, 10000, 22000})

	a, err := newService(NewXCTSKProvider()).Build(tk, "ABC123")
	require.NoError(t, err)

	kml, err := a.KML()
	require.NoError(t, err)
	assert.Contains(t, string(kml), "<kml")
	again, err := a.KML()
	require.NoError(t, err)
	assert.Same(t, &kml[0], &again[0], "computed once")

	data, contentType, err := a.Export("gpx")
	require.NoError(t, err)
	assert.Equal(t, export.GPXContentType, contentType)
	assert.Contains(t, string(data), "<gpx")

	_, _, err = a.Export("shp")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestArtifacts_ShareCode(t *testing.T) {
	tk, _ := straightTask([]float64{400, 2000, 400}, []float64{0, 10000, 22000})

	a, err := newService(NewXCTSKProvider()).Build(tk, "ABC123")
	require.NoError(t, err)

	png, err := a.ShareCode()
	require.NoError(t, err)
	text, err := sharecode.Decode(png)
	require.NoError(t, err)
	assert.Equal(t, a.SharePayload(), text)

	decoded, err := xctsk.Parse([]byte(text))
	require.NoError(t, err)
	assert.Len(t, decoded.Turnpoints, 3)
}

func TestArtifacts_ExportFailureIsIsolated(t *testing.T) {
	tk, _ := straightTask([]float64{400, 2000, 400}, []float64{0, 10000, 22000})
	a, err := newService(NewXCTSKProvider()).Build(tk, "")
	require.NoError(t, err)

	a.kml = func() ([]byte, error) { return nil, export.ErrEncoding }

	_, err = a.KML()
	assert.ErrorIs(t, err, export.ErrEncoding)
	_, err = a.GPX()
	assert.NoError(t, err)
	_, err = a.GeoJSON()
	assert.NoError(t, err)
}

func TestBuildFromDocument(t *testing.T) {
	raw := []byte(`{"taskType":"CLASSIC","version":1,"earthModel":"WGS84","turnpoints":[
		{"type":"TAKEOFF","radius":400,"waypoint":{"name":"TO","lat":46.0,"lon":7.0,"altSmoothed":1500}},
		{"type":"SSS","radius":3000,"waypoint":{"name":"SSS","lat":46.1,"lon":7.1,"altSmoothed":900}},
		{"type":"ESS","radius":1000,"waypoint":{"name":"ESS","lat":46.0,"lon":7.2,"altSmoothed":600}},
		{"radius":400,"waypoint":{"name":"GOAL","lat":46.01,"lon":7.21,"altSmoothed":600}}],
		"sss":{"type":"RACE","direction":"EXIT","timeGates":["12:00:00Z"]},
		"goal":{"type":"CYLINDER","deadline":"17:00:00Z"}}`)

	a, err := newService(NewXCTSKProvider()).BuildFromDocument(raw, "")
	require.NoError(t, err)
	assert.Equal(t, "WGS84", a.Metadata.EarthModel)
	assert.Equal(t, "12:00:00Z", a.Metadata.SSSFirstGate)
	assert.Equal(t, "17:00:00Z", a.Metadata.GoalDeadline)
	assert.Equal(t, "Goal", a.Rows[3].RoleLabel)
	assert.Equal(t, "GOAL", a.Rows[3].Role)
	assert.Equal(t, "ESS", a.Rows[2].Role)
	assert.True(t, a.OptimizedAvailable())
}

func TestBuildFromDocument_ParseError(t *testing.T) {
	p := &MockProvider{}
	p.On("ParseTask", mock.Anything).Return(nil, xctsk.ErrInvalidFormat)

	_, err := newService(p).BuildFromDocument([]byte("nope"), "")
	assert.True(t, errors.Is(err, xctsk.ErrInvalidFormat))
}
