package services

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dpup/xctsk-viewer/server/internal/config"
	"github.com/dpup/xctsk-viewer/server/internal/lib/distance"
	"github.com/dpup/xctsk-viewer/server/internal/lib/export"
	"github.com/dpup/xctsk-viewer/server/internal/lib/geo"
	"github.com/dpup/xctsk-viewer/server/internal/lib/geometry"
	"github.com/dpup/xctsk-viewer/server/internal/lib/sharecode"
	"github.com/dpup/xctsk-viewer/server/internal/lib/task"
	"github.com/dpup/xctsk-viewer/server/internal/lib/xctsk"
)

// ArtifactService turns tasks into the artifacts the presentation layer
// consumes: display rows, map geometry, export documents and share codes.
// It holds no per-task state and is safe for concurrent use.
type ArtifactService struct {
	provider TaskModelProvider
	qrSize   int
	logger   *slog.Logger
}

// NewArtifactService creates a new ArtifactService
func NewArtifactService(provider TaskModelProvider, cfg *config.RenderConfig) *ArtifactService {
	size := sharecode.DefaultSize
	if cfg != nil && cfg.QRSize > 0 {
		size = cfg.QRSize
	}
	return &ArtifactService{
		provider: provider,
		qrSize:   size,
		logger:   slog.Default(),
	}
}

// WithLogger replaces the service logger
func (s *ArtifactService) WithLogger(logger *slog.Logger) *ArtifactService {
	s.logger = logger
	return s
}

// WithQRSize sets the share code image size in pixels
func (s *ArtifactService) WithQRSize(size int) *ArtifactService {
	s.qrSize = size
	return s
}

// BuildFromDocument parses a raw task document and builds its artifacts
func (s *ArtifactService) BuildFromDocument(data []byte, code string) (*TaskArtifacts, error) {
	t, err := s.provider.ParseTask(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse task: %w", err)
	}
	return s.Build(t, code)
}

// Build derives distance tables and map geometry for a parsed task. Export
// documents and the share code are produced on first request. code is the
// remote task code, empty for uploaded tasks.
func (s *ArtifactService) Build(t *task.Task, code string) (*TaskArtifacts, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	g := geo.ForTask(t)
	a := &TaskArtifacts{
		Code:    code,
		Task:    t,
		Geodesy: g,
		Centers: distance.CenterTable(t.Turnpoints, g),
	}

	optimized, err := s.optimizedTable(t, g, a.Centers)
	if err != nil {
		return nil, err
	}
	a.Optimized = optimized

	a.Features = geometry.Build(t, a.Centers, a.Optimized, g)
	a.Rows = buildRows(t, a.Centers, a.Optimized)
	a.Metadata = buildMetadata(t, a.Centers, a.Optimized)

	in := export.Input{Task: t, Centers: a.Centers, Optimized: a.Optimized, Geodesy: g}
	a.geoJSON = sync.OnceValues(a.Features.GeoJSON)
	a.kml = sync.OnceValues(func() ([]byte, error) { return export.KML(in) })
	a.gpx = sync.OnceValues(func() ([]byte, error) { return export.GPX(in) })
	a.shareCode = sync.OnceValues(func() ([]byte, error) {
		return sharecode.Encode(a.SharePayload(), s.qrSize)
	})

	s.logger.Debug("Built task artifacts",
		"name", t.Name,
		"turnpoints", len(t.Turnpoints),
		"center_distance", a.Centers.Total(),
		"optimized", a.Optimized != nil)
	return a, nil
}

// optimizedTable asks the provider for an optimized route. A route the
// provider cannot compute, or one longer than the center route, is left out.
// A route with the wrong number of points is a provider bug and fails the build.
func (s *ArtifactService) optimizedTable(t *task.Task, g geo.Geodesy, centers *distance.Table) (*distance.Table, error) {
	if t.IsWaypoints() {
		return nil, nil
	}

	points, err := s.provider.OptimizeRoute(t, g)
	if err != nil {
		s.logger.Warn("Optimized route unavailable", "task", t.Name, "error", err)
		return nil, nil
	}

	table, err := distance.OptimizedTable(t.Turnpoints, points, g)
	if err != nil {
		return nil, err
	}
	if table.Total() > centers.Total() {
		s.logger.Warn("Discarding optimized route longer than center route",
			"task", t.Name,
			"optimized", table.Total(),
			"centers", centers.Total())
		return nil, nil
	}
	return table, nil
}

// TaskArtifacts is everything derived from one task. The Optimized table,
// and every optimized field in Rows and Metadata, is nil when no optimized
// route is available.
type TaskArtifacts struct {
	Code      string
	Task      *task.Task
	Geodesy   geo.Geodesy
	Centers   *distance.Table
	Optimized *distance.Table
	Features  *geometry.Collection
	Rows      []TurnpointRow
	Metadata  Metadata

	geoJSON   func() ([]byte, error)
	kml       func() ([]byte, error)
	gpx       func() ([]byte, error)
	shareCode func() ([]byte, error)
}

// OptimizedAvailable reports whether an optimized route was computed
func (a *TaskArtifacts) OptimizedAvailable() bool {
	return a.Optimized != nil
}

// GeoJSON returns the map features as a GeoJSON document
func (a *TaskArtifacts) GeoJSON() ([]byte, error) {
	return a.geoJSON()
}

// KML returns the KML export
func (a *TaskArtifacts) KML() ([]byte, error) {
	return a.kml()
}

// GPX returns the GPX export
func (a *TaskArtifacts) GPX() ([]byte, error) {
	return a.gpx()
}

// ShareCode returns the share code PNG
func (a *TaskArtifacts) ShareCode() ([]byte, error) {
	return a.shareCode()
}

// SharePayload is the text carried by the share code: the compact XCTSK:
// encoding XCTrack imports directly, or the task code if the task cannot be
// encoded.
func (a *TaskArtifacts) SharePayload() string {
	s, err := xctsk.EncodeQRString(a.Task)
	if err != nil {
		return a.Code
	}
	return s
}

// Export returns the document for a named format along with its content type
func (a *TaskArtifacts) Export(format string) ([]byte, string, error) {
	var (
		data        []byte
		contentType string
		err         error
	)
	switch format {
	case "geojson":
		data, err = a.GeoJSON()
		contentType = "application/geo+json"
	case "kml":
		data, err = a.KML()
		contentType = export.KMLContentType
	case "gpx":
		data, err = a.GPX()
		contentType = export.GPXContentType
	default:
		return nil, "", fmt.Errorf("%w: unknown format %q", ErrUnknownFormat, format)
	}
	return data, contentType, err
}

// ErrUnknownFormat is returned by Export for unsupported formats
var ErrUnknownFormat = errors.New("unknown export format")
