package services

import (
	"github.com/dpup/xctsk-viewer/server/internal/lib/geo"
	"github.com/dpup/xctsk-viewer/server/internal/lib/optimize"
	"github.com/dpup/xctsk-viewer/server/internal/lib/task"
	"github.com/dpup/xctsk-viewer/server/internal/lib/xctsk"
)

// TaskModelProvider parses task documents and computes optimized routes.
// OptimizeRoute returns one entry coordinate per turnpoint.
type TaskModelProvider interface {
	ParseTask(data []byte) (*task.Task, error)
	OptimizeRoute(t *task.Task, g geo.Geodesy) ([]task.Coordinate, error)
}

// XCTSKProvider is the TaskModelProvider backed by the xctsk parser and the
// cylinder route optimizer
type XCTSKProvider struct {
	optimizer *optimize.Optimizer
}

// NewXCTSKProvider creates a provider with default optimizer settings
func NewXCTSKProvider() *XCTSKProvider {
	return &XCTSKProvider{optimizer: optimize.NewOptimizer()}
}

func (p *XCTSKProvider) ParseTask(data []byte) (*task.Task, error) {
	return xctsk.Parse(data)
}

func (p *XCTSKProvider) OptimizeRoute(t *task.Task, g geo.Geodesy) ([]task.Coordinate, error) {
	route, err := p.optimizer.Optimize(t, g)
	if err != nil {
		return nil, err
	}
	return route.Points, nil
}
