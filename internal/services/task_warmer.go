package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dpup/xctsk-viewer/server/internal/config"
)

// TaskRefresher re-fetches a task document and caches it
type TaskRefresher interface {
	RefreshTask(ctx context.Context, code string) ([]byte, error)
}

// TaskWarmer keeps configured task codes in the document cache by refreshing
// them on an interval shorter than the cache TTL. Documents that fail to
// parse are logged so a broken featured task shows up before a user hits it.
type TaskWarmer struct {
	refresher TaskRefresher
	provider  TaskModelProvider
	codes     []string
	interval  time.Duration
	logger    *slog.Logger

	mu       sync.Mutex
	stopChan chan struct{}
	running  bool
}

// NewTaskWarmer creates a new TaskWarmer
func NewTaskWarmer(refresher TaskRefresher, provider TaskModelProvider, cfg *config.XContestConfig) *TaskWarmer {
	return &TaskWarmer{
		refresher: refresher,
		provider:  provider,
		codes:     cfg.WarmCodes,
		interval:  cfg.WarmInterval,
		logger:    slog.Default(),
	}
}

// Start refreshes every code immediately and then on each interval until
// ctx is done or Stop is called. It does nothing when no codes are configured.
func (w *TaskWarmer) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running || len(w.codes) == 0 || w.interval <= 0 {
		return
	}
	w.running = true
	w.stopChan = make(chan struct{})

	w.logger.Info("Starting task warmer", "codes", len(w.codes), "interval", w.interval)
	go w.loop(ctx, w.stopChan)
}

// Stop halts background refreshes
func (w *TaskWarmer) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.running = false
	close(w.stopChan)
}

// IsRunning returns whether the warmer is active
func (w *TaskWarmer) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *TaskWarmer) loop(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.RefreshAll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			w.RefreshAll(ctx)
		}
	}
}

// RefreshAll refreshes each configured code once and returns how many
// produced a parseable task
func (w *TaskWarmer) RefreshAll(ctx context.Context) int {
	var ok int
	for _, code := range w.codes {
		refreshCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		doc, err := w.refresher.RefreshTask(refreshCtx, code)
		cancel()
		if err != nil {
			w.logger.Warn("Task warm-up failed", "code", code, "error", err)
			continue
		}
		if _, err := w.provider.ParseTask(doc); err != nil {
			w.logger.Warn("Warmed task does not parse", "code", code, "error", err)
			continue
		}
		ok++
	}
	w.logger.Debug("Task warm-up completed", "ok", ok, "codes", len(w.codes))
	return ok
}
