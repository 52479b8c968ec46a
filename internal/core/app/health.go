package app

import (
	"context"
	"fmt"
	"time"

	"orbit/internal/data/queue"
	"orbit/internal/shared/observability"
	"orbit/internal/shared/util"
)

// healthSnapshot is what the health endpoint may see of the App. It is
// published by the owning goroutine and read from HTTP handlers.
type healthSnapshot struct {
	hasTree      bool
	nodes        int
	skipped      int
	build        BuildState
	buildErr     error
	active       int
	completed    int
	historyWant  bool
	historyOpen  bool
	historyQueue *queue.MemoryQueue
}

func (a *App) publishHealth() {
	snap := &healthSnapshot{
		active:      len(a.sets.Active()),
		completed:   len(a.sets.Completed()),
		historyWant: a.Config.History.Enabled,
		historyOpen: a.historyStore != nil,
	}
	if a.tree != nil {
		snap.hasTree = true
		snap.nodes = a.tree.Len()
		snap.skipped = a.tree.Stats().Skipped
	}
	if a.session != nil {
		snap.build = a.session.state
		snap.buildErr = a.session.err
	}
	if mq, ok := a.historyQueue.(*queue.MemoryQueue); ok {
		snap.historyQueue = mq
	}
	a.health.Store(snap)
}

type HealthService struct {
	app *App
}

func NewHealthService(app *App) *HealthService {
	return &HealthService{app: app}
}

// Check reports "degraded" when no tree is loaded or the build could not be
// spawned. History is optional and only reported.
func (s *HealthService) Check(ctx context.Context) observability.HealthStatus {
	status := observability.HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}
	snap := s.app.health.Load()
	if snap == nil {
		snap = &healthSnapshot{}
	}

	// Tree
	if !snap.hasTree {
		status.Status = "degraded"
		status.Components["tree"] = "missing"
	} else {
		status.Components["tree"] = fmt.Sprintf("ok (%d nodes, %d skipped lines)", snap.nodes, snap.skipped)
	}

	// Build
	switch snap.build {
	case BuildUnavailable:
		status.Status = "degraded"
		status.Components["build"] = fmt.Sprintf("unavailable: %v", snap.buildErr)
	case BuildIdle:
		status.Components["build"] = "idle"
	default:
		status.Components["build"] = fmt.Sprintf("%s (%d active, %d completed)", snap.build, snap.active, snap.completed)
	}

	// History
	switch {
	case !snap.historyOpen && snap.historyWant:
		status.Components["history"] = "disabled: store unavailable"
	case !snap.historyOpen:
		status.Components["history"] = "disabled"
	case snap.historyQueue != nil:
		status.Components["history"] = fmt.Sprintf("ok (%d queued, %d dropped)", snap.historyQueue.Len(), snap.historyQueue.Dropped())
	default:
		status.Components["history"] = "ok"
	}

	status.Components["heap_mb"] = fmt.Sprintf("%d", util.GetHeapAllocMB())
	return status
}
