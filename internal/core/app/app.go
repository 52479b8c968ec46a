package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"orbit/internal/core/config"
	"orbit/internal/core/ports"
	"orbit/internal/core/watcher"
	"orbit/internal/data/history"
	"orbit/internal/engine/build"
	"orbit/internal/engine/deptree"
	"orbit/internal/engine/layout"
	"orbit/internal/shared/observability"
	"orbit/internal/shared/util"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// App owns one project's dependency tree, the drill-down focus and the
// live build overlay. Everything except tree loading and the history worker
// runs on the caller's goroutine; the render loop is the only mutator.
type App struct {
	Config *config.Config
	Paths  config.ResolvedPaths

	tree  *deptree.Tree
	focus *deptree.Node

	sets    *build.Sets
	session *buildSession
	onEvent func(build.Event)

	reloadLimiter   *util.Limiter
	manifestWatcher *watcher.Watcher
	watchCancel     context.CancelFunc

	historyStore ports.HistoryStore
	historyQueue ports.HistoryQueue
	workerCancel context.CancelFunc
	workerDone   chan struct{}

	health atomic.Pointer[healthSnapshot]

	closeOnce sync.Once
}

// New prepares an App. History is opened here; a history store that cannot
// be opened is logged and disabled rather than failing startup.
func New(cfg *config.Config, paths config.ResolvedPaths) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	a := &App{
		Config:        cfg,
		Paths:         paths,
		sets:          build.NewSets(),
		reloadLimiter: util.NewIntervalLimiter(cfg.Watch.ReloadInterval, 1),
	}

	if cfg.History.Enabled {
		store, err := openHistory(paths.HistoryDB, cfg.History.BusyTimeout)
		if err != nil {
			slog.Warn("build history disabled", "path", paths.HistoryDB, "error", err)
		} else {
			a.historyStore = store
			if err := a.initWriteQueue(); err != nil {
				_ = store.Close()
				a.historyStore = nil
				return nil, err
			}
		}
	}
	a.publishHealth()
	return a, nil
}

// openHistory opens the history database. A corrupt file is moved aside to
// path.corrupt and a fresh database is created in its place.
func openHistory(path string, busyTimeout time.Duration) (*history.Store, error) {
	store, err := history.Open(path, busyTimeout)
	if err == nil {
		slog.Debug("build history opened", "path", store.Path())
		return store, nil
	}
	if !history.IsCorruptError(err) {
		return nil, err
	}
	aside := path + ".corrupt"
	slog.Warn("build history corrupt, starting a new database", "path", path, "moved_to", aside, "error", err)
	if renameErr := os.Rename(path, aside); renameErr != nil {
		return nil, fmt.Errorf("move corrupt history aside: %w", renameErr)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		_ = os.Remove(path + suffix)
	}
	store, err = history.Open(path, busyTimeout)
	if err != nil {
		return nil, err
	}
	slog.Debug("build history opened", "path", store.Path())
	return store, nil
}

// Project is the key history sessions are stored under.
func (a *App) Project() string {
	return a.Paths.ProjectDir
}

func (a *App) History() ports.HistoryStore {
	return a.historyStore
}

func (a *App) source() deptree.Source {
	return deptree.Source{
		Command: a.Config.Tree.Command,
		Dir:     a.Paths.ProjectDir,
		File:    a.Paths.TreeInput,
	}
}

// ReadTree loads and parses the dependency listing without touching the
// current tree.
func (a *App) ReadTree(ctx context.Context) (*deptree.Tree, error) {
	ctx, span := observability.Tracer.Start(ctx, "tree.load",
		trace.WithAttributes(
			attribute.String("project", a.Project()),
			attribute.String("input", a.Paths.TreeInput),
		),
	)
	defer span.End()

	started := time.Now()
	t, err := a.source().Load(ctx, deptree.Options{MaxDepth: a.Config.Tree.MaxDepth})
	observability.TreeParseDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	stats := t.Stats()
	observability.TreeMalformedLinesTotal.Add(float64(stats.Skipped))
	span.SetAttributes(
		attribute.Int("nodes", t.Len()),
		attribute.Int("skipped", stats.Skipped),
		attribute.Int("dropped", stats.Dropped),
	)
	return t, nil
}

// LoadTree reads the listing and installs it as the current tree.
func (a *App) LoadTree(ctx context.Context) error {
	t, err := a.ReadTree(ctx)
	if err != nil {
		return err
	}
	a.SwapTree(t)
	return nil
}

// SwapTree installs t. The focus survives when its name still exists in t.
func (a *App) SwapTree(t *deptree.Tree) {
	if t == nil {
		return
	}
	var keep *deptree.Node
	if a.focus != nil && a.tree != nil && a.focus != a.tree.Root() {
		if n, ok := t.Find(a.focus.Name()); ok {
			keep = n
		}
	}
	a.tree = t
	a.focus = t.Root()
	if keep != nil {
		a.focus = keep
	}
	observability.TreeNodes.Set(float64(t.Len()))
	a.publishHealth()
	slog.Debug("dependency tree installed", "root", t.Root().Name(), "nodes", t.Len(), "focus", a.focus.Name())
}

func (a *App) Tree() *deptree.Tree { return a.tree }

// Focus is the node currently drawn at the centre.
func (a *App) Focus() *deptree.Node { return a.focus }

// Reset returns the view to the tree root.
func (a *App) Reset() {
	if a.tree != nil {
		a.focus = a.tree.Root()
	}
}

// FocusOn moves the focus to the first node called name. The name is
// normalized the way tree lines are, so "serde v1.0.130" works too.
func (a *App) FocusOn(name string) bool {
	if a.tree == nil {
		return false
	}
	identity, ok := deptree.NormalizeIdentity(name)
	if !ok {
		return false
	}
	n, ok := a.tree.Find(identity)
	if !ok {
		return false
	}
	a.focus = n
	return true
}

// Params is the layout configuration at animation time t seconds.
func (a *App) Params(t float64) layout.Params {
	p := layout.DefaultParams()
	p.Radius = a.Config.Layout.Radius
	p.IncomingAngle = a.Config.Layout.IncomingAngle
	p.MaxDepth = a.Config.Layout.MaxDepth
	p.Phase = layout.PhaseAt(t, a.Config.Layout.PhaseAmplitude)
	return p
}

// Frame computes the colored draw plan for animation time t.
func (a *App) Frame(t float64) layout.Plan {
	if a.focus == nil {
		return layout.Plan{}
	}
	started := time.Now()
	plan := layout.Compute(a.focus, a.Params(t))
	plan = layout.Overlay(plan, a.sets, layout.BlendAt(t))
	observability.LayoutDuration.Observe(time.Since(started).Seconds())
	return plan
}

// Click drills into the node under point in the frame drawn at time t.
// It reports whether the focus changed.
func (a *App) Click(point layout.Point, t float64) bool {
	if a.focus == nil {
		return false
	}
	n, ok := layout.HitTest(a.focus, point, a.Params(t))
	if !ok || n == a.focus {
		return false
	}
	a.focus = n
	slog.Debug("drill down", "node", n.Name())
	return true
}

// WatchManifests reloads the tree whenever a watched manifest changes.
// Reloads are throttled by watch.reload_interval and delivered to deliver
// from the watcher goroutine; the caller swaps them in on its own loop.
func (a *App) WatchManifests(ctx context.Context, deliver func(*deptree.Tree, error)) error {
	if !a.Config.Watch.Enabled || a.Paths.TreeInput != "" {
		return nil
	}
	if a.manifestWatcher != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	w, err := watcher.NewWatcher(a.Config.Watch.Debounce, a.Config.Watch.Files, a.Config.Watch.Exclude, func(paths []string) {
		if d := a.reloadLimiter.Delay(1); d > 0 {
			slog.Debug("manifest reload throttled", "wait", d)
		}
		if err := a.reloadLimiter.Wait(ctx, 1); err != nil {
			return
		}
		slog.Info("manifest changed, reloading tree", "paths", paths)
		t, err := a.ReadTree(ctx)
		if err != nil {
			observability.TreeReloadsTotal.WithLabelValues("error").Inc()
		} else {
			observability.TreeReloadsTotal.WithLabelValues("ok").Inc()
		}
		deliver(t, err)
	})
	if err != nil {
		cancel()
		return err
	}
	if err := w.Watch([]string{a.Paths.ProjectDir}); err != nil {
		cancel()
		_ = w.Close()
		return err
	}
	a.manifestWatcher = w
	a.watchCancel = cancel
	return nil
}

// Close stops the build, the watcher and the history worker. Without a ctx
// deadline the history queue gets drainTimeout to empty.
func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	var closeErr error
	a.closeOnce.Do(func() {
		a.StopBuild()

		if a.watchCancel != nil {
			a.watchCancel()
		}
		if a.manifestWatcher != nil {
			if err := a.manifestWatcher.Close(); err != nil {
				slog.Warn("close manifest watcher", "error", err)
			}
		}

		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, drainTimeout)
			defer cancel()
		}
		if err := a.stopWriteWorker(ctx); err != nil {
			closeErr = err
		}
		if a.historyStore != nil {
			if err := a.historyStore.Close(); err != nil && closeErr == nil {
				closeErr = err
			}
			a.historyStore = nil
		}
		a.publishHealth()
	})
	return closeErr
}
