package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"orbit/internal/core/ports"
	"orbit/internal/data/history"
	"orbit/internal/engine/build"
	"orbit/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// BuildState is the lifecycle of the live overlay.
type BuildState int

const (
	BuildIdle BuildState = iota
	BuildRunning
	BuildSucceeded
	BuildFailed
	// BuildUnavailable means the build could not be spawned. The view keeps
	// working without an overlay.
	BuildUnavailable
)

func (s BuildState) String() string {
	switch s {
	case BuildIdle:
		return "idle"
	case BuildRunning:
		return "building"
	case BuildSucceeded:
		return "finished"
	case BuildFailed:
		return "failed"
	case BuildUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// BuildStatus is a snapshot of the overlay for status bars.
type BuildStatus struct {
	State     BuildState
	SessionID string
	Command   string
	Active    int
	Completed int
	Dropped   int64
	Elapsed   time.Duration
	Err       error
}

type buildSession struct {
	id       string
	command  build.Command
	tracker  *build.Tracker
	cancel   context.CancelFunc
	span     trace.Span
	started  time.Time
	finished time.Time
	state    BuildState
	err      error
}

// BuildCommand is the configured build command plus extra arguments.
func (a *App) BuildCommand(extra ...string) build.Command {
	argv := append([]string(nil), a.Config.Build.Command...)
	if len(argv) == 0 {
		return build.CargoCommand(a.Paths.ProjectDir, append(append([]string(nil), a.Config.Build.Args...), extra...)...)
	}
	args := append(argv[1:], a.Config.Build.Args...)
	args = append(args, extra...)
	return build.Command{Path: argv[0], Args: args, Dir: a.Paths.ProjectDir}
}

// StartBuild spawns the build and starts a new session. Any previous session
// is stopped first and the sets are cleared. echo receives cargo's own output.
// A spawn failure leaves the App usable with BuildUnavailable.
func (a *App) StartBuild(ctx context.Context, echo io.Writer, extra ...string) error {
	a.StopBuild()
	a.sets.Reset()
	a.updateBuildGauges()

	cmd := a.BuildCommand(extra...)
	ctx, span := observability.Tracer.Start(ctx, "build.session",
		trace.WithAttributes(
			attribute.String("project", a.Project()),
			attribute.String("command", cmd.String()),
		),
	)

	buildCtx, cancel := context.WithCancel(ctx)
	sess := &buildSession{
		id:      history.NewSessionID(),
		command: cmd,
		cancel:  cancel,
		span:    span,
		started: time.Now(),
	}
	a.session = sess

	if !a.Config.Build.Echo {
		echo = nil
	}
	tracker, err := build.Start(buildCtx, cmd, build.Options{
		Prefix: a.Config.Build.Prefix,
		Echo:   echo,
		Buffer: a.Config.Build.Buffer,
	})
	if err != nil {
		cancel()
		sess.state = BuildUnavailable
		sess.err = err
		sess.finished = time.Now()
		span.RecordError(err)
		span.SetStatus(codes.Error, "spawn failed")
		span.End()
		slog.Warn("live build overlay unavailable", "command", cmd.String(), "error", err)
		a.publishHealth()
		return err
	}

	sess.tracker = tracker
	sess.state = BuildRunning
	a.publishHealth()
	span.SetAttributes(attribute.String("session.id", sess.id))
	a.enqueueHistory(ports.HistoryRecord{
		Kind:      ports.RecordSessionStart,
		SessionID: sess.id,
		At:        sess.started,
		Project:   a.Project(),
		Command:   cmd.String(),
	})
	return nil
}

// DrainEvents applies at most max pending build events to the sets without
// blocking and returns how many were applied. Once the build has exited and
// every event is consumed, the session is closed out.
func (a *App) DrainEvents(max int) int {
	sess := a.session
	if sess == nil || sess.tracker == nil || sess.state != BuildRunning {
		return 0
	}
	if max <= 0 {
		max = a.Config.Build.EventsPerFrame
	}

	n := 0
	for n < max {
		ev, ok := sess.tracker.Poll()
		if !ok {
			break
		}
		a.applyEvent(sess, ev)
		n++
	}
	if n > 0 {
		a.updateBuildGauges()
	}

	if n < max {
		select {
		case <-sess.tracker.Done():
			// Poll may have raced the final sends; the channel is closed now.
			for {
				ev, ok := sess.tracker.Poll()
				if !ok {
					break
				}
				a.applyEvent(sess, ev)
				n++
			}
			a.updateBuildGauges()
			a.finishSession(sess, sess.tracker.Wait())
		default:
		}
	}
	return n
}

// SetEventHandler registers fn to see every event DrainEvents applies, on
// the draining goroutine.
func (a *App) SetEventHandler(fn func(build.Event)) {
	a.onEvent = fn
}

func (a *App) applyEvent(sess *buildSession, ev build.Event) {
	a.sets.Apply(ev)
	if a.onEvent != nil {
		a.onEvent(ev)
	}
	observability.BuildEventsTotal.WithLabelValues(ev.Kind.String()).Inc()
	a.enqueueHistory(ports.HistoryRecord{
		Kind:      ports.RecordEvent,
		SessionID: sess.id,
		At:        ev.At,
		EventKind: ev.Kind.String(),
		Crate:     ev.Name,
	})
}

func (a *App) finishSession(sess *buildSession, waitErr error) {
	if sess.state != BuildRunning {
		return
	}
	sess.finished = time.Now()
	sess.err = waitErr
	sess.state = BuildSucceeded
	if waitErr != nil {
		sess.state = BuildFailed
		sess.span.RecordError(waitErr)
		sess.span.SetStatus(codes.Error, waitErr.Error())
	}
	sess.cancel()
	a.publishHealth()

	sess.span.SetAttributes(
		attribute.Int("crates.completed", len(a.sets.Completed())),
		attribute.Int64("events.dropped", sess.tracker.Dropped()),
	)
	sess.span.End()

	rec := ports.HistoryRecord{
		Kind:      ports.RecordSessionEnd,
		SessionID: sess.id,
		At:        sess.finished,
		Success:   waitErr == nil,
	}
	if waitErr != nil {
		rec.ExitError = waitErr.Error()
	}
	a.enqueueHistory(rec)

	slog.Info("build finished",
		"session", sess.id,
		"state", sess.state.String(),
		"elapsed", sess.finished.Sub(sess.started).Round(time.Millisecond),
		"completed", len(a.sets.Completed()),
		"error", waitErr,
	)
}

// StopBuild cancels a running build, waits for its readers and process, and
// records the session as failed.
func (a *App) StopBuild() {
	sess := a.session
	if sess == nil || sess.tracker == nil || sess.state != BuildRunning {
		return
	}
	sess.tracker.Stop()
	sess.cancel()
	err := sess.tracker.Wait()
	if err == nil {
		err = errors.New("build stopped")
	}
	a.finishSession(sess, err)
}

// Sets exposes the live overlay for rendering and tests.
func (a *App) Sets() *build.Sets { return a.sets }

func (a *App) BuildStatus() BuildStatus {
	st := BuildStatus{
		Active:    len(a.sets.Active()),
		Completed: len(a.sets.Completed()),
	}
	sess := a.session
	if sess == nil {
		return st
	}
	st.State = sess.state
	st.SessionID = sess.id
	st.Command = sess.command.String()
	st.Err = sess.err
	if sess.tracker != nil {
		st.Dropped = sess.tracker.Dropped()
	}
	end := sess.finished
	if end.IsZero() {
		end = time.Now()
	}
	st.Elapsed = end.Sub(sess.started)
	return st
}

// BuildDone is closed when the running build's process has exited and its
// streams are drained. It is nil when no build is running.
func (a *App) BuildDone() <-chan struct{} {
	if a.session == nil || a.session.tracker == nil {
		return nil
	}
	return a.session.tracker.Done()
}

func (a *App) updateBuildGauges() {
	observability.BuildActive.Set(float64(len(a.sets.Active())))
	observability.BuildCompleted.Set(float64(len(a.sets.Completed())))
	a.publishHealth()
}
