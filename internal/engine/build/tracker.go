package build

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	domainerrors "orbit/internal/core/errors"
)

const DefaultBuffer = 1024

// Command describes the build process to observe.
type Command struct {
	Path string
	Args []string
	Dir  string
	Env  []string
}

// CargoCommand runs cargo build with JSON messages on stdout. extra is passed
// through after the fixed arguments.
func CargoCommand(dir string, extra ...string) Command {
	args := append([]string{"build", "--message-format=json"}, extra...)
	return Command{Path: "cargo", Args: args, Dir: dir}
}

func (c Command) String() string {
	return strings.TrimSpace(c.Path + " " + strings.Join(c.Args, " "))
}

type Options struct {
	// Prefix of diagnostic lines that announce a started component.
	Prefix string
	// Echo receives every diagnostic line and every non-JSON stdout line.
	Echo io.Writer
	// Buffer is the capacity of the event channel.
	Buffer int
}

// Tracker observes one running build. Events are read with Poll from a
// single goroutine.
type Tracker struct {
	cmd        *exec.Cmd
	classifier Classifier
	events     chan Event

	quit     chan struct{}
	stopOnce sync.Once
	readers  sync.WaitGroup
	done     chan struct{}
	waitErr  error

	echoMu sync.Mutex
	echo   io.Writer

	dropped atomic.Int64
}

// Start spawns the command and begins reading both of its output streams.
func Start(ctx context.Context, c Command, opts Options) (*Tracker, error) {
	if opts.Buffer <= 0 {
		opts.Buffer = DefaultBuffer
	}

	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, spawnError(c, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, spawnError(c, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, spawnError(c, err)
	}

	t := &Tracker{
		cmd:        cmd,
		classifier: Classifier{Prefix: opts.Prefix},
		events:     make(chan Event, opts.Buffer),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		echo:       opts.Echo,
	}

	t.readers.Add(2)
	go t.read(stderr, t.classifier.Diagnostic, true)
	go t.read(stdout, t.classifier.Artifact, false)

	go func() {
		t.readers.Wait()
		close(t.events)
		t.waitErr = cmd.Wait()
		close(t.done)
	}()

	slog.Info("build started", "command", c.String(), "dir", c.Dir, "pid", cmd.Process.Pid)
	return t, nil
}

func spawnError(c Command, err error) error {
	return domainerrors.AddContext(
		domainerrors.Wrap(err, domainerrors.CodeSpawn, "failed to start build"),
		domainerrors.CtxCommand, c.String(),
	)
}

// read drains r until EOF. echoAll echoes every line; otherwise only lines the
// classifier rejects are echoed.
func (t *Tracker) read(r io.Reader, classify func(string) (Event, bool), echoAll bool) {
	defer t.readers.Done()

	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			line = strings.TrimRight(line, "\r\n")
			ev, ok := classify(line)
			if echoAll || !ok {
				t.writeEcho(line)
			}
			if ok {
				ev.At = time.Now()
				t.send(ev)
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				slog.Debug("build stream closed", "error", err)
			}
			return
		}
	}
}

// send blocks while the buffer is full, unless the consumer has stopped.
func (t *Tracker) send(ev Event) {
	select {
	case <-t.quit:
		t.dropped.Add(1)
		return
	default:
	}
	select {
	case t.events <- ev:
	case <-t.quit:
		t.dropped.Add(1)
	}
}

func (t *Tracker) writeEcho(line string) {
	if t.echo == nil || strings.HasPrefix(line, "{") {
		return
	}
	t.echoMu.Lock()
	defer t.echoMu.Unlock()
	_, _ = io.WriteString(t.echo, line+"\n")
}

// Poll returns the next pending event without blocking.
func (t *Tracker) Poll() (Event, bool) {
	select {
	case ev, ok := <-t.events:
		return ev, ok
	default:
		return Event{}, false
	}
}

// Stop marks the consumer as gone. Readers keep draining the pipes so the
// process never blocks on a full pipe, but further events are dropped.
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() { close(t.quit) })
}

// Done is closed once both streams are drained and the process has exited.
func (t *Tracker) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the process exits and returns its exit error.
func (t *Tracker) Wait() error {
	<-t.done
	return t.waitErr
}

// Dropped counts events discarded after Stop.
func (t *Tracker) Dropped() int64 {
	return t.dropped.Load()
}
