package cliapp

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	coreapp "orbit/internal/core/app"
	"orbit/internal/core/config"
	"orbit/internal/engine/deptree"
	"orbit/internal/engine/layout"
)

const (
	minZoom  = 0.25
	maxZoom  = 8
	zoomStep = 1.25
	// footerRows is the status bar plus the help line.
	footerRows = 2
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	runningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	failedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type tickMsg time.Time

// treeMsg carries a reloaded dependency tree from the manifest watcher.
type treeMsg struct {
	tree *deptree.Tree
	err  error
}

// configMsg carries a reloaded configuration file.
type configMsg struct {
	cfg *config.Config
}

type model struct {
	app  *coreapp.App
	keys keyMap
	help help.Model

	width, height int
	zoom          float64
	fps           int
	aspect        float64

	start time.Time
	now   func() time.Time
	// frameAt is the animation time of the frame on screen. Clicks replay
	// the layout at this time.
	frameAt float64

	lastErr error
}

func newModel(a *coreapp.App) model {
	h := help.New()
	h.ShowAll = false
	return model{
		app:    a,
		keys:   defaultKeyMap(),
		help:   h,
		zoom:   a.Config.UI.Zoom,
		fps:    a.Config.UI.FPS,
		aspect: a.Config.UI.CellAspect,
		start:  time.Now(),
		now:    time.Now,
	}
}

func (m model) Init() tea.Cmd {
	return m.tick()
}

func (m model) tick() tea.Cmd {
	fps := m.fps
	if fps <= 0 {
		fps = 30
	}
	return tea.Tick(time.Second/time.Duration(fps), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// elapsed is the animation time in seconds.
func (m model) elapsed() float64 {
	return m.now().Sub(m.start).Seconds()
}

func (m model) canvasRows() int {
	rows := m.height
	if m.app.Config.UI.ShowHelp {
		rows -= footerRows
	} else {
		rows--
	}
	return max(rows, 1)
}

func (m model) viewport() viewport {
	return newViewport(m.width, m.canvasRows(), m.app.Config.Layout.Radius, m.zoom, m.aspect)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width

	case tickMsg:
		m.app.DrainEvents(0)
		m.frameAt = m.elapsed()
		return m, m.tick()

	case tea.MouseMsg:
		// X10 mouse reporting does not say which button was released.
		if msg.Action == tea.MouseActionRelease &&
			(msg.Button == tea.MouseButtonLeft || msg.Button == tea.MouseButtonNone) {
			if msg.Y < m.canvasRows() {
				m.app.Click(m.viewport().ToPlan(msg.X, msg.Y), m.frameAt)
			}
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.ZoomIn):
			m.zoom = min(m.zoom*zoomStep, maxZoom)
		case key.Matches(msg, m.keys.ZoomOut):
			m.zoom = max(m.zoom/zoomStep, minZoom)
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		default:
			m.app.Reset()
		}

	case treeMsg:
		if msg.err != nil {
			m.lastErr = msg.err
			slog.Warn("tree reload failed, keeping previous tree", "error", msg.err)
			break
		}
		m.lastErr = nil
		m.app.SwapTree(msg.tree)

	case configMsg:
		m.applyConfig(msg.cfg)
	}
	return m, nil
}

// applyConfig takes over the settings that can change while the view runs.
// Build, history and watch settings apply on the next start.
func (m *model) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	m.app.Config.Layout = cfg.Layout
	m.app.Config.UI = cfg.UI
	m.fps = cfg.UI.FPS
	m.aspect = cfg.UI.CellAspect
	m.zoom = cfg.UI.Zoom
}

func (m model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return "loading..."
	}

	canvas := newCellCanvas(m.viewport())
	layout.Draw(canvas, m.app.Frame(m.frameAt), m.app.Style())

	parts := []string{canvas.String(), m.statusLine()}
	if m.app.Config.UI.ShowHelp {
		parts = append(parts, m.help.View(m.keys))
	}
	return strings.Join(parts, "\n")
}

func (m model) statusLine() string {
	var fields []string
	if focus := m.app.Focus(); focus != nil {
		fields = append(fields, titleStyle.Render(focus.Name()),
			statusStyle.Render(fmt.Sprintf("%d deps", focus.Size())))
	}

	st := m.app.BuildStatus()
	switch st.State {
	case coreapp.BuildRunning:
		fields = append(fields, runningStyle.Render(fmt.Sprintf("building %s", st.Elapsed.Round(time.Second))))
	case coreapp.BuildSucceeded:
		fields = append(fields, successStyle.Render(fmt.Sprintf("finished in %s", st.Elapsed.Round(time.Second))))
	case coreapp.BuildFailed:
		fields = append(fields, failedStyle.Render(fmt.Sprintf("failed after %s", st.Elapsed.Round(time.Second))))
	case coreapp.BuildUnavailable:
		fields = append(fields, failedStyle.Render("build unavailable"))
	}
	if st.State != coreapp.BuildIdle && st.State != coreapp.BuildUnavailable {
		fields = append(fields, statusStyle.Render(fmt.Sprintf("%d compiling, %d done", st.Active, st.Completed)))
	}
	if st.Dropped > 0 {
		fields = append(fields, failedStyle.Render(fmt.Sprintf("%d events dropped", st.Dropped)))
	}
	if m.zoom != 1 {
		fields = append(fields, statusStyle.Render(fmt.Sprintf("zoom %.2gx", m.zoom)))
	}
	if m.lastErr != nil {
		fields = append(fields, failedStyle.Render("reload failed: "+m.lastErr.Error()))
	}
	return strings.Join(fields, statusStyle.Render(" | "))
}
