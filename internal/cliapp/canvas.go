package cliapp

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"orbit/internal/engine/deptree"
	"orbit/internal/engine/layout"
)

// extentFactor is how far past the root radius the outermost children reach.
const extentFactor = 3

var (
	background = deptree.RGB{}
	labelColor = deptree.RGB{R: 0xff, G: 0xff, B: 0xff}
)

// viewport maps plan coordinates onto terminal cells. The plan origin sits in
// the middle of the grid; aspect squashes the vertical axis so circles stay
// round on cells that are taller than they are wide.
type viewport struct {
	cols, rows int
	scale      float64
	aspect     float64
}

func newViewport(cols, rows int, radius, zoom, aspect float64) viewport {
	if aspect <= 0 {
		aspect = 1
	}
	if zoom <= 0 {
		zoom = 1
	}
	extent := radius * extentFactor
	if extent <= 0 {
		extent = 1
	}
	fit := math.Min(float64(cols)/2, float64(rows)/(2*aspect))
	return viewport{
		cols:   cols,
		rows:   rows,
		scale:  zoom * fit / extent,
		aspect: aspect,
	}
}

func (v viewport) toCell(p layout.Point) (float64, float64) {
	return float64(v.cols)/2 + p.X*v.scale, float64(v.rows)/2 + p.Y*v.scale*v.aspect
}

// ToPlan returns the plan point under the middle of cell (col, row).
func (v viewport) ToPlan(col, row int) layout.Point {
	if v.scale == 0 {
		return layout.Point{}
	}
	return layout.Point{
		X: (float64(col) + 0.5 - float64(v.cols)/2) / v.scale,
		Y: (float64(row) + 0.5 - float64(v.rows)/2) / (v.scale * v.aspect),
	}
}

type cell struct {
	ch rune
	fg deptree.RGB
	bg deptree.RGB
}

// cellCanvas rasterizes a draw plan onto a grid of terminal cells. Circles
// paint cell backgrounds, lines and labels paint glyphs.
type cellCanvas struct {
	vp    viewport
	cells [][]cell
}

var _ layout.Canvas = (*cellCanvas)(nil)

func newCellCanvas(vp viewport) *cellCanvas {
	cells := make([][]cell, vp.rows)
	for r := range cells {
		row := make([]cell, vp.cols)
		for c := range row {
			row[c] = cell{ch: ' ', fg: background, bg: background}
		}
		cells[r] = row
	}
	return &cellCanvas{vp: vp, cells: cells}
}

func (c *cellCanvas) inside(col, row int) bool {
	return row >= 0 && row < c.vp.rows && col >= 0 && col < c.vp.cols
}

func (c *cellCanvas) DrawCircle(center layout.Point, radius float64, color deptree.RGB, alpha uint8) {
	cx, cy := c.vp.toCell(center)
	rx := radius * c.vp.scale
	ry := rx * c.vp.aspect

	paint := func(col, row int) {
		cl := &c.cells[row][col]
		cl.bg = blend(cl.bg, color, alpha)
		cl.fg = blend(cl.fg, color, alpha)
	}

	filled := false
	if rx > 0 && ry > 0 {
		top := max(int(math.Floor(cy-ry)), 0)
		bottom := min(int(math.Ceil(cy+ry)), c.vp.rows-1)
		left := max(int(math.Floor(cx-rx)), 0)
		right := min(int(math.Ceil(cx+rx)), c.vp.cols-1)
		for row := top; row <= bottom; row++ {
			dy := (float64(row) + 0.5 - cy) / ry
			for col := left; col <= right; col++ {
				dx := (float64(col) + 0.5 - cx) / rx
				if dx*dx+dy*dy <= 1 {
					paint(col, row)
					filled = true
				}
			}
		}
	}
	// Circles smaller than a cell still get one.
	if !filled {
		col, row := int(math.Floor(cx)), int(math.Floor(cy))
		if c.inside(col, row) {
			paint(col, row)
		}
	}
}

func (c *cellCanvas) DrawLine(from, to layout.Point, color deptree.RGB, alpha uint8) {
	x0, y0 := c.vp.toCell(from)
	x1, y1 := c.vp.toCell(to)
	steps := int(math.Ceil(math.Max(math.Abs(x1-x0), math.Abs(y1-y0))))
	if steps == 0 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		f := float64(i) / float64(steps)
		col := int(math.Floor(x0 + (x1-x0)*f))
		row := int(math.Floor(y0 + (y1-y0)*f))
		if !c.inside(col, row) {
			continue
		}
		cl := &c.cells[row][col]
		cl.ch = '·'
		cl.fg = blend(cl.bg, color, alpha)
	}
}

// DrawLabel writes text centred on center, cut to bounds plan units.
func (c *cellCanvas) DrawLabel(text string, center layout.Point, bounds float64) {
	width := int(bounds * c.vp.scale)
	if width < 1 {
		return
	}
	runes := []rune(text)
	if len(runes) > width {
		runes = runes[:width]
	}
	cx, cy := c.vp.toCell(center)
	row := int(math.Floor(cy))
	start := int(math.Round(cx - float64(len(runes))/2))
	for i, r := range runes {
		col := start + i
		if !c.inside(col, row) {
			continue
		}
		cl := &c.cells[row][col]
		cl.ch = r
		cl.fg = labelColor
	}
}

// String renders the grid, one lipgloss style per run of identical cells.
func (c *cellCanvas) String() string {
	var b strings.Builder
	for r, row := range c.cells {
		if r > 0 {
			b.WriteByte('\n')
		}
		var run []rune
		var runFG, runBG deptree.RGB
		flush := func() {
			if len(run) == 0 {
				return
			}
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(runFG.Hex())).
				Background(lipgloss.Color(runBG.Hex()))
			b.WriteString(style.Render(string(run)))
			run = run[:0]
		}
		for _, cl := range row {
			fg := cl.fg
			if cl.ch == ' ' {
				fg = cl.bg
			}
			if len(run) > 0 && (fg != runFG || cl.bg != runBG) {
				flush()
			}
			runFG, runBG = fg, cl.bg
			run = append(run, cl.ch)
		}
		flush()
	}
	return b.String()
}

// text is the glyph content of one row, without styling.
func (c *cellCanvas) text(row int) string {
	if row < 0 || row >= len(c.cells) {
		return ""
	}
	var b strings.Builder
	for _, cl := range c.cells[row] {
		b.WriteRune(cl.ch)
	}
	return b.String()
}

func blend(dst, src deptree.RGB, alpha uint8) deptree.RGB {
	a := float64(alpha) / 255
	mix := func(d, s uint8) uint8 {
		return uint8(math.Round(float64(d) + (float64(s)-float64(d))*a))
	}
	return deptree.RGB{R: mix(dst.R, src.R), G: mix(dst.G, src.G), B: mix(dst.B, src.B)}
}
