// # internal/output/svg.go
package output

import (
	"fmt"
	"html"
	"strings"

	"orbit/internal/engine/deptree"
	"orbit/internal/engine/layout"
)

const svgMargin = 10

// SVGCanvas records draw calls as SVG elements. Plan coordinates are kept
// as-is; the viewBox maps the plan bounds onto the output size.
type SVGCanvas struct {
	width, height int
	min, max      layout.Point
	body          strings.Builder
}

var _ layout.Canvas = (*SVGCanvas)(nil)

// NewSVGCanvas sizes the canvas to fit plan.
func NewSVGCanvas(width, height int, plan layout.Plan) *SVGCanvas {
	min, max := plan.Bounds()
	return &SVGCanvas{width: width, height: height, min: min, max: max}
}

func (s *SVGCanvas) DrawCircle(center layout.Point, radius float64, color deptree.RGB, alpha uint8) {
	fmt.Fprintf(&s.body, "  <circle cx=\"%.3f\" cy=\"%.3f\" r=\"%.3f\" fill=\"%s\" fill-opacity=\"%.3f\"/>\n",
		center.X, center.Y, radius, color.Hex(), opacity(alpha))
}

func (s *SVGCanvas) DrawLine(from, to layout.Point, color deptree.RGB, alpha uint8) {
	fmt.Fprintf(&s.body, "  <line x1=\"%.3f\" y1=\"%.3f\" x2=\"%.3f\" y2=\"%.3f\" stroke=\"%s\" stroke-opacity=\"%.3f\"/>\n",
		from.X, from.Y, to.X, to.Y, color.Hex(), opacity(alpha))
}

// DrawLabel centres text on center. bounds caps the rendered text length.
func (s *SVGCanvas) DrawLabel(text string, center layout.Point, bounds float64) {
	fmt.Fprintf(&s.body, "  <text x=\"%.3f\" y=\"%.3f\" textLength=\"%.3f\" lengthAdjust=\"spacingAndGlyphs\">%s</text>\n",
		center.X, center.Y, labelLength(text, bounds), html.EscapeString(text))
}

// labelLength estimates the text width at the fixed font size, capped at
// bounds.
func labelLength(text string, bounds float64) float64 {
	w := float64(len([]rune(text))) * 7
	if bounds > 0 && w > bounds {
		return bounds
	}
	return w
}

func opacity(alpha uint8) float64 {
	return float64(alpha) / 255
}

// Bytes returns the finished document.
func (s *SVGCanvas) Bytes() []byte {
	vx, vy := s.min.X-svgMargin, s.min.Y-svgMargin
	vw, vh := s.max.X-s.min.X+2*svgMargin, s.max.Y-s.min.Y+2*svgMargin

	var buf strings.Builder
	buf.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	fmt.Fprintf(&buf, "<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"%d\" height=\"%d\" viewBox=\"%.3f %.3f %.3f %.3f\">\n",
		s.width, s.height, vx, vy, vw, vh)
	fmt.Fprintf(&buf, "  <rect x=\"%.3f\" y=\"%.3f\" width=\"%.3f\" height=\"%.3f\" fill=\"#000000\"/>\n", vx, vy, vw, vh)
	buf.WriteString("  <g font-family=\"Helvetica, Arial, sans-serif\" font-size=\"12\" fill=\"#ffffff\" text-anchor=\"middle\" dominant-baseline=\"middle\">\n")
	buf.WriteString(s.body.String())
	buf.WriteString("  </g>\n")
	buf.WriteString("</svg>\n")
	return []byte(buf.String())
}

// RenderSVG draws plan with style into a standalone SVG document.
func RenderSVG(plan layout.Plan, style layout.Style, width, height int) []byte {
	c := NewSVGCanvas(width, height, plan)
	layout.Draw(c, plan, style)
	return c.Bytes()
}
