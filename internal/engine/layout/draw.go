package layout

import "orbit/internal/engine/deptree"

// Canvas is the drawing capability a renderer provides.
type Canvas interface {
	DrawCircle(center Point, radius float64, color deptree.RGB, alpha uint8)
	DrawLine(from, to Point, color deptree.RGB, alpha uint8)
	DrawLabel(text string, center Point, bounds float64)
}

type Style struct {
	LineColor      deptree.RGB
	LineAlpha      uint8
	CircleAlpha    uint8
	LabelMinRadius float64
	LabelBounds    float64
}

func DefaultStyle() Style {
	return Style{
		LineColor:      deptree.RGB{R: 0xff, G: 0xff, B: 0xff},
		LineAlpha:      127,
		CircleAlpha:    127,
		LabelMinRadius: 5,
		LabelBounds:    200,
	}
}

// Draw replays plan onto c: lines first, then circles with their labels.
func Draw(c Canvas, plan Plan, style Style) {
	for _, l := range plan.Lines {
		c.DrawLine(l.From, l.To, style.LineColor, style.LineAlpha)
	}
	for _, circle := range plan.Circles {
		c.DrawCircle(circle.Center, circle.Radius, circle.Color, style.CircleAlpha)
		if circle.Radius > style.LabelMinRadius {
			c.DrawLabel(circle.Label, circle.Center, style.LabelBounds)
		}
	}
}
