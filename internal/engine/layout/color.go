package layout

import (
	"math"

	"orbit/internal/engine/deptree"
)

// DoneColor marks components the build has finished.
var DoneColor = deptree.RGB{R: 0x98, G: 0xfb, B: 0x98}

// Status reports live build membership by identity.
type Status interface {
	IsActive(name string) bool
	IsCompleted(name string) bool
}

// Lerp mixes a towards b by t, clamped to [0,1].
func Lerp(a, b deptree.RGB, t float64) deptree.RGB {
	t = math.Max(0, math.Min(1, t))
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x)*(1-t) + float64(y)*t))
	}
	return deptree.RGB{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B)}
}

// Shade returns the display color of c given the build status.
func Shade(c Circle, status Status, blend float64) deptree.RGB {
	if status == nil {
		return c.Color
	}
	switch {
	case status.IsCompleted(c.Label):
		return DoneColor
	case status.IsActive(c.Label):
		return Lerp(c.Color, DoneColor, blend)
	default:
		return c.Color
	}
}

// Overlay returns a copy of plan with circle colors shaded by status.
func Overlay(plan Plan, status Status, blend float64) Plan {
	circles := make([]Circle, len(plan.Circles))
	for i, c := range plan.Circles {
		c.Color = Shade(c, status, blend)
		circles[i] = c
	}
	return Plan{Circles: circles, Lines: plan.Lines}
}
