package layout

import "math"

const (
	// ShrinkCap is the largest child radius relative to its parent.
	ShrinkCap = 0.7
	// CrowdedFanOut is the child count from which a node gets the wide sky
	// and is pushed away from its parent.
	CrowdedFanOut = 5
	// PushOut scales the extra distance given to crowded children.
	PushOut = 1.5
)

type Point struct {
	X, Y float64
}

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// DistSq is the squared euclidean distance between p and q.
func (p Point) DistSq(q Point) float64 {
	dx, dy := p.X-q.X, p.Y-q.Y
	return dx*dx + dy*dy
}

// Polar returns the point at distance r from the origin along angle.
func Polar(r, angle float64) Point {
	return Point{r * math.Cos(angle), r * math.Sin(angle)}
}

// Sky is the angular budget for the children of a node at depth with k children.
func Sky(depth, k int) float64 {
	switch {
	case depth == 0:
		return 2 * math.Pi
	case k < CrowdedFanOut:
		return math.Pi / 2
	default:
		return 1.5 * math.Pi
	}
}

// ZigZag is the offset of child i from the incoming direction: 0, -Δ, +Δ, -2Δ, +2Δ, ...
func ZigZag(i int, delta float64) float64 {
	steps := float64((i + 1) / 2)
	if i%2 == 1 {
		return -steps * delta
	}
	return steps * delta
}

// ChildRadius keeps siblings spaced delta apart on a circle of radius parent
// from intersecting, and never exceeds ShrinkCap of the parent.
func ChildRadius(parent, delta float64) float64 {
	capped := parent * ShrinkCap
	if delta > math.Pi {
		return capped
	}
	chord := parent * math.Sqrt(2*(1-math.Cos(delta)))
	return math.Min(capped, chord/2)
}

// ChildCenter places a child on the parent's rim, pushed outward when the
// child itself is crowded.
func ChildCenter(parentCenter Point, parentRadius, childRadius, angle float64, grandchildren int) Point {
	dist := parentRadius
	if grandchildren >= CrowdedFanOut {
		dist += PushOut * childRadius
	}
	return parentCenter.Add(Polar(dist, angle))
}
