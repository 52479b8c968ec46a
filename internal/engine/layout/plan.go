package layout

import (
	"math"

	"orbit/internal/engine/deptree"
)

// Circle is one node in a draw plan.
type Circle struct {
	Center Point
	Radius float64
	Color  deptree.RGB
	Label  string
	Node   *deptree.Node
	Depth  int
}

// Line connects a parent rim to a child rim.
type Line struct {
	From, To Point
	Depth    int
}

// Plan is the output of one layout pass. Circles are in pre-order, children
// of a node in index order.
type Plan struct {
	Circles []Circle
	Lines   []Line
}

type Params struct {
	Center        Point
	Radius        float64
	IncomingAngle float64
	// Phase is added to every child angle, so its effect grows with depth.
	Phase float64
	// MaxDepth stops expansion below this depth. Zero means unbounded.
	MaxDepth int
}

func DefaultParams() Params {
	return Params{
		Radius:        150,
		IncomingAngle: 1.0,
		MaxDepth:      64,
	}
}

// PhaseAt is the animation phase at t seconds.
func PhaseAt(t, amplitude float64) float64 {
	return math.Sin(t) * amplitude
}

// BlendAt is the active-node pulse factor in [0,1] at t seconds.
func BlendAt(t float64) float64 {
	return math.Abs(math.Sin(t))
}

type frame struct {
	node   *deptree.Node
	center Point
	radius float64
	angle  float64
	depth  int
}

// Compute lays out the subtree under root. It is deterministic for fixed
// inputs and never touches the tree.
func Compute(root *deptree.Node, p Params) Plan {
	var plan Plan
	if root == nil {
		return plan
	}

	plan.Circles = make([]Circle, 0, root.Size()+1)
	plan.Lines = make([]Line, 0, root.Size())

	stack := []frame{{node: root, center: p.Center, radius: p.Radius, angle: p.IncomingAngle}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		plan.Circles = append(plan.Circles, Circle{
			Center: f.center,
			Radius: f.radius,
			Color:  f.node.Color(),
			Label:  f.node.Name(),
			Node:   f.node,
			Depth:  f.depth,
		})

		children := f.node.Children()
		k := len(children)
		if k == 0 || (p.MaxDepth > 0 && f.depth >= p.MaxDepth) {
			continue
		}

		delta := Sky(f.depth, k) / float64(k)
		r := ChildRadius(f.radius, delta)

		next := make([]frame, k)
		for i, child := range children {
			angle := f.angle + ZigZag(i, delta) + p.Phase
			center := ChildCenter(f.center, f.radius, r, angle, child.ChildCount())
			plan.Lines = append(plan.Lines, Line{
				From:  f.center.Add(Polar(f.radius, angle)),
				To:    center.Sub(Polar(r, angle)),
				Depth: f.depth + 1,
			})
			next[i] = frame{node: child, center: center, radius: r, angle: angle, depth: f.depth + 1}
		}
		for i := k - 1; i >= 0; i-- {
			stack = append(stack, next[i])
		}
	}
	return plan
}

// Bounds is the bounding box of every circle in the plan.
func (p Plan) Bounds() (min, max Point) {
	if len(p.Circles) == 0 {
		return Point{}, Point{}
	}
	min = Point{math.Inf(1), math.Inf(1)}
	max = Point{math.Inf(-1), math.Inf(-1)}
	for _, c := range p.Circles {
		min.X = math.Min(min.X, c.Center.X-c.Radius)
		min.Y = math.Min(min.Y, c.Center.Y-c.Radius)
		max.X = math.Max(max.X, c.Center.X+c.Radius)
		max.Y = math.Max(max.Y, c.Center.Y+c.Radius)
	}
	return min, max
}
