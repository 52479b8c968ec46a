package layout

import "orbit/internal/engine/deptree"

// rimTolerance keeps a point lying exactly on a rim (a child's centre on its
// parent's boundary) from resolving to the outer circle through rounding.
const rimTolerance = 1e-9

// HitTest replays the layout for root with p and returns the node whose
// circle contains point.
func HitTest(root *deptree.Node, point Point, p Params) (*deptree.Node, bool) {
	return Compute(root, p).HitTest(point)
}

// HitTest returns the first circle in emission order containing point.
// Only siblings are kept apart by the layout, so where circles from
// unrelated subtrees overlap the earlier one wins.
func (plan Plan) HitTest(point Point) (*deptree.Node, bool) {
	for _, c := range plan.Circles {
		if point.DistSq(c.Center) < c.Radius*c.Radius*(1-rimTolerance) {
			return c.Node, true
		}
	}
	return nil, false
}
