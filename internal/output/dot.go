// # internal/output/dot.go
package output

import (
	"fmt"
	"strings"

	"orbit/internal/engine/deptree"
	"orbit/internal/engine/layout"
)

type DOTGenerator struct {
	tree   *deptree.Tree
	status layout.Status
}

// NewDOTGenerator renders t. status may be nil; when set, finished and
// building crates are highlighted.
func NewDOTGenerator(t *deptree.Tree, status layout.Status) *DOTGenerator {
	return &DOTGenerator{tree: t, status: status}
}

func (d *DOTGenerator) Generate() (string, error) {
	if d.tree == nil {
		return "", fmt.Errorf("no dependency tree")
	}
	var buf strings.Builder

	buf.WriteString("digraph dependencies {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [penwidth=1.2];\n")
	buf.WriteString("  ranksep=1.5;\n")
	buf.WriteString("  nodesep=0.6;\n")
	buf.WriteString("  overlap=false;\n\n")

	// Nodes, once per identity in first pre-order occurrence.
	for _, name := range d.tree.Names() {
		n, _ := d.tree.Find(name)
		fill := n.Color().Hex()
		extra := ""
		if d.status != nil {
			switch {
			case d.status.IsCompleted(name):
				fill = layout.DoneColor.Hex()
				extra = ", penwidth=2"
			case d.status.IsActive(name):
				extra = ", penwidth=3, color=\"red\""
			}
		}
		fmt.Fprintf(&buf, "  %q [label=\"%s\\n(%d deps)\", fillcolor=%q%s];\n", name, name, n.Size(), fill, extra)
	}
	buf.WriteString("\n")

	// Edges, deduplicated across repeated subtrees.
	seen := make(map[[2]string]bool)
	deptree.Walk(d.tree.Root(), func(n *deptree.Node, _ int) bool {
		for _, c := range n.Children() {
			key := [2]string{n.Name(), c.Name()}
			if seen[key] {
				continue
			}
			seen[key] = true
			fmt.Fprintf(&buf, "  %q -> %q;\n", n.Name(), c.Name())
		}
		return true
	})

	buf.WriteString("}\n")
	return buf.String(), nil
}
