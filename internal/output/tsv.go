// # internal/output/tsv.go
package output

import (
	"fmt"
	"strings"

	"orbit/internal/core/ports"
	"orbit/internal/engine/deptree"
)

type TSVGenerator struct {
	tree *deptree.Tree
}

func NewTSVGenerator(t *deptree.Tree) *TSVGenerator {
	return &TSVGenerator{tree: t}
}

// Generate lists every parent/child edge in pre-order, repeated subtrees
// included, with the child's depth below the root.
func (t *TSVGenerator) Generate() (string, error) {
	if t.tree == nil {
		return "", fmt.Errorf("no dependency tree")
	}
	var buf strings.Builder

	buf.WriteString("Parent\tChild\tDepth\tDescendants\n")
	deptree.Walk(t.tree.Root(), func(n *deptree.Node, depth int) bool {
		for _, c := range n.Children() {
			buf.WriteString(fmt.Sprintf("%s\t%s\t%d\t%d\n", n.Name(), c.Name(), depth+1, c.Size()))
		}
		return true
	})

	return buf.String(), nil
}

// GenerateCrateDurations renders one build session's per-crate timings.
func GenerateCrateDurations(rows []ports.CrateDuration) string {
	var buf strings.Builder

	buf.WriteString("Crate\tStarted\tFinished\tSeconds\tPending\n")
	for _, row := range rows {
		started, finished := "", ""
		if !row.StartedAt.IsZero() {
			started = row.StartedAt.Format("2006-01-02T15:04:05.000Z07:00")
		}
		if !row.FinishedAt.IsZero() {
			finished = row.FinishedAt.Format("2006-01-02T15:04:05.000Z07:00")
		}
		buf.WriteString(fmt.Sprintf("%s\t%s\t%s\t%.3f\t%t\n",
			row.Crate, started, finished, row.Duration.Seconds(), row.Pending))
	}
	return buf.String()
}
