package deptree

import (
	"crypto/md5"
	"fmt"
	"sort"
)

// RGB is an 8-bit per channel color.
type RGB struct {
	R, G, B uint8
}

func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ColorFor derives a stable color from a node name.
func ColorFor(name string) RGB {
	digest := md5.Sum([]byte(name))
	return RGB{R: digest[0], G: digest[1], B: digest[2]}
}

// Node is an immutable dependency tree node. The children slice is shared
// between every holder and must not be modified.
type Node struct {
	name     string
	color    RGB
	children []*Node
	size     int
}

func (n *Node) Name() string      { return n.name }
func (n *Node) Color() RGB        { return n.color }
func (n *Node) Children() []*Node { return n.children }
func (n *Node) ChildCount() int   { return len(n.children) }

// Size is the number of descendants below n.
func (n *Node) Size() int { return n.size }

func newNode(name string, children []*Node) *Node {
	size := 0
	for _, c := range children {
		size += c.size + 1
	}
	sort.SliceStable(children, func(i, j int) bool {
		return children[i].size < children[j].size
	})
	return &Node{
		name:     name,
		color:    ColorFor(name),
		children: children,
		size:     size,
	}
}

// Stats describes how much of the listing ended up in the tree.
type Stats struct {
	Lines   int
	Skipped int // malformed lines
	Dropped int // well-formed entries that were unreachable, duplicated or too deep
}

// Tree is a parsed dependency tree plus a name index for drill-down lookups.
type Tree struct {
	root  *Node
	index map[string]*Node
	stats Stats
}

func newTree(root *Node, stats Stats) *Tree {
	t := &Tree{root: root, index: make(map[string]*Node), stats: stats}
	Walk(root, func(n *Node, _ int) bool {
		if _, ok := t.index[n.name]; !ok {
			t.index[n.name] = n
		}
		return true
	})
	return t
}

func (t *Tree) Root() *Node  { return t.root }
func (t *Tree) Stats() Stats { return t.stats }

// Len is the total node count including repeated identities.
func (t *Tree) Len() int { return t.root.size + 1 }

// Find returns the first node with name in pre-order.
func (t *Tree) Find(name string) (*Node, bool) {
	n, ok := t.index[name]
	return n, ok
}

// Names returns the distinct identities in the tree, sorted.
func (t *Tree) Names() []string {
	names := make([]string, 0, len(t.index))
	for name := range t.index {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the children of the visited node.
func Walk(n *Node, fn func(n *Node, depth int) bool) {
	type frame struct {
		node  *Node
		depth int
	}
	stack := []frame{{node: n}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(f.node, f.depth) {
			continue
		}
		for i := len(f.node.children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: f.node.children[i], depth: f.depth + 1})
		}
	}
}
