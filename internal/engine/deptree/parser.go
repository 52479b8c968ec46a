package deptree

import (
	"log/slog"
	"strconv"
	"strings"

	domainerrors "orbit/internal/core/errors"
)

// DefaultMaxDepth bounds how deep a listing is folded when Options leaves it unset.
const DefaultMaxDepth = 256

// FlatEntry is one listing line: the depth prefix and the normalized identity.
type FlatEntry struct {
	Depth    int
	Identity string
}

type Options struct {
	// MaxDepth is measured from the root entry. Deeper entries are dropped.
	MaxDepth int
}

// ParseLine reads a "<depth><identity>[ (suffix)]" listing line.
func ParseLine(line string) (FlatEntry, error) {
	digits := 0
	for digits < len(line) && line[digits] >= '0' && line[digits] <= '9' {
		digits++
	}
	if digits == 0 {
		return FlatEntry{}, domainerrors.New(domainerrors.CodeMalformedLine, "missing depth prefix")
	}

	depth, err := strconv.Atoi(line[:digits])
	if err != nil {
		return FlatEntry{}, domainerrors.Wrap(err, domainerrors.CodeMalformedLine, "invalid depth prefix")
	}

	identity, ok := NormalizeIdentity(line[digits:])
	if !ok {
		return FlatEntry{}, domainerrors.New(domainerrors.CodeMalformedLine, "missing identity")
	}
	return FlatEntry{Depth: depth, Identity: identity}, nil
}

// ParseFlat converts a depth-prefixed listing into entries. Blank lines are
// ignored. The first non-blank line must parse; later malformed lines are
// skipped and counted.
func ParseFlat(raw string) ([]FlatEntry, Stats, error) {
	var (
		entries []FlatEntry
		stats   Stats
	)

	for i, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		stats.Lines++

		entry, err := ParseLine(line)
		if err != nil {
			if len(entries) == 0 {
				wrapped := domainerrors.Wrap(err, domainerrors.CodeParse, "first listing line is not depth-prefixed")
				return nil, stats, domainerrors.AddContext(wrapped, domainerrors.CtxLine, i+1)
			}
			slog.Debug("skipping malformed listing line", "line", i+1, "error", err)
			stats.Skipped++
			continue
		}
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil, stats, domainerrors.New(domainerrors.CodeParse, "dependency listing is empty")
	}
	return entries, stats, nil
}

// Parse builds a Tree from a depth-prefixed listing.
func Parse(raw string, opts Options) (*Tree, error) {
	entries, stats, err := ParseFlat(raw)
	if err != nil {
		return nil, err
	}
	root, dropped := Fold(entries, opts)
	stats.Dropped = dropped
	return newTree(root, stats), nil
}

type builder struct {
	entry    FlatEntry
	children []*builder
	names    map[string]bool
}

func (b *builder) hasChild(identity string) bool {
	return b.names[identity]
}

func (b *builder) add(child *builder) {
	if b.names == nil {
		b.names = make(map[string]bool)
	}
	b.names[child.entry.Identity] = true
	b.children = append(b.children, child)
}

// Fold turns entries into a tree rooted at entries[0]. Entries after the
// first one at or above the root depth are ignored. Within one parent the
// first occurrence of an identity wins, an identity already present on the
// ancestor path is treated as a cycle, and a run that skips a depth level is
// unreachable; all three drop the entry with its whole subtree. The second
// return value counts dropped entries. entries must not be empty.
func Fold(entries []FlatEntry, opts Options) (*Node, int) {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	root := &builder{entry: entries[0]}
	stack := []*builder{root}
	dropped := 0
	skipAbove := -1

	for _, e := range entries[1:] {
		if e.Depth <= root.entry.Depth {
			break
		}
		if skipAbove >= 0 {
			if e.Depth > skipAbove {
				dropped++
				continue
			}
			skipAbove = -1
		}

		for stack[len(stack)-1].entry.Depth >= e.Depth {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1]

		if e.Depth != parent.entry.Depth+1 ||
			e.Depth-root.entry.Depth > maxDepth ||
			parent.hasChild(e.Identity) ||
			onPath(stack, e.Identity) {
			dropped++
			skipAbove = e.Depth
			continue
		}

		child := &builder{entry: e}
		parent.add(child)
		stack = append(stack, child)
	}

	return freeze(root), dropped
}

func onPath(stack []*builder, identity string) bool {
	for _, b := range stack {
		if b.entry.Identity == identity {
			return true
		}
	}
	return false
}

// freeze recursion is bounded by Options.MaxDepth.
func freeze(b *builder) *Node {
	children := make([]*Node, 0, len(b.children))
	for _, c := range b.children {
		children = append(children, freeze(c))
	}
	return newNode(b.entry.Identity, children)
}
