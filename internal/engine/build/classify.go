package build

import (
	"strings"
	"unicode"

	"github.com/tidwall/gjson"

	"orbit/internal/engine/deptree"
)

const (
	DefaultPrefix = "Compiling"

	artifactReason = "compiler-artifact"
)

// Classifier turns raw build output lines into events.
type Classifier struct {
	// Prefix marks a diagnostic line announcing that a component started.
	Prefix string
}

func (c Classifier) prefix() string {
	if c.Prefix == "" {
		return DefaultPrefix
	}
	return c.Prefix
}

// Diagnostic classifies a line of the human-readable stream, e.g.
// "   Compiling serde v1.0.130".
func (c Classifier) Diagnostic(line string) (Event, bool) {
	trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
	rest, found := strings.CutPrefix(trimmed, c.prefix())
	if !found || rest == "" || !unicode.IsSpace(rune(rest[0])) {
		return Event{}, false
	}
	name, ok := deptree.NormalizeIdentity(rest)
	if !ok {
		return Event{}, false
	}
	return Event{Kind: Started, Name: name}, true
}

// Artifact classifies a line of the structured stream. Only artifact records
// carrying a package id produce an event.
func (c Classifier) Artifact(line string) (Event, bool) {
	if !gjson.Valid(line) {
		return Event{}, false
	}
	record := gjson.Parse(line)
	if record.Get("reason").String() != artifactReason {
		return Event{}, false
	}
	id := record.Get("package_id")
	if !id.Exists() {
		return Event{}, false
	}
	name, ok := deptree.IdentityFromPackageID(id.String())
	if !ok {
		return Event{}, false
	}
	return Event{Kind: Finished, Name: name}, true
}
