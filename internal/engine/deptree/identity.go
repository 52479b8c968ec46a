package deptree

import (
	"path"
	"strings"
	"unicode"

	"github.com/Masterminds/semver"
)

// NormalizeIdentity turns a "name vX.Y.Z (suffix)" field into the canonical
// "name X.Y.Z" identity shared by tree nodes and build events. The version is
// omitted when the second token is not a version. ok is false when the field
// carries no usable name.
func NormalizeIdentity(field string) (identity string, ok bool) {
	field = strings.TrimSpace(field)
	if i := strings.Index(field, " ("); i >= 0 {
		field = field[:i]
	}

	tokens := strings.Fields(field)
	if len(tokens) == 0 {
		return "", false
	}

	name := canonicalName(tokens[0])
	if name == "" {
		return "", false
	}
	if len(tokens) > 1 {
		if version, ok := versionToken(tokens[1]); ok {
			return name + " " + version, true
		}
	}
	return name, true
}

// IdentityFromPackageID accepts both package id shapes cargo has emitted in
// JSON messages:
//
//	serde 1.0.130 (registry+https://github.com/rust-lang/crates.io-index)
//	registry+https://github.com/rust-lang/crates.io-index#serde@1.0.130
//	path+file:///home/me/my_app#0.1.0
func IdentityFromPackageID(id string) (string, bool) {
	id = strings.TrimSpace(id)
	hash := strings.LastIndex(id, "#")
	if hash < 0 || strings.ContainsAny(id, " \t") || !strings.Contains(id[:hash], "://") {
		return NormalizeIdentity(id)
	}

	source, fragment := id[:hash], id[hash+1:]
	if at := strings.LastIndex(fragment, "@"); at >= 0 {
		return NormalizeIdentity(fragment[:at] + " " + fragment[at+1:])
	}
	if _, isVersion := versionToken(fragment); !isVersion {
		return NormalizeIdentity(fragment)
	}
	return NormalizeIdentity(sourceName(source) + " " + fragment)
}

func canonicalName(token string) string {
	first := []rune(token)[0]
	if !unicode.IsLetter(first) && !unicode.IsDigit(first) && first != '_' {
		return ""
	}
	return strings.ReplaceAll(token, "_", "-")
}

func versionToken(token string) (string, bool) {
	trimmed := strings.TrimPrefix(token, "v")
	if trimmed == "" || trimmed[0] < '0' || trimmed[0] > '9' {
		return "", false
	}
	if _, err := semver.NewVersion(trimmed); err != nil {
		return "", false
	}
	return trimmed, true
}

// sourceName derives a crate name from the last path segment of a source url.
func sourceName(source string) string {
	if q := strings.Index(source, "?"); q >= 0 {
		source = source[:q]
	}
	source = strings.TrimRight(source, "/")
	return strings.TrimSuffix(path.Base(source), ".git")
}
