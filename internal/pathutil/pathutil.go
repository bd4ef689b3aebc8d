// Package pathutil holds the canonical-path helpers shared by the metadata
// store: traversal validation and the join/parent/prefix arithmetic used by
// folder cascades.
//
// A canonical path is absolute, '/'-separated and never contains '.' or '..'
// segments. The root is "/" and has no folder row of its own.
package pathutil

import (
	"net/url"
	"strings"
)

// Root is the implicit top-level folder path.
const Root = "/"

// IsValid reports whether a caller-supplied path is safe to use in a store
// operation. It rejects traversal sequences ("../" and "..\") both literally
// and after percent-decoding, and rejects input that cannot be decoded at
// all. Callers must refuse the operation on false rather than normalize.
func IsValid(path string) bool {
	if containsTraversal(path) {
		return false
	}

	decoded, err := url.QueryUnescape(path)
	if err != nil {
		return false
	}

	return !containsTraversal(decoded)
}

func containsTraversal(path string) bool {
	return strings.Contains(path, "../") || strings.Contains(path, `..\`)
}

// Join computes the canonical path of a child named name under parent.
func Join(parent, name string) string {
	if parent == Root {
		return Root + name
	}
	return parent + "/" + name
}

// Parent returns the canonical path of the containing folder, or Root for
// top-level paths.
func Parent(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return Root
	}
	return path[:idx]
}

// HasPrefix reports whether path lies at or below prefix in the hierarchy.
// This is a segment-boundary check, not a substring check: "/docs2" is not
// under "/docs".
func HasPrefix(path, prefix string) bool {
	if path == prefix {
		return true
	}
	if prefix == Root {
		return strings.HasPrefix(path, Root)
	}
	return strings.HasPrefix(path, prefix+"/")
}

// RewritePrefix substitutes oldPrefix with newPrefix at the front of path.
// The caller must have established HasPrefix(path, oldPrefix) first.
func RewritePrefix(path, oldPrefix, newPrefix string) string {
	if path == oldPrefix {
		return newPrefix
	}
	return newPrefix + path[len(oldPrefix):]
}
