// Package authz implements the allow-list authorization gate. User
// identifiers arrive hand-typed, often from Japanese IMEs, so both the
// configured list and every checked id go through the same folding
// before comparison.
package authz

import (
	"strings"

	"golang.org/x/text/width"
)

// NormalizeUserID strips zero-width characters, folds full-width
// letters/digits/punctuation (including ideographic space and ＃) to
// their half-width forms, and trims surrounding whitespace.
func NormalizeUserID(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\u200b', '\u200c', '\u200d', '\ufeff':
			return -1
		}
		return r
	}, s)
	s = width.Fold.String(s)
	return strings.TrimSpace(s)
}

// Gate reports whether a user id may use the service. The core calls
// it before any state access; it is injected rather than looked up
// globally.
type Gate func(userID string) bool

// AllowAll admits every caller. Open/test mode, not a secure default.
func AllowAll() Gate {
	return func(string) bool { return true }
}

// FromList builds a Gate from a newline-delimited allow-list. Entries
// are normalized the same way as input; '#' lines are comments. An
// empty list admits everyone.
func FromList(raw string) Gate {
	allowed := ParseList(raw)
	if len(allowed) == 0 {
		return AllowAll()
	}
	set := make(map[string]struct{}, len(allowed))
	for _, id := range allowed {
		set[id] = struct{}{}
	}
	return func(userID string) bool {
		_, ok := set[NormalizeUserID(userID)]
		return ok
	}
}

// ParseList returns the normalized non-comment entries of a
// newline-delimited allow-list.
func ParseList(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		id := NormalizeUserID(strings.TrimSuffix(line, "\r"))
		if id == "" || strings.HasPrefix(id, "#") {
			continue
		}
		out = append(out, id)
	}
	return out
}
