// Package naming turns free-form game titles into comparison keys.
//
// Titles reach smoke from three places that never agree on spelling: the catalogue's display
// name, the folder and file names inside an archive, and the directory a user ends up with on
// disk. Normalize maps all of them onto the same key so they can be compared.
package naming

import (
	"regexp"
	"strings"
)

var (
	parenthesized = regexp.MustCompile(`\([^)]*\)`)
	separators    = regexp.MustCompile(`[-_]`)
	prefixedVer   = regexp.MustCompile(`(?i)\b(?:v|ver|version)[\s_-]*\d+(?:\.\d+)*\b`)
	dottedVer     = regexp.MustCompile(`\b\d+(?:\.\d+)+\b`)
	whitespace    = regexp.MustCompile(`\s+`)
	spacers       = regexp.MustCompile(`[\s_-]+`)
)

// Normalize returns the comparison key for a title. The steps run in a fixed order because
// later ones rely on the earlier ones:
//
//  1. lower-case
//  2. drop parenthesized groups, "Title (GOG)" -> "title "
//  3. turn '-' and '_' into spaces
//  4. drop version tokens with a v/ver/version prefix, "game v2" -> "game "
//  5. drop bare dotted versions such as "1.2.3"
//  6. collapse whitespace and trim
//
// A lone integer is not a version, so "Left 4 Dead" keeps its 4.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	t := strings.ToLower(raw)
	t = parenthesized.ReplaceAllString(t, " ")
	t = separators.ReplaceAllString(t, " ")
	t = prefixedVer.ReplaceAllString(t, " ")
	t = dottedVer.ReplaceAllString(t, " ")
	t = whitespace.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// Key is Normalize with every remaining space, '-' and '_' removed. It is meant for substring
// search where word boundaries do not matter.
func Key(raw string) string {
	return spacers.ReplaceAllString(Normalize(raw), "")
}

// SameTitle reports whether a and b name the same game.
func SameTitle(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// MatchesQuery reports whether name matches a search query. An empty query matches everything.
func MatchesQuery(name, query string) bool {
	return strings.Contains(Key(name), Key(query))
}

// Compact removes spaces, '-' and '_' but keeps the case, "Left_4_Dead" -> "Left4Dead".
// Archive names and the executables inside them often differ only by separators.
func Compact(raw string) string {
	return spacers.ReplaceAllString(raw, "")
}
