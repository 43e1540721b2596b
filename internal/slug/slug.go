// Package slug derives and checks the URL-safe identifiers used to look up
// published posts.
package slug

import (
	"regexp"
	"strings"
)

var (
	nonAlnumRun = regexp.MustCompile(`[^a-z0-9]+`)
	validSlug   = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)
)

// Derive lower-cases title, collapses every run of characters outside
// [a-z0-9] into a single hyphen and trims one hyphen from each end.
func Derive(title string) string {
	s := nonAlnumRun.ReplaceAllString(strings.ToLower(title), "-")
	s = strings.TrimPrefix(s, "-")
	return strings.TrimSuffix(s, "-")
}

// Valid reports whether s may be stored as a slug.
func Valid(s string) bool {
	return validSlug.MatchString(s)
}
