package importer

import (
	"regexp"
	"strings"
)

var nonSlugRun = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases s, replaces each run of characters outside [a-z0-9]
// with one hyphen and strips leading and trailing hyphens.
func Slugify(s string) string {
	slug := nonSlugRun.ReplaceAllString(strings.ToLower(s), "-")
	return strings.Trim(slug, "-")
}
