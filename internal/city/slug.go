// AngelaMos | 2026
// slug.go

package city

import (
	"regexp"
	"strconv"
	"strings"
)

const fallbackSlug = "city"

var separatorRun = regexp.MustCompile(`[\s\W-]+`)

// Slugify lowercases s and collapses every run of whitespace, non-word
// characters and hyphens into one hyphen, trimming hyphens at the edges.
// Slugify(Slugify(s)) == Slugify(s).
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = separatorRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// SlugCandidate returns base for attempt 0 and base-N for attempt N.
func SlugCandidate(base string, attempt int) string {
	if attempt == 0 {
		return base
	}
	return base + "-" + strconv.Itoa(attempt)
}

func baseSlug(name string) string {
	if s := Slugify(name); s != "" {
		return s
	}
	return fallbackSlug
}
