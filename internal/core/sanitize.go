// AngelaMos | 2026
// sanitize.go

package core

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var ugcPolicy = bluemonday.UGCPolicy()

// SanitizeHTML strips scripts, event handlers and unsafe URLs from
// admin-authored rich text.
func SanitizeHTML(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	return ugcPolicy.Sanitize(input)
}
