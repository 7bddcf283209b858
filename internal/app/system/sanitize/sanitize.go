// internal/app/system/sanitize/sanitize.go

// Package sanitize cleans resident-supplied text before it is stored.
// Join request fields and review comments come straight from client input
// and end up rendered in admin dashboards.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text strips all HTML from a free-text field and trims surrounding
// whitespace. Entities introduced by the policy are decoded back so the
// stored value is plain text, not escaped markup.
func Text(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// Fields sanitizes each value in place and returns the slice for chaining.
func Fields(values ...*string) {
	for _, v := range values {
		if v != nil {
			*v = Text(*v)
		}
	}
}
