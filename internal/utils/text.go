package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

var stripPolicy = bluemonday.StripTagsPolicy()

// CleanMessageText normalizes inbound message text before validation and
// classification: NFC normalization, markup stripping, entity decoding, and
// whitespace collapsing. Classifiers see plain text only.
func CleanMessageText(s string) string {
	s = strings.ToValidUTF8(s, "")
	s = norm.NFC.String(s)

	// Decode entities first so encoded tags are recognized by the policy
	s = html.UnescapeString(s)
	s = stripPolicy.Sanitize(s)
	s = html.UnescapeString(s)

	return strings.Join(strings.Fields(s), " ")
}

// Preview truncates text to n runes for log output.
func Preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
