package feed

import (
	"html"
	"regexp"
	"strings"
)

// Feed descriptions arrive as HTML, usually wrapped in CDATA markers. For
// display we only want readable plain text: links keep their target in
// parentheses, everything else is stripped, whitespace collapses to single
// spaces.
var (
	htmlLinkPattern   = regexp.MustCompile(`<a\s+(?:[^>]*?\s+)?href="([^"]+)"[^>]*>([^<]+)</a>`)
	htmlBreakPattern  = regexp.MustCompile(`(?i)<(?:br|/p|/div|/li)\s*/?>`)
	htmlTagPattern    = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// FlattenDescription converts an HTML description into plain text.
func FlattenDescription(text string) string {
	if text == "" {
		return ""
	}

	// CDATA markers sometimes survive into the element text
	text = strings.ReplaceAll(text, "<![CDATA[", "")
	text = strings.ReplaceAll(text, "]]>", "")

	text = html.UnescapeString(text)

	// Keep link targets readable before stripping tags
	text = htmlLinkPattern.ReplaceAllStringFunc(text, func(match string) string {
		submatches := htmlLinkPattern.FindStringSubmatch(match)
		if len(submatches) >= 3 {
			return submatches[2] + " (" + submatches[1] + ")"
		}
		return match
	})

	text = htmlBreakPattern.ReplaceAllString(text, " ")
	text = htmlTagPattern.ReplaceAllString(text, "")
	text = whitespacePattern.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}
