package service

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"

	"github.com/sakif/job-board/internal/apperror"
)

// Field length caps, counted in runes of the trimmed, NFC-normalised input.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 10000
	MaxContactLength     = 500
	MaxGitHubLength      = 100
)

// markupStart matches a '<' that opens an HTML tag, end tag, comment or
// declaration. Any other '<', as in "<3" or "Jane <jane@example.com>", is
// literal text.
var markupStart = regexp.MustCompile(`^<(?:[A-Za-z][A-Za-z0-9-]*[\s/>]|/[A-Za-z]|[!?])`)

// normalize trims s and puts it in Unicode NFC. Length caps apply to its
// result.
func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// textCleaner removes markup from normalised text before it is stored.
//
// Titles, contacts and GitHub handles are plain text: tags are stripped and
// the result carries no HTML entities. Descriptions are HTML fragments
// restricted to the user-generated-content subset, so their text is
// entity-encoded as HTML requires.
type textCleaner struct {
	line  *bluemonday.Policy
	block *bluemonday.Policy
}

func newTextCleaner() textCleaner {
	return textCleaner{
		line:  bluemonday.StrictPolicy(),
		block: bluemonday.UGCPolicy(),
	}
}

func (c textCleaner) plain(s string) string {
	return html.UnescapeString(c.line.Sanitize(escapeStrayAngles(s)))
}

func (c textCleaner) rich(s string) string {
	return c.block.Sanitize(escapeStrayAngles(s))
}

// escapeStrayAngles entity-encodes every '<' that does not start markup so
// the sanitizer keeps it as text instead of parsing a tag out of it.
func escapeStrayAngles(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '<' && !markupStart.MatchString(s[i:]) {
			b.WriteString("&lt;")
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// checkLength fails when value is longer than max runes.
func checkLength(field, value string, max int) error {
	if utf8.RuneCountInString(value) > max {
		return apperror.ValidationFailed(field, fmt.Sprintf("must be at most %d characters", max))
	}
	return nil
}

func checkRequired(field, value string) error {
	if value == "" {
		return apperror.ValidationFailed(field, "is required")
	}
	return nil
}
