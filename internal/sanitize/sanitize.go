// Package sanitize cleans text crossing the provider boundary and player input
// arriving from the MCP and play surfaces. Generated text is shown verbatim in
// chat and mail, so control characters, markup and code fences are stripped
// and lengths are capped before anything reaches session state.
package sanitize

import (
	"regexp"
	"strings"
)

// MaxNarrativeLength caps request descriptions and narrative messages.
const MaxNarrativeLength = 1000

// MaxLineLength caps a single generated chat line.
const MaxLineLength = 280

// MaxFieldLength caps single-line fields such as names, roles and titles.
const MaxFieldLength = 80

// MaxSlugLength caps the name part of a persona id.
const MaxSlugLength = 30

var (
	// reXMLTag matches XML/HTML tags including those with attributes and self-closing tags.
	reXMLTag = regexp.MustCompile(`<[/?!]?[a-zA-Z][a-zA-Z0-9]*(?:\s+[^>]*)?/?>|<\?[^?]*\?>`)

	// reMarkdownHeading matches markdown headings at the start of a line.
	reMarkdownHeading = regexp.MustCompile(`(?m)^#{1,6}\s+`)

	// reTripleBacktick matches code fence markers.
	reTripleBacktick = regexp.MustCompile("```+")

	// reExcessiveNewlines matches 3 or more consecutive newlines.
	reExcessiveNewlines = regexp.MustCompile(`\n{3,}`)

	// reWhitespaceRun matches any run of whitespace, newlines included.
	reWhitespaceRun = regexp.MustCompile(`\s+`)

	// reNonSlug matches characters not allowed in an id slug.
	reNonSlug = regexp.MustCompile(`[^a-z0-9]`)

	// reRepeatedHyphens matches 2 or more consecutive hyphens.
	reRepeatedHyphens = regexp.MustCompile(`-+`)
)

// Narrative sanitizes multi-line generated text: request descriptions and the
// initial, completion and failure messages.
//
// The pipeline runs in this order:
//  1. Strip ASCII control characters (except \n, \t)
//  2. Strip XML/HTML tags
//  3. Drop markdown heading markers
//  4. Remove code fence markers
//  5. Collapse excessive newlines (3+ -> 2)
//  6. Trim and truncate to MaxNarrativeLength
func Narrative(input string) string {
	if input == "" {
		return ""
	}
	s := stripControlChars(input)
	s = reXMLTag.ReplaceAllString(s, "")
	s = reMarkdownHeading.ReplaceAllString(s, "")
	s = reTripleBacktick.ReplaceAllString(s, "")
	s = reExcessiveNewlines.ReplaceAllString(s, "\n\n")
	return truncate(strings.TrimSpace(s), MaxNarrativeLength)
}

// Line sanitizes a single generated chat line, flattening it to one line.
// Surrounding quotes that models like to add are removed.
func Line(input string) string {
	s := flatten(input)
	s = strings.Trim(s, `"'`)
	return truncate(strings.TrimSpace(s), MaxLineLength)
}

// Field sanitizes a short single-line field such as a name, role or title.
func Field(input string) string {
	return truncate(flatten(input), MaxFieldLength)
}

// Input sanitizes one line of player input. Only control characters are
// removed; quotes, pipes and redirections are meaningful to the terminal.
// The line is never truncated: history records it in full.
func Input(input string) string {
	s := strings.ReplaceAll(input, "\t", " ")
	s = stripControlChars(s)
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

// Message sanitizes a body the player wrote, such as outbound mail. Control
// characters go; markup and length are kept so the classifier sees the
// whole message.
func Message(input string) string {
	return strings.TrimSpace(stripControlChars(input))
}

// Slug lowercases s, replaces every character outside [a-z0-9] with a hyphen,
// collapses hyphen runs and truncates to MaxSlugLength.
func Slug(s string) string {
	s = reNonSlug.ReplaceAllString(strings.ToLower(s), "-")
	s = reRepeatedHyphens.ReplaceAllString(s, "-")
	if len(s) > MaxSlugLength {
		s = s[:MaxSlugLength]
	}
	return s
}

func flatten(input string) string {
	if input == "" {
		return ""
	}
	s := stripControlChars(input)
	s = reXMLTag.ReplaceAllString(s, "")
	s = reTripleBacktick.ReplaceAllString(s, "")
	s = reWhitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// truncate cuts s to at most max bytes on a rune boundary, marking the cut.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// stripControlChars removes ASCII control characters (0x00-0x1F, 0x7F) from the
// string, except for newline and tab which are preserved.
func stripControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r < 0x20 && r != '\n' && r != '\t') || r == 0x7F {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
