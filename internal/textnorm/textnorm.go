// Package textnorm turns raw note content into the canonical plain text used
// for embedding, previews, and change detection.
package textnorm

import (
	"hash/fnv"
	"html"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultPreviewLength is the number of characters kept by Preview.
	DefaultPreviewLength = 200

	// Ellipsis is appended to text that was cut short.
	Ellipsis = "..."
)

// tagPattern matches comments and tag-shaped tokens: a letter right after
// "<" or "</", a name, then whitespace, "/" or ">". "a < b" and
// "<https://example.com>" are left alone.
var tagPattern = regexp.MustCompile(`<!--[\s\S]*?-->|</?[A-Za-z][A-Za-z0-9-]*(?:\s[^<>]*)?/?>`)

// ToPlainText strips markup tags, decodes entities, and collapses every run
// of whitespace to a single space. Whitespace-only input yields "".
func ToPlainText(raw string) string {
	if raw == "" {
		return ""
	}
	// Tags become spaces so "<p>a</p><p>b</p>" does not glue words together.
	text := tagPattern.ReplaceAllString(raw, " ")
	text = html.UnescapeString(text)
	return strings.Join(strings.Fields(text), " ")
}

// BuildEmbeddingText returns the canonical text embedded for a note: the
// title alone when the normalized body is empty, otherwise the title and
// body separated by a blank line.
func BuildEmbeddingText(title, raw string) string {
	body := ToPlainText(raw)
	if body == "" {
		return title
	}
	return title + "\n\n" + body
}

// Preview returns the normalized text of raw cut to maxLen characters, with
// an ellipsis appended when anything was dropped. A non-positive maxLen uses
// DefaultPreviewLength.
func Preview(raw string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultPreviewLength
	}
	return Truncate(ToPlainText(raw), maxLen, Ellipsis)
}

// Truncate cuts s to at most maxLen characters and appends suffix when it
// was cut. Lengths are counted in code points, never splitting a rune.
func Truncate(s string, maxLen int, suffix string) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	n := 0
	for i := range s {
		if n == maxLen {
			return s[:i] + suffix
		}
		n++
	}
	return s
}

// Length returns the length of s in characters.
func Length(s string) int {
	return utf8.RuneCountInString(s)
}

// Fingerprint returns a short deterministic token for text. It is only
// meant to tell whether text changed, not to identify content.
func Fingerprint(text string) string {
	h := fnv.New64a()
	h.Write([]byte(text))
	return strconv.FormatUint(h.Sum64(), 36)
}
