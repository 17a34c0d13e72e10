package textmatch

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
)

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {},
	"with": {}, "by": {}, "from": {}, "up": {}, "about": {}, "into": {},
	"over": {}, "after": {},
	"podcast": {}, "show": {}, "episode": {},
}

// IsStopWord reports whether token is dropped during normalization.
func IsStopWord(token string) bool {
	_, ok := stopWords[token]
	return ok
}

// Normalize reduces a title to its comparable core: entities decoded, any
// parenthetical tail removed, case folded, punctuation stripped and stop words
// dropped. The result is a single-space separated string and Normalize is
// idempotent.
func Normalize(title string) string {
	if title == "" {
		return ""
	}
	text := html.UnescapeString(title)
	text = collapseSpaces(text)
	if idx := strings.IndexByte(text, '('); idx >= 0 {
		text = text[:idx]
	}
	// Casers carry state, so each call gets its own.
	text = cases.Fold().String(text)
	text = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, text)

	fields := strings.Fields(text)
	kept := fields[:0]
	for _, field := range fields {
		if IsStopWord(field) {
			continue
		}
		kept = append(kept, field)
	}
	return strings.Join(kept, " ")
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
