package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

var titleReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&quot;", "",
	" - Part", " Part",
	" V/S ", " vs ",
	" V/s ", " vs ",
	" v/s ", " vs ",
	"–", "-",
	"—", "-",
	"...", "",
)

var (
	qaNumberPattern = regexp.MustCompile(`(?i)Q\s*&\s*A\s*[-\x{2013}\x{2014}_]?\s*(\d+)`)
	qaPattern       = regexp.MustCompile(`(?i)Q\s*&\s*A`)
)

// CleanTitle returns the display form of a video title and the filename base
// derived from it. When date is non-empty (MM-DD-YY) it is appended to the
// filename as "_<date>" after SanitizeFileName.
//
// A trailing parenthetical is dropped only when the title contains both
// brackets, and the cut happens at the last "(".
func CleanTitle(title, date string) (display, filename string) {
	title = html.UnescapeString(title)
	title = strings.Join(strings.Fields(title), " ")
	if strings.Contains(title, "(") && strings.Contains(title, ")") {
		title = strings.TrimSpace(title[:strings.LastIndex(title, "(")])
	}

	title = titleReplacer.Replace(title)
	title = qaNumberPattern.ReplaceAllString(title, "Q&A $1")
	title = qaPattern.ReplaceAllString(title, "Q&A")
	title = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsNumber(r), unicode.IsSpace(r):
			return r
		case r == '_', r == '&', r == '-':
			return r
		default:
			return -1
		}
	}, title)

	display = strings.Join(strings.Fields(title), " ")
	filename = strings.ReplaceAll(display, " ", "_")
	if date = SanitizeFileName(date); date != "" {
		filename += "_" + date
	}
	return display, filename
}
