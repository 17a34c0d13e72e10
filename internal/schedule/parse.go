package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Entry is one episode the message asks to publish. Date carries only the
// calendar day, in UTC.
type Entry struct {
	Title string
	Date  time.Time
}

var (
	longDatePattern  = regexp.MustCompile(`\b([A-Za-z]{3,9})\.? (\d{1,2})(?:st|nd|rd|th)?,? (\d{4})\b`)
	shortDatePattern = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{2}|\d{4}))?\b`)
	partListPattern  = regexp.MustCompile(`(?i)\bpart\s*(\d+)((?:\s*(?:,\s*(?:&|and)?|&|and)\s*\d+)+)`)
	digitsPattern    = regexp.MustCompile(`\d+`)
)

// ParseMessage splits message into entries without any external help. Lines
// without a recognizable date are ignored. "part 1 & 2" and "part 1, 2 & 3"
// expand to one entry per part; a line without a part list yields a single
// entry. Dates without a year ("12/23") use referenceYear.
func ParseMessage(message string, referenceYear int) []Entry {
	var entries []Entry
	for line := range strings.Lines(message) {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "*-•"))
		if line == "" {
			continue
		}
		date, start, ok := findDate(line, referenceYear)
		if !ok {
			continue
		}
		title := trimTitle(line[:start])
		if title == "" {
			continue
		}
		for _, t := range expandParts(title) {
			entries = append(entries, Entry{Title: t, Date: date})
		}
	}
	return entries
}

func findDate(line string, referenceYear int) (time.Time, int, bool) {
	for _, m := range longDatePattern.FindAllStringSubmatchIndex(line, -1) {
		value := fmt.Sprintf("%s %s %s", line[m[2]:m[3]], line[m[4]:m[5]], line[m[6]:m[7]])
		for _, layout := range []string{"January 2 2006", "Jan 2 2006"} {
			if d, err := time.Parse(layout, value); err == nil {
				return d, m[0], true
			}
		}
	}
	if m := shortDatePattern.FindStringSubmatchIndex(line); m != nil {
		month, _ := strconv.Atoi(line[m[2]:m[3]])
		day, _ := strconv.Atoi(line[m[4]:m[5]])
		year := referenceYear
		if m[6] >= 0 {
			year, _ = strconv.Atoi(line[m[6]:m[7]])
			if year < 100 {
				year += 2000
			}
		}
		d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		if month >= 1 && month <= 12 && d.Day() == day {
			return d, m[0], true
		}
	}
	return time.Time{}, 0, false
}

func trimTitle(s string) string {
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s), "-–,:"))
}

func expandParts(title string) []string {
	m := partListPattern.FindStringSubmatchIndex(title)
	if m == nil {
		return []string{title}
	}
	base := trimTitle(title[:m[0]])
	numbers := append([]string{title[m[2]:m[3]]}, digitsPattern.FindAllString(title[m[4]:m[5]], -1)...)
	out := make([]string, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, strings.TrimSpace(base+" part "+n))
	}
	return out
}
