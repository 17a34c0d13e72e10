package textmatch

import (
	"regexp"
	"strconv"
	"strings"
)

// Ordered most to least general; the first pattern that yields a usable
// number wins.
var partPatterns = []*regexp.Regexp{
	regexp.MustCompile(`part\s*[-_]?\s*(\d+)`),
	regexp.MustCompile(`part(\d+)`),
	regexp.MustCompile(`[-_]part[-_]\s*(\d+)`),
}

// ExtractPart returns the sequence number of a multi-part title such as
// "Sermon Part 2", "sermon_part_2.mp3" or "Sermon-part3". The boolean is false
// when no part marker is present; part 0 is a valid value.
func ExtractPart(text string) (int, bool) {
	lower := strings.ToLower(text)
	for _, pattern := range partPatterns {
		match := pattern.FindStringSubmatch(lower)
		if match == nil {
			continue
		}
		n, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		return n, true
	}
	return 0, false
}

// SamePart reports whether both texts carry a part number and the numbers
// are equal.
func SamePart(a, b string) bool {
	pa, okA := ExtractPart(a)
	if !okA {
		return false
	}
	pb, okB := ExtractPart(b)
	return okB && pa == pb
}
