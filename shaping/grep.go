package shaping

import (
	"regexp"
	"strings"
)

// applyGrep retains (or, if invert, rejects) lines matching pattern, and
// reports the number of lines that matched the pattern regardless of
// invert, so callers can report a match count even on inverted filters.
func applyGrep(input, pattern string, invert bool) (string, int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", 0, err
	}

	lines := strings.Split(input, "\n")
	kept := make([]string, 0, len(lines))
	matches := 0
	for _, line := range lines {
		isMatch := re.MatchString(line)
		if isMatch {
			matches++
		}
		if isMatch != invert {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n"), matches, nil
}
