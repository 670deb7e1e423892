package shaping

import "strings"

// applyHeadTail retains the first head lines, or the last tail lines if
// head is 0, clamped to the input's actual line count.
func applyHeadTail(input string, head, tail int) string {
	lines := strings.Split(input, "\n")

	if head > 0 {
		if head > len(lines) {
			head = len(lines)
		}
		return strings.Join(lines[:head], "\n")
	}
	if tail > 0 {
		if tail > len(lines) {
			tail = len(lines)
		}
		return strings.Join(lines[len(lines)-tail:], "\n")
	}
	return input
}
