package shaping

import (
	"encoding/json"
	"fmt"
	"strings"
)

// applyTruncate shrinks input to fit within maxOutput per strategy. Callers
// only invoke this once len(input) already exceeds maxOutput.
func applyTruncate(input string, maxOutput int, strategy TruncateStrategy) string {
	switch strategy {
	case TruncateTail:
		return truncateLines(input, maxOutput, false)
	case TruncateMiddle:
		return truncateMiddle(input, maxOutput)
	case TruncateSmart:
		if out, ok := smartTruncateJSON(input, maxOutput); ok {
			return out
		}
		return truncateLines(input, maxOutput, true)
	case TruncateHead:
		return truncateLines(input, maxOutput, true)
	default:
		return truncateLines(input, maxOutput, true)
	}
}

// truncateLines keeps lines from the head or tail until the byte budget
// would be exceeded, appending a notice line recording how many lines
// were dropped.
func truncateLines(input string, maxLen int, fromHead bool) string {
	lines := strings.Split(input, "\n")

	if fromHead {
		var b strings.Builder
		kept := 0
		for i, l := range lines {
			candidate := l
			if i > 0 {
				candidate = "\n" + candidate
			}
			if b.Len()+len(candidate) > maxLen {
				break
			}
			b.WriteString(candidate)
			kept++
		}
		if omitted := len(lines) - kept; omitted > 0 {
			fmt.Fprintf(&b, "\n... [truncated: %d lines omitted]", omitted)
		}
		return b.String()
	}

	var keptLines []string
	total := 0
	for i := len(lines) - 1; i >= 0; i-- {
		l := lines[i]
		add := len(l)
		if i != len(lines)-1 {
			add++ // separator newline
		}
		if total+add > maxLen {
			break
		}
		keptLines = append([]string{l}, keptLines...)
		total += add
	}
	result := strings.Join(keptLines, "\n")
	if omitted := len(lines) - len(keptLines); omitted > 0 {
		result = fmt.Sprintf("... [truncated: %d lines omitted]\n", omitted) + result
	}
	return result
}

// truncateMiddle keeps a head and tail half of the byte budget, dropping
// the middle behind a notice.
func truncateMiddle(input string, maxLen int) string {
	const notice = "\n... [truncated: middle omitted] ...\n"
	budget := maxLen - len(notice)
	if budget < 0 {
		budget = 0
	}
	headLen := budget / 2
	tailLen := budget - headLen
	if headLen > len(input) {
		headLen = len(input)
	}
	if tailLen > len(input)-headLen {
		tailLen = len(input) - headLen
	}
	return input[:headLen] + notice + input[len(input)-tailLen:]
}

// smartTruncateJSON drops elements from the middle of a top-level JSON
// array, inserting a sentinel object recording how many were omitted,
// until the re-marshaled array fits maxLen. Returns ok=false if input
// isn't a top-level JSON array, so the caller falls back to text handling.
func smartTruncateJSON(input string, maxLen int) (string, bool) {
	var arr []any
	if err := json.Unmarshal([]byte(input), &arr); err != nil {
		return "", false
	}

	kept := arr
	omitted := 0
	for {
		b, err := json.Marshal(withOmittedSentinel(kept, omitted))
		if err != nil {
			return "", false
		}
		if len(b) <= maxLen || len(kept) == 0 {
			return string(b), true
		}
		mid := len(kept) / 2
		next := make([]any, 0, len(kept)-1)
		next = append(next, kept[:mid]...)
		next = append(next, kept[mid+1:]...)
		kept = next
		omitted++
	}
}

func withOmittedSentinel(kept []any, omitted int) []any {
	if omitted == 0 {
		return kept
	}
	mid := len(kept) / 2
	out := make([]any, 0, len(kept)+1)
	out = append(out, kept[:mid]...)
	out = append(out, map[string]any{"_omitted": omitted})
	out = append(out, kept[mid:]...)
	return out
}
