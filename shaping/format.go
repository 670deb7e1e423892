package shaping

import (
	"encoding/json"
	"strconv"
	"strings"
)

// applyFormat renders input per the requested Format. json passes input
// through unchanged if it doesn't parse, matching "pretty-print if
// parseable" -- format is advisory, never an error on malformed input.
func applyFormat(input string, format Format) (string, error) {
	switch format {
	case FormatJSON:
		var v any
		if err := json.Unmarshal([]byte(input), &v); err != nil {
			return input, nil
		}
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return input, nil
		}
		return string(b), nil

	case FormatLines:
		lines := strings.Split(input, "\n")
		b, err := json.Marshal(lines)
		if err != nil {
			return "", err
		}
		return string(b), nil

	case FormatCount:
		lines := strings.Split(input, "\n")
		return strconv.Itoa(len(lines)), nil

	case FormatCompact:
		lines := strings.Split(input, "\n")
		kept := make([]string, 0, len(lines))
		for _, l := range lines {
			if trimmed := strings.TrimSpace(l); trimmed != "" {
				kept = append(kept, trimmed)
			}
		}
		return strings.Join(kept, "\n"), nil

	default:
		return input, nil
	}
}
