package shaping

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// segmentRe parses one dot-separated path segment: a field name with an
// optional trailing bracket of the form `[]`, `[n]`, or `[a:b]` (a and b
// each optional, defaulting to the slice's bounds). This is deliberately
// narrower than real jq: no filters, pipes, or object construction.
var segmentRe = regexp.MustCompile(`^([A-Za-z0-9_]+)(\[([0-9]*)(:([0-9]*))?\])?$`)

// unwrapped marks a `field[]` result: each element's remaining path has
// already been navigated, and rendering joins the elements as newline
// separated scalars rather than re-marshaling as a JSON array.
type unwrapped struct{ values []any }

// applyJQ extracts path from input if input is valid JSON. The second
// return value is false (with no error) when input isn't JSON, matching
// the contract's "when the output is valid JSON, extract a path" wording
// -- the step is a no-op rather than a failure on non-JSON input.
func applyJQ(input, path string) (string, bool, error) {
	var data any
	if err := json.Unmarshal([]byte(input), &data); err != nil {
		return "", false, nil
	}

	segments := make([]string, 0, 4)
	for _, s := range strings.Split(path, ".") {
		if s != "" {
			segments = append(segments, s)
		}
	}

	result, err := navigate(data, segments)
	if err != nil {
		return "", false, err
	}
	return renderJQResult(result), true, nil
}

func navigate(cur any, segments []string) (any, error) {
	if len(segments) == 0 {
		return cur, nil
	}
	seg, rest := segments[0], segments[1:]

	m := segmentRe.FindStringSubmatch(seg)
	if m == nil {
		return nil, fmt.Errorf("shaping: invalid jq path segment %q", seg)
	}
	field, bracket, startStr, hasColon, endStr := m[1], m[2], m[3], m[4] != "", m[5]

	obj, ok := cur.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("shaping: cannot access field %q: not an object", field)
	}
	val, ok := obj[field]
	if !ok {
		return nil, fmt.Errorf("shaping: field %q not found", field)
	}

	if bracket == "" {
		return navigate(val, rest)
	}

	arr, ok := val.([]any)
	if !ok {
		return nil, fmt.Errorf("shaping: field %q is not an array", field)
	}

	switch {
	case startStr == "" && !hasColon:
		// field[] -- navigate the remaining path per element, then join as scalars.
		values := make([]any, len(arr))
		for i, elem := range arr {
			v, err := navigate(elem, rest)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		return unwrapped{values: values}, nil

	case hasColon:
		start, end := 0, len(arr)
		if startStr != "" {
			start, _ = strconv.Atoi(startStr)
		}
		if endStr != "" {
			end, _ = strconv.Atoi(endStr)
		}
		if start < 0 {
			start = 0
		}
		if end > len(arr) {
			end = len(arr)
		}
		if start > end {
			start = end
		}
		return navigate(arr[start:end], rest)

	default:
		idx, _ := strconv.Atoi(startStr)
		if idx < 0 || idx >= len(arr) {
			return nil, fmt.Errorf("shaping: index %d out of range", idx)
		}
		return navigate(arr[idx], rest)
	}
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == math.Trunc(t) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

func renderJQResult(v any) string {
	switch t := v.(type) {
	case unwrapped:
		lines := make([]string, len(t.values))
		for i, e := range t.values {
			lines[i] = scalarString(e)
		}
		return strings.Join(lines, "\n")
	case string, float64, bool, nil:
		return scalarString(t)
	default:
		b, err := json.MarshalIndent(t, "", "  ")
		if err != nil {
			return ""
		}
		return string(b)
	}
}
