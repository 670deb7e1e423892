package shaping

import (
	"fmt"
	"strings"
)

// Shape runs the fixed five-step pipeline over input: grep, head/tail,
// jq-lite extraction, format, max_output truncation. Each step is skipped
// when its Options fields are unset. Shape never signals failure through a
// success flag -- callers that need one treat a non-nil error as a shaping
// failure distinct from the underlying execution's own success bit.
func Shape(input string, opts Options) (Result, error) {
	res := Result{OriginalLength: len(input)}
	out := input

	if opts.Grep != "" {
		filtered, matches, err := applyGrep(out, opts.Grep, opts.GrepInvert)
		if err != nil {
			return Result{}, fmt.Errorf("shaping: grep: %w", err)
		}
		out = filtered
		res.GrepMatches = &matches
		res.Steps = append(res.Steps, "grep")
	}

	if opts.Head > 0 || opts.Tail > 0 {
		out = applyHeadTail(out, opts.Head, opts.Tail)
		if opts.Head > 0 {
			res.Steps = append(res.Steps, "head")
		} else {
			res.Steps = append(res.Steps, "tail")
		}
	}

	if opts.JQ != "" {
		extracted, ok, err := applyJQ(out, opts.JQ)
		if err != nil {
			return Result{}, fmt.Errorf("shaping: jq: %w", err)
		}
		if ok {
			out = extracted
			res.Steps = append(res.Steps, "jq")
		}
	}

	if opts.Format != "" {
		formatted, err := applyFormat(out, opts.Format)
		if err != nil {
			return Result{}, fmt.Errorf("shaping: format: %w", err)
		}
		out = formatted
		res.Steps = append(res.Steps, string(opts.Format))
	}

	if opts.MaxOutput > 0 && len(out) > opts.MaxOutput {
		out = applyTruncate(out, opts.MaxOutput, opts.Truncate)
		res.Truncated = true
		res.Steps = append(res.Steps, "max_output")
	}

	res.Output = out
	res.FinalLength = len(out)

	if opts.IncludeMetadata {
		res.Output = renderMetadata(res) + res.Output
	}

	return res, nil
}

func renderMetadata(res Result) string {
	var b strings.Builder
	b.WriteString("--- metadata ---\n")
	fmt.Fprintf(&b, "original_length: %d\n", res.OriginalLength)
	fmt.Fprintf(&b, "final_length: %d\n", res.FinalLength)
	fmt.Fprintf(&b, "truncated: %t\n", res.Truncated)
	fmt.Fprintf(&b, "steps: %s\n", strings.Join(res.Steps, ","))
	if res.GrepMatches != nil {
		fmt.Fprintf(&b, "grep_matches: %d\n", *res.GrepMatches)
	}
	b.WriteString("--- end metadata ---\n")
	return b.String()
}
