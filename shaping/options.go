// Package shaping implements the context-engineering output shaper applied
// to execute results before they reach an agent: a fixed-order pipeline of
// grep, head/tail, jq-lite extraction, format, and max-output truncation,
// expressed as pure functions over (string, Options).
package shaping

// Format is the closed set of output formats the format step can produce.
type Format string

const (
	FormatJSON    Format = "json"
	FormatLines   Format = "lines"
	FormatCount   Format = "count"
	FormatCompact Format = "compact"
)

// TruncateStrategy is the closed set of strategies the max_output step uses
// when the shaped output still exceeds the configured limit.
type TruncateStrategy string

const (
	TruncateHead   TruncateStrategy = "head"
	TruncateTail   TruncateStrategy = "tail"
	TruncateMiddle TruncateStrategy = "middle"
	TruncateSmart  TruncateStrategy = "smart"
)

// Options configures one call to Shape. Zero-valued fields skip their step:
// Grep == "" skips grep, Head == 0 && Tail == 0 skips head/tail, JQ == ""
// skips extraction, Format == "" skips formatting, MaxOutput <= 0 skips
// truncation.
type Options struct {
	Grep       string
	GrepInvert bool

	// Head and Tail are mutually exclusive; if both are set, Head wins.
	Head int
	Tail int

	JQ string

	Format Format

	MaxOutput int
	Truncate  TruncateStrategy

	IncludeMetadata bool
}

// Result is the outcome of one Shape call.
type Result struct {
	Output         string
	Steps          []string
	OriginalLength int
	FinalLength    int
	Truncated      bool
	GrepMatches    *int
}
