package container

import (
	"strconv"
	"strings"
)

// parseMemoryLimit parses a human memory string ("256m", "1g", "512Mi",
// or a bare byte count) into bytes. An empty or unparseable string yields
// 0, meaning "no limit applied" to the caller.
func parseMemoryLimit(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	unit := int64(1)
	lower := strings.ToLower(s)
	switch {
	case strings.HasSuffix(lower, "ki"):
		unit = 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(lower, "mi"):
		unit = 1024 * 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(lower, "gi"):
		unit = 1024 * 1024 * 1024
		s = s[:len(s)-2]
	case strings.HasSuffix(lower, "k"):
		unit = 1000
		s = s[:len(s)-1]
	case strings.HasSuffix(lower, "m"):
		unit = 1024 * 1024
		s = s[:len(s)-1]
	case strings.HasSuffix(lower, "g"):
		unit = 1024 * 1024 * 1024
		s = s[:len(s)-1]
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return int64(n * float64(unit))
}

// parseCPULimit parses a CPU quota ("0.5", "2", "500m" meaning 500
// millicpu) into nanocpus (Docker's NanoCPUs unit, 1e9 per whole CPU).
func parseCPULimit(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if strings.HasSuffix(strings.ToLower(s), "m") {
		milli, err := strconv.ParseFloat(s[:len(s)-1], 64)
		if err != nil {
			return 0
		}
		return int64(milli * 1e6)
	}
	cpus, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int64(cpus * 1e9)
}
