package main

import (
	"os"
	"strings"

	"github.com/lookatitude/skill-engine/manifest"
)

// maskSecrets replaces any ambient environment value that looks like a
// secret (per manifest.IsSecretKey's heuristic) if it appears verbatim in s,
// per spec.md §7's "secrets discovered in any value are replaced with ***
// in rendered errors" rule.
func maskSecrets(s string) string {
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || value == "" || !manifest.IsSecretKey(name) {
			continue
		}
		s = strings.ReplaceAll(s, value, "***")
	}
	return s
}
