package search

import (
	"strings"
	"unicode"
)

// synonyms is a small, fixed table of domain-synonym expansions applied
// during query normalization. Each key's value is appended to the
// normalized query (not substituted), so both forms remain searchable.
var synonyms = map[string]string{
	"k8s":      "kubernetes",
	"container": "docker",
	"repo":     "repository",
	"vm":       "virtualmachine",
	"db":       "database",
	"pod":      "pods",
}

// Normalize lowercase-folds, strips punctuation, and expands known
// synonyms, preserving alphanumerics and spaces.
func Normalize(query string) string {
	var b strings.Builder
	for _, r := range query {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(' ')
		}
	}

	fields := strings.Fields(b.String())
	var expanded []string
	for _, f := range fields {
		expanded = append(expanded, f)
		if syn, ok := synonyms[f]; ok {
			expanded = append(expanded, syn)
		}
	}
	return strings.Join(expanded, " ")
}
