package executor

import (
	"reflect"
	"testing"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   []KV
	}{
		{
			name:   "key=value",
			tokens: []string{"name=world"},
			want:   []KV{{Key: "name", Value: "world"}},
		},
		{
			name:   "long flag with value",
			tokens: []string{"--name", "world"},
			want:   []KV{{Key: "name", Value: "world"}},
		},
		{
			name:   "long flag with equals",
			tokens: []string{"--name=world"},
			want:   []KV{{Key: "name", Value: "world"}},
		},
		{
			name:   "bare long flag followed by another flag",
			tokens: []string{"--verbose", "--quiet"},
			want:   []KV{{Key: "verbose", Value: "true"}, {Key: "quiet", Value: "true"}},
		},
		{
			name:   "trailing bare long flag",
			tokens: []string{"--verbose"},
			want:   []KV{{Key: "verbose", Value: "true"}},
		},
		{
			name:   "short flag with value",
			tokens: []string{"-n", "kube-system"},
			want:   []KV{{Key: "n", Value: "kube-system"}},
		},
		{
			name:   "trailing short flag",
			tokens: []string{"-A"},
			want:   []KV{{Key: "A", Value: "true"}},
		},
		{
			name:   "bare positional",
			tokens: []string{"pods"},
			want:   []KV{{Key: "arg", Value: "pods"}},
		},
		{
			name:   "mixed",
			tokens: []string{"pods", "--all-namespaces", "-n", "kube-system"},
			want: []KV{
				{Key: "arg", Value: "pods"},
				{Key: "all-namespaces", Value: "true"},
				{Key: "n", Value: "kube-system"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseArgs(tt.tokens)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseArgs(%v) = %+v, want %+v", tt.tokens, got, tt.want)
			}
		})
	}
}
