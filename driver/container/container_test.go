package container

import (
	"sort"
	"testing"

	"github.com/lookatitude/skill-engine/executor"
)

func TestParseMemoryLimit(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"", 0},
		{"512m", 512 * 1024 * 1024},
		{"1g", 1024 * 1024 * 1024},
		{"256Mi", 256 * 1024 * 1024},
		{"bogus", 0},
	}
	for _, tt := range tests {
		if got := parseMemoryLimit(tt.in); got != tt.want {
			t.Errorf("parseMemoryLimit(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseCPULimit(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"", 0},
		{"1", 1e9},
		{"0.5", 5e8},
		{"500m", 5e8},
	}
	for _, tt := range tests {
		if got := parseCPULimit(tt.in); got != int64(tt.want) {
			t.Errorf("parseCPULimit(%q) = %d, want %d", tt.in, got, int64(tt.want))
		}
	}
}

func TestVolumeBinds(t *testing.T) {
	binds := volumeBinds(map[string]string{"/host/data": "/data"})
	if len(binds) != 1 || binds[0] != "/host/data:/data" {
		t.Errorf("volumeBinds = %v", binds)
	}
	if volumeBinds(nil) != nil {
		t.Error("expected nil binds for empty volumes")
	}
}

func TestEnvSlice_InstanceOverridesContainer(t *testing.T) {
	out := envSlice(map[string]string{"FOO": "instance"}, map[string]string{"FOO": "container", "BAR": "baz"})
	sort.Strings(out)
	want := []string{"BAR=baz", "FOO=instance"}
	if len(out) != len(want) {
		t.Fatalf("envSlice = %v, want %v", out, want)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("envSlice[%d] = %q, want %q", i, out[i], want[i])
		}
	}
}

func TestArgvFromKVs(t *testing.T) {
	got := argvFromKVs([]executor.KV{
		{Key: "arg", Value: "apply"},
		{Key: "force", Value: "true"},
		{Key: "dry-run", Value: "false"},
	})
	want := []string{"apply", "--force"}
	if len(got) != len(want) {
		t.Fatalf("argv = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("argv[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNetworkModeOrDefault(t *testing.T) {
	if got := networkModeOrDefault(""); got != "none" {
		t.Errorf("networkModeOrDefault(\"\") = %q, want none", got)
	}
	if got := networkModeOrDefault("bridge"); got != "bridge" {
		t.Errorf("networkModeOrDefault(bridge) = %q", got)
	}
}

func TestAllowedNetworkModes(t *testing.T) {
	for _, mode := range []string{"", "none", "bridge", "host"} {
		if !allowedNetworkModes[mode] {
			t.Errorf("expected %q to be an allowed network mode", mode)
		}
	}
	if allowedNetworkModes["container:foo"] {
		t.Error("expected container: modes to be rejected (closed set)")
	}
}
