package vm

import (
	"testing"

	"github.com/tetratelabs/wazero"

	"github.com/lookatitude/skill-engine/executor"
	"github.com/lookatitude/skill-engine/skill"
)

func TestApplyEnvironmentBucket_OnlyInstanceEnv(t *testing.T) {
	instance := skill.ResolvedInstance{Env: map[string]string{"NAMESPACE": "prod"}}
	cfg := applyEnvironmentBucket(wazero.NewModuleConfig(), instance)
	if cfg == nil {
		t.Fatal("expected non-nil ModuleConfig")
	}
}

func TestApplyFilesystemBucket_NoAllowedPaths(t *testing.T) {
	instance := skill.ResolvedInstance{}
	cfg, cleanup, err := applyFilesystemBucket(wazero.NewModuleConfig(), instance)
	if err != nil {
		t.Fatalf("applyFilesystemBucket: %v", err)
	}
	defer cleanup()
	if cfg == nil {
		t.Fatal("expected non-nil ModuleConfig")
	}
}

func TestApplyFilesystemBucket_WritablePaths(t *testing.T) {
	instance := skill.ResolvedInstance{
		AllowedPaths: []string{"/data", "/etc/readonly"},
		Config:       map[string]string{writablePathsKey: "/data"},
	}
	cfg, cleanup, err := applyFilesystemBucket(wazero.NewModuleConfig(), instance)
	if err != nil {
		t.Fatalf("applyFilesystemBucket: %v", err)
	}
	defer cleanup()
	if cfg == nil {
		t.Fatal("expected non-nil ModuleConfig")
	}
}

func TestHostAllowed(t *testing.T) {
	tests := []struct {
		name    string
		host    string
		allowed []string
		blocked []string
		want    bool
	}{
		{"no lists allows anything", "example.com", nil, nil, true},
		{"blocked wins", "evil.com", []string{"evil.com"}, []string{"evil.com"}, false},
		{"allowlist restricts", "example.com", []string{"good.com"}, nil, false},
		{"allowlist permits", "good.com", []string{"good.com"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hostAllowed(tt.host, tt.allowed, tt.blocked); got != tt.want {
				t.Errorf("hostAllowed(%q) = %v, want %v", tt.host, got, tt.want)
			}
		})
	}
}

func TestArgvFromKVs(t *testing.T) {
	got := argvFromKVs([]executor.KV{
		{Key: "arg", Value: "pods"},
		{Key: "all-namespaces", Value: "true"},
		{Key: "dry-run", Value: "false"},
		{Key: "n", Value: "kube-system"},
	})
	want := []string{"pods", "--all-namespaces", "-n", "kube-system"}
	if len(got) != len(want) {
		t.Fatalf("argv = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("argv[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
