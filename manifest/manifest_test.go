package manifest

import (
	"strings"
	"testing"
)

const sampleTOML = `
version = "1"

[defaults]
capabilities = ["file:read"]

[defaults.config]
timeout = "30s"

[skills.kubernetes]
source = "./skills/kubernetes"
runtime = "native"

[skills.kubernetes.defaults]
capabilities = ["network:access"]

[skills.kubernetes.defaults.config]
context = "default"

[skills.kubernetes.instances.prod]
capabilities = ["secrets:access"]

[skills.kubernetes.instances.prod.config]
context = "prod-cluster"
namespace = "${NAMESPACE:-default}"

[skills.kubernetes.instances.prod.env]
KUBE_TOKEN = "${KUBE_TOKEN:?KUBE_TOKEN must be set for prod}"
`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(sampleTOML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.Version != "1" {
		t.Errorf("Version = %q, want 1", m.Version)
	}
	def, ok := m.Skills["kubernetes"]
	if !ok {
		t.Fatal("skills.kubernetes missing")
	}
	if def.Source != "./skills/kubernetes" {
		t.Errorf("Source = %q", def.Source)
	}
	if _, ok := def.Instances["prod"]; !ok {
		t.Fatal("instances.prod missing")
	}
}

func TestResolve_MergesAndExpands(t *testing.T) {
	m, err := Parse([]byte(sampleTOML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	m.BaseDir = "/srv/manifests"

	t.Setenv("NAMESPACE", "staging")
	t.Setenv("KUBE_TOKEN", "shh")

	ri, err := m.Resolve("kubernetes", "prod")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if ri.Config["timeout"] != "30s" {
		t.Errorf("expected manifest-default config to survive merge, got %+v", ri.Config)
	}
	if ri.Config["context"] != "prod-cluster" {
		t.Errorf("expected instance config to win over skill default, got %q", ri.Config["context"])
	}
	if ri.Config["namespace"] != "staging" {
		t.Errorf("expected ${NAMESPACE:-default} to expand to env value, got %q", ri.Config["namespace"])
	}
	if ri.Env["KUBE_TOKEN"] != "shh" {
		t.Errorf("expected KUBE_TOKEN to expand, got %q", ri.Env["KUBE_TOKEN"])
	}
	if ri.Source != "/srv/manifests/skills/kubernetes" {
		t.Errorf("Source = %q, want resolved against BaseDir", ri.Source)
	}
	wantCaps := map[string]bool{"file:read": true, "network:access": true, "secrets:access": true}
	if len(ri.Capabilities) != len(wantCaps) {
		t.Errorf("Capabilities = %v, want union of all three levels", ri.Capabilities)
	}
	for _, c := range ri.Capabilities {
		if !wantCaps[string(c)] {
			t.Errorf("unexpected capability %q", c)
		}
	}
}

func TestResolve_MissingInstanceFallsBackToEmpty(t *testing.T) {
	m, err := Parse([]byte(sampleTOML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ri, err := m.Resolve("kubernetes", "does-not-exist")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if ri.Config["context"] != "default" {
		t.Errorf("expected skill-level default context to survive, got %q", ri.Config["context"])
	}
}

func TestResolve_UnknownSkill(t *testing.T) {
	m, err := Parse([]byte(sampleTOML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = m.Resolve("does-not-exist", "")
	if err == nil {
		t.Fatal("expected error for unknown skill")
	}
	if _, ok := err.(*SkillNotFoundError); !ok {
		t.Errorf("error = %T, want *SkillNotFoundError", err)
	}
}

func TestResolve_RequiredVariableMissing(t *testing.T) {
	m, err := Parse([]byte(sampleTOML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = m.Resolve("kubernetes", "prod")
	if err == nil {
		t.Fatal("expected error when KUBE_TOKEN is unset")
	}
}

// TestResolve_BareVariableMissing reproduces spec.md §8 scenario 6: a
// manifest references ${OPENAI_API_KEY} with no default or error-message
// form, the variable is unset, and Resolve must raise naming the variable
// rather than silently expanding to "".
func TestResolve_BareVariableMissing(t *testing.T) {
	const toml = `
version = "1"

[skills.openai]
source = "./skills/openai"
runtime = "native"

[skills.openai.instances.default.env]
OPENAI_API_KEY = "${OPENAI_API_KEY}"
`
	m, err := Parse([]byte(toml))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	_, err = m.Resolve("openai", "default")
	if err == nil {
		t.Fatal("expected error when OPENAI_API_KEY is unset")
	}
	if !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Errorf("error = %q, want it to name OPENAI_API_KEY", err.Error())
	}
}
