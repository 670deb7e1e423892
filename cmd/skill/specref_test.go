package main

import "testing"

func TestParseSpecRef_ManifestWithColonTool(t *testing.T) {
	ref, rest, err := parseSpecRef("kubernetes@prod:get_pods", []string{"--namespace", "default"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.SkillName != "kubernetes" || ref.InstanceName != "prod" || ref.Tool != "get_pods" {
		t.Fatalf("unexpected ref: %+v", ref)
	}
	if len(rest) != 2 || rest[0] != "--namespace" || rest[1] != "default" {
		t.Fatalf("unexpected rest: %v", rest)
	}
}

func TestParseSpecRef_ManifestWithSeparateTool(t *testing.T) {
	ref, rest, err := parseSpecRef("kubernetes", []string{"get_pods", "--namespace", "default"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.SkillName != "kubernetes" || ref.InstanceName != "" || ref.Tool != "get_pods" {
		t.Fatalf("unexpected ref: %+v", ref)
	}
	if len(rest) != 2 {
		t.Fatalf("unexpected rest: %v", rest)
	}
}

func TestParseSpecRef_ManifestMissingTool(t *testing.T) {
	_, _, err := parseSpecRef("kubernetes", nil)
	if err == nil {
		t.Fatal("expected error for missing tool")
	}
}

func TestParseSpecRef_LocalPath(t *testing.T) {
	for _, spec := range []string{"./skills/k8s", "../k8s", "/opt/skills/k8s", "~/skills/k8s"} {
		ref, rest, err := parseSpecRef(spec, []string{"get_pods", "extra"})
		if err != nil {
			t.Fatalf("spec %q: unexpected error: %v", spec, err)
		}
		if ref.LocalPath != spec || ref.Tool != "get_pods" {
			t.Fatalf("spec %q: unexpected ref: %+v", spec, ref)
		}
		if len(rest) != 1 || rest[0] != "extra" {
			t.Fatalf("spec %q: unexpected rest: %v", spec, rest)
		}
	}
}

func TestParseSpecRef_LocalPathMissingTool(t *testing.T) {
	_, _, err := parseSpecRef("./skills/k8s", nil)
	if err == nil {
		t.Fatal("expected error for local path with no trailing tool")
	}
}

func TestParseSpecRef_GitSpecRejected(t *testing.T) {
	for _, spec := range []string{
		"github:owner/repo:get_pods",
		"gitlab:owner/repo",
		"bitbucket:owner/repo",
		"https://github.com/owner/repo",
	} {
		_, _, err := parseSpecRef(spec, nil)
		if err == nil {
			t.Fatalf("spec %q: expected NotImplemented error", spec)
		}
	}
}

func TestSplitRunFlags(t *testing.T) {
	positional, overrides, err := splitRunFlags([]string{
		"kubernetes:get_pods", "--config", "timeout=30s", "--namespace", "default", "--config=region=us-east-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"kubernetes:get_pods", "--namespace", "default"}
	if len(positional) != len(want) {
		t.Fatalf("positional = %v, want %v", positional, want)
	}
	for i, p := range positional {
		if p != want[i] {
			t.Fatalf("positional[%d] = %q, want %q", i, p, want[i])
		}
	}
	if overrides["timeout"] != "30s" || overrides["region"] != "us-east-1" {
		t.Fatalf("unexpected overrides: %v", overrides)
	}
}

func TestSplitRunFlags_MalformedConfig(t *testing.T) {
	if _, _, err := splitRunFlags([]string{"spec", "--config", "not-kv"}); err == nil {
		t.Fatal("expected error for non k=v --config value")
	}
}
