package executor

import (
	"reflect"
	"strings"
	"testing"
)

func TestBuildNativeCommand_MappedSkillName(t *testing.T) {
	args := ParseArgs([]string{"pods", "--all-namespaces", "-n", "kube-system"})
	argv, err := BuildNativeCommand("kubernetes", "get", args)
	if err != nil {
		t.Fatalf("BuildNativeCommand: %v", err)
	}
	if argv[0] != "kubectl" || argv[1] != "get" {
		t.Fatalf("argv[0:2] = %v, want [kubectl get]", argv[0:2])
	}
	if !containsAll(argv, "pods", "-n", "kube-system", "--all-namespaces") {
		t.Errorf("argv = %v missing expected tokens", argv)
	}
}

func TestBuildNativeCommand_UnknownSkillUsesNameDirectly(t *testing.T) {
	argv, err := BuildNativeCommand("git", "status", nil)
	if err != nil {
		t.Fatalf("BuildNativeCommand: %v", err)
	}
	want := []string{"git", "status"}
	if !reflect.DeepEqual(argv, want) {
		t.Errorf("argv = %v, want %v", argv, want)
	}
}

func TestBuildNativeCommand_Disallowed(t *testing.T) {
	_, err := BuildNativeCommand("rm", "anything", nil)
	if err == nil {
		t.Fatal("expected error for disallowed program")
	}
	if !strings.Contains(err.Error(), "rm") || !strings.Contains(err.Error(), "allowed") {
		t.Errorf("error %q missing program name or remediation hint", err.Error())
	}
}

func TestBuildNativeCommand_FalseValueSkipped(t *testing.T) {
	args := []KV{{Key: "dry-run", Value: "false"}, {Key: "force", Value: "true"}}
	argv, err := BuildNativeCommand("helm", "install", args)
	if err != nil {
		t.Fatalf("BuildNativeCommand: %v", err)
	}
	for _, a := range argv {
		if a == "--dry-run" {
			t.Errorf("argv = %v should not contain --dry-run", argv)
		}
	}
	if !containsAll(argv, "--force") {
		t.Errorf("argv = %v missing --force", argv)
	}
}

func TestBuildNativeCommand_FlagWithValue(t *testing.T) {
	args := []KV{{Key: "namespace", Value: "prod"}}
	argv, err := BuildNativeCommand("kubernetes", "get", args)
	if err != nil {
		t.Fatalf("BuildNativeCommand: %v", err)
	}
	want := []string{"kubectl", "get", "--namespace", "prod"}
	if !reflect.DeepEqual(argv, want) {
		t.Errorf("argv = %v, want %v", argv, want)
	}
}

func containsAll(haystack []string, needles ...string) bool {
	for _, n := range needles {
		found := false
		for _, h := range haystack {
			if h == n {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
