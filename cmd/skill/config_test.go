package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigRunE_WritesInstanceFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	configSetFlags = []string{"timeout=30s", "namespace=default"}
	defer func() { configSetFlags = nil }()

	cmd := configCmd
	if err := configRunE(cmd, []string{"kubernetes", "prod"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path := filepath.Join(home, ".skill-engine", "instances", "kubernetes", "prod.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected config file at %s: %v", path, err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty config file")
	}
}

func TestConfigRunE_DefaultsInstanceName(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	configSetFlags = nil
	if err := configRunE(configCmd, []string{"kubernetes"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path := filepath.Join(home, ".skill-engine", "instances", "kubernetes", "default.toml")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected default.toml: %v", err)
	}
}
