package discovery

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatcher_TriggersOnSkillMDChange(t *testing.T) {
	dir := t.TempDir()
	mdPath := filepath.Join(dir, "SKILL.md")
	if err := os.WriteFile(mdPath, []byte("## Tools\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var calls int32
	w, err := NewWatcher([]string{dir}, func() { atomic.AddInt32(&calls, 1) }, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(mdPath, []byte("## Tools\n\n### get\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if atomic.LoadInt32(&calls) > 0 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("onChange was never called after SKILL.md write")
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()

	var calls int32
	w, err := NewWatcher([]string{dir}, func() { atomic.AddInt32(&calls, 1) }, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	time.Sleep(200 * time.Millisecond)
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("onChange called for an unrelated file write")
	}
}
