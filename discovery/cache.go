package discovery

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lookatitude/skill-engine/skill"
)

// actionVerbs is the fixed vocabulary intersected against a tool's
// lower-cased name+description words to derive its action-verb set.
var actionVerbs = map[string]bool{
	"get": true, "list": true, "create": true, "update": true, "delete": true,
	"apply": true, "deploy": true, "run": true, "build": true, "push": true,
	"pull": true, "start": true, "stop": true, "restart": true, "scale": true,
	"watch": true, "describe": true, "logs": true, "exec": true, "query": true,
	"search": true, "fetch": true, "send": true, "install": true, "remove": true,
	"configure": true, "validate": true, "plan": true, "destroy": true,
	"rollback": true, "backup": true, "restore": true,
}

// markers is the set of (last_wasm_mtime, last_skill_md_hash) an entry was
// built from; it's revalidated against the filesystem on every lookup.
type markers struct {
	wasmModTime time.Time
	skillMDHash string
}

type entry struct {
	records []skill.ToolRecord
	markers markers
}

// RuntimeToolSource reports the tools a compiled artifact exposes at
// runtime, independent of any SKILL.md documentation.
type RuntimeToolSource interface {
	RuntimeTools(ctx context.Context, skillDir string) ([]skill.Tool, error)
}

// Cache is a pure read-model over installed skill directories: it is safe
// for concurrent reads and is never written to by the search pipeline
// (which is the sole index writer on the embedding/BM25 side).
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	runtime RuntimeToolSource
	now     func() time.Time
}

// NewCache builds an empty Cache. runtime may be nil if no skill in use
// reports tools at runtime (markdown-only skills).
func NewCache(runtime RuntimeToolSource) *Cache {
	return &Cache{entries: make(map[string]entry), runtime: runtime, now: time.Now}
}

// ToolRecords returns the current ToolRecord set for skillName, rebuilding
// from skillDir if the cached entry's markers no longer match disk.
func (c *Cache) ToolRecords(ctx context.Context, skillName, instanceName, skillDir string) ([]skill.ToolRecord, error) {
	m, err := currentMarkers(skillDir)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	e, ok := c.entries[skillName]
	c.mu.RUnlock()
	if ok && e.markers == m {
		return e.records, nil
	}

	records, err := c.build(ctx, skillName, instanceName, skillDir, m)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[skillName] = entry{records: records, markers: m}
	c.mu.Unlock()
	return records, nil
}

func currentMarkers(skillDir string) (markers, error) {
	var m markers

	wasmPath, err := findWasm(skillDir)
	if err == nil {
		if info, statErr := os.Stat(wasmPath); statErr == nil {
			m.wasmModTime = info.ModTime()
		}
	}

	mdPath := filepath.Join(skillDir, "SKILL.md")
	data, err := os.ReadFile(mdPath)
	if err == nil {
		m.skillMDHash = ContentHash(string(data))
	}
	return m, nil
}

func findWasm(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".wasm") {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", os.ErrNotExist
}

// build parses SKILL.md (if present), merges in runtime-reported tools,
// preferring the markdown description where both are present, and
// produces one ToolRecord per distinct tool name.
func (c *Cache) build(ctx context.Context, skillName, instanceName, skillDir string, m markers) ([]skill.ToolRecord, error) {
	byName := make(map[string]skill.Tool)
	var order []string

	mdPath := filepath.Join(skillDir, "SKILL.md")
	if data, err := os.ReadFile(mdPath); err == nil {
		doc, err := Parse(data)
		if err != nil {
			return nil, err
		}
		for _, pt := range doc.Tools {
			byName[pt.Name] = pt.Tool
			order = append(order, pt.Name)
		}
	}

	if c.runtime != nil {
		runtimeTools, err := c.runtime.RuntimeTools(ctx, skillDir)
		if err != nil {
			return nil, err
		}
		for _, rt := range runtimeTools {
			if existing, ok := byName[rt.Name]; ok {
				// Markdown description wins; everything else comes from
				// the runtime-reported definition (parameters, streaming).
				rt.Description = existing.Description
				byName[rt.Name] = rt
				continue
			}
			byName[rt.Name] = rt
			order = append(order, rt.Name)
		}
	}

	now := c.now()
	records := make([]skill.ToolRecord, 0, len(order))
	for _, name := range order {
		t := byName[name]
		records = append(records, skill.ToolRecord{
			Tool:        t,
			SkillName:   skillName,
			Instance:    instanceName,
			ActionVerbs: extractActionVerbs(t.Name, t.Description),
			ContentHash: ContentHash(t.Name + t.Description + m.skillMDHash),
			IndexedAt:   now,
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })
	return records, nil
}

func extractActionVerbs(name, description string) []string {
	words := strings.Fields(strings.ToLower(name + " " + description))
	seen := make(map[string]bool)
	var verbs []string
	for _, w := range words {
		w = strings.Trim(w, ".,:;()[]{}\"'")
		if actionVerbs[w] && !seen[w] {
			seen[w] = true
			verbs = append(verbs, w)
		}
	}
	sort.Strings(verbs)
	return verbs
}

// ContentHash returns a 16-hex-char fingerprint of s. Collisions are
// treated as impossible for this width, per the documented tradeoff; do
// not change the width without a migration plan.
func ContentHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:16]
}
