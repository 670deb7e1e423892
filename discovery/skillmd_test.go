package discovery

import "testing"

const sampleSkillMD = `---
name: kubernetes
description: Manage Kubernetes clusters
allowed-tools: kubectl, helm
---

# Kubernetes Skill

## Tools

### Pods

#### get

Fetch one or more pods.

**Parameters**:
- ` + "`namespace`" + ` (optional): string: the namespace to query. default: default
- ` + "`selector`" + ` (required): string: a label selector.

` + "```bash\nkubectl get pods -n default\n```" + `

#### delete

Delete a pod.

### status

Report cluster status.
`

func TestParse_FrontmatterAndTools(t *testing.T) {
	doc, err := Parse([]byte(sampleSkillMD))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Frontmatter.Name != "kubernetes" {
		t.Errorf("Name = %q", doc.Frontmatter.Name)
	}
	if len(doc.Frontmatter.AllowedTools) != 2 || doc.Frontmatter.AllowedTools[0] != "kubectl" {
		t.Errorf("AllowedTools = %v", doc.Frontmatter.AllowedTools)
	}

	if len(doc.Tools) != 3 {
		t.Fatalf("len(Tools) = %d, want 3 (get, delete, status)", len(doc.Tools))
	}

	byName := make(map[string]ParsedTool)
	for _, pt := range doc.Tools {
		byName[pt.Name] = pt
	}

	get, ok := byName["get"]
	if !ok {
		t.Fatal("expected a 'get' tool (#### child of ### Pods)")
	}
	if get.Category != "Pods" {
		t.Errorf("Category = %q, want Pods", get.Category)
	}
	if len(get.Parameters) != 2 {
		t.Fatalf("len(Parameters) = %d, want 2", len(get.Parameters))
	}
	if get.Parameters[1].Name != "selector" || !get.Parameters[1].Required {
		t.Errorf("selector param = %+v", get.Parameters[1])
	}
	if len(get.Examples) != 1 || get.Examples[0].Language != "bash" {
		t.Errorf("Examples = %+v", get.Examples)
	}

	status, ok := byName["status"]
	if !ok {
		t.Fatal("expected a 'status' tool (### with no #### children)")
	}
	if status.Category != "" {
		t.Errorf("Category = %q, want empty for a direct ### tool", status.Category)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	doc, err := Parse([]byte("# Just a doc\n\nNo frontmatter here.\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Frontmatter.Name != "" {
		t.Errorf("Name = %q, want empty", doc.Frontmatter.Name)
	}
	if doc.Body == "" {
		t.Error("Body should be the whole input when frontmatter is absent")
	}
}

func TestParse_FrontmatterNoTools(t *testing.T) {
	doc, err := Parse([]byte("---\nname: empty-skill\n---\n\nNothing to see here.\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Frontmatter.Name != "empty-skill" {
		t.Errorf("Name = %q", doc.Frontmatter.Name)
	}
	if len(doc.Tools) != 0 {
		t.Errorf("Tools = %v, want empty", doc.Tools)
	}
}
