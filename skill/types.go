// Package skill defines the data model shared by manifest resolution,
// discovery, the search pipeline, and the executor: skills, tools,
// resolved instances, and execution requests/results.
package skill

import (
	"fmt"
	"time"

	"github.com/lookatitude/skill-engine/auth"
)

// DocID builds the canonical IndexDocument id for a tool.
func DocID(skillName, instance, tool string) string {
	return fmt.Sprintf("%s@%s/%s", skillName, instance, tool)
}

// RuntimeKind is the closed set of backends a skill can run under.
type RuntimeKind string

const (
	RuntimeVM        RuntimeKind = "vm"
	RuntimeContainer RuntimeKind = "container"
	RuntimeNative    RuntimeKind = "native"
)

// ParamType is the closed set of tool parameter types.
type ParamType string

const (
	ParamString ParamType = "string"
	ParamInt    ParamType = "int"
	ParamNumber ParamType = "number"
	ParamBool   ParamType = "bool"
	ParamArray  ParamType = "array"
	ParamObject ParamType = "object"
)

// Parameter describes one named input a Tool accepts.
type Parameter struct {
	Name     string
	Type     ParamType
	Required bool
	Default  string
	Enum     []string
}

// Tool is a named operation a skill exposes.
type Tool struct {
	Name        string
	Description string
	Parameters  []Parameter
	Streaming   bool
}

// ParameterNames returns the tool's parameter names, in declared order.
func (t Tool) ParameterNames() []string {
	names := make([]string, len(t.Parameters))
	for i, p := range t.Parameters {
		names[i] = p.Name
	}
	return names
}

// ContainerSpec describes how a container-runtime skill is run.
type ContainerSpec struct {
	Image         string
	CPULimit      string
	MemoryLimit   string
	NetworkMode   string // "" (closed-default "none"), "bridge", "host"
	Volumes       map[string]string
	Env           map[string]string
	WorkingDir    string
	User          string
	GPU           bool
	Platform      string
	ReadOnlyRoot  bool
}

// InstanceDefinition is one named configuration profile for a skill, as
// declared in the manifest (pre-expansion).
type InstanceDefinition struct {
	Config       map[string]string
	Env          map[string]string
	Capabilities []auth.Capability
	Description  string
}

// SkillDefinition is a skill's manifest entry (pre-resolution).
type SkillDefinition struct {
	Name            string
	Source          string
	Runtime         RuntimeKind
	Ref             string
	Description     string
	Container       *ContainerSpec
	DefaultInstance string
	Defaults        InstanceDefinition
	Instances       map[string]InstanceDefinition
	Services        []string
}

// ResolvedInstance is the fully expanded, immutable output of resolving
// (manifest, skill, instance).
type ResolvedInstance struct {
	SkillName    string `validate:"required"`
	InstanceName string `validate:"required"`
	Source       string `validate:"required"`
	Runtime      RuntimeKind
	Container    *ContainerSpec
	Config       map[string]string
	Env          map[string]string
	Capabilities []auth.Capability
	AllowedPaths []string
	AllowedHosts []string
	BlockedHosts []string
}

// HasCapability reports whether cap is in the resolved capability set.
func (r ResolvedInstance) HasCapability(cap auth.Capability) bool {
	for _, c := range r.Capabilities {
		if c == cap {
			return true
		}
	}
	return false
}

// ExecutionRequest is a single tool invocation.
type ExecutionRequest struct {
	Skill          string
	Instance       string
	Tool           string
	Args           map[string]any
	ContextOptions map[string]any
}

// ExecutionResult is the uniform outcome of any driver's execution.
type ExecutionResult struct {
	Success  bool
	Output   string
	Error    string
	Metadata map[string]any
}

// ToolRecord is a Tool enriched with discovery metadata.
type ToolRecord struct {
	Tool
	SkillName   string
	Instance    string
	Category    string
	ActionVerbs []string
	ContentHash string
	IndexedAt   time.Time
}

// ParameterNames returns, in order, the underlying tool's parameter names.
func (tr ToolRecord) ParameterNames() []string {
	return tr.Tool.ParameterNames()
}

// IndexDocument is the unit indexed by the search pipeline.
type IndexDocument struct {
	ID       string
	Content  string
	Metadata map[string]any
}

// EmbeddedDocument is an IndexDocument with its dense vector attached.
type EmbeddedDocument struct {
	IndexDocument
	Vector []float32
}

// SearchResult is one hit from the search pipeline.
type SearchResult struct {
	ID         string
	Content    string
	DenseScore float64
	Metadata   map[string]any
	RerankScore *float64
}
