// Package manifest loads and resolves the declarative TOML file mapping
// skill names to sources and instance configuration. Parsing beyond the
// resolution semantics described in spec is intentionally out of scope:
// manifest.go's raw* types are a direct, narrow reflection of the documented
// grammar, not a general TOML-authoring API.
package manifest

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/lookatitude/skill-engine/auth"
	"github.com/lookatitude/skill-engine/skill"
)

// Manifest is the parsed, pre-resolution manifest file plus its base
// directory (used to resolve relative source paths).
type Manifest struct {
	Version  string
	Defaults InstanceRaw
	Skills   map[string]skill.SkillDefinition
	BaseDir  string
}

// InstanceRaw is the config/env/capabilities/description shape shared by
// manifest defaults, skill-level defaults, and instance entries, before
// capability strings are turned into auth.Capability values.
type InstanceRaw struct {
	Config       map[string]string
	Env          map[string]string
	Capabilities []auth.Capability
	Description  string
}

type rawManifest struct {
	Version  string                `toml:"version"`
	Defaults rawInstance           `toml:"defaults"`
	Skills   map[string]rawSkill   `toml:"skills"`
}

type rawSkill struct {
	Source          string                 `toml:"source"`
	Runtime         string                 `toml:"runtime"`
	Ref             string                 `toml:"ref"`
	Description     string                 `toml:"description"`
	Docker          *rawContainer          `toml:"docker"`
	DefaultInstance string                 `toml:"default_instance"`
	Defaults        rawInstance            `toml:"defaults"`
	Instances       map[string]rawInstance `toml:"instances"`
	Services        []string               `toml:"services"`
}

type rawInstance struct {
	Config       map[string]string `toml:"config"`
	Env          map[string]string `toml:"env"`
	Capabilities []string          `toml:"capabilities"`
	Description  string            `toml:"description"`
}

type rawContainer struct {
	Image        string            `toml:"image"`
	CPULimit     string            `toml:"cpu_limit"`
	MemoryLimit  string            `toml:"memory_limit"`
	NetworkMode  string            `toml:"network_mode"`
	Volumes      map[string]string `toml:"volumes"`
	Env          map[string]string `toml:"env"`
	WorkingDir   string            `toml:"working_dir"`
	User         string            `toml:"user"`
	GPU          bool              `toml:"gpu"`
	Platform     string            `toml:"platform"`
	ReadOnlyRoot bool              `toml:"read_only_root"`
}

// manifestFileNames are searched for, in order, at every directory walking
// up from the start point.
var manifestFileNames = []string{".skill-engine.toml", "skill-engine.toml"}

// Find walks upward from startDir looking for a manifest file, per the
// "walk from passed directory, defaulting to CWD" decision (spec's Open
// Questions: some call sites historically walked from CWD regardless of a
// passed directory; this implementation always honors the passed
// directory, and callers wanting CWD behavior pass os.Getwd()).
func Find(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		for _, name := range manifestFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// Load finds and parses the manifest reachable from startDir.
func Load(startDir string) (*Manifest, error) {
	path, err := Find(startDir)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Parse(data)
	if err != nil {
		return nil, err
	}
	m.BaseDir = filepath.Dir(path)
	return m, nil
}

// Parse decodes manifest TOML bytes into a Manifest. Variable expansion is
// NOT performed here — it happens at Resolve time, per spec.
func Parse(data []byte) (*Manifest, error) {
	var raw rawManifest
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	version := raw.Version
	if version == "" {
		version = "1"
	}

	skills := make(map[string]skill.SkillDefinition, len(raw.Skills))
	for name, rs := range raw.Skills {
		def := skill.SkillDefinition{
			Name:            name,
			Source:          rs.Source,
			Runtime:         skill.RuntimeKind(rs.Runtime),
			Ref:             rs.Ref,
			Description:     rs.Description,
			DefaultInstance: rs.DefaultInstance,
			Defaults:        convertInstance(rs.Defaults),
			Services:        rs.Services,
			Instances:       make(map[string]skill.InstanceDefinition, len(rs.Instances)),
		}
		if rs.Docker != nil {
			def.Container = convertContainer(rs.Docker)
		}
		for iname, ri := range rs.Instances {
			def.Instances[iname] = convertInstance(ri)
		}
		skills[name] = def
	}

	return &Manifest{
		Version:  version,
		Defaults: convertRaw(raw.Defaults),
		Skills:   skills,
	}, nil
}

func convertInstance(ri rawInstance) skill.InstanceDefinition {
	return skill.InstanceDefinition{
		Config:       ri.Config,
		Env:          ri.Env,
		Capabilities: toCapabilities(ri.Capabilities),
		Description:  ri.Description,
	}
}

func convertRaw(ri rawInstance) InstanceRaw {
	return InstanceRaw{
		Config:       ri.Config,
		Env:          ri.Env,
		Capabilities: toCapabilities(ri.Capabilities),
		Description:  ri.Description,
	}
}

func convertContainer(rc *rawContainer) *skill.ContainerSpec {
	return &skill.ContainerSpec{
		Image:        rc.Image,
		CPULimit:     rc.CPULimit,
		MemoryLimit:  rc.MemoryLimit,
		NetworkMode:  rc.NetworkMode,
		Volumes:      rc.Volumes,
		Env:          rc.Env,
		WorkingDir:   rc.WorkingDir,
		User:         rc.User,
		GPU:          rc.GPU,
		Platform:     rc.Platform,
		ReadOnlyRoot: rc.ReadOnlyRoot,
	}
}

func toCapabilities(raw []string) []auth.Capability {
	if raw == nil {
		return nil
	}
	caps := make([]auth.Capability, len(raw))
	for i, c := range raw {
		caps[i] = auth.Capability(c)
	}
	return caps
}
