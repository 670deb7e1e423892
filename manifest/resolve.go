package manifest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/lookatitude/skill-engine/auth"
	"github.com/lookatitude/skill-engine/skill"
)

// validate enforces skill.ResolvedInstance's struct tags (SkillName,
// InstanceName, Source all required). A *validator.Validate caches its
// struct-reflection results internally, so one package-level instance is
// safe and expected to be reused across calls.
var validate = validator.New()

// SkillNotFoundError is returned by Resolve when the manifest has no entry
// for the requested skill name.
type SkillNotFoundError struct{ Name string }

func (e *SkillNotFoundError) Error() string {
	return fmt.Sprintf("skill %q not found in manifest", e.Name)
}

// configKeys that carry sandbox-scoping lists rather than opaque skill
// config, and are therefore pulled out of the rendered Config map into
// their own ResolvedInstance fields.
const (
	keyAllowedPaths = "allowed_paths"
	keyAllowedHosts = "allowed_hosts"
	keyBlockedHosts = "blocked_hosts"
)

// Resolve merges manifest defaults, skill-level defaults, and the named
// instance entry (in that priority order, narrowest wins) into a single
// ResolvedInstance, expanding ${VAR} references along the way.
//
// instanceName selects the entry under skills.<name>.instances; an empty
// string falls back to the skill's default_instance, then to "default".
// A missing instance entry is not an error — it resolves against an empty
// InstanceDefinition, so a skill with no instances section still resolves.
func (m *Manifest) Resolve(skillName, instanceName string) (skill.ResolvedInstance, error) {
	def, ok := m.Skills[skillName]
	if !ok {
		return skill.ResolvedInstance{}, &SkillNotFoundError{Name: skillName}
	}

	name := instanceName
	if name == "" {
		name = def.DefaultInstance
	}
	if name == "" {
		name = "default"
	}
	inst, ok := def.Instances[name]
	if !ok {
		inst = skill.InstanceDefinition{}
	}

	mergedEnv := mergeStrings(toInstanceRaw(m.Defaults).Env, def.Defaults.Env, inst.Env)
	expandedEnv, err := expandMap(mergedEnv, nil)
	if err != nil {
		return skill.ResolvedInstance{}, fmt.Errorf("expanding env for %s@%s: %w", skillName, name, err)
	}

	mergedConfig := mergeStrings(toInstanceRaw(m.Defaults).Config, def.Defaults.Config, inst.Config)
	expandedConfig, err := expandMap(mergedConfig, expandedEnv)
	if err != nil {
		return skill.ResolvedInstance{}, fmt.Errorf("expanding config for %s@%s: %w", skillName, name, err)
	}

	allowedPaths := splitList(expandedConfig[keyAllowedPaths])
	allowedHosts := splitList(expandedConfig[keyAllowedHosts])
	blockedHosts := splitList(expandedConfig[keyBlockedHosts])
	delete(expandedConfig, keyAllowedPaths)
	delete(expandedConfig, keyAllowedHosts)
	delete(expandedConfig, keyBlockedHosts)

	caps := unionCapabilities(m.Defaults.Capabilities, def.Defaults.Capabilities, inst.Capabilities)

	source := def.Source
	if strings.HasPrefix(source, "./") || strings.HasPrefix(source, "../") {
		source = filepath.Join(m.BaseDir, source)
	}

	resolved := skill.ResolvedInstance{
		SkillName:    skillName,
		InstanceName: name,
		Source:       source,
		Runtime:      def.Runtime,
		Container:    def.Container,
		Config:       expandedConfig,
		Env:          expandedEnv,
		Capabilities: caps,
		AllowedPaths: allowedPaths,
		AllowedHosts: allowedHosts,
		BlockedHosts: blockedHosts,
	}
	if err := validate.Struct(resolved); err != nil {
		return skill.ResolvedInstance{}, fmt.Errorf("resolved instance %s@%s failed validation: %w", skillName, name, err)
	}
	return resolved, nil
}

// toInstanceRaw lets manifest-level InstanceRaw defaults feed the same
// merge helper used for skill/instance-level InstanceDefinition values.
func toInstanceRaw(r InstanceRaw) skill.InstanceDefinition {
	return skill.InstanceDefinition{Config: r.Config, Env: r.Env, Capabilities: r.Capabilities}
}

// mergeStrings overlays maps left to right; later maps win on key conflict.
func mergeStrings(maps ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// unionCapabilities concatenates capability lists, deduplicating while
// preserving first-seen order.
func unionCapabilities(lists ...[]auth.Capability) []auth.Capability {
	seen := make(map[auth.Capability]bool)
	var out []auth.Capability
	for _, list := range lists {
		for _, c := range list {
			if seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
