package main

import (
	"strings"
)

// specRef is a parsed `skill run <spec>` reference: either a manifest entry
// (skill[@instance]:tool) or a local path to run directly, resolved against
// the skill[@instance] / tool split spec.md §6's grammar describes.
type specRef struct {
	// Exactly one of SkillName or LocalPath is set.
	SkillName    string
	InstanceName string
	LocalPath    string

	Tool string
}

// gitSchemes is the closed set of git-spec prefixes spec.md §6 names. Each
// is recognized and rejected with a typed "not implemented" error rather
// than silently falling through to local-path or manifest-entry parsing --
// git/registry loaders are an explicit Non-goal (interface only).
var gitSchemes = []string{"github:", "gitlab:", "bitbucket:", "https://github.com/", "https://gitlab.com/"}

// parseSpecRef parses <spec> plus, if present, a separate trailing tool
// token, per spec.md §6's grammar:
//
//	name[@instance]:tool
//	name[@instance]  (tool given as args[0])
//	local path (./..., ../..., /..., ~...) + tool
//	git-spec (github:, gitlab:, bitbucket:, https://github.com/...) -- rejected
func parseSpecRef(spec string, rest []string) (specRef, []string, error) {
	for _, scheme := range gitSchemes {
		if strings.HasPrefix(spec, scheme) {
			return specRef{}, nil, invocationErrorf(
				"NotImplemented: git-spec sources (%q) are not supported by this build; install the skill locally or reference it by manifest name", spec)
		}
	}

	if isLocalPath(spec) {
		if len(rest) == 0 {
			return specRef{}, nil, invocationErrorf("InvalidSpec: local path %q requires a trailing tool name", spec)
		}
		return specRef{LocalPath: spec, Tool: rest[0]}, rest[1:], nil
	}

	name, instance, tool, hasTool := splitManifestSpec(spec)
	if hasTool {
		return specRef{SkillName: name, InstanceName: instance, Tool: tool}, rest, nil
	}
	if len(rest) == 0 {
		return specRef{}, nil, invocationErrorf("InvalidSpec: %q has no tool; pass one as a separate argument or as name[@instance]:tool", spec)
	}
	return specRef{SkillName: name, InstanceName: instance, Tool: rest[0]}, rest[1:], nil
}

func isLocalPath(spec string) bool {
	return strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") ||
		strings.HasPrefix(spec, "/") || strings.HasPrefix(spec, "~")
}

// splitManifestSpec splits "name[@instance][:tool]" into its parts. hasTool
// is false when no ":tool" suffix is present.
func splitManifestSpec(spec string) (name, instance, tool string, hasTool bool) {
	if colon := strings.IndexByte(spec, ':'); colon >= 0 {
		spec, tool = spec[:colon], spec[colon+1:]
		hasTool = true
	}
	if at := strings.IndexByte(spec, '@'); at >= 0 {
		name, instance = spec[:at], spec[at+1:]
		return name, instance, tool, hasTool
	}
	return spec, "", tool, hasTool
}
