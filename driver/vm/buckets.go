package vm

import (
	"strings"

	"github.com/tetratelabs/wazero"

	"github.com/lookatitude/skill-engine/skill"
)

// applyEnvironmentBucket exposes only the resolved instance's expanded env
// vars to the guest — never the host process's ambient environment.
func applyEnvironmentBucket(cfg wazero.ModuleConfig, instance skill.ResolvedInstance) wazero.ModuleConfig {
	for k, v := range instance.Env {
		cfg = cfg.WithEnv(k, v)
	}
	return cfg
}

// writablePathsKey is the resolved-config key (a comma list) naming which
// of AllowedPaths are mounted read-write instead of the read-only default.
const writablePathsKey = "writable_paths"

// applyFilesystemBucket preopens each of the instance's AllowedPaths,
// read-only unless listed in the writable_paths config entry.
func applyFilesystemBucket(cfg wazero.ModuleConfig, instance skill.ResolvedInstance) (wazero.ModuleConfig, func(), error) {
	writable := make(map[string]bool)
	for _, p := range strings.Split(instance.Config[writablePathsKey], ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			writable[p] = true
		}
	}

	if len(instance.AllowedPaths) == 0 {
		return cfg, func() {}, nil
	}

	fsConfig := wazero.NewFSConfig()
	for _, p := range instance.AllowedPaths {
		if writable[p] {
			fsConfig = fsConfig.WithDirMount(p, p)
			continue
		}
		fsConfig = fsConfig.WithReadOnlyDirMount(p, p)
	}
	cfg = cfg.WithFSConfig(fsConfig)
	return cfg, func() {}, nil
}
