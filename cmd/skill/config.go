package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
)

var configSetFlags []string

// configCmd writes instances/<skill>/<instance>.toml under
// ~/.skill-engine/, per spec.md §6's persisted-state layout -- the file the
// executor's manifest resolution later merges in as the named instance's
// config/env overrides.
var configCmd = &cobra.Command{
	Use:   "config <skill> [instance]",
	Short: "Write per-instance config consumed by the executor",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  configRunE,
}

func init() {
	configCmd.Flags().StringArrayVar(&configSetFlags, "set", nil, "k=v config entry, repeatable")
}

type instanceConfigFile struct {
	Config map[string]string `toml:"config"`
}

func configRunE(cmd *cobra.Command, args []string) error {
	skillName := args[0]
	instanceName := "default"
	if len(args) == 2 {
		instanceName = args[1]
	}

	values := make(map[string]string, len(configSetFlags))
	for _, kv := range configSetFlags {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return invocationErrorf("InvalidInput: --set value %q is not k=v", kv)
		}
		values[k] = v
	}

	dir, err := instancesDir(skillName)
	if err != nil {
		return invocationErrorf("ResolutionFailed: %s", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return invocationErrorf("ResolutionFailed: %s", err)
	}

	path := filepath.Join(dir, instanceName+".toml")
	data, err := toml.Marshal(instanceConfigFile{Config: values})
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return invocationErrorf("ResolutionFailed: writing %s: %s", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}

// instancesDir returns ~/.skill-engine/instances/<skill>, per spec.md §6's
// "Persisted state layout".
func instancesDir(skillName string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".skill-engine", "instances", skillName), nil
}
