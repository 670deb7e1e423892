package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lookatitude/skill-engine/manifest"
)

var manifestDir string

// rootCmd is the base command, following the teacher pack's
// spf13/cobra-based CLI shape (see LaurieRhodes-mcp-cli-go/cmd/root.go):
// one package-level *cobra.Command tree, PersistentFlags for options
// shared across subcommands, subcommands added from init().
var rootCmd = &cobra.Command{
	Use:   "skill",
	Short: "Discover, search, and execute installed skills",
	Long: "skill runs and searches skills declared in a .skill-engine.toml " +
		"manifest, sharing identical semantics with the MCP server's " +
		"list_skills/search_skills/execute operations.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&manifestDir, "manifest-dir", "", "Directory to start the manifest search from (default: current directory)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
}

// Execute runs the command tree and returns the process exit code spec.md
// §6 names, printing a single-line "<kind>: <reason>" error per spec.md §7
// for anything that isn't a bare exitCodeErr from the program.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return exitSuccess
	}

	var ec *exitCodeErr
	if errors.As(err, &ec) {
		fmt.Fprintln(os.Stderr, maskSecrets(ec.Error()))
		return ec.code
	}

	fmt.Fprintln(os.Stderr, maskSecrets(err.Error()))
	return exitInvocationError
}

// manifestSearchDir returns the directory loadManifest walks up from:
// manifestDir if set, otherwise the current directory.
func manifestSearchDir() (string, error) {
	if manifestDir != "" {
		return manifestDir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", invocationErrorf("ResolutionFailed: %s", err)
	}
	return wd, nil
}

// loadManifest resolves and parses the manifest reachable from
// manifestDir (or the current directory), per spec.md §6's "walking
// upwards for .skill-engine.toml or skill-engine.toml" rule.
func loadManifest() (*manifest.Manifest, error) {
	dir, err := manifestSearchDir()
	if err != nil {
		return nil, err
	}
	m, err := manifest.Load(dir)
	if err != nil {
		return nil, invocationErrorf("ResolutionFailed: no manifest found from %s: %s", dir, err)
	}
	return m, nil
}
