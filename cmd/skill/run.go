package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lookatitude/skill-engine/executor"
	"github.com/lookatitude/skill-engine/shaping"
	"github.com/lookatitude/skill-engine/skill"
)

// runCmd parses its own flags (DisableFlagParsing): --config k=v overrides
// and the invoked tool's own arguments share the same token stream, so
// cobra's flag parser is bypassed in favor of splitRunFlags below.
var runCmd = &cobra.Command{
	Use:   "run <spec> [args...]",
	Short: "Run one tool of a skill",
	Long: "run executes <spec>: name[@instance]:tool, name[@instance] plus a " +
		"trailing tool argument, a local path plus a trailing tool argument, " +
		"or a git-spec (rejected -- not supported by this build).",
	Args:               cobra.MinimumNArgs(1),
	DisableFlagParsing: true,
	RunE:               runRunE,
}

// runRunE parses flags itself (DisableFlagParsing) so that --config
// overrides and the tool's own -- flags don't collide with cobra's global
// flag parser, then dispatches to a local-path execution or the shared
// agentbridge "execute" tool.
func runRunE(cmd *cobra.Command, args []string) error {
	positional, configOverrides, err := splitRunFlags(args)
	if err != nil {
		return err
	}
	if len(positional) == 0 {
		return invocationErrorf("InvalidSpec: run requires <spec>")
	}

	ref, toolArgTokens, err := parseSpecRef(positional[0], positional[1:])
	if err != nil {
		return err
	}

	if ref.LocalPath != "" {
		return runLocalPath(cmd, ref, toolArgTokens, configOverrides)
	}
	return runManifestSkill(cmd, ref, toolArgTokens)
}

// splitRunFlags pulls repeatable --config k=v tokens out of args, returning
// the remaining positional tokens (spec + tool args) in order.
func splitRunFlags(args []string) (positional []string, configOverrides map[string]string, err error) {
	configOverrides = make(map[string]string)
	for i := 0; i < len(args); i++ {
		tok := args[i]
		if tok != "--config" && !strings.HasPrefix(tok, "--config=") {
			positional = append(positional, tok)
			continue
		}
		var kv string
		if strings.HasPrefix(tok, "--config=") {
			kv = strings.TrimPrefix(tok, "--config=")
		} else {
			if i+1 >= len(args) {
				return nil, nil, invocationErrorf("InvalidSpec: --config requires a k=v argument")
			}
			i++
			kv = args[i]
		}
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, nil, invocationErrorf("InvalidSpec: --config value %q is not k=v", kv)
		}
		configOverrides[k] = v
	}
	return positional, configOverrides, nil
}

// runLocalPath executes a tool from an uninstalled skill directory
// directly, bypassing manifest resolution entirely: the instance is
// synthesized from the path and any --config overrides, per spec.md §6's
// "local path + tool" spec form.
func runLocalPath(cmd *cobra.Command, ref specRef, toolArgTokens []string, configOverrides map[string]string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	inst := skill.ResolvedInstance{
		SkillName:    filepath.Base(strings.TrimRight(ref.LocalPath, "/")),
		InstanceName: "default",
		Source:       ref.LocalPath,
		Runtime:      skill.RuntimeNative,
		Config:       configOverrides,
	}

	exec := buildExecutor()
	handle, err := exec.Load(inst)
	if err != nil {
		return err
	}

	tools, err := exec.GetTools(ctx, handle)
	if err != nil {
		return err
	}
	kv := executor.ParseArgs(toolArgTokens)
	if toolDef, ok := findToolByName(tools, ref.Tool); ok {
		kv = reorderKV(toolDef, kv)
	}

	result, err := exec.ExecuteTool(ctx, handle, ref.Tool, kv)
	if err != nil {
		return withExitCode(exitRuntimeUnavailable, err)
	}
	return printExecutionResult(cmd, result)
}

func findToolByName(tools []skill.Tool, name string) (skill.Tool, bool) {
	for _, t := range tools {
		if t.Name == name {
			return t, true
		}
	}
	return skill.Tool{}, false
}

// reorderKV sorts already-parsed CLI args into the tool's declared
// parameter order, matching the order-preservation invariant
// build_native_command depends on for positional native commands.
func reorderKV(toolDef skill.Tool, kv []executor.KV) []executor.KV {
	byKey := make(map[string]executor.KV, len(kv))
	var extra []executor.KV
	for _, pair := range kv {
		if _, declared := findParam(toolDef, pair.Key); declared {
			byKey[pair.Key] = pair
			continue
		}
		extra = append(extra, pair)
	}
	ordered := make([]executor.KV, 0, len(kv))
	for _, p := range toolDef.Parameters {
		if pair, ok := byKey[p.Name]; ok {
			ordered = append(ordered, pair)
		}
	}
	return append(ordered, extra...)
}

func findParam(toolDef skill.Tool, name string) (skill.Parameter, bool) {
	for _, p := range toolDef.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return skill.Parameter{}, false
}

// runManifestSkill dispatches through agentbridge's execute tool, sharing
// identical semantics with the MCP server per spec.md §6.
func runManifestSkill(cmd *cobra.Command, ref specRef, toolArgTokens []string) error {
	_, srv, err := newBridgeServer()
	if err != nil {
		return err
	}

	argsMap := make(map[string]any)
	for _, pair := range executor.ParseArgs(toolArgTokens) {
		argsMap[pair.Key] = pair.Value
	}

	result, err := callBridgeTool(srv, "execute", map[string]any{
		"skill":    ref.SkillName,
		"instance": ref.InstanceName,
		"tool":     ref.Tool,
		"args":     argsMap,
	})
	if err != nil {
		return invocationErrorf("%s", err)
	}

	text := resultText(result)
	fmt.Fprintln(cmd.OutOrStdout(), maskSecrets(text))
	if result.IsError {
		return withExitCode(exitExecutionFailed, fmt.Errorf("execution failed"))
	}
	return nil
}

// printExecutionResult shapes and prints a raw ExecutionResult for the
// local-path run path, where there's no agentbridge shaping step to go
// through.
func printExecutionResult(cmd *cobra.Command, result skill.ExecutionResult) error {
	shaped, err := shaping.Shape(result.Output, shaping.Options{})
	if err != nil {
		return err
	}
	text := shaped.Output
	if !result.Success && result.Error != "" {
		if text != "" {
			text += "\n"
		}
		text += result.Error
	}
	fmt.Fprintln(cmd.OutOrStdout(), maskSecrets(text))
	if !result.Success {
		if code, ok := result.Metadata["exit_code"].(int); ok {
			return withExitCode(code, fmt.Errorf("%s", result.Error))
		}
		return withExitCode(exitExecutionFailed, fmt.Errorf("%s", result.Error))
	}
	return nil
}
