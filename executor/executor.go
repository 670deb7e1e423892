// Package executor turns a resolved skill instance and a tool invocation
// into an ExecutionResult, dispatching to the VM, container, or native
// driver named by the instance's runtime kind.
package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lookatitude/skill-engine/o11y"
	"github.com/lookatitude/skill-engine/skill"
)

// Driver is the closed contract each of the three runtime backends
// implements. Dispatch to the right Driver happens by a runtime-kind
// switch in Executor, not by Driver-side type assertions.
type Driver interface {
	Execute(ctx context.Context, handle Handle, toolName string, args []KV) (skill.ExecutionResult, error)
}

// ArgvExecutor is implemented by the native driver alone: it runs an
// already-built argv directly, with no skill-name-to-program mapping. The
// executor uses it for command-forwarding, where the argv was constructed
// by the sandboxed skill itself and only needs allowlist validation.
type ArgvExecutor interface {
	ExecuteArgv(ctx context.Context, argv []string) (skill.ExecutionResult, error)
}

// Handle is the loaded, ready-to-execute form of a skill instance.
type Handle struct {
	Instance     skill.ResolvedInstance
	ArtifactPath string
}

// ToolSource reports where Executor.GetTools should look for a skill's
// declared tools when no markdown documentation is available.
type ToolSource interface {
	RuntimeTools(ctx context.Context, handle Handle) ([]skill.Tool, error)
}

// Executor dispatches ExecutionRequests to the runtime named by the
// resolved instance, and re-dispatches command-forwarding results through
// the native driver.
type Executor struct {
	drivers map[skill.RuntimeKind]Driver
	native  ArgvExecutor
	logger  *o11y.Logger

	markdownTools map[string][]skill.Tool // skill name -> tools, set by caller/discovery
	toolSource    ToolSource
}

// New builds an Executor with one driver per runtime kind. native must also
// implement ArgvExecutor: it is used both for skill.RuntimeNative instances
// and for command-forwarding re-dispatch regardless of the originating
// runtime.
func New(vm, container Driver, native interface {
	Driver
	ArgvExecutor
}) *Executor {
	return &Executor{
		drivers: map[skill.RuntimeKind]Driver{
			skill.RuntimeVM:        vm,
			skill.RuntimeContainer: container,
			skill.RuntimeNative:    native,
		},
		native:        native,
		logger:        o11y.NewLogger(),
		markdownTools: make(map[string][]skill.Tool),
	}
}

// WithToolSource sets the fallback used by GetTools when no markdown tools
// are registered for a skill.
func (e *Executor) WithToolSource(src ToolSource) *Executor {
	e.toolSource = src
	return e
}

// SetMarkdownTools registers the markdown-derived tool list for a skill,
// taking precedence over runtime-reported tools per the executor's
// documented origin precedence.
func (e *Executor) SetMarkdownTools(skillName string, tools []skill.Tool) {
	e.markdownTools[skillName] = tools
}

// Load validates the source exists and discovers the concrete artifact to
// run (a .wasm file directly, a directory containing one, or the
// conventional dist/skill.wasm layout).
func (e *Executor) Load(inst skill.ResolvedInstance) (Handle, error) {
	info, err := os.Stat(inst.Source)
	if err != nil {
		return Handle{}, fmt.Errorf("NotFound: skill source %q: %w", inst.Source, err)
	}

	artifact := inst.Source
	if info.IsDir() {
		artifact, err = discoverArtifact(inst.Source)
		if err != nil {
			return Handle{}, err
		}
	}

	return Handle{Instance: inst, ArtifactPath: artifact}, nil
}

func discoverArtifact(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err == nil {
		for _, ent := range entries {
			if !ent.IsDir() && strings.HasSuffix(ent.Name(), ".wasm") {
				return filepath.Join(dir, ent.Name()), nil
			}
		}
	}
	conventional := filepath.Join(dir, "dist", "skill.wasm")
	if _, err := os.Stat(conventional); err == nil {
		return conventional, nil
	}
	return "", fmt.Errorf("NotFound: no artifact discovered under %q", dir)
}

// GetTools returns the skill's tools, preferring markdown-derived tools and
// falling back to the runtime-reported list.
func (e *Executor) GetTools(ctx context.Context, handle Handle) ([]skill.Tool, error) {
	if tools, ok := e.markdownTools[handle.Instance.SkillName]; ok && len(tools) > 0 {
		return tools, nil
	}
	if e.toolSource != nil {
		return e.toolSource.RuntimeTools(ctx, handle)
	}
	return nil, nil
}

// ExecuteTool dispatches a tool call to the driver named by the instance's
// runtime, re-dispatching command-forwarding results through the native
// driver exactly once.
func (e *Executor) ExecuteTool(ctx context.Context, handle Handle, toolName string, args []KV) (skill.ExecutionResult, error) {
	driver, ok := e.drivers[handle.Instance.Runtime]
	if !ok {
		return skill.ExecutionResult{}, fmt.Errorf("RuntimeUnavailable: no driver registered for runtime %q", handle.Instance.Runtime)
	}

	result, err := driver.Execute(ctx, handle, toolName, args)
	if err != nil {
		return skill.ExecutionResult{}, err
	}

	if result.Success {
		if argv, ok := commandForwardArgv(result.Output); ok {
			return e.forwardToNative(ctx, handle, argv)
		}
	}
	return result, nil
}

// commandForwardArgv detects a command-forwarding result and splits its
// argv. A result of exactly "Command: " (no argv) is reported distinctly by
// the caller via forwardToNative's empty-argv check.
func commandForwardArgv(output string) ([]string, bool) {
	const prefix = "Command: "
	if !strings.HasPrefix(output, prefix) {
		return nil, false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(output, prefix))
	return strings.Fields(rest), true
}

func (e *Executor) forwardToNative(ctx context.Context, handle Handle, argv []string) (skill.ExecutionResult, error) {
	if len(argv) == 0 {
		return skill.ExecutionResult{Success: false, Error: "Empty command"}, nil
	}
	if !NativeAllowlist[argv[0]] {
		return skill.ExecutionResult{
			Success: false,
			Error:   (&ErrDisallowed{Program: argv[0]}).Error(),
		}, nil
	}
	return e.native.ExecuteArgv(ctx, argv)
}
