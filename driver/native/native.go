// Package native implements the Native execution driver: spawning a
// whitelisted external program with argv-based quoting and no shell
// interpretation.
package native

import (
	"bytes"
	"context"
	"errors"
	"os/exec"

	"github.com/lookatitude/skill-engine/executor"
	"github.com/lookatitude/skill-engine/o11y"
	"github.com/lookatitude/skill-engine/skill"
)

// Driver runs skills by spawning a whitelisted subprocess directly; it
// never shells out through /bin/sh, so argument quoting is exact argv
// passing.
type Driver struct {
	logger *o11y.Logger
}

// New builds a native Driver.
func New() *Driver {
	return &Driver{logger: o11y.NewLogger()}
}

// Execute builds the native command for (skill, tool, args) and runs it.
func (d *Driver) Execute(ctx context.Context, handle executor.Handle, toolName string, args []executor.KV) (skill.ExecutionResult, error) {
	argv, err := executor.BuildNativeCommand(handle.Instance.SkillName, toolName, args)
	if err != nil {
		var disallowed *executor.ErrDisallowed
		if errors.As(err, &disallowed) {
			d.logger.Error(ctx, "native command disallowed", "program", disallowed.Program)
			return skill.ExecutionResult{Success: false, Error: disallowed.Error()}, nil
		}
		return skill.ExecutionResult{}, err
	}
	return d.spawn(ctx, argv)
}

// ExecuteArgv runs an already-built argv directly, for command-forwarding
// re-dispatch. The allowlist is re-checked regardless of the caller.
func (d *Driver) ExecuteArgv(ctx context.Context, argv []string) (skill.ExecutionResult, error) {
	if len(argv) == 0 {
		return skill.ExecutionResult{Success: false, Error: "Empty command"}, nil
	}
	if !executor.NativeAllowlist[argv[0]] {
		return skill.ExecutionResult{
			Success: false,
			Error:   (&executor.ErrDisallowed{Program: argv[0]}).Error(),
		}, nil
	}
	return d.spawn(ctx, argv)
}

func (d *Driver) spawn(ctx context.Context, argv []string) (skill.ExecutionResult, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if ctx.Err() != nil {
		reason := "cancelled"
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			reason = "timeout"
		}
		return skill.ExecutionResult{
			Success: false,
			Output:  stdout.String(),
			Error:   reason,
		}, nil
	}

	if runErr == nil {
		return skill.ExecutionResult{Success: true, Output: stdout.String()}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return skill.ExecutionResult{
			Success: false,
			Output:  stdout.String(),
			Error:   stderr.String(),
			Metadata: map[string]any{
				"exit_code": exitErr.ExitCode(),
			},
		}, nil
	}

	// Spawn-level failure: program missing, permission denied, etc.
	return skill.ExecutionResult{
		Success: false,
		Output:  stdout.String(),
		Error:   runErr.Error(),
	}, nil
}
