// Package vm implements the Sandbox (VM) driver: running a WASI module
// in-process under wazero with capability-gated host access and epoch-based
// interruption.
package vm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"

	"github.com/lookatitude/skill-engine/executor"
	"github.com/lookatitude/skill-engine/o11y"
	"github.com/lookatitude/skill-engine/skill"
)

// SecretsProvider resolves a named secret for the "secrets" host-import
// bucket. It is only consulted for skills that declare CapSecretsAccess.
type SecretsProvider interface {
	Resolve(ctx context.Context, key string) (string, bool)
}

type compiledEntry struct {
	module wazero.CompiledModule
	mtime  time.Time
}

// Driver runs compiled WASI modules with per-instance host-import scoping.
// A single Driver owns one wazero Runtime and a path+mtime compiled-module
// cache shared across all Execute calls.
type Driver struct {
	runtime wazero.Runtime
	logger  *o11y.Logger
	secrets SecretsProvider

	mu       sync.Mutex
	compiled map[string]compiledEntry
}

// Option configures a Driver at construction time.
type Option func(*Driver)

// WithSecretsProvider wires a secrets resolver for the "secrets" bucket.
func WithSecretsProvider(p SecretsProvider) Option {
	return func(d *Driver) { d.secrets = p }
}

// New builds a Driver with its own wazero runtime and WASI preview1 host
// module instantiated. The runtime is configured to abandon an in-flight
// call when its context is cancelled or its deadline expires — wazero's
// built-in mechanism for the epoch-based interruption the contract calls
// for, so no separate epoch-ticker goroutine is needed.
func New(ctx context.Context, opts ...Option) (*Driver, error) {
	cfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	runtime := wazero.NewRuntimeWithConfig(ctx, cfg)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, runtime); err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("instantiate wasi: %w", err)
	}

	d := &Driver{
		runtime:  runtime,
		logger:   o11y.NewLogger(),
		compiled: make(map[string]compiledEntry),
	}
	for _, o := range opts {
		o(d)
	}
	if _, err := instantiateHostModule(ctx, runtime, d); err != nil {
		runtime.Close(ctx)
		return nil, fmt.Errorf("instantiate host module: %w", err)
	}
	return d, nil
}

// Close releases the underlying wazero runtime and all compiled modules.
func (d *Driver) Close(ctx context.Context) error {
	return d.runtime.Close(ctx)
}

func (d *Driver) compile(ctx context.Context, path string) (wazero.CompiledModule, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	if e, ok := d.compiled[path]; ok && e.mtime.Equal(info.ModTime()) {
		d.mu.Unlock()
		return e.module, nil
	}
	d.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	mod, err := d.runtime.CompileModule(ctx, data)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.compiled[path] = compiledEntry{module: mod, mtime: info.ModTime()}
	d.mu.Unlock()
	return mod, nil
}

// Execute instantiates the compiled artifact at handle.ArtifactPath as a
// WASI command module, passing toolName and the flattened args as argv,
// and scoping host imports to the resolved instance's declared
// capabilities and config.
func (d *Driver) Execute(ctx context.Context, handle executor.Handle, toolName string, args []executor.KV) (skill.ExecutionResult, error) {
	compiled, err := d.compile(ctx, handle.ArtifactPath)
	if err != nil {
		return skill.ExecutionResult{}, err
	}

	var stdout, stderr bytes.Buffer
	modCfg := wazero.NewModuleConfig().
		WithStdout(&stdout).
		WithStderr(&stderr).
		WithArgs(append([]string{toolName}, argvFromKVs(args)...)...)

	modCfg = applyEnvironmentBucket(modCfg, handle.Instance)
	modCfg, fsCleanup, err := applyFilesystemBucket(modCfg, handle.Instance)
	if err != nil {
		return skill.ExecutionResult{}, err
	}
	defer fsCleanup()

	instanceCtx := withInstance(ctx, &handle.Instance, d.secrets)

	mod, err := d.runtime.InstantiateModule(instanceCtx, compiled, modCfg)
	if err != nil {
		return trapResult(instanceCtx, err, stdout.String(), stderr.String())
	}
	defer mod.Close(instanceCtx)

	if ctx.Err() != nil {
		reason := "cancelled"
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			reason = "timeout"
		}
		return skill.ExecutionResult{Success: false, Output: stdout.String(), Error: reason}, nil
	}
	return skill.ExecutionResult{Success: true, Output: stdout.String()}, nil
}

// trapResult maps an InstantiateModule failure to an ExecutionResult. A
// WASI command module that calls proc_exit surfaces that exit code as a
// *sys.ExitError from InstantiateModule: exit code 0 is success (wazero
// itself treats it as a normal return in most guests, but some compilers
// emit an explicit proc_exit(0)), any other code or any other error is a
// trap, reported as success=false with a textual description rather than
// propagated as a Go error.
func trapResult(ctx context.Context, err error, stdout, stderr string) (skill.ExecutionResult, error) {
	if ctx.Err() != nil {
		reason := "cancelled"
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			reason = "timeout"
		}
		return skill.ExecutionResult{Success: false, Output: stdout, Error: reason}, nil
	}

	var exitErr *sys.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.ExitCode() == 0 {
			return skill.ExecutionResult{Success: true, Output: stdout}, nil
		}
		msg := strings.TrimSpace(stderr)
		if msg == "" {
			msg = exitErr.Error()
		}
		return skill.ExecutionResult{
			Success:  false,
			Output:   stdout,
			Error:    msg,
			Metadata: map[string]any{"exit_code": exitErr.ExitCode()},
		}, nil
	}

	msg := strings.TrimSpace(stderr)
	if msg == "" {
		msg = err.Error()
	}
	return skill.ExecutionResult{Success: false, Output: stdout, Error: msg}, nil
}

func argvFromKVs(args []executor.KV) []string {
	out := make([]string, 0, len(args))
	for _, kv := range args {
		if kv.Key == "arg" {
			out = append(out, kv.Value)
			continue
		}
		if kv.Value == "true" {
			out = append(out, flagName(kv.Key))
			continue
		}
		if kv.Value == "false" {
			continue
		}
		out = append(out, flagName(kv.Key), kv.Value)
	}
	return out
}

func flagName(key string) string {
	if len(key) == 1 {
		return "-" + key
	}
	return "--" + key
}
