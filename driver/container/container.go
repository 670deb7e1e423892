// Package container implements the Container driver: running a skill as a
// short-lived, resource-constrained container process via the Docker (or
// Podman, through the same socket protocol) API.
package container

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	docker "github.com/fsouza/go-dockerclient"

	"github.com/lookatitude/skill-engine/executor"
	"github.com/lookatitude/skill-engine/o11y"
	"github.com/lookatitude/skill-engine/skill"
)

// allowedNetworkModes is the closed set the contract names; anything else
// is rejected before a container is ever created.
var allowedNetworkModes = map[string]bool{
	"":     true, // empty means "none", the default
	"none": true, "bridge": true, "host": true,
}

// Driver runs skills as short-lived containers through the Docker API.
type Driver struct {
	client *docker.Client
	logger *o11y.Logger
}

// New connects to the Docker daemon reachable at endpoint (an empty string
// uses the DOCKER_HOST environment, matching docker.NewClientFromEnv).
func New(endpoint string) (*Driver, error) {
	var client *docker.Client
	var err error
	if endpoint == "" {
		client, err = docker.NewClientFromEnv()
	} else {
		client, err = docker.NewClient(endpoint)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to docker: %w", err)
	}
	return &Driver{client: client, logger: o11y.NewLogger()}, nil
}

// EnsureImage succeeds if ref is already present locally, otherwise pulls
// it from its registry.
func (d *Driver) EnsureImage(ctx context.Context, ref string) error {
	if _, err := d.client.InspectImage(ref); err == nil {
		return nil
	}
	return d.client.PullImage(docker.PullImageOptions{
		Repository: ref,
		Context:    ctx,
	}, docker.AuthConfiguration{})
}

// Execute runs toolName with args inside a container built from
// handle.Instance's ContainerSpec. The container is always removed after
// execution (rm=true is a safety invariant; there is no caller opt-out in
// this driver's contract).
func (d *Driver) Execute(ctx context.Context, handle executor.Handle, toolName string, args []executor.KV) (skill.ExecutionResult, error) {
	spec := handle.Instance.Container
	if spec == nil {
		return skill.ExecutionResult{}, fmt.Errorf("container driver: instance %s@%s has no container spec", handle.Instance.SkillName, handle.Instance.InstanceName)
	}
	if !allowedNetworkModes[spec.NetworkMode] {
		return skill.ExecutionResult{}, fmt.Errorf("container driver: network mode %q is not one of none, bridge, host", spec.NetworkMode)
	}

	if err := d.EnsureImage(ctx, spec.Image); err != nil {
		return skill.ExecutionResult{}, fmt.Errorf("ensure image %s: %w", spec.Image, err)
	}

	cmd := append([]string{toolName}, argvFromKVs(args)...)

	config := &docker.Config{
		Image:      spec.Image,
		Cmd:        cmd,
		Env:        envSlice(handle.Instance.Env, spec.Env),
		WorkingDir: spec.WorkingDir,
		User:       spec.User,
	}
	if spec.NetworkMode == "none" || spec.NetworkMode == "" {
		config.NetworkDisabled = true
	}

	hostConfig := &docker.HostConfig{
		NetworkMode:    networkModeOrDefault(spec.NetworkMode),
		Binds:          volumeBinds(spec.Volumes),
		ReadonlyRootfs: spec.ReadOnlyRoot,
	}
	applyResourceLimits(hostConfig, spec)
	if spec.GPU {
		hostConfig.DeviceRequests = []docker.DeviceRequest{{
			Driver:       "nvidia",
			Count:        -1,
			Capabilities: [][]string{{"gpu"}},
		}}
	}

	createOpts := docker.CreateContainerOptions{
		Config:     config,
		HostConfig: hostConfig,
		Context:    ctx,
	}
	if spec.Platform != "" {
		createOpts.Platform = spec.Platform
	}

	cont, err := d.client.CreateContainer(createOpts)
	if err != nil {
		return skill.ExecutionResult{}, fmt.Errorf("create container: %w", err)
	}
	defer d.client.RemoveContainer(docker.RemoveContainerOptions{ID: cont.ID, Force: true})

	if err := d.client.StartContainer(cont.ID, nil); err != nil {
		return skill.ExecutionResult{}, fmt.Errorf("start container: %w", err)
	}

	type waitResult struct {
		exitCode int
		err      error
	}
	resultCh := make(chan waitResult, 1)
	go func() {
		exitCode, err := d.client.WaitContainer(cont.ID)
		resultCh <- waitResult{exitCode: exitCode, err: err}
	}()

	select {
	case <-ctx.Done():
		d.client.StopContainer(cont.ID, 1)
		stdout, stderr := d.logs(cont.ID)
		reason := "cancelled"
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			reason = "timeout"
		}
		return skill.ExecutionResult{Success: false, Output: stdout, Error: firstNonEmpty(stderr, reason)}, nil
	case res := <-resultCh:
		stdout, stderr := d.logs(cont.ID)
		if res.err != nil {
			return skill.ExecutionResult{Success: false, Output: stdout, Error: res.err.Error()}, nil
		}
		if res.exitCode != 0 {
			return skill.ExecutionResult{
				Success:  false,
				Output:   stdout,
				Error:    stderr,
				Metadata: map[string]any{"exit_code": res.exitCode},
			}, nil
		}
		return skill.ExecutionResult{Success: true, Output: stdout}, nil
	}
}

func (d *Driver) logs(containerID string) (stdout, stderr string) {
	var outBuf, errBuf bytes.Buffer
	d.client.Logs(docker.LogsOptions{
		Container:    containerID,
		OutputStream: &outBuf,
		ErrorStream:  &errBuf,
		Stdout:       true,
		Stderr:       true,
	})
	return outBuf.String(), errBuf.String()
}

func networkModeOrDefault(mode string) string {
	if mode == "" {
		return "none"
	}
	return mode
}

func volumeBinds(volumes map[string]string) []string {
	if len(volumes) == 0 {
		return nil
	}
	binds := make([]string, 0, len(volumes))
	for host, container := range volumes {
		binds = append(binds, fmt.Sprintf("%s:%s", host, container))
	}
	return binds
}

func envSlice(instanceEnv, containerEnv map[string]string) []string {
	merged := make(map[string]string, len(instanceEnv)+len(containerEnv))
	for k, v := range containerEnv {
		merged[k] = v
	}
	for k, v := range instanceEnv {
		merged[k] = v
	}
	out := make([]string, 0, len(merged))
	for k, v := range merged {
		out = append(out, k+"="+v)
	}
	return out
}

func applyResourceLimits(hc *docker.HostConfig, spec *skill.ContainerSpec) {
	if mem := parseMemoryLimit(spec.MemoryLimit); mem > 0 {
		hc.Memory = mem
	}
	if cpus := parseCPULimit(spec.CPULimit); cpus > 0 {
		hc.NanoCPUs = cpus
	}
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

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
