// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package capability

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfield/script"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"

	"github.com/openswarm/orchestrator-core/internal/patternmatch"
)

// dockerStopTimeout bounds how long a sandboxed predicate command's
// container gets to shut down gracefully before it is force-removed.
const dockerStopTimeout = 10 * time.Second

// ChainLister is the narrow slice of internal/hub the Default capability
// needs to back the evidence:coverage and evidence:ID[exists] predicates. A
// hub.Hub satisfies this without internal/capability importing internal/hub
// (which would create an import cycle, since the engine depends on both).
type ChainLister interface {
	ListEvidenceChainIDs(sessionID string) ([]string, error)
}

// Spawner is the external spawner boundary (spec.md §6): the core produces
// a SpawnRequest and never executes an agent itself. Default.Spawn delegates
// to an injected Spawner so the engine's own tests can substitute a fake one.
type Spawner interface {
	Spawn(ctx context.Context, req SpawnRequest) ([]byte, error)
}

// Default is the production Capability: host shell-out via bitfield/script,
// sandboxed shell-out via a short-lived Docker container, glob matching via
// internal/patternmatch, and delegation to an injected chain lister and
// spawner.
type Default struct {
	Sandbox      bool
	SandboxImage string
	Docker       *client.Client
	Chains       ChainLister
	Spawner      Spawner
}

// NewDefault builds a Default capability. docker may be nil when sandbox is
// false; callers that enable sandboxing must supply a connected client.
func NewDefault(sandbox bool, sandboxImage string, docker *client.Client, chains ChainLister, spawner Spawner) *Default {
	return &Default{
		Sandbox:      sandbox,
		SandboxImage: sandboxImage,
		Docker:       docker,
		Chains:       chains,
		Spawner:      spawner,
	}
}

// RunCommand executes cmd on the host via bitfield/script.
func (d *Default) RunCommand(ctx context.Context, cmd string, timeoutMs int) (CommandResult, error) {
	runCtx := ctx
	if timeoutMs > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
		defer cancel()
	}

	p := script.NewPipe().WithContext(runCtx).Exec(cmd)
	out, err := p.String()
	exitCode := p.ExitStatus()
	if err != nil {
		return CommandResult{Stdout: out, ExitCode: exitCode}, fmt.Errorf("command failed: %w", err)
	}
	return CommandResult{Stdout: out, ExitCode: exitCode}, nil
}

// RunCommandSandboxed executes cmd inside a short-lived container when
// sandboxing is enabled, and falls back to RunCommand otherwise — the
// predicate's contract (stdout/stderr/exitCode) is identical either way.
func (d *Default) RunCommandSandboxed(ctx context.Context, cmd string, timeoutMs int) (CommandResult, error) {
	if !d.Sandbox || d.Docker == nil {
		return d.RunCommand(ctx, cmd, timeoutMs)
	}

	runCtx := ctx
	if timeoutMs > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
		defer cancel()
	}

	resp, err := d.Docker.ContainerCreate(runCtx, &container.Config{
		Image:      d.SandboxImage,
		Cmd:        []string{"/bin/sh", "-c", cmd},
		Tty:        false,
		WorkingDir: "/workspace",
	}, nil, nil, nil, "")
	if err != nil {
		return CommandResult{}, fmt.Errorf("failed to create sandbox container: %w", err)
	}
	containerID := resp.ID

	defer func() {
		timeout := int(dockerStopTimeout.Seconds())
		_ = d.Docker.ContainerStop(context.Background(), containerID, container.StopOptions{Timeout: &timeout})
		_ = d.Docker.ContainerRemove(context.Background(), containerID, container.RemoveOptions{Force: true, RemoveVolumes: true})
	}()

	if err := d.Docker.ContainerStart(runCtx, containerID, container.StartOptions{}); err != nil {
		return CommandResult{}, fmt.Errorf("failed to start sandbox container: %w", err)
	}

	statusCh, errCh := d.Docker.ContainerWait(runCtx, containerID, container.WaitConditionNotRunning)
	var exitCode int
	select {
	case err := <-errCh:
		if err != nil {
			return CommandResult{}, fmt.Errorf("failed waiting for sandbox container: %w", err)
		}
	case status := <-statusCh:
		exitCode = int(status.StatusCode)
	}

	out, err := d.Docker.ContainerLogs(runCtx, containerID, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return CommandResult{ExitCode: exitCode}, fmt.Errorf("failed to read sandbox container logs: %w", err)
	}
	defer out.Close()

	buf := make([]byte, 64*1024)
	n, _ := out.Read(buf)

	return CommandResult{Stdout: string(buf[:n]), ExitCode: exitCode}, nil
}

// MatchPattern delegates to internal/patternmatch.
func (d *Default) MatchPattern(filePath, pattern string) bool {
	matched, _ := patternmatch.Match(filePath, pattern)
	return matched
}

// MatchAny delegates to internal/patternmatch.
func (d *Default) MatchAny(filePath string, patterns []string) bool {
	return patternmatch.MatchAny(filePath, patterns)
}

// ChainIDs delegates to the injected ChainLister (normally a hub.Hub).
func (d *Default) ChainIDs(sessionID string) ([]string, error) {
	if d.Chains == nil {
		return nil, nil
	}
	return d.Chains.ListEvidenceChainIDs(sessionID)
}

// Spawn delegates to the injected Spawner — the external spawner boundary.
func (d *Default) Spawn(ctx context.Context, req SpawnRequest) ([]byte, error) {
	if d.Spawner == nil {
		return nil, fmt.Errorf("no spawner configured for agent type %q", req.AgentType)
	}
	return d.Spawner.Spawn(ctx, req)
}
