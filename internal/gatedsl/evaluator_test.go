// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package gatedsl

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openswarm/orchestrator-core/internal/capability"
)

// fakeCapability is a minimal in-memory capability.Capability double for
// exercising the evaluator without shelling out to anything real.
type fakeCapability struct {
	exitCodes map[string]int
	chains    []string
}

func (f *fakeCapability) RunCommand(_ context.Context, cmd string, _ int) (capability.CommandResult, error) {
	code := f.exitCodes[cmd]
	return capability.CommandResult{ExitCode: code, Stdout: cmd}, nil
}

func (f *fakeCapability) RunCommandSandboxed(ctx context.Context, cmd string, timeoutMs int) (capability.CommandResult, error) {
	return f.RunCommand(ctx, cmd, timeoutMs)
}

func (f *fakeCapability) MatchPattern(filePath, pattern string) bool {
	if matched, _ := filepath.Match(pattern, filePath); matched {
		return true
	}
	name := pattern
	name = strings.TrimSuffix(name, "*")
	return strings.HasPrefix(filePath, name) || filePath == pattern
}

func (f *fakeCapability) MatchAny(filePath string, patterns []string) bool {
	for _, p := range patterns {
		if f.MatchPattern(filePath, p) {
			return true
		}
	}
	return false
}

func (f *fakeCapability) ChainIDs(string) ([]string, error) {
	return f.chains, nil
}

func (f *fakeCapability) Spawn(context.Context, capability.SpawnRequest) ([]byte, error) {
	return nil, nil
}

// S1 — parse simple: typecheck passes when the command exits 0.
func TestEvaluateGate_S1_SimplePass(t *testing.T) {
	ast, err := Parse("typecheck")
	require.NoError(t, err)

	ec := &EvalContext{
		Capability:       &fakeCapability{exitCodes: map[string]int{"go vet ./...": 0}},
		TypecheckCommand: "go vet ./...",
	}
	res := EvaluateGate(context.Background(), ast, ec)

	assert.True(t, res.Passed)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "typecheck", res.Results[0].Check)
	assert.True(t, res.Results[0].Passed)
	assert.Empty(t, res.Blockers)
}

// S2 — compound AND short-circuit: typecheck fails, tests never run.
func TestEvaluateGate_S2_CompoundShortCircuit(t *testing.T) {
	ast, err := Parse("typecheck AND tests")
	require.NoError(t, err)

	ec := &EvalContext{
		Capability: &fakeCapability{exitCodes: map[string]int{
			"go vet ./...": 1,
			"go test ./...": 0,
		}},
		TypecheckCommand: "go vet ./...",
		TestCommand:      "go test ./...",
	}
	res := EvaluateGate(context.Background(), ast, ec)

	assert.False(t, res.Passed)
	require.Len(t, res.Results, 1, "tests must not be evaluated once typecheck fails")
	assert.Equal(t, "typecheck", res.Results[0].Check)
	require.Len(t, res.Blockers, 1)
	assert.Equal(t, "typecheck", res.Blockers[0])
}

// S3 — threshold: two chains at 100% and 67% coverage, gate requires >= 80%.
func TestEvaluateGate_S3_CoverageThreshold(t *testing.T) {
	ast, err := Parse("evidence:coverage >= 80")
	require.NoError(t, err)

	ec := &EvalContext{
		Capability:    &fakeCapability{},
		ChainCoverage: map[string]int{"chain-a": 100, "chain-b": 67},
	}
	res := EvaluateGate(context.Background(), ast, ec)

	assert.False(t, res.Passed)
	require.Len(t, res.Blockers, 1)
	assert.Contains(t, res.Blockers[0], "coverage")
	assert.Contains(t, res.Blockers[0], "67")
}

// S3 in the bracket form the grammar names literally: IDENT '[' IDENT ']' OP
// NUMBER. Must behave identically to the colon form above.
func TestEvaluateGate_S3_CoverageThreshold_BracketForm(t *testing.T) {
	ast, err := Parse("evidence[coverage] >= 80")
	require.NoError(t, err)

	ec := &EvalContext{
		Capability:    &fakeCapability{},
		ChainCoverage: map[string]int{"chain-a": 100, "chain-b": 67},
	}
	res := EvaluateGate(context.Background(), ast, ec)

	assert.False(t, res.Passed)
	require.Len(t, res.Blockers, 1)
	assert.Contains(t, res.Blockers[0], "67")
}

func TestEvaluateGate_BracketCoverageThreshold_Passes(t *testing.T) {
	ast, err := Parse("evidence[coverage] >= 50")
	require.NoError(t, err)

	ec := &EvalContext{
		Capability:    &fakeCapability{},
		ChainCoverage: map[string]int{"chain-a": 100, "chain-b": 67},
	}
	res := EvaluateGate(context.Background(), ast, ec)

	assert.True(t, res.Passed)
	assert.Empty(t, res.Blockers)
}

func TestEvaluateGate_Or_ShortCircuitsOnFirstTrue(t *testing.T) {
	ast, err := Parse("typecheck OR tests")
	require.NoError(t, err)

	ec := &EvalContext{
		Capability: &fakeCapability{exitCodes: map[string]int{
			"go vet ./...": 0,
		}},
		TypecheckCommand: "go vet ./...",
		TestCommand:      "go test ./...",
	}
	res := EvaluateGate(context.Background(), ast, ec)

	assert.True(t, res.Passed)
	require.Len(t, res.Results, 1)
}

func TestEvaluateGate_Not(t *testing.T) {
	ast, err := Parse("NOT typecheck")
	require.NoError(t, err)

	ec := &EvalContext{
		Capability:       &fakeCapability{exitCodes: map[string]int{"go vet ./...": 1}},
		TypecheckCommand: "go vet ./...",
	}
	res := EvaluateGate(context.Background(), ast, ec)
	assert.True(t, res.Passed)
}

func TestEvaluateGate_EvidenceExists(t *testing.T) {
	ast, err := Parse("evidence:chain-a exists")
	require.NoError(t, err)

	ec := &EvalContext{Capability: &fakeCapability{chains: []string{"chain-a"}}}
	res := EvaluateGate(context.Background(), ast, ec)
	assert.True(t, res.Passed)

	ec2 := &EvalContext{Capability: &fakeCapability{chains: []string{"chain-b"}}}
	res2 := EvaluateGate(context.Background(), ast, ec2)
	assert.False(t, res2.Passed)
}

func TestEvaluateGate_MemoryPattern(t *testing.T) {
	ast, err := Parse("memory:notes-*.md")
	require.NoError(t, err)

	ec := &EvalContext{
		Capability:  &fakeCapability{},
		MemoryFiles: []string{"notes-session.md"},
	}
	res := EvaluateGate(context.Background(), ast, ec)
	assert.True(t, res.Passed)
}

func TestEvaluateGate_Traceability(t *testing.T) {
	ast, err := Parse("traceability:requirementId")
	require.NoError(t, err)

	ec := &EvalContext{
		Capability:   &fakeCapability{},
		Traceability: map[string]string{"requirementId": "REQ-1"},
	}
	res := EvaluateGate(context.Background(), ast, ec)
	assert.True(t, res.Passed)

	ec2 := &EvalContext{Capability: &fakeCapability{}, Traceability: map[string]string{}}
	res2 := EvaluateGate(context.Background(), ast, ec2)
	assert.False(t, res2.Passed)
}

func TestEvaluateSync_LegacyPasses(t *testing.T) {
	res := EvaluateSync("typecheck, tests, coverage:80")
	assert.True(t, res.Passed)
}

func TestEvaluateSync_EmptyPasses(t *testing.T) {
	res := EvaluateSync("")
	assert.True(t, res.Passed)
}

func TestEvaluateSync_NewDSLRejected(t *testing.T) {
	res := EvaluateSync("typecheck AND tests")
	assert.False(t, res.Passed)
	require.Len(t, res.Blockers, 1)
}
