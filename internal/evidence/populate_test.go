// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package evidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openswarm/orchestrator-core/internal/hub"
	"github.com/openswarm/orchestrator-core/internal/schema"
)

func testSessionID() string {
	return "20260730_10-00_aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"
}

func newTestHub(t *testing.T) *hub.Hub {
	t.Helper()
	h, err := hub.New(t.TempDir(), testSessionID(), "test-writer")
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func baseHandoff(agentType schema.AgentType, taskID, status string, output map[string]interface{}) *schema.Handoff {
	return &schema.Handoff{
		ID:        "handoff-1",
		SessionID: testSessionID(),
		PlanID:    "plan-1",
		FromAgent: schema.AgentRef{Type: agentType},
		ToAgent:   schema.AgentRef{Type: schema.AgentOrchestrator},
		Reason:    schema.ReasonTaskComplete,
		State:     schema.HandoffState{CurrentPhase: "phase-1"},
		Results: []schema.TaskResult{
			{TaskID: taskID, Status: status, Summary: "did the work", Output: output},
		},
		Context: schema.HandoffContext{CriticalContext: "none", ResumeInstructions: "none"},
	}
}

func TestAutoPopulate_CreatesChainFromDeveloperOutput(t *testing.T) {
	h := newTestHub(t)
	handoff := baseHandoff(schema.AgentDeveloper, "task-1", "complete", map[string]interface{}{
		"filesModified":   []interface{}{"a.go", "b.go"},
		"typecheckPassed": true,
	})

	res, err := AutoPopulate(h, handoff)
	require.NoError(t, err)
	assert.True(t, res.Created)
	require.NotNil(t, res.Chain)
	assert.Equal(t, 33, res.Chain.ChainStatus.CoveragePercent)
	assert.True(t, res.Chain.ChainStatus.ImplementationLinked)
	assert.Equal(t, []string{"a.go", "b.go"}, res.Chain.Implementation.FilesModified)

	stored, err := h.ReadEvidenceChain(res.Chain.ID)
	require.NoError(t, err)
	assert.Equal(t, "task-1", stored.Requirement.TaskID)
}

func TestAutoPopulate_MergesIntoExistingChain(t *testing.T) {
	h := newTestHub(t)

	analyst := baseHandoff(schema.AgentAnalyst, "task-1", "complete", map[string]interface{}{"memoryName": "mem-1"})
	_, err := AutoPopulate(h, analyst)
	require.NoError(t, err)

	developer := baseHandoff(schema.AgentDeveloper, "task-1", "complete", map[string]interface{}{"typecheckPassed": true})
	res, err := AutoPopulate(h, developer)
	require.NoError(t, err)
	assert.False(t, res.Created)
	require.NotNil(t, res.Chain)
	assert.Equal(t, 67, res.Chain.ChainStatus.CoveragePercent)
	assert.True(t, res.Chain.ChainStatus.AnalysisLinked)
	assert.True(t, res.Chain.ChainStatus.ImplementationLinked)
}

func TestAutoPopulate_ShortCircuitsOnWrongReason(t *testing.T) {
	h := newTestHub(t)
	handoff := baseHandoff(schema.AgentDeveloper, "task-1", "complete", nil)
	handoff.Reason = schema.ReasonTokenLimit

	res, err := AutoPopulate(h, handoff)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Nil(t, res.Chain)
}

func TestAutoPopulate_ShortCircuitsWithNoCompletedTask(t *testing.T) {
	h := newTestHub(t)
	handoff := baseHandoff(schema.AgentDeveloper, "task-1", "blocked", nil)

	res, err := AutoPopulate(h, handoff)
	require.NoError(t, err)
	assert.False(t, res.Created)
}

func TestAutoPopulate_UnknownAgentTypeNoError(t *testing.T) {
	h := newTestHub(t)
	handoff := baseHandoff(schema.AgentShadcn, "task-1", "complete", nil)

	res, err := AutoPopulate(h, handoff)
	require.NoError(t, err)
	assert.False(t, res.Created)
}
