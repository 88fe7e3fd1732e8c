// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"github.com/openswarm/orchestrator-core/internal/schema"
)

func TestDispatchPhaseWorkflow_TwoGroupsAggregate(t *testing.T) {
	ts := &testsuite.WorkflowTestSuite{}
	env := ts.NewTestWorkflowEnvironment()

	a := &SpawnActivities{}
	env.OnActivity(a.SpawnAgent, mock.Anything, mock.MatchedBy(func(s Spawn) bool {
		return s.TaskID == "a"
	})).Return(&schema.Handoff{
		ID:     "handoff-a",
		Reason: schema.ReasonTaskComplete,
		Results: []schema.TaskResult{
			{TaskID: "a", Status: "complete"},
		},
	}, nil)
	env.OnActivity(a.SpawnAgent, mock.Anything, mock.MatchedBy(func(s Spawn) bool {
		return s.TaskID == "b"
	})).Return(&schema.Handoff{
		ID:     "handoff-b",
		Reason: schema.ReasonTaskComplete,
		Results: []schema.TaskResult{
			{TaskID: "b", Status: "complete"},
		},
	}, nil)

	env.ExecuteWorkflow(DispatchPhaseWorkflow, PhaseDispatchInput{
		PhaseID: "phase-1",
		Subtasks: []schema.Subtask{
			subtask("a", schema.PriorityHigh),
			subtask("b", schema.PriorityHigh, "a"),
		},
		MaxConcurrentAgents: 2,
		WaitForAll:          true,
		TokenBudget:         100000,
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result PhaseDispatchResult
	require.NoError(t, env.GetWorkflowResult(&result))
	assert.Len(t, result.Aggregated.Handoffs, 2)
	assert.Contains(t, result.Aggregated.Handoffs, "a")
	assert.Contains(t, result.Aggregated.Handoffs, "b")
}

func TestDispatchPhaseWorkflow_ActivityFailurePropagates(t *testing.T) {
	ts := &testsuite.WorkflowTestSuite{}
	env := ts.NewTestWorkflowEnvironment()

	a := &SpawnActivities{}
	env.OnActivity(a.SpawnAgent, mock.Anything, mock.Anything).Return(nil, assert.AnError)

	env.ExecuteWorkflow(DispatchPhaseWorkflow, PhaseDispatchInput{
		PhaseID:             "phase-1",
		Subtasks:            []schema.Subtask{subtask("a", schema.PriorityMedium)},
		MaxConcurrentAgents: 1,
		TokenBudget:         100000,
	})

	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
}
