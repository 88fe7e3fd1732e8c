// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openswarm/orchestrator-core/internal/errs"
	"github.com/openswarm/orchestrator-core/internal/schema"
)

func subtask(id string, priority schema.Priority, deps ...string) schema.Subtask {
	return schema.Subtask{ID: id, AgentType: schema.AgentType("developer"), Priority: priority, Dependencies: deps}
}

func ids(g Group) []string {
	out := make([]string, 0, len(g.Subtasks))
	for _, st := range g.Subtasks {
		out = append(out, st.ID)
	}
	return out
}

func TestBuildGroups_NoDependencies_SingleLayerChunked(t *testing.T) {
	subtasks := []schema.Subtask{
		subtask("a", schema.PriorityMedium),
		subtask("b", schema.PriorityMedium),
		subtask("c", schema.PriorityMedium),
		subtask("d", schema.PriorityMedium),
	}
	groups, err := BuildGroups(subtasks, 3)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, []string{"a", "b", "c"}, ids(groups[0]))
	assert.Equal(t, []string{"d"}, ids(groups[1]))
}

func TestBuildGroups_PrioritySortedWithinLayer(t *testing.T) {
	subtasks := []schema.Subtask{
		subtask("z", schema.PriorityLow),
		subtask("a", schema.PriorityCritical),
		subtask("m", schema.PriorityHigh),
	}
	groups, err := BuildGroups(subtasks, 3)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"a", "m", "z"}, ids(groups[0]))
}

func TestBuildGroups_DependencyLayering(t *testing.T) {
	subtasks := []schema.Subtask{
		subtask("a", schema.PriorityMedium),
		subtask("b", schema.PriorityMedium, "a"),
		subtask("c", schema.PriorityMedium, "a"),
		subtask("d", schema.PriorityMedium, "b", "c"),
	}
	groups, err := BuildGroups(subtasks, 3)
	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Equal(t, []string{"a"}, ids(groups[0]))
	assert.Equal(t, []string{"b", "c"}, ids(groups[1]))
	assert.Equal(t, []string{"d"}, ids(groups[2]))
}

func TestBuildGroups_CycleDetected(t *testing.T) {
	subtasks := []schema.Subtask{
		subtask("a", schema.PriorityMedium, "b"),
		subtask("b", schema.PriorityMedium, "a"),
	}
	_, err := BuildGroups(subtasks, 3)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindDependencyCycle))
}

func TestBuildGroups_Empty(t *testing.T) {
	groups, err := BuildGroups(nil, 3)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestBuildGroups_MaxConcurrencyOne(t *testing.T) {
	subtasks := []schema.Subtask{
		subtask("a", schema.PriorityMedium),
		subtask("b", schema.PriorityMedium),
	}
	groups, err := BuildGroups(subtasks, 1)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Len(t, groups[0].Subtasks, 1)
	assert.Len(t, groups[1].Subtasks, 1)
}
