// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package capability

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellSpawner_WrapsCommandOutputAsTaskComplete(t *testing.T) {
	s := &ShellSpawner{SessionID: "sess-1", PlanID: "plan-1"}

	raw, err := s.Spawn(context.Background(), SpawnRequest{AgentType: "developer", Command: "echo hello"})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "task_complete", decoded["reason"])
	assert.Equal(t, "sess-1", decoded["sessionId"])
}

func TestShellSpawner_EmptyCommandErrors(t *testing.T) {
	s := &ShellSpawner{}
	_, err := s.Spawn(context.Background(), SpawnRequest{AgentType: "developer"})
	assert.Error(t, err)
}

func TestShellSpawner_CommandFailureErrors(t *testing.T) {
	s := &ShellSpawner{}
	_, err := s.Spawn(context.Background(), SpawnRequest{AgentType: "developer", Command: "false"})
	assert.Error(t, err)
}
