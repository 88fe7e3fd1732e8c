// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bitfield/script"
	"github.com/google/uuid"
)

// ShellSpawner is a reference Spawner for local exercise of the core
// without a real agent fleet behind it: it runs req.Command via
// bitfield/script (same runner Default.RunCommand uses) and wraps whatever
// the command prints to stdout into a task_complete Handoff. A production
// deployment's external spawner boundary replaces this with whatever
// actually launches agent processes (spec.md §6); the core never assumes
// more about it than the Spawner interface.
type ShellSpawner struct {
	SessionID string
	PlanID    string
}

// Spawn implements Spawner.
func (s *ShellSpawner) Spawn(ctx context.Context, req SpawnRequest) ([]byte, error) {
	if req.Command == "" {
		return nil, fmt.Errorf("spawn request for agent type %q has no command", req.AgentType)
	}

	out, err := script.NewPipe().WithContext(ctx).Exec(req.Command).String()
	if err != nil {
		return nil, fmt.Errorf("shell spawner: command %q failed: %w", req.Command, err)
	}

	handoff := map[string]interface{}{
		"id":        uuid.NewString(),
		"sessionId": s.SessionID,
		"planId":    s.PlanID,
		"fromAgent": map[string]string{"type": req.AgentType},
		"toAgent":   map[string]string{"type": "orchestrator"},
		"timestamp": time.Now().UTC(),
		"reason":    "task_complete",
		"state": map[string]interface{}{
			"currentPhase":   "",
			"completedTasks": []string{},
			"pendingTasks":   []string{},
		},
		"results": []map[string]interface{}{
			{"taskId": req.AgentType, "status": "complete", "summary": out},
		},
		"context": map[string]string{
			"criticalContext":    "shell spawner output captured verbatim",
			"resumeInstructions": "none",
		},
	}

	return json.Marshal(handoff)
}
