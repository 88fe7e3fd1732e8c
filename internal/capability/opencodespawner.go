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

	"github.com/google/uuid"
	opencode "github.com/sst/opencode-sdk-go"
	"github.com/sst/opencode-sdk-go/option"
)

// OpenCodeSpawner is a Spawner backed by a running `opencode serve` instance
// (spec.md §6's external spawner boundary), reached through the same SDK
// session/prompt calls the agent client package wraps: a session is created
// per spawn and the subtask's command is sent as the session's prompt. The
// core never inspects the SDK response beyond folding it into a Handoff —
// everything about *how* the agent actually executes stays behind the
// boundary, same as ShellSpawner.
type OpenCodeSpawner struct {
	SDK       *opencode.Client
	SessionID string
	PlanID    string
}

// NewOpenCodeSpawner configures an SDK client for a local opencode serve
// instance, mirroring the agent client's BaseURL-only configuration.
func NewOpenCodeSpawner(baseURL, sessionID, planID string) *OpenCodeSpawner {
	return &OpenCodeSpawner{
		SDK:       opencode.NewClient(option.WithBaseURL(baseURL)),
		SessionID: sessionID,
		PlanID:    planID,
	}
}

// Spawn implements Spawner.
func (s *OpenCodeSpawner) Spawn(ctx context.Context, req SpawnRequest) ([]byte, error) {
	if req.Command == "" {
		return nil, fmt.Errorf("spawn request for agent type %q has no command", req.AgentType)
	}

	session, err := s.SDK.Session.New(ctx, opencode.SessionNewParams{
		Title: opencode.F(fmt.Sprintf("spawn:%s", req.AgentType)),
	})
	if err != nil {
		return nil, fmt.Errorf("opencode spawner: failed to create session: %w", err)
	}

	parts := []opencode.SessionPromptParamsPartUnion{
		opencode.TextPartInputParam{
			Type: opencode.F(opencode.TextPartInputTypeText),
			Text: opencode.F(req.Command),
		},
	}
	message, err := s.SDK.Session.Prompt(ctx, session.ID, opencode.SessionPromptParams{
		Parts: opencode.F(parts),
	})
	if err != nil {
		return nil, fmt.Errorf("opencode spawner: prompt failed for agent type %q: %w", req.AgentType, err)
	}

	summary := ""
	for _, part := range message.Parts {
		if part.Type == opencode.PartTypeText {
			summary += part.Text
		}
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
			{"taskId": req.AgentType, "status": "complete", "summary": summary},
		},
		"context": map[string]string{
			"criticalContext":    fmt.Sprintf("opencode session %s", session.ID),
			"resumeInstructions": "none",
		},
	}

	return json.Marshal(handoff)
}
