// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/openswarm/orchestrator-core/internal/capability"
	"github.com/openswarm/orchestrator-core/internal/schema"
	"github.com/openswarm/orchestrator-core/internal/telemetry"
)

const tracerName = "orchestrator-core/engine"

// SpawnActivities wraps the capability.Capability spawn boundary in
// Temporal activities; the activity body does nothing but hand the spawn to
// the external spawner and decode whatever Handoff payload comes back.
type SpawnActivities struct {
	Capability capability.Capability
}

// SpawnAgent executes one subtask spawn and returns its decoded Handoff.
func (a *SpawnActivities) SpawnAgent(ctx context.Context, s Spawn) (*schema.Handoff, error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "engine.spawn_agent")
	defer span.End()
	telemetry.AddAttributes(ctx,
		telemetry.AttrTaskID.String(s.TaskID),
		telemetry.AttrAgentType.String(string(s.AgentType)),
	)

	logger := activity.GetLogger(ctx)
	logger.Info("dispatching spawn", "taskId", s.TaskID, "agentType", s.AgentType)

	activity.RecordHeartbeat(ctx, "spawning")

	raw, err := a.Capability.Spawn(ctx, capability.SpawnRequest{
		AgentType: string(s.AgentType),
		Command:   s.Command,
	})
	if err != nil {
		logger.Error("spawn failed", "taskId", s.TaskID, "error", err)
		telemetry.RecordError(ctx, err)
		if !IsTransient(err.Error()) {
			return nil, temporal.NewNonRetryableApplicationError(fmt.Sprintf("spawn failed for task %s: %v", s.TaskID, err), "NonTransientSpawnError", err)
		}
		return nil, fmt.Errorf("spawn failed for task %s: %w", s.TaskID, err)
	}

	var handoff schema.Handoff
	if err := json.Unmarshal(raw, &handoff); err != nil {
		telemetry.RecordError(ctx, err)
		return nil, temporal.NewNonRetryableApplicationError(fmt.Sprintf("spawn for task %s returned an undecodable handoff: %v", s.TaskID, err), "UndecodableHandoff", err)
	}
	return &handoff, nil
}
