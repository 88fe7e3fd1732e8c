// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package engine

import (
	"github.com/openswarm/orchestrator-core/internal/conflict"
	"github.com/openswarm/orchestrator-core/internal/schema"
)

// Spawn is one agent invocation within a DispatchInstruction.
type Spawn struct {
	TaskID          string
	AgentType       schema.AgentType
	Command         string
	RunInBackground bool
}

// DispatchInstruction is the unit of work the engine yields per group. The
// engine never spawns anything itself; it only produces this instruction
// for the external spawner to act on.
type DispatchInstruction struct {
	GroupID         int
	AgentCount      int
	WaitForAll      bool
	Spawns          []Spawn
	EstimatedTokens int
	Summary         string
	FileConflicts   []conflict.Conflict
}

// BuildDispatchInstruction renders a Group into a DispatchInstruction,
// substituting {result:<taskId>} placeholders in each subtask's prompt from
// ctx and surfacing any overlapping file-pattern claims within the group.
func BuildDispatchInstruction(groupID int, g Group, ctx *AggregatedContext, waitForAll bool) DispatchInstruction {
	instr := DispatchInstruction{
		GroupID:    groupID,
		AgentCount: len(g.Subtasks),
		WaitForAll: waitForAll,
	}

	var claims []conflict.Claim
	for _, st := range g.Subtasks {
		prompt := ""
		var patterns []string
		if st.Context != nil {
			prompt = InjectPlaceholders(st.Context.Prompt, ctx)
			patterns = st.Context.Files
		}
		instr.Spawns = append(instr.Spawns, Spawn{
			TaskID:          st.ID,
			AgentType:       st.AgentType,
			Command:         prompt,
			RunInBackground: !waitForAll,
		})
		instr.EstimatedTokens += st.EstimatedTokens
		if len(patterns) > 0 {
			claims = append(claims, conflict.Claim{TaskID: st.ID, Patterns: patterns})
		}
	}

	instr.FileConflicts = conflict.NewAnalyzer().Detect(claims)
	instr.Summary = summarize(g)
	return instr
}

func summarize(g Group) string {
	s := ""
	for i, st := range g.Subtasks {
		if i > 0 {
			s += ", "
		}
		s += st.ID
	}
	return s
}
