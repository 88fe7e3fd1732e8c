// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package engine

import (
	"fmt"
	"regexp"

	"github.com/openswarm/orchestrator-core/internal/schema"
)

// placeholderPattern matches "{result:<taskId>}" references inside a
// subtask prompt.
var placeholderPattern = regexp.MustCompile(`\{result:([^}]+)\}`)

// InjectPlaceholders substitutes every {result:<taskId>} reference in text
// with the formatted handoff of the referenced upstream task, taken from
// ctx. A reference to a task absent from ctx is replaced with a literal
// warning marker rather than failing — placeholder injection never errors.
func InjectPlaceholders(text string, ctx *AggregatedContext) string {
	if ctx == nil {
		ctx = NewAggregatedContext()
	}
	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		taskID := placeholderPattern.FindStringSubmatch(match)[1]
		handoff, ok := ctx.Handoffs[taskID]
		if !ok {
			return fmt.Sprintf("[missing result for task %q]", taskID)
		}
		return formatHandoff(handoff)
	})
}

// formatHandoff renders a Handoff's result summaries into prose suitable
// for embedding in a downstream subtask's prompt.
func formatHandoff(h *schema.Handoff) string {
	if len(h.Results) == 0 {
		return fmt.Sprintf("[task %s completed with no recorded result]", taskIDOf(h))
	}
	out := ""
	for i, r := range h.Results {
		if i > 0 {
			out += "; "
		}
		out += fmt.Sprintf("%s (%s): %s", r.TaskID, r.Status, r.Summary)
	}
	return out
}

func taskIDOf(h *schema.Handoff) string {
	if len(h.Results) > 0 {
		return h.Results[0].TaskID
	}
	return h.ID
}
