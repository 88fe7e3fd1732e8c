// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package evidence

import (
	"github.com/openswarm/orchestrator-core/internal/hub"
	"github.com/openswarm/orchestrator-core/internal/schema"
)

// PopulateResult is the outcome of AutoPopulate.
type PopulateResult struct {
	Created bool
	Chain   *schema.EvidenceChain
}

// AutoPopulate implements autoPopulateEvidence(sessionPath, handoff) from
// spec.md §4.5: a Handoff that reports a completed task merges its
// fromAgent-specific section into that task's evidence chain (creating one
// on first contact), recomputing coverage each time.
func AutoPopulate(h *hub.Hub, handoff *schema.Handoff) (*PopulateResult, error) {
	if handoff.Reason != schema.ReasonTaskComplete {
		return &PopulateResult{Created: false}, nil
	}

	taskID, result := firstCompletedTask(handoff)
	if taskID == "" {
		return &PopulateResult{Created: false}, nil
	}

	existing, err := h.FindEvidenceChainByTask(taskID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if !mergeSection(existing, handoff.FromAgent.Type, result, handoff.ID) {
			return &PopulateResult{Created: false}, nil
		}
		existing.ChainStatus = computeStatus(existing)
		if err := h.WriteEvidenceChain(existing); err != nil {
			return nil, err
		}
		return &PopulateResult{Created: false, Chain: existing}, nil
	}

	builder := CreateEvidenceChain(handoff.SessionID, taskID, taskDescription(result), nil)
	if ok := applySection(builder, handoff.FromAgent.Type, result, handoff.ID); !ok {
		return &PopulateResult{Created: false}, nil
	}
	chain := builder.Build()

	if err := h.WriteEvidenceChain(chain); err != nil {
		return nil, err
	}
	return &PopulateResult{Created: true, Chain: chain}, nil
}

func firstCompletedTask(handoff *schema.Handoff) (string, *schema.TaskResult) {
	for i := range handoff.Results {
		if handoff.Results[i].Status == "complete" || handoff.Results[i].Status == "completed" {
			return handoff.Results[i].TaskID, &handoff.Results[i]
		}
	}
	return "", nil
}

func taskDescription(result *schema.TaskResult) string {
	if result == nil {
		return ""
	}
	return result.Summary
}

// applySection attaches the section corresponding to agentType to a
// freshly created builder. Returns false for an unrecognized agent type.
func applySection(b *Builder, agentType schema.AgentType, result *schema.TaskResult, handoffID string) bool {
	switch agentType {
	case schema.AgentAnalyst:
		b.WithAnalysis(analysisFromOutput(result, handoffID))
	case schema.AgentDeveloper:
		b.WithImplementation(implementationFromOutput(result, handoffID))
	case schema.AgentBrowser:
		b.WithValidation(validationFromOutput(result, handoffID))
	default:
		return false
	}
	return true
}

// mergeSection attaches the section corresponding to agentType to an
// already-existing chain. Returns false for an unrecognized agent type.
func mergeSection(c *schema.EvidenceChain, agentType schema.AgentType, result *schema.TaskResult, handoffID string) bool {
	switch agentType {
	case schema.AgentAnalyst:
		s := analysisFromOutput(result, handoffID)
		c.Analysis = &s
	case schema.AgentDeveloper:
		s := implementationFromOutput(result, handoffID)
		c.Implementation = &s
	case schema.AgentBrowser:
		s := validationFromOutput(result, handoffID)
		c.Validation = &s
	default:
		return false
	}
	return true
}

func analysisFromOutput(result *schema.TaskResult, handoffID string) schema.AnalysisSection {
	out := outputOf(result)
	return schema.AnalysisSection{
		MemoryName:      stringField(out, "memoryName"),
		AnalyzedSymbols: stringSliceField(out, "analyzedSymbols"),
		EntryPoints:     stringSliceField(out, "entryPoints"),
		DataFlowMap:     stringField(out, "dataFlowMap"),
		HandoffID:       handoffID,
	}
}

func implementationFromOutput(result *schema.TaskResult, handoffID string) schema.ImplementationSection {
	out := outputOf(result)
	return schema.ImplementationSection{
		FilesModified:   stringSliceField(out, "filesModified"),
		SymbolsChanged:  stringSliceField(out, "symbolsChanged"),
		TypecheckPassed: boolField(out, "typecheckPassed"),
		HandoffID:       handoffID,
	}
}

func validationFromOutput(result *schema.TaskResult, handoffID string) schema.ValidationSection {
	out := outputOf(result)
	return schema.ValidationSection{
		TestsPassed: intField(out, "testsPassed"),
		TestsFailed: intField(out, "testsFailed"),
		Screenshots: stringSliceField(out, "screenshots"),
		HandoffID:   handoffID,
	}
}

func outputOf(result *schema.TaskResult) map[string]interface{} {
	if result == nil || result.Output == nil {
		return map[string]interface{}{}
	}
	return result.Output
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func boolField(m map[string]interface{}, key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}

func intField(m map[string]interface{}, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

func stringSliceField(m map[string]interface{}, key string) []string {
	raw, ok := m[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
