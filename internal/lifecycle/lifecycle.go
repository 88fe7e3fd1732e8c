// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// Package lifecycle implements Gate Lifecycle / Phase Advancement (C5):
// atomically advancing OrchestratorState.currentPhase iff the configured
// gate passes, per spec.md §4.4.
package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openswarm/orchestrator-core/internal/errs"
	"github.com/openswarm/orchestrator-core/internal/gatedsl"
	"github.com/openswarm/orchestrator-core/internal/hub"
	"github.com/openswarm/orchestrator-core/internal/schema"
	"github.com/openswarm/orchestrator-core/internal/telemetry"
)

const tracerName = "orchestrator-core/lifecycle"

// Validation optionally overrides the phase's own gate condition, e.g. for
// a dry-run check against a candidate condition before committing a Plan.
type Validation struct {
	Condition string
}

// AdvanceResult is the outcome of advancePhase.
type AdvanceResult struct {
	Success    bool
	GateResult *schema.GateResult
	NextPhase  string
	Error      string
}

// Advancer drives phase advancement for one session, reading/writing state
// and gate results through a Hub and evaluating conditions through gatedsl.
type Advancer struct {
	Hub *hub.Hub
}

// New creates an Advancer bound to h.
func New(h *hub.Hub) *Advancer {
	return &Advancer{Hub: h}
}

// AdvancePhase implements the 7-step contract from spec.md §4.4:
//  1. Resolve the gate condition.
//  2. Evaluate it asynchronously via gatedsl.
//  3. Persist the GateResult.
//  4. On failure, return without mutating state.
//  5. On success, advance to the next Phase (or mark complete).
//  6. Write the updated state and append a phase_advance history entry.
//  7. Return the result.
func (a *Advancer) AdvancePhase(ctx context.Context, phaseID string, validation *Validation, ec *gatedsl.EvalContext) (*AdvanceResult, error) {
	spanCtx, span := telemetry.StartSpan(ctx, tracerName, "lifecycle.advance_phase")
	defer span.End()
	ctx = spanCtx

	plan, err := a.Hub.ReadPlan("")
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, err
	}
	state, err := a.Hub.ReadOrchestratorState()
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, err
	}

	telemetry.AddAttributes(ctx, telemetry.SessionAttrs(state.SessionID, plan.ID, phaseID)...)

	phase, phaseIndex, err := findPhase(plan, phaseID)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, err
	}

	condition := resolveCondition(phase, validation)

	var evalResult *gatedsl.EvalResult
	if strings.TrimSpace(condition) == "" {
		evalResult = &gatedsl.EvalResult{Passed: true}
	} else {
		ast, parseErr := gatedsl.Parse(condition)
		if parseErr != nil {
			telemetry.RecordError(ctx, parseErr)
			return nil, errs.Wrap(errs.KindValidationFailed, parseErr, "gate condition failed to parse")
		}
		evalResult = gatedsl.EvaluateGate(ctx, ast, ec)
	}

	gateResult := &schema.GateResult{
		PhaseID:   phaseID,
		Passed:    evalResult.Passed,
		CheckedAt: time.Now().UTC(),
		Results:   evalResult.Results,
		Blockers:  evalResult.Blockers,
	}
	if err := a.Hub.WriteGateResult(gateResult); err != nil {
		telemetry.RecordError(ctx, err)
		return nil, err
	}

	telemetry.AddAttributes(ctx, telemetry.GateAttrs(condition, evalResult.Passed)...)

	if !evalResult.Passed {
		telemetry.AddEvent(ctx, "lifecycle.gate_blocked")
		return &AdvanceResult{
			Success:    false,
			GateResult: gateResult,
			Error:      fmt.Sprintf("Gate check failed: %s", strings.Join(evalResult.Blockers, ", ")),
		}, nil
	}

	nextPhase := nextPhaseAfter(plan, phaseIndex)
	if nextPhase == nil {
		state.CurrentPhase.Progress = 100
	} else {
		state.CurrentPhase = schema.CurrentPhaseRef{ID: nextPhase.ID, Name: nextPhase.Name, Progress: 0}
	}
	state.UpdatedAt = time.Now().UTC()

	if err := a.Hub.WriteOrchestratorState(state); err != nil {
		telemetry.RecordError(ctx, err)
		return nil, err
	}

	historyID := "complete"
	nextID := ""
	if nextPhase != nil {
		historyID = nextPhase.ID
		nextID = nextPhase.ID
	}
	if err := a.Hub.AppendPhaseAdvanceHistory(historyID); err != nil {
		telemetry.RecordError(ctx, err)
		return nil, err
	}

	telemetry.AddEvent(ctx, "lifecycle.phase_advanced")

	return &AdvanceResult{
		Success:    true,
		GateResult: gateResult,
		NextPhase:  nextID,
	}, nil
}

func resolveCondition(phase *schema.Phase, validation *Validation) string {
	if validation != nil && strings.TrimSpace(validation.Condition) != "" {
		return validation.Condition
	}
	return phase.GateCondition
}

func findPhase(plan *schema.Plan, phaseID string) (*schema.Phase, int, error) {
	for i := range plan.Phases {
		if plan.Phases[i].ID == phaseID {
			return &plan.Phases[i], i, nil
		}
	}
	return nil, -1, errs.Newf(errs.KindNotFound, "phase %q not found in plan %q", phaseID, plan.ID)
}

func nextPhaseAfter(plan *schema.Plan, index int) *schema.Phase {
	if index+1 >= len(plan.Phases) {
		return nil
	}
	return &plan.Phases[index+1]
}
