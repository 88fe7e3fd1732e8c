// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package engine

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/log"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/openswarm/orchestrator-core/internal/errs"
	"github.com/openswarm/orchestrator-core/internal/schema"
)

// defaultActivityTimeout bounds a single spawn activity; per spec.md §4.3 this is
// the per-spawn timeoutMs, defaulted here to the 300s config default.
const defaultActivityTimeout = 300 * time.Second

// PhaseDispatchInput is the Temporal workflow input: the subtasks of one
// Phase plus the engine configuration governing concurrency and budget.
type PhaseDispatchInput struct {
	PhaseID             string
	Subtasks            []schema.Subtask
	MaxConcurrentAgents int
	WaitForAll          bool
	TokenBudget         int
	RetryOnFailure      bool
	MaxRetryAttempts    int
	ActivityTimeout     time.Duration
}

// PhaseDispatchResult is what DispatchPhaseWorkflow returns once every
// group in the phase has been dispatched; a group that would exceed the
// token budget ends the workflow with a budget_exceeded error instead.
// RetryMetrics is always empty here: within Temporal, retry is delegated to
// temporal.RetryPolicy on the activity options rather than the RunWithRetry
// helper, which instead backs non-Temporal callers that need the exact
// substring-matched backoff schedule (e.g. a synchronous CLI dispatch path).
type PhaseDispatchResult struct {
	Aggregated    *AggregatedContext
	RetryMetrics  []RetryMetrics
	FileConflicts int
}

// DispatchPhaseWorkflow drives BuildGroups' output through a barrier loop:
// each group's spawns run as activities selected via workflow.Selector, and
// the next group does not start until every spawn of the current group has
// returned, whatever WaitForAll is set to. This
// generalizes the teacher's single-shell-task DAG workflow to typed
// subtasks, priority ordering, token budget gating, and placeholder
// injection (spec.md §4.3b).
func DispatchPhaseWorkflow(ctx workflow.Context, input PhaseDispatchInput) (*PhaseDispatchResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("dispatching phase", "phaseId", input.PhaseID, "subtasks", len(input.Subtasks))

	groups, err := BuildGroups(input.Subtasks, input.MaxConcurrentAgents)
	if err != nil {
		return nil, err
	}

	activityTimeout := input.ActivityTimeout
	if activityTimeout <= 0 {
		activityTimeout = defaultActivityTimeout
	}
	maxAttempts := input.MaxRetryAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	retryAttempts := int32(1)
	if input.RetryOnFailure {
		retryAttempts = int32(maxAttempts)
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: activityTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    500 * time.Millisecond,
			BackoffCoefficient: 2.0,
			MaximumInterval:    5 * time.Second,
			MaximumAttempts:    retryAttempts,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	budget := NewBudgetTracker(input.TokenBudget)
	aggregated := NewAggregatedContext()
	var allRetryMetrics []RetryMetrics
	totalConflicts := 0

	for i, g := range groups {
		instr := BuildDispatchInstruction(i, g, aggregated, input.WaitForAll)
		totalConflicts += len(instr.FileConflicts)
		for _, c := range instr.FileConflicts {
			logger.Warn("file pattern conflict in dispatch group", "phaseId", input.PhaseID, "groupId", i, "taskId", c.TaskID, "otherTaskId", c.OtherTaskID)
		}

		if !budget.WithinBudget(instr.EstimatedTokens) {
			return nil, errs.Newf(errs.KindBudgetExceeded, "group %d estimated %d tokens exceeds remaining budget (used %d of %d)", i, instr.EstimatedTokens, budget.Used(), budget.TokenBudget)
		}

		results, err := dispatchGroup(ctx, logger, instr)
		if err != nil {
			return nil, err
		}

		aggregated = Aggregate(aggregated, results...)
		for _, r := range results {
			if r.Handoff != nil && r.Handoff.TokenUsage != nil {
				budget.Record(r.Handoff.TokenUsage.Total)
			}
		}
	}

	return &PhaseDispatchResult{
		Aggregated:    aggregated,
		RetryMetrics:  allRetryMetrics,
		FileConflicts: totalConflicts,
	}, nil
}

// dispatchGroup fires every spawn in instr concurrently and waits for all
// of them via workflow.Selector, matching the teacher's barrier-loop style
// (pkg/dag/engine.go's waitForTaskCompletion) generalized to typed handoffs.
func dispatchGroup(ctx workflow.Context, logger log.Logger, instr DispatchInstruction) ([]ExecutionResult, error) {
	selector := workflow.NewSelector(ctx)
	results := make([]ExecutionResult, 0, len(instr.Spawns))
	pending := len(instr.Spawns)

	a := &SpawnActivities{}
	for _, s := range instr.Spawns {
		spawn := s
		future := workflow.ExecuteActivity(ctx, a.SpawnAgent, spawn)
		selector.AddFuture(future, func(f workflow.Future) {
			var handoff schema.Handoff
			err := f.Get(ctx, &handoff)
			if err != nil {
				logger.Error("spawn failed", "taskId", spawn.TaskID, "error", err)
				results = append(results, ExecutionResult{TaskID: spawn.TaskID, Err: err})
			} else {
				logger.Info("spawn completed", "taskId", spawn.TaskID)
				results = append(results, ExecutionResult{TaskID: spawn.TaskID, Handoff: &handoff})
			}
		})
	}

	for pending > 0 {
		selector.Select(ctx)
		pending--
	}

	for _, r := range results {
		if r.Err != nil {
			return results, fmt.Errorf("group %d: task %s failed: %w", instr.GroupID, r.TaskID, r.Err)
		}
	}
	return results, nil
}
