// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package engine

import "github.com/openswarm/orchestrator-core/internal/schema"

// ExecutionResult is the outcome of one completed spawn, as reported by the
// external spawner once it produces a Handoff (or fails terminally).
type ExecutionResult struct {
	TaskID  string
	Handoff *schema.Handoff
	Err     error
}

// AggregatedContext is the running view of every spawn result the engine
// has seen so far within a phase.
type AggregatedContext struct {
	Handoffs   map[string]*schema.Handoff
	TotalTokens int
	Errors      []string
}

// NewAggregatedContext returns an empty AggregatedContext.
func NewAggregatedContext() *AggregatedContext {
	return &AggregatedContext{Handoffs: map[string]*schema.Handoff{}}
}

// Aggregate folds results into acc, returning acc for chaining. Folding is
// commutative (order of results does not affect the final map/total/error
// set) and idempotent (folding the same result twice leaves Handoffs and
// Errors unchanged, since both are keyed/deduplicated).
func Aggregate(acc *AggregatedContext, results ...ExecutionResult) *AggregatedContext {
	if acc == nil {
		acc = NewAggregatedContext()
	}
	seenErrors := make(map[string]bool, len(acc.Errors))
	for _, e := range acc.Errors {
		seenErrors[e] = true
	}

	for _, r := range results {
		if r.Err != nil {
			msg := r.TaskID + ": " + r.Err.Error()
			if !seenErrors[msg] {
				acc.Errors = append(acc.Errors, msg)
				seenErrors[msg] = true
			}
			continue
		}
		if r.Handoff == nil {
			continue
		}
		if _, already := acc.Handoffs[r.TaskID]; already {
			continue
		}
		acc.Handoffs[r.TaskID] = r.Handoff
		if r.Handoff.TokenUsage != nil {
			acc.TotalTokens += r.Handoff.TokenUsage.Total
		}
	}
	return acc
}
