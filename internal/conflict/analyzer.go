// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// Package conflict detects overlapping file-pattern claims between subtasks
// the Parallel Engine is about to dispatch in the same group. It does not
// veto a group (the engine has no authority to change the Plan); it reports
// what it finds so the dispatch instruction can carry a warning for the
// external spawner or a dashboard to act on.
package conflict

import (
	"fmt"
	"log/slog"

	"github.com/openswarm/orchestrator-core/internal/patternmatch"
)

// Claim is one subtask's declared file-pattern footprint within a group.
type Claim struct {
	TaskID   string
	Patterns []string
}

// Conflict records that two subtasks in the same dispatch group declared
// overlapping file patterns.
type Conflict struct {
	TaskID        string
	OtherTaskID   string
	Pattern       string
	OtherPattern  string
}

// Analyzer detects file-pattern conflicts among concurrently dispatched claims.
type Analyzer struct{}

// NewAnalyzer creates a new file-conflict analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Detect returns every pairwise conflict among claims in one dispatch group.
// Order is deterministic: outer loop by claim index, inner loop over later
// claims only, so each unordered pair is reported once.
func (a *Analyzer) Detect(claims []Claim) []Conflict {
	var found []Conflict
	for i := 0; i < len(claims); i++ {
		for j := i + 1; j < len(claims); j++ {
			for _, p1 := range claims[i].Patterns {
				for _, p2 := range claims[j].Patterns {
					if patternmatch.Overlap(p1, p2) {
						slog.Warn("file pattern conflict in dispatch group",
							"task", claims[i].TaskID, "other_task", claims[j].TaskID,
							"pattern", p1, "other_pattern", p2)
						found = append(found, Conflict{
							TaskID:       claims[i].TaskID,
							OtherTaskID:  claims[j].TaskID,
							Pattern:      p1,
							OtherPattern: p2,
						})
					}
				}
			}
		}
	}
	return found
}

// Format renders a conflict as a one-line human-readable warning.
func Format(c Conflict) string {
	return fmt.Sprintf("task %s and task %s both claim overlapping paths (%q, %q)",
		c.TaskID, c.OtherTaskID, c.Pattern, c.OtherPattern)
}
