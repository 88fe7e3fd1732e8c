// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// Package engine implements the Parallel Execution Engine: it transforms a
// Phase's subtasks into an ordered sequence of parallel dispatch groups,
// tracks token budget, aggregates results, and drives dispatch through a
// Temporal workflow. The engine never spawns an agent itself — every spawn
// goes through the injected capability.Capability boundary.
package engine

import (
	"sort"

	"github.com/gammazero/toposort"

	"github.com/openswarm/orchestrator-core/internal/errs"
	"github.com/openswarm/orchestrator-core/internal/schema"
)

// Group is one parallel dispatch group: a set of subtasks whose
// dependencies were all satisfied by earlier groups, sized to at most
// maxConcurrentAgents.
type Group struct {
	Subtasks []schema.Subtask
}

// BuildGroups performs the dependency-layering algorithm: emit subtasks
// whose unmet dependency count is zero, sorted priority-descending then
// lexicographic id, chunked into groups of at most maxConcurrentAgents, then
// decrement in-degrees for successors and repeat. A non-empty frontier with
// no zero-in-degree node reports dependency_cycle.
func BuildGroups(subtasks []schema.Subtask, maxConcurrentAgents int) ([]Group, error) {
	if len(subtasks) == 0 {
		return nil, nil
	}
	if maxConcurrentAgents <= 0 {
		maxConcurrentAgents = 1
	}

	if err := checkAcyclic(subtasks); err != nil {
		return nil, err
	}

	byID := make(map[string]schema.Subtask, len(subtasks))
	inDegree := make(map[string]int, len(subtasks))
	successors := make(map[string][]string)
	for _, st := range subtasks {
		byID[st.ID] = st
		inDegree[st.ID] = len(st.Dependencies)
		for _, dep := range st.Dependencies {
			successors[dep] = append(successors[dep], st.ID)
		}
	}

	emitted := make(map[string]bool, len(subtasks))
	var groups []Group

	for len(emitted) < len(subtasks) {
		var frontier []schema.Subtask
		for id, st := range byID {
			if emitted[id] || inDegree[id] > 0 {
				continue
			}
			frontier = append(frontier, st)
		}
		if len(frontier) == 0 {
			return nil, cycleError(byID, emitted)
		}

		sort.Slice(frontier, func(i, j int) bool {
			pi, pj := frontier[i].Priority.Rank(), frontier[j].Priority.Rank()
			if pi != pj {
				return pi < pj
			}
			return frontier[i].ID < frontier[j].ID
		})

		thisLayer := frontier
		for len(frontier) > 0 {
			n := maxConcurrentAgents
			if n > len(frontier) {
				n = len(frontier)
			}
			chunk := append([]schema.Subtask(nil), frontier[:n]...)
			groups = append(groups, Group{Subtasks: chunk})
			frontier = frontier[n:]
		}

		for _, st := range thisLayer {
			emitted[st.ID] = true
		}
		for _, st := range thisLayer {
			for _, succ := range successors[st.ID] {
				if !emitted[succ] {
					inDegree[succ]--
				}
			}
		}
	}

	return groups, nil
}

// checkAcyclic runs an upfront topological sort purely to reuse the
// corpus's existing cycle-detection dependency rather than re-deriving it;
// the actual priority-ordered layering below is independent of the order
// toposort.Toposort returns.
func checkAcyclic(subtasks []schema.Subtask) error {
	var edges []toposort.Edge
	ids := make(map[string]bool, len(subtasks))
	for _, st := range subtasks {
		ids[st.ID] = true
	}
	for _, st := range subtasks {
		for _, dep := range st.Dependencies {
			if !ids[dep] {
				continue // cross-phase dependency, rejected by schema validation already
			}
			edges = append(edges, toposort.Edge{Src: dep, Dst: st.ID})
		}
	}
	if len(edges) == 0 {
		return nil
	}
	if _, err := toposort.Toposort(edges); err != nil {
		return cycleErrorFromIDs(ids)
	}
	return nil
}

func cycleErrorFromIDs(ids map[string]bool) error {
	names := make([]string, 0, len(ids))
	for id := range ids {
		names = append(names, id)
	}
	sort.Strings(names)
	return errs.Newf(errs.KindDependencyCycle, "dependency cycle among subtasks %v", names)
}

func cycleError(byID map[string]schema.Subtask, emitted map[string]bool) error {
	var stuck []string
	for id := range byID {
		if !emitted[id] {
			stuck = append(stuck, id)
		}
	}
	sort.Strings(stuck)
	return errs.Newf(errs.KindDependencyCycle, "dependency cycle among subtasks %v", stuck)
}
