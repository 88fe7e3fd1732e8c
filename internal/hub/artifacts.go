// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package hub

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/openswarm/orchestrator-core/internal/errs"
	"github.com/openswarm/orchestrator-core/internal/schema"
)

// WritePrompt validates p, writes prompts/prompt-<id>.json, overwrites the
// current-prompt pointer, and appends a history entry.
func (h *Hub) WritePrompt(p *schema.Prompt) error {
	if p.ID == "" {
		p.ID = newID()
	}
	if err := p.Validate(); err != nil {
		return errs.Wrap(errs.KindValidationFailed, err, "prompt failed validation")
	}

	path := filepath.Join(h.sessionDir, "prompts", fmt.Sprintf("prompt-%s.json", p.ID))
	if err := writeJSONAtomic(path, p); err != nil {
		return err
	}
	if err := writeJSONAtomic(h.currentPromptPath(), p); err != nil {
		return err
	}
	return h.appendHistory(historyEntry{Type: "prompt", ID: p.ID})
}

// ReadPrompt reads the prompt with the given id, or the current pointer if
// id is empty.
func (h *Hub) ReadPrompt(id string) (*schema.Prompt, error) {
	path := h.currentPromptPath()
	if id != "" {
		path = filepath.Join(h.sessionDir, "prompts", fmt.Sprintf("prompt-%s.json", id))
	}
	var p schema.Prompt
	if err := readJSON(path, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPrompts returns the ids of every prompt written to this session.
func (h *Hub) ListPrompts() ([]string, error) {
	return listIDs(filepath.Join(h.sessionDir, "prompts"), "prompt-")
}

func (h *Hub) currentPromptPath() string {
	return filepath.Join(h.sessionDir, "current-prompt.json")
}

// WritePlan validates p, writes plans/plan-<id>.json, overwrites the
// current-plan pointer, and appends a history entry.
func (h *Hub) WritePlan(p *schema.Plan) error {
	if p.ID == "" {
		p.ID = newID()
	}
	if err := p.Validate(); err != nil {
		return errs.Wrap(errs.KindValidationFailed, err, "plan failed validation")
	}

	path := filepath.Join(h.sessionDir, "plans", fmt.Sprintf("plan-%s.json", p.ID))
	if err := writeJSONAtomic(path, p); err != nil {
		return err
	}
	if err := writeJSONAtomic(h.currentPlanPath(), p); err != nil {
		return err
	}
	return h.appendHistory(historyEntry{Type: "plan", ID: p.ID})
}

// ReadPlan reads the plan with the given id, or the current pointer if id
// is empty.
func (h *Hub) ReadPlan(id string) (*schema.Plan, error) {
	path := h.currentPlanPath()
	if id != "" {
		path = filepath.Join(h.sessionDir, "plans", fmt.Sprintf("plan-%s.json", id))
	}
	var p schema.Plan
	if err := readJSON(path, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPlans returns the ids of every plan written to this session.
func (h *Hub) ListPlans() ([]string, error) {
	return listIDs(filepath.Join(h.sessionDir, "plans"), "plan-")
}

func (h *Hub) currentPlanPath() string {
	return filepath.Join(h.sessionDir, "current-plan.json")
}

// WriteHandoff validates h2, appends it to handoffs/, and appends a history
// entry. Handoffs are append-only; there is no current-handoff pointer.
func (h *Hub) WriteHandoff(h2 *schema.Handoff) error {
	if h2.ID == "" {
		h2.ID = newID()
	}
	if err := h2.Validate(); err != nil {
		return errs.Wrap(errs.KindValidationFailed, err, "handoff failed validation")
	}

	path := filepath.Join(h.sessionDir, "handoffs", fmt.Sprintf("handoff-%s.json", h2.ID))
	if err := writeJSONAtomic(path, h2); err != nil {
		return err
	}
	return h.appendHistory(historyEntry{Type: "handoff", ID: h2.ID})
}

// ReadHandoff reads the handoff with the given id.
func (h *Hub) ReadHandoff(id string) (*schema.Handoff, error) {
	path := filepath.Join(h.sessionDir, "handoffs", fmt.Sprintf("handoff-%s.json", id))
	var ho schema.Handoff
	if err := readJSON(path, &ho); err != nil {
		return nil, err
	}
	return &ho, nil
}

// ListHandoffs returns the ids of every handoff written to this session.
func (h *Hub) ListHandoffs() ([]string, error) {
	return listIDs(filepath.Join(h.sessionDir, "handoffs"), "handoff-")
}

// WriteOrchestratorState overwrites the single flat orchestrator-state.json.
func (h *Hub) WriteOrchestratorState(s *schema.OrchestratorState) error {
	if err := s.Validate(); err != nil {
		return errs.Wrap(errs.KindValidationFailed, err, "orchestrator state failed validation")
	}
	return writeJSONAtomic(h.orchestratorStatePath(), s)
}

// ReadOrchestratorState reads orchestrator-state.json.
func (h *Hub) ReadOrchestratorState() (*schema.OrchestratorState, error) {
	var s schema.OrchestratorState
	if err := readJSON(h.orchestratorStatePath(), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (h *Hub) orchestratorStatePath() string {
	return filepath.Join(h.sessionDir, "orchestrator-state.json")
}

// WriteGateResult writes a timestamped gate file AND overwrites the
// "-latest" pointer for the same phase, then appends a history entry.
func (h *Hub) WriteGateResult(r *schema.GateResult) error {
	if err := r.Validate(); err != nil {
		return errs.Wrap(errs.KindValidationFailed, err, "gate result failed validation")
	}

	ts := sanitizeTimestamp(r.CheckedAt)
	timestamped := filepath.Join(h.sessionDir, "gates", fmt.Sprintf("gate-%s-%s.json", r.PhaseID, ts))
	if err := writeJSONAtomic(timestamped, r); err != nil {
		return err
	}
	if err := writeJSONAtomic(h.gateLatestPath(r.PhaseID), r); err != nil {
		return err
	}
	return h.appendHistory(historyEntry{Type: "gate_check", ID: r.PhaseID})
}

// ReadGateResult reads the "-latest" pointer for phaseID.
func (h *Hub) ReadGateResult(phaseID string) (*schema.GateResult, error) {
	var r schema.GateResult
	if err := readJSON(h.gateLatestPath(phaseID), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (h *Hub) gateLatestPath(phaseID string) string {
	return filepath.Join(h.sessionDir, "gates", fmt.Sprintf("gate-%s-latest.json", phaseID))
}

// ListGateResults scans gates/, skipping "-latest" files, parsing every
// remaining file and optionally filtering by phaseID. Invalid files are
// skipped with a warning, never fatal. Results sort by CheckedAt descending.
func (h *Hub) ListGateResults(phaseID string) ([]*schema.GateResult, error) {
	dir := filepath.Join(h.sessionDir, "gates")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.Wrap(errs.KindIOError, err, "failed to scan gates directory")
	}

	var results []*schema.GateResult
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.Contains(name, "-latest") {
			continue
		}
		var r schema.GateResult
		if err := readJSON(filepath.Join(dir, name), &r); err != nil {
			slog.Warn("skipping unreadable gate result", "file", name, "error", err)
			continue
		}
		if phaseID != "" && r.PhaseID != phaseID {
			continue
		}
		results = append(results, &r)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].CheckedAt.After(results[j].CheckedAt)
	})
	return results, nil
}

// listIDs scans dir for files named "<prefix><id>.json" and returns the ids,
// sorted lexicographically for deterministic output.
func listIDs(dir, prefix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.Wrap(errs.KindIOError, err, "failed to scan directory")
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".json")
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
