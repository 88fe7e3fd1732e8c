// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package hub

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/openswarm/orchestrator-core/internal/errs"
	"github.com/openswarm/orchestrator-core/internal/schema"
)

// WriteEvidenceChain writes an EvidenceChain atomically under
// evidence-chains/<chainUuid>.json. The Evidence Auto-Populator (C6) is the
// usual caller; it supplies an id on first creation and reuses it on merge.
func (h *Hub) WriteEvidenceChain(c *schema.EvidenceChain) error {
	if c.ID == "" {
		c.ID = newID()
	}
	if err := c.Validate(); err != nil {
		return errs.Wrap(errs.KindValidationFailed, err, "evidence chain failed validation")
	}
	path := filepath.Join(h.sessionDir, "evidence-chains", fmt.Sprintf("%s.json", c.ID))
	return writeJSONAtomic(path, c)
}

// ReadEvidenceChain reads the chain with the given id.
func (h *Hub) ReadEvidenceChain(id string) (*schema.EvidenceChain, error) {
	path := filepath.Join(h.sessionDir, "evidence-chains", fmt.Sprintf("%s.json", id))
	var c schema.EvidenceChain
	if err := readJSON(path, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListEvidenceChains returns every EvidenceChain recorded for this session,
// skipping any file that fails to parse.
func (h *Hub) ListEvidenceChains() ([]*schema.EvidenceChain, error) {
	dir := filepath.Join(h.sessionDir, "evidence-chains")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.Wrap(errs.KindIOError, err, "failed to scan evidence-chains directory")
	}

	var chains []*schema.EvidenceChain
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		var c schema.EvidenceChain
		if err := readJSON(filepath.Join(dir, entry.Name()), &c); err != nil {
			continue
		}
		chains = append(chains, &c)
	}
	return chains, nil
}

// FindEvidenceChainByTask returns the chain whose requirement.taskId matches
// taskID, or nil if none exists yet.
func (h *Hub) FindEvidenceChainByTask(taskID string) (*schema.EvidenceChain, error) {
	chains, err := h.ListEvidenceChains()
	if err != nil {
		return nil, err
	}
	for _, c := range chains {
		if c.Requirement.TaskID == taskID {
			return c, nil
		}
	}
	return nil, nil
}

// ListEvidenceChainIDs satisfies capability.ChainLister, backing the
// evidence:coverage and evidence:ID[exists] Gate DSL predicates.
func (h *Hub) ListEvidenceChainIDs(sessionID string) ([]string, error) {
	chains, err := h.ListEvidenceChains()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(chains))
	for _, c := range chains {
		ids = append(ids, c.ID)
	}
	return ids, nil
}
