// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package hub

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/openswarm/orchestrator-core/internal/errs"
)

// historyEntry is one line of the append-only history.jsonl ledger.
type historyEntry struct {
	Type      string    `json:"type"`
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *Hub) historyPath() string {
	return filepath.Join(h.sessionDir, "history.jsonl")
}

// appendHistory appends entry to history.jsonl, truncating the oldest lines
// if the ledger exceeds maxHistoryItems.
func (h *Hub) appendHistory(entry historyEntry) error {
	entry.Timestamp = time.Now().UTC()

	lines, err := h.readHistoryLines()
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(entry)
	if err != nil {
		return errs.Wrap(errs.KindIOError, err, "failed to marshal history entry")
	}
	lines = append(lines, string(encoded))

	if len(lines) > h.maxHistoryItems {
		lines = lines[len(lines)-h.maxHistoryItems:]
	}

	tmp := h.historyPath() + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errs.Wrap(errs.KindIOError, err, "failed to open history temp file")
	}
	w := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err := w.WriteString(line + "\n"); err != nil {
			f.Close()
			return errs.Wrap(errs.KindIOError, err, "failed to write history line")
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return errs.Wrap(errs.KindIOError, err, "failed to flush history")
	}
	if err := f.Close(); err != nil {
		return errs.Wrap(errs.KindIOError, err, "failed to close history temp file")
	}
	if err := os.Rename(tmp, h.historyPath()); err != nil {
		return errs.Wrap(errs.KindIOError, err, "failed to rename history into place")
	}
	return nil
}

// AppendPhaseAdvanceHistory records a phase_advance history entry, id being
// the phase that became current or "complete" when the plan has no more
// phases (spec.md §4.4 step 6).
func (h *Hub) AppendPhaseAdvanceHistory(id string) error {
	return h.appendHistory(historyEntry{Type: "phase_advance", ID: id})
}

func (h *Hub) readHistoryLines() ([]string, error) {
	f, err := os.Open(h.historyPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.Wrap(errs.KindIOError, err, "failed to open history")
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.Wrap(errs.KindIOError, err, "failed to scan history")
	}
	return lines, nil
}
