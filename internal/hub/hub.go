// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// Package hub implements the Context Hub: per-session persistent CRUD for
// every schema-validated artifact, plus an append-only history ledger. It
// enforces the single-writer assumption the core design leans on (spec.md
// §5) with an exclusive, TTL-bounded lock on the session directory, reusing
// the same lock-registry abstraction the corpus already uses to coordinate
// concurrent file access.
package hub

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/openswarm/orchestrator-core/internal/errs"
	"github.com/openswarm/orchestrator-core/internal/filelock"
)

// defaultLockTTL is how long a Hub's session lock is granted for before it
// must be renewed; writes do not renew it, callers extend it with Renew.
const defaultLockTTL = 60 * time.Second

// sessionLocks is the process-wide lock registry every writer Hub uses
// unless WithLockRegistry supplies another, so two writers opened on the
// same session in one process conflict.
var sessionLocks = filelock.NewMemoryRegistry()

// defaultMaxHistoryItems bounds history.jsonl; oldest entries are truncated
// on overflow.
const defaultMaxHistoryItems = 5000

// Hub is a session-scoped handle onto the Context Hub's filesystem layout.
type Hub struct {
	basePath        string
	sessionID       string
	sessionDir      string
	locks           filelock.LockRegistry
	holder          string
	maxHistoryItems int
}

// Option configures a Hub at construction time.
type Option func(*Hub)

// WithMaxHistoryItems overrides the default history.jsonl bound.
func WithMaxHistoryItems(n int) Option {
	return func(h *Hub) { h.maxHistoryItems = n }
}

// WithLockRegistry overrides the default process-wide in-memory lock
// registry, e.g. to give a Hub a registry of its own.
func WithLockRegistry(r filelock.LockRegistry) Option {
	return func(h *Hub) { h.locks = r }
}

// New opens (creating if necessary) the session directory for sessionID
// under basePath and acquires the session's exclusive write lock for holder.
// The directory layout is spec.md §6's `sessions/<sessionId>/` tree.
func New(basePath, sessionID, holder string, opts ...Option) (*Hub, error) {
	if sessionID == "" {
		return nil, errs.New(errs.KindValidationFailed, "session id is required")
	}

	h := &Hub{
		basePath:        basePath,
		sessionID:       sessionID,
		sessionDir:      filepath.Join(basePath, "sessions", sessionID),
		locks:           sessionLocks,
		holder:          holder,
		maxHistoryItems: defaultMaxHistoryItems,
	}
	for _, opt := range opts {
		opt(h)
	}

	if err := h.ensureDirs(); err != nil {
		return nil, err
	}

	lockPath := filepath.Join(h.sessionDir, ".lock")
	result, err := h.locks.Acquire(filelock.LockRequest{
		Path:      lockPath,
		Holder:    holder,
		Exclusive: true,
		TTL:       defaultLockTTL,
	})
	if err != nil {
		return nil, errs.Wrap(errs.KindIOError, err, "failed to acquire session write lock")
	}
	if !result.Granted {
		return nil, errs.Newf(errs.KindIOError, "session %s is already locked by another writer", sessionID)
	}

	return h, nil
}

// OpenObserver acquires a shared (read-only) lock instead of an exclusive
// one, for dashboard-style observers that must never block the writer.
func OpenObserver(basePath, sessionID, holder string, opts ...Option) (*Hub, error) {
	h := &Hub{
		basePath:        basePath,
		sessionID:       sessionID,
		sessionDir:      filepath.Join(basePath, "sessions", sessionID),
		locks:           filelock.NewMemoryRegistry(),
		holder:          holder,
		maxHistoryItems: defaultMaxHistoryItems,
	}
	for _, opt := range opts {
		opt(h)
	}

	lockPath := filepath.Join(h.sessionDir, ".lock")
	result, err := h.locks.Acquire(filelock.LockRequest{
		Path:      lockPath,
		Holder:    holder,
		Exclusive: false,
		TTL:       defaultLockTTL,
	})
	if err != nil {
		return nil, errs.Wrap(errs.KindIOError, err, "failed to acquire observer lock")
	}
	if !result.Granted {
		return nil, errs.Newf(errs.KindIOError, "session %s could not grant a shared lock", sessionID)
	}
	return h, nil
}

// Close releases the Hub's session lock.
func (h *Hub) Close() error {
	if err := h.locks.Release(filepath.Join(h.sessionDir, ".lock"), h.holder); err != nil {
		return errs.Wrap(errs.KindIOError, err, "failed to release session lock")
	}
	return nil
}

// Renew extends the Hub's session lock; call this around long-running
// phases so the TTL does not lapse mid-session.
func (h *Hub) Renew(ttl time.Duration) error {
	if err := h.locks.RenewLock(filepath.Join(h.sessionDir, ".lock"), h.holder, ttl); err != nil {
		return errs.Wrap(errs.KindIOError, err, "failed to renew session lock")
	}
	return nil
}

// SessionID returns the session this Hub is scoped to.
func (h *Hub) SessionID() string { return h.sessionID }

// SessionDir returns the absolute session directory path.
func (h *Hub) SessionDir() string { return h.sessionDir }

func (h *Hub) ensureDirs() error {
	dirs := []string{
		h.sessionDir,
		filepath.Join(h.sessionDir, "prompts"),
		filepath.Join(h.sessionDir, "plans"),
		filepath.Join(h.sessionDir, "handoffs"),
		filepath.Join(h.sessionDir, "gates"),
		filepath.Join(h.sessionDir, "evidence"),
		filepath.Join(h.sessionDir, "evidence-chains"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return errs.Wrap(errs.KindIOError, err, fmt.Sprintf("failed to create directory %s", d))
		}
	}
	return nil
}

// newID mints an RFC-4122 v4 identifier for a new artifact.
func newID() string {
	return uuid.NewString()
}

// sanitizeTimestamp renders t as ISO8601 with ':' and '.' replaced by '-',
// matching the filename convention in spec.md §6.
func sanitizeTimestamp(t time.Time) string {
	u := t.UTC()
	return u.Format("2006-01-02T15-04-05") + fmt.Sprintf("-%03dZ", u.Nanosecond()/int(time.Millisecond))
}
