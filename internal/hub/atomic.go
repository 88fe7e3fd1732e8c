// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package hub

import (
	"encoding/json"
	"os"

	"github.com/openswarm/orchestrator-core/internal/errs"
)

// writeJSONAtomic serialises v with stable 2-space indentation, writes it to
// "<path>.tmp", then renames over path — atomic on POSIX filesystems.
func writeJSONAtomic(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errs.Wrap(errs.KindIOError, err, "failed to marshal artifact")
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errs.Wrap(errs.KindIOError, err, "failed to write temp file")
	}
	if err := os.Rename(tmp, path); err != nil {
		return errs.Wrap(errs.KindIOError, err, "failed to rename into place")
	}
	return nil
}

// readJSON loads path into v. A missing file surfaces as KindNotFound, which
// read* operations treat as a normal signal rather than a genuine fault.
func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errs.Newf(errs.KindNotFound, "no artifact at %s", path)
		}
		return errs.Wrap(errs.KindIOError, err, "failed to read artifact")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errs.Wrap(errs.KindIOError, err, "failed to decode artifact")
	}
	return nil
}
