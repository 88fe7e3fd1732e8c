// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package hub

import (
	"os"

	"github.com/openswarm/orchestrator-core/internal/errs"
	"github.com/openswarm/orchestrator-core/internal/schema"
)

// ValidateFile tries every registered schema against the file at path in
// turn, returning the artifact kind name on the first clean match. On
// mismatch it surfaces the specific validation issues from the last schema
// that at least parsed.
func (h *Hub) ValidateFile(path string) (artifact string, err error) {
	data, readErr := os.ReadFile(path)
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return "", errs.Newf(errs.KindNotFound, "no file at %s", path)
		}
		return "", errs.Wrap(errs.KindIOError, readErr, "failed to read file")
	}

	artifact, verr := schema.ValidateBytes(data)
	if verr != nil {
		return "", errs.Wrap(errs.KindValidationFailed, verr, "file did not validate against any known schema")
	}
	return artifact, nil
}
