// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package schema

import "encoding/json"

// Validator is satisfied by every schema type in this package.
type Validator interface {
	Validate() error
}

// kind names the artifact types the registry knows how to decode, in the
// order validateFile tries them.
var kind = []struct {
	name string
	make func() Validator
}{
	{"Prompt", func() Validator { return &Prompt{} }},
	{"Plan", func() Validator { return &Plan{} }},
	{"Handoff", func() Validator { return &Handoff{} }},
	{"OrchestratorState", func() Validator { return &OrchestratorState{} }},
	{"GateResult", func() Validator { return &GateResult{} }},
	{"EvidenceChain", func() Validator { return &EvidenceChain{} }},
}

// ValidateBytes tries every registered schema against data in turn (the
// Context Hub's validateFile contract, §4.1) and returns the name of the
// first schema whose Validate() succeeds, or else the validation issues of
// the last schema that at least unmarshalled.
func ValidateBytes(data []byte) (artifact string, err error) {
	var lastErr error
	tried := false
	for _, k := range kind {
		v := k.make()
		if jsonErr := json.Unmarshal(data, v); jsonErr != nil {
			continue
		}
		tried = true
		if verr := v.Validate(); verr == nil {
			return k.name, nil
		} else {
			lastErr = verr
		}
	}
	if !tried {
		return "", &ValidationError{Artifact: "unknown", Issues: []Issue{{Path: "$", Message: "data does not decode as JSON object", Code: "decode_error"}}}
	}
	return "", lastErr
}
