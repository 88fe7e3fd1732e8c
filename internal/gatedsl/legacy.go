// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package gatedsl

import (
	"strconv"
	"strings"
)

// IsLegacy reports whether condition uses the pre-DSL comma-separated
// validation format: no boolean keyword and no comparison operator,
// case-insensitively (spec.md §4.2).
func IsLegacy(condition string) bool {
	upper := strings.ToUpper(condition)
	for _, kw := range []string{"AND", "OR", "NOT"} {
		if strings.Contains(upper, kw) {
			return false
		}
	}
	for _, op := range []string{"<", ">", "="} {
		if strings.Contains(condition, op) {
			return false
		}
	}
	return true
}

// LegacyConfig is a legacy condition parsed as presence flags plus an
// optional coverage threshold.
type LegacyConfig struct {
	Typecheck bool
	Tests     bool
	Coverage  *int
	Flags     map[string]string // any other comma-separated key[:value] token
}

// ParseLegacy splits condition on commas and classifies each trimmed token
// as either a bare presence flag ("typecheck") or a "key:value" pair
// ("coverage:80").
func ParseLegacy(condition string) *LegacyConfig {
	cfg := &LegacyConfig{Flags: map[string]string{}}
	for _, raw := range strings.Split(condition, ",") {
		token := strings.TrimSpace(raw)
		if token == "" {
			continue
		}
		key, value, hasValue := strings.Cut(token, ":")
		key = strings.TrimSpace(strings.ToLower(key))
		value = strings.TrimSpace(value)

		switch key {
		case "typecheck":
			cfg.Typecheck = true
		case "tests":
			cfg.Tests = true
		case "coverage":
			if hasValue {
				if n, err := strconv.Atoi(strings.TrimSuffix(value, "%")); err == nil {
					cfg.Coverage = &n
				}
			}
		default:
			if hasValue {
				cfg.Flags[key] = value
			} else {
				cfg.Flags[key] = ""
			}
		}
	}
	return cfg
}
