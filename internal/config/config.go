// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// Package config loads the orchestration core's YAML configuration: where
// sessions live, the Parallel Engine's concurrency/budget/retry defaults,
// and whether predicate commands run sandboxed.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete orchestration core configuration.
type Config struct {
	Project ProjectConfig `yaml:"project"`
	Engine  EngineConfig  `yaml:"engine"`
	Gate    GateConfig    `yaml:"gate"`
	Sandbox SandboxConfig `yaml:"sandbox"`
	Tracing TracingConfig `yaml:"tracing"`
}

// ProjectConfig holds project-level configuration.
type ProjectConfig struct {
	Name             string `yaml:"name"`
	WorkingDirectory string `yaml:"working_directory"`
	BasePath         string `yaml:"base_path"`
}

// EngineConfig mirrors the Parallel Engine's configuration enumeration
// (spec.md §4.3): maxConcurrentAgents, waitForAll, timeoutMs, retryOnFailure,
// maxRetryAttempts, tokenBudget.
type EngineConfig struct {
	MaxConcurrentAgents int  `yaml:"max_concurrent_agents"`
	WaitForAll          bool `yaml:"wait_for_all"`
	TimeoutMs           int  `yaml:"timeout_ms"`
	RetryOnFailure      bool `yaml:"retry_on_failure"`
	MaxRetryAttempts    int  `yaml:"max_retry_attempts"`
	TokenBudget         int  `yaml:"token_budget"`
}

// Timeout returns TimeoutMs as a time.Duration.
func (e EngineConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutMs) * time.Millisecond
}

// GateConfig controls the Gate DSL's async evaluation budget.
type GateConfig struct {
	GlobalTimeoutMs  int `yaml:"global_timeout_ms"`
	PredicateTimeoutMs int `yaml:"predicate_timeout_ms"`
}

// GlobalTimeout returns GlobalTimeoutMs as a time.Duration.
func (g GateConfig) GlobalTimeout() time.Duration {
	return time.Duration(g.GlobalTimeoutMs) * time.Millisecond
}

// PredicateTimeout returns PredicateTimeoutMs as a time.Duration.
func (g GateConfig) PredicateTimeout() time.Duration {
	return time.Duration(g.PredicateTimeoutMs) * time.Millisecond
}

// SandboxConfig controls whether predicate commands run inside a container.
type SandboxConfig struct {
	Enabled bool   `yaml:"enabled"`
	Image   string `yaml:"image"`
}

// TracingConfig controls the OpenTelemetry tracer provider that wraps gate
// evaluation, phase advancement, and spawn activities in spans.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	CollectorURL string  `yaml:"collector_url"`
	SamplingRate float64 `yaml:"sampling_rate"`
}

// Default returns the configuration defaults from spec.md §4.3 and §5.
func Default() *Config {
	return &Config{
		Project: ProjectConfig{
			Name:     "orchestration",
			BasePath: "ORCHESTRATION",
		},
		Engine: EngineConfig{
			MaxConcurrentAgents: 3,
			WaitForAll:          true,
			TimeoutMs:           300000,
			RetryOnFailure:      true,
			MaxRetryAttempts:    3,
			TokenBudget:         100000,
		},
		Gate: GateConfig{
			GlobalTimeoutMs:    5 * 60 * 1000,
			PredicateTimeoutMs: 30000,
		},
		Sandbox: SandboxConfig{
			Enabled: false,
			Image:   "golang:1.25",
		},
		Tracing: TracingConfig{
			Enabled:      false,
			CollectorURL: "localhost:4318",
			SamplingRate: 1.0,
		},
	}
}

// Load reads and parses a YAML configuration file at path, filling in any
// fields the file omits from Default().
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Project.WorkingDirectory == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		cfg.Project.WorkingDirectory = cwd
	}

	if cfg.Project.BasePath == "" {
		cfg.Project.BasePath = filepath.Join(cfg.Project.WorkingDirectory, "ORCHESTRATION")
	} else if !filepath.IsAbs(cfg.Project.BasePath) {
		cfg.Project.BasePath = filepath.Join(cfg.Project.WorkingDirectory, cfg.Project.BasePath)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Project.Name == "" {
		return fmt.Errorf("project name is required")
	}
	if c.Project.BasePath == "" {
		return fmt.Errorf("base path is required")
	}
	if c.Engine.MaxConcurrentAgents <= 0 {
		return fmt.Errorf("engine.max_concurrent_agents must be positive")
	}
	if c.Engine.TokenBudget <= 0 {
		return fmt.Errorf("engine.token_budget must be positive")
	}
	if c.Engine.MaxRetryAttempts < 0 {
		return fmt.Errorf("engine.max_retry_attempts must not be negative")
	}
	return nil
}
