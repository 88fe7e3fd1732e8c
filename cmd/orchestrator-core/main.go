// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// Package main wires the orchestration core's components together for
// local exercise: inspecting a session's state and driving phase gate
// evaluation from the command line. The CLI surface itself is intentionally
// thin; the library packages under internal/ are the actual deliverable.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/openswarm/orchestrator-core/internal/capability"
	"github.com/openswarm/orchestrator-core/internal/config"
	"github.com/openswarm/orchestrator-core/internal/gatedsl"
	"github.com/openswarm/orchestrator-core/internal/hub"
	"github.com/openswarm/orchestrator-core/internal/lifecycle"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "path to orchestrator-core.yaml")
	sessionID := flag.String("session", "", "session id under project.base_path/sessions/")
	typecheckCmd := flag.String("typecheck-cmd", "", "command backing the gate DSL's typecheck predicate")
	testCmd := flag.String("test-cmd", "", "command backing the gate DSL's tests predicate")
	flag.Parse()

	fmt.Printf("Orchestrator Core v%s\n", version)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	if flag.NArg() < 1 {
		printUsage()
		return
	}
	if *sessionID == "" {
		log.Fatalln("❌ -session is required")
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("❌ failed to load config: %v", err)
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ invalid config: %v", err)
	}

	h, err := hub.New(cfg.Project.BasePath, *sessionID, "orchestrator-cli")
	if err != nil {
		log.Fatalf("❌ failed to open context hub: %v", err)
	}
	defer func() { _ = h.Close() }()

	switch flag.Arg(0) {
	case "status":
		handleStatus(h)
	case "plan":
		handlePlan(h)
	case "advance":
		handleAdvance(h, cfg, *typecheckCmd, *testCmd)
	case "version":
		fmt.Printf("orchestrator-core version %s\n", version)
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", flag.Arg(0))
		printUsage()
	}
}

func handleStatus(h *hub.Hub) {
	fmt.Println("📊 Orchestrator State")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	state, err := h.ReadOrchestratorState()
	if err != nil {
		log.Fatalf("❌ failed to read orchestrator state: %v", err)
	}

	fmt.Printf("\n🧭 Status: %s\n", state.Status)
	fmt.Printf("📍 Current phase: %s (%s) — %d%%\n", state.CurrentPhase.Name, state.CurrentPhase.ID, state.CurrentPhase.Progress)
	fmt.Printf("🤖 Agents: %d\n", len(state.Agents))
	fmt.Printf("📋 Queued tasks: %d\n", len(state.TaskQueue))
	if len(state.Errors) > 0 {
		fmt.Printf("⚠️  Errors: %v\n", state.Errors)
	}
}

func handlePlan(h *hub.Hub) {
	state, err := h.ReadOrchestratorState()
	if err != nil {
		log.Fatalf("❌ failed to read orchestrator state: %v", err)
	}
	plan, err := h.ReadPlan(state.PlanID)
	if err != nil {
		log.Fatalf("❌ failed to read plan %s: %v", state.PlanID, err)
	}

	fmt.Printf("📐 Plan %s — %s\n", plan.ID, plan.Summary)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	for i, phase := range plan.Phases {
		marker := "  "
		if phase.ID == state.CurrentPhase.ID {
			marker = "▶ "
		}
		fmt.Printf("%s%d. %s (%s) — %d subtasks\n", marker, i+1, phase.Name, phase.ID, len(phase.Subtasks))
		if phase.GateCondition != "" {
			fmt.Printf("     gate: %s\n", phase.GateCondition)
		}
	}
}

func handleAdvance(h *hub.Hub, cfg *config.Config, typecheckCmd, testCmd string) {
	caps := capability.NewDefault(cfg.Sandbox.Enabled, cfg.Sandbox.Image, nil, h, nil)

	state, err := h.ReadOrchestratorState()
	if err != nil {
		log.Fatalf("❌ failed to read orchestrator state: %v", err)
	}

	ec := &gatedsl.EvalContext{
		Capability:         caps,
		SessionID:          h.SessionID(),
		TypecheckCommand:   typecheckCmd,
		TestCommand:        testCmd,
		PredicateTimeoutMs: cfg.Gate.PredicateTimeoutMs,
	}

	advancer := lifecycle.New(h)
	result, err := advancer.AdvancePhase(context.Background(), state.CurrentPhase.ID, nil, ec)
	if err != nil {
		log.Fatalf("❌ advance failed: %v", err)
	}

	if !result.Success {
		fmt.Printf("🔴 gate blocked: %s\n", result.Error)
		os.Exit(1)
	}

	if result.NextPhase == "" {
		fmt.Println("✅ plan complete")
		return
	}
	fmt.Printf("✅ advanced to phase %s\n", result.NextPhase)
}

func printUsage() {
	fmt.Println("Usage: orchestrator-core -session <id> <command>")
	fmt.Println("\nCommands:")
	fmt.Println("  status    Show the session's orchestrator state")
	fmt.Println("  plan      Show the session's plan and current phase")
	fmt.Println("  advance   Evaluate the current phase's gate and advance on pass")
	fmt.Println("  version   Show version information")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nFlags:")
	fmt.Println("  -config          path to orchestrator-core.yaml")
	fmt.Println("  -session         session id (required)")
	fmt.Println("  -typecheck-cmd   command backing the typecheck predicate")
	fmt.Println("  -test-cmd        command backing the tests predicate")
}
