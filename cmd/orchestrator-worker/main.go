// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

// Package main runs the Temporal worker that services DispatchPhaseWorkflow
// and its SpawnAgent activity (spec.md §4.3b).
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/openswarm/orchestrator-core/internal/capability"
	"github.com/openswarm/orchestrator-core/internal/config"
	"github.com/openswarm/orchestrator-core/internal/engine"
	"github.com/openswarm/orchestrator-core/internal/hub"
	"github.com/openswarm/orchestrator-core/internal/telemetry"
)

const (
	taskQueue                               = "orchestrator-core-task-queue"
	maxConcurrentActivityExecutionSize      = 50
	maxConcurrentWorkflowTaskExecutionSize  = 10
	maxConcurrentLocalActivityExecutionSize = 100
	workerStopTimeout                       = 30 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to orchestrator-core.yaml (defaults omitted fields)")
	sessionID := flag.String("session", "", "session id the shell spawner reports handoffs under")
	flag.Parse()

	log.Println("🚀 Orchestrator Core Temporal Worker")

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

	if *sessionID == "" {
		log.Fatalln("❌ -session is required")
	}

	if cfg.Tracing.Enabled {
		tp, err := telemetry.NewTracerProvider(context.Background(), &telemetry.Config{
			ServiceName:  "orchestrator-worker",
			CollectorURL: cfg.Tracing.CollectorURL,
			SamplingRate: cfg.Tracing.SamplingRate,
		})
		if err != nil {
			log.Fatalf("❌ failed to initialize tracer provider: %v", err)
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				log.Println("⚠️  tracer provider shutdown error:", err)
			}
		}()
		log.Printf("🔭 tracing enabled, exporting to %s", cfg.Tracing.CollectorURL)
	}

	h, err := hub.New(cfg.Project.BasePath, *sessionID, "orchestrator-worker")
	if err != nil {
		log.Fatalf("❌ failed to open context hub: %v", err)
	}
	defer func() { _ = h.Close() }()

	caps := capability.NewDefault(cfg.Sandbox.Enabled, cfg.Sandbox.Image, nil, h, &capability.ShellSpawner{SessionID: *sessionID})

	c, err := client.Dial(client.Options{HostPort: client.DefaultHostPort})
	if err != nil {
		log.Fatalln("❌ unable to create Temporal client:", err)
	}
	defer c.Close()
	log.Println("✅ connected to Temporal server")

	w := worker.New(c, taskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:      maxConcurrentActivityExecutionSize,
		MaxConcurrentWorkflowTaskExecutionSize:  maxConcurrentWorkflowTaskExecutionSize,
		MaxConcurrentLocalActivityExecutionSize: maxConcurrentLocalActivityExecutionSize,
		WorkerStopTimeout:                       workerStopTimeout,
	})

	w.RegisterWorkflow(engine.DispatchPhaseWorkflow)

	spawnActivities := &engine.SpawnActivities{Capability: caps}
	w.RegisterActivity(spawnActivities.SpawnAgent)

	log.Printf("📋 registered DispatchPhaseWorkflow on task queue %q", taskQueue)

	errChan := make(chan error, 1)
	go func() {
		errChan <- w.Run(worker.InterruptCh())
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		log.Println("❌ worker error:", err)
		os.Exit(1)
	case <-sigChan:
		log.Println("🛑 shutdown signal received")
	}

	log.Println("✅ worker stopped")
}
