// Package main provides the MCP server entry point for opslens. The server
// speaks the Model Context Protocol over stdio so an LLM client can collect,
// query and summarize infrastructure logs.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "opslens/src/collector/cloudwatch" // Import for collector registration
	_ "opslens/src/collector/docker"     // Import for collector registration
	_ "opslens/src/collector/jenkins"    // Import for collector registration
	_ "opslens/src/collector/kubernetes" // Import for collector registration
	"opslens/src/config"
	"opslens/src/logger"
	"opslens/src/mcp"
	"opslens/src/pipeline"
)

func main() {
	cfg, err := config.Load(os.Getenv("OPSLENS_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the protocol; zap writes to stderr.
	log, err := logger.NewZapLogger(cfg.Log.Level, "json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	svc := pipeline.NewFromConfig(cfg, log, nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if pipeline.DetectMode(cfg) == pipeline.DistributedMode {
		brk, err := pipeline.NewBroker(cfg, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create broker: %v\n", err)
			os.Exit(1)
		}
		defer brk.Close()
		pipeline.Start(ctx, brk, svc, cfg, log)
	}

	log.Info("[MCP] Serving on stdio")
	if err := mcp.NewServer(svc, cfg, log).Run(); err != nil {
		log.Error("[MCP] Server error: %v", err)
		os.Exit(1)
	}
}
