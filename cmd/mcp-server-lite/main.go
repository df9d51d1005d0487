// Package main provides the lightweight entry point for the wellness MCP
// server. This version requires no external databases and keeps history in
// SQLite.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/config"
	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/mcp"
	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/setup"
)

func main() {
	// Check for the setup subcommand
	if len(os.Args) > 1 && (os.Args[1] == "--setup" || os.Args[1] == "setup") {
		cli := setup.NewCLI("lite")
		if err := cli.Run(os.Args[2:]); err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		return
	}

	// Load lightweight configuration from the environment
	cfg := config.LoadLiteConfig()

	log.Printf("Starting Wellness MCP Server (Lite)")
	log.Printf("Data directory: %s", cfg.DataDir)

	// Create lite MCP server
	server, err := mcp.NewLiteServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}
	defer server.Close()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Start MCP server
	if err := server.Start(ctx); err != nil {
		log.Fatalf("MCP server failed: %v", err)
	}

	log.Println("Wellness MCP Server (Lite) stopped")
}
