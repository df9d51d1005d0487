package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/config"
	"github.com/prathameshjadhav12-a11y/Wellness-Chatbot-AI/internal/mcp"
)

func main() {
	// The standard logger writes to stderr; stdout carries the protocol
	// stream and must stay clean.
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := configManager.GetConfig()
	log.Printf("Starting %s %s", cfg.MCP.ServerName, cfg.MCP.ServerVersion)

	mcpServer, err := mcp.NewServer(ctx, configManager)
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}
	defer mcpServer.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Shutdown signal received, gracefully shutting down MCP server...")
		cancel()
	}()

	if err := mcpServer.Start(ctx); err != nil {
		log.Fatalf("MCP server failed: %v", err)
	}

	log.Println("Wellness MCP Server stopped")
}
