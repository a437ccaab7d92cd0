package main

import (
	"context"
	"flag"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"notedeck/internal/adapters/content"
	"notedeck/internal/adapters/index"
	mcpadapter "notedeck/internal/adapters/mcp"
	"notedeck/internal/adapters/vault"
	"notedeck/internal/config"
	"notedeck/internal/ports"
)

func main() {
	configFlag := flag.String("config", config.DefaultPath(), "path to the config file")
	vaultFlag := flag.String("vault", "", "path to the vault (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("notedeck-mcp: %v", err)
	}
	if *vaultFlag != "" {
		cfg.Vault = *vaultFlag
	}

	vaultPath := cfg.VaultPath()
	engine := vault.NewRepository(vaultPath)

	var previewIndex ports.PreviewIndex
	idx := index.NewIndex(cfg.Feed.PreviewProperty, cfg.Feed.ImageProperty)
	if err := idx.Open(vaultPath); err == nil {
		previewIndex = idx
		defer idx.Close()
	}
	provider := content.NewProvider(vaultPath, previewIndex)

	mcpServer := server.NewMCPServer(
		"notedeck-mcp",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(
		mcp.NewTool("ping",
			mcp.WithDescription("Health check — returns pong"),
		),
		func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("pong"), nil
		},
	)

	mcpadapter.RegisterReadTools(mcpServer, cfg, engine, provider)

	if err := server.ServeStdio(mcpServer); err != nil {
		log.Fatalf("notedeck-mcp: %v", err)
	}
}
