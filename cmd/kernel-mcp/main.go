// kernel-mcp exposes the assistant's productivity actions as MCP tools
// over stdio, so external agent frontends can drive the same action
// registry the chat dispatcher uses.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vthunder/kernel/internal/config"
	"github.com/vthunder/kernel/internal/suite"
	"github.com/vthunder/kernel/internal/tools"
)

func main() {
	// Log to stderr so stdout is clean for JSON-RPC
	log.SetOutput(os.Stderr)
	log.SetPrefix("[kernel-mcp] ")

	if err := godotenv.Load(); err == nil {
		log.Println("Loaded .env file")
	}

	secretsPath := envOr("SECRETS_FILE", config.DefaultSecretsFile)
	settingsPath := envOr("SETTINGS_FILE", config.DefaultSettingsFile)
	cfg := config.Load(secretsPath, settingsPath)

	var api suite.API
	if client, err := suite.NewClient(cfg.Secret("google_token_file", "token.json")); err != nil {
		log.Printf("Google services unavailable: %v", err)
		api = suite.Unavailable{}
	} else {
		api = client
	}

	registry := tools.NewRegistry()
	for _, d := range tools.Suite(api) {
		if err := registry.Register(d); err != nil {
			log.Fatalf("Failed to register action: %v", err)
		}
	}

	s := server.NewMCPServer(
		"kernel-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	for _, d := range registry.Describe() {
		s.AddTool(mcpTool(d), mcpHandler(registry, d.Name))
	}

	log.Printf("Serving %d tools over stdio", len(registry.Describe()))
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

// mcpTool translates an action descriptor into an MCP tool declaration
func mcpTool(d *tools.Descriptor) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(d.Description)}
	for _, p := range d.Params {
		propOpts := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			propOpts = append(propOpts, mcp.Required())
		}
		switch p.Type {
		case tools.TypeInteger:
			opts = append(opts, mcp.WithNumber(p.Name, propOpts...))
		case tools.TypeBoolean:
			opts = append(opts, mcp.WithBoolean(p.Name, propOpts...))
		default:
			opts = append(opts, mcp.WithString(p.Name, propOpts...))
		}
	}
	return mcp.NewTool(d.Name, opts...)
}

// mcpHandler routes an MCP call through the registry's validation and
// error wrapping.
func mcpHandler(registry *tools.Registry, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := req.Params.Arguments.(map[string]any)
		result, err := registry.Invoke(ctx, name, args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		switch v := result.(type) {
		case string:
			return mcp.NewToolResultText(v), nil
		default:
			data, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
			}
			return mcp.NewToolResultText(string(data)), nil
		}
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
