// Package mcp exposes read-only vault tools over the Model Context
// Protocol, so assistants can browse decks the same way the TUI does.
package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"notedeck/internal/config"
	"notedeck/internal/domain"
	"notedeck/internal/ports"
)

// RegisterReadTools adds all read-only deck tools to the MCP server.
func RegisterReadTools(s *server.MCPServer, cfg *config.Config, engine ports.QueryEngine, provider ports.ContentProvider) {
	s.AddTool(listDecksTool(), listDecksHandler(cfg))
	s.AddTool(queryDeckTool(), queryDeckHandler(cfg, engine))
	s.AddTool(previewTool(), previewHandler(cfg, engine, provider))
	s.AddTool(imagesTool(), imagesHandler(cfg, engine, provider))
}

// --- list_decks ---

func listDecksTool() mcp.Tool {
	return mcp.NewTool("list_decks",
		mcp.WithDescription("List the configured decks with their filter, sort, and grouping."),
	)
}

func listDecksHandler(cfg *config.Config) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if len(cfg.Decks) == 0 {
			return mcp.NewToolResultText("No decks configured."), nil
		}
		var sb strings.Builder
		for _, d := range cfg.Decks {
			fmt.Fprintf(&sb, "%s  filter=%q sort=%s group=%s shuffle=%v\n",
				d.Name, d.Filter, describeSort(d), deckGroup(d), d.Shuffle)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func describeSort(d config.Deck) string {
	sort := d.Sort
	if sort == "" {
		sort = "name"
	}
	if d.Order == "desc" {
		return sort + " desc"
	}
	return sort + " asc"
}

func deckGroup(d config.Deck) string {
	if d.Group == "" {
		return "none"
	}
	return d.Group
}

// --- query_deck ---

func queryDeckTool() mcp.Tool {
	return mcp.NewTool("query_deck",
		mcp.WithDescription("Run a deck query and return its grouped items, newest snapshot each call."),
		mcp.WithString("deck",
			mcp.Description("Deck name from the configuration"),
			mcp.Required(),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of items to return (0 = all)"),
		),
	)
}

func queryDeckHandler(cfg *config.Config, engine ports.QueryEngine) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name := req.GetString("deck", "")
		deck, ok := findDeck(cfg, name)
		if !ok {
			return toolError(fmt.Errorf("unknown deck: %s", name))
		}

		snapshot, err := engine.Query(deck.Port())
		if err != nil {
			return toolError(err)
		}

		limit := req.GetInt("limit", 0)
		var sb strings.Builder
		written := 0
		for _, g := range snapshot.Groups {
			if g.Label != "" {
				fmt.Fprintf(&sb, "## %s\n", g.Label)
			}
			for _, item := range g.Items {
				if limit > 0 && written >= limit {
					fmt.Fprintf(&sb, "… %d more items\n", snapshot.TotalItems()-written)
					return mcp.NewToolResultText(sb.String()), nil
				}
				fmt.Fprintf(&sb, "%s  (%s)\n", item.Path, item.ModTime.Format("2006-01-02"))
				written++
			}
		}
		if written == 0 {
			return mcp.NewToolResultText("Deck is empty."), nil
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- preview ---

func previewTool() mcp.Tool {
	return mcp.NewTool("preview",
		mcp.WithDescription("Return the card preview for a note: text preview and image references."),
		mcp.WithString("path",
			mcp.Description("Vault-relative note path (e.g. inbox/meeting notes.md)"),
			mcp.Required(),
		),
	)
}

func previewHandler(cfg *config.Config, engine ports.QueryEngine, provider ports.ContentProvider) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := req.GetString("path", "")
		if path == "" {
			return toolError(fmt.Errorf("path is required"))
		}

		item, err := findItem(engine, path)
		if err != nil {
			return toolError(err)
		}

		settings := cfg.Feed.ContentSettings()
		text, err := provider.TextPreview(ctx, item, settings)
		if err != nil {
			return toolError(err)
		}
		images, err := provider.ImageRefs(ctx, item, settings)
		if err != nil {
			return toolError(err)
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "path: %s\n", item.Path)
		if text != "" {
			fmt.Fprintf(&sb, "preview: %s\n", text)
		}
		for _, img := range images {
			fmt.Fprintf(&sb, "image: %s\n", img)
		}
		if text == "" && len(images) == 0 {
			sb.WriteString("no preview content\n")
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// --- images ---

func imagesTool() mcp.Tool {
	return mcp.NewTool("images",
		mcp.WithDescription("Return the image references embedded in or declared by a note."),
		mcp.WithString("path",
			mcp.Description("Vault-relative note path"),
			mcp.Required(),
		),
	)
}

func imagesHandler(cfg *config.Config, engine ports.QueryEngine, provider ports.ContentProvider) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path := req.GetString("path", "")
		if path == "" {
			return toolError(fmt.Errorf("path is required"))
		}

		item, err := findItem(engine, path)
		if err != nil {
			return toolError(err)
		}

		images, err := provider.ImageRefs(ctx, item, cfg.Feed.ContentSettings())
		if err != nil {
			return toolError(err)
		}
		if len(images) == 0 {
			return mcp.NewToolResultText("no images"), nil
		}
		return mcp.NewToolResultText(strings.Join(images, "\n")), nil
	}
}

// --- helpers ---

func findDeck(cfg *config.Config, name string) (config.Deck, bool) {
	for _, d := range cfg.Decks {
		if d.Name == name {
			return d, true
		}
	}
	return config.Deck{}, false
}

// findItem resolves a vault-relative path to its snapshot item so the
// provider sees the real mtime.
func findItem(engine ports.QueryEngine, path string) (domain.Item, error) {
	snapshot, err := engine.Query(ports.Deck{})
	if err != nil {
		return domain.Item{}, err
	}
	for _, g := range snapshot.Groups {
		for _, item := range g.Items {
			if item.Path == path {
				return item, nil
			}
		}
	}
	return domain.Item{}, fmt.Errorf("note not found: %s", path)
}

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}
