package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nabokov/clipd/internal/card"
	"github.com/nabokov/clipd/internal/connection"
	"github.com/nabokov/clipd/internal/kv"
)

func newServer(t *testing.T) (*Server, *card.Store, *connection.Store) {
	t.Helper()
	store := kv.NewMemoryStore()
	cards := card.NewStore(store)
	conns := connection.NewStore(store)
	return NewServer(cards, conns, nil), cards, conns
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	var sb strings.Builder
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String()
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		tool     mcp.Tool
		wantName string
	}{
		{"list_cards", listCardsTool, "list_cards"},
		{"search_cards", searchCardsTool, "search_cards"},
		{"get_card", getCardTool, "get_card"},
		{"create_note", createNoteTool, "create_note"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	srv, _, _ := newServer(t)
	if srv == nil {
		t.Fatal("NewServer returned nil")
	}
	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
}

func TestHandleListCards(t *testing.T) {
	srv, cards, _ := newServer(t)
	ctx := context.Background()

	cards.Save(ctx, card.Card{Content: "a", CardType: card.TypeClipped, Metadata: card.Metadata{Title: "Alpha"}, Tags: []string{"x"}})
	cards.Save(ctx, card.Card{Content: "b", CardType: card.TypeNote, Metadata: card.Metadata{Title: "Beta"}})

	t.Run("all cards", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		result, err := srv.handleListCards(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		text := textOf(t, result)
		if !strings.Contains(text, "Alpha") || !strings.Contains(text, "Beta") {
			t.Errorf("missing cards in %q", text)
		}
	})

	t.Run("type filter", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"card_type": "note"}
		result, _ := srv.handleListCards(ctx, req)
		text := textOf(t, result)
		if strings.Contains(text, "Alpha") || !strings.Contains(text, "Beta") {
			t.Errorf("filter not applied: %q", text)
		}
	})

	t.Run("tag filter", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"tag": "x"}
		result, _ := srv.handleListCards(ctx, req)
		text := textOf(t, result)
		if !strings.Contains(text, "Alpha") || strings.Contains(text, "Beta") {
			t.Errorf("tag filter not applied: %q", text)
		}
	})
}

func TestHandleGetCard(t *testing.T) {
	srv, cards, conns := newServer(t)
	ctx := context.Background()

	c, _ := cards.Save(ctx, card.Card{
		Content:  "<p>body text</p>",
		CardType: card.TypeClipped,
		Metadata: card.Metadata{Title: "Doc", URL: "https://d.test"},
		Conversation: []card.Message{
			{Role: "user", Content: "what is this"},
		},
	})
	conns.Add(ctx, connection.Connection{Source: c.ID, Target: "other", Type: connection.TypeReferences})

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"card_id": c.ID}

	result, err := srv.handleGetCard(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %v", result.Content)
	}
	text := textOf(t, result)
	for _, want := range []string{"Doc", "body text", "what is this", "references"} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in %q", want, text)
		}
	}

	t.Run("unknown card", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"card_id": "ghost"}
		result, _ := srv.handleGetCard(ctx, req)
		if !result.IsError {
			t.Error("expected error for unknown card")
		}
	})
}

func TestHandleCreateNote(t *testing.T) {
	srv, cards, _ := newServer(t)
	ctx := context.Background()

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"content": "remember this", "title": "Reminder"}

	result, err := srv.handleCreateNote(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %v", result.Content)
	}

	all, _ := cards.All(ctx)
	if len(all) != 1 {
		t.Fatalf("expected 1 card, got %d", len(all))
	}
	if all[0].CardType != card.TypeNote || all[0].Metadata.Title != "Reminder" {
		t.Errorf("unexpected note: %+v", all[0])
	}

	t.Run("empty content", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"content": "   "}
		result, _ := srv.handleCreateNote(ctx, req)
		if !result.IsError {
			t.Error("expected error for empty content")
		}
	})
}

func TestHandleSearchCardsWithoutIndex(t *testing.T) {
	srv, _, _ := newServer(t)

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"query": "anything"}

	result, err := srv.handleSearchCards(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error when no index is configured")
	}
}
