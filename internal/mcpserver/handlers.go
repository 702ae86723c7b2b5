package mcpserver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nabokov/clipd/internal/button"
	"github.com/nabokov/clipd/internal/card"
	"github.com/nabokov/clipd/internal/search"
)

// handleListCards lists cards, optionally narrowed by type or tag.
func (s *Server) handleListCards(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cards, err := s.cards.All(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading cards failed: %v", err)), nil
	}

	cardType := request.GetString("card_type", "")
	tag := request.GetString("tag", "")

	var sb strings.Builder
	count := 0
	for _, c := range cards {
		if cardType != "" && string(c.CardType) != cardType {
			continue
		}
		if tag != "" && !hasTag(c, tag) {
			continue
		}
		count++
		sb.WriteString(fmt.Sprintf("- [%s] %s (%s)", c.ID, c.Metadata.Title, c.CardType))
		if c.Metadata.Domain != "" {
			sb.WriteString(" from " + c.Metadata.Domain)
		}
		if len(c.Tags) > 0 {
			sb.WriteString(" tags: " + strings.Join(c.Tags, ", "))
		}
		sb.WriteString("\n")
	}

	if count == 0 {
		return mcp.NewToolResultText("No cards matched."), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%d card(s):\n%s", count, sb.String())), nil
}

// handleSearchCards performs semantic search over the card index.
func (s *Server) handleSearchCards(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	if s.index == nil {
		return mcp.NewToolResultError("semantic search is not configured; set an embedding provider in the daemon config"), nil
	}

	limit := request.GetInt("limit", 10)
	if limit <= 0 {
		limit = 10
	}

	var filter *search.Filter
	if cardType := request.GetString("card_type", ""); cardType != "" {
		filter = &search.Filter{CardType: cardType}
	}

	results, err := s.index.Search(ctx, query, limit, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No results found. The canvas may be empty or not indexed yet."), nil
	}

	return mcp.NewToolResultText(formatResults(results)), nil
}

// handleGetCard returns one card in full, including its connections.
func (s *Server) handleGetCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cardID, err := request.RequireString("card_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: card_id"), nil
	}

	c, err := s.cards.Get(ctx, cardID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading card failed: %v", err)), nil
	}
	if c == nil {
		return mcp.NewToolResultError(fmt.Sprintf("no card with id %q", cardID)), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Title: %s\nType: %s\n", c.Metadata.Title, c.CardType))
	if c.Metadata.URL != "" {
		sb.WriteString(fmt.Sprintf("Source: %s\n", c.Metadata.URL))
	}
	if len(c.Tags) > 0 {
		sb.WriteString(fmt.Sprintf("Tags: %s\n", strings.Join(c.Tags, ", ")))
	}
	sb.WriteString(fmt.Sprintf("Captured: %s\n", time.UnixMilli(c.CreatedAt).Format(time.RFC3339)))

	sb.WriteString("\nContent:\n")
	sb.WriteString(button.ExtractText(c.Content))
	sb.WriteString("\n")

	if len(c.Conversation) > 0 {
		sb.WriteString("\nConversation:\n")
		for _, m := range c.Conversation {
			sb.WriteString(fmt.Sprintf("%s: %s\n", m.Role, m.Content))
		}
	}

	edges, err := s.conns.ForCard(ctx, cardID)
	if err == nil && len(edges) > 0 {
		sb.WriteString("\nConnections:\n")
		for _, e := range edges {
			sb.WriteString(fmt.Sprintf("- %s -> %s (%s)", e.Source, e.Target, e.Type))
			if e.Label != "" {
				sb.WriteString(": " + e.Label)
			}
			sb.WriteString("\n")
		}
	}

	return mcp.NewToolResultText(sb.String()), nil
}

// handleCreateNote creates a note card from agent-provided content.
func (s *Server) handleCreateNote(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: content"), nil
	}
	if strings.TrimSpace(content) == "" {
		return mcp.NewToolResultError("content must not be empty"), nil
	}

	title := request.GetString("title", "")
	if title == "" {
		title = "Note"
	}

	saved, err := s.cards.Save(ctx, card.Card{
		Content:  content,
		CardType: card.TypeNote,
		Metadata: card.Metadata{
			Title:     title,
			Domain:    "note",
			Timestamp: card.NowMillis(),
		},
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("saving note failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Created note card %s (%q).", saved.ID, title)), nil
}

func hasTag(c card.Card, tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// formatResults converts search hits into text for agent consumption.
func formatResults(results []search.Result) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d result(s):\n", len(results)))

	for i, r := range results {
		sb.WriteString(fmt.Sprintf("\n--- Result %d ---\n", i+1))
		sb.WriteString(fmt.Sprintf("Card: %s\n", r.CardID))
		if r.Title != "" {
			sb.WriteString(fmt.Sprintf("Title: %s\n", r.Title))
		}
		if r.Domain != "" {
			sb.WriteString(fmt.Sprintf("Source: %s\n", r.Domain))
		}
		sb.WriteString(fmt.Sprintf("Type: %s\n", r.CardType))
		sb.WriteString(fmt.Sprintf("Similarity: %.1f%%\n", r.Similarity*100))
		sb.WriteString("\n")
		sb.WriteString(r.Snippet)
		sb.WriteString("\n")
	}

	return sb.String()
}
