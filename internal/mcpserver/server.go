// Package mcpserver exposes the card graph to AI agents over the Model
// Context Protocol.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/nabokov/clipd/internal/card"
	"github.com/nabokov/clipd/internal/connection"
	"github.com/nabokov/clipd/internal/search"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes card tools.
type Server struct {
	cards *card.Store
	conns *connection.Store
	index *search.Index
	mcp   *server.MCPServer
}

// NewServer creates an MCP server over the card stores. index may be nil
// when no embedder is configured; search_cards then reports that.
func NewServer(cards *card.Store, conns *connection.Store, index *search.Index) *Server {
	s := &Server{
		cards: cards,
		conns: conns,
		index: index,
	}

	s.mcp = server.NewMCPServer(
		"clipd",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(listCardsTool, s.handleListCards)
	s.mcp.AddTool(searchCardsTool, s.handleSearchCards)
	s.mcp.AddTool(getCardTool, s.handleGetCard)
	s.mcp.AddTool(createNoteTool, s.handleCreateNote)
}

// Serve starts the MCP server on stdio. Stdout carries MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
