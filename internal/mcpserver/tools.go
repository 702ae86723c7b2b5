package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// listCardsTool defines the list_cards MCP tool.
var listCardsTool = mcp.NewTool("list_cards",
	mcp.WithDescription("List the cards on the canvas with their titles, types, tags and sources."),
	mcp.WithString("card_type",
		mcp.Description("Filter by card type"),
		mcp.Enum("clipped", "generated", "note", "image"),
	),
	mcp.WithString("tag",
		mcp.Description("Only return cards carrying this tag"),
	),
)

// searchCardsTool defines the search_cards MCP tool.
var searchCardsTool = mcp.NewTool("search_cards",
	mcp.WithDescription("Search the captured cards semantically. Returns the most relevant cards with snippets."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 10)"),
	),
	mcp.WithString("card_type",
		mcp.Description("Filter results by card type"),
		mcp.Enum("clipped", "generated", "note", "image"),
	),
)

// getCardTool defines the get_card MCP tool.
var getCardTool = mcp.NewTool("get_card",
	mcp.WithDescription("Get one card's full content, metadata, conversation and connections."),
	mcp.WithString("card_id",
		mcp.Required(),
		mcp.Description("The card's id"),
	),
)

// createNoteTool defines the create_note MCP tool.
var createNoteTool = mcp.NewTool("create_note",
	mcp.WithDescription("Create a note card on the canvas."),
	mcp.WithString("content",
		mcp.Required(),
		mcp.Description("The note's content (plain text or HTML)"),
	),
	mcp.WithString("title",
		mcp.Description("Optional note title"),
	),
)
