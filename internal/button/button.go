// Package button defines the card action buttons and the prompt template
// engine behind them.
package button

import "github.com/nabokov/clipd/internal/connection"

// Button is a configured prompt template bound to a connection type.
// Buttons are immutable once loaded; the defaults below ship with clipd.
type Button struct {
	ID             string          `json:"id"`
	Label          string          `json:"label"`
	Icon           string          `json:"icon"`
	Prompt         string          `json:"prompt"`
	ConnectionType connection.Type `json:"connectionType"`
	Enabled        bool            `json:"enabled"`
}

// Defaults is the stock button set.
var Defaults = []Button{
	{
		ID:    "learn-more",
		Label: "Learn More",
		Icon:  "📚",
		Prompt: `Based on this content: "{{content}}", provide more information about {{customContext || 'the main topic'}}.

Title: {{title}}

Please provide detailed information, context, and relevant insights.`,
		ConnectionType: connection.TypeReferences,
		Enabled:        true,
	},
	{
		ID:    "summarize",
		Label: "Summarize",
		Icon:  "📝",
		Prompt: `Summarize the following content, focusing on {{customContext || 'the key points'}}:

Title: {{title}}
Content: {{content}}

Provide a concise summary that captures the essential information.`,
		ConnectionType: connection.TypeGeneratedFrom,
		Enabled:        true,
	},
	{
		ID:    "critique",
		Label: "Critique",
		Icon:  "🔍",
		Prompt: `Provide a critical analysis of the following content, specifically examining {{customContext || 'its strengths and weaknesses'}}:

Title: {{title}}
Content: {{content}}

Offer constructive criticism and identify potential improvements.`,
		ConnectionType: connection.TypeRelated,
		Enabled:        true,
	},
	{
		ID:    "eli5",
		Label: "ELI5",
		Icon:  "👶",
		Prompt: `Explain the following content in simple terms that a 5-year-old would understand, focusing on {{customContext || 'the core concept'}}:

Title: {{title}}
Content: {{content}}

Use simple language, analogies, and examples.`,
		ConnectionType: connection.TypeRelated,
		Enabled:        true,
	},
	{
		ID:    "expand",
		Label: "Expand",
		Icon:  "💡",
		Prompt: `Expand on the following content with additional details, examples, and insights about {{customContext || 'the main ideas'}}:

Title: {{title}}
Content: {{content}}

Provide deeper analysis and related information.`,
		ConnectionType: connection.TypeReferences,
		Enabled:        true,
	},
}

// ByID returns the default button with the given id, or nil.
func ByID(id string) *Button {
	for i := range Defaults {
		if Defaults[i].ID == id {
			return &Defaults[i]
		}
	}
	return nil
}
