package card

import "time"

// Type discriminates how a card came to exist.
type Type string

const (
	TypeClipped   Type = "clipped"
	TypeGenerated Type = "generated"
	TypeNote      Type = "note"
	TypeImage     Type = "image"
)

// BeautificationMode names an alternate-rendering strategy.
type BeautificationMode string

const ModeOrganizeContent BeautificationMode = "organize-content"

// Position is a card's location on the canvas in CSS pixels.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a card's dimensions on the canvas in CSS pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Metadata records the provenance of clipped content, plus optional
// element-capture details used to re-locate the source element.
type Metadata struct {
	URL       string `json:"url"`
	Title     string `json:"title"`
	Domain    string `json:"domain"`
	Favicon   string `json:"favicon,omitempty"`
	Timestamp int64  `json:"timestamp"`

	SelectedText string `json:"selectedText,omitempty"`
	TagName      string `json:"tagName,omitempty"`
	Selector     string `json:"selector,omitempty"`
	TextContent  string `json:"textContent,omitempty"`
	Dimensions   *Size  `json:"dimensions,omitempty"`
}

// Message is one turn of a card's chat conversation.
type Message struct {
	ID        string `json:"id"`
	Role      string `json:"role"` // "user" or "assistant"
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// GenerationContext records how a generated card was produced.
type GenerationContext struct {
	SourceMessageID string `json:"sourceMessageId"`
	UserPrompt      string `json:"userPrompt"`
	Timestamp       int64  `json:"timestamp"`
}

// Card is a captured or generated unit of content placed on the canvas.
// All timestamps are Unix milliseconds, the format the extension surfaces
// already persist and compare.
type Card struct {
	ID       string   `json:"id"`
	Content  string   `json:"content,omitempty"` // sanitized HTML; empty for image-only cards
	CardType Type     `json:"cardType,omitempty"`
	Metadata Metadata `json:"metadata"`

	// ParentCardID is a soft reference: the parent may already be deleted
	// and a dangling value is tolerated, not an error.
	ParentCardID string `json:"parentCardId,omitempty"`

	Position *Position `json:"position,omitempty"`
	Size     *Size     `json:"size,omitempty"`
	Starred  bool      `json:"starred"`
	Tags     []string  `json:"tags"`

	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`

	Conversation      []Message          `json:"conversation,omitempty"`
	GenerationContext *GenerationContext `json:"generationContext,omitempty"`

	ImageData     string `json:"imageData,omitempty"`
	ImageMimeType string `json:"imageMimeType,omitempty"`

	Collapsed bool `json:"collapsed,omitempty"`
	Stashed   bool `json:"stashed,omitempty"`

	// Presence of BeautifiedContent is the sole signal that a card is
	// beautified.
	OriginalHTML           string             `json:"originalHTML,omitempty"`
	BeautifiedContent      string             `json:"beautifiedContent,omitempty"`
	BeautificationMode     BeautificationMode `json:"beautificationMode,omitempty"`
	BeautificationTime     int64              `json:"beautificationTimestamp,omitempty"`
}

// IsBeautified reports whether the card currently has an alternate
// rendering applied.
func (c *Card) IsBeautified() bool {
	return c.BeautifiedContent != ""
}

// NowMillis returns the current time in Unix milliseconds.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
