// Package generate implements the card generation service: expanding a
// source card into a new AI-generated card via an action button.
package generate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/nabokov/clipd/internal/button"
	"github.com/nabokov/clipd/internal/card"
	"github.com/nabokov/clipd/internal/connection"
	"github.com/nabokov/clipd/internal/llm"
)

// PlacementGap is the horizontal gap between a source card and the card
// generated from it, in CSS pixels. Generated cards sit to the right of
// their parent so lineage reads left to right.
const PlacementGap = 60

// defaultSourceWidth stands in for a source card that was never resized.
const defaultSourceWidth = 320

// Generated cards start at a fixed size; the user resizes from there.
var generatedSize = card.Size{Width: 400, Height: 300}

// Input validation failures. These surface immediately to the caller and
// are never retried.
var (
	ErrCardNotFound   = errors.New("generate: source card not found")
	ErrEmptyContent   = errors.New("generate: source card has no content")
	ErrButtonDisabled = errors.New("generate: button is disabled")
)

const systemPrompt = "You are a research assistant embedded in a visual canvas of captured web content. " +
	"Answer directly with well-structured prose; use markdown when structure helps."

// Service orchestrates one full "expand card via button" operation. It is
// the only component that talks to the LLM for card generation, and each
// invocation is a fresh transaction: either the new card and its
// connection both land, or neither does.
type Service struct {
	cards    *card.Store
	conns    *connection.Store
	provider llm.Provider
	model    string
}

// NewService creates a card generation service.
func NewService(cards *card.Store, conns *connection.Store, provider llm.Provider, model string) *Service {
	return &Service{cards: cards, conns: conns, provider: provider, model: model}
}

// FromButton generates a new card from the given source card and button.
// customContext, when non-empty after trimming, replaces the template's
// fallback focus. The LLM is called exactly once; a failure there aborts
// the whole operation before anything is persisted.
func (s *Service) FromButton(ctx context.Context, sourceID string, btn button.Button, customContext string) (*card.Card, error) {
	source, err := s.cards.Get(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, ErrCardNotFound
	}
	if !btn.Enabled {
		return nil, ErrButtonDisabled
	}

	plain := button.ExtractText(source.Content)
	if plain == "" {
		return nil, ErrEmptyContent
	}

	prompt := button.FillTemplate(btn.Prompt, button.Vars{
		Content:       plain,
		Title:         source.Metadata.Title,
		CustomContext: customContext,
	})

	resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		Model: s.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("generating content: %w", err)
	}

	now := card.NowMillis()
	newCard := card.Card{
		Content:      FormatAsHTML(resp.Content),
		CardType:     card.TypeGenerated,
		ParentCardID: source.ID,
		Metadata: card.Metadata{
			Title:     fmt.Sprintf("%s: %s", btn.Label, source.Metadata.Title),
			Domain:    "ai-generated",
			Favicon:   btn.Icon,
			Timestamp: now,
		},
		Position: placement(source),
		Size:     &card.Size{Width: generatedSize.Width, Height: generatedSize.Height},
		Tags:     []string{"ai-generated", strings.ToLower(btn.Label)},
		GenerationContext: &card.GenerationContext{
			UserPrompt: prompt,
			Timestamp:  now,
		},
	}

	saved, err := s.cards.Save(ctx, newCard)
	if err != nil {
		return nil, fmt.Errorf("saving generated card: %w", err)
	}

	label := btn.Label
	if trimmed := strings.TrimSpace(customContext); trimmed != "" {
		label = fmt.Sprintf("%s: %s", btn.Label, trimmed)
	}

	_, err = s.conns.Add(ctx, connection.Connection{
		Source: source.ID,
		Target: saved.ID,
		Type:   btn.ConnectionType,
		Label:  label,
		Metadata: &connection.Metadata{
			CreatedAt: now,
			CreatedBy: "user",
		},
	})
	if err != nil {
		// Roll the card back so a failed edge write leaves no orphan.
		if delErr := s.cards.Delete(ctx, saved.ID); delErr != nil {
			log.Printf("generate: rollback of card %s failed: %v", saved.ID, delErr)
		}
		return nil, fmt.Errorf("linking generated card: %w", err)
	}

	return saved, nil
}

// placement puts the new card to the right of its source.
func placement(source *card.Card) *card.Position {
	var baseX, baseY float64
	if source.Position != nil {
		baseX = source.Position.X
		baseY = source.Position.Y
	}
	width := float64(defaultSourceWidth)
	if source.Size != nil && source.Size.Width > 0 {
		width = source.Size.Width
	}
	return &card.Position{X: baseX + width + PlacementGap, Y: baseY}
}

var markdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(
			highlighting.WithStyle("github"),
		),
	),
	goldmark.WithRendererOptions(
		gmhtml.WithHardWraps(),
		gmhtml.WithUnsafe(),
	),
)

// FormatAsHTML renders an LLM response as an HTML fragment. Plain prose
// comes out paragraph-wrapped with hard line breaks preserved; responses
// that carry markdown structure (headings, lists, code fences) render to
// the corresponding markup.
func FormatAsHTML(content string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(content), &buf); err != nil {
		return plainParagraph(content)
	}
	return strings.TrimSpace(buf.String())
}

// plainParagraph is the renderer-failure fallback: one paragraph with the
// content escaped so raw model output can never smuggle markup through.
func plainParagraph(content string) string {
	escaped := html.EscapeString(content)
	return "<p>" + strings.ReplaceAll(escaped, "\n", "<br>") + "</p>"
}
