// Package beautify produces an alternate, cleaned-up rendering of a
// card's clipped content. The original markup is kept verbatim so the
// card can always revert.
package beautify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/nabokov/clipd/internal/card"
	"github.com/nabokov/clipd/internal/llm"
	"github.com/nabokov/clipd/internal/settings"
)

var (
	ErrCardNotFound    = errors.New("beautify: card not found")
	ErrNoContent       = errors.New("beautify: card has no content")
	ErrNotBeautified   = errors.New("beautify: card is not beautified")
	ErrUnsupportedMode = errors.New("beautify: unsupported mode")
)

const organizePrompt = "Reorganize the following HTML content into clean, well-structured HTML. " +
	"Group related information, use headings and lists where they clarify structure, and remove " +
	"navigation chrome, ads and boilerplate. Preserve every substantive fact and all links. " +
	"Return only the HTML fragment, no markdown fences and no commentary.\n\n%s"

// Service rewrites card content via the LLM.
type Service struct {
	cards    *card.Store
	settings *settings.Store
	provider llm.Provider
	model    string
}

// NewService creates a beautification service.
func NewService(cards *card.Store, st *settings.Store, provider llm.Provider, model string) *Service {
	return &Service{cards: cards, settings: st, provider: provider, model: model}
}

// Beautify generates an alternate rendering for the card and stores it
// alongside the untouched original.
func (s *Service) Beautify(ctx context.Context, cardID string, mode card.BeautificationMode) (*card.Card, error) {
	if mode == "" {
		mode = card.ModeOrganizeContent
	}
	if mode != card.ModeOrganizeContent {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMode, mode)
	}

	c, err := s.cards.Get(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCardNotFound
	}
	if strings.TrimSpace(c.Content) == "" {
		return nil, ErrNoContent
	}

	resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		Model: s.model,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: fmt.Sprintf(organizePrompt, c.Content)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("beautifying card %s: %w", cardID, err)
	}

	cleaned := stripFences(resp.Content)
	if cleaned == "" {
		return nil, fmt.Errorf("beautifying card %s: model returned no content", cardID)
	}

	if c.OriginalHTML == "" {
		c.OriginalHTML = c.Content
	}
	c.BeautifiedContent = cleaned
	c.BeautificationMode = mode
	c.BeautificationTime = card.NowMillis()

	saved, err := s.cards.Save(ctx, *c)
	if err != nil {
		return nil, fmt.Errorf("saving beautified card: %w", err)
	}
	return saved, nil
}

// Revert removes the alternate rendering and restores the original
// markup as the card's content.
func (s *Service) Revert(ctx context.Context, cardID string) (*card.Card, error) {
	c, err := s.cards.Get(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCardNotFound
	}
	if !c.IsBeautified() {
		return nil, ErrNotBeautified
	}

	if c.OriginalHTML != "" {
		c.Content = c.OriginalHTML
	}
	c.OriginalHTML = ""
	c.BeautifiedContent = ""
	c.BeautificationMode = ""
	c.BeautificationTime = 0

	saved, err := s.cards.Save(ctx, *c)
	if err != nil {
		return nil, fmt.Errorf("reverting card: %w", err)
	}
	return saved, nil
}

// MaybeAuto beautifies a freshly clipped card when the user has auto
// beautification enabled. Failures are logged, never surfaced: a clip
// must not fail because the rewrite did.
func (s *Service) MaybeAuto(ctx context.Context, cardID string) {
	prefs, err := s.settings.Get(ctx)
	if err != nil {
		log.Printf("beautify: loading settings: %v", err)
		return
	}
	if !prefs.AutoBeautify {
		return
	}
	if _, err := s.Beautify(ctx, cardID, prefs.AutoBeautifyMode); err != nil {
		log.Printf("beautify: auto pass for card %s: %v", cardID, err)
	}
}

// stripFences drops a wrapping markdown code fence if the model added
// one despite instructions.
func stripFences(s string) string {
	out := strings.TrimSpace(s)
	if !strings.HasPrefix(out, "```") {
		return out
	}
	out = strings.TrimPrefix(out, "```html")
	out = strings.TrimPrefix(out, "```")
	out = strings.TrimSuffix(strings.TrimSpace(out), "```")
	return strings.TrimSpace(out)
}
