// Package chat runs streaming conversations scoped to a single card.
// Every turn is persisted on the card, so a conversation survives daemon
// restarts and travels with the card through export and search.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/nabokov/clipd/internal/button"
	"github.com/nabokov/clipd/internal/card"
	"github.com/nabokov/clipd/internal/llm"
)

// ErrCardNotFound is returned when the conversation target does not exist.
var ErrCardNotFound = errors.New("chat: card not found")

// ErrEmptyMessage is returned for a blank user turn.
var ErrEmptyMessage = errors.New("chat: message is empty")

const systemPromptFormat = "You are a research assistant discussing a piece of captured web content with the user. " +
	"Ground your answers in the content below.\n\nTitle: %s\nSource: %s\n\nContent:\n%s"

// Service drives card conversations against an LLM provider. One stream
// per card runs at a time; starting a new one cancels the old.
type Service struct {
	cards    *card.Store
	provider llm.Provider
	model    string

	mu     sync.Mutex
	active map[string]context.CancelFunc
}

// NewService creates a chat service.
func NewService(cards *card.Store, provider llm.Provider, model string) *Service {
	return &Service{
		cards:    cards,
		provider: provider,
		model:    model,
		active:   make(map[string]context.CancelFunc),
	}
}

// Send appends the user's message to the card's conversation and streams
// the assistant's reply. The returned channel yields chunks until the
// reply completes, the stream fails, or Stop is called for the card. The
// full assistant turn is persisted once the stream ends; a stopped
// stream persists the partial text received so far.
func (s *Service) Send(ctx context.Context, cardID, content string) (<-chan llm.Chunk, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}

	c, err := s.cards.Get(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCardNotFound
	}

	userTurn := card.Message{
		ID:        uuid.New().String(),
		Role:      "user",
		Content:   content,
		Timestamp: card.NowMillis(),
	}
	c.Conversation = append(c.Conversation, userTurn)
	if _, err := s.cards.Save(ctx, *c); err != nil {
		return nil, fmt.Errorf("saving user turn: %w", err)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	if prev, ok := s.active[cardID]; ok {
		prev()
	}
	s.active[cardID] = cancel
	s.mu.Unlock()

	chunks, err := s.provider.Stream(streamCtx, llm.CompletionRequest{
		Model:    s.model,
		Messages: s.buildMessages(c),
	})
	if err != nil {
		s.clear(cardID, cancel)
		return nil, fmt.Errorf("starting chat stream: %w", err)
	}

	out := make(chan llm.Chunk)
	go s.relay(streamCtx, cardID, cancel, chunks, out)
	return out, nil
}

// Stop cancels the card's running stream, if any. It reports whether a
// stream was active.
func (s *Service) Stop(cardID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cancel, ok := s.active[cardID]
	if ok {
		cancel()
		delete(s.active, cardID)
	}
	return ok
}

func (s *Service) clear(cardID string, cancel context.CancelFunc) {
	cancel()
	s.mu.Lock()
	if s.active[cardID] != nil {
		delete(s.active, cardID)
	}
	s.mu.Unlock()
}

// relay forwards chunks to the caller while accumulating the assistant
// text, then persists the completed turn.
func (s *Service) relay(ctx context.Context, cardID string, cancel context.CancelFunc, in <-chan llm.Chunk, out chan<- llm.Chunk) {
	defer close(out)
	defer s.clear(cardID, cancel)

	var b strings.Builder
	for chunk := range in {
		b.WriteString(chunk.Text)
		select {
		case out <- chunk:
		case <-ctx.Done():
		}
		if chunk.Done || chunk.Err != nil {
			break
		}
	}

	if b.Len() == 0 {
		return
	}

	// Persist with a fresh context; the stream's may already be canceled.
	saveCtx := context.Background()
	c, err := s.cards.Get(saveCtx, cardID)
	if err != nil || c == nil {
		return
	}
	c.Conversation = append(c.Conversation, card.Message{
		ID:        uuid.New().String(),
		Role:      "assistant",
		Content:   b.String(),
		Timestamp: card.NowMillis(),
	})
	s.cards.Save(saveCtx, *c)
}

// buildMessages turns the card and its conversation into an LLM request.
func (s *Service) buildMessages(c *card.Card) []llm.Message {
	msgs := []llm.Message{{
		Role: llm.RoleSystem,
		Content: fmt.Sprintf(systemPromptFormat,
			c.Metadata.Title, c.Metadata.URL, button.ExtractText(c.Content)),
	}}
	for _, turn := range c.Conversation {
		role := llm.RoleUser
		if turn.Role == "assistant" {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: turn.Content})
	}
	return msgs
}
