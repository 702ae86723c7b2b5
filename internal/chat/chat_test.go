package chat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nabokov/clipd/internal/card"
	"github.com/nabokov/clipd/internal/kv"
	"github.com/nabokov/clipd/internal/llm"
)

// streamProvider streams its configured chunks, honoring cancellation.
type streamProvider struct {
	chunks   []string
	delay    time.Duration
	requests []llm.CompletionRequest
}

func (p *streamProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return nil, errors.New("not implemented")
}

func (p *streamProvider) Stream(ctx context.Context, req llm.CompletionRequest) (<-chan llm.Chunk, error) {
	p.requests = append(p.requests, req)
	out := make(chan llm.Chunk)
	go func() {
		defer close(out)
		for _, text := range p.chunks {
			if p.delay > 0 {
				select {
				case <-time.After(p.delay):
				case <-ctx.Done():
					return
				}
			}
			select {
			case out <- llm.Chunk{Text: text}:
			case <-ctx.Done():
				return
			}
		}
		select {
		case out <- llm.Chunk{Done: true}:
		case <-ctx.Done():
		}
	}()
	return out, nil
}

func (p *streamProvider) Name() string { return "stream-fake" }

func setup(t *testing.T, p llm.Provider) (*Service, *card.Store, string) {
	t.Helper()
	cards := card.NewStore(kv.NewMemoryStore())
	c, err := cards.Save(context.Background(), card.Card{
		Content:  "<p>Topic content</p>",
		Metadata: card.Metadata{Title: "Topic", URL: "https://t.test"},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	return NewService(cards, p, "test-model"), cards, c.ID
}

func drain(t *testing.T, chunks <-chan llm.Chunk) string {
	t.Helper()
	var b strings.Builder
	for chunk := range chunks {
		b.WriteString(chunk.Text)
	}
	return b.String()
}

func waitForConversation(t *testing.T, cards *card.Store, cardID string, n int) []card.Message {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c, err := cards.Get(context.Background(), cardID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if len(c.Conversation) >= n {
			return c.Conversation
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("conversation never reached %d turns", n)
	return nil
}

func TestSendStreamsAndPersists(t *testing.T) {
	p := &streamProvider{chunks: []string{"Hello", " there"}}
	svc, cards, cardID := setup(t, p)

	chunks, err := svc.Send(context.Background(), cardID, "hi")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if got := drain(t, chunks); got != "Hello there" {
		t.Errorf("unexpected streamed text: %q", got)
	}

	conv := waitForConversation(t, cards, cardID, 2)
	if conv[0].Role != "user" || conv[0].Content != "hi" {
		t.Errorf("unexpected user turn: %+v", conv[0])
	}
	if conv[1].Role != "assistant" || conv[1].Content != "Hello there" {
		t.Errorf("unexpected assistant turn: %+v", conv[1])
	}

	// The request grounded the model in the card content.
	sys := p.requests[0].Messages[0]
	if sys.Role != llm.RoleSystem || !strings.Contains(sys.Content, "Topic content") {
		t.Errorf("system prompt missing card content: %+v", sys)
	}
}

func TestSendCarriesConversationHistory(t *testing.T) {
	p := &streamProvider{chunks: []string{"reply"}}
	svc, cards, cardID := setup(t, p)
	ctx := context.Background()

	chunks, err := svc.Send(ctx, cardID, "first")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	drain(t, chunks)
	waitForConversation(t, cards, cardID, 2)

	chunks, err = svc.Send(ctx, cardID, "second")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	drain(t, chunks)

	msgs := p.requests[1].Messages
	// system + first + reply + second
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(msgs))
	}
	if msgs[2].Role != llm.RoleAssistant || msgs[2].Content != "reply" {
		t.Errorf("history missing assistant turn: %+v", msgs[2])
	}
}

func TestStopCancelsStream(t *testing.T) {
	p := &streamProvider{chunks: []string{"a", "b", "c", "d"}, delay: 100 * time.Millisecond}
	svc, _, cardID := setup(t, p)

	chunks, err := svc.Send(context.Background(), cardID, "go")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	time.Sleep(150 * time.Millisecond)
	if !svc.Stop(cardID) {
		t.Error("expected an active stream to stop")
	}

	done := make(chan struct{})
	go func() {
		drain(t, chunks)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not close after stop")
	}

	if svc.Stop(cardID) {
		t.Error("expected no active stream after stop")
	}
}

func TestSendValidation(t *testing.T) {
	svc, _, _ := setup(t, &streamProvider{})
	ctx := context.Background()

	if _, err := svc.Send(ctx, "ghost", "hi"); !errors.Is(err, ErrCardNotFound) {
		t.Errorf("expected ErrCardNotFound, got %v", err)
	}
	if _, err := svc.Send(ctx, "any", "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestRouteChatStreamsSSE(t *testing.T) {
	p := &streamProvider{chunks: []string{"Hi"}}
	svc, _, cardID := setup(t, p)

	r := chi.NewRouter()
	RegisterRoutes(r, svc)

	req := httptest.NewRequest("POST", "/api/cards/"+cardID+"/chat", strings.NewReader(`{"message":"hello"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("unexpected content type: %s", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, `data: {"text":"Hi"}`) {
		t.Errorf("missing chunk event in %q", body)
	}
	if !strings.Contains(body, `"done":true`) {
		t.Errorf("missing done event in %q", body)
	}
}

func TestRouteChatUnknownCard(t *testing.T) {
	svc, _, _ := setup(t, &streamProvider{})
	r := chi.NewRouter()
	RegisterRoutes(r, svc)

	req := httptest.NewRequest("POST", "/api/cards/ghost/chat", strings.NewReader(`{"message":"hello"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
