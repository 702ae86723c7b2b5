package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/nabokov/clipd/internal/card"
	"github.com/nabokov/clipd/internal/config"
	"github.com/nabokov/clipd/internal/connection"
	"github.com/nabokov/clipd/internal/kv"
	"github.com/nabokov/clipd/internal/links"
	"github.com/nabokov/clipd/internal/llm"
)

type fakeProvider struct{}

func (fakeProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return &llm.CompletionResponse{Content: "ok"}, nil
}

func (fakeProvider) Stream(ctx context.Context, req llm.CompletionRequest) (<-chan llm.Chunk, error) {
	return nil, errors.New("not implemented")
}

func (fakeProvider) Name() string { return "fake" }

func testServer(t *testing.T) (*Server, kv.Store) {
	t.Helper()
	cfg := config.DefaultConfig()
	store := kv.NewMemoryStore()
	return New(cfg, store, fakeProvider{}, nil), store
}

func TestHealthz(t *testing.T) {
	s, _ := testServer(t)

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ok") {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestVerboseRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	cfg := config.DefaultConfig()
	cfg.Verbose = true
	s := New(cfg, kv.NewMemoryStore(), fakeProvider{}, nil)

	req := httptest.NewRequest("GET", "/healthz", nil)
	s.Router().ServeHTTP(httptest.NewRecorder(), req)
	if !strings.Contains(buf.String(), "/healthz") {
		t.Errorf("expected request log line, got %q", buf.String())
	}

	buf.Reset()
	quiet, _ := testServer(t)
	quiet.Router().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/healthz", nil))
	if strings.Contains(buf.String(), "/healthz") {
		t.Errorf("request logged without verbose: %q", buf.String())
	}
}

func TestCardDeleteCascadesOverHTTP(t *testing.T) {
	s, store := testServer(t)
	ctx := context.Background()

	conns := connection.NewStore(store)
	linkStore := links.NewStore(store)

	c, err := s.Cards().Save(ctx, card.Card{Content: "doomed"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	other, _ := s.Cards().Save(ctx, card.Card{Content: "survivor"})

	conns.Add(ctx, connection.Connection{Source: c.ID, Target: other.ID, Type: connection.TypeRelated})
	conns.Add(ctx, connection.Connection{Source: other.ID, Target: other.ID, Type: connection.TypeCustom})
	linkStore.Create(ctx, links.Link{ParentCardID: c.ID, ChildCardID: other.ID, AnchorText: "x"})

	req := httptest.NewRequest("DELETE", "/api/cards/"+c.ID, nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if got, _ := s.Cards().Get(ctx, c.ID); got != nil {
		t.Error("card survived delete")
	}
	remaining, _ := conns.All(ctx)
	if len(remaining) != 1 {
		t.Errorf("expected 1 surviving connection, got %d", len(remaining))
	}
	linksLeft, _ := linkStore.All(ctx)
	if len(linksLeft) != 0 {
		t.Errorf("expected links removed, got %d", len(linksLeft))
	}
}

func TestRoutesAreMounted(t *testing.T) {
	s, _ := testServer(t)

	paths := []struct {
		method string
		path   string
	}{
		{"GET", "/api/cards"},
		{"GET", "/api/connections"},
		{"GET", "/api/links"},
		{"GET", "/api/settings"},
		{"GET", "/api/windows"},
		{"GET", "/api/buttons"},
	}

	for _, p := range paths {
		req := httptest.NewRequest(p.method, p.path, nil)
		w := httptest.NewRecorder()
		s.Router().ServeHTTP(w, req)
		if w.Code == http.StatusNotFound {
			t.Errorf("%s %s not mounted", p.method, p.path)
		}
	}
}

func TestClipThenListOverHTTP(t *testing.T) {
	s, _ := testServer(t)

	body := `{"html":"<p>hello</p>","element":{"tagName":"p"},"page":{"url":"https://e.test/a","title":"E"}}`
	req := httptest.NewRequest("POST", "/api/clip", strings.NewReader(body))
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest("GET", "/api/cards", nil)
	w = httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	var cards []card.Card
	json.Unmarshal(w.Body.Bytes(), &cards)
	if len(cards) != 1 || cards[0].Metadata.Domain != "e.test" {
		t.Errorf("unexpected cards: %+v", cards)
	}
}
