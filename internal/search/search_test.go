package search

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/nabokov/clipd/internal/card"
)

// mockEmbedder produces deterministic vectors so tests are reproducible.
// Shared characters contribute to the same positions, so similar texts
// get similar vectors.
type mockEmbedder struct {
	dims int
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		results[i] = m.vector(text)
	}
	return results, nil
}

func (m *mockEmbedder) Dimensions() int { return m.dims }
func (m *mockEmbedder) Name() string    { return "mock" }

func (m *mockEmbedder) vector(text string) []float32 {
	vec := make([]float32, m.dims)
	for i, ch := range text {
		vec[(int(ch)+i)%m.dims] += 1.0
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec
}

func newIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := NewIndex(&mockEmbedder{dims: 64})
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	return ix
}

func testCards() []card.Card {
	return []card.Card{
		{
			ID:       "c1",
			Content:  "<p>Gothic architecture in medieval cathedrals of France</p>",
			CardType: card.TypeClipped,
			Metadata: card.Metadata{Title: "Cathedrals", Domain: "arch.example"},
			Tags:     []string{"architecture"},
		},
		{
			ID:       "c2",
			Content:  "<p>Training loops and gradient descent in neural networks</p>",
			CardType: card.TypeClipped,
			Metadata: card.Metadata{Title: "Deep Learning", Domain: "ml.example"},
		},
		{
			ID:       "c3",
			Content:  "<p>Notes on butterfly taxonomy and wing patterns</p>",
			CardType: card.TypeNote,
			Metadata: card.Metadata{Title: "Butterflies", Domain: ""},
		},
	}
}

func TestIndexAddAndSearch(t *testing.T) {
	ix := newIndex(t)
	ctx := context.Background()

	for _, c := range testCards() {
		c := c
		if err := ix.Add(ctx, &c); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if ix.Count() != 3 {
		t.Fatalf("expected 3 indexed cards, got %d", ix.Count())
	}

	results, err := ix.Search(ctx, "medieval cathedral architecture", 2, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	if len(results) > 2 {
		t.Errorf("limit ignored: %d results", len(results))
	}
	for _, r := range results {
		if r.Similarity == 0 {
			t.Error("result has zero similarity")
		}
		if r.CardID == "" || r.Snippet == "" {
			t.Errorf("incomplete result: %+v", r)
		}
	}
}

func TestIndexSearchWithFilter(t *testing.T) {
	ix := newIndex(t)
	ctx := context.Background()

	for _, c := range testCards() {
		c := c
		ix.Add(ctx, &c)
	}

	results, err := ix.Search(ctx, "patterns", 10, &Filter{CardType: string(card.TypeNote)})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, r := range results {
		if r.CardType != string(card.TypeNote) {
			t.Errorf("filter leaked card type %q", r.CardType)
		}
	}
}

func TestIndexRemove(t *testing.T) {
	ix := newIndex(t)
	ctx := context.Background()

	for _, c := range testCards() {
		c := c
		ix.Add(ctx, &c)
	}

	if err := ix.Remove(ctx, "c2"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if ix.Count() != 2 {
		t.Errorf("expected 2 after removal, got %d", ix.Count())
	}
}

func TestIndexSkipsEmptyCards(t *testing.T) {
	ix := newIndex(t)

	empty := card.Card{ID: "empty"}
	if err := ix.Add(context.Background(), &empty); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if ix.Count() != 0 {
		t.Errorf("expected empty card skipped, got %d entries", ix.Count())
	}
}

func TestIndexUsesBeautifiedContent(t *testing.T) {
	ix := newIndex(t)
	ctx := context.Background()

	c := card.Card{
		ID:                "b1",
		Content:           "<div>raw noisy markup</div>",
		BeautifiedContent: "<p>volcanic eruption chronology</p>",
		CardType:          card.TypeClipped,
		Metadata:          card.Metadata{Title: "Volcanoes"},
	}
	if err := ix.Add(ctx, &c); err != nil {
		t.Fatalf("Add: %v", err)
	}

	results, err := ix.Search(ctx, "volcanic eruption chronology", 1, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].CardID != "b1" {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestIndexPersistAndLoad(t *testing.T) {
	embedder := &mockEmbedder{dims: 64}
	ix, err := NewIndex(embedder)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	ctx := context.Background()

	for _, c := range testCards() {
		c := c
		ix.Add(ctx, &c)
	}

	dir := t.TempDir()
	if err := ix.Persist(ctx, dir); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	ix2, err := NewIndex(embedder)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	if err := ix2.Load(ctx, dir); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ix2.Count() != 3 {
		t.Errorf("expected 3 after load, got %d", ix2.Count())
	}
}

func TestRouteSearch(t *testing.T) {
	ix := newIndex(t)
	ctx := context.Background()
	for _, c := range testCards() {
		c := c
		ix.Add(ctx, &c)
	}

	r := chi.NewRouter()
	RegisterRoutes(r, ix)

	req := httptest.NewRequest("GET", "/api/search?q=butterfly+wing+patterns&limit=2", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var results []Result
	json.Unmarshal(w.Body.Bytes(), &results)
	if len(results) == 0 {
		t.Fatal("expected results")
	}

	req = httptest.NewRequest("GET", "/api/search", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing query, got %d", w.Code)
	}
}
