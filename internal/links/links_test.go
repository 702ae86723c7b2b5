package links

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/nabokov/clipd/internal/kv"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(kv.NewMemoryStore())
}

func TestCreateAndForCard(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	l, err := store.Create(ctx, Link{ParentCardID: "p", ChildCardID: "c", AnchorText: "term", StartOffset: 3, EndOffset: 7})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if l.ID == "" || l.CreatedAt == 0 {
		t.Errorf("expected id and creation time, got %+v", l)
	}
	store.Create(ctx, Link{ParentCardID: "other", ChildCardID: "c2", AnchorText: "x"})

	got, err := store.ForCard(ctx, "p")
	if err != nil {
		t.Fatalf("ForCard: %v", err)
	}
	if len(got) != 1 || got[0].AnchorText != "term" {
		t.Errorf("unexpected links for p: %+v", got)
	}
}

func TestDeleteForCardDropsParentAndChildSides(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	store.Create(ctx, Link{ParentCardID: "a", ChildCardID: "b", AnchorText: "x"})
	store.Create(ctx, Link{ParentCardID: "c", ChildCardID: "a", AnchorText: "y"})
	store.Create(ctx, Link{ParentCardID: "c", ChildCardID: "d", AnchorText: "z"})

	if err := store.DeleteForCard(ctx, "a"); err != nil {
		t.Fatalf("DeleteForCard: %v", err)
	}

	all, _ := store.All(ctx)
	if len(all) != 1 || all[0].AnchorText != "z" {
		t.Errorf("unexpected survivors: %+v", all)
	}
}

func TestInjectLinksIntoContent(t *testing.T) {
	content := "The cat sat on the mat."
	all := []Link{
		{ID: "l1", ChildCardID: "c1", AnchorText: "cat", StartOffset: 4, EndOffset: 7},
		{ID: "l2", ChildCardID: "c2", AnchorText: "mat", StartOffset: 19, EndOffset: 22},
	}

	got := InjectLinksIntoContent(content, all)

	if !strings.Contains(got, `data-link-id="l1"`) || !strings.Contains(got, `data-link-id="l2"`) {
		t.Fatalf("missing anchors: %q", got)
	}
	if !strings.Contains(got, `class="nabokov-expandable-link"`) {
		t.Errorf("missing anchor class: %q", got)
	}
	if !strings.Contains(got, `data-child-card-id="c1"`) {
		t.Errorf("missing child reference: %q", got)
	}
	// The visible text survives wrapping.
	if !strings.Contains(got, ">cat</a>") || !strings.Contains(got, ">mat</a>") {
		t.Errorf("anchor text mangled: %q", got)
	}
}

// Injecting in ascending order would shift later offsets as markup grows;
// the descending pass keeps every recorded offset valid.
func TestInjectLinksOffsetsStayValid(t *testing.T) {
	content := "alpha beta alpha gamma"
	all := []Link{
		{ID: "early", ChildCardID: "c1", AnchorText: "alpha", StartOffset: 0},
		{ID: "late", ChildCardID: "c2", AnchorText: "alpha", StartOffset: 11},
	}

	got := InjectLinksIntoContent(content, all)

	earlyIdx := strings.Index(got, `data-link-id="early"`)
	lateIdx := strings.Index(got, `data-link-id="late"`)
	if earlyIdx < 0 || lateIdx < 0 {
		t.Fatalf("missing anchors: %q", got)
	}
	if earlyIdx > lateIdx {
		t.Errorf("anchors landed on wrong occurrences: %q", got)
	}
	if strings.Count(got, "</a>") != 2 {
		t.Errorf("expected exactly 2 anchors, got %q", got)
	}
}

func TestInjectLinksMissingAnchorTextIsUntouched(t *testing.T) {
	content := "nothing to see"
	all := []Link{{ID: "l1", ChildCardID: "c1", AnchorText: "absent", StartOffset: 0}}

	if got := InjectLinksIntoContent(content, all); got != content {
		t.Errorf("expected content unchanged, got %q", got)
	}
}

func TestInjectLinksEmptyInputs(t *testing.T) {
	if got := InjectLinksIntoContent("", []Link{{AnchorText: "x"}}); got != "" {
		t.Errorf("expected empty content preserved, got %q", got)
	}
	if got := InjectLinksIntoContent("text", nil); got != "text" {
		t.Errorf("expected content unchanged, got %q", got)
	}
}

func router(store *Store) *chi.Mux {
	r := chi.NewRouter()
	RegisterRoutes(r, store)
	return r
}

func TestRouteCreateValidation(t *testing.T) {
	r := router(newStore(t))

	req := httptest.NewRequest("POST", "/api/links", strings.NewReader(`{"parentCardId":"p"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestRouteCreateAndDelete(t *testing.T) {
	store := newStore(t)
	r := router(store)
	ctx := context.Background()

	body := `{"parentCardId":"p","childCardId":"c","anchorText":"term","startOffset":1,"endOffset":5}`
	req := httptest.NewRequest("POST", "/api/links", strings.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	all, _ := store.All(ctx)
	if len(all) != 1 {
		t.Fatalf("expected 1 link, got %d", len(all))
	}

	req = httptest.NewRequest("DELETE", "/api/links/"+all[0].ID, nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	all, _ = store.All(ctx)
	if len(all) != 0 {
		t.Errorf("expected link removed, got %+v", all)
	}
}
