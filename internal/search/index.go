// Package search keeps a semantic index of cards and answers natural
// language queries against it.
package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	chromem "github.com/philippgille/chromem-go"

	"github.com/nabokov/clipd/internal/button"
	"github.com/nabokov/clipd/internal/card"
)

const collectionName = "cards"

// Result is one search hit.
type Result struct {
	CardID     string  `json:"cardId"`
	Title      string  `json:"title"`
	Domain     string  `json:"domain"`
	CardType   string  `json:"cardType"`
	Snippet    string  `json:"snippet"`
	Similarity float32 `json:"similarity"`
}

// Filter narrows a query to matching cards.
type Filter struct {
	CardType string
	Domain   string
}

const snippetLength = 200

// Index is the semantic card index backed by chromem-go.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedder   Embedder
	embedFunc  chromem.EmbeddingFunc
}

// NewIndex creates an in-memory index using the given embedder.
func NewIndex(embedder Embedder) (*Index, error) {
	db := chromem.NewDB()
	ef := toChromemFunc(embedder)

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &Index{db: db, collection: col, embedder: embedder, embedFunc: ef}, nil
}

// Add indexes a card, replacing any previous entry for it. Cards with no
// indexable text are skipped.
func (ix *Index) Add(ctx context.Context, c *card.Card) error {
	text := indexableText(c)
	if text == "" {
		return nil
	}

	// chromem upserts by document id.
	doc := chromem.Document{
		ID:      c.ID,
		Content: text,
		Metadata: map[string]string{
			"title":     c.Metadata.Title,
			"domain":    c.Metadata.Domain,
			"card_type": string(c.CardType),
			"tags":      strings.Join(c.Tags, ","),
			"timestamp": strconv.FormatInt(c.Metadata.Timestamp, 10),
		},
	}
	if err := ix.collection.AddDocuments(ctx, []chromem.Document{doc}, 1); err != nil {
		return fmt.Errorf("indexing card %s: %w", c.ID, err)
	}
	return nil
}

// Remove drops a card from the index. Unknown ids are a no-op.
func (ix *Index) Remove(ctx context.Context, cardID string) error {
	if err := ix.collection.Delete(ctx, nil, nil, cardID); err != nil {
		return fmt.Errorf("removing card %s from index: %w", cardID, err)
	}
	return nil
}

// Search runs a semantic query over the indexed cards.
func (ix *Index) Search(ctx context.Context, query string, limit int, filter *Filter) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}

	// chromem-go requires nResults <= collection size.
	count := ix.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}

	results, err := ix.collection.Query(ctx, query, limit, whereClause(filter), nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	out := make([]Result, len(results))
	for i, r := range results {
		out[i] = Result{
			CardID:     r.ID,
			Title:      r.Metadata["title"],
			Domain:     r.Metadata["domain"],
			CardType:   r.Metadata["card_type"],
			Snippet:    snippet(r.Content),
			Similarity: r.Similarity,
		}
	}
	return out, nil
}

// Reindex rebuilds the whole index from the given cards.
func (ix *Index) Reindex(ctx context.Context, cards []card.Card, progress func()) error {
	for i := range cards {
		if err := ix.Add(ctx, &cards[i]); err != nil {
			return err
		}
		if progress != nil {
			progress()
		}
	}
	return nil
}

// Count returns the number of indexed cards.
func (ix *Index) Count() int {
	return ix.collection.Count()
}

// Persist exports the index to a file under dir.
func (ix *Index) Persist(ctx context.Context, dir string) error {
	return ix.db.ExportToFile(dir+"/index.gob.gz", true, "")
}

// Load imports a previously persisted index from dir.
func (ix *Index) Load(ctx context.Context, dir string) error {
	if err := ix.db.ImportFromFile(dir+"/index.gob.gz", ""); err != nil {
		return fmt.Errorf("import from file: %w", err)
	}

	// Re-acquire collection reference after import.
	col := ix.db.GetCollection(collectionName, ix.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	ix.collection = col
	return nil
}

// indexableText flattens the card to searchable plain text. Beautified
// cards index their cleaned rendering.
func indexableText(c *card.Card) string {
	content := c.Content
	if c.IsBeautified() {
		content = c.BeautifiedContent
	}

	parts := []string{c.Metadata.Title, button.ExtractText(content)}
	if len(c.Tags) > 0 {
		parts = append(parts, strings.Join(c.Tags, " "))
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func snippet(text string) string {
	if len(text) <= snippetLength {
		return text
	}
	cut := text[:snippetLength]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}

func whereClause(filter *Filter) map[string]string {
	if filter == nil {
		return nil
	}
	where := make(map[string]string)
	if filter.CardType != "" {
		where["card_type"] = filter.CardType
	}
	if filter.Domain != "" {
		where["domain"] = filter.Domain
	}
	if len(where) == 0 {
		return nil
	}
	return where
}
