// Package memory keeps facts the user asked Jarvis to remember in a local
// chromem-go vector collection, so the dispatch loop can recall the ones
// relevant to a message.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/oklog/ulid/v2"
	chromem "github.com/philippgille/chromem-go"

	jarvisErrors "github.com/harunnryd/jarvis/internal/errors"
)

const (
	DefaultCollection = "facts"
	DefaultTopK       = 5
)

// Embedder is the part of model.ModelRouter memory uses.
type Embedder interface {
	RouteEmbedding(ctx context.Context, model string, text string) ([]float32, error)
}

type VectorMemory struct {
	db             *chromem.DB
	embedder       Embedder
	embeddingModel string
	collection     string
	topK           int
}

type Options struct {
	Path           string
	Collection     string
	EmbeddingModel string
	TopK           int
}

// New opens (or creates) the persistent vector store at opts.Path.
func New(embedder Embedder, opts Options) (*VectorMemory, error) {
	if strings.TrimSpace(opts.Path) == "" {
		return nil, jarvisErrors.InvalidInput("memory path is empty")
	}
	if err := os.MkdirAll(opts.Path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create vector dir: %w", err)
	}
	// embeddings are supplied by the router, not by chromem
	db, err := chromem.NewPersistentDB(opts.Path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to init vector db: %w", err)
	}

	m := &VectorMemory{
		db:             db,
		embedder:       embedder,
		embeddingModel: strings.TrimSpace(opts.EmbeddingModel),
		collection:     opts.Collection,
		topK:           opts.TopK,
	}
	if m.collection == "" {
		m.collection = DefaultCollection
	}
	if m.topK <= 0 {
		m.topK = DefaultTopK
	}
	return m, nil
}

// Retrieve returns up to topK stored facts closest to query.
func (m *VectorMemory) Retrieve(ctx context.Context, query string) ([]string, error) {
	col := m.db.GetCollection(m.collection, nil)
	if col == nil || col.Count() == 0 {
		return nil, nil
	}

	embedding, err := m.embedder.RouteEmbedding(ctx, m.embeddingModel, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	n := min(m.topK, col.Count())
	docs, err := col.QueryEmbedding(ctx, embedding, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to search vectors: %w", err)
	}

	facts := make([]string, 0, len(docs))
	for _, doc := range docs {
		facts = append(facts, doc.Content)
	}

	slog.DebugContext(ctx, "Memory retrieved", "count", len(facts))
	return facts, nil
}

// Remember embeds and stores one fact.
func (m *VectorMemory) Remember(ctx context.Context, fact string) error {
	fact = strings.TrimSpace(fact)
	if fact == "" {
		return jarvisErrors.InvalidInput("fact is empty")
	}

	embedding, err := m.embedder.RouteEmbedding(ctx, m.embeddingModel, fact)
	if err != nil {
		return fmt.Errorf("failed to embed fact: %w", err)
	}

	col, err := m.db.GetOrCreateCollection(m.collection, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to open collection: %w", err)
	}

	id := ulid.Make().String()
	err = col.AddDocuments(ctx, []chromem.Document{{
		ID:        id,
		Content:   fact,
		Embedding: embedding,
		Metadata:  map[string]string{"source": "save_memory"},
	}}, 1)
	if err != nil {
		return fmt.Errorf("failed to upsert vector: %w", err)
	}

	slog.InfoContext(ctx, "Memory stored", "fact_preview", fact[:min(len(fact), 50)], "id", id)
	return nil
}

// Count reports how many facts are stored.
func (m *VectorMemory) Count() int {
	col := m.db.GetCollection(m.collection, nil)
	if col == nil {
		return 0
	}
	return col.Count()
}
