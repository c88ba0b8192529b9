// Package indexer turns raw product records into persisted, embedded chunks.
package indexer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/nidhogg/neusearch/internal/catalog"
	"github.com/nidhogg/neusearch/internal/chunker"
	"github.com/nidhogg/neusearch/internal/embedding"
	"go.uber.org/zap"
)

// DefaultMaxChars is the chunk window used for indexing. It is wider than
// the general-purpose chunking default so a product's description usually
// fits a single chunk.
const DefaultMaxChars = 700

// ChunkWriter persists chunk records. InsertChunks is atomic per call.
type ChunkWriter interface {
	InsertChunks(ctx context.Context, chunks []catalog.Chunk) error
}

// Pipeline chunks and embeds products and writes the results to storage.
type Pipeline struct {
	resolver *embedding.Resolver
	store    ChunkWriter
	logger   *zap.Logger
}

// NewPipeline creates an indexing pipeline.
func NewPipeline(resolver *embedding.Resolver, store ChunkWriter, logger *zap.Logger) *Pipeline {
	return &Pipeline{resolver: resolver, store: store, logger: logger}
}

// Index chunks each product's combined text at maxChars, embeds all chunks
// across all products in one batch, and persists them. It returns the number
// of chunks created. Products yielding no text are skipped; when nothing
// yields text at all, storage is never touched and the count is 0.
//
// The batch is not transactional across products beyond the single
// InsertChunks call; on failure the caller decides whether to retry.
func (p *Pipeline) Index(ctx context.Context, products []catalog.Product, maxChars int) (int, error) {
	var texts []string
	var metas []catalog.ChunkMeta

	for _, prod := range products {
		combined := CombinedText(prod)
		chunks, err := chunker.Split(combined, maxChars)
		if err != nil {
			return 0, fmt.Errorf("indexer: chunk product %s: %w", prod.ID, err)
		}
		for _, c := range chunks {
			texts = append(texts, c)
			metas = append(metas, catalog.ChunkMeta{
				ProductID: prod.ID,
				Title:     prod.Title,
				SourceURL: prod.SourceURL,
			})
		}
	}

	if len(texts) == 0 {
		return 0, nil
	}

	strategy, provider := p.resolver.Resolve(ctx)
	vectors, err := provider.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("indexer: embed chunks: %w", err)
	}
	if len(vectors) != len(texts) {
		return 0, fmt.Errorf("indexer: got %d embeddings for %d chunks", len(vectors), len(texts))
	}

	records := make([]catalog.Chunk, len(texts))
	for i, text := range texts {
		records[i] = catalog.Chunk{
			ProductID: metas[i].ProductID,
			Text:      text,
			Embedding: vectors[i],
			Strategy:  strategy.String(),
			Meta:      metas[i],
		}
	}

	if err := p.store.InsertChunks(ctx, records); err != nil {
		return 0, fmt.Errorf("indexer: persist chunks: %w", err)
	}

	p.logger.Info("indexed products",
		zap.Int("products", len(products)),
		zap.Int("chunks", len(records)),
		zap.String("strategy", strategy.String()),
	)
	return len(records), nil
}

// CombinedText concatenates a product's non-empty text fields in a fixed
// order, joined by newlines.
func CombinedText(p catalog.Product) string {
	parts := make([]string, 0, 4)
	for _, s := range []string{p.Title, p.Category, FormatFeatures(p.Features), p.Description} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

// FormatFeatures renders the open key/value feature structure as stable
// "key: value" text, keys sorted so chunking stays reproducible.
func FormatFeatures(features map[string]any) string {
	if len(features) == 0 {
		return ""
	}
	keys := make([]string, 0, len(features))
	for k := range features {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, features[k]))
	}
	return strings.Join(parts, "; ")
}
