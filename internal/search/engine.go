// Package search implements k-nearest-neighbor retrieval over stored product
// chunks.
package search

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/nidhogg/neusearch/internal/catalog"
	"github.com/nidhogg/neusearch/internal/embedding"
	"github.com/nidhogg/neusearch/internal/similarity"
	"go.uber.org/zap"
)

// ChunkSource reads all persisted chunks. The engine treats it as
// synchronous and authoritative.
type ChunkSource interface {
	ListAllChunks(ctx context.Context) ([]catalog.Chunk, error)
}

// Result is one ranked hit: the owning product, its relevance score, and the
// raw chunk text used verbatim as a display snippet.
type Result struct {
	ProductID string  `json:"product_id"`
	Score     float64 `json:"score"`
	Snippet   string  `json:"snippet"`
}

// Engine answers free-text queries with ranked (product, score, snippet)
// results. Every query is a brute-force O(N) scan over all stored chunks,
// sized for the hundreds-to-low-thousands chunk range this system targets.
type Engine struct {
	resolver *embedding.Resolver
	chunks   ChunkSource
	logger   *zap.Logger
}

// NewEngine creates a search engine.
func NewEngine(resolver *embedding.Resolver, chunks ChunkSource, logger *zap.Logger) *Engine {
	return &Engine{resolver: resolver, chunks: chunks, logger: logger}
}

// Search returns at most topK results sorted by descending score. Exact
// score ties keep storage order, so identical queries over unchanged data
// produce identical output. An empty store or a query that matches nothing
// yields an empty result, not an error.
func (e *Engine) Search(ctx context.Context, query string, topK int) ([]Result, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("search: top k must be positive, got %d", topK)
	}

	chunks, err := e.chunks.ListAllChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("search: load chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	strategy, provider := e.resolver.Resolve(ctx)
	if strategy.Lexical() {
		return e.searchLexical(strategy, query, chunks, topK), nil
	}
	return e.searchSemantic(ctx, provider, strategy, query, chunks, topK)
}

func (e *Engine) searchSemantic(ctx context.Context, provider embedding.Provider, strategy embedding.Strategy, query string, chunks []catalog.Chunk, topK int) ([]Result, error) {
	vectors, err := provider.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("search: embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, nil
	}
	qvec := vectors[0]

	var skippedStrategy, skippedDim int
	results := make([]Result, 0, len(chunks))
	for _, c := range chunks {
		// Chunks without embeddings are skipped outright, not scored as zero.
		if len(c.Embedding) == 0 {
			continue
		}
		if c.Strategy != "" && c.Strategy != strategy.String() {
			skippedStrategy++
			continue
		}
		if len(c.Embedding) != len(qvec) {
			skippedDim++
			continue
		}
		results = append(results, Result{
			ProductID: c.ProductID,
			Score:     cosine(qvec, c.Embedding),
			Snippet:   c.Text,
		})
	}

	if skippedStrategy > 0 || skippedDim > 0 {
		e.logger.Warn("skipped chunks with mismatched embeddings",
			zap.String("active_strategy", strategy.String()),
			zap.Int("strategy_mismatch", skippedStrategy),
			zap.Int("dimension_mismatch", skippedDim),
		)
	}

	return rank(results, topK), nil
}

func (e *Engine) searchLexical(strategy embedding.Strategy, query string, chunks []catalog.Chunk, topK int) []Result {
	score := similarity.Enhanced
	if strategy == embedding.StrategySimple {
		score = similarity.Simple
	}

	results := scoreChunks(chunks, query, score, func(c catalog.Chunk) string { return c.Text })

	// Enhanced mode only: when chunk text matched nothing at all, retry
	// against the stored product titles so a pure vocabulary mismatch does
	// not return an empty set.
	if len(results) == 0 && strategy == embedding.StrategyPrecomputed {
		results = scoreChunks(chunks, query, score, func(c catalog.Chunk) string { return c.Meta.Title })
	}

	return rank(results, topK)
}

func scoreChunks(chunks []catalog.Chunk, query string, score func(q, t string) float64, text func(catalog.Chunk) string) []Result {
	var results []Result
	for _, c := range chunks {
		s := score(query, text(c))
		if s <= 0 {
			continue
		}
		results = append(results, Result{
			ProductID: c.ProductID,
			Score:     s,
			Snippet:   c.Text,
		})
	}
	return results
}

// rank sorts descending by score with a stable sort so storage order breaks
// exact ties, then truncates to topK.
func rank(results []Result, topK int) []Result {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

// cosine computes the cosine similarity of two vectors: the dot product of
// their L2-normalized forms. Returns 0 when either vector has zero norm.
func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
