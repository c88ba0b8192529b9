package embedding

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Strategy identifies how embeddings are produced for the process lifetime.
type Strategy int

const (
	// StrategySemantic encodes text with the sentence-embedding model.
	StrategySemantic Strategy = iota
	// StrategyPrecomputed is the placeholder mode used when real embeddings
	// are expected to already exist in storage, or when the semantic model
	// could not be reached. Queries rely on the enhanced lexical scorer.
	StrategyPrecomputed
	// StrategySimple is the explicitly configured placeholder mode backed by
	// the simple lexical scorer. Vector output is identical to
	// StrategyPrecomputed; it exists as its own mode for operational clarity.
	StrategySimple
)

func (s Strategy) String() string {
	switch s {
	case StrategySemantic:
		return "semantic"
	case StrategyPrecomputed:
		return "precomputed"
	case StrategySimple:
		return "simple"
	default:
		return "unknown"
	}
}

// Lexical reports whether query-time relevance comes from the lexical
// scorers rather than cosine similarity.
func (s Strategy) Lexical() bool {
	return s != StrategySemantic
}

// Resolver picks the embedding strategy exactly once per process and caches
// the result. Explicit configuration flags win; otherwise the semantic model
// server is probed and any failure degrades to the precomputed placeholder
// with a warning, never an error. Concurrent first callers are serialized by
// sync.Once so the probe happens a single time.
type Resolver struct {
	cfg    Config
	logger *zap.Logger

	once     sync.Once
	strategy Strategy
	provider Provider
}

// NewResolver creates a Resolver. Resolution is deferred to the first
// Resolve call.
func NewResolver(cfg Config, logger *zap.Logger) *Resolver {
	return &Resolver{cfg: cfg, logger: logger}
}

// Resolve returns the active strategy and its provider, resolving them on
// first use. A mid-process strategy flip is not supported: every later call
// returns the cached pair.
func (r *Resolver) Resolve(ctx context.Context) (Strategy, Provider) {
	r.once.Do(func() {
		r.strategy, r.provider = r.resolve(ctx)
		r.logger.Info("embedding strategy resolved",
			zap.String("strategy", r.strategy.String()),
			zap.Int("dimension", r.provider.Dimension()),
		)
	})
	return r.strategy, r.provider
}

func (r *Resolver) resolve(ctx context.Context) (Strategy, Provider) {
	if r.cfg.UseSimple {
		return StrategySimple, NewPlaceholderProvider(StrategySimple, r.cfg)
	}
	if r.cfg.UsePrecomputed {
		return StrategyPrecomputed, NewPlaceholderProvider(StrategyPrecomputed, r.cfg)
	}

	semantic := NewSemanticProvider(r.cfg)
	if _, err := semantic.Embed(ctx, []string{"ping"}); err != nil {
		r.logger.Warn("embedding model unavailable, falling back to placeholder embeddings",
			zap.String("model", r.cfg.model()),
			zap.Error(err),
		)
		return StrategyPrecomputed, NewPlaceholderProvider(StrategyPrecomputed, r.cfg)
	}
	return StrategySemantic, semantic
}
