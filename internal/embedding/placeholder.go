package embedding

import "context"

// PlaceholderProvider returns zero-filled vectors of the configured
// dimensionality. It is a structural stand-in, not a content-derived
// embedding: it keeps stored chunks shape-compatible when real embeddings
// either already exist in storage or cannot be produced, and relevance at
// query time comes from the lexical scorers instead.
type PlaceholderProvider struct {
	strategy  Strategy
	dimension int
}

// NewPlaceholderProvider creates a placeholder provider tagged with the
// strategy that selected it.
func NewPlaceholderProvider(strategy Strategy, cfg Config) *PlaceholderProvider {
	return &PlaceholderProvider{strategy: strategy, dimension: cfg.dimension()}
}

// Embed returns one zero vector per input text.
func (p *PlaceholderProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	embeddings := make([][]float32, len(texts))
	for i := range texts {
		embeddings[i] = make([]float32, p.dimension)
	}
	return embeddings, nil
}

// Dimension returns the configured vector dimension.
func (p *PlaceholderProvider) Dimension() int {
	return p.dimension
}

// Strategy reports which placeholder mode selected this provider.
func (p *PlaceholderProvider) Strategy() Strategy {
	return p.strategy
}
