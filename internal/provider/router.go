package provider

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Router manages the configured LLM providers and routes generation
// requests, trying the default provider first and the rest as fallbacks.
type Router struct {
	providers map[string]Provider
	order     []string
	defaults  string
	mu        sync.RWMutex
	logger    *zap.Logger
}

// NewRouter creates a provider router.
func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		providers: make(map[string]Provider),
		logger:    logger,
	}
}

// Register adds a provider. The first registered provider becomes the
// default.
func (r *Router) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[p.ID()]; !exists {
		r.order = append(r.order, p.ID())
	}
	r.providers[p.ID()] = p
	if r.defaults == "" {
		r.defaults = p.ID()
	}
	r.logger.Info("registered provider", zap.String("id", p.ID()), zap.String("name", p.Name()))
}

// SetDefault sets the default provider.
func (r *Router) SetDefault(providerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaults = providerID
}

// Empty reports whether no provider is registered.
func (r *Router) Empty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers) == 0
}

// Generate routes a request through the default provider, falling back to
// the remaining providers in registration order.
func (r *Router) Generate(ctx context.Context, req *GenerateRequest) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	primary, ok := r.providers[r.defaults]
	if !ok {
		return "", fmt.Errorf("no provider available")
	}

	out, err := primary.Generate(ctx, req)
	if err == nil {
		return out, nil
	}
	r.logger.Warn("primary provider failed, trying fallbacks",
		zap.String("provider", primary.ID()), zap.Error(err))

	for _, id := range r.order {
		if id == primary.ID() {
			continue
		}
		out, err = r.providers[id].Generate(ctx, req)
		if err == nil {
			return out, nil
		}
		r.logger.Warn("fallback provider failed", zap.String("provider", id), zap.Error(err))
	}

	return "", fmt.Errorf("all providers failed: %w", err)
}
