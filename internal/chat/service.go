// Package chat composes product recommendations from retrieval results.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/nidhogg/neusearch/internal/cache"
	"github.com/nidhogg/neusearch/internal/catalog"
	"github.com/nidhogg/neusearch/internal/provider"
	"github.com/nidhogg/neusearch/internal/search"
	"go.uber.org/zap"
)

const (
	defaultTopK        = 10
	maxRecommendations = 3
	maxReasonChars     = 200
	maxPromptSnippets  = 6

	emptyMessage    = "I couldn't find relevant products."
	fallbackMessage = "I found some products you might like based on your query."
	offTopicMessage = "That's outside what I can help with. Try asking about the products in our catalog."
)

// SearchEngine answers free-text queries with ranked chunk hits.
type SearchEngine interface {
	Search(ctx context.Context, query string, topK int) ([]search.Result, error)
}

// ProductReader resolves product display data.
type ProductReader interface {
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
}

// Generator produces free text from a prompt; provider.Router satisfies it.
type Generator interface {
	Empty() bool
	Generate(ctx context.Context, req *provider.GenerateRequest) (string, error)
}

// Config tunes the recommendation flow.
type Config struct {
	TopK             int      `json:"top_k"`
	OffTopicKeywords []string `json:"off_topic_keywords"`
}

// Recommendation is one recommended product with the chunk snippet that
// earned it.
type Recommendation struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	Score     float64 `json:"score"`
	Reason    string  `json:"reason"`
}

// Response is the chat endpoint payload.
type Response struct {
	Message         string           `json:"message"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Service aggregates retrieval results into per-product recommendations and
// optionally phrases the answer through an LLM.
type Service struct {
	engine   SearchEngine
	products ProductReader
	llm      Generator
	cache    *cache.Cache
	cfg      Config
	logger   *zap.Logger
}

// NewService creates a chat service. cache may be nil.
func NewService(engine SearchEngine, products ProductReader, llm Generator, c *cache.Cache, cfg Config, logger *zap.Logger) *Service {
	if cfg.TopK <= 0 {
		cfg.TopK = defaultTopK
	}
	return &Service{engine: engine, products: products, llm: llm, cache: c, cfg: cfg, logger: logger}
}

// Respond answers a user message with ranked recommendations.
func (s *Service) Respond(ctx context.Context, message string) (*Response, error) {
	if s.offTopic(message) {
		return &Response{Message: offTopicMessage, Recommendations: []Recommendation{}}, nil
	}

	if data, ok := s.cache.GetResponse(ctx, message); ok {
		var resp Response
		if err := json.Unmarshal(data, &resp); err == nil {
			return &resp, nil
		}
		s.logger.Warn("dropping malformed cache entry", zap.String("query", message))
	}

	results, err := s.engine.Search(ctx, message, s.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("chat: search: %w", err)
	}
	if len(results) == 0 {
		return &Response{Message: emptyMessage, Recommendations: []Recommendation{}}, nil
	}

	recs := s.recommend(ctx, results)
	resp := &Response{
		Message:         s.compose(ctx, message, results),
		Recommendations: recs,
	}

	if data, err := json.Marshal(resp); err == nil {
		s.cache.SetResponse(ctx, message, data)
	}
	return resp, nil
}

// recommend aggregates chunk scores per product, ranks products and attaches
// display titles. First-seen order breaks score ties so output is stable.
func (s *Service) recommend(ctx context.Context, results []search.Result) []Recommendation {
	type agg struct {
		productID string
		score     float64
		firstHit  string
	}
	byProduct := make(map[string]*agg)
	var order []*agg
	for _, r := range results {
		a, ok := byProduct[r.ProductID]
		if !ok {
			a = &agg{productID: r.ProductID, firstHit: r.Snippet}
			byProduct[r.ProductID] = a
			order = append(order, a)
		}
		a.score += r.Score
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].score > order[j].score
	})
	if len(order) > maxRecommendations {
		order = order[:maxRecommendations]
	}

	recs := make([]Recommendation, 0, len(order))
	for _, a := range order {
		title := fmt.Sprintf("Product %s", a.productID)
		if p, err := s.products.GetProduct(ctx, a.productID); err == nil {
			title = p.Title
		} else {
			s.logger.Warn("product lookup failed", zap.String("product", a.productID), zap.Error(err))
		}
		recs = append(recs, Recommendation{
			ProductID: a.productID,
			Title:     title,
			Score:     a.score,
			Reason:    truncate(a.firstHit, maxReasonChars),
		})
	}
	return recs
}

// compose asks the LLM for a conversational answer built from the retrieved
// snippets, falling back to a templated message when no provider is
// configured or the call fails.
func (s *Service) compose(ctx context.Context, message string, results []search.Result) string {
	if s.llm == nil || s.llm.Empty() {
		return fallbackMessage
	}

	snippets := make([]string, 0, maxPromptSnippets)
	for _, r := range results {
		if len(snippets) == maxPromptSnippets {
			break
		}
		snippets = append(snippets, r.Snippet)
	}

	var b strings.Builder
	b.WriteString("You are a product recommendation assistant. Use the context and user's query to recommend up to 3 products with short explanations.\n")
	b.WriteString("Context snippets:\n")
	b.WriteString(strings.Join(snippets, "\n---\n"))
	b.WriteString("\nUser query: ")
	b.WriteString(message)
	b.WriteString("\n")

	out, err := s.llm.Generate(ctx, &provider.GenerateRequest{
		Prompt:      b.String(),
		MaxTokens:   1024,
		Temperature: 0.7,
	})
	if err != nil {
		s.logger.Warn("llm generation failed, using templated message", zap.Error(err))
		return fallbackMessage
	}
	return out
}

func (s *Service) offTopic(message string) bool {
	if len(s.cfg.OffTopicKeywords) == 0 {
		return false
	}
	tokens := make(map[string]bool)
	for _, f := range strings.Fields(strings.ToLower(message)) {
		tokens[f] = true
	}
	for _, kw := range s.cfg.OffTopicKeywords {
		if tokens[strings.ToLower(kw)] {
			return true
		}
	}
	return false
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
