// Package api exposes the product-discovery backend over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nidhogg/neusearch/internal/catalog"
	"github.com/nidhogg/neusearch/internal/chat"
	"github.com/nidhogg/neusearch/internal/store"
	"go.uber.org/zap"
)

// indexLimit caps how many products one /api/index call processes.
const indexLimit = 1000

// ProductStore is the persistence surface the handlers need.
type ProductStore interface {
	CreateProduct(ctx context.Context, p catalog.Product) (string, error)
	GetProduct(ctx context.Context, id string) (*catalog.Product, error)
	ListProducts(ctx context.Context, offset, limit int) ([]catalog.Product, error)
}

// Indexer runs the chunk-and-embed pipeline over a product batch.
type Indexer interface {
	Index(ctx context.Context, products []catalog.Product, maxChars int) (int, error)
}

// ScrapeRunner dispatches a scrape by site name.
type ScrapeRunner interface {
	Scrape(ctx context.Context, site string) ([]catalog.Product, error)
}

// Chatter answers a user message with recommendations.
type Chatter interface {
	Respond(ctx context.Context, message string) (*chat.Response, error)
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	products      ProductStore
	indexer       Indexer
	scrapers      ScrapeRunner
	chat          Chatter
	indexMaxChars int
	logger        *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(products ProductStore, indexer Indexer, scrapers ScrapeRunner, chatter Chatter, indexMaxChars int, logger *zap.Logger) *Handler {
	return &Handler{
		products:      products,
		indexer:       indexer,
		scrapers:      scrapers,
		chat:          chatter,
		indexMaxChars: indexMaxChars,
		logger:        logger,
	}
}

// Router builds the chi router with all routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.healthCheck)
		r.Post("/scrape", h.runScrape)
		r.Get("/products", h.listProducts)
		r.Get("/products/{id}", h.getProduct)
		r.Post("/index", h.runIndex)
		r.Post("/chat", h.postChat)
	})

	return r
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) runScrape(w http.ResponseWriter, r *http.Request) {
	site := r.URL.Query().Get("site")
	if site == "" {
		site = "traya"
	}

	products, err := h.scrapers.Scrape(r.Context(), site)
	if err != nil {
		h.logger.Error("scrape failed", zap.String("site", site), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	inserted := 0
	for _, p := range products {
		if _, err := h.products.CreateProduct(r.Context(), p); err != nil {
			h.logger.Warn("skipping product", zap.String("source", p.SourceURL), zap.Error(err))
			continue
		}
		inserted++
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"inserted":  inserted,
		"attempted": len(products),
	})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 100)

	products, err := h.products.ListProducts(r.Context(), skip, limit)
	if err != nil {
		h.logger.Error("list products failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if products == nil {
		products = []catalog.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.products.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Product not found"})
			return
		}
		h.logger.Error("get product failed", zap.String("id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) runIndex(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListProducts(r.Context(), 0, indexLimit)
	if err != nil {
		h.logger.Error("load products for indexing failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	count, err := h.indexer.Index(r.Context(), products, h.indexMaxChars)
	if err != nil {
		h.logger.Error("indexing failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"chunks": count})
}

type chatRequest struct {
	Message string `json:"message"`
}

func (h *Handler) postChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message is required"})
		return
	}

	resp, err := h.chat.Respond(r.Context(), req.Message)
	if err != nil {
		h.logger.Error("chat failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
