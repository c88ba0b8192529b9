// Package scraper collects product listings from e-commerce sites.
package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/nidhogg/neusearch/internal/catalog"
	"go.uber.org/zap"
)

// Scraper extracts product records from one site.
type Scraper interface {
	Site() string
	Scrape(ctx context.Context) ([]catalog.Product, error)
}

// Registry dispatches scrape requests by site name. Unknown sites fall back
// to a small set of sample products so development works without network
// access to any real store.
type Registry struct {
	scrapers map[string]Scraper
	logger   *zap.Logger
}

// NewRegistry creates an empty scraper registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{scrapers: make(map[string]Scraper), logger: logger}
}

// Register adds a scraper under its site name.
func (r *Registry) Register(s Scraper) {
	r.scrapers[strings.ToLower(s.Site())] = s
	r.logger.Info("registered scraper", zap.String("site", s.Site()))
}

// Scrape runs the scraper registered for site. Site names match loosely:
// "traya" and "traya.health" both resolve to the traya scraper.
func (r *Registry) Scrape(ctx context.Context, site string) ([]catalog.Product, error) {
	site = strings.ToLower(site)
	for name, s := range r.scrapers {
		if site == name || strings.HasPrefix(site, name+".") {
			products, err := s.Scrape(ctx)
			if err != nil {
				return nil, fmt.Errorf("scrape %s: %w", name, err)
			}
			return products, nil
		}
	}

	r.logger.Warn("no scraper for site, returning sample products", zap.String("site", site))
	return sampleProducts(site), nil
}

// sampleProducts is the development fallback: five fake items shaped like
// real listings.
func sampleProducts(site string) []catalog.Product {
	products := make([]catalog.Product, 0, 5)
	for i := 1; i <= 5; i++ {
		products = append(products, catalog.Product{
			Title:       fmt.Sprintf("Sample Product %d (%s)", i, site),
			Price:       "N/A",
			Description: fmt.Sprintf("This is a sample description for product %d scraped from %s.", i, site),
			Features:    map[string]any{"color": "black", "size": "M"},
			ImageURL:    "https://via.placeholder.com/300",
			Category:    "sample",
			SourceURL:   fmt.Sprintf("https://%s/product/%d", site, i),
		})
	}
	return products
}
