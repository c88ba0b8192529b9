package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/nidhogg/neusearch/internal/catalog"
	"go.uber.org/zap"
)

// Traya scrapes product pages from traya.health. It crawls a few seed pages,
// collects unique links containing "/products/", and extracts product fields
// from each page using common metadata tags as fallbacks. Requests are
// spaced by a delay to stay polite.
type Traya struct {
	baseURL     string
	maxProducts int
	delay       time.Duration
	client      *http.Client
	logger      *zap.Logger
}

// NewTraya creates a traya.health scraper. baseURL overrides the live site,
// which keeps the crawler testable against a local server; pass "" for the
// real domain.
func NewTraya(baseURL string, maxProducts int, delay time.Duration, logger *zap.Logger) *Traya {
	if baseURL == "" {
		baseURL = "https://traya.health"
	}
	if maxProducts <= 0 {
		maxProducts = 100
	}
	return &Traya{
		baseURL:     strings.TrimRight(baseURL, "/"),
		maxProducts: maxProducts,
		delay:       delay,
		client:      &http.Client{Timeout: 15 * time.Second},
		logger:      logger,
	}
}

// Site returns the registry key for this scraper.
func (t *Traya) Site() string { return "traya" }

// Scrape crawls the seed pages and fetches every discovered product page.
func (t *Traya) Scrape(ctx context.Context) ([]catalog.Product, error) {
	seeds := []string{
		t.baseURL + "/",
		t.baseURL + "/collections/all",
		t.baseURL + "/collections",
	}

	base, err := url.Parse(t.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	seen := make(map[string]bool)
	var productURLs []string

	for _, seed := range seeds {
		if len(productURLs) >= t.maxProducts {
			break
		}
		doc, err := t.fetch(ctx, seed)
		if err != nil {
			t.logger.Warn("seed page unavailable", zap.String("url", seed), zap.Error(err))
			continue
		}
		doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			href, _ := sel.Attr("href")
			link := t.resolveProductLink(base, seed, href)
			if link != "" && !seen[link] {
				seen[link] = true
				productURLs = append(productURLs, link)
			}
			return len(productURLs) < t.maxProducts
		})
		t.sleep(ctx)
	}

	var products []catalog.Product
	for _, u := range productURLs {
		p, err := t.fetchProduct(ctx, u)
		if err != nil {
			t.logger.Warn("product page failed", zap.String("url", u), zap.Error(err))
			continue
		}
		if p.Title != "" {
			products = append(products, p)
		}
		if len(products) >= t.maxProducts {
			break
		}
		t.sleep(ctx)
	}
	return products, nil
}

// resolveProductLink returns the absolute URL when href points at a product
// page on this site, or "".
func (t *Traya) resolveProductLink(base *url.URL, pageURL, href string) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(ref)
	if abs.Host != base.Host {
		return ""
	}
	if !strings.Contains(abs.Path, "/products/") {
		return ""
	}
	abs.Fragment = ""
	return abs.String()
}

// fetchProduct extracts the product fields from one page, preferring
// structured metadata and falling back to common storefront selectors.
func (t *Traya) fetchProduct(ctx context.Context, pageURL string) (catalog.Product, error) {
	doc, err := t.fetch(ctx, pageURL)
	if err != nil {
		return catalog.Product{}, err
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && og != "" {
		title = strings.TrimSpace(og)
	}
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		title = h1
	}

	price, _ := doc.Find(`meta[property="product:price:amount"]`).Attr("content")
	if el := doc.Find(".price, .product-price, .price--main, .product__price").First(); el.Length() > 0 {
		price = strings.TrimSpace(el.Text())
	}

	description, _ := doc.Find(`meta[name="description"]`).Attr("content")
	description = strings.TrimSpace(description)
	if description == "" {
		description = strings.TrimSpace(
			doc.Find(".product-description, .description, #description, .product__description").First().Text())
	}

	features := extractFeatures(doc)

	imageURL, _ := doc.Find(`meta[property="og:image"]`).Attr("content")
	if imageURL == "" {
		if src, ok := doc.Find(`img.product__image, img.featured-image, img[src*="/products/"]`).First().Attr("src"); ok {
			if ref, err := url.Parse(src); err == nil {
				if page, err := url.Parse(pageURL); err == nil {
					imageURL = page.ResolveReference(ref).String()
				}
			}
		}
	}

	var category string
	doc.Find(".breadcrumb a, .breadcrumbs a").Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			category = text // keep the last non-empty crumb
		}
	})

	return catalog.Product{
		Title:       title,
		Price:       price,
		Description: description,
		Features:    features,
		ImageURL:    imageURL,
		Category:    category,
		SourceURL:   pageURL,
	}, nil
}

// extractFeatures gathers "key: value" list items from feature sections;
// unlabelled items accumulate under a shared "features" key.
func extractFeatures(doc *goquery.Document) map[string]any {
	features := make(map[string]any)
	var plain []string
	doc.Find(".product-features, .features, .product-details, .product-specs").
		Find("li, p").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return
		}
		if k, v, ok := strings.Cut(text, ":"); ok {
			features[strings.TrimSpace(k)] = strings.TrimSpace(v)
		} else {
			plain = append(plain, text)
		}
	})
	if len(plain) > 0 {
		features["features"] = plain
	}
	if len(features) == 0 {
		return nil
	}
	return features
}

func (t *Traya) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}
	return doc, nil
}

func (t *Traya) sleep(ctx context.Context) {
	if t.delay <= 0 {
		return
	}
	select {
	case <-time.After(t.delay):
	case <-ctx.Done():
	}
}
