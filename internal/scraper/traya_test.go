package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

const productPage = `<!doctype html>
<html><head>
<title>Fallback Title</title>
<meta property="og:title" content="Hair Growth Oil">
<meta property="product:price:amount" content="499">
<meta name="description" content="Reduces hair fall and nourishes scalp">
<meta property="og:image" content="https://cdn.example.com/oil.jpg">
</head><body>
<h1>Hair Growth Oil</h1>
<nav class="breadcrumb"><a href="/">Home</a><a href="/collections/hair">Hair Care</a></nav>
<div class="product-features">
<ul>
<li>Volume: 100ml</li>
<li>Type: Oil</li>
<li>Dermatologically tested</li>
</ul>
</div>
</body></html>`

func newFakeSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<html><body>
			<a href="/products/hair-growth-oil">Oil</a>
			<a href="/products/hair-growth-oil">Oil again</a>
			<a href="/products/shampoo">Shampoo</a>
			<a href="/pages/about">About</a>
			<a href="https://other.example.com/products/elsewhere">Elsewhere</a>
		</body></html>`)
	})
	mux.HandleFunc("/collections/all", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><a href="/products/shampoo">Shampoo</a></body></html>`)
	})
	mux.HandleFunc("/collections", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body></body></html>`)
	})
	mux.HandleFunc("/products/hair-growth-oil", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, productPage)
	})
	mux.HandleFunc("/products/shampoo", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Anti Dandruff Shampoo</title></head><body></body></html>`)
	})
	return httptest.NewServer(mux)
}

func TestTrayaScrape(t *testing.T) {
	srv := newFakeSite(t)
	defer srv.Close()

	s := NewTraya(srv.URL, 10, 0, zap.NewNop())
	products, err := s.Scrape(context.Background())
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("got %d products, want 2 (deduped, same-host only)", len(products))
	}

	oil := products[0]
	if oil.Title != "Hair Growth Oil" {
		t.Errorf("title = %q, want h1 to win over metadata", oil.Title)
	}
	if oil.Price != "499" {
		t.Errorf("price = %q", oil.Price)
	}
	if oil.Description != "Reduces hair fall and nourishes scalp" {
		t.Errorf("description = %q", oil.Description)
	}
	if oil.ImageURL != "https://cdn.example.com/oil.jpg" {
		t.Errorf("image = %q", oil.ImageURL)
	}
	if oil.Category != "Hair Care" {
		t.Errorf("category = %q, want last breadcrumb", oil.Category)
	}
	if !strings.HasPrefix(oil.SourceURL, srv.URL) {
		t.Errorf("source url = %q", oil.SourceURL)
	}
	if oil.Features["Volume"] != "100ml" || oil.Features["Type"] != "Oil" {
		t.Errorf("features = %+v", oil.Features)
	}
	if plain, ok := oil.Features["features"].([]string); !ok || len(plain) != 1 {
		t.Errorf("unlabelled features = %+v", oil.Features["features"])
	}

	// Title-only page still yields a product via the <title> fallback.
	if products[1].Title != "Anti Dandruff Shampoo" {
		t.Errorf("shampoo title = %q", products[1].Title)
	}
}

func TestTrayaMaxProducts(t *testing.T) {
	srv := newFakeSite(t)
	defer srv.Close()

	s := NewTraya(srv.URL, 1, 0, zap.NewNop())
	products, err := s.Scrape(context.Background())
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	if len(products) != 1 {
		t.Errorf("got %d products, want cap of 1", len(products))
	}
}

func TestRegistryDispatchAndFallback(t *testing.T) {
	srv := newFakeSite(t)
	defer srv.Close()

	r := NewRegistry(zap.NewNop())
	r.Register(NewTraya(srv.URL, 10, 0, zap.NewNop()))

	for _, site := range []string{"traya", "TRAYA", "traya.health"} {
		products, err := r.Scrape(context.Background(), site)
		if err != nil {
			t.Fatalf("scrape %q: %v", site, err)
		}
		if len(products) == 0 {
			t.Errorf("scrape %q returned nothing", site)
		}
	}

	// Unknown sites get the sample fallback.
	products, err := r.Scrape(context.Background(), "furlenco")
	if err != nil {
		t.Fatalf("fallback scrape: %v", err)
	}
	if len(products) != 5 {
		t.Fatalf("got %d sample products, want 5", len(products))
	}
	if !strings.Contains(products[0].Title, "furlenco") {
		t.Errorf("sample title = %q", products[0].Title)
	}
}
