package store

import (
	"context"
	"testing"

	tcpg "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/nidhogg/neusearch/internal/catalog"
	"go.uber.org/zap"
)

// newTestStore spins up a disposable PostgreSQL container, runs migrations
// and returns a ready Store. Skipped under -short or without Docker.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()
	container, err := tcpg.Run(ctx, "postgres:16-alpine",
		tcpg.WithDatabase("neusearch_test"),
		tcpg.WithUsername("test"),
		tcpg.WithPassword("test"),
		tcpg.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	t.Cleanup(func() { container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("pg connection string: %v", err)
	}

	s, err := New(ctx, dsn, zap.NewNop())
	if err != nil {
		t.Fatalf("connect store: %v", err)
	}
	t.Cleanup(s.Close)

	if err := s.Migrate(ctx, "../../migrations"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func TestProductLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateProduct(ctx, catalog.Product{
		Title:       "Hair Growth Oil",
		Price:       "₹499",
		Description: "Reduces hair fall and nourishes scalp",
		Features:    map[string]any{"volume": "100ml"},
		Category:    "hair care",
		SourceURL:   "https://example.com/products/hair-growth-oil",
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	// Same source_url must dedupe to the same row.
	dup, err := s.CreateProduct(ctx, catalog.Product{
		Title:     "Hair Growth Oil (again)",
		SourceURL: "https://example.com/products/hair-growth-oil",
	})
	if err != nil {
		t.Fatalf("create duplicate: %v", err)
	}
	if dup != id {
		t.Errorf("duplicate source_url created new row: %s vs %s", dup, id)
	}

	p, err := s.GetProduct(ctx, id)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if p.Title != "Hair Growth Oil" {
		t.Errorf("title = %q", p.Title)
	}
	if p.Features["volume"] != "100ml" {
		t.Errorf("features not round-tripped: %+v", p.Features)
	}

	count, err := s.CountProducts(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	list, err := s.ListProducts(ctx, 0, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != id {
		t.Errorf("list = %+v", list)
	}

	if _, err := s.GetProduct(ctx, "00000000-0000-0000-0000-000000000000"); err != ErrNotFound {
		t.Errorf("missing product: got %v, want ErrNotFound", err)
	}
}

func TestChunksInsertListAndCascade(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateProduct(ctx, catalog.Product{
		Title:     "Bamboo Pillow",
		SourceURL: "https://example.com/products/bamboo-pillow",
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	chunks := []catalog.Chunk{
		{
			ProductID: id,
			Text:      "Bamboo Pillow\nImproves sleep quality",
			Embedding: []float32{0.1, 0.2, 0.3},
			Strategy:  "semantic",
			Meta:      catalog.ChunkMeta{ProductID: id, Title: "Bamboo Pillow"},
		},
		{
			ProductID: id,
			Text:      "second window",
			Strategy:  "semantic",
			Meta:      catalog.ChunkMeta{ProductID: id, Title: "Bamboo Pillow"},
		},
	}
	if err := s.InsertChunks(ctx, chunks); err != nil {
		t.Fatalf("insert chunks: %v", err)
	}

	got, err := s.ListAllChunks(ctx)
	if err != nil {
		t.Fatalf("list chunks: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d chunks, want 2", len(got))
	}
	if got[0].Text != chunks[0].Text {
		t.Errorf("insertion order not preserved: first = %q", got[0].Text)
	}
	if len(got[0].Embedding) != 3 || got[0].Embedding[2] != float32(0.3) {
		t.Errorf("embedding not round-tripped: %v", got[0].Embedding)
	}
	if got[1].Embedding != nil {
		t.Errorf("absent embedding should stay nil, got %v", got[1].Embedding)
	}
	if got[0].Meta.Title != "Bamboo Pillow" {
		t.Errorf("meta not round-tripped: %+v", got[0].Meta)
	}
	if got[0].Strategy != "semantic" {
		t.Errorf("strategy tag not round-tripped: %q", got[0].Strategy)
	}

	// Deleting the product cascades to its chunks.
	if err := s.DeleteProduct(ctx, id); err != nil {
		t.Fatalf("delete product: %v", err)
	}
	n, err := s.CountChunks(ctx)
	if err != nil {
		t.Fatalf("count chunks: %v", err)
	}
	if n != 0 {
		t.Errorf("chunks survived product deletion: %d left", n)
	}
}

func TestInsertChunksEmptyBatch(t *testing.T) {
	s := newTestStore(t)
	if err := s.InsertChunks(context.Background(), nil); err != nil {
		t.Errorf("empty batch must be a no-op, got %v", err)
	}
}
