package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"go.uber.org/zap"
)

func newEmbedServer(t *testing.T, dim int, calls *int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/embeddings", func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			*calls++
		}
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp := embedResponse{Data: make([]embedData, len(req.Input))}
		for i := range req.Input {
			vec := make([]float32, dim)
			vec[i%dim] = 1
			resp.Data[i] = embedData{Embedding: vec}
		}
		json.NewEncoder(w).Encode(resp)
	})
	return httptest.NewServer(mux)
}

func TestSemanticProviderEmbed(t *testing.T) {
	srv := newEmbedServer(t, 3, nil)
	defer srv.Close()

	p := NewSemanticProvider(Config{Endpoint: srv.URL, Model: "test-model"})

	vectors, err := p.Embed(context.Background(), []string{"hello", "world"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("got %d vectors, want 2", len(vectors))
	}
	if len(vectors[0]) != 3 {
		t.Fatalf("got dimension %d, want 3", len(vectors[0]))
	}
	if p.Dimension() != 3 {
		t.Errorf("got dimension %d, want 3", p.Dimension())
	}
}

func TestSemanticProviderEmbed_Empty(t *testing.T) {
	p := NewSemanticProvider(Config{Endpoint: "http://unused"})

	vectors, err := p.Embed(context.Background(), []string{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vectors != nil {
		t.Errorf("expected nil for empty input, got %v", vectors)
	}
}

func TestSemanticProviderDimension_Default(t *testing.T) {
	p := NewSemanticProvider(Config{Endpoint: "http://unused"})
	if d := p.Dimension(); d != DefaultDimension {
		t.Errorf("got dimension %d, want default %d", d, DefaultDimension)
	}
}

func TestPlaceholderProviderZeroVectors(t *testing.T) {
	p := NewPlaceholderProvider(StrategySimple, Config{})

	vectors, err := p.Embed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vectors) != 3 {
		t.Fatalf("got %d vectors, want 3", len(vectors))
	}
	for i, v := range vectors {
		if len(v) != DefaultDimension {
			t.Fatalf("vector %d has dimension %d, want %d", i, len(v), DefaultDimension)
		}
		for _, f := range v {
			if f != 0 {
				t.Fatalf("vector %d is not zero-filled", i)
			}
		}
	}
}

func TestResolverExplicitFlagsWin(t *testing.T) {
	// The simple flag takes priority even when a working model server exists.
	srv := newEmbedServer(t, 4, nil)
	defer srv.Close()

	r := NewResolver(Config{Endpoint: srv.URL, UseSimple: true}, zap.NewNop())
	strategy, provider := r.Resolve(context.Background())
	if strategy != StrategySimple {
		t.Errorf("got strategy %v, want simple", strategy)
	}
	if _, ok := provider.(*PlaceholderProvider); !ok {
		t.Errorf("got provider %T, want placeholder", provider)
	}

	r = NewResolver(Config{Endpoint: srv.URL, UsePrecomputed: true}, zap.NewNop())
	strategy, _ = r.Resolve(context.Background())
	if strategy != StrategyPrecomputed {
		t.Errorf("got strategy %v, want precomputed", strategy)
	}
}

func TestResolverProbesSemantic(t *testing.T) {
	calls := 0
	srv := newEmbedServer(t, 4, &calls)
	defer srv.Close()

	r := NewResolver(Config{Endpoint: srv.URL}, zap.NewNop())
	strategy, provider := r.Resolve(context.Background())
	if strategy != StrategySemantic {
		t.Fatalf("got strategy %v, want semantic", strategy)
	}
	if _, ok := provider.(*SemanticProvider); !ok {
		t.Fatalf("got provider %T, want semantic", provider)
	}
	if calls != 1 {
		t.Errorf("probe sent %d requests, want 1", calls)
	}
}

func TestResolverFallbackOnUnreachableModel(t *testing.T) {
	srv := newEmbedServer(t, 4, nil)
	srv.Close() // unreachable endpoint

	r := NewResolver(Config{Endpoint: srv.URL}, zap.NewNop())
	strategy, provider := r.Resolve(context.Background())
	if strategy != StrategyPrecomputed {
		t.Errorf("got strategy %v, want precomputed fallback", strategy)
	}
	if _, ok := provider.(*PlaceholderProvider); !ok {
		t.Errorf("got provider %T, want placeholder", provider)
	}
}

func TestResolverResolvesOnce(t *testing.T) {
	calls := 0
	srv := newEmbedServer(t, 4, &calls)
	defer srv.Close()

	r := NewResolver(Config{Endpoint: srv.URL}, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Resolve(context.Background())
		}()
	}
	wg.Wait()

	if calls != 1 {
		t.Errorf("concurrent cold start probed %d times, want exactly 1", calls)
	}
}

func TestStrategyString(t *testing.T) {
	cases := map[Strategy]string{
		StrategySemantic:    "semantic",
		StrategyPrecomputed: "precomputed",
		StrategySimple:      "simple",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Errorf("Strategy(%d).String() = %q, want %q", s, got, want)
		}
	}
	if StrategySemantic.Lexical() {
		t.Error("semantic strategy must not be lexical")
	}
	if !StrategySimple.Lexical() || !StrategyPrecomputed.Lexical() {
		t.Error("placeholder strategies must be lexical")
	}
}
