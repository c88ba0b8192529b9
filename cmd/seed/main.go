// Command seed bootstraps an empty database: it scrapes the default site,
// stores the products and runs the chunk-and-embed pipeline once.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/nidhogg/neusearch/internal/config"
	"github.com/nidhogg/neusearch/internal/embedding"
	"github.com/nidhogg/neusearch/internal/indexer"
	"github.com/nidhogg/neusearch/internal/scraper"
	"github.com/nidhogg/neusearch/internal/store"
	"go.uber.org/zap"
)

func main() {
	site := flag.String("site", "traya", "site to scrape")
	force := flag.Bool("force", false, "seed even if products already exist")
	flag.Parse()

	_ = godotenv.Load()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/neusearch.json"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.String("path", cfgPath), zap.Error(err))
	}

	ctx := context.Background()

	db, err := store.New(ctx, cfg.Database.Postgres.DSN, logger)
	if err != nil {
		logger.Fatal("PostgreSQL unavailable", zap.Error(err))
	}
	defer db.Close()
	if err := db.Migrate(ctx, "migrations"); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	existing, err := db.CountProducts(ctx)
	if err != nil {
		logger.Fatal("counting products", zap.Error(err))
	}
	if existing > 0 && !*force {
		logger.Info("Database already seeded, nothing to do", zap.Int("products", existing))
		return
	}

	registry := scraper.NewRegistry(logger)
	registry.Register(scraper.NewTraya(
		"https://traya.health",
		cfg.Scraper.MaxProducts,
		time.Duration(cfg.Scraper.DelayMS)*time.Millisecond,
		logger,
	))

	products, err := registry.Scrape(ctx, *site)
	if err != nil {
		logger.Fatal("scrape failed", zap.String("site", *site), zap.Error(err))
	}

	stored := products[:0]
	for _, p := range products {
		id, insErr := db.CreateProduct(ctx, p)
		if insErr != nil {
			logger.Warn("skipping product", zap.String("source", p.SourceURL), zap.Error(insErr))
			continue
		}
		p.ID = id
		stored = append(stored, p)
	}
	logger.Info("Products stored", zap.Int("count", len(stored)))

	resolver := embedding.NewResolver(embedding.Config{
		Endpoint:       cfg.Embedding.Endpoint,
		Model:          cfg.Embedding.Model,
		APIKey:         cfg.Embedding.APIKey,
		Dimension:      cfg.Embedding.Dimension,
		UseSimple:      cfg.Embedding.UseSimple,
		UsePrecomputed: cfg.Embedding.UsePrecomputed,
	}, logger)

	pipeline := indexer.NewPipeline(resolver, db, logger)
	chunks, err := pipeline.Index(ctx, stored, cfg.Chunking.IndexMaxChars)
	if err != nil {
		logger.Fatal("indexing failed", zap.Error(err))
	}
	logger.Info("Seed complete", zap.Int("products", len(stored)), zap.Int("chunks", chunks))
}
