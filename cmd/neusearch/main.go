package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nidhogg/neusearch/internal/api"
	"github.com/nidhogg/neusearch/internal/cache"
	"github.com/nidhogg/neusearch/internal/chat"
	"github.com/nidhogg/neusearch/internal/config"
	"github.com/nidhogg/neusearch/internal/embedding"
	"github.com/nidhogg/neusearch/internal/indexer"
	"github.com/nidhogg/neusearch/internal/provider"
	"github.com/nidhogg/neusearch/internal/scraper"
	"github.com/nidhogg/neusearch/internal/search"
	"github.com/nidhogg/neusearch/internal/store"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	logger.Info("Starting Neusearch...")

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/neusearch.json"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.String("path", cfgPath), zap.Error(err))
	}
	logger.Info("Config loaded", zap.String("path", cfgPath))

	ctx := context.Background()

	db, err := store.New(ctx, cfg.Database.Postgres.DSN, logger)
	if err != nil {
		logger.Fatal("PostgreSQL unavailable", zap.Error(err))
	}
	if err := db.Migrate(ctx, "migrations"); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	var chatCache *cache.Cache
	if cfg.Database.Redis.URL != "" {
		ttl := time.Duration(cfg.Chat.CacheTTLSeconds) * time.Second
		c, cacheErr := cache.New(cfg.Database.Redis.URL, ttl, logger)
		if cacheErr != nil {
			logger.Warn("Redis unavailable, running without response cache", zap.Error(cacheErr))
		} else {
			chatCache = c
		}
	}

	resolver := embedding.NewResolver(embedding.Config{
		Endpoint:       cfg.Embedding.Endpoint,
		Model:          cfg.Embedding.Model,
		APIKey:         cfg.Embedding.APIKey,
		Dimension:      cfg.Embedding.Dimension,
		UseSimple:      cfg.Embedding.UseSimple,
		UsePrecomputed: cfg.Embedding.UsePrecomputed,
	}, logger)

	engine := search.NewEngine(resolver, db, logger)
	pipeline := indexer.NewPipeline(resolver, db, logger)

	registry := scraper.NewRegistry(logger)
	registry.Register(scraper.NewTraya(
		"https://traya.health",
		cfg.Scraper.MaxProducts,
		time.Duration(cfg.Scraper.DelayMS)*time.Millisecond,
		logger,
	))

	llm := provider.NewRouter(logger)
	for _, pc := range cfg.LLM.Providers {
		provCfg := provider.Config{
			ID: pc.ID, Type: pc.Type, Name: pc.Name,
			Endpoint: pc.Endpoint, APIKey: pc.APIKey, Model: pc.Model,
		}
		switch pc.Type {
		case "gemini":
			llm.Register(provider.NewGeminiProvider(provCfg, logger))
		case "openai":
			llm.Register(provider.NewOpenAIProvider(provCfg, logger))
		default:
			logger.Warn("unknown provider type", zap.String("id", pc.ID), zap.String("type", pc.Type))
		}
	}
	if cfg.LLM.Default != "" {
		llm.SetDefault(cfg.LLM.Default)
	}
	if llm.Empty() {
		logger.Warn("no LLM providers configured, chat answers use a canned message")
	}

	chatSvc := chat.NewService(engine, db, llm, chatCache, chat.Config{
		TopK:             cfg.Chat.TopK,
		OffTopicKeywords: cfg.Chat.OffTopicKeywords,
	}, logger)

	handler := api.NewHandler(db, pipeline, registry, chatSvc, cfg.Chunking.IndexMaxChars, logger)

	port := fmt.Sprintf("%d", cfg.Server.Port)
	if port == "0" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("Neusearch listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down Neusearch...")
	srv.Shutdown(context.Background())
	if chatCache != nil {
		chatCache.Close()
	}
	db.Close()
}
