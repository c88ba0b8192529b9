package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
)

// Config is the top-level configuration structure.
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Embedding EmbeddingConfig `json:"embedding"`
	Chunking  ChunkingConfig  `json:"chunking"`
	LLM       LLMConfig       `json:"llm"`
	Scraper   ScraperConfig   `json:"scraper"`
	Chat      ChatConfig      `json:"chat"`
}

type ServerConfig struct {
	Port     int    `json:"port"`
	LogLevel string `json:"log_level"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `json:"postgres"`
	Redis    RedisConfig    `json:"redis"`
}

type PostgresConfig struct {
	DSN string `json:"dsn"`
}

type RedisConfig struct {
	URL string `json:"url"`
}

type EmbeddingConfig struct {
	Endpoint       string `json:"endpoint"`
	Model          string `json:"model"`
	APIKey         string `json:"api_key"`
	Dimension      int    `json:"dimension"`
	UseSimple      bool   `json:"use_simple_embeddings"`
	UsePrecomputed bool   `json:"use_precomputed_embeddings"`
}

// ChunkingConfig carries the two chunk-window defaults: the wider one used
// by the indexing pipeline and the general-purpose one.
type ChunkingConfig struct {
	IndexMaxChars   int `json:"index_max_chars"`
	DefaultMaxChars int `json:"default_max_chars"`
}

type LLMConfig struct {
	Providers []LLMProviderConfig `json:"providers"`
	Default   string              `json:"default"`
}

type LLMProviderConfig struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
	APIKey   string `json:"api_key"`
	Model    string `json:"model"`
}

type ScraperConfig struct {
	MaxProducts int `json:"max_products"`
	DelayMS     int `json:"delay_ms"`
}

type ChatConfig struct {
	TopK             int      `json:"top_k"`
	OffTopicKeywords []string `json:"off_topic_keywords"`
	CacheTTLSeconds  int      `json:"cache_ttl_seconds"`
}

// envVarRe matches ${VAR} and ${VAR:default} patterns.
var envVarRe = regexp.MustCompile(`\$\{(\w+)(?::([^}]*))?\}`)

// Load reads a JSON config file and substitutes environment variable references.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	// Substitute ${VAR} and ${VAR:default} with environment values.
	resolved := envVarRe.ReplaceAllStringFunc(string(data), func(match string) string {
		parts := envVarRe.FindStringSubmatch(match)
		name := parts[1]
		defaultVal := parts[2]
		if v := os.Getenv(name); v != "" {
			return v
		}
		return defaultVal
	})

	var cfg Config
	if err := json.Unmarshal([]byte(resolved), &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Chunking.IndexMaxChars == 0 {
		c.Chunking.IndexMaxChars = 700
	}
	if c.Chunking.DefaultMaxChars == 0 {
		c.Chunking.DefaultMaxChars = 500
	}
	if c.Scraper.MaxProducts == 0 {
		c.Scraper.MaxProducts = 100
	}
	if c.Scraper.DelayMS == 0 {
		c.Scraper.DelayMS = 1000
	}
}
