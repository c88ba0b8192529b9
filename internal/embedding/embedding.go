package embedding

import "context"

// Provider generates vector embeddings from text. Output is aligned
// index-for-index with the input texts.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// Default sentence-embedding model served by the model sidecar and its
// vector width.
const (
	DefaultModel     = "all-MiniLM-L6-v2"
	DefaultDimension = 384
)

// Config holds embedding provider configuration.
type Config struct {
	Endpoint       string `json:"endpoint"`
	Model          string `json:"model"`
	APIKey         string `json:"api_key"`
	Dimension      int    `json:"dimension"`
	UseSimple      bool   `json:"use_simple_embeddings"`
	UsePrecomputed bool   `json:"use_precomputed_embeddings"`
}

func (c Config) model() string {
	if c.Model == "" {
		return DefaultModel
	}
	return c.Model
}

func (c Config) dimension() int {
	if c.Dimension <= 0 {
		return DefaultDimension
	}
	return c.Dimension
}
