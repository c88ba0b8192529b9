package catalog

import "time"

// Product is a scraped product listing. Products are created by ingestion
// and treated as immutable afterwards; updates happen by re-scraping.
type Product struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Price       string         `json:"price,omitempty"`
	Description string         `json:"description,omitempty"`
	Features    map[string]any `json:"features,omitempty"`
	ImageURL    string         `json:"image_url,omitempty"`
	Category    string         `json:"category,omitempty"`
	SourceURL   string         `json:"source_url,omitempty"`
	CreatedAt   time.Time      `json:"created_at,omitempty"`
}

// ChunkMeta is a denormalized copy of product fields carried on each chunk
// so search results can be displayed without a product lookup.
type ChunkMeta struct {
	ProductID string `json:"product_id"`
	Title     string `json:"title"`
	SourceURL string `json:"source_url,omitempty"`
}

// Chunk is a bounded substring of a product's combined text, the unit of
// embedding and retrieval. A chunk belongs to exactly one product and is
// deleted together with it. Strategy records which embedding strategy
// produced the stored vector; mixing strategies across a reconfiguration
// would otherwise silently corrupt ranking.
type Chunk struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Text      string    `json:"chunk_text"`
	Embedding []float32 `json:"embedding,omitempty"`
	Strategy  string    `json:"strategy,omitempty"`
	Meta      ChunkMeta `json:"meta"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}
