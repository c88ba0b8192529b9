package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/nidhogg/neusearch/internal/catalog"
)

// InsertChunks persists a batch of chunk records in a single transaction, so
// an indexing batch either lands whole or not at all.
func (s *Store) InsertChunks(ctx context.Context, chunks []catalog.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin insert chunks: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, c := range chunks {
		id := c.ID
		if id == "" {
			// v7 IDs are time-ordered, so the created_at,id sort below keeps
			// insertion order even when a whole batch shares one timestamp.
			u, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("generate chunk id: %w", err)
			}
			id = u.String()
		}
		embedding, err := marshalJSON(c.Embedding)
		if err != nil {
			return fmt.Errorf("marshal embedding: %w", err)
		}
		meta, err := json.Marshal(c.Meta)
		if err != nil {
			return fmt.Errorf("marshal meta: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO product_chunks (id, product_id, chunk_text, embedding, strategy, meta)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			id, c.ProductID, c.Text, embedding, c.Strategy, meta,
		); err != nil {
			return fmt.Errorf("insert chunk for product %s: %w", c.ProductID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit insert chunks: %w", err)
	}
	return nil
}

// ListAllChunks returns every stored chunk in insertion order. Search does a
// full scan over the result, which caps how large the chunk table can grow.
func (s *Store) ListAllChunks(ctx context.Context) ([]catalog.Chunk, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, product_id, chunk_text, embedding, COALESCE(strategy,''), meta, created_at
		FROM product_chunks
		ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	defer rows.Close()

	var chunks []catalog.Chunk
	for rows.Next() {
		var c catalog.Chunk
		var embedding, meta []byte
		if err := rows.Scan(&c.ID, &c.ProductID, &c.Text, &embedding, &c.Strategy, &meta, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		if len(embedding) > 0 {
			if err := json.Unmarshal(embedding, &c.Embedding); err != nil {
				return nil, fmt.Errorf("unmarshal embedding: %w", err)
			}
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &c.Meta); err != nil {
				return nil, fmt.Errorf("unmarshal meta: %w", err)
			}
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// CountChunks returns the number of stored chunks.
func (s *Store) CountChunks(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM product_chunks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return count, nil
}
