package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/nidhogg/neusearch/internal/catalog"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// CreateProduct inserts a product and returns its generated ID. A product
// with the same source_url already present is left untouched and its
// existing ID is returned, so re-running the scraper stays idempotent.
func (s *Store) CreateProduct(ctx context.Context, p catalog.Product) (string, error) {
	features, err := marshalJSON(p.Features)
	if err != nil {
		return "", fmt.Errorf("marshal features: %w", err)
	}

	var id string
	err = s.db.QueryRow(ctx, `
		INSERT INTO products (id, title, price, description, features, image_url, category, source_url)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (source_url) DO UPDATE SET title = products.title
		RETURNING id`,
		p.Title, p.Price, p.Description, features, p.ImageURL, p.Category, p.SourceURL,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("create product: %w", err)
	}
	return id, nil
}

// GetProduct retrieves a single product by ID.
func (s *Store) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, title, COALESCE(price,''), COALESCE(description,''),
		       features, COALESCE(image_url,''), COALESCE(category,''),
		       COALESCE(source_url,''), created_at
		FROM products WHERE id = $1`, id)

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

// ListProducts returns products ordered by creation time, paginated.
func (s *Store) ListProducts(ctx context.Context, offset, limit int) ([]catalog.Product, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, title, COALESCE(price,''), COALESCE(description,''),
		       features, COALESCE(image_url,''), COALESCE(category,''),
		       COALESCE(source_url,''), created_at
		FROM products
		ORDER BY created_at
		OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []catalog.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// CountProducts returns the number of stored products.
func (s *Store) CountProducts(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

// DeleteProduct removes a product; its chunks go with it via the cascade.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	return nil
}

func scanProduct(row pgx.Row) (*catalog.Product, error) {
	var p catalog.Product
	var features []byte
	if err := row.Scan(
		&p.ID, &p.Title, &p.Price, &p.Description,
		&features, &p.ImageURL, &p.Category, &p.SourceURL, &p.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(features) > 0 {
		if err := json.Unmarshal(features, &p.Features); err != nil {
			return nil, fmt.Errorf("unmarshal features: %w", err)
		}
	}
	return &p, nil
}

func marshalJSON(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
