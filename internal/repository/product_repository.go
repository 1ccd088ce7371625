package repository

import (
	"context"
	"fmt"

	"atelier-commerce/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

// GetAll retrieves all products with pagination support.
func (r *productRepository) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	query := `
		SELECT id, name, price, category, count_in_stock, sizes
		FROM products
		ORDER BY name
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id string) (*model.Product, error) {
	query := `
		SELECT id, name, price, category, count_in_stock, sizes
		FROM products
		WHERE id = $1
	`

	var p model.Product
	err := r.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Price, &p.Category, &p.CountInStock, &p.Sizes)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("product_id", id).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &p, nil
}

// GetByIDs retrieves multiple products by their IDs.
func (r *productRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	query := `
		SELECT id, name, price, category, count_in_stock, sizes
		FROM products
		WHERE id = ANY($1)
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query products by IDs")
		return nil, fmt.Errorf("failed to query products by IDs: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// AdjustStock changes available inventory by delta, clamped at zero.
// Sized products also keep the aggregate counter in step so listings
// can filter on it without unpacking the variants.
func (r *productRepository) AdjustStock(ctx context.Context, id string, size *string, delta int) error {
	var (
		query string
		args  []any
	)

	if size != nil {
		query = `
			UPDATE products
			SET count_in_stock = GREATEST(count_in_stock + $3, 0),
			    sizes = (
			        SELECT jsonb_agg(
			            CASE WHEN elem->>'size' = $2
			                THEN jsonb_set(elem, '{quantity}', to_jsonb(GREATEST((elem->>'quantity')::int + $3, 0)))
			                ELSE elem
			            END
			        )
			        FROM jsonb_array_elements(sizes) AS elem
			    )
			WHERE id = $1 AND sizes IS NOT NULL
		`
		args = []any{id, *size, delta}
	} else {
		query = `
			UPDATE products
			SET count_in_stock = GREATEST(count_in_stock + $2, 0)
			WHERE id = $1
		`
		args = []any{id, delta}
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id).Int("delta", delta).Msg("failed to adjust stock")
		return fmt.Errorf("failed to adjust stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Warn().Str("product_id", id).Msg("stock adjustment matched no product")
		return model.ErrProductNotFound
	}

	r.logger.Debug().
		Str("product_id", id).
		Int("delta", delta).
		Msg("stock adjusted")

	return nil
}

func scanProducts(rows pgx.Rows) ([]model.Product, error) {
	var products []model.Product
	for rows.Next() {
		var p model.Product
		err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Category, &p.CountInStock, &p.Sizes)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}
