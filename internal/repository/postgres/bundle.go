package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/SonaliBaghel/Reviews-bundles/internal/domain"
	"github.com/SonaliBaghel/Reviews-bundles/pkg/database"
	apperrors "github.com/SonaliBaghel/Reviews-bundles/pkg/errors"
)

// BundleRepository implements repository.BundleRepository using PostgreSQL.
// Bundles are written by the admin surface; this service only reads them.
type BundleRepository struct {
	pool database.DBTX
}

// NewBundleRepository creates a new PostgreSQL-backed bundle repository.
func NewBundleRepository(pool database.DBTX) *BundleRepository {
	return &BundleRepository{pool: pool}
}

// GetByID retrieves a bundle and its member products by bundle ID.
func (r *BundleRepository) GetByID(ctx context.Context, id string) (*domain.Bundle, error) {
	query := `
		SELECT id, name, shop_id, primary_product_id, created_at, updated_at
		FROM bundles
		WHERE id = $1`

	var b domain.Bundle
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&b.ID,
		&b.Name,
		&b.ShopID,
		&b.PrimaryProductID,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("bundle", id)
		}
		return nil, fmt.Errorf("get bundle: %w", err)
	}

	members, err := r.memberProducts(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	b.ProductIDs = members

	return &b, nil
}

// GetByProduct resolves the bundle a product belongs to. Returns (nil, nil)
// when the product is in no bundle.
func (r *BundleRepository) GetByProduct(ctx context.Context, productID string) (*domain.Bundle, error) {
	query := `
		SELECT b.id, b.name, b.shop_id, b.primary_product_id, b.created_at, b.updated_at
		FROM bundles b
		JOIN bundle_products bp ON bp.bundle_id = b.id
		WHERE bp.product_id = $1`

	var b domain.Bundle
	err := r.pool.QueryRow(ctx, query, productID).Scan(
		&b.ID,
		&b.Name,
		&b.ShopID,
		&b.PrimaryProductID,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get bundle by product: %w", err)
	}

	members, err := r.memberProducts(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	b.ProductIDs = members

	return &b, nil
}

func (r *BundleRepository) memberProducts(ctx context.Context, bundleID string) ([]string, error) {
	query := `
		SELECT product_id
		FROM bundle_products
		WHERE bundle_id = $1
		ORDER BY position`

	rows, err := r.pool.Query(ctx, query, bundleID)
	if err != nil {
		return nil, fmt.Errorf("list bundle products: %w", err)
	}
	defer rows.Close()

	var products []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan bundle product row: %w", err)
		}
		products = append(products, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bundle product rows: %w", err)
	}

	return products, nil
}
