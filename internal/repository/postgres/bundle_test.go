package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SonaliBaghel/Reviews-bundles/internal/domain"
	"github.com/SonaliBaghel/Reviews-bundles/pkg/database"
	apperrors "github.com/SonaliBaghel/Reviews-bundles/pkg/errors"
)

func setupBundleRepo(t *testing.T) (*BundleRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	repo := NewBundleRepository(mock)
	return repo, mock
}

func sampleBundle() *domain.Bundle {
	now := time.Date(2025, 7, 1, 9, 30, 0, 0, time.UTC)
	return &domain.Bundle{
		ID:               "bundle-1",
		Name:             "Starter Kit",
		ShopID:           "shop-1",
		PrimaryProductID: "prod-a",
		ProductIDs:       []string{"prod-a", "prod-b", "prod-c"},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func bundleColumnNames() []string {
	return []string{"id", "name", "shop_id", "primary_product_id", "created_at", "updated_at"}
}

func bundleRow(b *domain.Bundle) *pgxmock.Rows {
	return pgxmock.NewRows(bundleColumnNames()).
		AddRow(b.ID, b.Name, b.ShopID, b.PrimaryProductID, b.CreatedAt, b.UpdatedAt)
}

func bundleProductRows(productIDs []string) *pgxmock.Rows {
	rows := pgxmock.NewRows([]string{"product_id"})
	for _, id := range productIDs {
		rows.AddRow(id)
	}
	return rows
}

// ---------------------------------------------------------------------------
// GetByID
// ---------------------------------------------------------------------------

func TestBundleRepository_GetByID_Success(t *testing.T) {
	repo, mock := setupBundleRepo(t)
	defer mock.Close()

	b := sampleBundle()

	mock.ExpectQuery("SELECT .+ FROM bundles WHERE id").
		WithArgs(b.ID).
		WillReturnRows(bundleRow(b))

	mock.ExpectQuery("SELECT product_id FROM bundle_products").
		WithArgs(b.ID).
		WillReturnRows(bundleProductRows(b.ProductIDs))

	result, err := repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, b.ID, result.ID)
	assert.Equal(t, b.Name, result.Name)
	assert.Equal(t, b.ShopID, result.ShopID)
	assert.Equal(t, b.PrimaryProductID, result.PrimaryProductID)
	assert.Equal(t, []string{"prod-a", "prod-b", "prod-c"}, result.ProductIDs)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBundleRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := setupBundleRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM bundles WHERE id").
		WithArgs("nonexistent-id").
		WillReturnError(pgx.ErrNoRows)

	result, err := repo.GetByID(context.Background(), "nonexistent-id")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBundleRepository_GetByID_MemberQueryError(t *testing.T) {
	repo, mock := setupBundleRepo(t)
	defer mock.Close()

	b := sampleBundle()

	mock.ExpectQuery("SELECT .+ FROM bundles WHERE id").
		WithArgs(b.ID).
		WillReturnRows(bundleRow(b))

	mock.ExpectQuery("SELECT product_id FROM bundle_products").
		WithArgs(b.ID).
		WillReturnError(errors.New("connection reset"))

	result, err := repo.GetByID(context.Background(), b.ID)
	assert.Nil(t, result)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "list bundle products")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// GetByProduct
// ---------------------------------------------------------------------------

func TestBundleRepository_GetByProduct_Success(t *testing.T) {
	repo, mock := setupBundleRepo(t)
	defer mock.Close()

	b := sampleBundle()

	mock.ExpectQuery("SELECT .+ FROM bundles b JOIN bundle_products").
		WithArgs("prod-b").
		WillReturnRows(bundleRow(b))

	mock.ExpectQuery("SELECT product_id FROM bundle_products").
		WithArgs(b.ID).
		WillReturnRows(bundleProductRows(b.ProductIDs))

	result, err := repo.GetByProduct(context.Background(), "prod-b")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "bundle-1", result.ID)
	assert.Equal(t, []string{"prod-a", "prod-b", "prod-c"}, result.ProductIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBundleRepository_GetByProduct_NoBundle(t *testing.T) {
	repo, mock := setupBundleRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM bundles b JOIN bundle_products").
		WithArgs("prod-lonely").
		WillReturnError(pgx.ErrNoRows)

	// A product outside every bundle is not an error.
	result, err := repo.GetByProduct(context.Background(), "prod-lonely")
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBundleRepository_GetByProduct_QueryError(t *testing.T) {
	repo, mock := setupBundleRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM bundles b JOIN bundle_products").
		WithArgs("prod-err").
		WillReturnError(errors.New("database timeout"))

	result, err := repo.GetByProduct(context.Background(), "prod-err")
	assert.Nil(t, result)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "get bundle by product")
	assert.NoError(t, mock.ExpectationsWereMet())
}
