package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/SonaliBaghel/Reviews-bundles/internal/domain"
	"github.com/SonaliBaghel/Reviews-bundles/internal/repository"
	"github.com/SonaliBaghel/Reviews-bundles/pkg/database"
	apperrors "github.com/SonaliBaghel/Reviews-bundles/pkg/errors"
)

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

const reviewColumns = `id, shop_id, product_id, rating, author, email, title, body, images, status, is_syndicated, source, created_at, updated_at`

// Create inserts a new review into the database together with its product
// association row.
func (r *ReviewRepository) Create(ctx context.Context, rv *domain.Review) error {
	query := `
		INSERT INTO reviews (` + reviewColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.pool.Exec(ctx, query,
		rv.ID,
		rv.ShopID,
		rv.ProductID,
		rv.Rating,
		rv.Author,
		rv.Email,
		rv.Title,
		rv.Body,
		rv.Images,
		rv.Status,
		rv.IsSyndicated,
		rv.Source,
		rv.CreatedAt,
		rv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("review", "id", rv.ID)
		}
		return fmt.Errorf("insert review: %w", err)
	}

	assoc := `
		INSERT INTO review_products (review_id, product_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	if _, err := r.pool.Exec(ctx, assoc, rv.ID, rv.ProductID); err != nil {
		return fmt.Errorf("insert review product association: %w", err)
	}

	return nil
}

// GetByID retrieves a review by its ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE id = $1`

	var rv domain.Review
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&rv.ID,
		&rv.ShopID,
		&rv.ProductID,
		&rv.Rating,
		&rv.Author,
		&rv.Email,
		&rv.Title,
		&rv.Body,
		&rv.Images,
		&rv.Status,
		&rv.IsSyndicated,
		&rv.Source,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("get review: %w", err)
	}

	return &rv, nil
}

// Update applies the given partial fields to an existing review and returns
// the updated record. Nil pointers leave the stored value untouched.
func (r *ReviewRepository) Update(ctx context.Context, id string, fields repository.ReviewFields) (*domain.Review, error) {
	var (
		sets     []string
		args     []any
		argIndex = 1
	)

	add := func(column string, value any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argIndex))
		args = append(args, value)
		argIndex++
	}

	if fields.Rating != nil {
		add("rating", *fields.Rating)
	}
	if fields.Author != nil {
		add("author", *fields.Author)
	}
	if fields.Email != nil {
		add("email", *fields.Email)
	}
	if fields.Title != nil {
		add("title", *fields.Title)
	}
	if fields.Body != nil {
		add("body", *fields.Body)
	}
	if fields.Images != nil {
		add("images", fields.Images)
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	sets = append(sets, "updated_at = now()")

	query := fmt.Sprintf(`
		UPDATE reviews
		SET %s
		WHERE id = $%d
		RETURNING `+reviewColumns, strings.Join(sets, ", "), argIndex)
	args = append(args, id)

	var rv domain.Review
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&rv.ID,
		&rv.ShopID,
		&rv.ProductID,
		&rv.Rating,
		&rv.Author,
		&rv.Email,
		&rv.Title,
		&rv.Body,
		&rv.Images,
		&rv.Status,
		&rv.IsSyndicated,
		&rv.Source,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("update review: %w", err)
	}

	return &rv, nil
}

// UpdateStatus sets the lifecycle status of a review.
func (r *ReviewRepository) UpdateStatus(ctx context.Context, id string, status domain.ReviewStatus) error {
	query := `
		UPDATE reviews
		SET status = $1, updated_at = now()
		WHERE id = $2`

	ct, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update review status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", id)
	}

	return nil
}

// Delete removes a review. Image sub-records and product associations are
// removed by ON DELETE CASCADE. Deleting an absent review is a no-op.
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM reviews WHERE id = $1`

	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	return nil
}

// List returns reviews matching the given filter with the total count.
func (r *ReviewRepository) List(ctx context.Context, filter repository.ReviewFilter) ([]domain.Review, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.ProductID != nil {
		conditions = append(conditions, fmt.Sprintf("product_id = $%d", argIndex))
		args = append(args, *filter.ProductID)
		argIndex++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}
	if filter.IsSyndicated != nil {
		conditions = append(conditions, fmt.Sprintf("is_syndicated = $%d", argIndex))
		args = append(args, *filter.IsSyndicated)
		argIndex++
	}
	if filter.ShopID != nil {
		conditions = append(conditions, fmt.Sprintf("shop_id = $%d", argIndex))
		args = append(args, *filter.ShopID)
		argIndex++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	query := fmt.Sprintf(`
		SELECT `+reviewColumns+`,
		       count(*) OVER() AS total_count
		FROM reviews
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var (
		reviews    []domain.Review
		totalCount int
	)

	for rows.Next() {
		var rv domain.Review

		if err := rows.Scan(
			&rv.ID,
			&rv.ShopID,
			&rv.ProductID,
			&rv.Rating,
			&rv.Author,
			&rv.Email,
			&rv.Title,
			&rv.Body,
			&rv.Images,
			&rv.Status,
			&rv.IsSyndicated,
			&rv.Source,
			&rv.CreatedAt,
			&rv.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}

		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	if reviews == nil {
		reviews = []domain.Review{}
	}

	return reviews, totalCount, nil
}

// ListApprovedDirect returns every approved, non-syndicated review owned by
// the product. The aggregation engine needs the full set, so no pagination.
func (r *ReviewRepository) ListApprovedDirect(ctx context.Context, productID string) ([]domain.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE product_id = $1 AND status = $2 AND is_syndicated = false
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, productID, domain.ReviewStatusApproved)
	if err != nil {
		return nil, fmt.Errorf("list approved direct reviews: %w", err)
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		var rv domain.Review

		if err := rows.Scan(
			&rv.ID,
			&rv.ShopID,
			&rv.ProductID,
			&rv.Rating,
			&rv.Author,
			&rv.Email,
			&rv.Title,
			&rv.Body,
			&rv.Images,
			&rv.Status,
			&rv.IsSyndicated,
			&rv.Source,
			&rv.CreatedAt,
			&rv.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}

		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}

	return reviews, nil
}

// RemoveProductAssociation deletes the join-table row linking a review to a
// product. Absence is a no-op.
func (r *ReviewRepository) RemoveProductAssociation(ctx context.Context, reviewID, productID string) error {
	query := `DELETE FROM review_products WHERE review_id = $1 AND product_id = $2`

	if _, err := r.pool.Exec(ctx, query, reviewID, productID); err != nil {
		return fmt.Errorf("remove review product association: %w", err)
	}

	return nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
