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

// LinkRepository implements repository.LinkRepository using PostgreSQL.
type LinkRepository struct {
	pool database.DBTX
}

// NewLinkRepository creates a new PostgreSQL-backed syndication link repository.
func NewLinkRepository(pool database.DBTX) *LinkRepository {
	return &LinkRepository{pool: pool}
}

const linkColumns = `id, original_review_id, copy_review_id, bundle_id, target_product_id, created_at`

// Create inserts a new syndication link. The table carries a uniqueness
// constraint on (original_review_id, target_product_id); a second writer
// racing on the same pair receives ErrAlreadyExists and falls back to
// updating the existing copy.
func (r *LinkRepository) Create(ctx context.Context, link *domain.SyndicationLink) error {
	query := `
		INSERT INTO syndication_links (` + linkColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.pool.Exec(ctx, query,
		link.ID,
		link.OriginalReviewID,
		link.CopyReviewID,
		link.BundleID,
		link.TargetProductID,
		link.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("syndication link", "target_product_id", link.TargetProductID)
		}
		return fmt.Errorf("insert syndication link: %w", err)
	}

	return nil
}

// Delete removes a link by its ID. Absence is a no-op.
func (r *LinkRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM syndication_links WHERE id = $1`

	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("delete syndication link: %w", err)
	}

	return nil
}

// FindByOriginalAndProduct finds the link for an (original, target product)
// pair. Returns (nil, nil) when no link exists.
func (r *LinkRepository) FindByOriginalAndProduct(ctx context.Context, originalReviewID, targetProductID string) (*domain.SyndicationLink, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM syndication_links
		WHERE original_review_id = $1 AND target_product_id = $2`

	link, err := r.scanLink(ctx, query, originalReviewID, targetProductID)
	if err != nil {
		return nil, fmt.Errorf("find link by original and product: %w", err)
	}
	return link, nil
}

// ListByOriginal returns every link derived from the given original review.
func (r *LinkRepository) ListByOriginal(ctx context.Context, originalReviewID string) ([]domain.SyndicationLink, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM syndication_links
		WHERE original_review_id = $1
		ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, originalReviewID)
	if err != nil {
		return nil, fmt.Errorf("list links by original: %w", err)
	}
	defer rows.Close()

	var links []domain.SyndicationLink
	for rows.Next() {
		var l domain.SyndicationLink
		if err := rows.Scan(
			&l.ID,
			&l.OriginalReviewID,
			&l.CopyReviewID,
			&l.BundleID,
			&l.TargetProductID,
			&l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan link row: %w", err)
		}
		links = append(links, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate link rows: %w", err)
	}

	return links, nil
}

// FindByCopy reverse-looks-up the link from a syndicated copy review.
// Returns (nil, nil) when the review is not a known copy.
func (r *LinkRepository) FindByCopy(ctx context.Context, copyReviewID string) (*domain.SyndicationLink, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM syndication_links
		WHERE copy_review_id = $1`

	link, err := r.scanLink(ctx, query, copyReviewID)
	if err != nil {
		return nil, fmt.Errorf("find link by copy: %w", err)
	}
	return link, nil
}

// ListApprovedByTargetProduct returns links targeting the product joined to
// their copy review's rating, restricted to approved copies. The aggregation
// engine reads syndicated contributions through this query.
func (r *LinkRepository) ListApprovedByTargetProduct(ctx context.Context, productID string) ([]domain.SyndicatedRating, error) {
	query := `
		SELECT l.id, l.original_review_id, c.rating
		FROM syndication_links l
		JOIN reviews c ON c.id = l.copy_review_id
		WHERE l.target_product_id = $1 AND c.status = $2`

	rows, err := r.pool.Query(ctx, query, productID, domain.ReviewStatusApproved)
	if err != nil {
		return nil, fmt.Errorf("list approved syndicated ratings: %w", err)
	}
	defer rows.Close()

	var ratings []domain.SyndicatedRating
	for rows.Next() {
		var sr domain.SyndicatedRating
		if err := rows.Scan(&sr.LinkID, &sr.OriginalReviewID, &sr.Rating); err != nil {
			return nil, fmt.Errorf("scan syndicated rating row: %w", err)
		}
		ratings = append(ratings, sr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate syndicated rating rows: %w", err)
	}

	return ratings, nil
}

func (r *LinkRepository) scanLink(ctx context.Context, query string, args ...any) (*domain.SyndicationLink, error) {
	var l domain.SyndicationLink
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&l.ID,
		&l.OriginalReviewID,
		&l.CopyReviewID,
		&l.BundleID,
		&l.TargetProductID,
		&l.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}
