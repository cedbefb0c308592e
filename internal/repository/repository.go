package repository

import (
	"context"

	"github.com/SonaliBaghel/Reviews-bundles/internal/domain"
)

// ReviewFilter defines filter criteria for listing reviews.
type ReviewFilter struct {
	ProductID    *string
	Status       *domain.ReviewStatus
	IsSyndicated *bool
	ShopID       *string
	Page         int
	PerPage      int
}

// ReviewFields holds the mutable fields applied by an edit. Nil pointers
// leave the stored value untouched.
type ReviewFields struct {
	Rating *int
	Author *string
	Email  *string
	Title  *string
	Body   *string
	Images []string
}

// ReviewRepository defines the persistence interface for review records.
type ReviewRepository interface {
	// Create inserts a new review and its image sub-records.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// Update applies the given partial fields to an existing review.
	Update(ctx context.Context, id string, fields ReviewFields) (*domain.Review, error)

	// UpdateStatus sets the lifecycle status of a review.
	UpdateStatus(ctx context.Context, id string, status domain.ReviewStatus) error

	// Delete removes a review and its image sub-records. Deleting an absent
	// review is a no-op.
	Delete(ctx context.Context, id string) error

	// List returns reviews matching the filter along with the total count.
	List(ctx context.Context, filter ReviewFilter) ([]domain.Review, int, error)

	// ListApprovedDirect returns every approved, non-syndicated review owned
	// by the product, without pagination. Used by the aggregation engine.
	ListApprovedDirect(ctx context.Context, productID string) ([]domain.Review, error)

	// RemoveProductAssociation deletes the secondary join-table row linking
	// a review to a product. Absence is a no-op.
	RemoveProductAssociation(ctx context.Context, reviewID, productID string) error
}

// BundleRepository defines read access to bundle definitions. Bundles are
// administered elsewhere and are read-only here.
type BundleRepository interface {
	// GetByID retrieves a bundle by its identifier.
	GetByID(ctx context.Context, id string) (*domain.Bundle, error)

	// GetByProduct resolves the bundle a product belongs to. Returns
	// (nil, nil) when the product is in no bundle.
	GetByProduct(ctx context.Context, productID string) (*domain.Bundle, error)
}

// LinkRepository defines persistence for syndication links.
type LinkRepository interface {
	// Create inserts a new link. Returns ErrAlreadyExists (wrapped) when a
	// link for the same (original, target) pair exists; the store enforces
	// this with a uniqueness constraint.
	Create(ctx context.Context, link *domain.SyndicationLink) error

	// Delete removes a link by its identifier. Absence is a no-op.
	Delete(ctx context.Context, id string) error

	// FindByOriginalAndProduct finds the link for an (original review,
	// target product) pair. Returns (nil, nil) when no link exists.
	FindByOriginalAndProduct(ctx context.Context, originalReviewID, targetProductID string) (*domain.SyndicationLink, error)

	// ListByOriginal returns every link whose original is the given review.
	ListByOriginal(ctx context.Context, originalReviewID string) ([]domain.SyndicationLink, error)

	// FindByCopy reverse-looks-up the link from a syndicated copy. Returns
	// (nil, nil) when the review is not a known copy.
	FindByCopy(ctx context.Context, copyReviewID string) (*domain.SyndicationLink, error)

	// ListApprovedByTargetProduct returns links targeting the product joined
	// to their copy review's rating, restricted to approved copies.
	ListApprovedByTargetProduct(ctx context.Context, productID string) ([]domain.SyndicatedRating, error)
}
