package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/SonaliBaghel/Reviews-bundles/pkg/errors"
	pkgvalidator "github.com/SonaliBaghel/Reviews-bundles/pkg/validator"

	"github.com/SonaliBaghel/Reviews-bundles/internal/catalog"
	"github.com/SonaliBaghel/Reviews-bundles/internal/domain"
	"github.com/SonaliBaghel/Reviews-bundles/internal/event"
	"github.com/SonaliBaghel/Reviews-bundles/internal/repository"
)

// ReviewService orchestrates the review lifecycle: submission, status
// changes, edits and deletions, each with an explicit scope, plus the
// re-aggregation and catalog publish fan-out they trigger.
type ReviewService struct {
	reviews    repository.ReviewRepository
	bundles    repository.BundleRepository
	aggregator *Aggregator
	syndicator *Syndicator
	publisher  catalog.Publisher
	producer   *event.Producer
	logger     *slog.Logger
}

// NewReviewService creates a new review lifecycle service.
func NewReviewService(
	reviews repository.ReviewRepository,
	bundles repository.BundleRepository,
	aggregator *Aggregator,
	syndicator *Syndicator,
	publisher catalog.Publisher,
	producer *event.Producer,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:    reviews,
		bundles:    bundles,
		aggregator: aggregator,
		syndicator: syndicator,
		publisher:  publisher,
		producer:   producer,
		logger:     logger,
	}
}

// SubmitReviewInput holds the parameters for a direct customer submission.
type SubmitReviewInput struct {
	ShopID    string   `json:"shop_id" validate:"required"`
	ProductID string   `json:"product_id" validate:"required"`
	Rating    int      `json:"rating" validate:"required,min=1,max=5"`
	Author    string   `json:"author" validate:"required"`
	Email     string   `json:"email" validate:"omitempty,email"`
	Title     string   `json:"title" validate:"required"`
	Body      string   `json:"body" validate:"required"`
	Images    []string `json:"images"`
}

// EditReviewInput holds the partial fields of an edit. Nil pointers leave the
// stored value untouched.
type EditReviewInput struct {
	Rating         *int     `json:"rating" validate:"omitempty,min=1,max=5"`
	Author         *string  `json:"author"`
	Email          *string  `json:"email" validate:"omitempty,email"`
	Title          *string  `json:"title"`
	Body           *string  `json:"body"`
	ImagesToRemove []string `json:"images_to_remove"`
}

// ListReviewsInput holds the filter and pagination parameters for listing.
type ListReviewsInput struct {
	ProductID    string
	Status       string
	IsSyndicated *bool
	ShopID       string
	Page         int
	PerPage      int
}

func validateEmail(email string) error {
	if email == "" {
		return nil
	}
	probe := struct {
		Email string `validate:"email"`
	}{Email: email}
	if err := pkgvalidator.Validate(&probe); err != nil {
		return apperrors.InvalidInput("email must be a valid email address")
	}
	return nil
}

// SubmitReview creates a new direct (non-syndicated) review in pending
// status. Pending reviews do not affect aggregates, so no catalog publish
// happens here.
func (s *ReviewService) SubmitReview(ctx context.Context, input *SubmitReviewInput) (*domain.Review, error) {
	if input == nil {
		return nil, apperrors.InvalidInput("review input is required")
	}
	if input.ShopID == "" {
		return nil, apperrors.InvalidInput("shop id is required")
	}
	if domain.NormalizeProductID(input.ProductID) == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, apperrors.InvalidInput("rating must be between 1 and 5")
	}
	if input.Author == "" {
		return nil, apperrors.InvalidInput("author is required")
	}
	if input.Title == "" {
		return nil, apperrors.InvalidInput("title is required")
	}
	if input.Body == "" {
		return nil, apperrors.InvalidInput("body is required")
	}
	if err := validateEmail(input.Email); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	review := &domain.Review{
		ID:           uuid.New().String(),
		ShopID:       input.ShopID,
		ProductID:    domain.NormalizeProductID(input.ProductID),
		Rating:       input.Rating,
		Author:       input.Author,
		Email:        input.Email,
		Title:        input.Title,
		Body:         input.Body,
		Images:       input.Images,
		Status:       domain.ReviewStatusPending,
		IsSyndicated: false,
		Source:       "customer submission",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	// Publish event; log but do not fail on error.
	if err := s.producer.PublishReviewCreated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.created event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review submitted",
		slog.String("review_id", review.ID),
		slog.String("product_id", review.ProductID),
		slog.Int("rating", review.Rating),
	)

	return review, nil
}

// GetReview retrieves a single review by id.
func (s *ReviewService) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("review id is required")
	}
	return s.reviews.GetByID(ctx, id)
}

// ListReviews returns reviews matching the filter with the total count.
func (s *ReviewService) ListReviews(ctx context.Context, input ListReviewsInput) ([]domain.Review, int, error) {
	filter := repository.ReviewFilter{
		Page:         input.Page,
		PerPage:      input.PerPage,
		IsSyndicated: input.IsSyndicated,
	}

	if input.ProductID != "" {
		productID := domain.NormalizeProductID(input.ProductID)
		filter.ProductID = &productID
	}
	if input.Status != "" {
		status := domain.ReviewStatus(input.Status)
		if !status.Valid() {
			return nil, 0, apperrors.InvalidInput("status must be one of pending, approved, rejected")
		}
		filter.Status = &status
	}
	if input.ShopID != "" {
		filter.ShopID = &input.ShopID
	}

	return s.reviews.List(ctx, filter)
}

// ChangeStatus applies a status transition to a review. With bundle scope the
// transition fans out across the review's bundle: a first approval
// materializes syndicated copies, a re-approval or a reject/pending refresh
// propagates the status to the existing copies.
func (s *ReviewService) ChangeStatus(ctx context.Context, reviewID string, newStatus domain.ReviewStatus, scope domain.Scope) error {
	if reviewID == "" {
		return apperrors.InvalidInput("review id is required")
	}
	if !newStatus.Valid() {
		return apperrors.InvalidInput("status must be one of pending, approved, rejected")
	}
	if !scope.Valid() {
		return apperrors.InvalidInput("scope must be individual or bundle")
	}

	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return err
	}
	oldStatus := review.Status

	bundle, err := s.bundles.GetByProduct(ctx, domain.NormalizeProductID(review.ProductID))
	if err != nil {
		return apperrors.StoreUnavailable(err)
	}

	var affected []string

	if scope == domain.ScopeBundle && bundle != nil {
		originalID, err := s.resolveOriginalID(ctx, review)
		if err != nil {
			return err
		}

		switch newStatus {
		case domain.ReviewStatusApproved:
			if err := s.approveAcrossBundle(ctx, originalID, bundle); err != nil {
				return err
			}
		default:
			// reject / pending: set the target directly, then refresh every
			// copy, and the original itself when the target was a copy.
			if err := s.reviews.UpdateStatus(ctx, review.ID, newStatus); err != nil {
				return err
			}
			if originalID != review.ID {
				if err := s.reviews.UpdateStatus(ctx, originalID, newStatus); err != nil {
					s.logger.WarnContext(ctx, "failed to update original status",
						slog.String("original_review_id", originalID),
						slog.String("error", err.Error()),
					)
				}
			}
			result, err := s.syndicator.PropagateStatus(ctx, originalID, newStatus)
			if err != nil {
				return err
			}
			s.logger.InfoContext(ctx, "status propagated across bundle",
				slog.String("original_review_id", originalID),
				slog.String("status", string(newStatus)),
				slog.Int("copies_updated", result.Count),
				slog.Int("failures", len(result.Failures)),
			)
		}

		affected = bundle.ProductIDs
	} else {
		if err := s.reviews.UpdateStatus(ctx, review.ID, newStatus); err != nil {
			return err
		}
		affected = []string{review.ProductID}
	}

	if err := s.producer.PublishReviewStatusChanged(ctx, review, oldStatus, newStatus, scope); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.status_changed event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.republish(ctx, review.ShopID, affected)

	return nil
}

// approveAcrossBundle handles bundle-scope approval of the original: first
// approvals fan out copies, re-approvals refresh the existing ones.
func (s *ReviewService) approveAcrossBundle(ctx context.Context, originalID string, bundle *domain.Bundle) error {
	first, err := s.syndicator.IsFirstApproval(ctx, originalID)
	if err != nil {
		return err
	}

	if first {
		result, err := s.syndicator.Syndicate(ctx, originalID, bundle.ID)
		if err != nil {
			return err
		}
		if err := s.producer.PublishReviewSyndicated(ctx, originalID, bundle.ID, bundle.ProductIDs, result.Count); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish review.syndicated event",
				slog.String("original_review_id", originalID),
				slog.String("error", err.Error()),
			)
		}
		s.logger.InfoContext(ctx, "first approval fanned out",
			slog.String("original_review_id", originalID),
			slog.String("bundle_id", bundle.ID),
			slog.Int("copies_written", result.Count),
			slog.Int("failures", len(result.Failures)),
		)
	} else {
		result, err := s.syndicator.PropagateStatus(ctx, originalID, domain.ReviewStatusApproved)
		if err != nil {
			return err
		}
		s.logger.InfoContext(ctx, "re-approval refreshed copies",
			slog.String("original_review_id", originalID),
			slog.Int("copies_updated", result.Count),
		)
	}

	return s.reviews.UpdateStatus(ctx, originalID, domain.ReviewStatusApproved)
}

// EditReview applies partial field changes to a review. With bundle scope,
// edits to an original are propagated onto its existing copies; edits never
// create new copies. An individual-scope edit of a copy is allowed to fork
// its content until the next bundle-scope write overwrites it.
func (s *ReviewService) EditReview(ctx context.Context, reviewID string, input *EditReviewInput, scope domain.Scope) (*domain.Review, error) {
	if reviewID == "" {
		return nil, apperrors.InvalidInput("review id is required")
	}
	if input == nil {
		return nil, apperrors.InvalidInput("edit input is required")
	}
	if !scope.Valid() {
		return nil, apperrors.InvalidInput("scope must be individual or bundle")
	}

	// Fail fast before any mutation.
	if input.Rating != nil && (*input.Rating < 1 || *input.Rating > 5) {
		return nil, apperrors.InvalidInput("rating must be between 1 and 5")
	}
	if input.Author != nil && *input.Author == "" {
		return nil, apperrors.InvalidInput("author cannot be empty")
	}
	if input.Title != nil && *input.Title == "" {
		return nil, apperrors.InvalidInput("title cannot be empty")
	}
	if input.Body != nil && *input.Body == "" {
		return nil, apperrors.InvalidInput("body cannot be empty")
	}
	if input.Email != nil {
		if err := validateEmail(*input.Email); err != nil {
			return nil, err
		}
	}

	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	fields := repository.ReviewFields{
		Rating: input.Rating,
		Author: input.Author,
		Email:  input.Email,
		Title:  input.Title,
		Body:   input.Body,
	}
	if len(input.ImagesToRemove) > 0 {
		fields.Images = removeImages(review.Images, input.ImagesToRemove)
	}

	updated, err := s.reviews.Update(ctx, review.ID, fields)
	if err != nil {
		return nil, err
	}

	affected := []string{review.ProductID}

	bundle, err := s.bundles.GetByProduct(ctx, domain.NormalizeProductID(review.ProductID))
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}

	if scope == domain.ScopeBundle && bundle != nil {
		if !review.IsSyndicated {
			result, err := s.syndicator.PropagateFields(ctx, review.ID, fields)
			if err != nil {
				return nil, err
			}
			s.logger.InfoContext(ctx, "edit propagated across bundle",
				slog.String("review_id", review.ID),
				slog.Int("copies_updated", result.Count),
				slog.Int("failures", len(result.Failures)),
			)
		}
		affected = bundle.ProductIDs
	}

	if err := s.producer.PublishReviewEdited(ctx, updated, scope); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.edited event",
			slog.String("review_id", updated.ID),
			slog.String("error", err.Error()),
		)
	}

	s.republish(ctx, review.ShopID, affected)

	return updated, nil
}

// DeleteReview removes a review. Bundle scope removes the original and every
// copy. Individual scope on a copy removes only that product's copy; on an
// original it still cascades, because an original must not be deleted while
// copies derived from it survive.
func (s *ReviewService) DeleteReview(ctx context.Context, reviewID string, scope domain.Scope) error {
	if reviewID == "" {
		return apperrors.InvalidInput("review id is required")
	}
	if !scope.Valid() {
		return apperrors.InvalidInput("scope must be individual or bundle")
	}

	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return err
	}

	bundle, err := s.bundles.GetByProduct(ctx, domain.NormalizeProductID(review.ProductID))
	if err != nil {
		return apperrors.StoreUnavailable(err)
	}

	var (
		affected      []string
		copiesRemoved int
	)

	switch {
	case bundle == nil:
		if err := s.reviews.Delete(ctx, review.ID); err != nil {
			return err
		}
		affected = []string{review.ProductID}

	case scope == domain.ScopeBundle:
		originalID, err := s.resolveOriginalID(ctx, review)
		if err != nil {
			return err
		}
		result, err := s.syndicator.RemoveAll(ctx, originalID)
		if err != nil {
			return err
		}
		copiesRemoved = result.Count
		if err := s.reviews.Delete(ctx, originalID); err != nil {
			return err
		}
		affected = bundle.ProductIDs

	case review.IsSyndicated:
		// Individual scope on a copy: remove only this product's instance.
		originalID, err := s.syndicator.FindOriginalID(ctx, review.ID)
		if err != nil {
			return err
		}
		if originalID == "" {
			// Orphaned copy with no link; plain delete.
			if err := s.reviews.Delete(ctx, review.ID); err != nil {
				return err
			}
		} else {
			removed, err := s.syndicator.RemoveForProduct(ctx, originalID, domain.NormalizeProductID(review.ProductID))
			if err != nil {
				return err
			}
			if removed {
				copiesRemoved = 1
			}
		}
		affected = []string{review.ProductID}

	default:
		// Individual scope on an original: cascade anyway, so copies never
		// outlive the review they were derived from.
		result, err := s.syndicator.RemoveAll(ctx, review.ID)
		if err != nil {
			return err
		}
		copiesRemoved = result.Count
		if err := s.reviews.Delete(ctx, review.ID); err != nil {
			return err
		}
		affected = bundle.ProductIDs
	}

	if err := s.producer.PublishReviewDeleted(ctx, review.ID, review.ProductID, scope, copiesRemoved, affected); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.deleted event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", review.ID),
		slog.String("scope", string(scope)),
		slog.Int("copies_removed", copiesRemoved),
	)

	s.republish(ctx, review.ShopID, affected)

	return nil
}

// PurgeProduct removes every review instance attached to a product: direct
// originals (cascading to their copies) and syndicated copies targeting it.
// Invoked when the catalog reports the product as deleted.
func (s *ReviewService) PurgeProduct(ctx context.Context, productID string) error {
	productID = domain.NormalizeProductID(productID)
	if productID == "" {
		return apperrors.InvalidInput("product id is required")
	}

	filter := repository.ReviewFilter{
		ProductID: &productID,
		PerPage:   batchSize,
	}

	purged := 0
	for {
		reviews, _, err := s.reviews.List(ctx, filter)
		if err != nil {
			return apperrors.StoreUnavailable(err)
		}
		if len(reviews) == 0 {
			break
		}

		deletedThisPass := 0
		for _, review := range reviews {
			if err := s.DeleteReview(ctx, review.ID, domain.ScopeIndividual); err != nil {
				s.logger.WarnContext(ctx, "failed to purge review",
					slog.String("review_id", review.ID),
					slog.String("product_id", productID),
					slog.String("error", err.Error()),
				)
				continue
			}
			deletedThisPass++
		}
		purged += deletedThisPass

		// Every remaining review failed to delete; stop rather than spin.
		if deletedThisPass == 0 {
			break
		}
	}

	s.logger.InfoContext(ctx, "product reviews purged",
		slog.String("product_id", productID),
		slog.Int("reviews_purged", purged),
	)

	return nil
}

const batchSize = 100

// resolveOriginalID maps a review to the original of its syndication group:
// itself when it is not a copy, otherwise the review behind its link. An
// orphaned copy with no link resolves to itself.
func (s *ReviewService) resolveOriginalID(ctx context.Context, review *domain.Review) (string, error) {
	if !review.IsSyndicated {
		return review.ID, nil
	}
	originalID, err := s.syndicator.FindOriginalID(ctx, review.ID)
	if err != nil {
		return "", err
	}
	if originalID == "" {
		return review.ID, nil
	}
	return originalID, nil
}

// republish recomputes the aggregate for every affected product and pushes it
// to the catalog. Products are independent, so they run concurrently. Publish
// failures never roll back the committed review mutation; a later event on
// the same product self-heals the projection.
func (s *ReviewService) republish(ctx context.Context, shopID string, productIDs []string) {
	var wg sync.WaitGroup
	for _, productID := range productIDs {
		wg.Add(1)
		go func(productID string) {
			defer wg.Done()

			agg, err := s.aggregator.ComputeAggregate(ctx, productID)
			if err != nil {
				s.logger.ErrorContext(ctx, "failed to compute aggregate",
					slog.String("product_id", productID),
					slog.String("error", err.Error()),
				)
				return
			}

			if err := s.publisher.PublishRating(ctx, shopID, domain.NormalizeProductID(productID), agg); err != nil {
				s.logger.ErrorContext(ctx, "failed to publish rating to catalog",
					slog.String("product_id", productID),
					slog.String("error", err.Error()),
				)
				return
			}

			if err := s.producer.PublishRatingPublished(ctx, shopID, domain.NormalizeProductID(productID), agg); err != nil {
				s.logger.ErrorContext(ctx, "failed to publish rating.published event",
					slog.String("product_id", productID),
					slog.String("error", err.Error()),
				)
			}
		}(productID)
	}
	wg.Wait()
}

// removeImages returns current minus the images listed for removal.
func removeImages(current, toRemove []string) []string {
	drop := make(map[string]struct{}, len(toRemove))
	for _, img := range toRemove {
		drop[img] = struct{}{}
	}

	kept := make([]string, 0, len(current))
	for _, img := range current {
		if _, ok := drop[img]; !ok {
			kept = append(kept, img)
		}
	}
	return kept
}
