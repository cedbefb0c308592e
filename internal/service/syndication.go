package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/SonaliBaghel/Reviews-bundles/pkg/errors"

	"github.com/SonaliBaghel/Reviews-bundles/internal/domain"
	"github.com/SonaliBaghel/Reviews-bundles/internal/repository"
)

// SweepFailure records one target that a best-effort sweep could not process.
type SweepFailure struct {
	TargetProductID string
	CopyReviewID    string
	Err             error
}

// SweepResult reports the outcome of a fan-out operation over syndication
// links. Count is the number of targets processed successfully; Failures
// lists the targets that were skipped, so callers and tests see partial
// failure instead of a swallowed error.
type SweepResult struct {
	Count    int
	Failures []SweepFailure
}

func (r *SweepResult) fail(targetProductID, copyReviewID string, err error) {
	r.Failures = append(r.Failures, SweepFailure{
		TargetProductID: targetProductID,
		CopyReviewID:    copyReviewID,
		Err:             err,
	})
}

// Syndicator keeps syndicated copies consistent with their original review
// across the members of a bundle.
type Syndicator struct {
	reviews repository.ReviewRepository
	bundles repository.BundleRepository
	links   repository.LinkRepository
	logger  *slog.Logger
}

// NewSyndicator creates a new syndication engine.
func NewSyndicator(
	reviews repository.ReviewRepository,
	bundles repository.BundleRepository,
	links repository.LinkRepository,
	logger *slog.Logger,
) *Syndicator {
	return &Syndicator{
		reviews: reviews,
		bundles: bundles,
		links:   links,
		logger:  logger,
	}
}

// copyFields projects the mutable content of an original review onto a
// syndicated copy.
func copyFields(original *domain.Review) repository.ReviewFields {
	images := original.Images
	if images == nil {
		images = []string{}
	}
	return repository.ReviewFields{
		Rating: &original.Rating,
		Author: &original.Author,
		Email:  &original.Email,
		Title:  &original.Title,
		Body:   &original.Body,
		Images: images,
	}
}

// Syndicate materializes or refreshes a copy of the original review on every
// other member product of the bundle. The operation is idempotent: existing
// copies are overwritten in place, missing copies are created, and at most
// one link exists per target product. Per-target failures are collected in
// the result; only a missing original or bundle is fatal.
func (s *Syndicator) Syndicate(ctx context.Context, originalReviewID, bundleID string) (SweepResult, error) {
	var result SweepResult

	original, err := s.reviews.GetByID(ctx, originalReviewID)
	if err != nil {
		return result, fmt.Errorf("load original review: %w", err)
	}

	bundle, err := s.bundles.GetByID(ctx, bundleID)
	if err != nil {
		return result, fmt.Errorf("load bundle: %w", err)
	}

	ownProduct := domain.NormalizeProductID(original.ProductID)
	for _, target := range bundle.SiblingsOf(ownProduct) {
		if err := s.syndicateTarget(ctx, original, bundle, target); err != nil {
			s.logger.WarnContext(ctx, "failed to syndicate to target product",
				slog.String("original_review_id", originalReviewID),
				slog.String("target_product_id", target),
				slog.String("error", err.Error()),
			)
			result.fail(target, "", err)
			continue
		}
		result.Count++
	}

	return result, nil
}

// syndicateTarget writes the copy for one target product: update in place
// when a link already exists, otherwise create copy and link. A link create
// that loses a concurrent race falls back to updating the winner's copy.
func (s *Syndicator) syndicateTarget(ctx context.Context, original *domain.Review, bundle *domain.Bundle, targetProductID string) error {
	link, err := s.links.FindByOriginalAndProduct(ctx, original.ID, targetProductID)
	if err != nil {
		return fmt.Errorf("find link: %w", err)
	}

	if link != nil {
		return s.refreshCopy(ctx, original, link.CopyReviewID)
	}

	now := time.Now().UTC()
	copyReview := &domain.Review{
		ID:           uuid.New().String(),
		ShopID:       original.ShopID,
		ProductID:    targetProductID,
		Rating:       original.Rating,
		Author:       original.Author,
		Email:        original.Email,
		Title:        original.Title,
		Body:         original.Body,
		Images:       original.Images,
		Status:       domain.ReviewStatusApproved,
		IsSyndicated: true,
		Source:       fmt.Sprintf("syndicated from review %s via bundle %q", original.ID, bundle.Name),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.reviews.Create(ctx, copyReview); err != nil {
		return fmt.Errorf("create copy review: %w", err)
	}

	newLink := &domain.SyndicationLink{
		ID:               uuid.New().String(),
		OriginalReviewID: original.ID,
		CopyReviewID:     copyReview.ID,
		BundleID:         bundle.ID,
		TargetProductID:  targetProductID,
		CreatedAt:        now,
	}

	if err := s.links.Create(ctx, newLink); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			// A concurrent first approval won the race. Discard our copy and
			// refresh the one behind the existing link.
			if delErr := s.reviews.Delete(ctx, copyReview.ID); delErr != nil {
				s.logger.WarnContext(ctx, "failed to remove orphaned copy after link race",
					slog.String("copy_review_id", copyReview.ID),
					slog.String("error", delErr.Error()),
				)
			}
			existing, findErr := s.links.FindByOriginalAndProduct(ctx, original.ID, targetProductID)
			if findErr != nil {
				return fmt.Errorf("find link after race: %w", findErr)
			}
			if existing == nil {
				return fmt.Errorf("link vanished after unique violation for review %s product %s", original.ID, targetProductID)
			}
			return s.refreshCopy(ctx, original, existing.CopyReviewID)
		}
		return fmt.Errorf("create link: %w", err)
	}

	s.logger.InfoContext(ctx, "review syndicated to product",
		slog.String("original_review_id", original.ID),
		slog.String("copy_review_id", copyReview.ID),
		slog.String("target_product_id", targetProductID),
		slog.String("bundle_id", bundle.ID),
	)

	return nil
}

// refreshCopy overwrites a copy's content with the original's and forces its
// status to approved.
func (s *Syndicator) refreshCopy(ctx context.Context, original *domain.Review, copyReviewID string) error {
	if _, err := s.reviews.Update(ctx, copyReviewID, copyFields(original)); err != nil {
		return fmt.Errorf("update copy review: %w", err)
	}
	if err := s.reviews.UpdateStatus(ctx, copyReviewID, domain.ReviewStatusApproved); err != nil {
		return fmt.Errorf("update copy status: %w", err)
	}
	return nil
}

// RemoveForProduct deletes the syndicated copy of the original on one target
// product, along with its link and join-table association. Returns false when
// no copy exists there; absence is not an error.
func (s *Syndicator) RemoveForProduct(ctx context.Context, originalReviewID, targetProductID string) (bool, error) {
	link, err := s.links.FindByOriginalAndProduct(ctx, originalReviewID, targetProductID)
	if err != nil {
		return false, fmt.Errorf("find link: %w", err)
	}
	if link == nil {
		return false, nil
	}

	if err := s.removeLinked(ctx, link); err != nil {
		return false, err
	}

	return true, nil
}

// removeLinked deletes the copy review, the link, and the original's
// association row for the link's target product.
func (s *Syndicator) removeLinked(ctx context.Context, link *domain.SyndicationLink) error {
	if err := s.reviews.Delete(ctx, link.CopyReviewID); err != nil {
		return fmt.Errorf("delete copy review: %w", err)
	}
	if err := s.links.Delete(ctx, link.ID); err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	if err := s.reviews.RemoveProductAssociation(ctx, link.OriginalReviewID, link.TargetProductID); err != nil {
		return fmt.Errorf("remove product association: %w", err)
	}
	return nil
}

// RemoveAll sweeps every syndicated copy derived from the original. The sweep
// is best-effort: a failure on one link is recorded and the rest proceed.
func (s *Syndicator) RemoveAll(ctx context.Context, originalReviewID string) (SweepResult, error) {
	var result SweepResult

	links, err := s.links.ListByOriginal(ctx, originalReviewID)
	if err != nil {
		return result, fmt.Errorf("list links: %w", err)
	}

	for _, link := range links {
		if err := s.removeLinked(ctx, &link); err != nil {
			s.logger.WarnContext(ctx, "failed to remove syndicated copy",
				slog.String("original_review_id", originalReviewID),
				slog.String("copy_review_id", link.CopyReviewID),
				slog.String("error", err.Error()),
			)
			result.fail(link.TargetProductID, link.CopyReviewID, err)
			continue
		}
		result.Count++
	}

	return result, nil
}

// PropagateStatus sets the status of every copy reachable from the original.
// Copies that have vanished are skipped; other failures are recorded and the
// sweep continues.
func (s *Syndicator) PropagateStatus(ctx context.Context, originalReviewID string, status domain.ReviewStatus) (SweepResult, error) {
	var result SweepResult

	links, err := s.links.ListByOriginal(ctx, originalReviewID)
	if err != nil {
		return result, fmt.Errorf("list links: %w", err)
	}

	for _, link := range links {
		err := s.reviews.UpdateStatus(ctx, link.CopyReviewID, status)
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.DebugContext(ctx, "copy missing during status propagation, skipping",
				slog.String("copy_review_id", link.CopyReviewID),
			)
			continue
		}
		if err != nil {
			s.logger.WarnContext(ctx, "failed to propagate status to copy",
				slog.String("copy_review_id", link.CopyReviewID),
				slog.String("status", string(status)),
				slog.String("error", err.Error()),
			)
			result.fail(link.TargetProductID, link.CopyReviewID, err)
			continue
		}
		result.Count++
	}

	return result, nil
}

// PropagateFields overwrites every copy's content with the given fields.
// Used by bundle-scope edits; copies that have vanished are skipped.
func (s *Syndicator) PropagateFields(ctx context.Context, originalReviewID string, fields repository.ReviewFields) (SweepResult, error) {
	var result SweepResult

	links, err := s.links.ListByOriginal(ctx, originalReviewID)
	if err != nil {
		return result, fmt.Errorf("list links: %w", err)
	}

	for _, link := range links {
		_, err := s.reviews.Update(ctx, link.CopyReviewID, fields)
		if errors.Is(err, apperrors.ErrNotFound) {
			continue
		}
		if err != nil {
			s.logger.WarnContext(ctx, "failed to propagate edit to copy",
				slog.String("copy_review_id", link.CopyReviewID),
				slog.String("error", err.Error()),
			)
			result.fail(link.TargetProductID, link.CopyReviewID, err)
			continue
		}
		result.Count++
	}

	return result, nil
}

// IsFirstApproval reports whether the original has no syndication links yet,
// i.e. approving it now should fan out copies rather than refresh them.
func (s *Syndicator) IsFirstApproval(ctx context.Context, originalReviewID string) (bool, error) {
	links, err := s.links.ListByOriginal(ctx, originalReviewID)
	if err != nil {
		return false, fmt.Errorf("list links: %w", err)
	}
	return len(links) == 0, nil
}

// FindOriginalID resolves a syndicated copy back to its original review id.
// Returns "" when the review is not a known copy.
func (s *Syndicator) FindOriginalID(ctx context.Context, copyReviewID string) (string, error) {
	link, err := s.links.FindByCopy(ctx, copyReviewID)
	if err != nil {
		return "", fmt.Errorf("find link by copy: %w", err)
	}
	if link == nil {
		return "", nil
	}
	return link.OriginalReviewID, nil
}
