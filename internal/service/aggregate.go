package service

import (
	"context"
	"log/slog"

	apperrors "github.com/SonaliBaghel/Reviews-bundles/pkg/errors"

	"github.com/SonaliBaghel/Reviews-bundles/internal/domain"
	"github.com/SonaliBaghel/Reviews-bundles/internal/repository"
)

// dedupKind tags an entry in the aggregation set by its provenance.
type dedupKind uint8

const (
	dedupDirect dedupKind = iota
	dedupSyndicated
)

// dedupKey identifies one countable review entry for a product. Direct
// reviews are keyed by their own id; syndicated entries are keyed by the link
// and the original's id, so an original counted directly on its own product
// can never be re-counted through a link.
type dedupKey struct {
	kind     dedupKind
	linkID   string
	reviewID string
}

// Aggregator computes deduplicated per-product rating aggregates. It is a
// pure read-and-compute engine with no side effects.
type Aggregator struct {
	reviews repository.ReviewRepository
	links   repository.LinkRepository
	logger  *slog.Logger
}

// NewAggregator creates a new aggregation engine.
func NewAggregator(reviews repository.ReviewRepository, links repository.LinkRepository, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		reviews: reviews,
		links:   links,
		logger:  logger,
	}
}

// ComputeAggregate returns the deduplicated {count, mean} over approved
// reviews attributable to the product: direct reviews owned by it plus
// syndicated copies targeting it. Store failures surface as store-unavailable
// errors; the caller decides whether to retry.
func (a *Aggregator) ComputeAggregate(ctx context.Context, productID string) (domain.Aggregate, error) {
	productID = domain.NormalizeProductID(productID)
	if productID == "" {
		return domain.Aggregate{}, apperrors.InvalidInput("product id is required")
	}

	direct, err := a.reviews.ListApprovedDirect(ctx, productID)
	if err != nil {
		return domain.Aggregate{}, apperrors.StoreUnavailable(err)
	}

	syndicated, err := a.links.ListApprovedByTargetProduct(ctx, productID)
	if err != nil {
		return domain.Aggregate{}, apperrors.StoreUnavailable(err)
	}

	ratings := make(map[dedupKey]int, len(direct)+len(syndicated))
	for _, rv := range direct {
		ratings[dedupKey{kind: dedupDirect, reviewID: rv.ID}] = rv.Rating
	}
	for _, sr := range syndicated {
		ratings[dedupKey{kind: dedupSyndicated, linkID: sr.LinkID, reviewID: sr.OriginalReviewID}] = sr.Rating
	}

	agg := domain.Aggregate{Count: len(ratings)}
	if agg.Count > 0 {
		sum := 0
		for _, rating := range ratings {
			sum += rating
		}
		agg.Mean = float64(sum) / float64(agg.Count)
	}

	a.logger.DebugContext(ctx, "aggregate computed",
		slog.String("product_id", productID),
		slog.Int("review_count", agg.Count),
		slog.Float64("rating_mean", agg.Mean),
	)

	return agg, nil
}
