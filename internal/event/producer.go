package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/SonaliBaghel/Reviews-bundles/pkg/kafka"

	"github.com/SonaliBaghel/Reviews-bundles/internal/domain"
)

// Kafka topic constants for review domain events.
const (
	TopicReviewCreated       = "reviews.review.created"
	TopicReviewStatusChanged = "reviews.review.status_changed"
	TopicReviewEdited        = "reviews.review.edited"
	TopicReviewDeleted       = "reviews.review.deleted"
	TopicReviewSyndicated    = "reviews.review.syndicated"
	TopicRatingPublished     = "reviews.rating.published"
)

// Aggregate type constants.
const (
	AggregateTypeReview = "review"
	AggregateTypeRating = "rating"
)

// Source identifier for events originating from this service.
const SourceReviewService = "review-service"

// ReviewCreatedData is the payload for a review.created event.
type ReviewCreatedData struct {
	ID        string `json:"id"`
	ShopID    string `json:"shop_id"`
	ProductID string `json:"product_id"`
	Rating    int    `json:"rating"`
	Status    string `json:"status"`
}

// ReviewStatusChangedData is the payload for a review.status_changed event.
type ReviewStatusChangedData struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
	Scope     string `json:"scope"`
}

// ReviewEditedData is the payload for a review.edited event.
type ReviewEditedData struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Scope     string `json:"scope"`
}

// ReviewDeletedData is the payload for a review.deleted event.
type ReviewDeletedData struct {
	ID            string   `json:"id"`
	ProductID     string   `json:"product_id"`
	Scope         string   `json:"scope"`
	CopiesRemoved int      `json:"copies_removed"`
	Products      []string `json:"affected_products"`
}

// ReviewSyndicatedData is the payload for a review.syndicated event.
type ReviewSyndicatedData struct {
	OriginalReviewID string   `json:"original_review_id"`
	BundleID         string   `json:"bundle_id"`
	TargetProducts   []string `json:"target_products"`
	CopiesWritten    int      `json:"copies_written"`
}

// RatingPublishedData is the payload for a rating.published event.
type RatingPublishedData struct {
	ProductID   string  `json:"product_id"`
	ShopID      string  `json:"shop_id"`
	ReviewCount int     `json:"review_count"`
	RatingMean  float64 `json:"rating_mean"`
}

// Producer publishes review domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the review service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	data := ReviewCreatedData{
		ID:        review.ID,
		ShopID:    review.ShopID,
		ProductID: review.ProductID,
		Rating:    review.Rating,
		Status:    string(review.Status),
	}

	event, err := pkgkafka.NewEvent(TopicReviewCreated, review.ID, AggregateTypeReview, SourceReviewService, data)
	if err != nil {
		return fmt.Errorf("create review.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewCreated, event); err != nil {
		return fmt.Errorf("publish review.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.created event",
		slog.String("review_id", review.ID),
		slog.String("product_id", review.ProductID),
	)

	return nil
}

// PublishReviewStatusChanged publishes a review.status_changed event.
func (p *Producer) PublishReviewStatusChanged(ctx context.Context, review *domain.Review, oldStatus, newStatus domain.ReviewStatus, scope domain.Scope) error {
	data := ReviewStatusChangedData{
		ID:        review.ID,
		ProductID: review.ProductID,
		OldStatus: string(oldStatus),
		NewStatus: string(newStatus),
		Scope:     string(scope),
	}

	event, err := pkgkafka.NewEvent(TopicReviewStatusChanged, review.ID, AggregateTypeReview, SourceReviewService, data)
	if err != nil {
		return fmt.Errorf("create review.status_changed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewStatusChanged, event); err != nil {
		return fmt.Errorf("publish review.status_changed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.status_changed event",
		slog.String("review_id", review.ID),
		slog.String("new_status", string(newStatus)),
	)

	return nil
}

// PublishReviewEdited publishes a review.edited event.
func (p *Producer) PublishReviewEdited(ctx context.Context, review *domain.Review, scope domain.Scope) error {
	data := ReviewEditedData{
		ID:        review.ID,
		ProductID: review.ProductID,
		Scope:     string(scope),
	}

	event, err := pkgkafka.NewEvent(TopicReviewEdited, review.ID, AggregateTypeReview, SourceReviewService, data)
	if err != nil {
		return fmt.Errorf("create review.edited event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewEdited, event); err != nil {
		return fmt.Errorf("publish review.edited event: %w", err)
	}

	return nil
}

// PublishReviewDeleted publishes a review.deleted event.
func (p *Producer) PublishReviewDeleted(ctx context.Context, reviewID, productID string, scope domain.Scope, copiesRemoved int, affected []string) error {
	data := ReviewDeletedData{
		ID:            reviewID,
		ProductID:     productID,
		Scope:         string(scope),
		CopiesRemoved: copiesRemoved,
		Products:      affected,
	}

	event, err := pkgkafka.NewEvent(TopicReviewDeleted, reviewID, AggregateTypeReview, SourceReviewService, data)
	if err != nil {
		return fmt.Errorf("create review.deleted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewDeleted, event); err != nil {
		return fmt.Errorf("publish review.deleted event: %w", err)
	}

	return nil
}

// PublishReviewSyndicated publishes a review.syndicated event.
func (p *Producer) PublishReviewSyndicated(ctx context.Context, originalReviewID, bundleID string, targets []string, copiesWritten int) error {
	data := ReviewSyndicatedData{
		OriginalReviewID: originalReviewID,
		BundleID:         bundleID,
		TargetProducts:   targets,
		CopiesWritten:    copiesWritten,
	}

	event, err := pkgkafka.NewEvent(TopicReviewSyndicated, originalReviewID, AggregateTypeReview, SourceReviewService, data)
	if err != nil {
		return fmt.Errorf("create review.syndicated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReviewSyndicated, event); err != nil {
		return fmt.Errorf("publish review.syndicated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.syndicated event",
		slog.String("original_review_id", originalReviewID),
		slog.String("bundle_id", bundleID),
		slog.Int("copies_written", copiesWritten),
	)

	return nil
}

// PublishRatingPublished publishes a rating.published event.
func (p *Producer) PublishRatingPublished(ctx context.Context, shopID, productID string, agg domain.Aggregate) error {
	data := RatingPublishedData{
		ProductID:   productID,
		ShopID:      shopID,
		ReviewCount: agg.Count,
		RatingMean:  agg.Mean,
	}

	event, err := pkgkafka.NewEvent(TopicRatingPublished, productID, AggregateTypeRating, SourceReviewService, data)
	if err != nil {
		return fmt.Errorf("create rating.published event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicRatingPublished, event); err != nil {
		return fmt.Errorf("publish rating.published event: %w", err)
	}

	return nil
}
