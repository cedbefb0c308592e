package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	pkgkafka "github.com/SonaliBaghel/Reviews-bundles/pkg/kafka"
)

// Kafka topic constants for catalog domain events consumed by the review service.
const (
	TopicProductDeleted = "catalog.product.deleted"
)

// ProductDeletedData represents the payload from a catalog product.deleted event.
type ProductDeletedData struct {
	ID     string `json:"id"`
	ShopID string `json:"shop_id"`
}

// ReviewPurger removes every review instance attached to a product.
type ReviewPurger interface {
	PurgeProduct(ctx context.Context, productID string) error
}

// Consumer handles Kafka events from the catalog that affect stored reviews.
type Consumer struct {
	reviews ReviewPurger
	logger  *slog.Logger
}

// NewConsumer creates a new catalog event consumer for the review service.
func NewConsumer(reviews ReviewPurger, logger *slog.Logger) *Consumer {
	return &Consumer{
		reviews: reviews,
		logger:  logger,
	}
}

// Handle processes a Kafka event based on its type.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicProductDeleted:
		return c.handleProductDeleted(ctx, event)
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

// handleProductDeleted purges every review on a product the catalog removed.
func (c *Consumer) handleProductDeleted(ctx context.Context, event *pkgkafka.Event) error {
	var data ProductDeletedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal product.deleted data: %w", err)
	}

	if data.ID == "" {
		c.logger.WarnContext(ctx, "product.deleted event without product id, skipping",
			slog.String("event_id", event.EventID),
		)
		return nil
	}

	if err := c.reviews.PurgeProduct(ctx, data.ID); err != nil {
		return fmt.Errorf("purge reviews from product.deleted event: %w", err)
	}

	c.logger.InfoContext(ctx, "purged reviews from product.deleted event",
		slog.String("product_id", data.ID),
	)

	return nil
}
