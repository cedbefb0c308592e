package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	apperrors "github.com/SonaliBaghel/Reviews-bundles/pkg/errors"
	"github.com/SonaliBaghel/Reviews-bundles/pkg/httpclient"

	"github.com/SonaliBaghel/Reviews-bundles/internal/domain"
)

// Publisher pushes per-product rating aggregates to the storefront catalog.
type Publisher interface {
	PublishRating(ctx context.Context, shopID, productID string, agg domain.Aggregate) error
}

// HTTPDoer is the interface for executing HTTP requests.
// Both httpclient.Client and httpclient.CircuitBreakerClient satisfy this.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// CircuitOpenFallback is a fallback function for the catalog publisher's
// circuit breaker. When the circuit is open it returns a structured error with
// a retry hint instead of letting the raw ErrCircuitOpen propagate.
func CircuitOpenFallback(_ context.Context, _ error) (*http.Response, error) {
	return nil, apperrors.ServiceUnavailable("catalog service is temporarily unavailable, please retry after 30 seconds")
}

// HTTPPublisher publishes rating aggregates to the catalog service over HTTP.
type HTTPPublisher struct {
	httpClient     HTTPDoer
	catalogBaseURL string
	logger         *slog.Logger
}

// NewHTTPPublisher creates a publisher that talks to the catalog service at baseURL.
func NewHTTPPublisher(httpClient HTTPDoer, baseURL string, logger *slog.Logger) *HTTPPublisher {
	return &HTTPPublisher{
		httpClient:     httpClient,
		catalogBaseURL: baseURL,
		logger:         logger,
	}
}

type publishRatingRequest struct {
	ShopID      string  `json:"shop_id"`
	ReviewCount int     `json:"review_count"`
	RatingMean  float64 `json:"rating_mean"`
}

// PublishRating pushes the aggregate for one product to the catalog service.
// Failures are wrapped as catalog-publish errors so callers can treat them as
// non-fatal to the originating write.
func (p *HTTPPublisher) PublishRating(ctx context.Context, shopID, productID string, agg domain.Aggregate) error {
	body, err := json.Marshal(publishRatingRequest{
		ShopID:      shopID,
		ReviewCount: agg.Count,
		RatingMean:  agg.Mean,
	})
	if err != nil {
		return fmt.Errorf("marshal rating payload: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/products/%s/rating", p.catalogBaseURL, productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create publish request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(ctx, req)
	if err != nil {
		return apperrors.CatalogPublishFailed(productID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.CatalogPublishFailed(productID, httpclient.ParseResponseError(resp, "catalog"))
	}

	p.logger.InfoContext(ctx, "rating published to catalog",
		slog.String("product_id", productID),
		slog.Int("review_count", agg.Count),
		slog.Float64("rating_mean", agg.Mean),
	)

	return nil
}
