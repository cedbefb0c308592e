package service

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/stretchr/testify/mock"

	pkgkafka "github.com/SonaliBaghel/Reviews-bundles/pkg/kafka"

	"github.com/SonaliBaghel/Reviews-bundles/internal/domain"
	"github.com/SonaliBaghel/Reviews-bundles/internal/event"
	"github.com/SonaliBaghel/Reviews-bundles/internal/repository"
)

// --- Mock Review Repository ---

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) Update(ctx context.Context, id string, fields repository.ReviewFields) (*domain.Review, error) {
	args := m.Called(ctx, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) UpdateStatus(ctx context.Context, id string, status domain.ReviewStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *mockReviewRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockReviewRepository) List(ctx context.Context, filter repository.ReviewFilter) ([]domain.Review, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func (m *mockReviewRepository) ListApprovedDirect(ctx context.Context, productID string) ([]domain.Review, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *mockReviewRepository) RemoveProductAssociation(ctx context.Context, reviewID, productID string) error {
	args := m.Called(ctx, reviewID, productID)
	return args.Error(0)
}

// --- Mock Bundle Repository ---

type mockBundleRepository struct {
	mock.Mock
}

func (m *mockBundleRepository) GetByID(ctx context.Context, id string) (*domain.Bundle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Bundle), args.Error(1)
}

func (m *mockBundleRepository) GetByProduct(ctx context.Context, productID string) (*domain.Bundle, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Bundle), args.Error(1)
}

// --- Mock Link Repository ---

type mockLinkRepository struct {
	mock.Mock
}

func (m *mockLinkRepository) Create(ctx context.Context, link *domain.SyndicationLink) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *mockLinkRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockLinkRepository) FindByOriginalAndProduct(ctx context.Context, originalReviewID, targetProductID string) (*domain.SyndicationLink, error) {
	args := m.Called(ctx, originalReviewID, targetProductID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SyndicationLink), args.Error(1)
}

func (m *mockLinkRepository) ListByOriginal(ctx context.Context, originalReviewID string) ([]domain.SyndicationLink, error) {
	args := m.Called(ctx, originalReviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SyndicationLink), args.Error(1)
}

func (m *mockLinkRepository) FindByCopy(ctx context.Context, copyReviewID string) (*domain.SyndicationLink, error) {
	args := m.Called(ctx, copyReviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SyndicationLink), args.Error(1)
}

func (m *mockLinkRepository) ListApprovedByTargetProduct(ctx context.Context, productID string) ([]domain.SyndicatedRating, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SyndicatedRating), args.Error(1)
}

// --- Mock Catalog Publisher ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishRating(ctx context.Context, shopID, productID string, agg domain.Aggregate) error {
	args := m.Called(ctx, shopID, productID, agg)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestEventProducer() *event.Producer {
	logger := newTestLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg, logger)
	return event.NewProducer(kafkaProducer, logger)
}

type serviceFixture struct {
	reviews   *mockReviewRepository
	bundles   *mockBundleRepository
	links     *mockLinkRepository
	publisher *mockPublisher
	svc       *ReviewService
}

func newServiceFixture() *serviceFixture {
	reviews := new(mockReviewRepository)
	bundles := new(mockBundleRepository)
	links := new(mockLinkRepository)
	publisher := new(mockPublisher)
	logger := newTestLogger()

	aggregator := NewAggregator(reviews, links, logger)
	syndicator := NewSyndicator(reviews, bundles, links, logger)
	svc := NewReviewService(reviews, bundles, aggregator, syndicator, publisher, newTestEventProducer(), logger)

	return &serviceFixture{
		reviews:   reviews,
		bundles:   bundles,
		links:     links,
		publisher: publisher,
		svc:       svc,
	}
}

// expectRepublish wires the aggregate-and-publish fan-out with empty results
// for tests that exercise the mutation path rather than the aggregation math.
func (f *serviceFixture) expectRepublish() {
	f.reviews.On("ListApprovedDirect", mock.Anything, mock.Anything).Return([]domain.Review{}, nil).Maybe()
	f.links.On("ListApprovedByTargetProduct", mock.Anything, mock.Anything).Return([]domain.SyndicatedRating{}, nil).Maybe()
	f.publisher.On("PublishRating", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
}

func approvedOriginal() *domain.Review {
	now := time.Now().UTC()
	return &domain.Review{
		ID:        "rev-orig",
		ShopID:    "shop-1",
		ProductID: "prod-a",
		Rating:    5,
		Author:    "Dana K.",
		Email:     "dana@example.com",
		Title:     "Excellent",
		Body:      "Exactly as described.",
		Images:    []string{"img-1.jpg"},
		Status:    domain.ReviewStatusApproved,
		Source:    "customer submission",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func syndicatedCopy() *domain.Review {
	now := time.Now().UTC()
	return &domain.Review{
		ID:           "rev-copy-b",
		ShopID:       "shop-1",
		ProductID:    "prod-b",
		Rating:       5,
		Author:       "Dana K.",
		Email:        "dana@example.com",
		Title:        "Excellent",
		Body:         "Exactly as described.",
		Status:       domain.ReviewStatusApproved,
		IsSyndicated: true,
		Source:       `syndicated from review rev-orig via bundle "Starter Kit"`,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func threeProductBundle() *domain.Bundle {
	now := time.Now().UTC()
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

func linkTo(target, copyID string) domain.SyndicationLink {
	return domain.SyndicationLink{
		ID:               "link-" + target,
		OriginalReviewID: "rev-orig",
		CopyReviewID:     copyID,
		BundleID:         "bundle-1",
		TargetProductID:  target,
		CreatedAt:        time.Now().UTC(),
	}
}
