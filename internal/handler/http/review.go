package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/SonaliBaghel/Reviews-bundles/pkg/errors"
	"github.com/SonaliBaghel/Reviews-bundles/pkg/httputil"
	"github.com/SonaliBaghel/Reviews-bundles/pkg/pagination"
	"github.com/SonaliBaghel/Reviews-bundles/pkg/validator"

	"github.com/SonaliBaghel/Reviews-bundles/internal/domain"
	"github.com/SonaliBaghel/Reviews-bundles/internal/service"
)

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// SubmitReviewRequest is the JSON request body for submitting a review.
type SubmitReviewRequest struct {
	Rating int      `json:"rating" validate:"required,min=1,max=5"`
	Author string   `json:"author" validate:"required,max=255"`
	Email  string   `json:"email" validate:"omitempty,email"`
	Title  string   `json:"title" validate:"required,max=255"`
	Body   string   `json:"body" validate:"required"`
	Images []string `json:"images" validate:"max=10"`
}

// ChangeStatusRequest is the JSON request body for a status transition.
type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending approved rejected"`
}

// EditReviewRequest is the JSON request body for editing a review. Absent
// fields leave the stored values untouched.
type EditReviewRequest struct {
	Rating         *int     `json:"rating" validate:"omitempty,min=1,max=5"`
	Author         *string  `json:"author" validate:"omitempty,min=1,max=255"`
	Email          *string  `json:"email" validate:"omitempty,email"`
	Title          *string  `json:"title" validate:"omitempty,min=1,max=255"`
	Body           *string  `json:"body" validate:"omitempty,min=1"`
	ImagesToRemove []string `json:"images_to_remove"`
}

// scopeFromRequest reads the scope query parameter, defaulting to individual.
func scopeFromRequest(r *http.Request) (domain.Scope, error) {
	v := r.URL.Query().Get("scope")
	if v == "" {
		return domain.ScopeIndividual, nil
	}
	scope := domain.Scope(v)
	if !scope.Valid() {
		return "", apperrors.InvalidInput("scope must be individual or bundle")
	}
	return scope, nil
}

// --- Handlers ---

// SubmitReview handles POST /api/v1/products/{productId}/reviews
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	if productID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "product id is required"},
		})
		return
	}

	shopID := r.Header.Get("X-Shop-ID")
	if shopID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "X-Shop-ID header is required"},
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	var req SubmitReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := &service.SubmitReviewInput{
		ShopID:    shopID,
		ProductID: productID,
		Rating:    req.Rating,
		Author:    req.Author,
		Email:     req.Email,
		Title:     req.Title,
		Body:      req.Body,
		Images:    req.Images,
	}

	review, err := h.service.SubmitReview(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: review})
}

// GetReview handles GET /api/v1/reviews/{id}
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "review id is required"},
		})
		return
	}

	review, err := h.service.GetReview(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// ListReviews handles GET /api/v1/products/{productId}/reviews
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	if productID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "product id is required"},
		})
		return
	}

	params := pagination.FromRequest(r)

	input := service.ListReviewsInput{
		ProductID: productID,
		Status:    r.URL.Query().Get("status"),
		ShopID:    r.URL.Query().Get("shop_id"),
		Page:      params.Page,
		PerPage:   params.PerPage,
	}
	if v := r.URL.Query().Get("is_syndicated"); v != "" {
		isSyndicated := v == "true"
		input.IsSyndicated = &isSyndicated
	}

	reviews, total, err := h.service.ListReviews(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(reviews, total, params.Page, params.PerPage))
}

// ChangeStatus handles PUT /api/v1/reviews/{id}/status
func (h *ReviewHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "review id is required"},
		})
		return
	}

	scope, err := scopeFromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	var req ChangeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.service.ChangeStatus(r.Context(), id, domain.ReviewStatus(req.Status), scope); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{
		"review_id": id,
		"status":    req.Status,
		"scope":     string(scope),
	}})
}

// EditReview handles PUT /api/v1/reviews/{id}
func (h *ReviewHandler) EditReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "review id is required"},
		})
		return
	}

	scope, err := scopeFromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	var req EditReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	input := &service.EditReviewInput{
		Rating:         req.Rating,
		Author:         req.Author,
		Email:          req.Email,
		Title:          req.Title,
		Body:           req.Body,
		ImagesToRemove: req.ImagesToRemove,
	}

	review, err := h.service.EditReview(r.Context(), id, input, scope)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// DeleteReview handles DELETE /api/v1/reviews/{id}
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "review id is required"},
		})
		return
	}

	scope, err := scopeFromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if err := h.service.DeleteReview(r.Context(), id, scope); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusNoContent, nil)
}
