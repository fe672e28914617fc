package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bookcourier/api/internal/platform/httpx"
	"github.com/bookcourier/api/internal/repositories"
	"github.com/bookcourier/api/internal/services"
)

const maxReviewBodySize = 32 * 1024

// ReviewHandlers exposes endpoints for creating and retrieving book reviews.
type ReviewHandlers struct {
	reviews services.ReviewService
}

// NewReviewHandlers constructs a new ReviewHandlers instance.
func NewReviewHandlers(reviews services.ReviewService) *ReviewHandlers {
	return &ReviewHandlers{reviews: reviews}
}

// Routes registers the /reviews endpoints.
func (h *ReviewHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.createReview)
	r.Get("/{bookID}", h.listReviews)
}

func (h *ReviewHandlers) createReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.reviews == nil {
		httpx.WriteError(ctx, w, httpx.NewError("review_service_unavailable", "review service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxReviewBodySize)
	if err != nil {
		writeOrderBodyError(ctx, w, err)
		return
	}

	var req createReviewRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	review, err := h.reviews.Create(ctx, services.CreateReviewCommand{
		BookID:    strings.TrimSpace(req.BookID),
		UserEmail: strings.TrimSpace(req.UserEmail),
		Rating:    req.Rating,
		Text:      req.Text,
	})
	if err != nil {
		writeReviewError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, buildReviewPayload(review))
}

func (h *ReviewHandlers) listReviews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.reviews == nil {
		httpx.WriteError(ctx, w, httpx.NewError("review_service_unavailable", "review service unavailable", http.StatusServiceUnavailable))
		return
	}

	reviews, err := h.reviews.ListByBook(ctx, chi.URLParam(r, "bookID"))
	if err != nil {
		writeReviewError(ctx, w, err)
		return
	}

	payload := reviewListResponse{Reviews: make([]reviewPayload, 0, len(reviews))}
	for _, review := range reviews {
		payload.Reviews = append(payload.Reviews, buildReviewPayload(review))
	}

	writeJSONResponse(w, http.StatusOK, payload)
}

type createReviewRequest struct {
	BookID    string `json:"bookId"`
	UserEmail string `json:"userEmail"`
	Rating    int    `json:"rating"`
	Text      string `json:"text"`
}

type reviewListResponse struct {
	Reviews []reviewPayload `json:"reviews"`
}

type reviewPayload struct {
	ID        string `json:"id"`
	BookID    string `json:"bookId"`
	UserEmail string `json:"userEmail"`
	Rating    int    `json:"rating"`
	Text      string `json:"text,omitempty"`
	CreatedAt string `json:"createdAt"`
}

func buildReviewPayload(review services.Review) reviewPayload {
	return reviewPayload{
		ID:        review.ID,
		BookID:    review.BookID,
		UserEmail: review.UserEmail,
		Rating:    review.Rating,
		Text:      review.Text,
		CreatedAt: formatTime(review.CreatedAt),
	}
}

func writeReviewError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrReviewInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrReviewNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", "review not found", http.StatusNotFound))
	default:
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsUnavailable() {
			httpx.WriteError(ctx, w, httpx.NewError("review_service_unavailable", "review repository unavailable", http.StatusServiceUnavailable))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("review_error", "failed to process review request", http.StatusInternalServerError))
	}
}
