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

const maxWishlistBodySize = 16 * 1024

// WishlistHandlers exposes the wishlist endpoints.
type WishlistHandlers struct {
	wishlists services.WishlistService
}

// NewWishlistHandlers constructs a new WishlistHandlers instance.
func NewWishlistHandlers(wishlists services.WishlistService) *WishlistHandlers {
	return &WishlistHandlers{wishlists: wishlists}
}

// Routes registers the /wishlist endpoints.
func (h *WishlistHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.addItem)
	r.Get("/{email}", h.listItems)
	r.Delete("/{itemID}", h.removeItem)
}

func (h *WishlistHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.wishlists == nil {
		httpx.WriteError(ctx, w, httpx.NewError("wishlist_service_unavailable", "wishlist service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxWishlistBodySize)
	if err != nil {
		writeOrderBodyError(ctx, w, err)
		return
	}

	var req addWishlistItemRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	item, err := h.wishlists.Add(ctx, services.AddWishlistItemCommand{
		UserEmail: strings.TrimSpace(req.UserEmail),
		BookID:    strings.TrimSpace(req.BookID),
	})
	if err != nil {
		writeWishlistError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, buildWishlistItemPayload(item))
}

func (h *WishlistHandlers) listItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.wishlists == nil {
		httpx.WriteError(ctx, w, httpx.NewError("wishlist_service_unavailable", "wishlist service unavailable", http.StatusServiceUnavailable))
		return
	}

	items, err := h.wishlists.ListByUser(ctx, chi.URLParam(r, "email"))
	if err != nil {
		writeWishlistError(ctx, w, err)
		return
	}

	payload := wishlistResponse{Items: make([]wishlistItemPayload, 0, len(items))}
	for _, item := range items {
		payload.Items = append(payload.Items, buildWishlistItemPayload(item))
	}

	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *WishlistHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.wishlists == nil {
		httpx.WriteError(ctx, w, httpx.NewError("wishlist_service_unavailable", "wishlist service unavailable", http.StatusServiceUnavailable))
		return
	}

	if err := h.wishlists.Remove(ctx, chi.URLParam(r, "itemID")); err != nil {
		writeWishlistError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type addWishlistItemRequest struct {
	UserEmail string `json:"userEmail"`
	BookID    string `json:"bookId"`
}

type wishlistResponse struct {
	Items []wishlistItemPayload `json:"items"`
}

type wishlistItemPayload struct {
	ID        string `json:"id"`
	UserEmail string `json:"userEmail"`
	BookID    string `json:"bookId"`
	AddedAt   string `json:"addedAt"`
}

func buildWishlistItemPayload(item services.WishlistItem) wishlistItemPayload {
	return wishlistItemPayload{
		ID:        item.ID,
		UserEmail: item.UserEmail,
		BookID:    item.BookID,
		AddedAt:   formatTime(item.AddedAt),
	}
}

func writeWishlistError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrWishlistInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrWishlistNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", "wishlist item not found", http.StatusNotFound))
	default:
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsUnavailable() {
			httpx.WriteError(ctx, w, httpx.NewError("wishlist_service_unavailable", "wishlist repository unavailable", http.StatusServiceUnavailable))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("wishlist_error", "failed to process wishlist request", http.StatusInternalServerError))
	}
}
