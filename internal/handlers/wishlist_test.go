package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bookcourier/api/internal/services"
)

type stubWishlistService struct {
	addFn    func(context.Context, services.AddWishlistItemCommand) (services.WishlistItem, error)
	listFn   func(context.Context, string) ([]services.WishlistItem, error)
	removeFn func(context.Context, string) error
}

func (s *stubWishlistService) Add(ctx context.Context, cmd services.AddWishlistItemCommand) (services.WishlistItem, error) {
	if s.addFn != nil {
		return s.addFn(ctx, cmd)
	}
	return services.WishlistItem{}, errors.New("not implemented")
}

func (s *stubWishlistService) ListByUser(ctx context.Context, email string) ([]services.WishlistItem, error) {
	if s.listFn != nil {
		return s.listFn(ctx, email)
	}
	return nil, nil
}

func (s *stubWishlistService) Remove(ctx context.Context, itemID string) error {
	if s.removeFn != nil {
		return s.removeFn(ctx, itemID)
	}
	return errors.New("not implemented")
}

func newWishlistRouter(service services.WishlistService) chi.Router {
	handler := NewWishlistHandlers(service)
	router := chi.NewRouter()
	router.Route("/wishlist", handler.Routes)
	return router
}

func TestWishlistHandlersAddItem(t *testing.T) {
	now := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)

	service := &stubWishlistService{
		addFn: func(_ context.Context, cmd services.AddWishlistItemCommand) (services.WishlistItem, error) {
			return services.WishlistItem{
				ID:        "wsh_123",
				UserEmail: "reader@example.com",
				BookID:    cmd.BookID,
				AddedAt:   now,
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/wishlist", strings.NewReader(`{"userEmail":"reader@example.com","bookId":"bk_1"}`))
	rr := httptest.NewRecorder()
	newWishlistRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var payload wishlistItemPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.ID != "wsh_123" || payload.BookID != "bk_1" {
		t.Fatalf("unexpected payload %#v", payload)
	}
}

func TestWishlistHandlersListItems(t *testing.T) {
	var capturedEmail string
	service := &stubWishlistService{
		listFn: func(_ context.Context, email string) ([]services.WishlistItem, error) {
			capturedEmail = email
			return []services.WishlistItem{{ID: "wsh_1"}, {ID: "wsh_2"}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/wishlist/reader@example.com", nil)
	rr := httptest.NewRecorder()
	newWishlistRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if capturedEmail != "reader@example.com" {
		t.Fatalf("unexpected email %q", capturedEmail)
	}

	var payload wishlistResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(payload.Items))
	}
}

func TestWishlistHandlersRemoveItemNotFound(t *testing.T) {
	service := &stubWishlistService{
		removeFn: func(_ context.Context, itemID string) error {
			return fmt.Errorf("%w: %s", services.ErrWishlistNotFound, itemID)
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/wishlist/wsh_missing", nil)
	rr := httptest.NewRecorder()
	newWishlistRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestWishlistHandlersRemoveItem(t *testing.T) {
	service := &stubWishlistService{
		removeFn: func(context.Context, string) error { return nil },
	}

	req := httptest.NewRequest(http.MethodDelete, "/wishlist/wsh_1", nil)
	rr := httptest.NewRecorder()
	newWishlistRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
}
