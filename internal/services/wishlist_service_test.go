package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/bookcourier/api/internal/domain"
)

type stubWishlistRepo struct {
	insertFn func(context.Context, domain.WishlistItem) error
	deleteFn func(context.Context, string) error
	listFn   func(context.Context, string) ([]domain.WishlistItem, error)
}

func (s *stubWishlistRepo) Insert(ctx context.Context, item domain.WishlistItem) error {
	if s.insertFn != nil {
		return s.insertFn(ctx, item)
	}
	return nil
}

func (s *stubWishlistRepo) Delete(ctx context.Context, itemID string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, itemID)
	}
	return nil
}

func (s *stubWishlistRepo) ListByUser(ctx context.Context, email string) ([]domain.WishlistItem, error) {
	if s.listFn != nil {
		return s.listFn(ctx, email)
	}
	return nil, nil
}

func newTestWishlistService(t *testing.T, repo *stubWishlistRepo, now time.Time) WishlistService {
	t.Helper()
	svc, err := NewWishlistService(WishlistServiceDeps{
		Wishlists: repo,
		Clock: func() time.Time {
			return now
		},
		IDGenerator: func() string { return "000TEST" },
	})
	if err != nil {
		t.Fatalf("new wishlist service: %v", err)
	}
	return svc
}

func TestWishlistServiceAdd(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	var inserted domain.WishlistItem

	repo := &stubWishlistRepo{
		insertFn: func(_ context.Context, item domain.WishlistItem) error {
			inserted = item
			return nil
		},
	}
	svc := newTestWishlistService(t, repo, now)

	item, err := svc.Add(ctx, AddWishlistItemCommand{UserEmail: "Reader@Example.com", BookID: "bk_1"})
	if err != nil {
		t.Fatalf("add wishlist item: %v", err)
	}

	if item.ID != "wsh_000TEST" {
		t.Fatalf("unexpected item id %s", item.ID)
	}
	if item.UserEmail != "reader@example.com" {
		t.Fatalf("expected lowercased email got %s", item.UserEmail)
	}
	if !item.AddedAt.Equal(now) {
		t.Fatalf("expected addedAt %v got %v", now, item.AddedAt)
	}
	if inserted.ID != item.ID {
		t.Fatalf("expected insert of %s got %s", item.ID, inserted.ID)
	}
}

func TestWishlistServiceValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestWishlistService(t, &stubWishlistRepo{}, time.Now())

	if _, err := svc.Add(ctx, AddWishlistItemCommand{BookID: "bk_1"}); !errors.Is(err, ErrWishlistInvalidInput) {
		t.Fatalf("expected invalid input for missing email, got %v", err)
	}
	if _, err := svc.Add(ctx, AddWishlistItemCommand{UserEmail: "a@b.c"}); !errors.Is(err, ErrWishlistInvalidInput) {
		t.Fatalf("expected invalid input for missing book, got %v", err)
	}
	if _, err := svc.ListByUser(ctx, "  "); !errors.Is(err, ErrWishlistInvalidInput) {
		t.Fatalf("expected invalid input for blank email, got %v", err)
	}
	if err := svc.Remove(ctx, ""); !errors.Is(err, ErrWishlistInvalidInput) {
		t.Fatalf("expected invalid input for blank id, got %v", err)
	}
}

func TestWishlistServiceRemoveMapsNotFound(t *testing.T) {
	ctx := context.Background()
	repo := &stubWishlistRepo{
		deleteFn: func(context.Context, string) error {
			return &stubRepoError{msg: "missing", notFound: true}
		},
	}
	svc := newTestWishlistService(t, repo, time.Now())

	if err := svc.Remove(ctx, "wsh_missing"); !errors.Is(err, ErrWishlistNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
