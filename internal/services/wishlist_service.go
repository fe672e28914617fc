package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/bookcourier/api/internal/repositories"
)

const wishlistItemIDPrefix = "wsh_"

var (
	// ErrWishlistInvalidInput signals the caller provided invalid data.
	ErrWishlistInvalidInput = errors.New("wishlist: invalid input")
	// ErrWishlistNotFound indicates the wishlist item could not be located.
	ErrWishlistNotFound = errors.New("wishlist: not found")
)

// WishlistServiceDeps bundles collaborators required to construct the wishlist service.
type WishlistServiceDeps struct {
	Wishlists   repositories.WishlistRepository
	Clock       func() time.Time
	IDGenerator func() string
}

type wishlistService struct {
	wishlists repositories.WishlistRepository
	clock     func() time.Time
	newID     func() string
}

// NewWishlistService wires dependencies into a concrete WishlistService implementation.
func NewWishlistService(deps WishlistServiceDeps) (WishlistService, error) {
	if deps.Wishlists == nil {
		return nil, errors.New("wishlist service: wishlist repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}

	return &wishlistService{
		wishlists: deps.Wishlists,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID: idGen,
	}, nil
}

func (s *wishlistService) Add(ctx context.Context, cmd AddWishlistItemCommand) (WishlistItem, error) {
	email := strings.ToLower(strings.TrimSpace(cmd.UserEmail))
	if email == "" {
		return WishlistItem{}, fmt.Errorf("%w: user email is required", ErrWishlistInvalidInput)
	}
	bookID := strings.TrimSpace(cmd.BookID)
	if bookID == "" {
		return WishlistItem{}, fmt.Errorf("%w: book id is required", ErrWishlistInvalidInput)
	}

	item := WishlistItem{
		ID:        wishlistItemIDPrefix + s.newID(),
		UserEmail: email,
		BookID:    bookID,
		AddedAt:   s.clock(),
	}

	if err := s.wishlists.Insert(ctx, item); err != nil {
		return WishlistItem{}, s.mapRepositoryError(err)
	}
	return item, nil
}

func (s *wishlistService) ListByUser(ctx context.Context, email string) ([]WishlistItem, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return nil, fmt.Errorf("%w: email is required", ErrWishlistInvalidInput)
	}

	items, err := s.wishlists.ListByUser(ctx, normalized)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return items, nil
}

func (s *wishlistService) Remove(ctx context.Context, itemID string) error {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return fmt.Errorf("%w: item id is required", ErrWishlistInvalidInput)
	}

	if err := s.wishlists.Delete(ctx, itemID); err != nil {
		return s.mapRepositoryError(err)
	}
	return nil
}

func (s *wishlistService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrWishlistNotFound, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("wishlist: repository unavailable: %w", err)
		}
	}

	return err
}
