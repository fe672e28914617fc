package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	domain "github.com/bookcourier/api/internal/domain"
	pfirestore "github.com/bookcourier/api/internal/platform/firestore"
	"github.com/bookcourier/api/internal/repositories"
)

const wishlistCollection = "wishlists"

// WishlistRepository persists per-user book bookmarks in Firestore.
type WishlistRepository struct {
	base *pfirestore.BaseRepository[wishlistDocument]
}

// NewWishlistRepository constructs a Firestore-backed wishlist repository.
func NewWishlistRepository(provider *pfirestore.Provider) (*WishlistRepository, error) {
	if provider == nil {
		return nil, errors.New("wishlist repository requires firestore provider")
	}

	base := pfirestore.NewBaseRepository[wishlistDocument](provider, wishlistCollection, nil, nil)
	return &WishlistRepository{base: base}, nil
}

// Insert stores the wishlist item under its assigned ID.
func (r *WishlistRepository) Insert(ctx context.Context, item domain.WishlistItem) error {
	if r == nil || r.base == nil {
		return errors.New("wishlist repository not initialised")
	}
	if strings.TrimSpace(item.ID) == "" {
		return errors.New("wishlist item id is required")
	}

	_, err := r.base.Set(ctx, item.ID, fromDomainWishlistItem(item))
	return err
}

// Delete removes the wishlist item.
func (r *WishlistRepository) Delete(ctx context.Context, itemID string) error {
	if r == nil || r.base == nil {
		return errors.New("wishlist repository not initialised")
	}
	return r.base.Delete(ctx, itemID)
}

// ListByUser returns the user's wishlist ordered by the time items were added.
func (r *WishlistRepository) ListByUser(ctx context.Context, email string) ([]domain.WishlistItem, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("wishlist repository not initialised")
	}
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return nil, errors.New("email is required")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("userEmail", "==", normalized).OrderBy("addedAt", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	items := make([]domain.WishlistItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, toDomainWishlistItem(doc.ID, doc.Data))
	}
	return items, nil
}

type wishlistDocument struct {
	UserEmail string    `firestore:"userEmail"`
	BookID    string    `firestore:"bookId"`
	AddedAt   time.Time `firestore:"addedAt"`
}

func fromDomainWishlistItem(item domain.WishlistItem) wishlistDocument {
	return wishlistDocument{
		UserEmail: strings.ToLower(strings.TrimSpace(item.UserEmail)),
		BookID:    strings.TrimSpace(item.BookID),
		AddedAt:   item.AddedAt.UTC(),
	}
}

func toDomainWishlistItem(id string, doc wishlistDocument) domain.WishlistItem {
	return domain.WishlistItem{
		ID:        id,
		UserEmail: doc.UserEmail,
		BookID:    doc.BookID,
		AddedAt:   doc.AddedAt,
	}
}

var _ repositories.WishlistRepository = (*WishlistRepository)(nil)
