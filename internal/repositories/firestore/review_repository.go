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

const reviewCollection = "reviews"

// ReviewRepository persists buyer reviews in Firestore.
type ReviewRepository struct {
	base *pfirestore.BaseRepository[reviewDocument]
}

// NewReviewRepository constructs a Firestore-backed review repository.
func NewReviewRepository(provider *pfirestore.Provider) (*ReviewRepository, error) {
	if provider == nil {
		return nil, errors.New("review repository requires firestore provider")
	}

	base := pfirestore.NewBaseRepository[reviewDocument](provider, reviewCollection, nil, nil)
	return &ReviewRepository{base: base}, nil
}

// Insert stores the review under its assigned ID.
func (r *ReviewRepository) Insert(ctx context.Context, review domain.Review) error {
	if r == nil || r.base == nil {
		return errors.New("review repository not initialised")
	}
	if strings.TrimSpace(review.ID) == "" {
		return errors.New("review id is required")
	}

	_, err := r.base.Set(ctx, review.ID, fromDomainReview(review))
	return err
}

// ListByBook returns the book's reviews newest first.
func (r *ReviewRepository) ListByBook(ctx context.Context, bookID string) ([]domain.Review, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("review repository not initialised")
	}
	trimmed := strings.TrimSpace(bookID)
	if trimmed == "" {
		return nil, errors.New("book id is required")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("bookId", "==", trimmed).OrderBy("createdAt", firestore.Desc)
	})
	if err != nil {
		return nil, err
	}

	reviews := make([]domain.Review, 0, len(docs))
	for _, doc := range docs {
		reviews = append(reviews, toDomainReview(doc.ID, doc.Data))
	}
	return reviews, nil
}

type reviewDocument struct {
	BookID    string    `firestore:"bookId"`
	UserEmail string    `firestore:"userEmail"`
	Rating    int       `firestore:"rating"`
	Text      string    `firestore:"text"`
	CreatedAt time.Time `firestore:"createdAt"`
}

func fromDomainReview(review domain.Review) reviewDocument {
	return reviewDocument{
		BookID:    strings.TrimSpace(review.BookID),
		UserEmail: strings.ToLower(strings.TrimSpace(review.UserEmail)),
		Rating:    review.Rating,
		Text:      review.Text,
		CreatedAt: review.CreatedAt.UTC(),
	}
}

func toDomainReview(id string, doc reviewDocument) domain.Review {
	return domain.Review{
		ID:        id,
		BookID:    doc.BookID,
		UserEmail: doc.UserEmail,
		Rating:    doc.Rating,
		Text:      doc.Text,
		CreatedAt: doc.CreatedAt,
	}
}

var _ repositories.ReviewRepository = (*ReviewRepository)(nil)
