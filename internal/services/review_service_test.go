package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/bookcourier/api/internal/domain"
)

type stubReviewRepo struct {
	insertFn func(context.Context, domain.Review) error
	listFn   func(context.Context, string) ([]domain.Review, error)
}

func (s *stubReviewRepo) Insert(ctx context.Context, review domain.Review) error {
	if s.insertFn != nil {
		return s.insertFn(ctx, review)
	}
	return nil
}

func (s *stubReviewRepo) ListByBook(ctx context.Context, bookID string) ([]domain.Review, error) {
	if s.listFn != nil {
		return s.listFn(ctx, bookID)
	}
	return nil, nil
}

func newTestReviewService(t *testing.T, repo *stubReviewRepo, now time.Time) ReviewService {
	t.Helper()
	svc, err := NewReviewService(ReviewServiceDeps{
		Reviews: repo,
		Clock: func() time.Time {
			return now
		},
		IDGenerator: func() string { return "000TEST" },
	})
	if err != nil {
		t.Fatalf("new review service: %v", err)
	}
	return svc
}

func TestReviewServiceCreateSanitisesText(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 10, 15, 0, 0, 0, time.UTC)
	var inserted domain.Review

	repo := &stubReviewRepo{
		insertFn: func(_ context.Context, review domain.Review) error {
			inserted = review
			return nil
		},
	}
	svc := newTestReviewService(t, repo, now)

	review, err := svc.Create(ctx, CreateReviewCommand{
		BookID:    "bk_1",
		UserEmail: "Reader@Example.com",
		Rating:    4,
		Text:      `Great read! <script>alert("xss")</script><b>bold claim</b>`,
	})
	if err != nil {
		t.Fatalf("create review: %v", err)
	}

	if review.ID != "rev_000TEST" {
		t.Fatalf("unexpected review id %s", review.ID)
	}
	if review.Text != "Great read! bold claim" {
		t.Fatalf("expected sanitised text, got %q", review.Text)
	}
	if review.UserEmail != "reader@example.com" {
		t.Fatalf("expected lowercased email got %s", review.UserEmail)
	}
	if inserted.Text != review.Text {
		t.Fatalf("expected sanitised text persisted, got %q", inserted.Text)
	}
}

func TestReviewServiceRatingBounds(t *testing.T) {
	ctx := context.Background()
	svc := newTestReviewService(t, &stubReviewRepo{}, time.Now())

	for _, rating := range []int{0, -1, 6} {
		if _, err := svc.Create(ctx, CreateReviewCommand{BookID: "bk_1", UserEmail: "a@b.c", Rating: rating}); !errors.Is(err, ErrReviewInvalidInput) {
			t.Fatalf("expected invalid input for rating %d, got %v", rating, err)
		}
	}
	for _, rating := range []int{1, 5} {
		if _, err := svc.Create(ctx, CreateReviewCommand{BookID: "bk_1", UserEmail: "a@b.c", Rating: rating}); err != nil {
			t.Fatalf("rating %d must be accepted: %v", rating, err)
		}
	}
}

func TestReviewServiceValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestReviewService(t, &stubReviewRepo{}, time.Now())

	if _, err := svc.Create(ctx, CreateReviewCommand{UserEmail: "a@b.c", Rating: 3}); !errors.Is(err, ErrReviewInvalidInput) {
		t.Fatalf("expected invalid input for missing book, got %v", err)
	}
	if _, err := svc.Create(ctx, CreateReviewCommand{BookID: "bk_1", Rating: 3}); !errors.Is(err, ErrReviewInvalidInput) {
		t.Fatalf("expected invalid input for missing email, got %v", err)
	}
	if _, err := svc.ListByBook(ctx, " "); !errors.Is(err, ErrReviewInvalidInput) {
		t.Fatalf("expected invalid input for blank book id, got %v", err)
	}
}
