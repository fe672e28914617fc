package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"

	"github.com/bookcourier/api/internal/repositories"
)

const (
	reviewIDPrefix = "rev_"

	reviewMinRating     = 1
	reviewMaxRating     = 5
	reviewMaxTextLength = 4000
)

var (
	// ErrReviewInvalidInput signals the caller provided invalid data.
	ErrReviewInvalidInput = errors.New("review: invalid input")
	// ErrReviewNotFound indicates the reviewed book has no stored feedback.
	ErrReviewNotFound = errors.New("review: not found")
)

// ReviewServiceDeps bundles collaborators required to construct the review service.
type ReviewServiceDeps struct {
	Reviews     repositories.ReviewRepository
	Clock       func() time.Time
	IDGenerator func() string
	Sanitizer   *bluemonday.Policy
}

type reviewService struct {
	reviews   repositories.ReviewRepository
	clock     func() time.Time
	newID     func() string
	sanitizer *bluemonday.Policy
}

// NewReviewService wires dependencies into a concrete ReviewService implementation.
func NewReviewService(deps ReviewServiceDeps) (ReviewService, error) {
	if deps.Reviews == nil {
		return nil, errors.New("review service: review repository is required")
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

	sanitizer := deps.Sanitizer
	if sanitizer == nil {
		sanitizer = bluemonday.StrictPolicy()
	}

	return &reviewService{
		reviews: deps.Reviews,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:     idGen,
		sanitizer: sanitizer,
	}, nil
}

// Create stores buyer feedback. Review text passes through the HTML sanitiser
// before persistence so stored content is safe to render verbatim.
func (s *reviewService) Create(ctx context.Context, cmd CreateReviewCommand) (Review, error) {
	bookID := strings.TrimSpace(cmd.BookID)
	if bookID == "" {
		return Review{}, fmt.Errorf("%w: book id is required", ErrReviewInvalidInput)
	}
	email := strings.ToLower(strings.TrimSpace(cmd.UserEmail))
	if email == "" {
		return Review{}, fmt.Errorf("%w: user email is required", ErrReviewInvalidInput)
	}
	if cmd.Rating < reviewMinRating || cmd.Rating > reviewMaxRating {
		return Review{}, fmt.Errorf("%w: rating must be between %d and %d", ErrReviewInvalidInput, reviewMinRating, reviewMaxRating)
	}

	text := strings.TrimSpace(s.sanitizer.Sanitize(cmd.Text))
	if len(text) > reviewMaxTextLength {
		return Review{}, fmt.Errorf("%w: text exceeds %d characters", ErrReviewInvalidInput, reviewMaxTextLength)
	}

	review := Review{
		ID:        reviewIDPrefix + s.newID(),
		BookID:    bookID,
		UserEmail: email,
		Rating:    cmd.Rating,
		Text:      text,
		CreatedAt: s.clock(),
	}

	if err := s.reviews.Insert(ctx, review); err != nil {
		return Review{}, s.mapRepositoryError(err)
	}
	return review, nil
}

func (s *reviewService) ListByBook(ctx context.Context, bookID string) ([]Review, error) {
	bookID = strings.TrimSpace(bookID)
	if bookID == "" {
		return nil, fmt.Errorf("%w: book id is required", ErrReviewInvalidInput)
	}

	reviews, err := s.reviews.ListByBook(ctx, bookID)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return reviews, nil
}

func (s *reviewService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrReviewNotFound, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("review: repository unavailable: %w", err)
		}
	}

	return err
}
