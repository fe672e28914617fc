package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/bookcourier/api/internal/domain"
	"github.com/bookcourier/api/internal/repositories"
)

const (
	bookIDPrefix = "bk_"

	latestBookCount = 6
)

var (
	// ErrBookInvalidInput signals the caller provided invalid data.
	ErrBookInvalidInput = errors.New("book: invalid input")
	// ErrBookNotFound indicates the book could not be located.
	ErrBookNotFound = errors.New("book: not found")
	// ErrBookForbidden indicates the actor may not mutate the book.
	ErrBookForbidden = errors.New("book: forbidden")
	// ErrBookConflict indicates the store rejected a conflicting update.
	ErrBookConflict = errors.New("book: conflict")
)

var bookStatuses = []string{
	string(domain.BookStatusPublished),
	string(domain.BookStatusUnpublished),
}

// BookServiceDeps bundles collaborators required to construct the book service.
type BookServiceDeps struct {
	Books       repositories.BookRepository
	Orders      OrderService
	Authorizer  Authorizer
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type bookService struct {
	books      repositories.BookRepository
	orders     OrderService
	authorizer Authorizer
	clock      func() time.Time
	newID      func() string
	logger     func(context.Context, string, map[string]any)
}

// NewBookService wires dependencies into a concrete BookService implementation.
func NewBookService(deps BookServiceDeps) (BookService, error) {
	if deps.Books == nil {
		return nil, errors.New("book service: book repository is required")
	}
	if deps.Authorizer == nil {
		return nil, errors.New("book service: authorizer is required")
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

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &bookService{
		books:      deps.Books,
		orders:     deps.Orders,
		authorizer: deps.Authorizer,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		logger: logger,
	}, nil
}

func (s *bookService) List(ctx context.Context, filter BookListFilter) ([]Book, error) {
	status := strings.ToLower(strings.TrimSpace(filter.Status))
	if status != "" && !isBookStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrBookInvalidInput, filter.Status)
	}

	books, err := s.books.List(ctx, repositories.BookListFilter{
		Status:  status,
		AddedBy: strings.ToLower(strings.TrimSpace(filter.AddedBy)),
	})
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return books, nil
}

func (s *bookService) Latest(ctx context.Context) ([]Book, error) {
	books, err := s.books.ListLatest(ctx, latestBookCount)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return books, nil
}

func (s *bookService) Get(ctx context.Context, bookID string) (Book, error) {
	bookID = strings.TrimSpace(bookID)
	if bookID == "" {
		return Book{}, fmt.Errorf("%w: book id is required", ErrBookInvalidInput)
	}

	book, err := s.books.FindByID(ctx, bookID)
	if err != nil {
		return Book{}, s.mapRepositoryError(err)
	}
	return book, nil
}

func (s *bookService) Create(ctx context.Context, cmd CreateBookCommand) (Book, error) {
	title := strings.TrimSpace(cmd.Title)
	if title == "" {
		return Book{}, fmt.Errorf("%w: title is required", ErrBookInvalidInput)
	}
	author := strings.TrimSpace(cmd.Author)
	if author == "" {
		return Book{}, fmt.Errorf("%w: author is required", ErrBookInvalidInput)
	}
	if cmd.Price < 0 {
		return Book{}, fmt.Errorf("%w: price must not be negative", ErrBookInvalidInput)
	}
	actor := strings.ToLower(strings.TrimSpace(cmd.ActorEmail))
	if actor == "" {
		return Book{}, fmt.Errorf("%w: actor email is required", ErrBookInvalidInput)
	}

	now := s.now()
	book := Book{
		ID:          bookIDPrefix + s.newID(),
		Title:       title,
		Author:      author,
		Description: strings.TrimSpace(cmd.Description),
		Price:       cmd.Price,
		CoverURL:    strings.TrimSpace(cmd.CoverURL),
		Status:      domain.BookStatusUnpublished,
		AddedBy:     actor,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.books.Insert(ctx, book); err != nil {
		return Book{}, s.mapRepositoryError(err)
	}
	return book, nil
}

func (s *bookService) Update(ctx context.Context, cmd UpdateBookCommand) (Book, error) {
	bookID := strings.TrimSpace(cmd.BookID)
	if bookID == "" {
		return Book{}, fmt.Errorf("%w: book id is required", ErrBookInvalidInput)
	}
	title := strings.TrimSpace(cmd.Title)
	if title == "" {
		return Book{}, fmt.Errorf("%w: title is required", ErrBookInvalidInput)
	}
	author := strings.TrimSpace(cmd.Author)
	if author == "" {
		return Book{}, fmt.Errorf("%w: author is required", ErrBookInvalidInput)
	}
	if cmd.Price < 0 {
		return Book{}, fmt.Errorf("%w: price must not be negative", ErrBookInvalidInput)
	}

	book, err := s.books.FindByID(ctx, bookID)
	if err != nil {
		return Book{}, s.mapRepositoryError(err)
	}

	if err := s.authorizer.CanManageBook(ctx, cmd.ActorEmail, book); err != nil {
		return Book{}, err
	}

	book.Title = title
	book.Author = author
	book.Description = strings.TrimSpace(cmd.Description)
	book.Price = cmd.Price
	book.CoverURL = strings.TrimSpace(cmd.CoverURL)
	book.UpdatedAt = s.now()

	if err := s.books.Update(ctx, book); err != nil {
		return Book{}, s.mapRepositoryError(err)
	}
	return book, nil
}

func (s *bookService) SetPublishStatus(ctx context.Context, cmd PublishBookCommand) (Book, error) {
	bookID := strings.TrimSpace(cmd.BookID)
	if bookID == "" {
		return Book{}, fmt.Errorf("%w: book id is required", ErrBookInvalidInput)
	}
	status := strings.ToLower(strings.TrimSpace(cmd.Status))
	if !isBookStatus(status) {
		return Book{}, fmt.Errorf("%w: unknown publish status %q", ErrBookInvalidInput, cmd.Status)
	}

	book, err := s.books.FindByID(ctx, bookID)
	if err != nil {
		return Book{}, s.mapRepositoryError(err)
	}

	if err := s.authorizer.CanManageBook(ctx, cmd.ActorEmail, book); err != nil {
		return Book{}, err
	}

	book.Status = domain.BookStatus(status)
	book.UpdatedAt = s.now()

	if err := s.books.Update(ctx, book); err != nil {
		return Book{}, s.mapRepositoryError(err)
	}
	return book, nil
}

func (s *bookService) Delete(ctx context.Context, cmd DeleteBookCommand) error {
	bookID := strings.TrimSpace(cmd.BookID)
	if bookID == "" {
		return fmt.Errorf("%w: book id is required", ErrBookInvalidInput)
	}

	book, err := s.books.FindByID(ctx, bookID)
	if err != nil {
		return s.mapRepositoryError(err)
	}

	if err := s.authorizer.CanManageBook(ctx, cmd.ActorEmail, book); err != nil {
		return err
	}

	if s.orders != nil {
		deleted, err := s.orders.DeleteByBook(ctx, bookID)
		if err != nil {
			return err
		}
		if deleted > 0 {
			s.logger(ctx, "book.orders.cascade_deleted", map[string]any{
				"book":  bookID,
				"count": deleted,
			})
		}
	}

	if err := s.books.Delete(ctx, bookID); err != nil {
		return s.mapRepositoryError(err)
	}
	return nil
}

func (s *bookService) now() time.Time {
	return s.clock()
}

func (s *bookService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrBookNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrBookConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("book: repository unavailable: %w", err)
		}
	}

	return err
}

func isBookStatus(value string) bool {
	for _, status := range bookStatuses {
		if status == value {
			return true
		}
	}
	return false
}

// roleAuthorizer grants book mutations to the owning librarian or any admin.
type roleAuthorizer struct {
	roles repositories.RoleRepository
}

// NewRoleAuthorizer builds an Authorizer backed by the role assignment repository.
func NewRoleAuthorizer(roles repositories.RoleRepository) (Authorizer, error) {
	if roles == nil {
		return nil, errors.New("authorizer: role repository is required")
	}
	return &roleAuthorizer{roles: roles}, nil
}

func (a *roleAuthorizer) CanManageBook(ctx context.Context, actorEmail string, book Book) error {
	actor := strings.ToLower(strings.TrimSpace(actorEmail))
	if actor == "" {
		return fmt.Errorf("%w: actor email is required", ErrBookForbidden)
	}

	if strings.EqualFold(book.AddedBy, actor) {
		return nil
	}

	assignment, err := a.roles.FindByEmail(ctx, actor)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return fmt.Errorf("%w: %s has no role granting access", ErrBookForbidden, actor)
		}
		return err
	}

	if assignment.Role == domain.RoleAdmin {
		return nil
	}
	return fmt.Errorf("%w: %s is not the owner or an admin", ErrBookForbidden, actor)
}
