package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/bookcourier/api/internal/domain"
	"github.com/bookcourier/api/internal/repositories"
)

type stubBookRepo struct {
	insertFn     func(context.Context, domain.Book) error
	updateFn     func(context.Context, domain.Book) error
	deleteFn     func(context.Context, string) error
	findFn       func(context.Context, string) (domain.Book, error)
	listFn       func(context.Context, repositories.BookListFilter) ([]domain.Book, error)
	listLatestFn func(context.Context, int) ([]domain.Book, error)
}

func (s *stubBookRepo) Insert(ctx context.Context, book domain.Book) error {
	if s.insertFn != nil {
		return s.insertFn(ctx, book)
	}
	return nil
}

func (s *stubBookRepo) Update(ctx context.Context, book domain.Book) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, book)
	}
	return nil
}

func (s *stubBookRepo) Delete(ctx context.Context, bookID string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, bookID)
	}
	return nil
}

func (s *stubBookRepo) FindByID(ctx context.Context, bookID string) (domain.Book, error) {
	if s.findFn != nil {
		return s.findFn(ctx, bookID)
	}
	return domain.Book{}, errors.New("not implemented")
}

func (s *stubBookRepo) List(ctx context.Context, filter repositories.BookListFilter) ([]domain.Book, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return nil, nil
}

func (s *stubBookRepo) ListLatest(ctx context.Context, limit int) ([]domain.Book, error) {
	if s.listLatestFn != nil {
		return s.listLatestFn(ctx, limit)
	}
	return nil, nil
}

type stubRoleRepo struct {
	insertFn func(context.Context, domain.RoleAssignment) error
	findFn   func(context.Context, string) (domain.RoleAssignment, error)
	listFn   func(context.Context) ([]domain.RoleAssignment, error)
}

func (s *stubRoleRepo) Insert(ctx context.Context, assignment domain.RoleAssignment) error {
	if s.insertFn != nil {
		return s.insertFn(ctx, assignment)
	}
	return nil
}

func (s *stubRoleRepo) FindByEmail(ctx context.Context, email string) (domain.RoleAssignment, error) {
	if s.findFn != nil {
		return s.findFn(ctx, email)
	}
	return domain.RoleAssignment{}, &stubRepoError{msg: "role not found", notFound: true}
}

func (s *stubRoleRepo) List(ctx context.Context) ([]domain.RoleAssignment, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

type allowAllAuthorizer struct{}

func (allowAllAuthorizer) CanManageBook(context.Context, string, Book) error { return nil }

type stubDeleteByBookOrders struct {
	OrderService
	deleteByBookFn func(context.Context, string) (int, error)
}

func (s *stubDeleteByBookOrders) DeleteByBook(ctx context.Context, bookID string) (int, error) {
	if s.deleteByBookFn != nil {
		return s.deleteByBookFn(ctx, bookID)
	}
	return 0, nil
}

func newTestBookService(t *testing.T, books repositories.BookRepository, orders OrderService, authorizer Authorizer, now time.Time) BookService {
	t.Helper()
	if authorizer == nil {
		authorizer = allowAllAuthorizer{}
	}
	svc, err := NewBookService(BookServiceDeps{
		Books:      books,
		Orders:     orders,
		Authorizer: authorizer,
		Clock: func() time.Time {
			return now
		},
		IDGenerator: func() string { return "000TEST" },
	})
	if err != nil {
		t.Fatalf("new book service: %v", err)
	}
	return svc
}

func TestBookServiceCreateDefaultsUnpublished(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	var inserted domain.Book

	repo := &stubBookRepo{
		insertFn: func(_ context.Context, book domain.Book) error {
			inserted = book
			return nil
		},
	}
	svc := newTestBookService(t, repo, nil, nil, now)

	book, err := svc.Create(ctx, CreateBookCommand{
		Title:      "The Go Programming Language",
		Author:     "Donovan & Kernighan",
		Price:      39.99,
		ActorEmail: "Librarian@Example.com",
	})
	if err != nil {
		t.Fatalf("create book: %v", err)
	}

	if book.ID != "bk_000TEST" {
		t.Fatalf("unexpected book id %s", book.ID)
	}
	if book.Status != domain.BookStatusUnpublished {
		t.Fatalf("expected default unpublished got %s", book.Status)
	}
	if book.AddedBy != "librarian@example.com" {
		t.Fatalf("expected lowercased owner got %s", book.AddedBy)
	}
	if inserted.ID != book.ID {
		t.Fatalf("expected insert of %s got %s", book.ID, inserted.ID)
	}
}

func TestBookServiceCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestBookService(t, &stubBookRepo{}, nil, nil, time.Now())

	cases := []struct {
		name string
		cmd  CreateBookCommand
	}{
		{"missing title", CreateBookCommand{Author: "A", ActorEmail: "l@x.y"}},
		{"missing author", CreateBookCommand{Title: "T", ActorEmail: "l@x.y"}},
		{"negative price", CreateBookCommand{Title: "T", Author: "A", Price: -1, ActorEmail: "l@x.y"}},
		{"missing actor", CreateBookCommand{Title: "T", Author: "A"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tc.cmd); !errors.Is(err, ErrBookInvalidInput) {
				t.Fatalf("expected invalid input, got %v", err)
			}
		})
	}
}

func TestBookServiceSetPublishStatusToggle(t *testing.T) {
	ctx := context.Background()
	stored := domain.Book{ID: "bk_1", Title: "T", Author: "A", Status: domain.BookStatusUnpublished, AddedBy: "owner@example.com"}

	repo := &stubBookRepo{
		findFn: func(context.Context, string) (domain.Book, error) {
			return stored, nil
		},
		updateFn: func(_ context.Context, book domain.Book) error {
			stored = book
			return nil
		},
	}
	svc := newTestBookService(t, repo, nil, nil, time.Now())

	book, err := svc.SetPublishStatus(ctx, PublishBookCommand{BookID: "bk_1", Status: "published", ActorEmail: "owner@example.com"})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if book.Status != domain.BookStatusPublished {
		t.Fatalf("expected published got %s", book.Status)
	}

	// The flag is freely togglable, not a one-way street.
	book, err = svc.SetPublishStatus(ctx, PublishBookCommand{BookID: "bk_1", Status: "unpublished", ActorEmail: "owner@example.com"})
	if err != nil {
		t.Fatalf("unpublish: %v", err)
	}
	if book.Status != domain.BookStatusUnpublished {
		t.Fatalf("expected unpublished got %s", book.Status)
	}

	if _, err := svc.SetPublishStatus(ctx, PublishBookCommand{BookID: "bk_1", Status: "archived", ActorEmail: "owner@example.com"}); !errors.Is(err, ErrBookInvalidInput) {
		t.Fatalf("expected invalid input for unknown status, got %v", err)
	}
}

func TestBookServiceDeleteCascadesOrders(t *testing.T) {
	ctx := context.Background()
	var cascaded string
	var deletedBook string

	repo := &stubBookRepo{
		findFn: func(context.Context, string) (domain.Book, error) {
			return domain.Book{ID: "bk_1", AddedBy: "owner@example.com"}, nil
		},
		deleteFn: func(_ context.Context, bookID string) error {
			deletedBook = bookID
			return nil
		},
	}
	orders := &stubDeleteByBookOrders{
		deleteByBookFn: func(_ context.Context, bookID string) (int, error) {
			cascaded = bookID
			return 3, nil
		},
	}
	svc := newTestBookService(t, repo, orders, nil, time.Now())

	if err := svc.Delete(ctx, DeleteBookCommand{BookID: "bk_1", ActorEmail: "owner@example.com"}); err != nil {
		t.Fatalf("delete book: %v", err)
	}
	if cascaded != "bk_1" {
		t.Fatalf("expected order cascade for bk_1, got %q", cascaded)
	}
	if deletedBook != "bk_1" {
		t.Fatalf("expected book deletion, got %q", deletedBook)
	}
}

func TestBookServiceGetNotFound(t *testing.T) {
	ctx := context.Background()
	repo := &stubBookRepo{
		findFn: func(context.Context, string) (domain.Book, error) {
			return domain.Book{}, &stubRepoError{msg: "missing", notFound: true}
		},
	}
	svc := newTestBookService(t, repo, nil, nil, time.Now())

	if _, err := svc.Get(ctx, "bk_missing"); !errors.Is(err, ErrBookNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRoleAuthorizer(t *testing.T) {
	ctx := context.Background()
	book := Book{ID: "bk_1", AddedBy: "owner@example.com"}

	roles := &stubRoleRepo{
		findFn: func(_ context.Context, email string) (domain.RoleAssignment, error) {
			if email == "admin@example.com" {
				return domain.RoleAssignment{Email: email, Role: domain.RoleAdmin}, nil
			}
			if email == "librarian@example.com" {
				return domain.RoleAssignment{Email: email, Role: domain.RoleLibrarian}, nil
			}
			return domain.RoleAssignment{}, &stubRepoError{msg: "role not found", notFound: true}
		},
	}
	authorizer, err := NewRoleAuthorizer(roles)
	if err != nil {
		t.Fatalf("new authorizer: %v", err)
	}

	if err := authorizer.CanManageBook(ctx, "Owner@Example.com", book); err != nil {
		t.Fatalf("owner must manage its book: %v", err)
	}
	if err := authorizer.CanManageBook(ctx, "admin@example.com", book); err != nil {
		t.Fatalf("admin must manage any book: %v", err)
	}
	if err := authorizer.CanManageBook(ctx, "librarian@example.com", book); !errors.Is(err, ErrBookForbidden) {
		t.Fatalf("other librarian must be forbidden, got %v", err)
	}
	if err := authorizer.CanManageBook(ctx, "stranger@example.com", book); !errors.Is(err, ErrBookForbidden) {
		t.Fatalf("unknown actor must be forbidden, got %v", err)
	}
	if err := authorizer.CanManageBook(ctx, "", book); !errors.Is(err, ErrBookForbidden) {
		t.Fatalf("empty actor must be forbidden, got %v", err)
	}
}

func TestBookServiceUpdateForbidden(t *testing.T) {
	ctx := context.Background()
	repo := &stubBookRepo{
		findFn: func(context.Context, string) (domain.Book, error) {
			return domain.Book{ID: "bk_1", AddedBy: "owner@example.com"}, nil
		},
	}
	authorizer, err := NewRoleAuthorizer(&stubRoleRepo{})
	if err != nil {
		t.Fatalf("new authorizer: %v", err)
	}
	svc := newTestBookService(t, repo, nil, authorizer, time.Now())

	_, err = svc.Update(ctx, UpdateBookCommand{
		BookID:     "bk_1",
		Title:      "T",
		Author:     "A",
		ActorEmail: "intruder@example.com",
	})
	if !errors.Is(err, ErrBookForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
