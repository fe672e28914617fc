package handlers

import (
	"bytes"
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

	domain "github.com/bookcourier/api/internal/domain"
	"github.com/bookcourier/api/internal/services"
)

type stubBookService struct {
	listFn    func(context.Context, services.BookListFilter) ([]services.Book, error)
	latestFn  func(context.Context) ([]services.Book, error)
	getFn     func(context.Context, string) (services.Book, error)
	createFn  func(context.Context, services.CreateBookCommand) (services.Book, error)
	updateFn  func(context.Context, services.UpdateBookCommand) (services.Book, error)
	publishFn func(context.Context, services.PublishBookCommand) (services.Book, error)
	deleteFn  func(context.Context, services.DeleteBookCommand) error
}

func (s *stubBookService) List(ctx context.Context, filter services.BookListFilter) ([]services.Book, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return nil, nil
}

func (s *stubBookService) Latest(ctx context.Context) ([]services.Book, error) {
	if s.latestFn != nil {
		return s.latestFn(ctx)
	}
	return nil, nil
}

func (s *stubBookService) Get(ctx context.Context, bookID string) (services.Book, error) {
	if s.getFn != nil {
		return s.getFn(ctx, bookID)
	}
	return services.Book{}, errors.New("not implemented")
}

func (s *stubBookService) Create(ctx context.Context, cmd services.CreateBookCommand) (services.Book, error) {
	if s.createFn != nil {
		return s.createFn(ctx, cmd)
	}
	return services.Book{}, errors.New("not implemented")
}

func (s *stubBookService) Update(ctx context.Context, cmd services.UpdateBookCommand) (services.Book, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, cmd)
	}
	return services.Book{}, errors.New("not implemented")
}

func (s *stubBookService) SetPublishStatus(ctx context.Context, cmd services.PublishBookCommand) (services.Book, error) {
	if s.publishFn != nil {
		return s.publishFn(ctx, cmd)
	}
	return services.Book{}, errors.New("not implemented")
}

func (s *stubBookService) Delete(ctx context.Context, cmd services.DeleteBookCommand) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, cmd)
	}
	return errors.New("not implemented")
}

func newBookRouter(service services.BookService) chi.Router {
	handler := NewBookHandlers(service)
	router := chi.NewRouter()
	router.Route("/books", handler.Routes)
	return router
}

func TestBookHandlersCreateBook(t *testing.T) {
	now := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)

	var captured services.CreateBookCommand
	service := &stubBookService{
		createFn: func(_ context.Context, cmd services.CreateBookCommand) (services.Book, error) {
			captured = cmd
			return services.Book{
				ID:        "bk_123",
				Title:     cmd.Title,
				Author:    cmd.Author,
				Price:     cmd.Price,
				Status:    domain.BookStatusUnpublished,
				AddedBy:   "librarian@example.com",
				CreatedAt: now,
				UpdatedAt: now,
			}, nil
		},
	}

	body := `{"title":"Dune","author":"Frank Herbert","price":12.5,"addedBy":"Librarian@Example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(body))
	rr := httptest.NewRecorder()
	newBookRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.Title != "Dune" || captured.ActorEmail != "Librarian@Example.com" {
		t.Fatalf("unexpected command %#v", captured)
	}

	var payload bookPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Status != "unpublished" {
		t.Fatalf("expected unpublished default, got %q", payload.Status)
	}
}

func TestBookHandlersListBooksStatusFilter(t *testing.T) {
	var captured services.BookListFilter
	service := &stubBookService{
		listFn: func(_ context.Context, filter services.BookListFilter) ([]services.Book, error) {
			captured = filter
			return []services.Book{{ID: "bk_1"}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/books?status=published", nil)
	rr := httptest.NewRecorder()
	newBookRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if captured.Status != "published" {
		t.Fatalf("unexpected filter %#v", captured)
	}
}

func TestBookHandlersLatestBooks(t *testing.T) {
	service := &stubBookService{
		latestFn: func(context.Context) ([]services.Book, error) {
			return []services.Book{{ID: "bk_2"}, {ID: "bk_1"}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/books/latest", nil)
	rr := httptest.NewRecorder()
	newBookRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var payload bookListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Books) != 2 || payload.Books[0].ID != "bk_2" {
		t.Fatalf("unexpected payload %#v", payload)
	}
}

func TestBookHandlersUpdateBookForbidden(t *testing.T) {
	service := &stubBookService{
		updateFn: func(_ context.Context, cmd services.UpdateBookCommand) (services.Book, error) {
			return services.Book{}, fmt.Errorf("%w: %s", services.ErrBookForbidden, cmd.ActorEmail)
		},
	}

	body := `{"title":"Dune","author":"Frank Herbert","price":12.5,"addedBy":"other@example.com"}`
	req := httptest.NewRequest(http.MethodPut, "/books/bk_1", strings.NewReader(body))
	rr := httptest.NewRecorder()
	newBookRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rr.Code)
	}
	if !bytes.Contains(rr.Body.Bytes(), []byte("forbidden")) {
		t.Fatalf("expected forbidden code, got %s", rr.Body.String())
	}
}

func TestBookHandlersPublishBook(t *testing.T) {
	var captured services.PublishBookCommand
	service := &stubBookService{
		publishFn: func(_ context.Context, cmd services.PublishBookCommand) (services.Book, error) {
			captured = cmd
			return services.Book{ID: cmd.BookID, Status: domain.BookStatusPublished}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPatch, "/books/bk_1/publish", strings.NewReader(`{"publish":"published","actorEmail":"lib@example.com"}`))
	rr := httptest.NewRecorder()
	newBookRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.BookID != "bk_1" || captured.Status != "published" {
		t.Fatalf("unexpected command %#v", captured)
	}
}

func TestBookHandlersGetBookNotFound(t *testing.T) {
	service := &stubBookService{
		getFn: func(_ context.Context, bookID string) (services.Book, error) {
			return services.Book{}, fmt.Errorf("%w: %s", services.ErrBookNotFound, bookID)
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/books/bk_missing", nil)
	rr := httptest.NewRecorder()
	newBookRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestBookHandlersDeleteBook(t *testing.T) {
	var captured services.DeleteBookCommand
	service := &stubBookService{
		deleteFn: func(_ context.Context, cmd services.DeleteBookCommand) error {
			captured = cmd
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/books/bk_1?actor_email=lib@example.com", nil)
	rr := httptest.NewRecorder()
	newBookRouter(service).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	if captured.BookID != "bk_1" || captured.ActorEmail != "lib@example.com" {
		t.Fatalf("unexpected command %#v", captured)
	}
}
