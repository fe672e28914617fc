package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bookcourier/api/internal/platform/httpx"
	"github.com/bookcourier/api/internal/repositories"
	"github.com/bookcourier/api/internal/services"
)

const maxBookBodySize = 64 * 1024

// BookHandlers exposes the catalog endpoints.
type BookHandlers struct {
	books services.BookService
}

// NewBookHandlers constructs a new BookHandlers instance.
func NewBookHandlers(books services.BookService) *BookHandlers {
	return &BookHandlers{books: books}
}

// Routes registers the /books endpoints.
func (h *BookHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listBooks)
	r.Get("/latest", h.latestBooks)
	r.Get("/{bookID}", h.getBook)
	r.Post("/", h.createBook)
	r.Put("/{bookID}", h.updateBook)
	r.Patch("/{bookID}/publish", h.publishBook)
	r.Delete("/{bookID}", h.deleteBook)
}

func (h *BookHandlers) listBooks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.books == nil {
		httpx.WriteError(ctx, w, httpx.NewError("book_service_unavailable", "book service unavailable", http.StatusServiceUnavailable))
		return
	}

	query := r.URL.Query()
	books, err := h.books.List(ctx, services.BookListFilter{
		Status:  strings.TrimSpace(query.Get("status")),
		AddedBy: strings.TrimSpace(query.Get("added_by")),
	})
	if err != nil {
		writeBookError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildBookListResponse(books))
}

func (h *BookHandlers) latestBooks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.books == nil {
		httpx.WriteError(ctx, w, httpx.NewError("book_service_unavailable", "book service unavailable", http.StatusServiceUnavailable))
		return
	}

	books, err := h.books.Latest(ctx)
	if err != nil {
		writeBookError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildBookListResponse(books))
}

func (h *BookHandlers) getBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.books == nil {
		httpx.WriteError(ctx, w, httpx.NewError("book_service_unavailable", "book service unavailable", http.StatusServiceUnavailable))
		return
	}

	book, err := h.books.Get(ctx, chi.URLParam(r, "bookID"))
	if err != nil {
		writeBookError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildBookPayload(book))
}

func (h *BookHandlers) createBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.books == nil {
		httpx.WriteError(ctx, w, httpx.NewError("book_service_unavailable", "book service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req bookRequest
	if !decodeBookBody(ctx, w, r, &req) {
		return
	}

	book, err := h.books.Create(ctx, services.CreateBookCommand{
		Title:       strings.TrimSpace(req.Title),
		Author:      strings.TrimSpace(req.Author),
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		CoverURL:    strings.TrimSpace(req.CoverURL),
		ActorEmail:  strings.TrimSpace(req.AddedBy),
	})
	if err != nil {
		writeBookError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, buildBookPayload(book))
}

func (h *BookHandlers) updateBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.books == nil {
		httpx.WriteError(ctx, w, httpx.NewError("book_service_unavailable", "book service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req bookRequest
	if !decodeBookBody(ctx, w, r, &req) {
		return
	}

	book, err := h.books.Update(ctx, services.UpdateBookCommand{
		BookID:      chi.URLParam(r, "bookID"),
		Title:       strings.TrimSpace(req.Title),
		Author:      strings.TrimSpace(req.Author),
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		CoverURL:    strings.TrimSpace(req.CoverURL),
		ActorEmail:  strings.TrimSpace(req.AddedBy),
	})
	if err != nil {
		writeBookError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildBookPayload(book))
}

func (h *BookHandlers) publishBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.books == nil {
		httpx.WriteError(ctx, w, httpx.NewError("book_service_unavailable", "book service unavailable", http.StatusServiceUnavailable))
		return
	}

	var req publishBookRequest
	if !decodeBookBody(ctx, w, r, &req) {
		return
	}

	book, err := h.books.SetPublishStatus(ctx, services.PublishBookCommand{
		BookID:     chi.URLParam(r, "bookID"),
		Status:     strings.TrimSpace(req.Publish),
		ActorEmail: strings.TrimSpace(req.ActorEmail),
	})
	if err != nil {
		writeBookError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildBookPayload(book))
}

func (h *BookHandlers) deleteBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.books == nil {
		httpx.WriteError(ctx, w, httpx.NewError("book_service_unavailable", "book service unavailable", http.StatusServiceUnavailable))
		return
	}

	err := h.books.Delete(ctx, services.DeleteBookCommand{
		BookID:     chi.URLParam(r, "bookID"),
		ActorEmail: strings.TrimSpace(r.URL.Query().Get("actor_email")),
	})
	if err != nil {
		writeBookError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type bookRequest struct {
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	CoverURL    string  `json:"coverUrl"`
	AddedBy     string  `json:"addedBy"`
}

type publishBookRequest struct {
	Publish    string `json:"publish"`
	ActorEmail string `json:"actorEmail"`
}

type bookListResponse struct {
	Books []bookPayload `json:"books"`
}

type bookPayload struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	CoverURL    string  `json:"coverUrl,omitempty"`
	Status      string  `json:"status"`
	AddedBy     string  `json:"addedBy"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

func buildBookListResponse(books []services.Book) bookListResponse {
	payload := bookListResponse{Books: make([]bookPayload, 0, len(books))}
	for _, book := range books {
		payload.Books = append(payload.Books, buildBookPayload(book))
	}
	return payload
}

func buildBookPayload(book services.Book) bookPayload {
	return bookPayload{
		ID:          book.ID,
		Title:       book.Title,
		Author:      book.Author,
		Description: book.Description,
		Price:       book.Price,
		CoverURL:    book.CoverURL,
		Status:      string(book.Status),
		AddedBy:     book.AddedBy,
		CreatedAt:   formatTime(book.CreatedAt),
		UpdatedAt:   formatTime(book.UpdatedAt),
	}
}

func decodeBookBody(ctx context.Context, w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := readLimitedBody(r, maxBookBodySize)
	if err != nil {
		writeOrderBodyError(ctx, w, err)
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return false
	}
	return true
}

func writeBookError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrBookInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrBookForbidden):
		httpx.WriteError(ctx, w, httpx.NewError("forbidden", "not allowed to manage this book", http.StatusForbidden))
	case errors.Is(err, services.ErrBookNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", "book not found", http.StatusNotFound))
	case errors.Is(err, services.ErrBookConflict):
		httpx.WriteError(ctx, w, httpx.NewError("book_conflict", err.Error(), http.StatusConflict))
	default:
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsUnavailable() {
			httpx.WriteError(ctx, w, httpx.NewError("book_service_unavailable", "book repository unavailable", http.StatusServiceUnavailable))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("book_error", "failed to process catalog request", http.StatusInternalServerError))
	}
}
