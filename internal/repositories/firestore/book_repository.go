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

const bookCollection = "books"

// BookRepository persists catalog entries in Firestore.
type BookRepository struct {
	base *pfirestore.BaseRepository[bookDocument]
}

// NewBookRepository constructs a Firestore-backed book repository.
func NewBookRepository(provider *pfirestore.Provider) (*BookRepository, error) {
	if provider == nil {
		return nil, errors.New("book repository requires firestore provider")
	}

	base := pfirestore.NewBaseRepository[bookDocument](provider, bookCollection, nil, nil)
	return &BookRepository{base: base}, nil
}

// Insert creates the book document under its assigned ID.
func (r *BookRepository) Insert(ctx context.Context, book domain.Book) error {
	if r == nil || r.base == nil {
		return errors.New("book repository not initialised")
	}
	if strings.TrimSpace(book.ID) == "" {
		return errors.New("book id is required")
	}

	_, err := r.base.Set(ctx, book.ID, fromDomainBook(book))
	return err
}

// Update overwrites the stored book document.
func (r *BookRepository) Update(ctx context.Context, book domain.Book) error {
	if r == nil || r.base == nil {
		return errors.New("book repository not initialised")
	}
	if strings.TrimSpace(book.ID) == "" {
		return errors.New("book id is required")
	}

	_, err := r.base.Set(ctx, book.ID, fromDomainBook(book))
	return err
}

// Delete removes the book document.
func (r *BookRepository) Delete(ctx context.Context, bookID string) error {
	if r == nil || r.base == nil {
		return errors.New("book repository not initialised")
	}
	return r.base.Delete(ctx, bookID)
}

// FindByID loads a single book.
func (r *BookRepository) FindByID(ctx context.Context, bookID string) (domain.Book, error) {
	if r == nil || r.base == nil {
		return domain.Book{}, errors.New("book repository not initialised")
	}
	if strings.TrimSpace(bookID) == "" {
		return domain.Book{}, errors.New("book id is required")
	}

	doc, err := r.base.Get(ctx, bookID)
	if err != nil {
		return domain.Book{}, err
	}
	return toDomainBook(doc.ID, doc.Data), nil
}

// List returns books matching the filter ordered by creation time ascending.
func (r *BookRepository) List(ctx context.Context, filter repositories.BookListFilter) ([]domain.Book, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("book repository not initialised")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if status := strings.ToLower(strings.TrimSpace(filter.Status)); status != "" {
			q = q.Where("status", "==", status)
		}
		if addedBy := strings.ToLower(strings.TrimSpace(filter.AddedBy)); addedBy != "" {
			q = q.Where("addedBy", "==", addedBy)
		}
		return q.OrderBy("createdAt", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	books := make([]domain.Book, 0, len(docs))
	for _, doc := range docs {
		books = append(books, toDomainBook(doc.ID, doc.Data))
	}
	return books, nil
}

// ListLatest returns the newest books limited to the supplied count.
func (r *BookRepository) ListLatest(ctx context.Context, limit int) ([]domain.Book, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("book repository not initialised")
	}
	if limit <= 0 {
		limit = 6
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("createdAt", firestore.Desc).Limit(limit)
	})
	if err != nil {
		return nil, err
	}

	books := make([]domain.Book, 0, len(docs))
	for _, doc := range docs {
		books = append(books, toDomainBook(doc.ID, doc.Data))
	}
	return books, nil
}

type bookDocument struct {
	Title       string    `firestore:"title"`
	Author      string    `firestore:"author"`
	Description string    `firestore:"description"`
	Price       float64   `firestore:"price"`
	CoverURL    string    `firestore:"coverUrl"`
	Status      string    `firestore:"status"`
	AddedBy     string    `firestore:"addedBy"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

func fromDomainBook(book domain.Book) bookDocument {
	return bookDocument{
		Title:       strings.TrimSpace(book.Title),
		Author:      strings.TrimSpace(book.Author),
		Description: book.Description,
		Price:       book.Price,
		CoverURL:    strings.TrimSpace(book.CoverURL),
		Status:      string(book.Status),
		AddedBy:     strings.ToLower(strings.TrimSpace(book.AddedBy)),
		CreatedAt:   book.CreatedAt.UTC(),
		UpdatedAt:   book.UpdatedAt.UTC(),
	}
}

func toDomainBook(id string, doc bookDocument) domain.Book {
	return domain.Book{
		ID:          id,
		Title:       doc.Title,
		Author:      doc.Author,
		Description: doc.Description,
		Price:       doc.Price,
		CoverURL:    doc.CoverURL,
		Status:      domain.BookStatus(doc.Status),
		AddedBy:     doc.AddedBy,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
}

var _ repositories.BookRepository = (*BookRepository)(nil)
