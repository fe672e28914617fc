package repositories

import (
	"context"
	"time"

	domain "github.com/bookcourier/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Books() BookRepository
	Orders() OrderRepository
	Users() UserRepository
	Roles() RoleRepository
	Wishlists() WishlistRepository
	Reviews() ReviewRepository
	Counters() CounterRepository
	Health() HealthRepository
	UnitOfWork
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// BookRepository persists the librarian-managed catalog.
type BookRepository interface {
	Insert(ctx context.Context, book domain.Book) error
	Update(ctx context.Context, book domain.Book) error
	Delete(ctx context.Context, bookID string) error
	FindByID(ctx context.Context, bookID string) (domain.Book, error)
	List(ctx context.Context, filter BookListFilter) ([]domain.Book, error)
	ListLatest(ctx context.Context, limit int) ([]domain.Book, error)
}

// OrderRepository persists order headers and provides query helpers.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	Update(ctx context.Context, order domain.Order) error
	// Mutate applies fn to the stored order atomically. Errors returned by fn
	// abort the write and surface to the caller unchanged (via Unwrap).
	Mutate(ctx context.Context, orderID string, fn func(domain.Order) (domain.Order, error)) (domain.Order, error)
	Delete(ctx context.Context, orderID string) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) ([]domain.Order, error)
}

// UserRepository stores user accounts keyed by email.
type UserRepository interface {
	Upsert(ctx context.Context, account domain.UserAccount) error
	FindByEmail(ctx context.Context, email string) (domain.UserAccount, error)
	List(ctx context.Context) ([]domain.UserAccount, error)
}

// RoleRepository stores role assignment records.
type RoleRepository interface {
	Insert(ctx context.Context, assignment domain.RoleAssignment) error
	FindByEmail(ctx context.Context, email string) (domain.RoleAssignment, error)
	List(ctx context.Context) ([]domain.RoleAssignment, error)
}

// WishlistRepository bookmarks books per user.
type WishlistRepository interface {
	Insert(ctx context.Context, item domain.WishlistItem) error
	Delete(ctx context.Context, itemID string) error
	ListByUser(ctx context.Context, email string) ([]domain.WishlistItem, error)
}

// ReviewRepository stores buyer feedback per book.
type ReviewRepository interface {
	Insert(ctx context.Context, review domain.Review) error
	ListByBook(ctx context.Context, bookID string) ([]domain.Review, error)
}

// CounterRepository provides transaction-safe sequence numbers.
type CounterRepository interface {
	Next(ctx context.Context, counterID string, step int64) (int64, error)
	Configure(ctx context.Context, counterID string, cfg CounterConfig) error
}

// HealthRepository exposes status of downstream dependencies for health checks.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}

// Filter DTOs shared across repositories ------------------------------------

// BookListFilter narrows catalog listings. An empty Status returns every book.
type BookListFilter struct {
	Status  string
	AddedBy string
}

// OrderListFilter narrows order listings. Zero values match everything; results
// keep orderDate ascending so insertion order is preserved.
type OrderListFilter struct {
	BuyerEmail string
	Status     string
	BookID     string
	From       *time.Time
	To         *time.Time
}

// CounterConfig customises increment behaviour and bounds for a counter.
type CounterConfig struct {
	Step         int64
	MaxValue     *int64
	InitialValue *int64
}
