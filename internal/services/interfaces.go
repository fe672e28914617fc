package services

import (
	"context"
	"time"

	domain "github.com/bookcourier/api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Order              = domain.Order
	OrderStatus        = domain.OrderStatus
	PaymentStatus      = domain.PaymentStatus
	Book               = domain.Book
	BookStatus         = domain.BookStatus
	Role               = domain.Role
	UserAccount        = domain.UserAccount
	RoleAssignment     = domain.RoleAssignment
	WishlistItem       = domain.WishlistItem
	Review             = domain.Review
	SystemHealthReport = domain.SystemHealthReport
)

// OrderService encapsulates the order fulfillment and payment lifecycle.
type OrderService interface {
	Create(ctx context.Context, cmd CreateOrderCommand) (Order, error)
	Get(ctx context.Context, orderID string) (Order, error)
	List(ctx context.Context, filter OrderListFilter) ([]Order, error)
	TransitionStatus(ctx context.Context, cmd OrderStatusTransitionCommand) (Order, error)
	ConfirmPayment(ctx context.Context, cmd ConfirmPaymentCommand) (Order, error)
	Delete(ctx context.Context, orderID string) error
	DeleteByBook(ctx context.Context, bookID string) (int, error)
}

// BookService manages the librarian-owned catalog.
type BookService interface {
	List(ctx context.Context, filter BookListFilter) ([]Book, error)
	Latest(ctx context.Context) ([]Book, error)
	Get(ctx context.Context, bookID string) (Book, error)
	Create(ctx context.Context, cmd CreateBookCommand) (Book, error)
	Update(ctx context.Context, cmd UpdateBookCommand) (Book, error)
	SetPublishStatus(ctx context.Context, cmd PublishBookCommand) (Book, error)
	Delete(ctx context.Context, cmd DeleteBookCommand) error
}

// PaymentService prepares PSP payment intents for client-side confirmation.
type PaymentService interface {
	CreateIntent(ctx context.Context, cmd CreateIntentCommand) (PaymentIntent, error)
}

// UserService manages role grants and the mirrored user accounts.
type UserService interface {
	AssignRole(ctx context.Context, cmd AssignRoleCommand) (RoleAssignment, error)
	GetRole(ctx context.Context, email string) (RoleAssignment, error)
	ListRoles(ctx context.Context) ([]RoleAssignment, error)
	ListUsers(ctx context.Context) ([]UserAccount, error)
	UpdateRole(ctx context.Context, cmd UpdateRoleCommand) (UserAccount, error)
}

// WishlistService bookmarks catalog entries per user.
type WishlistService interface {
	Add(ctx context.Context, cmd AddWishlistItemCommand) (WishlistItem, error)
	ListByUser(ctx context.Context, email string) ([]WishlistItem, error)
	Remove(ctx context.Context, itemID string) error
}

// ReviewService stores sanitised buyer feedback per book.
type ReviewService interface {
	Create(ctx context.Context, cmd CreateReviewCommand) (Review, error)
	ListByBook(ctx context.Context, bookID string) ([]Review, error)
}

// SystemService surfaces dependency health for the health endpoint.
type SystemService interface {
	Health(ctx context.Context) (SystemHealthReport, error)
}

// Authorizer decides whether an actor may mutate a catalog entry.
type Authorizer interface {
	CanManageBook(ctx context.Context, actorEmail string, book Book) error
}

// OrderEventPublisher publishes order domain events for downstream consumers.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, message OrderEventMessage) error
}

// OrderEventMessage is the wire payload of an emitted order event.
type OrderEventMessage struct {
	EventID       string    `json:"eventId"`
	Type          string    `json:"type"`
	OrderID       string    `json:"orderId"`
	OrderNumber   string    `json:"orderNumber"`
	BookID        string    `json:"bookId"`
	BuyerEmail    string    `json:"buyerEmail"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"paymentStatus"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// Command & filter DTOs ------------------------------------------------------

// CreateOrderCommand carries the buyer's purchase request. Quantity defaults to 1.
type CreateOrderCommand struct {
	BookID     string
	BuyerEmail string
	Price      float64
	Quantity   int
}

// OrderListFilter narrows order listings. Zero values match everything.
type OrderListFilter struct {
	BuyerEmail string
	Status     string
	BookID     string
	From       *time.Time
	To         *time.Time
}

// OrderStatusTransitionCommand requests a fulfillment state change.
type OrderStatusTransitionCommand struct {
	OrderID      string
	TargetStatus string
}

// ConfirmPaymentCommand records a client-reported payment confirmation.
type ConfirmPaymentCommand struct {
	OrderID       string
	TransactionID string
}

// BookListFilter narrows catalog listings.
type BookListFilter struct {
	Status  string
	AddedBy string
}

// CreateBookCommand adds a catalog entry owned by the acting librarian.
type CreateBookCommand struct {
	Title       string
	Author      string
	Description string
	Price       float64
	CoverURL    string
	ActorEmail  string
}

// UpdateBookCommand replaces the mutable fields of a catalog entry.
type UpdateBookCommand struct {
	BookID      string
	Title       string
	Author      string
	Description string
	Price       float64
	CoverURL    string
	ActorEmail  string
}

// PublishBookCommand toggles a book's publication flag.
type PublishBookCommand struct {
	BookID     string
	Status     string
	ActorEmail string
}

// DeleteBookCommand removes a book and cascades to its orders.
type DeleteBookCommand struct {
	BookID     string
	ActorEmail string
}

// CreateIntentCommand requests a PSP payment intent. Price is in major units.
type CreateIntentCommand struct {
	Price    float64
	Currency string
	OrderID  string
}

// PaymentIntent carries the client-side confirmation handle back to the caller.
type PaymentIntent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
}

// AssignRoleCommand grants a role to an email address.
type AssignRoleCommand struct {
	Email string
	Role  string
}

// UpdateRoleCommand upserts the account-level role for an email address.
type UpdateRoleCommand struct {
	Email string
	Role  string
}

// AddWishlistItemCommand bookmarks a book for a user.
type AddWishlistItemCommand struct {
	UserEmail string
	BookID    string
}

// CreateReviewCommand attaches buyer feedback to a book.
type CreateReviewCommand struct {
	BookID    string
	UserEmail string
	Rating    int
	Text      string
}
