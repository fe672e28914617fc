package domain

import (
	"time"
)

// OrderStatus enumerates the fulfillment lifecycle states of an order.
type OrderStatus string

const (
	// OrderStatusPending marks a freshly created order awaiting fulfillment.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusShipped marks an order handed to the courier.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered marks an order received by the buyer. Terminal.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled marks an order cancelled before shipping. Terminal.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// PaymentStatus enumerates the payment axis of an order, independent of fulfillment.
type PaymentStatus string

const (
	// PaymentStatusUnpaid is the initial payment state of every order.
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	// PaymentStatusPaid is set once payment confirmation arrives. Never reverts.
	PaymentStatusPaid PaymentStatus = "paid"
)

// BookStatus is the two-valued publication flag on a book. Either value is
// settable at any time by an authorized librarian; this is not a state machine.
type BookStatus string

const (
	// BookStatusPublished makes the book visible to buyers.
	BookStatusPublished BookStatus = "published"
	// BookStatusUnpublished hides the book from buyers. Default on creation.
	BookStatusUnpublished BookStatus = "unpublished"
)

// Role enumerates the access levels carried by a user.
type Role string

const (
	// RoleAdmin may manage any book and user roles.
	RoleAdmin Role = "admin"
	// RoleLibrarian may publish books and mutate the books it added.
	RoleLibrarian Role = "librarian"
	// RoleUser is the default buyer role.
	RoleUser Role = "user"
)

// Order tracks a buyer's request to purchase a book through fulfillment and
// payment sub-states. BookID holds the canonical string form of the book
// identifier; a dangling reference is valid-but-unresolvable, not an error.
type Order struct {
	ID            string
	OrderNumber   string
	BookID        string
	BuyerEmail    string
	Price         float64
	Quantity      int
	Status        OrderStatus
	PaymentStatus PaymentStatus
	TransactionID *string
	OrderDate     time.Time
	PaidAt        *time.Time
	UpdatedAt     time.Time
}

// Book is a librarian-published catalog entry. AddedBy records the owning
// librarian's email and gates mutations.
type Book struct {
	ID          string
	Title       string
	Author      string
	Description string
	Price       float64
	CoverURL    string
	Status      BookStatus
	AddedBy     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserAccount mirrors the role assignment into the users collection.
type UserAccount struct {
	Email     string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoleAssignment is an append-style record of a role grant.
type RoleAssignment struct {
	ID        string
	Email     string
	Role      Role
	CreatedAt time.Time
}

// WishlistItem bookmarks a book for a user.
type WishlistItem struct {
	ID        string
	UserEmail string
	BookID    string
	AddedAt   time.Time
}

// Review is buyer feedback attached to a book. Text is sanitised before storage.
type Review struct {
	ID        string
	BookID    string
	UserEmail string
	Rating    int
	Text      string
	CreatedAt time.Time
}

// HealthStatus grades the outcome of a dependency probe.
type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "ok"
	HealthStatusDegraded HealthStatus = "degraded"
	HealthStatusError    HealthStatus = "error"
)

// SystemHealthCheck records the outcome of a single dependency probe.
type SystemHealthCheck struct {
	Status    HealthStatus
	Detail    string
	Error     string
	Latency   time.Duration
	CheckedAt time.Time
}

// SystemHealthReport aggregates dependency probes for the health endpoint.
type SystemHealthReport struct {
	Status      HealthStatus
	Checks      map[string]SystemHealthCheck
	GeneratedAt time.Time
}
