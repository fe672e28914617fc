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

const orderCollection = "orders"

// OrderRepository persists orders in Firestore.
type OrderRepository struct {
	base     *pfirestore.BaseRepository[orderDocument]
	provider *pfirestore.Provider
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}

	base := pfirestore.NewBaseRepository[orderDocument](provider, orderCollection, nil, nil)
	return &OrderRepository{base: base, provider: provider}, nil
}

// Insert creates the order document under its assigned ID.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	if strings.TrimSpace(order.ID) == "" {
		return errors.New("order id is required")
	}

	_, err := r.base.Set(ctx, order.ID, fromDomainOrder(order))
	return err
}

// Update overwrites the stored order document.
func (r *OrderRepository) Update(ctx context.Context, order domain.Order) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	if strings.TrimSpace(order.ID) == "" {
		return errors.New("order id is required")
	}

	_, err := r.base.Set(ctx, order.ID, fromDomainOrder(order))
	return err
}

// Delete removes the order document.
func (r *OrderRepository) Delete(ctx context.Context, orderID string) error {
	if r == nil || r.base == nil {
		return errors.New("order repository not initialised")
	}
	return r.base.Delete(ctx, orderID)
}

// FindByID loads a single order.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if r == nil || r.base == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	if strings.TrimSpace(orderID) == "" {
		return domain.Order{}, errors.New("order id is required")
	}

	doc, err := r.base.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	return toDomainOrder(doc.ID, doc.Data), nil
}

// List returns orders matching the filter ordered by orderDate ascending.
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) ([]domain.Order, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("order repository not initialised")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if email := strings.ToLower(strings.TrimSpace(filter.BuyerEmail)); email != "" {
			q = q.Where("buyerEmail", "==", email)
		}
		if status := strings.ToLower(strings.TrimSpace(filter.Status)); status != "" {
			q = q.Where("status", "==", status)
		}
		if bookID := strings.TrimSpace(filter.BookID); bookID != "" {
			q = q.Where("bookId", "==", bookID)
		}
		if filter.From != nil {
			q = q.Where("orderDate", ">=", filter.From.UTC())
		}
		if filter.To != nil {
			q = q.Where("orderDate", "<", filter.To.UTC())
		}
		return q.OrderBy("orderDate", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, toDomainOrder(doc.ID, doc.Data))
	}
	return orders, nil
}

type orderDocument struct {
	OrderNumber   string     `firestore:"orderNumber"`
	BookID        string     `firestore:"bookId"`
	BuyerEmail    string     `firestore:"buyerEmail"`
	Price         float64    `firestore:"price"`
	Quantity      int        `firestore:"quantity"`
	Status        string     `firestore:"status"`
	PaymentStatus string     `firestore:"paymentStatus"`
	TransactionID *string    `firestore:"transactionId,omitempty"`
	OrderDate     time.Time  `firestore:"orderDate"`
	PaidAt        *time.Time `firestore:"paidAt,omitempty"`
	UpdatedAt     time.Time  `firestore:"updatedAt"`
}

func fromDomainOrder(order domain.Order) orderDocument {
	doc := orderDocument{
		OrderNumber:   strings.TrimSpace(order.OrderNumber),
		BookID:        strings.TrimSpace(order.BookID),
		BuyerEmail:    strings.ToLower(strings.TrimSpace(order.BuyerEmail)),
		Price:         order.Price,
		Quantity:      order.Quantity,
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		OrderDate:     order.OrderDate.UTC(),
		UpdatedAt:     order.UpdatedAt.UTC(),
	}
	if order.TransactionID != nil {
		trimmed := strings.TrimSpace(*order.TransactionID)
		if trimmed != "" {
			doc.TransactionID = &trimmed
		}
	}
	if order.PaidAt != nil {
		paidAt := order.PaidAt.UTC()
		doc.PaidAt = &paidAt
	}
	return doc
}

func toDomainOrder(id string, doc orderDocument) domain.Order {
	order := domain.Order{
		ID:            id,
		OrderNumber:   doc.OrderNumber,
		BookID:        doc.BookID,
		BuyerEmail:    doc.BuyerEmail,
		Price:         doc.Price,
		Quantity:      doc.Quantity,
		Status:        domain.OrderStatus(doc.Status),
		PaymentStatus: domain.PaymentStatus(doc.PaymentStatus),
		TransactionID: doc.TransactionID,
		OrderDate:     doc.OrderDate,
		PaidAt:        doc.PaidAt,
		UpdatedAt:     doc.UpdatedAt,
	}
	return order
}

// Mutate applies fn to the stored order inside a Firestore transaction so the
// read and write cannot interleave with a concurrent mutation. Errors returned
// by fn abort the transaction and surface unchanged to the caller via Unwrap.
func (r *OrderRepository) Mutate(ctx context.Context, orderID string, fn func(domain.Order) (domain.Order, error)) (domain.Order, error) {
	if r == nil || r.base == nil || r.provider == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	if strings.TrimSpace(orderID) == "" {
		return domain.Order{}, errors.New("order id is required")
	}
	if fn == nil {
		return domain.Order{}, errors.New("mutation function is required")
	}

	var mutated domain.Order
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.base.DocumentRef(ctx, orderID)
		if err != nil {
			return err
		}
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var doc orderDocument
		if err := snap.DataTo(&doc); err != nil {
			return err
		}
		next, err := fn(toDomainOrder(snap.Ref.ID, doc))
		if err != nil {
			return err
		}
		mutated = next
		return tx.Set(ref, fromDomainOrder(next))
	})
	if err != nil {
		return domain.Order{}, err
	}
	return mutated, nil
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)
