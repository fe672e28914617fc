package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/bookcourier/api/internal/domain"
	"github.com/bookcourier/api/internal/repositories"
)

const (
	orderEventCreated       = "order.created"
	orderEventStatusChanged = "order.status.changed"
	orderEventPaid          = "order.paid"

	orderIDPrefix      = "ord_"
	orderEventIDPrefix = "evt_"

	orderNumberCounter = "orders"
)

var (
	// ErrOrderInvalidInput signals the caller provided invalid data.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the order could not be located.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderInvalidTransition indicates an illegal status transition was attempted.
	ErrOrderInvalidTransition = errors.New("order: invalid status transition")
	// ErrOrderConflict indicates the store rejected a conflicting update.
	ErrOrderConflict = errors.New("order: conflict")
)

// orderStateTransitions is the full fulfillment state machine. Statuses absent
// from the map (delivered, cancelled) are terminal; self transitions are not
// listed and therefore rejected.
var orderStateTransitions = map[string][]string{
	string(domain.OrderStatusPending): {string(domain.OrderStatusShipped), string(domain.OrderStatusCancelled)},
	string(domain.OrderStatusShipped): {string(domain.OrderStatusDelivered)},
}

var orderStatuses = []string{
	string(domain.OrderStatusPending),
	string(domain.OrderStatusShipped),
	string(domain.OrderStatusDelivered),
	string(domain.OrderStatusCancelled),
}

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Orders      repositories.OrderRepository
	Counters    repositories.CounterRepository
	UnitOfWork  repositories.UnitOfWork
	Clock       func() time.Time
	IDGenerator func() string
	Events      OrderEventPublisher
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders     repositories.OrderRepository
	counters   repositories.CounterRepository
	unitOfWork repositories.UnitOfWork
	clock      func() time.Time
	newID      func() string
	events     OrderEventPublisher
	logger     func(context.Context, string, map[string]any)
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Counters == nil {
		return nil, errors.New("order service: counter repository is required")
	}

	unit := deps.UnitOfWork
	if unit == nil {
		unit = noopUnitOfWork{}
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

	return &orderService{
		orders:     deps.Orders,
		counters:   deps.Counters,
		unitOfWork: unit,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		events: deps.Events,
		logger: logger,
	}, nil
}

func (s *orderService) Create(ctx context.Context, cmd CreateOrderCommand) (Order, error) {
	bookID := strings.TrimSpace(cmd.BookID)
	if bookID == "" {
		return Order{}, fmt.Errorf("%w: book id is required", ErrOrderInvalidInput)
	}
	buyerEmail := strings.ToLower(strings.TrimSpace(cmd.BuyerEmail))
	if buyerEmail == "" {
		return Order{}, fmt.Errorf("%w: buyer email is required", ErrOrderInvalidInput)
	}
	if cmd.Price < 0 {
		return Order{}, fmt.Errorf("%w: price must not be negative", ErrOrderInvalidInput)
	}
	quantity := cmd.Quantity
	if quantity < 0 {
		return Order{}, fmt.Errorf("%w: quantity must not be negative", ErrOrderInvalidInput)
	}
	if quantity == 0 {
		quantity = 1
	}

	now := s.now()

	number, err := s.generateOrderNumber(ctx, now)
	if err != nil {
		return Order{}, err
	}

	order := Order{
		ID:            s.nextOrderID(),
		OrderNumber:   number,
		BookID:        bookID,
		BuyerEmail:    buyerEmail,
		Price:         cmd.Price,
		Quantity:      quantity,
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusUnpaid,
		OrderDate:     now,
		UpdatedAt:     now,
	}

	err = s.runInTx(ctx, func(txCtx context.Context) error {
		if err := s.orders.Insert(txCtx, order); err != nil {
			return s.mapRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	s.publishEvent(ctx, orderEventCreated, order, now)

	return order, nil
}

func (s *orderService) Get(ctx context.Context, orderID string) (Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	return order, nil
}

func (s *orderService) List(ctx context.Context, filter OrderListFilter) ([]Order, error) {
	if filter.Status != "" && !isOrderStatus(strings.ToLower(strings.TrimSpace(filter.Status))) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrOrderInvalidInput, filter.Status)
	}

	orders, err := s.orders.List(ctx, repositories.OrderListFilter{
		BuyerEmail: filter.BuyerEmail,
		Status:     filter.Status,
		BookID:     filter.BookID,
		From:       filter.From,
		To:         filter.To,
	})
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return orders, nil
}

func (s *orderService) TransitionStatus(ctx context.Context, cmd OrderStatusTransitionCommand) (Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	target := strings.ToLower(strings.TrimSpace(cmd.TargetStatus))

	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	if target == "" {
		return Order{}, fmt.Errorf("%w: target status is required", ErrOrderInvalidInput)
	}
	if !isOrderStatus(target) {
		return Order{}, fmt.Errorf("%w: unknown status %q", ErrOrderInvalidInput, target)
	}

	now := s.now()

	updated, err := s.orders.Mutate(ctx, orderID, func(order domain.Order) (domain.Order, error) {
		current := string(order.Status)
		if !canTransition(current, target) {
			return domain.Order{}, fmt.Errorf("%w: cannot move from %q to %q", ErrOrderInvalidTransition, current, target)
		}
		order.Status = domain.OrderStatus(target)
		order.UpdatedAt = now
		return order, nil
	})
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	s.publishEvent(ctx, orderEventStatusChanged, updated, now)

	return updated, nil
}

func (s *orderService) ConfirmPayment(ctx context.Context, cmd ConfirmPaymentCommand) (Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	transactionID := strings.TrimSpace(cmd.TransactionID)

	now := s.now()

	var alreadyPaid bool
	updated, err := s.orders.Mutate(ctx, orderID, func(order domain.Order) (domain.Order, error) {
		if order.PaymentStatus == domain.PaymentStatusPaid {
			alreadyPaid = true
			return order, nil
		}
		alreadyPaid = false
		order.PaymentStatus = domain.PaymentStatusPaid
		order.TransactionID = optionalString(transactionID)
		order.PaidAt = &now
		order.UpdatedAt = now
		return order, nil
	})
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}

	if !alreadyPaid {
		s.publishEvent(ctx, orderEventPaid, updated, now)
	}

	return updated, nil
}

func (s *orderService) Delete(ctx context.Context, orderID string) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}

	return s.runInTx(ctx, func(txCtx context.Context) error {
		if err := s.orders.Delete(txCtx, orderID); err != nil {
			return s.mapRepositoryError(err)
		}
		return nil
	})
}

func (s *orderService) DeleteByBook(ctx context.Context, bookID string) (int, error) {
	bookID = strings.TrimSpace(bookID)
	if bookID == "" {
		return 0, fmt.Errorf("%w: book id is required", ErrOrderInvalidInput)
	}

	orders, err := s.orders.List(ctx, repositories.OrderListFilter{BookID: bookID})
	if err != nil {
		return 0, s.mapRepositoryError(err)
	}

	deleted := 0
	err = s.runInTx(ctx, func(txCtx context.Context) error {
		for _, order := range orders {
			if err := s.orders.Delete(txCtx, order.ID); err != nil {
				return s.mapRepositoryError(err)
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return deleted, err
	}
	return deleted, nil
}

func (s *orderService) generateOrderNumber(ctx context.Context, now time.Time) (string, error) {
	seq, err := s.counters.Next(ctx, orderNumberCounter, 1)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("BC-%d-%d", now.Year(), seq), nil
}

func (s *orderService) runInTx(ctx context.Context, fn func(context.Context) error) error {
	if s.unitOfWork == nil {
		return fn(ctx)
	}
	return s.unitOfWork.RunInTx(ctx, fn)
}

func (s *orderService) now() time.Time {
	return s.clock()
}

func (s *orderService) nextOrderID() string {
	return orderIDPrefix + s.newID()
}

func (s *orderService) publishEvent(ctx context.Context, eventType string, order Order, occurredAt time.Time) {
	if s.events == nil {
		return
	}

	message := OrderEventMessage{
		EventID:       orderEventIDPrefix + s.newID(),
		Type:          eventType,
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		BookID:        order.BookID,
		BuyerEmail:    order.BuyerEmail,
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		OccurredAt:    occurredAt,
	}

	if err := s.events.PublishOrderEvent(ctx, message); err != nil {
		s.logger(ctx, "order.event.publish.failed", map[string]any{
			"type":  eventType,
			"order": order.ID,
			"error": err.Error(),
		})
	}
}

func (s *orderService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrOrderConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("order: repository unavailable: %w", err)
		}
	}

	return err
}

type noopUnitOfWork struct{}

func (noopUnitOfWork) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func canTransition(current, target string) bool {
	next, ok := orderStateTransitions[current]
	if !ok {
		return false
	}
	return slices.Contains(next, target)
}

func isOrderStatus(value string) bool {
	return slices.Contains(orderStatuses, value)
}

func valuePtr[T any](v T) *T {
	return &v
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	ref := v
	return &ref
}
