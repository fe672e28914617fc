package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/bookcourier/api/internal/payments"
)

const defaultPaymentCurrency = "usd"

var (
	// ErrPaymentInvalidInput signals the caller provided invalid data.
	ErrPaymentInvalidInput = errors.New("payment: invalid input")
	// ErrPaymentGateway indicates the PSP rejected or failed the request.
	ErrPaymentGateway = errors.New("payment: gateway failure")
)

// PaymentServiceDeps bundles collaborators required to construct the payment service.
type PaymentServiceDeps struct {
	Provider        payments.Provider
	DefaultCurrency string
	Logger          func(ctx context.Context, event string, fields map[string]any)
}

type paymentService struct {
	provider        payments.Provider
	defaultCurrency string
	logger          func(context.Context, string, map[string]any)
}

// NewPaymentService wires dependencies into a concrete PaymentService implementation.
func NewPaymentService(deps PaymentServiceDeps) (PaymentService, error) {
	if deps.Provider == nil {
		return nil, errors.New("payment service: provider is required")
	}

	currency := strings.ToLower(strings.TrimSpace(deps.DefaultCurrency))
	if currency == "" {
		currency = defaultPaymentCurrency
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &paymentService{
		provider:        deps.Provider,
		defaultCurrency: currency,
		logger:          logger,
	}, nil
}

// CreateIntent converts the major-unit price to minor units and asks the PSP
// for a payment intent. Rounding happens here and nowhere else; stored order
// prices stay in major units.
func (s *paymentService) CreateIntent(ctx context.Context, cmd CreateIntentCommand) (PaymentIntent, error) {
	if cmd.Price <= 0 {
		return PaymentIntent{}, fmt.Errorf("%w: price must be positive", ErrPaymentInvalidInput)
	}

	currency := strings.ToLower(strings.TrimSpace(cmd.Currency))
	if currency == "" {
		currency = s.defaultCurrency
	}

	amount := int64(math.Round(cmd.Price * 100))

	req := payments.IntentRequest{
		Amount:   amount,
		Currency: currency,
	}
	if orderID := strings.TrimSpace(cmd.OrderID); orderID != "" {
		req.Metadata = map[string]string{"orderId": orderID}
	}

	intent, err := s.provider.CreateIntent(ctx, req)
	if err != nil {
		s.logger(ctx, "payment.intent.failed", map[string]any{
			"amount":   amount,
			"currency": currency,
			"error":    err.Error(),
		})
		return PaymentIntent{}, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}

	return PaymentIntent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       intent.Amount,
		Currency:     intent.Currency,
	}, nil
}
