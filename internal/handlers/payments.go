package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bookcourier/api/internal/platform/httpx"
	"github.com/bookcourier/api/internal/services"
)

const (
	maxPaymentBodySize      = 16 * 1024
	defaultIntentRateLimit  = 30
	defaultIntentRateWindow = time.Minute
)

// PaymentHandlers exposes the payment intent endpoint.
type PaymentHandlers struct {
	payments services.PaymentService
	limiter  rateLimiter
}

// NewPaymentHandlers constructs a new PaymentHandlers instance. Intent creation
// is rate limited per client address to keep a misbehaving client from
// hammering the PSP.
func NewPaymentHandlers(payments services.PaymentService) *PaymentHandlers {
	return &PaymentHandlers{
		payments: payments,
		limiter:  newSimpleRateLimiter(defaultIntentRateLimit, defaultIntentRateWindow, nil),
	}
}

// Routes registers the /payments endpoints.
func (h *PaymentHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/intent", h.createIntent)
}

func (h *PaymentHandlers) createIntent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.payments == nil {
		httpx.WriteError(ctx, w, httpx.NewError("payment_service_unavailable", "payment service unavailable", http.StatusServiceUnavailable))
		return
	}

	if h.limiter != nil && !h.limiter.Allow(r.RemoteAddr) {
		httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many payment intent requests", http.StatusTooManyRequests))
		return
	}

	body, err := readLimitedBody(r, maxPaymentBodySize)
	if err != nil {
		writeOrderBodyError(ctx, w, err)
		return
	}

	var req createIntentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	intent, err := h.payments.CreateIntent(ctx, services.CreateIntentCommand{
		Price:    req.Price,
		Currency: strings.TrimSpace(req.Currency),
		OrderID:  strings.TrimSpace(req.OrderID),
	})
	if err != nil {
		writePaymentError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, createIntentResponse{
		ClientSecret: intent.ClientSecret,
		IntentID:     intent.ID,
		Amount:       intent.Amount,
		Currency:     intent.Currency,
	})
}

type createIntentRequest struct {
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	OrderID  string  `json:"orderId"`
}

type createIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
	IntentID     string `json:"intentId"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

func writePaymentError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrPaymentInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrPaymentGateway):
		httpx.WriteError(ctx, w, httpx.NewError("upstream_failure", "payment gateway rejected the request", http.StatusBadGateway))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("payment_error", "failed to process payment request", http.StatusInternalServerError))
	}
}
