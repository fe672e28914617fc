package payments

import "context"

// Provider abstracts the PSP used to prepare client-side payment flows. The
// backend only prepares intents; charge outcomes arrive through the client's
// subsequent payment confirmation call.
type Provider interface {
	CreateIntent(ctx context.Context, req IntentRequest) (Intent, error)
}

// IntentRequest describes the charge to prepare. Amount is in minor units.
type IntentRequest struct {
	Amount   int64
	Currency string
	Metadata map[string]string
}

// Intent carries the PSP handle the client uses to confirm the charge.
type Intent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
	Status       string
}
