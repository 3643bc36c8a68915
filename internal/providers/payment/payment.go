package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// Intent describes the payment order to create for one booking.
type Intent struct {
	BookingID   string
	Amount      decimal.Decimal
	Description string
	ReturnURL   string
	CancelURL   string
	PayerEmail  string
}

type Result struct {
	OrderID    string
	ApproveURL string
}

// Gateway creates provider-side payment orders and returns where to send the payer.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, in Intent) (Result, error)
}
