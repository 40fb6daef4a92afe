package policies

import (
	"context"

	"directstay/internal/domain/booking"
)

type PaymentSession struct {
	CheckoutID string `json:"checkout_id"`
}

type PaymentsPort interface {
	InitializePayment(ctx context.Context, id booking.BookingID) (PaymentSession, error)
}

// WidgetListener receives the widget's asynchronous events. Implementations
// never call it from inside Attach.
type WidgetListener interface {
	WidgetReady()
	WidgetFailed(err error)
}

// PaymentWidget is the hosted card form. At most one is attached at a time;
// Attach detaches whatever was attached before.
type PaymentWidget interface {
	Attach(checkoutID string, listener WidgetListener) error
	Detach()
}
