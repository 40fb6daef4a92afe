package checkout

import (
	"time"

	"directstay/internal/domain/booking"
)

type CheckoutCompleted struct {
	BookingID     booking.BookingID     `json:"booking_id"`
	PaymentMethod booking.PaymentMethod `json:"payment_method"`
	ViaRedirect   bool                  `json:"via_redirect"`
	At            time.Time             `json:"at"`
}

func (e CheckoutCompleted) EventName() string     { return "checkout.completed" }
func (e CheckoutCompleted) AggregateID() string   { return string(e.BookingID) }
func (e CheckoutCompleted) OccurredAt() time.Time { return e.At }

type PaymentSessionRefreshed struct {
	BookingID         booking.BookingID `json:"booking_id"`
	ExpiredCheckoutID string            `json:"expired_checkout_id"`
	At                time.Time         `json:"at"`
}

func (e PaymentSessionRefreshed) EventName() string     { return "checkout.payment_session_refreshed" }
func (e PaymentSessionRefreshed) AggregateID() string   { return string(e.BookingID) }
func (e PaymentSessionRefreshed) OccurredAt() time.Time { return e.At }
