package booking

import (
	"time"

	"directstay/internal/domain/properties"
	"directstay/internal/domain/shared/money"
)

type BookingRequested struct {
	BookingID  BookingID             `json:"booking_id"`
	PropertyID properties.PropertyID `json:"property_id"`
	CheckIn    time.Time             `json:"check_in"`
	CheckOut   time.Time             `json:"check_out"`
	Guests     int                   `json:"guests"`
	Total      money.Money           `json:"total"`
	At         time.Time             `json:"at"`
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type BookingConfirmed struct {
	BookingID     BookingID             `json:"booking_id"`
	PropertyID    properties.PropertyID `json:"property_id"`
	PaymentMethod PaymentMethod         `json:"payment_method"`
	Total         money.Money           `json:"total"`
	At            time.Time             `json:"at"`
}

func (e BookingConfirmed) EventName() string     { return "booking.confirmed" }
func (e BookingConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e BookingConfirmed) OccurredAt() time.Time { return e.At }

type BookingExpired struct {
	BookingID BookingID `json:"booking_id"`
	At        time.Time `json:"at"`
}

func (e BookingExpired) EventName() string     { return "booking.expired" }
func (e BookingExpired) AggregateID() string   { return string(e.BookingID) }
func (e BookingExpired) OccurredAt() time.Time { return e.At }
