package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"directstay/internal/domain/properties"
	"directstay/internal/domain/shared/events"
	"directstay/internal/domain/shared/money"
)

var (
	ErrInvalidState         = errors.New("booking: invalid state transition")
	ErrBookingNotFound      = errors.New("booking: not found")
	ErrUnknownPaymentMethod = errors.New("booking: unknown payment method")
)

type BookingID string

type BookingState string

const (
	StatePending   BookingState = "PENDING"
	StateConfirmed BookingState = "CONFIRMED"
	StateExpired   BookingState = "EXPIRED"
)

type PaymentMethod string

const (
	PaymentOnline        PaymentMethod = "online"
	PaymentPayAtProperty PaymentMethod = "pay_at_property"
)

func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	switch m := PaymentMethod(strings.ToLower(strings.ReplaceAll(strings.TrimSpace(raw), "-", "_"))); m {
	case PaymentOnline, PaymentPayAtProperty:
		return m, nil
	default:
		return "", ErrUnknownPaymentMethod
	}
}

// Booking is the reservation as reported back by the booking backend.
type Booking struct {
	ID            BookingID             `json:"id"`
	PropertyID    properties.PropertyID `json:"property_id"`
	CheckIn       time.Time             `json:"check_in"`
	CheckOut      time.Time             `json:"check_out"`
	Guests        int                   `json:"guests"`
	Total         money.Money           `json:"total"`
	State         BookingState          `json:"state"`
	PaymentMethod PaymentMethod         `json:"payment_method,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
}

// Request creates a pending booking from a complete draft.
func Request(id BookingID, d Draft, now time.Time) *Booking {
	b := &Booking{
		ID:         id,
		PropertyID: d.PropertyID,
		CheckIn:    d.CheckIn,
		CheckOut:   d.CheckOut,
		Guests:     d.Guests,
		Total:      d.Total,
		State:      StatePending,
		CreatedAt:  now.UTC(),
		UpdatedAt:  now.UTC(),
	}
	b.Record(BookingRequested{
		BookingID:  id,
		PropertyID: d.PropertyID,
		CheckIn:    d.CheckIn,
		CheckOut:   d.CheckOut,
		Guests:     d.Guests,
		Total:      d.Total,
		At:         now.UTC(),
	})
	return b
}

// ExpiredAt reports whether a pending booking outlived its hold at now.
func (b *Booking) ExpiredAt(now time.Time, hold time.Duration) bool {
	if b.State == StateExpired {
		return true
	}
	return b.State == StatePending && hold > 0 && now.Sub(b.CreatedAt) > hold
}

func (b *Booking) Expire(now time.Time) error {
	if b.State != StatePending {
		return ErrInvalidState
	}
	b.State = StateExpired
	b.UpdatedAt = now.UTC()
	b.Record(BookingExpired{BookingID: b.ID, At: now.UTC()})
	return nil
}

func (b *Booking) Confirm(method PaymentMethod, now time.Time) error {
	if b.State != StatePending {
		return ErrInvalidState
	}
	b.State = StateConfirmed
	b.PaymentMethod = method
	b.UpdatedAt = now.UTC()
	b.Record(BookingConfirmed{BookingID: b.ID, PropertyID: b.PropertyID, PaymentMethod: method, Total: b.Total, At: now.UTC()})
	return nil
}
