package policies

import (
	"context"
	"errors"

	"directstay/internal/domain/availability"
	"directstay/internal/domain/booking"
	"directstay/internal/domain/properties"
)

var (
	ErrUnauthenticated = errors.New("policies: unauthenticated")
	ErrBookingExpired  = errors.New("policies: booking expired")
	ErrTimeout         = errors.New("policies: remote call timed out")
)

// RemoteValidationError carries a user-facing message from the booking backend.
type RemoteValidationError struct {
	Message string
}

func (e *RemoteValidationError) Error() string { return "policies: rejected: " + e.Message }

type CreateBookingResult struct {
	BookingID booking.BookingID `json:"booking_id"`
}

// BookingPort creates and confirms reservations on the booking backend.
type BookingPort interface {
	CreateBooking(ctx context.Context, draft booking.Draft) (CreateBookingResult, error)
	ConfirmBooking(ctx context.Context, id booking.BookingID, method booking.PaymentMethod) (booking.Booking, error)
}

// AvailabilityPort is read once per property view.
type AvailabilityPort interface {
	PropertyAvailability(ctx context.Context, id properties.PropertyID) (availability.Snapshot, error)
}
