package checkout

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"directstay/internal/domain/booking"
)

var (
	ErrInvalidStep       = errors.New("checkout: invalid step transition")
	ErrBookingIDRequired = errors.New("checkout: booking id is required")
)

type Step string

const (
	StepDetails  Step = "details"
	StepPayment  Step = "payment"
	StepComplete Step = "complete"
)

type WidgetState string

const (
	WidgetUninitialized WidgetState = "uninitialized"
	WidgetLoading       WidgetState = "loading"
	WidgetReady         WidgetState = "ready"
	WidgetError         WidgetState = "error"
	WidgetExpiring      WidgetState = "expiring"
	WidgetExpired       WidgetState = "expired"
)

// Usable reports whether the widget can take a payment in this state.
func (w WidgetState) Usable() bool {
	return w == WidgetReady || w == WidgetExpiring
}

type GuestDetails struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required,min=5,max=32"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (g GuestDetails) Normalize() GuestDetails {
	return GuestDetails{
		Name:  strings.TrimSpace(g.Name),
		Email: strings.ToLower(strings.TrimSpace(g.Email)),
		Phone: strings.TrimSpace(g.Phone),
	}
}

// Validate reports the first failing field as a user-facing message.
func (g GuestDetails) Validate() error {
	err := validate.Struct(g)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &FieldError{Field: strings.ToLower(verrs[0].Field()), Tag: verrs[0].Tag()}
	}
	return err
}

// FieldError names a guest detail that failed validation.
type FieldError struct {
	Field string
	Tag   string
}

func (e *FieldError) Error() string {
	switch e.Tag {
	case "required":
		return e.Field + " is required"
	case "email":
		return e.Field + " must be a valid email address"
	default:
		return e.Field + " is invalid"
	}
}

// Session is the checkout state visible to the guest. BookingID is fixed for
// the session's lifetime; CheckoutID changes with every payment session.
type Session struct {
	Step          Step                  `json:"step"`
	Guest         GuestDetails          `json:"guest_details"`
	PaymentMethod booking.PaymentMethod `json:"payment_method"`
	BookingID     booking.BookingID     `json:"booking_id"`
	CheckoutID    string                `json:"checkout_id,omitempty"`
	WidgetState   WidgetState           `json:"widget_state"`
	LastError     string                `json:"last_error,omitempty"`
	// RedirectToListing is set when the booking is too old to pay for.
	RedirectToListing bool      `json:"redirect_to_listing,omitempty"`
	ExpiresAt         time.Time `json:"expires_at,omitempty"`
}

func NewSession(id booking.BookingID) (Session, error) {
	if strings.TrimSpace(string(id)) == "" {
		return Session{}, ErrBookingIDRequired
	}
	return Session{
		Step:          StepDetails,
		PaymentMethod: booking.PaymentOnline,
		BookingID:     id,
		WidgetState:   WidgetUninitialized,
	}, nil
}
