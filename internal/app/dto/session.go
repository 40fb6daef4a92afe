package dto

import (
	"time"

	"directstay/internal/app/storefront"
	domaincheckout "directstay/internal/domain/checkout"
)

type Notice struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type Checkout struct {
	Step              string `json:"step"`
	PaymentMethod     string `json:"payment_method"`
	BookingID         string `json:"booking_id"`
	CheckoutID        string `json:"checkout_id,omitempty"`
	WidgetState       string `json:"widget_state"`
	LastError         string `json:"last_error,omitempty"`
	RedirectToListing bool   `json:"redirect_to_listing,omitempty"`
	ExpiresAt         string `json:"expires_at,omitempty"`
	GuestName         string `json:"guest_name,omitempty"`
	GuestEmail        string `json:"guest_email,omitempty"`
}

func MapCheckout(s domaincheckout.Session) Checkout {
	out := Checkout{
		Step:              string(s.Step),
		PaymentMethod:     string(s.PaymentMethod),
		BookingID:         string(s.BookingID),
		CheckoutID:        s.CheckoutID,
		WidgetState:       string(s.WidgetState),
		LastError:         s.LastError,
		RedirectToListing: s.RedirectToListing,
		GuestName:         s.Guest.Name,
		GuestEmail:        s.Guest.Email,
	}
	if !s.ExpiresAt.IsZero() {
		out.ExpiresAt = s.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return out
}

type Session struct {
	ID         string    `json:"id"`
	PropertyID string    `json:"property_id"`
	Selection  Selection `json:"selection"`
	Draft      Draft     `json:"draft"`
	Submitting bool      `json:"submitting"`
	Checkout   *Checkout `json:"checkout,omitempty"`
	Notices    []Notice  `json:"notices,omitempty"`
}

// MapSession renders a visitor session and drains its pending notices.
func MapSession(s *storefront.Session) Session {
	out := Session{
		ID:         string(s.ID),
		PropertyID: string(s.PropertyID),
		Selection:  MapSelection(s.Draft.Selection()),
		Draft:      MapDraft(s.Draft.Draft()),
		Submitting: s.Draft.Submitting(),
	}
	if m, err := s.Checkout(); err == nil {
		c := MapCheckout(m.Snapshot())
		out.Checkout = &c
	}
	for _, n := range s.Notices() {
		out.Notices = append(out.Notices, Notice{Kind: n.Kind, Message: n.Message})
	}
	return out
}
