package properties

import (
	"context"
	"errors"
	"strings"

	"directstay/internal/domain/pricing"
)

var (
	ErrNotFound      = errors.New("properties: property not found")
	ErrCapacity      = errors.New("properties: capacity must be at least 1")
	ErrTitleRequired = errors.New("properties: title is required")
)

type PropertyID string

// Property is the read-only snapshot of a bookable unit as the storefront sees it.
type Property struct {
	ID       PropertyID          `json:"id"`
	Title    string              `json:"title"`
	City     string              `json:"city,omitempty"`
	Capacity int                 `json:"capacity"`
	Pricing  pricing.Pricing     `json:"pricing"`
	Fees     pricing.FeeSchedule `json:"fees"`
}

type Repository interface {
	ByID(ctx context.Context, id PropertyID) (*Property, error)
	List(ctx context.Context) ([]*Property, error)
}

// Validate checks the invariants the storefront relies on. Missing rates are
// not an error: they surface as a "price unavailable" draft instead.
func (p *Property) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return ErrTitleRequired
	}
	if p.Capacity < 1 {
		return ErrCapacity
	}
	return p.Pricing.Validate()
}

// Currency returns the pricing currency.
func (p *Property) Currency() string {
	return p.Pricing.Currency
}
