package draft

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"directstay/internal/app/faults"
	"directstay/internal/app/policies"
	"directstay/internal/domain/availability"
	"directstay/internal/domain/booking"
	"directstay/internal/domain/pricing"
	"directstay/internal/domain/properties"
	"directstay/internal/domain/shared/daterange"
	"directstay/internal/domain/stay"
)

var ErrSubmissionInFlight = errors.New("draft: submission already in flight")

type Deps struct {
	Property *properties.Property
	Calendar *availability.Calendar
	Bookings policies.BookingPort
	Now      func() time.Time
	Logger   *slog.Logger
}

// Controller owns one visitor's selection for one property. Setters are
// serialized and either apply completely or leave the selection untouched.
// The draft is re-derived once after every accepted change.
type Controller struct {
	mu         sync.Mutex
	property   *properties.Property
	calendar   *availability.Calendar
	bookings   policies.BookingPort
	now        func() time.Time
	logger     *slog.Logger
	sel        stay.Selection
	draft      booking.Draft
	submitting bool
}

func New(deps Deps) (*Controller, error) {
	if deps.Property == nil {
		return nil, errors.New("draft: property required")
	}
	if deps.Bookings == nil {
		return nil, errors.New("draft: booking port required")
	}
	if deps.Calendar == nil {
		deps.Calendar = availability.NewCalendar(deps.Property.ID)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	c := &Controller{
		property: deps.Property,
		calendar: deps.Calendar,
		bookings: deps.Bookings,
		now:      deps.Now,
		logger:   deps.Logger.With("property_id", deps.Property.ID),
		sel:      stay.NewSelection(),
	}
	c.recompute()
	return c, nil
}

func (c *Controller) Selection() stay.Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel
}

func (c *Controller) Draft() booking.Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

func (c *Controller) Submitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

func (c *Controller) Property() *properties.Property { return c.property }

// Calendar returns the availability the controller validates against.
func (c *Controller) Calendar() *availability.Calendar {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calendar
}

// ReplaceCalendar swaps in fresher availability. The current selection is kept;
// the backend stays authoritative at submission.
func (c *Controller) ReplaceCalendar(cal *availability.Calendar) {
	if cal == nil {
		return
	}
	c.mu.Lock()
	c.calendar = cal
	c.mu.Unlock()
}

// SetPeriod switches the pricing period and clears everything that depended on the old one.
func (c *Controller) SetPeriod(p pricing.Period) error {
	if !p.Valid() {
		return faults.ValidationErr(pricing.ErrUnknownPeriod)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	guests := c.sel.Guests
	c.sel = stay.Selection{Period: p, Quantity: 1, Guests: guests}
	c.recompute()
	return nil
}

func (c *Controller) SetCheckIn(date time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	day := daterange.Day(date)
	if day.IsZero() {
		return faults.Validation("check-in date is required")
	}
	if day.Before(daterange.Day(c.now())) {
		return faults.Validation("check-in date cannot be in the past")
	}

	next := c.sel
	next.CheckIn = day
	if c.sel.Period.Recurring() {
		checkOut, _ := stay.ImpliedCheckOut(day, next.Period, next.Quantity)
		if err := c.calendar.CheckWindow(day, checkOut); err != nil {
			return conflict(err)
		}
		next.CheckOut = checkOut
	} else {
		if c.calendar.IsBlocked(day) {
			return faults.Validation("the selected check-in date is not available")
		}
		if next.HasCheckOut() && (!next.CheckOut.After(day) || c.calendar.CheckWindow(day, next.CheckOut) != nil) {
			next.CheckOut = time.Time{}
		}
	}
	c.sel = next
	c.recompute()
	return nil
}

// SetCheckOut is only legal for night stays once a check-in is chosen. Nights
// spanning a blocked day are rejected like a recurring window.
func (c *Controller) SetCheckOut(date time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sel.Period != pricing.PeriodNight {
		return faults.Validation("check-out is derived from the selected period")
	}
	if !c.sel.HasCheckIn() {
		return faults.Validation("choose a check-in date first")
	}
	day := daterange.Day(date)
	if !day.After(c.sel.CheckIn) {
		return faults.Validation("check-out must be after check-in")
	}
	if err := c.calendar.CheckWindow(c.sel.CheckIn, day); err != nil {
		return conflict(err)
	}
	c.sel.CheckOut = day
	c.recompute()
	return nil
}

func (c *Controller) SetQuantity(n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	limit := stay.QuantityLimit(c.sel.Period)
	if n < 1 || n > limit {
		return faults.Validation(fmt.Sprintf("quantity must be between 1 and %d", limit))
	}
	next := c.sel
	next.Quantity = n
	if next.Period.Recurring() && next.HasCheckIn() {
		checkOut, _ := stay.ImpliedCheckOut(next.CheckIn, next.Period, n)
		if err := c.calendar.CheckWindow(next.CheckIn, checkOut); err != nil {
			return conflict(err)
		}
		next.CheckOut = checkOut
	}
	c.sel = next
	c.recompute()
	return nil
}

func (c *Controller) SetMonth(ym daterange.YearMonth) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sel.Period != pricing.PeriodMonth {
		return faults.Validation("a start month only applies to monthly stays")
	}
	if !ym.Valid() {
		return faults.Validation("start month is invalid")
	}
	c.sel.StartMonth = ym
	c.recompute()
	return nil
}

func (c *Controller) SetGuests(g int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if g < 1 || g > c.property.Capacity {
		return faults.Validation(fmt.Sprintf("guests must be between 1 and %d", c.property.Capacity))
	}
	c.sel.Guests = g
	c.recompute()
	return nil
}

// Submit sends the current draft to booking creation. Only one submission may be
// in flight; a second call while one is pending fails without reaching the backend.
// Failures never modify the selection.
func (c *Controller) Submit(ctx context.Context) (policies.CreateBookingResult, booking.Draft, error) {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return policies.CreateBookingResult{}, booking.Draft{}, &faults.Error{
			Kind:    faults.KindValidation,
			Message: "a booking request is already being submitted",
			Err:     ErrSubmissionInFlight,
		}
	}
	if err := c.readyLocked(); err != nil {
		c.mu.Unlock()
		return policies.CreateBookingResult{}, booking.Draft{}, err
	}
	d := c.draft
	c.submitting = true
	c.mu.Unlock()

	res, err := c.bookings.CreateBooking(ctx, d)

	c.mu.Lock()
	c.submitting = false
	c.mu.Unlock()

	if err != nil {
		ferr := faults.FromRemote(err)
		c.logger.Warn("booking submission failed", "kind", ferr.Kind, "err", err)
		return policies.CreateBookingResult{}, d, ferr
	}
	if res.BookingID == "" {
		return policies.CreateBookingResult{}, d, faults.Remote(errors.New("draft: backend returned no booking id"))
	}
	c.logger.Info("booking submitted", "booking_id", res.BookingID, "period", d.Period, "units", d.Units, "total", d.Total.Amount)
	return res, d, nil
}

func (c *Controller) readyLocked() error {
	switch {
	case !c.sel.HasCheckIn():
		return faults.Validation("check-in date is required")
	case c.sel.Period == pricing.PeriodNight && !c.sel.HasCheckOut():
		return faults.Validation("check-out date is required")
	case c.sel.Period == pricing.PeriodMonth && c.sel.StartMonth.IsZero():
		return faults.Validation("start month is required for monthly stays")
	case !c.draft.PriceAvailable:
		return faults.ConfigurationGap("price unavailable for the selected period")
	case !c.draft.Complete:
		return faults.Validation("the selection is incomplete")
	}
	return nil
}

func (c *Controller) recompute() {
	c.draft = booking.Derive(c.sel, c.property)
}

func conflict(err error) error {
	var ce *availability.ConflictError
	if errors.As(err, &ce) {
		return &faults.Error{
			Kind:    faults.KindValidation,
			Message: "the selected dates are not available, next available date is " + ce.NextAvailable.Format(daterange.DayLayout),
			Err:     ce,
		}
	}
	return faults.ValidationErr(err)
}
