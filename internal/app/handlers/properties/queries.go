package properties

import (
	"context"
	"errors"
	"time"

	"directstay/internal/app/dto"
	"directstay/internal/app/faults"
	"directstay/internal/app/policies"
	"directstay/internal/app/queries"
	"directstay/internal/domain/availability"
	"directstay/internal/domain/booking"
	"directstay/internal/domain/pricing"
	domainproperties "directstay/internal/domain/properties"
	"directstay/internal/domain/shared/daterange"
	"directstay/internal/domain/stay"
)

const (
	CalendarKey = "properties.calendar"
	QuoteKey    = "properties.quote"

	maxCalendarDays = 366
)

type CalendarQuery struct {
	PropertyID string `validate:"required"`
	From       time.Time
	To         time.Time
	Period     string `validate:"omitempty,oneof=night week month year"`
	Quantity   int    `validate:"gte=0,lte=52"`
}

func (q CalendarQuery) Key() string { return CalendarKey }

type CalendarHandler struct {
	Properties   domainproperties.Repository
	Availability policies.AvailabilityPort
	Now          func() time.Time
}

func (h *CalendarHandler) Handle(ctx context.Context, q CalendarQuery) (dto.Calendar, error) {
	from, to := daterange.Day(q.From), daterange.Day(q.To)
	if from.IsZero() {
		from = daterange.Day(h.now())
	}
	if to.IsZero() {
		to = from.AddDate(0, 0, 42)
	}
	if !to.After(from) || to.Sub(from) > maxCalendarDays*24*time.Hour {
		return dto.Calendar{}, faults.Validation("calendar window must span 1 to 366 days")
	}
	sel, err := selection(q.Period, q.Quantity)
	if err != nil {
		return dto.Calendar{}, err
	}
	prop, cal, err := load(ctx, h.Properties, h.Availability, q.PropertyID)
	if err != nil {
		return dto.Calendar{}, err
	}
	return dto.MapCalendar(prop, cal, sel, from, to, h.now()), nil
}

func (h *CalendarHandler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

// QuoteQuery prices a selection without opening a session.
type QuoteQuery struct {
	PropertyID string `validate:"required"`
	Period     string `validate:"omitempty,oneof=night week month year"`
	Quantity   int    `validate:"gte=0,lte=52"`
	CheckIn    time.Time
	CheckOut   time.Time
	Guests     int `validate:"gte=0"`
}

func (q QuoteQuery) Key() string { return QuoteKey }

type QuoteHandler struct {
	Properties   domainproperties.Repository
	Availability policies.AvailabilityPort
}

func (h *QuoteHandler) Handle(ctx context.Context, q QuoteQuery) (dto.Quote, error) {
	sel, err := selection(q.Period, q.Quantity)
	if err != nil {
		return dto.Quote{}, err
	}
	if q.Quantity > stay.QuantityLimit(sel.Period) {
		return dto.Quote{}, faults.Validation("quantity exceeds the period limit")
	}
	sel.CheckIn = daterange.Day(q.CheckIn)
	if sel.Period == pricing.PeriodNight {
		sel.CheckOut = daterange.Day(q.CheckOut)
	}
	if q.Guests > 0 {
		sel.Guests = q.Guests
	}
	prop, cal, err := load(ctx, h.Properties, h.Availability, q.PropertyID)
	if err != nil {
		return dto.Quote{}, err
	}
	if sel.Guests > prop.Capacity {
		return dto.Quote{}, faults.Validation("guests exceed the property capacity")
	}
	d := booking.Derive(sel, prop)
	out := dto.Quote{Draft: dto.MapDraft(d), Available: true}
	if d.Complete {
		var conflict *availability.ConflictError
		if err := cal.CheckWindow(d.CheckIn, d.CheckOut); errors.As(err, &conflict) {
			out.Available = false
			out.NextAvailable = conflict.NextAvailable.Format(daterange.DayLayout)
		}
	}
	return out, nil
}

func selection(period string, quantity int) (stay.Selection, error) {
	sel := stay.NewSelection()
	if period != "" {
		p, err := pricing.ParsePeriod(period)
		if err != nil {
			return stay.Selection{}, faults.ValidationErr(err)
		}
		sel.Period = p
	}
	if quantity > 0 {
		sel.Quantity = quantity
	}
	return sel, nil
}

func load(ctx context.Context, repo domainproperties.Repository, port policies.AvailabilityPort, id string) (*domainproperties.Property, *availability.Calendar, error) {
	pid := domainproperties.PropertyID(id)
	prop, err := repo.ByID(ctx, pid)
	if err != nil {
		if errors.Is(err, domainproperties.ErrNotFound) {
			return nil, nil, faults.ValidationErr(err)
		}
		return nil, nil, faults.Remote(err)
	}
	snap, err := port.PropertyAvailability(ctx, pid)
	if err != nil {
		return nil, nil, faults.FromRemote(err)
	}
	return prop, availability.FromSnapshot(pid, snap), nil
}

var (
	_ queries.Handler[CalendarQuery, dto.Calendar] = (*CalendarHandler)(nil)
	_ queries.Handler[QuoteQuery, dto.Quote]       = (*QuoteHandler)(nil)
)
