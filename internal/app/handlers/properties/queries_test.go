package properties

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"directstay/internal/app/dto"
	"directstay/internal/app/faults"
	"directstay/internal/app/queries"
	"directstay/internal/domain/availability"
	"directstay/internal/domain/pricing"
	domainproperties "directstay/internal/domain/properties"
	"directstay/internal/domain/shared/daterange"
	"directstay/internal/domain/shared/money"
)

type repo map[domainproperties.PropertyID]*domainproperties.Property

func (r repo) ByID(_ context.Context, id domainproperties.PropertyID) (*domainproperties.Property, error) {
	if p, ok := r[id]; ok {
		return p, nil
	}
	return nil, domainproperties.ErrNotFound
}

func (r repo) List(context.Context) ([]*domainproperties.Property, error) { return nil, nil }

type snapshotPort availability.Snapshot

func (s snapshotPort) PropertyAvailability(context.Context, domainproperties.PropertyID) (availability.Snapshot, error) {
	return availability.Snapshot(s), nil
}

func fixtures() (repo, snapshotPort) {
	eur := func(a int64) money.Money { return money.Must(a, "EUR") }
	r := repo{"villa": {
		ID: "villa", Title: "Villa", Capacity: 2,
		Pricing: pricing.Pricing{
			Currency:         "EUR",
			Rates:            map[pricing.Period]money.Money{pricing.PeriodNight: eur(500), pricing.PeriodWeek: eur(3000)},
			WeekdayOverrides: map[time.Weekday]money.Money{time.Friday: eur(700)},
		},
		Fees: pricing.FeeSchedule{CleaningFee: eur(100)},
	}}
	snap := snapshotPort{ConfirmedBookings: []daterange.Inclusive{{Start: daterange.MustDay("2025-04-10"), End: daterange.MustDay("2025-04-12")}}}
	return r, snap
}

func TestCalendarHandler(t *testing.T) {
	r, snap := fixtures()
	bus := queries.NewInMemoryBus()
	queries.RegisterHandler[CalendarQuery, dto.Calendar](bus, CalendarKey, &CalendarHandler{
		Properties: r, Availability: snap, Now: func() time.Time { return daterange.MustDay("2025-04-01") },
	})

	cal, err := queries.Ask[CalendarQuery, dto.Calendar](context.Background(), bus, CalendarQuery{
		PropertyID: "villa", From: daterange.MustDay("2025-04-07"), To: daterange.MustDay("2025-04-14"), Period: "week",
	})

	require.NoError(t, err)
	require.Len(t, cal.Days, 7)
	assert.Equal(t, "2025-04-07", cal.Days[0].Date)
	assert.False(t, cal.Days[0].SelectableCheckIn, "week from 04-07 overlaps the block")
	assert.True(t, cal.Days[3].Blocked)
	assert.Equal(t, int64(3000), cal.Days[0].Price.Amount)
}

func TestCalendarHandler_RejectsHugeWindow(t *testing.T) {
	r, snap := fixtures()
	h := &CalendarHandler{Properties: r, Availability: snap}
	_, err := h.Handle(context.Background(), CalendarQuery{
		PropertyID: "villa", From: daterange.MustDay("2025-01-01"), To: daterange.MustDay("2026-06-01"),
	})
	assert.Equal(t, faults.KindValidation, faults.KindOf(err))
}

func TestQuoteHandler(t *testing.T) {
	r, snap := fixtures()
	h := &QuoteHandler{Properties: r, Availability: snap}

	q, err := h.Handle(context.Background(), QuoteQuery{
		PropertyID: "villa", CheckIn: daterange.MustDay("2025-03-06"), CheckOut: daterange.MustDay("2025-03-08"),
	})
	require.NoError(t, err)
	assert.True(t, q.Available)
	assert.Equal(t, int64(1200), q.Draft.Subtotal.Amount)
	assert.Equal(t, int64(1300), q.Draft.Total.Amount)
	require.Len(t, q.Draft.DailyPrices, 2)

	q, err = h.Handle(context.Background(), QuoteQuery{
		PropertyID: "villa", Period: "week", Quantity: 1, CheckIn: daterange.MustDay("2025-04-08"),
	})
	require.NoError(t, err)
	assert.False(t, q.Available)
	assert.Equal(t, "2025-04-13", q.NextAvailable)

	_, err = h.Handle(context.Background(), QuoteQuery{PropertyID: "villa", Guests: 3})
	assert.Equal(t, faults.KindValidation, faults.KindOf(err))

	_, err = h.Handle(context.Background(), QuoteQuery{PropertyID: "ghost"})
	assert.Equal(t, faults.KindValidation, faults.KindOf(err))
}
