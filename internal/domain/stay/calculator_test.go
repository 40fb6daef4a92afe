package stay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"directstay/internal/domain/pricing"
	"directstay/internal/domain/shared/daterange"
	"directstay/internal/domain/shared/money"
)

func eur(amount int64) money.Money { return money.Must(amount, "EUR") }

func nightly(rate int64) pricing.Pricing {
	return pricing.Pricing{Currency: "EUR", Rates: map[pricing.Period]money.Money{pricing.PeriodNight: eur(rate)}}
}

func TestCompute_NightScenarioA(t *testing.T) {
	sel := NewSelection()
	sel.CheckIn = daterange.MustDay("2025-03-01")
	sel.CheckOut = daterange.MustDay("2025-03-04")

	res := Compute(sel, nightly(500))

	require.True(t, res.Complete)
	assert.Equal(t, 3, res.Units)
	assert.Equal(t, sel.CheckOut, res.CheckOut)
	require.Len(t, res.Daily, 3)
	for _, d := range res.Daily {
		assert.Equal(t, eur(500), d.Price)
	}
}

func TestCompute_NightScenarioB(t *testing.T) {
	p := nightly(500)
	p.WeekdayOverrides = map[time.Weekday]money.Money{time.Friday: eur(700)}
	sel := NewSelection()
	sel.CheckIn = daterange.MustDay("2025-03-06")
	sel.CheckOut = daterange.MustDay("2025-03-08")

	res := Compute(sel, p)

	require.True(t, res.Complete)
	assert.Equal(t, 2, res.Units)
	assert.Equal(t, []DailyPrice{
		{Day: daterange.MustDay("2025-03-06"), Price: eur(500)},
		{Day: daterange.MustDay("2025-03-07"), Price: eur(700)},
	}, res.Daily)
}

func TestCompute_Incomplete(t *testing.T) {
	res := Compute(NewSelection(), nightly(500))
	assert.False(t, res.Complete)
	assert.Zero(t, res.Units)

	sel := NewSelection()
	sel.CheckIn = daterange.MustDay("2025-03-01")
	res = Compute(sel, nightly(500))
	assert.False(t, res.Complete, "night stay without checkout is incomplete")
}

func TestCompute_RecurringPeriods(t *testing.T) {
	checkIn := daterange.MustDay("2025-01-31")
	tests := []struct {
		name      string
		period    pricing.Period
		quantity  int
		wantUnits int
		wantOut   string
	}{
		{name: "two weeks", period: pricing.PeriodWeek, quantity: 2, wantUnits: 2, wantOut: "2025-02-14"},
		{name: "three months", period: pricing.PeriodMonth, quantity: 3, wantUnits: 3, wantOut: "2025-05-01"},
		{name: "year ignores quantity", period: pricing.PeriodYear, quantity: 4, wantUnits: 1, wantOut: "2026-01-31"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := Selection{Period: tt.period, Quantity: tt.quantity, CheckIn: checkIn, Guests: 1}
			res := Compute(sel, nightly(500))
			require.True(t, res.Complete)
			assert.Equal(t, tt.wantUnits, res.Units)
			assert.Equal(t, daterange.MustDay(tt.wantOut), res.CheckOut)
			assert.Empty(t, res.Daily)
		})
	}
}

func TestNightsBetween_AtLeastOne(t *testing.T) {
	start := daterange.MustDay("2025-06-01")
	for n := 1; n <= 60; n++ {
		end := start.AddDate(0, 0, n)
		assert.Equal(t, n, NightsBetween(start, end))
	}
	assert.Equal(t, 1, NightsBetween(start, start.Add(2*time.Hour)))
	assert.Equal(t, 2, NightsBetween(start, start.Add(25*time.Hour)))
	assert.Equal(t, 1, NightsBetween(start, start))
}

func TestImpliedCheckOut(t *testing.T) {
	_, ok := ImpliedCheckOut(daterange.MustDay("2025-04-08"), pricing.PeriodNight, 1)
	assert.False(t, ok)

	out, ok := ImpliedCheckOut(daterange.MustDay("2025-04-08"), pricing.PeriodWeek, 1)
	require.True(t, ok)
	assert.Equal(t, daterange.MustDay("2025-04-15"), out)
}

func TestQuantityLimit(t *testing.T) {
	assert.Equal(t, 52, QuantityLimit(pricing.PeriodWeek))
	assert.Equal(t, 12, QuantityLimit(pricing.PeriodMonth))
	assert.Equal(t, 1, QuantityLimit(pricing.PeriodYear))
	assert.Equal(t, 1, QuantityLimit(pricing.PeriodNight))
}
