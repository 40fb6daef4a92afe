package quote

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"directstay/internal/domain/pricing"
	"directstay/internal/domain/shared/daterange"
	"directstay/internal/domain/shared/money"
	"directstay/internal/domain/stay"
)

func eur(amount int64) money.Money { return money.Must(amount, "EUR") }

func TestComputeFees_TaxesOnSubtotal(t *testing.T) {
	result := stay.Result{Complete: true, Period: pricing.PeriodWeek, Units: 2}
	schedule := pricing.FeeSchedule{CleaningFee: eur(100), ServiceFee: eur(50), CityTaxPercent: 5, VATPercent: 5}

	got := ComputeFees(result, eur(500), schedule)

	assert.Equal(t, eur(1000), got.Subtotal)
	assert.Equal(t, eur(50), got.CityTax)
	assert.Equal(t, eur(50), got.VAT)
	// 1000 + 100 cleaning + 50 service + 50 city tax + 50 VAT
	assert.Equal(t, eur(1250), got.Total)
}

func TestComputeFees_DailyPricesWin(t *testing.T) {
	p := pricing.Pricing{
		Currency:         "EUR",
		Rates:            map[pricing.Period]money.Money{pricing.PeriodNight: eur(500)},
		WeekdayOverrides: map[time.Weekday]money.Money{time.Friday: eur(700)},
	}
	sel := stay.NewSelection()
	sel.CheckIn = daterange.MustDay("2025-03-06")
	sel.CheckOut = daterange.MustDay("2025-03-08")

	got := ComputeFees(stay.Compute(sel, p), eur(500), pricing.FeeSchedule{})

	assert.Equal(t, eur(1200), got.Subtotal)
	assert.Equal(t, eur(1200), got.Total)
	assert.True(t, got.CleaningFee.IsZero())
}

func TestComputeFees_TotalIdentity(t *testing.T) {
	schedules := []pricing.FeeSchedule{
		{},
		{CleaningFee: eur(100)},
		{ServiceFee: eur(33), CityTaxPercent: 7.5},
		{CleaningFee: eur(80), ServiceFee: eur(20), CityTaxPercent: 3.3, VATPercent: 19},
		{CityTaxPercent: -4, VATPercent: 0},
	}
	for _, schedule := range schedules {
		for units := 1; units <= 30; units++ {
			res := stay.Result{Complete: true, Period: pricing.PeriodMonth, Units: units}
			got := ComputeFees(res, eur(1234), schedule)
			sum := got.Subtotal.Amount + got.CleaningFee.Amount + got.ServiceFee.Amount + got.CityTax.Amount + got.VAT.Amount
			assert.Equal(t, sum, got.Total.Amount)
			for _, m := range []money.Money{got.Subtotal, got.CleaningFee, got.ServiceFee, got.CityTax, got.VAT} {
				assert.GreaterOrEqual(t, m.Amount, int64(0))
			}
		}
	}
}

func TestComputeFees_NonPositivePercentagesAreZero(t *testing.T) {
	res := stay.Result{Complete: true, Period: pricing.PeriodWeek, Units: 1}
	got := ComputeFees(res, eur(1000), pricing.FeeSchedule{CityTaxPercent: -5, VATPercent: 0, CleaningFee: eur(-10)})
	assert.True(t, got.CityTax.IsZero())
	assert.True(t, got.VAT.IsZero())
	assert.True(t, got.CleaningFee.IsZero())
	assert.Equal(t, eur(1000), got.Total)
}

func TestComputeFees_IncompleteStay(t *testing.T) {
	got := ComputeFees(stay.Result{}, eur(500), pricing.FeeSchedule{CleaningFee: eur(100)})
	assert.Equal(t, money.Zero("EUR"), got.Total)
	assert.Equal(t, money.Zero("EUR"), got.CleaningFee)
}
