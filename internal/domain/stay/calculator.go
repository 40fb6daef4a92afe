package stay

import (
	"time"

	"directstay/internal/domain/pricing"
	"directstay/internal/domain/shared/daterange"
	"directstay/internal/domain/shared/money"
)

// PriceResolver resolves the nightly price of a calendar day.
type PriceResolver interface {
	PriceFor(day time.Time) money.Money
}

type DailyPrice struct {
	Day   time.Time   `json:"day"`
	Price money.Money `json:"price"`
}

// Result is the outcome of Compute. Callers must check Complete before use.
type Result struct {
	Complete bool           `json:"complete"`
	Period   pricing.Period `json:"pricing_period"`
	Units    int            `json:"units"`
	CheckIn  time.Time      `json:"check_in"`
	CheckOut time.Time      `json:"check_out"`
	Daily    []DailyPrice   `json:"daily_prices,omitempty"`
}

// Compute derives units, the checkout date and, for night stays, the per-day prices.
// An absent check-in (or an absent checkout on a night stay) yields an incomplete result.
func Compute(sel Selection, prices PriceResolver) Result {
	res := Result{Period: sel.Period}
	if !sel.HasCheckIn() {
		return res
	}
	checkIn := daterange.Day(sel.CheckIn)
	res.CheckIn = checkIn

	if sel.Period.Recurring() {
		checkOut, _ := ImpliedCheckOut(checkIn, sel.Period, sel.Quantity)
		units := sel.Quantity
		if units < 1 || sel.Period == pricing.PeriodYear {
			units = 1
		}
		res.Complete = true
		res.Units = units
		res.CheckOut = checkOut
		return res
	}

	checkOut := daterange.Day(sel.CheckOut)
	if checkOut.IsZero() || !checkOut.After(checkIn) {
		return res
	}
	window := daterange.DateRange{CheckIn: checkIn, CheckOut: checkOut}
	res.Complete = true
	res.Units = window.Nights()
	res.CheckOut = checkOut
	if prices != nil {
		days := window.Days()
		res.Daily = make([]DailyPrice, 0, len(days))
		for _, d := range days {
			res.Daily = append(res.Daily, DailyPrice{Day: d, Price: prices.PriceFor(d)})
		}
	}
	return res
}

// NightsBetween is ceil((checkOut-checkIn)/24h), never less than one.
func NightsBetween(checkIn, checkOut time.Time) int {
	return daterange.DateRange{CheckIn: checkIn, CheckOut: checkOut}.Nights()
}
