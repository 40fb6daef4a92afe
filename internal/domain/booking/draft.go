package booking

import (
	"time"

	"directstay/internal/domain/pricing"
	"directstay/internal/domain/properties"
	"directstay/internal/domain/quote"
	"directstay/internal/domain/shared/money"
	"directstay/internal/domain/stay"
)

// Draft is the read-only price and date summary derived from a selection.
// It is never mutated; a new one is derived whenever an input changes.
type Draft struct {
	PropertyID     properties.PropertyID `json:"property_id"`
	CheckIn        time.Time             `json:"check_in"`
	CheckOut       time.Time             `json:"check_out"`
	Guests         int                   `json:"guests"`
	Period         pricing.Period        `json:"pricing_period"`
	Units          int                   `json:"units"`
	PricePerUnit   money.Money           `json:"price_per_unit"`
	Daily          []stay.DailyPrice     `json:"daily_prices,omitempty"`
	Complete       bool                  `json:"complete"`
	PriceAvailable bool                  `json:"price_available"`
	quote.Breakdown
}

// Derive computes the draft for sel against the property's rate card and fees.
// A property without the needed rate yields PriceAvailable=false and zero amounts.
func Derive(sel stay.Selection, p *properties.Property) Draft {
	currency := p.Currency()
	d := Draft{
		PropertyID: p.ID,
		Guests:     sel.Guests,
		Period:     sel.Period,
	}

	rate, ok := p.Pricing.RateFor(sel.Period)
	if !ok && sel.Period == pricing.PeriodNight {
		// nightly stays are priced per day, which may come from overrides alone
		ok = len(p.Pricing.WeekdayOverrides) > 0 || len(p.Pricing.CustomRanges) > 0
	}
	d.PriceAvailable = ok
	d.PricePerUnit = rate

	res := stay.Compute(sel, p.Pricing)
	d.Complete = res.Complete
	d.CheckIn = res.CheckIn
	d.CheckOut = res.CheckOut
	d.Units = res.Units
	if d.PriceAvailable {
		d.Daily = res.Daily
		d.Breakdown = quote.ComputeFees(res, rate, p.Fees)
	} else {
		d.Breakdown = quote.ComputeFees(stay.Result{}, money.Zero(currency), p.Fees)
	}
	return d
}
