package quote

import (
	"directstay/internal/domain/pricing"
	"directstay/internal/domain/shared/money"
	"directstay/internal/domain/stay"
)

// Breakdown is the priced summary of a stay. Every amount is non-negative and
// Total is exactly the sum of the other five.
type Breakdown struct {
	Subtotal    money.Money `json:"subtotal"`
	CleaningFee money.Money `json:"cleaning_fee"`
	ServiceFee  money.Money `json:"service_fee"`
	CityTax     money.Money `json:"city_tax"`
	VAT         money.Money `json:"vat"`
	Total       money.Money `json:"total"`
}

// ComputeFees prices a completed stay. The subtotal is the sum of daily prices
// when the stay has them, otherwise pricePerUnit × units. Percentages apply to
// the subtotal only. Incomplete stays price to zero.
func ComputeFees(result stay.Result, pricePerUnit money.Money, schedule pricing.FeeSchedule) Breakdown {
	currency := pricePerUnit.Currency
	if currency == "" && len(result.Daily) > 0 {
		currency = result.Daily[0].Price.Currency
	}
	zero := money.Zero(currency)
	out := Breakdown{Subtotal: zero, CleaningFee: zero, ServiceFee: zero, CityTax: zero, VAT: zero, Total: zero}
	if !result.Complete {
		return out
	}

	subtotal := zero
	if len(result.Daily) > 0 {
		for _, d := range result.Daily {
			subtotal = add(subtotal, d.Price)
		}
	} else {
		subtotal = pricePerUnit.Multiply(int64(result.Units))
	}
	out.Subtotal = subtotal.NonNegative()
	out.CleaningFee = schedule.Cleaning(currency)
	out.ServiceFee = schedule.Service(currency)
	out.CityTax = out.Subtotal.Percent(schedule.CityTaxPercent)
	out.VAT = out.Subtotal.Percent(schedule.VATPercent)

	total := out.Subtotal
	for _, part := range []money.Money{out.CleaningFee, out.ServiceFee, out.CityTax, out.VAT} {
		total = add(total, part)
	}
	out.Total = total
	return out
}

// add ignores values in a foreign currency; conversion is not supported.
func add(total, v money.Money) money.Money {
	if v.Currency == "" && v.Amount == 0 {
		return total
	}
	next, err := total.Add(v)
	if err != nil {
		return total
	}
	return next
}
