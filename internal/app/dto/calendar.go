package dto

import (
	"time"

	"directstay/internal/domain/availability"
	"directstay/internal/domain/pricing"
	"directstay/internal/domain/properties"
	"directstay/internal/domain/shared/daterange"
	"directstay/internal/domain/shared/money"
	"directstay/internal/domain/stay"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func MapMoney(m money.Money) MoneyDTO {
	return MoneyDTO{Amount: m.Amount, Currency: m.Currency}
}

type CalendarDay struct {
	Date              string   `json:"date"`
	Blocked           bool     `json:"blocked"`
	SelectableCheckIn bool     `json:"selectable_checkin"`
	Price             MoneyDTO `json:"price"`
}

type Calendar struct {
	PropertyID     string        `json:"property_id"`
	Period         string        `json:"pricing_period"`
	PriceAvailable bool          `json:"price_available"`
	Days           []CalendarDay `json:"days"`
}

// MapCalendar renders [from, to) day by day for the given period.
func MapCalendar(p *properties.Property, cal *availability.Calendar, sel stay.Selection, from, to, today time.Time) Calendar {
	out := Calendar{
		PropertyID:     string(p.ID),
		Period:         string(sel.Period),
		PriceAvailable: p.Pricing.Configured(),
	}
	days := daterange.Days(from, to)
	out.Days = make([]CalendarDay, 0, len(days))
	for _, d := range days {
		price := money.Zero(p.Currency())
		if sel.Period == pricing.PeriodNight {
			price = p.Pricing.PriceFor(d)
		} else if rate, ok := p.Pricing.RateFor(sel.Period); ok {
			price = rate
		}
		out.Days = append(out.Days, CalendarDay{
			Date:              d.Format(daterange.DayLayout),
			Blocked:           cal.IsBlocked(d),
			SelectableCheckIn: cal.IsSelectable(d, availability.RoleCheckIn, sel, today),
			Price:             MapMoney(price),
		})
	}
	return out
}
