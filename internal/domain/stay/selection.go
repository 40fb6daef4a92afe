package stay

import (
	"time"

	"directstay/internal/domain/pricing"
	"directstay/internal/domain/shared/daterange"
)

// Selection is the visitor's current choice of period, dates and party size.
// CheckOut is always strictly after CheckIn; for recurring periods it is derived.
type Selection struct {
	Period     pricing.Period      `json:"pricing_period"`
	Quantity   int                 `json:"quantity"`
	StartMonth daterange.YearMonth `json:"start_month"`
	CheckIn    time.Time           `json:"check_in"`
	CheckOut   time.Time           `json:"check_out"`
	Guests     int                 `json:"guests"`
}

// NewSelection returns the empty night selection for one guest.
func NewSelection() Selection {
	return Selection{Period: pricing.PeriodNight, Quantity: 1, Guests: 1}
}

func (s Selection) HasCheckIn() bool  { return !s.CheckIn.IsZero() }
func (s Selection) HasCheckOut() bool { return !s.CheckOut.IsZero() }

// QuantityLimit is the largest quantity selectable for a period.
func QuantityLimit(p pricing.Period) int {
	switch p {
	case pricing.PeriodWeek:
		return 52
	case pricing.PeriodMonth:
		return 12
	default:
		return 1
	}
}

// ImpliedCheckOut adds the period window to checkIn: quantity×7 days for weeks,
// quantity calendar months, or exactly one calendar year. Night stays have no
// implied checkout.
func ImpliedCheckOut(checkIn time.Time, period pricing.Period, quantity int) (time.Time, bool) {
	if checkIn.IsZero() {
		return time.Time{}, false
	}
	if quantity < 1 {
		quantity = 1
	}
	day := daterange.Day(checkIn)
	switch period {
	case pricing.PeriodWeek:
		return day.AddDate(0, 0, 7*quantity), true
	case pricing.PeriodMonth:
		return day.AddDate(0, quantity, 0), true
	case pricing.PeriodYear:
		return day.AddDate(1, 0, 0), true
	default:
		return time.Time{}, false
	}
}
