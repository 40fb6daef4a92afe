package pricing

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"directstay/internal/domain/shared/daterange"
	"directstay/internal/domain/shared/money"
)

var (
	ErrCurrencyUnset   = errors.New("pricing: currency must be defined")
	ErrNegativeRate    = errors.New("pricing: rates cannot be negative")
	ErrUnknownWeekday  = errors.New("pricing: unknown weekday name")
	ErrInvalidOverride = errors.New("pricing: custom range end before start")
	ErrRateCurrency    = errors.New("pricing: rate currency differs from pricing currency")
)

// CustomRange overrides the nightly price for every day in [Start, End].
type CustomRange struct {
	Start time.Time   `json:"start"`
	End   time.Time   `json:"end"`
	Rate  money.Money `json:"rate"`
}

type customRangeJSON struct {
	Start string      `json:"start"`
	End   string      `json:"end"`
	Rate  money.Money `json:"rate"`
}

func (r CustomRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(customRangeJSON{
		Start: r.Start.Format(daterange.DayLayout),
		End:   r.End.Format(daterange.DayLayout),
		Rate:  r.Rate,
	})
}

func (r *CustomRange) UnmarshalJSON(data []byte) error {
	var raw customRangeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	start, err := daterange.ParseDay(raw.Start)
	if err != nil {
		return err
	}
	end, err := daterange.ParseDay(raw.End)
	if err != nil {
		return err
	}
	*r = CustomRange{Start: start, End: end, Rate: raw.Rate}
	return nil
}

func (r CustomRange) covers(day time.Time) bool {
	return daterange.Inclusive{Start: r.Start, End: r.End}.Contains(day)
}

// Pricing is a property's rate card. It is immutable for the length of a booking session.
type Pricing struct {
	Currency         string
	Rates            map[Period]money.Money
	WeekdayOverrides map[time.Weekday]money.Money
	CustomRanges     []CustomRange
}

// pricingJSON is the wire form: weekday overrides are keyed by lower-case English names.
type pricingJSON struct {
	Currency         string                 `json:"currency"`
	Rates            map[Period]money.Money `json:"rates,omitempty"`
	WeekdayOverrides map[string]money.Money `json:"weekdays_override,omitempty"`
	CustomRanges     []CustomRange          `json:"custom_date_ranges,omitempty"`
}

func (p Pricing) MarshalJSON() ([]byte, error) {
	return json.Marshal(pricingJSON{
		Currency:         p.Currency,
		Rates:            p.Rates,
		WeekdayOverrides: WeekdayOverridesToNames(p.WeekdayOverrides),
		CustomRanges:     p.CustomRanges,
	})
}

func (p *Pricing) UnmarshalJSON(data []byte) error {
	var raw pricingJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	overrides, err := WeekdayOverridesFromNames(raw.WeekdayOverrides)
	if err != nil {
		return err
	}
	*p = Pricing{
		Currency:         raw.Currency,
		Rates:            raw.Rates,
		WeekdayOverrides: overrides,
		CustomRanges:     raw.CustomRanges,
	}.Normalized()
	return nil
}

// Normalized returns a copy with every currency code upper-cased.
func (p Pricing) Normalized() Pricing {
	out := Pricing{Currency: strings.ToUpper(strings.TrimSpace(p.Currency))}
	if p.Rates != nil {
		out.Rates = make(map[Period]money.Money, len(p.Rates))
		for period, rate := range p.Rates {
			out.Rates[period] = upper(rate)
		}
	}
	if p.WeekdayOverrides != nil {
		out.WeekdayOverrides = make(map[time.Weekday]money.Money, len(p.WeekdayOverrides))
		for day, rate := range p.WeekdayOverrides {
			out.WeekdayOverrides[day] = upper(rate)
		}
	}
	if p.CustomRanges != nil {
		out.CustomRanges = make([]CustomRange, len(p.CustomRanges))
		for i, r := range p.CustomRanges {
			r.Rate = upper(r.Rate)
			out.CustomRanges[i] = r
		}
	}
	return out
}

func upper(m money.Money) money.Money {
	m.Currency = strings.ToUpper(strings.TrimSpace(m.Currency))
	return m
}

func (p Pricing) Validate() error {
	if strings.TrimSpace(p.Currency) == "" {
		return ErrCurrencyUnset
	}
	for period, rate := range p.Rates {
		if !period.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownPeriod, period)
		}
		if err := p.checkRate(rate); err != nil {
			return err
		}
	}
	for _, rate := range p.WeekdayOverrides {
		if err := p.checkRate(rate); err != nil {
			return err
		}
	}
	for _, r := range p.CustomRanges {
		if err := p.checkRate(r.Rate); err != nil {
			return err
		}
		if daterange.Day(r.End).Before(daterange.Day(r.Start)) {
			return ErrInvalidOverride
		}
	}
	return nil
}

func (p Pricing) checkRate(rate money.Money) error {
	if rate.Amount < 0 {
		return ErrNegativeRate
	}
	if rate.Currency != p.Currency {
		return fmt.Errorf("%w: %q, want %q", ErrRateCurrency, rate.Currency, p.Currency)
	}
	return nil
}

// Configured reports whether any base rate exists. A property without one
// cannot be priced and the UI shows a placeholder instead.
func (p Pricing) Configured() bool {
	for _, period := range Periods {
		if _, ok := p.RateFor(period); ok {
			return true
		}
	}
	return false
}

// RateFor returns the base rate for a period, if configured.
func (p Pricing) RateFor(period Period) (money.Money, bool) {
	rate, ok := p.Rates[period]
	if !ok {
		return money.Zero(p.Currency), false
	}
	return rate, true
}

// PriceFor resolves the nightly price of a calendar day. Precedence: the first
// custom range containing the day (list order), then the weekday override, then
// the base night rate, then zero.
func (p Pricing) PriceFor(date time.Time) money.Money {
	day := daterange.Day(date)
	for _, r := range p.CustomRanges {
		if r.covers(day) {
			return r.Rate
		}
	}
	if rate, ok := p.WeekdayOverrides[day.Weekday()]; ok {
		return rate
	}
	if rate, ok := p.RateFor(PeriodNight); ok {
		return rate
	}
	return money.Zero(p.Currency)
}

// ParseWeekday maps an English weekday name (any case, full or three-letter) to time.Weekday.
func ParseWeekday(name string) (time.Weekday, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if n == full || n == full[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownWeekday, name)
}

// WeekdayOverridesFromNames converts {"friday": rate} maps.
func WeekdayOverridesFromNames(in map[string]money.Money) (map[time.Weekday]money.Money, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[time.Weekday]money.Money, len(in))
	for name, rate := range in {
		day, err := ParseWeekday(name)
		if err != nil {
			return nil, err
		}
		out[day] = rate
	}
	return out, nil
}

// WeekdayOverridesToNames is the inverse of WeekdayOverridesFromNames.
func WeekdayOverridesToNames(in map[time.Weekday]money.Money) map[string]money.Money {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]money.Money, len(in))
	for day, rate := range in {
		out[strings.ToLower(day.String())] = rate
	}
	return out
}
