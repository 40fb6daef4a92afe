package daterange

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DayLayout is the wire format for calendar days.
const DayLayout = "2006-01-02"

var ErrInvertedInterval = errors.New("daterange: interval end before start")

// Day drops the time-of-day, keeping the calendar fields of t in its own location.
// The result is always in UTC so days compare with ==.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string into a calendar day.
func ParseDay(raw string) (time.Time, error) {
	t, err := time.Parse(DayLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("daterange: invalid day %q: %w", raw, err)
	}
	return t, nil
}

// MustDay is ParseDay for fixtures and tests.
func MustDay(raw string) time.Time {
	t, err := ParseDay(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// NextDay returns the calendar day after day.
func NextDay(day time.Time) time.Time {
	return Day(day).AddDate(0, 0, 1)
}

// Days lists calendar days in [from, to).
func Days(from, to time.Time) []time.Time {
	from, to = Day(from), Day(to)
	if from.IsZero() || !to.After(from) {
		return nil
	}
	out := make([]time.Time, 0, int(to.Sub(from).Hours()/24))
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// Inclusive is a day-inclusive interval [Start, End].
type Inclusive struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func NewInclusive(start, end time.Time) (Inclusive, error) {
	in := Inclusive{Start: Day(start), End: Day(end)}
	if in.End.Before(in.Start) {
		return Inclusive{}, ErrInvertedInterval
	}
	return in, nil
}

type inclusiveJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (in Inclusive) MarshalJSON() ([]byte, error) {
	return json.Marshal(inclusiveJSON{Start: in.Start.Format(DayLayout), End: in.End.Format(DayLayout)})
}

// UnmarshalJSON accepts plain days or RFC 3339 timestamps.
func (in *Inclusive) UnmarshalJSON(data []byte) error {
	var raw inclusiveJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	start, err := parseLenient(raw.Start)
	if err != nil {
		return err
	}
	end, err := parseLenient(raw.End)
	if err != nil {
		return err
	}
	*in = Inclusive{Start: start, End: end}
	return nil
}

func parseLenient(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return Day(t), nil
	}
	return ParseDay(raw)
}

// Contains reports whether the calendar day of t lies within the interval.
func (in Inclusive) Contains(t time.Time) bool {
	d := Day(t)
	start, end := Day(in.Start), Day(in.End)
	return !d.Before(start) && !d.After(end)
}

// Days expands the interval into its calendar days.
func (in Inclusive) Days() []time.Time {
	if in.End.Before(in.Start) {
		return nil
	}
	return Days(in.Start, NextDay(in.End))
}

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

func (ym YearMonth) IsZero() bool {
	return ym.Year == 0 && ym.Month == 0
}

func (ym YearMonth) Valid() bool {
	return ym.Year > 0 && ym.Month >= time.January && ym.Month <= time.December
}

// First returns the first day of the month.
func (ym YearMonth) First() time.Time {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (ym YearMonth) String() string {
	if ym.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// ParseYearMonth parses YYYY-MM.
func ParseYearMonth(raw string) (YearMonth, error) {
	t, err := time.Parse("2006-01", raw)
	if err != nil {
		return YearMonth{}, fmt.Errorf("daterange: invalid month %q: %w", raw, err)
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}
