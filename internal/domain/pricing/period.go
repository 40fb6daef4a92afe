package pricing

import (
	"errors"
	"strings"
)

var ErrUnknownPeriod = errors.New("pricing: unknown pricing period")

// Period is the unit of time a rate applies to.
type Period string

const (
	PeriodNight Period = "night"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// Periods lists supported periods in display order.
var Periods = []Period{PeriodNight, PeriodWeek, PeriodMonth, PeriodYear}

func ParsePeriod(raw string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(raw)))
	switch p {
	case PeriodNight, PeriodWeek, PeriodMonth, PeriodYear:
		return p, nil
	default:
		return "", ErrUnknownPeriod
	}
}

func (p Period) Valid() bool {
	_, err := ParsePeriod(string(p))
	return err == nil
}

// Recurring reports whether checkout is derived from a period window rather than chosen.
func (p Period) Recurring() bool {
	return p == PeriodWeek || p == PeriodMonth || p == PeriodYear
}
