package daterange

import (
	"errors"
	"math"
	"time"
)

var (
	ErrInvalidRange = errors.New("daterange: checkout must be after checkin")
)

// DateRange is a stay window [CheckIn, CheckOut). The guest occupies every
// night from CheckIn up to, not including, CheckOut.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// New normalizes both ends to calendar days.
func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return ErrInvalidRange
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

// Nights rounds partial days up and never reports less than one night.
func (dr DateRange) Nights() int {
	nights := int(math.Ceil(dr.CheckOut.Sub(dr.CheckIn).Hours() / 24))
	if nights < 1 {
		return 1
	}
	return nights
}

// Occupied is the day-inclusive span of nights, [CheckIn, CheckOut-1].
func (dr DateRange) Occupied() Inclusive {
	return Inclusive{Start: Day(dr.CheckIn), End: Day(dr.CheckOut).AddDate(0, 0, -1)}
}

// Days lists every night in [CheckIn, CheckOut).
func (dr DateRange) Days() []time.Time {
	return Days(dr.CheckIn, dr.CheckOut)
}
