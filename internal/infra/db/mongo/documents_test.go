package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"directstay/internal/app/middleware"
	domainpricing "directstay/internal/domain/pricing"
	domainproperties "directstay/internal/domain/properties"
	"directstay/internal/domain/shared/daterange"
	"directstay/internal/domain/shared/money"
)

func eur(v int64) money.Money { return money.Must(v, "EUR") }

func sampleProperty() *domainproperties.Property {
	return &domainproperties.Property{
		ID:       "villa",
		Title:    "Villa",
		Capacity: 4,
		Pricing: domainpricing.Pricing{
			Currency:         "EUR",
			Rates:            map[domainpricing.Period]money.Money{domainpricing.PeriodNight: eur(500), domainpricing.PeriodMonth: eur(9000)},
			WeekdayOverrides: map[time.Weekday]money.Money{time.Friday: eur(700)},
			CustomRanges: []domainpricing.CustomRange{
				{Start: daterange.MustDay("2025-12-24"), End: daterange.MustDay("2025-12-26"), Rate: eur(900)},
			},
		},
		Fees: domainpricing.FeeSchedule{CleaningFee: eur(50), CityTaxPercent: 5, VATPercent: 10},
	}
}

func TestPropertyDocument_ThroughBSON(t *testing.T) {
	raw, err := bson.Marshal(newPropertyDocument(sampleProperty()))
	require.NoError(t, err)

	_, err = bson.Raw(raw).LookupErr("pricing", "weekdays_override", "friday")
	assert.NoError(t, err, "weekday overrides are stored by name")

	var doc propertyDocument
	require.NoError(t, bson.Unmarshal(raw, &doc))
	got, err := doc.toProperty()
	require.NoError(t, err)

	want := sampleProperty()
	assert.Equal(t, want.Pricing.Rates, got.Pricing.Rates)
	assert.Equal(t, want.Pricing.WeekdayOverrides, got.Pricing.WeekdayOverrides)
	assert.Equal(t, want.Pricing.CustomRanges, got.Pricing.CustomRanges)
	assert.Equal(t, want.Fees, got.Fees)
	assert.Equal(t, eur(700), got.Pricing.PriceFor(daterange.MustDay("2025-03-07")))
}

func TestPropertyDocument_RejectsUnknownNames(t *testing.T) {
	doc := newPropertyDocument(sampleProperty())
	doc.Pricing.Rates["fortnight"] = eur(1)
	_, err := doc.toProperty()
	assert.ErrorIs(t, err, domainpricing.ErrUnknownPeriod)

	doc = newPropertyDocument(sampleProperty())
	doc.Pricing.WeekdayOverrides["funday"] = eur(1)
	_, err = doc.toProperty()
	assert.ErrorIs(t, err, domainpricing.ErrUnknownWeekday)
}

func TestIdempotencyDocument_KeepsCommand(t *testing.T) {
	rec := middleware.IdempotencyRecord{Key: "storefront.submit_draft:abc", Command: "storefront.submit_draft", Payload: []byte(`{"booking_id":"b"}`), OccurredAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	doc := newIdempotencyDocument(rec, time.Now())
	assert.Equal(t, rec, doc.toRecord())
}
