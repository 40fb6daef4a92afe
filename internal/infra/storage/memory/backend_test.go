package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "directstay/internal/app/outbox"
	"directstay/internal/app/policies"
	domainavailability "directstay/internal/domain/availability"
	domainbooking "directstay/internal/domain/booking"
	domainproperties "directstay/internal/domain/properties"
	"directstay/internal/domain/shared/daterange"
)

const fixtureJSON = `[
  {
    "id": "villa",
    "title": "Villa",
    "capacity": 2,
    "pricing": {"currency": "eur", "rates": {"night": {"amount": 500, "currency": "EUR"}}},
    "availability": {"manual_block_ranges": [{"start": "2025-04-10", "end": "2025-04-12"}]}
  }
]`

type fixture struct {
	backend   *Backend
	published []appoutbox.EventRecord
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{now: time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)}
	fixtures, err := DecodeFixtures(strings.NewReader(fixtureJSON))
	require.NoError(t, err)

	props := NewPropertyRepository()
	box := NewOutbox(PublisherFunc(func(_ context.Context, rec appoutbox.EventRecord) error {
		f.published = append(f.published, rec)
		return nil
	}))
	f.backend = NewBackend(props, box, nil)
	f.backend.Now = func() time.Time { return f.now }
	ids := 0
	f.backend.NewID = func() string { ids++; return "id-" + string(rune('0'+ids)) }
	require.NoError(t, Seed(context.Background(), fixtures, props, f.backend.Calendars))
	return f
}

func (f *fixture) names() []string {
	out := make([]string, 0, len(f.published))
	for _, rec := range f.published {
		out = append(out, rec.Name)
	}
	return out
}

func stayDraft(in, out string, guests int) domainbooking.Draft {
	return domainbooking.Draft{
		PropertyID: "villa",
		CheckIn:    daterange.MustDay(in),
		CheckOut:   daterange.MustDay(out),
		Guests:     guests,
		Complete:   true,
	}
}

func TestBackend_AvailabilityFromFixture(t *testing.T) {
	f := newFixture(t)
	snap, err := f.backend.PropertyAvailability(context.Background(), "villa")
	require.NoError(t, err)
	require.Len(t, snap.ManualBlocks, 1)
	assert.Equal(t, daterange.MustDay("2025-04-12"), snap.ManualBlocks[0].End)

	_, err = f.backend.PropertyAvailability(context.Background(), "nope")
	assert.ErrorIs(t, err, domainproperties.ErrNotFound)
}

func TestBackend_CreateBookingBlocksStay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.backend.CreateBooking(ctx, stayDraft("2025-04-03", "2025-04-06", 2))
	require.NoError(t, err)
	assert.Equal(t, domainbooking.BookingID("id-1"), res.BookingID)

	snap, err := f.backend.PropertyAvailability(ctx, "villa")
	require.NoError(t, err)
	require.Len(t, snap.ConfirmedBookings, 1)
	assert.Equal(t, daterange.Inclusive{Start: daterange.MustDay("2025-04-03"), End: daterange.MustDay("2025-04-05")}, snap.ConfirmedBookings[0])
	assert.Equal(t, []string{domainavailability.EventCalendarBlocked, "booking.requested"}, f.names())

	// the checkout day stays free for the next guest
	_, err = f.backend.CreateBooking(ctx, stayDraft("2025-04-06", "2025-04-08", 1))
	assert.NoError(t, err)
}

func TestBackend_CreateBookingRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		draft domainbooking.Draft
		msg   string
	}{
		{name: "overlaps host block", draft: stayDraft("2025-04-09", "2025-04-11", 1), msg: "no longer available"},
		{name: "too many guests", draft: stayDraft("2025-04-03", "2025-04-05", 3), msg: "at most 2 guests"},
		{name: "incomplete", draft: domainbooking.Draft{PropertyID: "villa"}, msg: "incomplete"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.backend.CreateBooking(ctx, tt.draft)
			var rv *policies.RemoteValidationError
			require.True(t, errors.As(err, &rv))
			assert.Contains(t, rv.Message, tt.msg)
		})
	}
}

func TestBackend_PaymentAndConfirm(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.backend.CreateBooking(ctx, stayDraft("2025-04-03", "2025-04-06", 2))
	require.NoError(t, err)

	sess, err := f.backend.InitializePayment(ctx, res.BookingID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sess.CheckoutID, "chk_"))

	bk, err := f.backend.ConfirmBooking(ctx, res.BookingID, domainbooking.PaymentPayAtProperty)
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StateConfirmed, bk.State)
	assert.Empty(t, bk.PendingEvents())

	_, err = f.backend.ConfirmBooking(ctx, res.BookingID, domainbooking.PaymentOnline)
	var rv *policies.RemoteValidationError
	assert.True(t, errors.As(err, &rv))
}

func TestBackend_HoldExpiryReleasesDates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := f.backend.CreateBooking(ctx, stayDraft("2025-04-03", "2025-04-06", 2))
	require.NoError(t, err)

	f.now = f.now.Add(DefaultHold + time.Minute)
	_, err = f.backend.InitializePayment(ctx, res.BookingID)
	assert.ErrorIs(t, err, policies.ErrBookingExpired)
	_, err = f.backend.ConfirmBooking(ctx, res.BookingID, domainbooking.PaymentOnline)
	assert.ErrorIs(t, err, policies.ErrBookingExpired)

	snap, err := f.backend.PropertyAvailability(ctx, "villa")
	require.NoError(t, err)
	assert.Empty(t, snap.ConfirmedBookings)
	assert.Contains(t, f.names(), domainavailability.EventCalendarReleased)
	assert.Contains(t, f.names(), "booking.expired")
}

func TestBackend_UnknownBooking(t *testing.T) {
	f := newFixture(t)
	_, err := f.backend.InitializePayment(context.Background(), "missing")
	var rv *policies.RemoteValidationError
	assert.True(t, errors.As(err, &rv))
}

func TestLoadFixtures_ShippedFile(t *testing.T) {
	fixtures, err := LoadFixtures(filepath.Join("..", "..", "..", "..", "fixtures", "properties.json"))
	require.NoError(t, err)
	require.NotEmpty(t, fixtures)
	for _, fx := range fixtures {
		assert.NoError(t, fx.Validate(), fx.ID)
	}
}

func TestDecodeFixtures_RejectsInvalidProperty(t *testing.T) {
	_, err := DecodeFixtures(strings.NewReader(`[{"id":"x","title":"","capacity":1,"pricing":{"currency":"EUR"}}]`))
	assert.ErrorIs(t, err, domainproperties.ErrTitleRequired)
}

func TestLoadFixtures_Missing(t *testing.T) {
	_, err := LoadFixtures(filepath.Join(t.TempDir(), "none.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOutbox_KeepsFailedRecords(t *testing.T) {
	fail := true
	var sent []string
	box := NewOutbox(PublisherFunc(func(_ context.Context, rec appoutbox.EventRecord) error {
		if fail && rec.ID == "b" {
			return errors.New("broker down")
		}
		sent = append(sent, rec.ID)
		return nil
	}))
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, box.Add(ctx, appoutbox.EventRecord{ID: id}))
	}

	assert.Error(t, box.Flush(ctx))
	assert.Equal(t, []string{"a", "c"}, sent)
	assert.Equal(t, 1, box.Pending())

	fail = false
	require.NoError(t, box.Flush(ctx))
	assert.Equal(t, []string{"a", "c", "b"}, sent)
	assert.Zero(t, box.Pending())
}
