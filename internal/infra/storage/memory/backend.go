package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	appoutbox "directstay/internal/app/outbox"
	"directstay/internal/app/policies"
	domainavailability "directstay/internal/domain/availability"
	domainbooking "directstay/internal/domain/booking"
	domainproperties "directstay/internal/domain/properties"
	"directstay/internal/domain/shared/daterange"
	"directstay/internal/domain/shared/events"
)

// DefaultHold is how long a pending booking keeps its dates without payment.
const DefaultHold = 30 * time.Minute

// Backend stands in for the remote booking and payment service in dev mode.
// Booking creation blocks the stay on the property calendar; calendar changes
// leave through Outbox like the real backend's would.
type Backend struct {
	Properties *PropertyRepository
	Calendars  *CalendarRepository
	Bookings   *BookingRepository
	Outbox     appoutbox.Outbox
	Encoder    appoutbox.EventEncoder
	Hold       time.Duration
	Now        func() time.Time
	NewID      func() string
	Logger     *slog.Logger

	mu sync.Mutex
}

var (
	_ policies.BookingPort      = (*Backend)(nil)
	_ policies.AvailabilityPort = (*Backend)(nil)
	_ policies.PaymentsPort     = (*Backend)(nil)
)

func NewBackend(props *PropertyRepository, box appoutbox.Outbox, logger *slog.Logger) *Backend {
	return &Backend{
		Properties: props,
		Calendars:  NewCalendarRepository(),
		Bookings:   NewBookingRepository(),
		Outbox:     box,
		Hold:       DefaultHold,
		Now:        time.Now,
		NewID:      uuid.NewString,
		Logger:     logger,
	}
}

func (b *Backend) PropertyAvailability(ctx context.Context, id domainproperties.PropertyID) (domainavailability.Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.Properties.ByID(ctx, id); err != nil {
		return domainavailability.Snapshot{}, err
	}
	cal, err := b.Calendars.Calendar(ctx, id)
	if err != nil {
		return domainavailability.Snapshot{}, err
	}
	return cal.Snapshot(), nil
}

func (b *Backend) CreateBooking(ctx context.Context, d domainbooking.Draft) (policies.CreateBookingResult, error) {
	window, err := daterange.New(d.CheckIn, d.CheckOut)
	if !d.Complete || err != nil {
		return policies.CreateBookingResult{}, &policies.RemoteValidationError{Message: "stay dates are incomplete"}
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	prop, err := b.Properties.ByID(ctx, d.PropertyID)
	if err != nil {
		if errors.Is(err, domainproperties.ErrNotFound) {
			return policies.CreateBookingResult{}, &policies.RemoteValidationError{Message: "property is not bookable"}
		}
		return policies.CreateBookingResult{}, err
	}
	if d.Guests < 1 || d.Guests > prop.Capacity {
		return policies.CreateBookingResult{}, &policies.RemoteValidationError{Message: fmt.Sprintf("this property hosts at most %d guests", prop.Capacity)}
	}
	cal, err := b.Calendars.Calendar(ctx, d.PropertyID)
	if err != nil {
		return policies.CreateBookingResult{}, err
	}
	now := b.now()
	id := domainbooking.BookingID(b.newID())
	if err := cal.BlockRange(window.Occupied(), domainavailability.ReasonBooking, string(id), now); err != nil {
		if errors.Is(err, domainavailability.ErrOverlappingRange) {
			return policies.CreateBookingResult{}, &policies.RemoteValidationError{Message: "the selected dates are no longer available"}
		}
		return policies.CreateBookingResult{}, err
	}
	bk := domainbooking.Request(id, d, now)
	if err := b.Bookings.Save(ctx, bk); err != nil {
		return policies.CreateBookingResult{}, err
	}
	if err := b.Calendars.Save(ctx, cal); err != nil {
		return policies.CreateBookingResult{}, err
	}
	b.publish(ctx, cal.Drain(), bk.Drain())
	b.logger().Info("dev backend booking created", "booking_id", id, "property_id", d.PropertyID, "check_in", window.CheckIn, "check_out", window.CheckOut)
	return policies.CreateBookingResult{BookingID: id}, nil
}

func (b *Backend) ConfirmBooking(ctx context.Context, id domainbooking.BookingID, method domainbooking.PaymentMethod) (domainbooking.Booking, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bk, err := b.pending(ctx, id)
	if err != nil {
		return domainbooking.Booking{}, err
	}
	if err := bk.Confirm(method, b.now()); err != nil {
		return domainbooking.Booking{}, &policies.RemoteValidationError{Message: "booking is no longer pending"}
	}
	if err := b.Bookings.Save(ctx, bk); err != nil {
		return domainbooking.Booking{}, err
	}
	b.publish(ctx, bk.Drain())
	out := *bk
	out.EventRecorder = events.EventRecorder{}
	return out, nil
}

func (b *Backend) InitializePayment(ctx context.Context, id domainbooking.BookingID) (policies.PaymentSession, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.pending(ctx, id); err != nil {
		return policies.PaymentSession{}, err
	}
	return policies.PaymentSession{CheckoutID: "chk_" + b.newID()}, nil
}

// pending loads a booking and expires it when its hold ran out.
func (b *Backend) pending(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	bk, err := b.Bookings.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainbooking.ErrBookingNotFound) {
			return nil, &policies.RemoteValidationError{Message: "booking not found"}
		}
		return nil, err
	}
	now := b.now()
	if bk.State == domainbooking.StateExpired {
		return nil, policies.ErrBookingExpired
	}
	if bk.ExpiredAt(now, b.Hold) {
		if err := b.expire(ctx, bk, now); err != nil {
			return nil, err
		}
		return nil, policies.ErrBookingExpired
	}
	return bk, nil
}

func (b *Backend) expire(ctx context.Context, bk *domainbooking.Booking, now time.Time) error {
	if err := bk.Expire(now); err != nil {
		return err
	}
	if err := b.Bookings.Save(ctx, bk); err != nil {
		return err
	}
	cal, err := b.Calendars.Calendar(ctx, bk.PropertyID)
	if err != nil {
		return err
	}
	if err := cal.Release(string(bk.ID), now); err != nil && !errors.Is(err, domainavailability.ErrRangeNotFound) {
		return err
	}
	if err := b.Calendars.Save(ctx, cal); err != nil {
		return err
	}
	b.publish(ctx, bk.Drain(), cal.Drain())
	b.logger().Info("dev backend booking expired", "booking_id", bk.ID)
	return nil
}

func (b *Backend) publish(ctx context.Context, batches ...[]events.DomainEvent) {
	if b.Outbox == nil {
		return
	}
	var all []events.DomainEvent
	for _, batch := range batches {
		all = append(all, batch...)
	}
	if err := appoutbox.RecordDomainEvents(ctx, b.Outbox, b.Encoder, all); err != nil {
		b.logger().Error("dev backend record events", "err", err)
		return
	}
	if err := b.Outbox.Flush(ctx); err != nil {
		b.logger().Error("dev backend flush events", "err", err)
	}
}

func (b *Backend) now() time.Time {
	if b.Now == nil {
		return time.Now()
	}
	return b.Now()
}

func (b *Backend) newID() string {
	if b.NewID == nil {
		return uuid.NewString()
	}
	return b.NewID()
}

func (b *Backend) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.Default()
	}
	return b.Logger
}
