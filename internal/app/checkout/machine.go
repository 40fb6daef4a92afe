package checkout

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"directstay/internal/app/faults"
	"directstay/internal/app/policies"
	"directstay/internal/app/schedule"
	"directstay/internal/domain/booking"
	domaincheckout "directstay/internal/domain/checkout"
	"directstay/internal/domain/shared/events"
)

var (
	ErrClosed          = errors.New("checkout: session closed")
	ErrInitInFlight    = errors.New("checkout: payment initialization already in flight")
	ErrNotInPayment    = errors.New("checkout: not in the payment step")
	ErrDetailsRequired = errors.New("checkout: guest details required")
)

// Notification kinds sent to the Notifier.
const (
	NoticeInfo    = "info"
	NoticeWarning = "warning"
	NoticeSuccess = "success"
)

// Timing holds the payment session limits.
type Timing struct {
	InitTimeout  time.Duration
	WarningAfter time.Duration
	ExpiryAfter  time.Duration
	// SuccessParam is the key=value query pair the provider redirects back with.
	SuccessParam string
}

func DefaultTiming() Timing {
	return Timing{
		InitTimeout:  30 * time.Second,
		WarningAfter: 25 * time.Minute,
		ExpiryAfter:  28 * time.Minute,
		SuccessParam: "payment=success",
	}
}

type Deps struct {
	BookingID booking.BookingID
	Payments  policies.PaymentsPort
	Bookings  policies.BookingPort
	Widget    policies.PaymentWidget
	Scheduler schedule.Scheduler
	Notifier  policies.Notifier
	Telemetry policies.Telemetry
	Timing    Timing
	Now       func() time.Time
	Logger    *slog.Logger
}

// Machine drives one booking through details, payment and completion.
//
// Widget events and timer callbacks carry the generation they were created in.
// Every teardown bumps the generation, so anything that fires late is ignored.
type Machine struct {
	mu        sync.Mutex
	payments  policies.PaymentsPort
	bookings  policies.BookingPort
	widget    policies.PaymentWidget
	scheduler schedule.Scheduler
	notifier  policies.Notifier
	telemetry policies.Telemetry
	timing    Timing
	now       func() time.Time
	logger    *slog.Logger

	session  domaincheckout.Session
	gen      uint64
	attached bool
	warning  schedule.Handle
	expiry   schedule.Handle

	initGen    uint64
	initCancel context.CancelFunc

	confirming bool
	closed     bool
	baseCtx    context.Context
	cancelBase context.CancelFunc
	events.EventRecorder
}

func New(deps Deps) (*Machine, error) {
	session, err := domaincheckout.NewSession(deps.BookingID)
	if err != nil {
		return nil, err
	}
	if deps.Payments == nil || deps.Bookings == nil || deps.Widget == nil || deps.Scheduler == nil {
		return nil, errors.New("checkout: payments, bookings, widget and scheduler are required")
	}
	if deps.Notifier == nil {
		deps.Notifier = policies.NotifierFunc(func(context.Context, string, string) {})
	}
	if deps.Telemetry == nil {
		deps.Telemetry = policies.NopTelemetry{}
	}
	if deps.Timing == (Timing{}) {
		deps.Timing = DefaultTiming()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	base, cancel := context.WithCancel(context.Background())
	return &Machine{
		payments:   deps.Payments,
		bookings:   deps.Bookings,
		widget:     deps.Widget,
		scheduler:  deps.Scheduler,
		notifier:   deps.Notifier,
		telemetry:  deps.Telemetry,
		timing:     deps.Timing,
		now:        deps.Now,
		logger:     deps.Logger.With("booking_id", deps.BookingID),
		session:    session,
		baseCtx:    base,
		cancelBase: cancel,
	}, nil
}

func (m *Machine) Snapshot() domaincheckout.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// InitInFlight reports whether a payment session request is pending.
func (m *Machine) InitInFlight() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initGen != 0 && m.initGen == m.gen
}

// DrainEvents returns and clears the recorded domain events.
func (m *Machine) DrainEvents() []events.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Drain()
}

func (m *Machine) SetGuestDetails(g domaincheckout.GuestDetails) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.usableLocked(); err != nil {
		return err
	}
	if m.session.Step != domaincheckout.StepDetails {
		return faults.ValidationErr(domaincheckout.ErrInvalidStep)
	}
	g = g.Normalize()
	if err := g.Validate(); err != nil {
		return faults.ValidationErr(err)
	}
	m.session.Guest = g
	return nil
}

func (m *Machine) SetPaymentMethod(method booking.PaymentMethod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.usableLocked(); err != nil {
		return err
	}
	if m.session.Step != domaincheckout.StepDetails {
		return faults.ValidationErr(domaincheckout.ErrInvalidStep)
	}
	if _, err := booking.ParsePaymentMethod(string(method)); err != nil {
		return faults.ValidationErr(err)
	}
	m.session.PaymentMethod = method
	return nil
}

// Proceed moves from details to payment. Pay-at-property confirms the booking
// right away; online payment requests a payment session and attaches the widget.
func (m *Machine) Proceed(ctx context.Context) error {
	m.mu.Lock()
	if err := m.usableLocked(); err != nil {
		m.mu.Unlock()
		return err
	}
	if m.session.Step != domaincheckout.StepDetails {
		m.mu.Unlock()
		return faults.ValidationErr(domaincheckout.ErrInvalidStep)
	}
	if err := m.session.Guest.Validate(); err != nil {
		m.mu.Unlock()
		return &faults.Error{Kind: faults.KindValidation, Message: "guest details are required", Err: ErrDetailsRequired}
	}
	m.session.Step = domaincheckout.StepPayment
	m.session.LastError = ""
	m.session.RedirectToListing = false
	if m.session.PaymentMethod == booking.PaymentPayAtProperty {
		m.mu.Unlock()
		return m.confirm(ctx)
	}
	gen, err := m.startInitLocked()
	m.mu.Unlock()
	if err != nil {
		return err
	}
	return m.runInit(ctx, gen)
}

// Retry repeats the failed part of the payment step.
func (m *Machine) Retry(ctx context.Context) error {
	m.mu.Lock()
	if err := m.usableLocked(); err != nil {
		m.mu.Unlock()
		return err
	}
	if m.session.Step != domaincheckout.StepPayment {
		m.mu.Unlock()
		return faults.ValidationErr(ErrNotInPayment)
	}
	if m.session.PaymentMethod == booking.PaymentPayAtProperty {
		m.mu.Unlock()
		return m.confirm(ctx)
	}
	if m.session.WidgetState.Usable() || (m.session.WidgetState == domaincheckout.WidgetLoading && m.attached) {
		m.mu.Unlock()
		return nil
	}
	gen, err := m.startInitLocked()
	m.mu.Unlock()
	if err != nil {
		return err
	}
	return m.runInit(ctx, gen)
}

// Back returns from payment to details and tears the payment session down.
func (m *Machine) Back() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.usableLocked(); err != nil {
		return err
	}
	if m.session.Step != domaincheckout.StepPayment {
		return faults.ValidationErr(domaincheckout.ErrInvalidStep)
	}
	m.teardownLocked()
	m.session.Step = domaincheckout.StepDetails
	m.session.WidgetState = domaincheckout.WidgetUninitialized
	m.session.CheckoutID = ""
	m.session.LastError = ""
	m.session.ExpiresAt = time.Time{}
	return nil
}

// Resume reconciles a return redirect. When the query carries the success flag
// the machine completes regardless of its current step. It reports whether it did.
func (m *Machine) Resume(query url.Values) bool {
	if !m.successFlag(query) {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	if m.session.Step == domaincheckout.StepComplete {
		return true
	}
	m.completeLocked(true)
	return true
}

// Close ends the session: timers are cancelled and the widget is detached.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.teardownLocked()
	m.closed = true
	m.cancelBase()
}

func (m *Machine) usableLocked() error {
	if m.closed {
		return faults.SessionExpired(ErrClosed.Error())
	}
	if m.session.Step == domaincheckout.StepComplete {
		return faults.ValidationErr(domaincheckout.ErrInvalidStep)
	}
	return nil
}

func (m *Machine) successFlag(query url.Values) bool {
	key, want, _ := strings.Cut(m.timing.SuccessParam, "=")
	if key == "" {
		return false
	}
	got := query.Get(key)
	if want == "" {
		return got != ""
	}
	return strings.EqualFold(got, want)
}

func (m *Machine) confirm(ctx context.Context) error {
	m.mu.Lock()
	if m.confirming {
		m.mu.Unlock()
		return faults.Validation("the booking is already being confirmed")
	}
	m.confirming = true
	gen := m.gen
	id := m.session.BookingID
	m.mu.Unlock()

	_, err := m.bookings.ConfirmBooking(ctx, id, booking.PaymentPayAtProperty)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirming = false
	if gen != m.gen || m.closed || m.session.Step != domaincheckout.StepPayment {
		return nil
	}
	if err != nil {
		ferr := faults.FromRemote(err)
		m.session.LastError = ferr.Message
		m.logger.Warn("pay at property confirmation failed", "kind", ferr.Kind, "err", err)
		return ferr
	}
	m.completeLocked(false)
	return nil
}

func (m *Machine) completeLocked(viaRedirect bool) {
	m.teardownLocked()
	m.session.Step = domaincheckout.StepComplete
	m.session.LastError = ""
	m.session.ExpiresAt = time.Time{}
	m.Record(domaincheckout.CheckoutCompleted{
		BookingID:     m.session.BookingID,
		PaymentMethod: m.session.PaymentMethod,
		ViaRedirect:   viaRedirect,
		At:            m.now().UTC(),
	})
	m.telemetry.CheckoutCompleted(string(m.session.PaymentMethod))
	m.logger.Info("checkout completed", "payment_method", m.session.PaymentMethod, "via_redirect", viaRedirect)
}

// startInitLocked tears down the previous payment session and starts a new one.
func (m *Machine) startInitLocked() (uint64, error) {
	if m.initGen != 0 && m.initGen == m.gen {
		return 0, &faults.Error{Kind: faults.KindValidation, Message: "payment is already being prepared", Err: ErrInitInFlight}
	}
	m.teardownLocked()
	m.initGen = m.gen
	m.session.WidgetState = domaincheckout.WidgetLoading
	m.session.CheckoutID = ""
	m.session.LastError = ""
	m.session.RedirectToListing = false
	m.session.ExpiresAt = time.Time{}
	return m.gen, nil
}

func (m *Machine) runInit(ctx context.Context, gen uint64) error {
	ctx, cancel := context.WithTimeout(ctx, m.timing.InitTimeout)
	defer cancel()
	m.mu.Lock()
	if m.gen == gen {
		m.initCancel = cancel
	}
	id := m.session.BookingID
	m.mu.Unlock()

	sess, err := m.payments.InitializePayment(ctx, id)
	if err == nil && strings.TrimSpace(sess.CheckoutID) == "" {
		err = errors.New("checkout: payment service returned no checkout id")
	}
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = errors.Join(policies.ErrTimeout, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initGen == gen {
		m.initGen = 0
		m.initCancel = nil
	}
	if gen != m.gen || m.closed || m.session.Step != domaincheckout.StepPayment {
		return nil
	}
	if err != nil {
		ferr := faults.FromRemote(err)
		m.session.WidgetState = domaincheckout.WidgetError
		m.session.LastError = ferr.Message
		if errors.Is(err, policies.ErrBookingExpired) {
			m.session.RedirectToListing = true
		}
		m.logger.Warn("payment initialization failed", "kind", ferr.Kind, "err", err)
		m.notifier.Notify(m.baseCtx, string(ferr.Kind), ferr.Message)
		return ferr
	}

	m.session.CheckoutID = sess.CheckoutID
	if err := m.widget.Attach(sess.CheckoutID, &listener{m: m, gen: gen}); err != nil {
		m.session.WidgetState = domaincheckout.WidgetError
		m.session.LastError = "the payment form could not be loaded"
		m.logger.Warn("payment widget attach failed", "checkout_id", sess.CheckoutID, "err", err)
		return faults.Remote(err)
	}
	m.attached = true
	m.telemetry.PaymentSessionStarted()
	m.logger.Info("payment session started", "checkout_id", sess.CheckoutID)
	return nil
}

// teardownLocked releases everything tied to the current payment session.
// Old timers are always cancelled before new ones can be armed.
func (m *Machine) teardownLocked() {
	if m.warning != 0 {
		m.scheduler.Cancel(m.warning)
		m.warning = 0
	}
	if m.expiry != 0 {
		m.scheduler.Cancel(m.expiry)
		m.expiry = 0
	}
	if m.attached {
		m.widget.Detach()
		m.attached = false
	}
	if m.initCancel != nil {
		m.initCancel()
		m.initCancel = nil
	}
	m.gen++
}

func (m *Machine) onReady(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen || !m.attached || m.session.WidgetState != domaincheckout.WidgetLoading {
		return
	}
	m.session.WidgetState = domaincheckout.WidgetReady
	m.session.ExpiresAt = m.now().Add(m.timing.ExpiryAfter).UTC()
	m.warning = m.scheduler.Arm(m.timing.WarningAfter, func() { m.onWarning(gen) })
	m.expiry = m.scheduler.Arm(m.timing.ExpiryAfter, func() { m.onExpiry(gen) })
}

func (m *Machine) onFailed(gen uint64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return
	}
	m.teardownLocked()
	m.session.WidgetState = domaincheckout.WidgetError
	m.session.LastError = "the payment form failed to load, please retry"
	m.logger.Warn("payment widget failed", "checkout_id", m.session.CheckoutID, "err", err)
	m.notifier.Notify(m.baseCtx, string(faults.KindRemoteFailure), m.session.LastError)
}

func (m *Machine) onWarning(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen || m.session.WidgetState != domaincheckout.WidgetReady {
		return
	}
	m.warning = 0
	m.session.WidgetState = domaincheckout.WidgetExpiring
	m.notifier.Notify(m.baseCtx, NoticeWarning, "your payment session expires soon")
}

// onExpiry discards the payment session and immediately requests a new one so
// a stale session can never be submitted.
func (m *Machine) onExpiry(gen uint64) {
	m.mu.Lock()
	if gen != m.gen || !m.session.WidgetState.Usable() {
		m.mu.Unlock()
		return
	}
	m.expiry = 0
	expired := m.session.CheckoutID
	m.teardownLocked()
	m.session.WidgetState = domaincheckout.WidgetExpired
	m.Record(domaincheckout.PaymentSessionRefreshed{
		BookingID:         m.session.BookingID,
		ExpiredCheckoutID: expired,
		At:                m.now().UTC(),
	})
	m.telemetry.PaymentSessionExpired()
	m.logger.Info("payment session expired", "checkout_id", expired)
	m.notifier.Notify(m.baseCtx, string(faults.KindSessionExpired), "your payment session expired, a new one is being prepared")

	next, err := m.startInitLocked()
	ctx := m.baseCtx
	m.mu.Unlock()
	if err != nil {
		return
	}
	_ = m.runInit(ctx, next)
}

type listener struct {
	m   *Machine
	gen uint64
}

func (l *listener) WidgetReady()           { l.m.onReady(l.gen) }
func (l *listener) WidgetFailed(err error) { l.m.onFailed(l.gen, err) }

var _ policies.WidgetListener = (*listener)(nil)
