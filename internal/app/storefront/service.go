package storefront

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"directstay/internal/app/checkout"
	"directstay/internal/app/draft"
	"directstay/internal/app/faults"
	"directstay/internal/app/outbox"
	"directstay/internal/app/policies"
	"directstay/internal/app/schedule"
	"directstay/internal/domain/availability"
	"directstay/internal/domain/booking"
	domaincheckout "directstay/internal/domain/checkout"
	"directstay/internal/domain/properties"
	"directstay/internal/domain/shared/events"
)

var (
	ErrSessionNotFound = errors.New("storefront: session not found")
	ErrNoCheckout      = errors.New("storefront: no checkout in progress")
)

type SessionID string

// WidgetFactory returns the payment widget slot for a visitor session.
type WidgetFactory func(id SessionID) policies.PaymentWidget

// WidgetRelease drops whatever the factory holds for a closed session.
type WidgetRelease func(id SessionID)

type Deps struct {
	Properties   properties.Repository
	Availability policies.AvailabilityPort
	Bookings     policies.BookingPort
	Payments     policies.PaymentsPort
	Widgets      WidgetFactory
	Release      WidgetRelease
	Scheduler    schedule.Scheduler
	Outbox       outbox.Outbox
	Encoder      outbox.EventEncoder
	Telemetry    policies.Telemetry
	Timing       checkout.Timing
	IdleTTL      time.Duration
	Now          func() time.Time
	NewID        func() string
	Logger       *slog.Logger
}

type Notice struct {
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Session is one visitor's view of one property plus, after a successful
// submission, the checkout for the booking it produced.
type Session struct {
	ID         SessionID
	PropertyID properties.PropertyID
	Draft      *draft.Controller

	mu       sync.Mutex
	checkout *checkout.Machine
	notices  []Notice
	lastSeen time.Time
}

func (s *Session) Checkout() (*checkout.Machine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checkout == nil {
		return nil, ErrNoCheckout
	}
	return s.checkout, nil
}

// Notices drains queued status messages.
func (s *Session) Notices() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.notices
	s.notices = nil
	return out
}

func (s *Session) push(n Notice) {
	s.mu.Lock()
	s.notices = append(s.notices, n)
	s.mu.Unlock()
}

type Service struct {
	deps     Deps
	mu       sync.RWMutex
	sessions map[SessionID]*Session
}

func New(deps Deps) *Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Telemetry == nil {
		deps.Telemetry = policies.NopTelemetry{}
	}
	if deps.Encoder == nil {
		deps.Encoder = outbox.JSONEventEncoder{IDGenerator: deps.NewID}
	}
	if deps.Release == nil {
		deps.Release = func(SessionID) {}
	}
	if deps.IdleTTL <= 0 {
		deps.IdleTTL = time.Hour
	}
	return &Service{deps: deps, sessions: make(map[SessionID]*Session)}
}

// Open loads the property and its availability and starts a fresh selection.
func (s *Service) Open(ctx context.Context, id properties.PropertyID) (*Session, error) {
	prop, err := s.deps.Properties.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, properties.ErrNotFound) {
			return nil, faults.ValidationErr(err)
		}
		return nil, faults.Remote(err)
	}
	cal, err := s.calendar(ctx, id)
	if err != nil {
		return nil, err
	}
	ctrl, err := draft.New(draft.Deps{
		Property: prop,
		Calendar: cal,
		Bookings: s.deps.Bookings,
		Now:      s.deps.Now,
		Logger:   s.deps.Logger,
	})
	if err != nil {
		return nil, err
	}
	sess := &Session{
		ID:         SessionID(s.deps.NewID()),
		PropertyID: id,
		Draft:      ctrl,
		lastSeen:   s.deps.Now(),
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	s.deps.Logger.Info("storefront session opened", "session_id", sess.ID, "property_id", id)
	return sess, nil
}

// Get returns a live session and marks it as recently used.
func (s *Service) Get(id SessionID) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.mu.Lock()
	sess.lastSeen = s.deps.Now()
	sess.mu.Unlock()
	return sess, nil
}

type SubmitResult struct {
	BookingID booking.BookingID      `json:"booking_id"`
	Draft     booking.Draft          `json:"draft"`
	Checkout  domaincheckout.Session `json:"checkout"`
}

// Submit forwards the session's draft to booking creation and opens the
// checkout for the returned booking. A previous checkout is closed first.
func (s *Service) Submit(ctx context.Context, id SessionID) (SubmitResult, error) {
	sess, err := s.Get(id)
	if err != nil {
		return SubmitResult{}, err
	}
	res, d, err := sess.Draft.Submit(ctx)
	if err != nil {
		s.deps.Telemetry.SubmissionObserved(string(faults.KindOf(err)))
		return SubmitResult{}, err
	}
	s.deps.Telemetry.SubmissionObserved("accepted")

	machine, err := checkout.New(checkout.Deps{
		BookingID: res.BookingID,
		Payments:  s.deps.Payments,
		Bookings:  s.deps.Bookings,
		Widget:    s.deps.Widgets(id),
		Scheduler: s.deps.Scheduler,
		Notifier:  s.notifier(sess),
		Telemetry: s.deps.Telemetry,
		Timing:    s.deps.Timing,
		Now:       s.deps.Now,
		Logger:    s.deps.Logger.With("session_id", id),
	})
	if err != nil {
		return SubmitResult{}, faults.Remote(err)
	}
	sess.mu.Lock()
	prev := sess.checkout
	sess.checkout = machine
	sess.mu.Unlock()
	if prev != nil {
		s.flushMachine(ctx, prev)
		prev.Close()
	}

	requested := booking.BookingRequested{
		BookingID:  res.BookingID,
		PropertyID: d.PropertyID,
		CheckIn:    d.CheckIn,
		CheckOut:   d.CheckOut,
		Guests:     d.Guests,
		Total:      d.Total,
		At:         s.deps.Now().UTC(),
	}
	s.record(ctx, []events.DomainEvent{requested})
	return SubmitResult{BookingID: res.BookingID, Draft: d, Checkout: machine.Snapshot()}, nil
}

// Resume reconciles a payment provider redirect for the session.
func (s *Service) Resume(ctx context.Context, id SessionID, query url.Values) (domaincheckout.Session, error) {
	sess, err := s.Get(id)
	if err != nil {
		return domaincheckout.Session{}, err
	}
	m, err := sess.Checkout()
	if err != nil {
		return domaincheckout.Session{}, err
	}
	m.Resume(query)
	s.flushMachine(ctx, m)
	return m.Snapshot(), nil
}

// Flush moves checkout events of a session to the outbox.
func (s *Service) Flush(ctx context.Context, sess *Session) {
	sess.mu.Lock()
	m := sess.checkout
	sess.mu.Unlock()
	if m != nil {
		s.flushMachine(ctx, m)
	}
}

// RefreshAvailability reloads availability for every open session of a property.
func (s *Service) RefreshAvailability(ctx context.Context, id properties.PropertyID) error {
	targets := s.byProperty(id)
	if len(targets) == 0 {
		return nil
	}
	cal, err := s.calendar(ctx, id)
	if err != nil {
		return err
	}
	for _, sess := range targets {
		sess.Draft.ReplaceCalendar(cal)
	}
	s.deps.Logger.Debug("availability refreshed", "property_id", id, "sessions", len(targets))
	return nil
}

// Close ends a session and releases its checkout resources.
func (s *Service) Close(ctx context.Context, id SessionID) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		s.closeSession(ctx, sess)
	}
}

// Sweep closes sessions idle for longer than the idle TTL and flushes pending
// events of the rest. It returns how many sessions were closed.
func (s *Service) Sweep(ctx context.Context) int {
	now := s.deps.Now()
	var idle, live []*Session
	s.mu.Lock()
	for id, sess := range s.sessions {
		sess.mu.Lock()
		seen := sess.lastSeen
		sess.mu.Unlock()
		if now.Sub(seen) > s.deps.IdleTTL {
			idle = append(idle, sess)
			delete(s.sessions, id)
			continue
		}
		live = append(live, sess)
	}
	s.mu.Unlock()

	for _, sess := range idle {
		s.closeSession(ctx, sess)
	}
	for _, sess := range live {
		s.Flush(ctx, sess)
	}
	if len(idle) > 0 {
		s.deps.Logger.Info("idle storefront sessions closed", "count", len(idle))
	}
	return len(idle)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Len reports the number of open sessions.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Service) closeSession(ctx context.Context, sess *Session) {
	sess.mu.Lock()
	m := sess.checkout
	sess.checkout = nil
	sess.mu.Unlock()
	if m != nil {
		m.Close()
		s.flushMachine(ctx, m)
	}
	s.deps.Release(sess.ID)
}

func (s *Service) byProperty(id properties.PropertyID) []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Session
	for _, sess := range s.sessions {
		if sess.PropertyID == id {
			out = append(out, sess)
		}
	}
	return out
}

func (s *Service) calendar(ctx context.Context, id properties.PropertyID) (*availability.Calendar, error) {
	if s.deps.Availability == nil {
		return availability.NewCalendar(id), nil
	}
	snap, err := s.deps.Availability.PropertyAvailability(ctx, id)
	if err != nil {
		return nil, faults.FromRemote(err)
	}
	return availability.FromSnapshot(id, snap), nil
}

func (s *Service) notifier(sess *Session) policies.Notifier {
	return policies.NotifierFunc(func(_ context.Context, kind, message string) {
		sess.push(Notice{Kind: kind, Message: message, At: s.deps.Now().UTC()})
		s.deps.Logger.Debug("storefront notice", "session_id", sess.ID, "kind", kind, "message", message)
	})
}

func (s *Service) flushMachine(ctx context.Context, m *checkout.Machine) {
	s.record(ctx, m.DrainEvents())
}

func (s *Service) record(ctx context.Context, evs []events.DomainEvent) {
	if s.deps.Outbox == nil || len(evs) == 0 {
		return
	}
	if err := outbox.RecordDomainEvents(ctx, s.deps.Outbox, s.deps.Encoder, evs); err != nil {
		s.deps.Logger.Error("record storefront events", "err", err, "count", len(evs))
		return
	}
	if err := s.deps.Outbox.Flush(ctx); err != nil {
		s.deps.Logger.Error("flush storefront events", "err", err)
	}
}
