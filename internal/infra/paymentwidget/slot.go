// Package paymentwidget tracks the hosted card form mounted in each visitor's
// browser. The browser reports the widget's lifecycle back through Report.
package paymentwidget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"directstay/internal/app/policies"
)

var (
	ErrCheckoutIDRequired = errors.New("paymentwidget: checkout id required")
	ErrNotMounted         = errors.New("paymentwidget: no widget mounted")
	ErrStaleCheckout      = errors.New("paymentwidget: report for a replaced checkout")
)

// Status is what the browser reports about the mounted widget.
type Status string

const (
	StatusReady Status = "ready"
	StatusError Status = "error"
)

// Registry hands out one Slot per visitor session.
type Registry struct {
	// ScriptURL is probed once per attach when Probe is set.
	ScriptURL string
	Probe     *http.Client
	// AutoReady reports readiness right after attach. Used when no browser is involved.
	AutoReady bool
	Logger    *slog.Logger

	mu    sync.Mutex
	slots map[string]*Slot
}

func NewRegistry(scriptURL string, probe *http.Client, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{ScriptURL: scriptURL, Probe: probe, Logger: logger, slots: make(map[string]*Slot)}
}

// Slot returns the widget slot of a session, creating it on first use.
func (r *Registry) Slot(owner string) *Slot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.slots == nil {
		r.slots = make(map[string]*Slot)
	}
	if s, ok := r.slots[owner]; ok {
		return s
	}
	s := &Slot{owner: owner, registry: r}
	r.slots[owner] = s
	return s
}

// Release detaches the owner's widget, if any, and drops its slot. Sessions that
// never mounted a widget still hold a slot until released.
func (r *Registry) Release(owner string) {
	r.mu.Lock()
	s, ok := r.slots[owner]
	delete(r.slots, owner)
	r.mu.Unlock()
	if ok {
		s.Detach()
	}
}

// Len reports how many slots the registry holds, mounted or not.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}

// Report delivers a browser lifecycle report to the session's widget.
func (r *Registry) Report(owner, checkoutID string, status Status, reason string) error {
	r.mu.Lock()
	s, ok := r.slots[owner]
	r.mu.Unlock()
	if !ok {
		return ErrNotMounted
	}
	return s.report(checkoutID, status, reason)
}

// Mounted reports how many slots currently hold a widget.
func (r *Registry) Mounted() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.slots {
		if s.CheckoutID() != "" {
			n++
		}
	}
	return n
}

func (r *Registry) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

func (r *Registry) forget(owner string, s *Slot) {
	r.mu.Lock()
	if cur, ok := r.slots[owner]; ok && cur == s {
		delete(r.slots, owner)
	}
	r.mu.Unlock()
}

func (r *Registry) adopt(owner string, s *Slot) {
	r.mu.Lock()
	if r.slots == nil {
		r.slots = make(map[string]*Slot)
	}
	r.slots[owner] = s
	r.mu.Unlock()
}

var _ policies.PaymentWidget = (*Slot)(nil)

// Slot holds at most one mounted widget. Listener calls always happen on their
// own goroutine, never inside Attach or Report.
type Slot struct {
	owner    string
	registry *Registry

	mu         sync.Mutex
	checkoutID string
	listener   policies.WidgetListener
	cancel     context.CancelFunc
}

func (s *Slot) Attach(checkoutID string, listener policies.WidgetListener) error {
	if checkoutID == "" {
		return ErrCheckoutIDRequired
	}
	s.mu.Lock()
	s.detachLocked()
	ctx, cancel := context.WithCancel(context.Background())
	s.checkoutID = checkoutID
	s.listener = listener
	s.cancel = cancel
	s.mu.Unlock()
	s.registry.adopt(s.owner, s)

	s.registry.logger().Debug("payment widget attached", "owner", s.owner, "checkout_id", checkoutID)
	switch {
	case s.registry.Probe != nil && s.registry.ScriptURL != "":
		go s.probe(ctx, checkoutID)
	case s.registry.AutoReady:
		go s.deliver(checkoutID, StatusReady, "")
	}
	return nil
}

func (s *Slot) Detach() {
	s.mu.Lock()
	was := s.checkoutID
	s.detachLocked()
	s.mu.Unlock()
	if was != "" {
		s.registry.forget(s.owner, s)
		s.registry.logger().Debug("payment widget detached", "owner", s.owner, "checkout_id", was)
	}
}

func (s *Slot) CheckoutID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkoutID
}

func (s *Slot) detachLocked() {
	if s.cancel != nil {
		s.cancel()
	}
	s.checkoutID = ""
	s.listener = nil
	s.cancel = nil
}

func (s *Slot) report(checkoutID string, status Status, reason string) error {
	s.mu.Lock()
	current := s.checkoutID
	s.mu.Unlock()
	switch {
	case current == "":
		return ErrNotMounted
	case current != checkoutID:
		return ErrStaleCheckout
	}
	switch status {
	case StatusReady, StatusError:
	default:
		return fmt.Errorf("paymentwidget: unknown status %q", status)
	}
	go s.deliver(checkoutID, status, reason)
	return nil
}

// deliver drops the event when the widget was replaced in the meantime.
func (s *Slot) deliver(checkoutID string, status Status, reason string) {
	s.mu.Lock()
	l := s.listener
	live := s.checkoutID == checkoutID
	s.mu.Unlock()
	if !live || l == nil {
		return
	}
	if status == StatusReady {
		l.WidgetReady()
		return
	}
	if reason == "" {
		reason = "widget reported an error"
	}
	l.WidgetFailed(errors.New(reason))
}

func (s *Slot) probe(ctx context.Context, checkoutID string) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.registry.ScriptURL, nil)
	if err != nil {
		s.deliver(checkoutID, StatusError, err.Error())
		return
	}
	resp, err := s.registry.Probe.Do(req)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, context.Canceled) {
			return
		}
		s.deliver(checkoutID, StatusError, "payment widget unreachable")
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= 400 {
		s.deliver(checkoutID, StatusError, fmt.Sprintf("payment widget script returned %d", resp.StatusCode))
		return
	}
	if s.registry.AutoReady {
		s.deliver(checkoutID, StatusReady, "")
	}
}
