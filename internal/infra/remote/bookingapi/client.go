// Package bookingapi talks to the remote booking and payment backend over HTTP.
package bookingapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"directstay/internal/app/policies"
	domainavailability "directstay/internal/domain/availability"
	domainbooking "directstay/internal/domain/booking"
	domainproperties "directstay/internal/domain/properties"
)

var ErrNotConfigured = errors.New("bookingapi: base url not configured")

// Observer records outbound call latency.
type Observer interface {
	ObserveExternal(service, endpoint string, status int, dur time.Duration)
}

type Options struct {
	BaseURL string
	APIKey  string
	RPS     float64
	Timeout time.Duration
	// Backoff lists the waits between retries of idempotent reads.
	Backoff  []time.Duration
	Client   *http.Client
	Observer Observer
	Logger   *slog.Logger
}

type Client struct {
	base     *url.URL
	key      string
	hc       *http.Client
	rl       *rate.Limiter
	backoff  []time.Duration
	observer Observer
	logger   *slog.Logger
}

var (
	_ policies.BookingPort      = (*Client)(nil)
	_ policies.AvailabilityPort = (*Client)(nil)
	_ policies.PaymentsPort     = (*Client)(nil)
)

func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, ErrNotConfigured
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("bookingapi: base url: %w", err)
	}
	rps := opts.RPS
	if rps <= 0 {
		rps = 10
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	hc := opts.Client
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		base:     base,
		key:      opts.APIKey,
		hc:       hc,
		rl:       rate.NewLimiter(rate.Limit(rps), burst),
		backoff:  opts.Backoff,
		observer: opts.Observer,
		logger:   logger,
	}, nil
}

type bearerKey struct{}

// WithBearer forwards the visitor's credentials on calls made with ctx.
func WithBearer(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, bearerKey{}, token)
}

func bearerFrom(ctx context.Context) string {
	s, _ := ctx.Value(bearerKey{}).(string)
	return s
}

type createBookingRequest struct {
	PropertyID    string    `json:"property_id"`
	CheckIn       string    `json:"check_in"`
	CheckOut      string    `json:"check_out"`
	Guests        int       `json:"guests"`
	PricingPeriod string    `json:"pricing_period"`
	Units         int       `json:"units"`
	Total         int64     `json:"total_amount"`
	Currency      string    `json:"currency"`
	RequestedAt   time.Time `json:"requested_at"`
}

type confirmRequest struct {
	PaymentMethod domainbooking.PaymentMethod `json:"payment_method"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) CreateBooking(ctx context.Context, d domainbooking.Draft) (policies.CreateBookingResult, error) {
	body := createBookingRequest{
		PropertyID:    string(d.PropertyID),
		CheckIn:       d.CheckIn.Format(time.DateOnly),
		CheckOut:      d.CheckOut.Format(time.DateOnly),
		Guests:        d.Guests,
		PricingPeriod: string(d.Period),
		Units:         d.Units,
		Total:         d.Total.Amount,
		Currency:      d.Total.Currency,
		RequestedAt:   time.Now().UTC(),
	}
	var out policies.CreateBookingResult
	if err := c.do(ctx, http.MethodPost, "create_booking", "/api/v1/bookings", body, &out); err != nil {
		return policies.CreateBookingResult{}, err
	}
	return out, nil
}

func (c *Client) ConfirmBooking(ctx context.Context, id domainbooking.BookingID, method domainbooking.PaymentMethod) (domainbooking.Booking, error) {
	var out domainbooking.Booking
	path := "/api/v1/bookings/" + url.PathEscape(string(id)) + "/confirm"
	if err := c.do(ctx, http.MethodPost, "confirm_booking", path, confirmRequest{PaymentMethod: method}, &out); err != nil {
		return domainbooking.Booking{}, err
	}
	return out, nil
}

func (c *Client) InitializePayment(ctx context.Context, id domainbooking.BookingID) (policies.PaymentSession, error) {
	var out policies.PaymentSession
	path := "/api/v1/bookings/" + url.PathEscape(string(id)) + "/payments"
	if err := c.do(ctx, http.MethodPost, "initialize_payment", path, nil, &out); err != nil {
		return policies.PaymentSession{}, err
	}
	if out.CheckoutID == "" {
		return policies.PaymentSession{}, errors.New("bookingapi: payment session without checkout id")
	}
	return out, nil
}

func (c *Client) PropertyAvailability(ctx context.Context, id domainproperties.PropertyID) (domainavailability.Snapshot, error) {
	var out domainavailability.Snapshot
	path := "/api/v1/properties/" + url.PathEscape(string(id)) + "/availability"
	err := c.retry(ctx, func() error {
		return c.do(ctx, http.MethodGet, "property_availability", path, nil, &out)
	})
	return out, err
}

// retry repeats fn after each configured backoff while it fails with a
// transient error.
func (c *Client) retry(ctx context.Context, fn func() error) error {
	err := fn()
	for _, wait := range c.backoff {
		if err == nil || !transient(err) {
			return err
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return err
		case <-t.C:
		}
		err = fn()
	}
	return err
}

func transient(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	return errors.Is(err, policies.ErrTimeout)
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("bookingapi: remote returned %d: %s", e.code, e.body)
}

func (c *Client) do(ctx context.Context, method, endpoint, path string, in, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return mapTransportErr(ctx, err)
	}
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.key != "" {
		req.Header.Set("X-API-Key", c.key)
	}
	if token := bearerFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		c.observe(endpoint, 0, start)
		c.logger.Warn("booking api request failed", "endpoint", endpoint, "err", err)
		return mapTransportErr(ctx, err)
	}
	defer resp.Body.Close()
	c.observe(endpoint, resp.StatusCode, start)

	if resp.StatusCode >= http.StatusBadRequest {
		return c.statusErr(endpoint, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("bookingapi: decode %s: %w", endpoint, err)
	}
	return nil
}

func (c *Client) statusErr(endpoint string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var eb errorBody
	_ = json.Unmarshal(raw, &eb)
	msg := strings.TrimSpace(eb.Message)
	if msg == "" {
		msg = strings.TrimSpace(eb.Error)
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return policies.ErrUnauthenticated
	case http.StatusGone:
		return policies.ErrBookingExpired
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return policies.ErrTimeout
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		if msg == "" {
			msg = "the booking request was rejected"
		}
		return &policies.RemoteValidationError{Message: msg}
	}
	c.logger.Error("booking api returned error", "endpoint", endpoint, "status", resp.StatusCode, "body", string(raw))
	return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(raw))}
}

func (c *Client) observe(endpoint string, status int, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveExternal("booking_api", endpoint, status, time.Since(start))
	}
}

func mapTransportErr(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", policies.ErrTimeout, err)
	}
	var ne interface{ Timeout() bool }
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %v", policies.ErrTimeout, err)
	}
	return err
}
