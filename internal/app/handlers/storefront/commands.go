package storefront

import (
	"context"
	"log/slog"

	"directstay/internal/app/commands"
	"directstay/internal/app/dto"
	"directstay/internal/app/faults"
	appstorefront "directstay/internal/app/storefront"
	"directstay/internal/domain/booking"
	domaincheckout "directstay/internal/domain/checkout"
)

const (
	SubmitDraftKey     = "storefront.submit_draft"
	ProceedCheckoutKey = "storefront.proceed_checkout"
)

type SubmitDraftCommand struct {
	SessionID string `validate:"required"`
	IdemKey   string
}

func (c SubmitDraftCommand) Key() string            { return SubmitDraftKey }
func (c SubmitDraftCommand) IdempotencyKey() string { return c.IdemKey }
func (c SubmitDraftCommand) ResultPrototype() any   { return &SubmitDraftResult{} }

type SubmitDraftResult struct {
	BookingID string       `json:"booking_id"`
	Draft     dto.Draft    `json:"draft"`
	Checkout  dto.Checkout `json:"checkout"`
}

type SubmitDraftHandler struct {
	Sessions *appstorefront.Service
	Logger   *slog.Logger
}

func (h *SubmitDraftHandler) Handle(ctx context.Context, cmd SubmitDraftCommand) (SubmitDraftResult, error) {
	res, err := h.Sessions.Submit(ctx, appstorefront.SessionID(cmd.SessionID))
	if err != nil {
		return SubmitDraftResult{}, err
	}
	if h.Logger != nil {
		h.Logger.Info("draft submitted", "session_id", cmd.SessionID, "booking_id", res.BookingID)
	}
	return SubmitDraftResult{
		BookingID: string(res.BookingID),
		Draft:     dto.MapDraft(res.Draft),
		Checkout:  dto.MapCheckout(res.Checkout),
	}, nil
}

type ProceedCheckoutCommand struct {
	SessionID     string `validate:"required"`
	Name          string `validate:"required"`
	Email         string `validate:"required,email"`
	Phone         string `validate:"required"`
	PaymentMethod string `validate:"required,oneof=online pay_at_property pay-at-property"`
}

func (c ProceedCheckoutCommand) Key() string { return ProceedCheckoutKey }

type ProceedCheckoutHandler struct {
	Sessions *appstorefront.Service
	Logger   *slog.Logger
}

func (h *ProceedCheckoutHandler) Handle(ctx context.Context, cmd ProceedCheckoutCommand) (dto.Checkout, error) {
	sess, err := h.Sessions.Get(appstorefront.SessionID(cmd.SessionID))
	if err != nil {
		return dto.Checkout{}, err
	}
	m, err := sess.Checkout()
	if err != nil {
		return dto.Checkout{}, faults.ValidationErr(err)
	}
	method, err := booking.ParsePaymentMethod(cmd.PaymentMethod)
	if err != nil {
		return dto.Checkout{}, faults.ValidationErr(err)
	}
	guest := domaincheckout.GuestDetails{Name: cmd.Name, Email: cmd.Email, Phone: cmd.Phone}
	if err := m.SetGuestDetails(guest); err != nil {
		return dto.Checkout{}, err
	}
	if err := m.SetPaymentMethod(method); err != nil {
		return dto.Checkout{}, err
	}
	err = m.Proceed(ctx)
	h.Sessions.Flush(ctx, sess)
	if err != nil {
		return dto.MapCheckout(m.Snapshot()), err
	}
	if h.Logger != nil {
		h.Logger.Info("checkout proceeded", "session_id", cmd.SessionID, "payment_method", method, "step", m.Snapshot().Step)
	}
	return dto.MapCheckout(m.Snapshot()), nil
}

var (
	_ commands.Handler[SubmitDraftCommand, SubmitDraftResult] = (*SubmitDraftHandler)(nil)
	_ commands.Handler[ProceedCheckoutCommand, dto.Checkout]  = (*ProceedCheckoutHandler)(nil)
)
