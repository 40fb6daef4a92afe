package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"directstay/internal/app/commands"
	"directstay/internal/app/dto"
	storefrontapp "directstay/internal/app/handlers/storefront"
	"directstay/internal/app/storefront"
	"directstay/internal/infra/paymentwidget"
)

// WidgetReporter receives lifecycle reports from the browser-side payment widget.
type WidgetReporter interface {
	Report(owner, checkoutID string, status paymentwidget.Status, reason string) error
}

type CheckoutHandler struct {
	Sessions *storefront.Service
	Commands commands.Bus
	Widgets  WidgetReporter
}

type proceedRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	PaymentMethod string `json:"payment_method"`
}

func (h CheckoutHandler) Proceed(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, errorBody{Error: "commands unavailable"})
		return
	}
	var req proceedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := storefrontapp.ProceedCheckoutCommand{
		SessionID:     c.Param("id"),
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		PaymentMethod: req.PaymentMethod,
	}
	result, err := commands.Dispatch[storefrontapp.ProceedCheckoutCommand, dto.Checkout](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CheckoutHandler) Retry(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	m, err := sess.Checkout()
	if err != nil {
		respondError(c, err)
		return
	}
	err = m.Retry(c.Request.Context())
	h.Sessions.Flush(c.Request.Context(), sess)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapCheckout(m.Snapshot()))
}

func (h CheckoutHandler) Back(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	m, err := sess.Checkout()
	if err != nil {
		respondError(c, err)
		return
	}
	if err := m.Back(); err != nil {
		respondError(c, err)
		return
	}
	h.Sessions.Flush(c.Request.Context(), sess)
	c.JSON(http.StatusOK, dto.MapCheckout(m.Snapshot()))
}

// Resume is where the payment provider sends the visitor back.
func (h CheckoutHandler) Resume(c *gin.Context) {
	snap, err := h.Sessions.Resume(c.Request.Context(), storefront.SessionID(c.Param("id")), c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapCheckout(snap))
}

type widgetReportRequest struct {
	CheckoutID string `json:"checkout_id" binding:"required"`
	Status     string `json:"status" binding:"required,oneof=ready error"`
	Reason     string `json:"reason"`
}

func (h CheckoutHandler) WidgetReport(c *gin.Context) {
	if h.Widgets == nil {
		c.JSON(http.StatusServiceUnavailable, errorBody{Error: "payment widget unavailable"})
		return
	}
	var req widgetReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	err := h.Widgets.Report(c.Param("id"), req.CheckoutID, paymentwidget.Status(req.Status), req.Reason)
	switch {
	case err == nil:
		c.Status(http.StatusAccepted)
	case errors.Is(err, paymentwidget.ErrNotMounted), errors.Is(err, paymentwidget.ErrStaleCheckout):
		c.JSON(http.StatusConflict, errorBody{Error: err.Error()})
	default:
		badRequest(c, err)
	}
}

func (h CheckoutHandler) session(c *gin.Context) (*storefront.Session, bool) {
	sess, err := h.Sessions.Get(storefront.SessionID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return sess, true
}

var _ CheckoutHTTP = CheckoutHandler{}
