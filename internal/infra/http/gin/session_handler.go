package ginserver

import (
	"errors"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"directstay/internal/app/commands"
	"directstay/internal/app/dto"
	storefrontapp "directstay/internal/app/handlers/storefront"
	"directstay/internal/app/storefront"
	"directstay/internal/domain/pricing"
	"directstay/internal/domain/properties"
	"directstay/internal/domain/shared/daterange"
)

// SessionHandler serves the visitor session and its booking draft.
type SessionHandler struct {
	Sessions *storefront.Service
	Commands commands.Bus
}

type openSessionRequest struct {
	PropertyID string `json:"property_id" binding:"required"`
}

func (h SessionHandler) Open(c *gin.Context) {
	var req openSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sess, err := h.Sessions.Open(c.Request.Context(), properties.PropertyID(req.PropertyID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.MapSession(sess))
}

func (h SessionHandler) Get(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.MapSession(sess))
}

func (h SessionHandler) Close(c *gin.Context) {
	h.Sessions.Close(c.Request.Context(), storefront.SessionID(c.Param("id")))
	c.Status(http.StatusNoContent)
}

func (h SessionHandler) Notices(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	out := make([]dto.Notice, 0)
	for _, n := range sess.Notices() {
		out = append(out, dto.Notice{Kind: n.Kind, Message: n.Message})
	}
	c.JSON(http.StatusOK, gin.H{"notices": out})
}

type periodRequest struct {
	Period string `json:"period" binding:"required"`
}

func (h SessionHandler) SetPeriod(c *gin.Context) {
	var req periodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := pricing.ParsePeriod(req.Period)
	if err != nil {
		badRequest(c, err)
		return
	}
	h.update(c, func(sess *storefront.Session) error { return sess.Draft.SetPeriod(p) })
}

type dateRequest struct {
	Date string `json:"date" binding:"required"`
}

func (h SessionHandler) SetCheckIn(c *gin.Context) {
	day, ok := bindDate(c)
	if !ok {
		return
	}
	h.update(c, func(sess *storefront.Session) error { return sess.Draft.SetCheckIn(day) })
}

func (h SessionHandler) SetCheckOut(c *gin.Context) {
	day, ok := bindDate(c)
	if !ok {
		return
	}
	h.update(c, func(sess *storefront.Session) error { return sess.Draft.SetCheckOut(day) })
}

type quantityRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

func (h SessionHandler) SetQuantity(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.update(c, func(sess *storefront.Session) error { return sess.Draft.SetQuantity(req.Quantity) })
}

type monthRequest struct {
	Month string `json:"month" binding:"required"`
}

func (h SessionHandler) SetMonth(c *gin.Context) {
	var req monthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ym, err := daterange.ParseYearMonth(req.Month)
	if err != nil {
		badRequest(c, err)
		return
	}
	h.update(c, func(sess *storefront.Session) error { return sess.Draft.SetMonth(ym) })
}

type guestsRequest struct {
	Guests int `json:"guests" binding:"required"`
}

func (h SessionHandler) SetGuests(c *gin.Context) {
	var req guestsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.update(c, func(sess *storefront.Session) error { return sess.Draft.SetGuests(req.Guests) })
}

// Submit goes through the command bus so retries carrying the same
// Idempotency-Key replay the first booking instead of creating another.
func (h SessionHandler) Submit(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, errorBody{Error: "commands unavailable"})
		return
	}
	cmd := storefrontapp.SubmitDraftCommand{
		SessionID: c.Param("id"),
		IdemKey:   c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[storefrontapp.SubmitDraftCommand, storefrontapp.SubmitDraftResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h SessionHandler) session(c *gin.Context) (*storefront.Session, bool) {
	sess, err := h.Sessions.Get(storefront.SessionID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return sess, true
}

// update applies a draft change and answers with the refreshed session. A
// rejected change leaves the selection untouched.
func (h SessionHandler) update(c *gin.Context, apply func(*storefront.Session) error) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if err := apply(sess); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapSession(sess))
}

func bindDate(c *gin.Context) (time.Time, bool) {
	var req dateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return time.Time{}, false
	}
	day, err := daterange.ParseDay(req.Date)
	if err != nil {
		badRequest(c, errors.New("date must be formatted as YYYY-MM-DD"))
		return time.Time{}, false
	}
	return day, true
}

var (
	_ SessionHTTP = SessionHandler{}
	_ DraftHTTP   = SessionHandler{}
)
