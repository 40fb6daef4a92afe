package ginserver

import (
	"fmt"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"directstay/internal/app/dto"
	propertiesapp "directstay/internal/app/handlers/properties"
	"directstay/internal/app/queries"
	"directstay/internal/domain/shared/daterange"
)

type PropertyHandler struct {
	Queries queries.Bus
}

type calendarParams struct {
	From     string `form:"from"`
	To       string `form:"to"`
	Period   string `form:"period"`
	Quantity int    `form:"quantity"`
}

func (h PropertyHandler) Calendar(c *gin.Context) {
	var p calendarParams
	if err := c.ShouldBindQuery(&p); err != nil {
		badRequest(c, err)
		return
	}
	from, err := optionalDay("from", p.From)
	if err != nil {
		badRequest(c, err)
		return
	}
	to, err := optionalDay("to", p.To)
	if err != nil {
		badRequest(c, err)
		return
	}
	query := propertiesapp.CalendarQuery{PropertyID: c.Param("id"), From: from, To: to, Period: p.Period, Quantity: p.Quantity}
	result, err := queries.Ask[propertiesapp.CalendarQuery, dto.Calendar](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type quoteParams struct {
	Period   string `form:"period"`
	Quantity int    `form:"quantity"`
	CheckIn  string `form:"check_in" binding:"required"`
	CheckOut string `form:"check_out"`
	Guests   int    `form:"guests"`
}

func (h PropertyHandler) Quote(c *gin.Context) {
	var p quoteParams
	if err := c.ShouldBindQuery(&p); err != nil {
		badRequest(c, err)
		return
	}
	checkIn, err := optionalDay("check_in", p.CheckIn)
	if err != nil {
		badRequest(c, err)
		return
	}
	checkOut, err := optionalDay("check_out", p.CheckOut)
	if err != nil {
		badRequest(c, err)
		return
	}
	query := propertiesapp.QuoteQuery{
		PropertyID: c.Param("id"),
		Period:     p.Period,
		Quantity:   p.Quantity,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Guests:     p.Guests,
	}
	result, err := queries.Ask[propertiesapp.QuoteQuery, dto.Quote](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func optionalDay(name, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	day, err := daterange.ParseDay(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be formatted as YYYY-MM-DD", name)
	}
	return day, nil
}

var _ PropertyHTTP = PropertyHandler{}
