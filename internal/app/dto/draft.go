package dto

import (
	"time"

	"directstay/internal/domain/booking"
	"directstay/internal/domain/shared/daterange"
	"directstay/internal/domain/stay"
)

type DailyPrice struct {
	Date  string   `json:"date"`
	Price MoneyDTO `json:"price"`
}

type Draft struct {
	PropertyID     string       `json:"property_id"`
	CheckIn        string       `json:"check_in,omitempty"`
	CheckOut       string       `json:"check_out,omitempty"`
	Guests         int          `json:"guests"`
	Period         string       `json:"pricing_period"`
	Units          int          `json:"units"`
	PricePerUnit   MoneyDTO     `json:"price_per_unit"`
	Subtotal       MoneyDTO     `json:"subtotal"`
	CleaningFee    MoneyDTO     `json:"cleaning_fee"`
	ServiceFee     MoneyDTO     `json:"service_fee"`
	CityTax        MoneyDTO     `json:"city_tax"`
	VAT            MoneyDTO     `json:"vat"`
	Total          MoneyDTO     `json:"total"`
	DailyPrices    []DailyPrice `json:"daily_prices,omitempty"`
	Complete       bool         `json:"complete"`
	PriceAvailable bool         `json:"price_available"`
}

func MapDraft(d booking.Draft) Draft {
	out := Draft{
		PropertyID:     string(d.PropertyID),
		CheckIn:        formatDay(d.CheckIn),
		CheckOut:       formatDay(d.CheckOut),
		Guests:         d.Guests,
		Period:         string(d.Period),
		Units:          d.Units,
		PricePerUnit:   MapMoney(d.PricePerUnit),
		Subtotal:       MapMoney(d.Subtotal),
		CleaningFee:    MapMoney(d.CleaningFee),
		ServiceFee:     MapMoney(d.ServiceFee),
		CityTax:        MapMoney(d.CityTax),
		VAT:            MapMoney(d.VAT),
		Total:          MapMoney(d.Total),
		Complete:       d.Complete,
		PriceAvailable: d.PriceAvailable,
	}
	for _, dp := range d.Daily {
		out.DailyPrices = append(out.DailyPrices, DailyPrice{Date: formatDay(dp.Day), Price: MapMoney(dp.Price)})
	}
	return out
}

type Selection struct {
	Period     string `json:"pricing_period"`
	Quantity   int    `json:"quantity"`
	StartMonth string `json:"start_month,omitempty"`
	CheckIn    string `json:"check_in,omitempty"`
	CheckOut   string `json:"check_out,omitempty"`
	Guests     int    `json:"guests"`
}

func MapSelection(s stay.Selection) Selection {
	return Selection{
		Period:     string(s.Period),
		Quantity:   s.Quantity,
		StartMonth: s.StartMonth.String(),
		CheckIn:    formatDay(s.CheckIn),
		CheckOut:   formatDay(s.CheckOut),
		Guests:     s.Guests,
	}
}

type Quote struct {
	Draft         Draft  `json:"draft"`
	Available     bool   `json:"available"`
	NextAvailable string `json:"next_available,omitempty"`
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(daterange.DayLayout)
}
