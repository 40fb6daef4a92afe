package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"directstay/internal/app/dto"
	propertiesapp "directstay/internal/app/handlers/properties"
	"directstay/internal/app/middleware"
	"directstay/internal/app/queries"
	"directstay/internal/domain/shared/daterange"
	"directstay/internal/infra/storage/memory"
)

type quoteOptions struct {
	fixtures string
	property string
	period   string
	quantity int
	checkIn  string
	checkOut string
	guests   int
}

func newQuoteCmd() *cobra.Command {
	var opts quoteOptions
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a stay against the property fixtures without starting the API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := opts.query()
			if err != nil {
				return err
			}
			fixtures, err := memory.LoadFixtures(opts.fixtures)
			if err != nil {
				return err
			}
			props := memory.NewPropertyRepository()
			backend := memory.NewBackend(props, nil, nil)
			if err := memory.Seed(cmd.Context(), fixtures, props, backend.Calendars); err != nil {
				return err
			}

			bus := queries.NewInMemoryBus()
			queries.RegisterHandler(bus, propertiesapp.QuoteKey, &propertiesapp.QuoteHandler{Properties: props, Availability: backend})
			chained := middleware.ChainQueries(bus, middleware.QueryValidation(middleware.NewStructValidator()))
			result, err := queries.Ask[propertiesapp.QuoteQuery, dto.Quote](cmd.Context(), chained, q)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.fixtures, "fixtures", "fixtures/properties.json", "property fixtures file")
	f.StringVar(&opts.property, "property", "", "property id")
	f.StringVar(&opts.period, "period", "night", "pricing period: night, week, month or year")
	f.IntVar(&opts.quantity, "quantity", 1, "number of weeks or months")
	f.StringVar(&opts.checkIn, "check-in", "", "check-in date (YYYY-MM-DD)")
	f.StringVar(&opts.checkOut, "check-out", "", "check-out date for night stays (YYYY-MM-DD)")
	f.IntVar(&opts.guests, "guests", 1, "number of guests")
	_ = cmd.MarkFlagRequired("property")
	_ = cmd.MarkFlagRequired("check-in")
	return cmd
}

func (o quoteOptions) query() (propertiesapp.QuoteQuery, error) {
	checkIn, err := daterange.ParseDay(o.checkIn)
	if err != nil {
		return propertiesapp.QuoteQuery{}, fmt.Errorf("--check-in: %w", err)
	}
	var checkOut time.Time
	if o.checkOut != "" {
		if checkOut, err = daterange.ParseDay(o.checkOut); err != nil {
			return propertiesapp.QuoteQuery{}, fmt.Errorf("--check-out: %w", err)
		}
	}
	return propertiesapp.QuoteQuery{
		PropertyID: o.property,
		Period:     o.period,
		Quantity:   o.quantity,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Guests:     o.guests,
	}, nil
}
