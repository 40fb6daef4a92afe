package pricing

import (
	"encoding/json"
	"strings"

	"directstay/internal/domain/shared/money"
)

// FeeSchedule holds flat fees and percentage taxes applied on top of the stay subtotal.
type FeeSchedule struct {
	CleaningFee    money.Money `json:"cleaning_fee"`
	ServiceFee     money.Money `json:"service_fee"`
	CityTaxPercent float64     `json:"city_tax_percent"`
	VATPercent     float64     `json:"vat_percent"`
}

func (f *FeeSchedule) UnmarshalJSON(data []byte) error {
	type plain FeeSchedule
	var raw plain
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = FeeSchedule(raw).Normalized()
	return nil
}

// Normalized returns a copy with upper-cased fee currencies.
func (f FeeSchedule) Normalized() FeeSchedule {
	f.CleaningFee = upper(f.CleaningFee)
	f.ServiceFee = upper(f.ServiceFee)
	return f
}

// Cleaning returns the cleaning fee in currency, zero when absent, negative or
// quoted in another currency.
func (f FeeSchedule) Cleaning(currency string) money.Money {
	return flat(f.CleaningFee, currency)
}

// Service returns the service fee in currency, zero when absent or negative.
func (f FeeSchedule) Service(currency string) money.Money {
	return flat(f.ServiceFee, currency)
}

func flat(fee money.Money, currency string) money.Money {
	if fee.Amount <= 0 || !strings.EqualFold(fee.Currency, currency) {
		return money.Zero(currency)
	}
	return money.Money{Amount: fee.Amount, Currency: strings.ToUpper(currency)}
}
