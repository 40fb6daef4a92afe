package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainpricing "directstay/internal/domain/pricing"
	domainproperties "directstay/internal/domain/properties"
	"directstay/internal/domain/shared/daterange"
	"directstay/internal/domain/shared/money"
)

// PropertyRepository reads the property catalog maintained by the host tools.
type PropertyRepository struct {
	col *mongo.Collection
}

var _ domainproperties.Repository = (*PropertyRepository)(nil)

func NewPropertyRepository(db *mongo.Database) *PropertyRepository {
	return &PropertyRepository{col: db.Collection("properties")}
}

func (r *PropertyRepository) ByID(ctx context.Context, id domainproperties.PropertyID) (*domainproperties.Property, error) {
	var doc propertyDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainproperties.ErrNotFound
		}
		return nil, err
	}
	return doc.toProperty()
}

func (r *PropertyRepository) List(ctx context.Context) ([]*domainproperties.Property, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []*domainproperties.Property
	for cur.Next(ctx) {
		var doc propertyDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		prop, err := doc.toProperty()
		if err != nil {
			return nil, err
		}
		out = append(out, prop)
	}
	return out, cur.Err()
}

// Save upserts a property. The storefront never writes; seeding and tests do.
func (r *PropertyRepository) Save(ctx context.Context, p *domainproperties.Property) error {
	if err := p.Validate(); err != nil {
		return err
	}
	doc := newPropertyDocument(p)
	_, err := r.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	return err
}

type propertyDocument struct {
	ID        string          `bson:"_id"`
	Title     string          `bson:"title"`
	City      string          `bson:"city,omitempty"`
	Capacity  int             `bson:"capacity"`
	Pricing   pricingDocument `bson:"pricing"`
	Fees      feesDocument    `bson:"fees"`
	UpdatedAt time.Time       `bson:"updated_at"`
}

type pricingDocument struct {
	Currency         string                 `bson:"currency"`
	Rates            map[string]money.Money `bson:"rates,omitempty"`
	WeekdayOverrides map[string]money.Money `bson:"weekdays_override,omitempty"`
	CustomRanges     []customRangeDocument  `bson:"custom_date_ranges,omitempty"`
}

type customRangeDocument struct {
	Start string      `bson:"start"`
	End   string      `bson:"end"`
	Rate  money.Money `bson:"rate"`
}

type feesDocument struct {
	CleaningFee    money.Money `bson:"cleaning_fee"`
	ServiceFee     money.Money `bson:"service_fee"`
	CityTaxPercent float64     `bson:"city_tax_percent"`
	VATPercent     float64     `bson:"vat_percent"`
}

func newPropertyDocument(p *domainproperties.Property) propertyDocument {
	rates := make(map[string]money.Money, len(p.Pricing.Rates))
	for period, rate := range p.Pricing.Rates {
		rates[string(period)] = rate
	}
	ranges := make([]customRangeDocument, 0, len(p.Pricing.CustomRanges))
	for _, cr := range p.Pricing.CustomRanges {
		ranges = append(ranges, customRangeDocument{
			Start: cr.Start.Format(daterange.DayLayout),
			End:   cr.End.Format(daterange.DayLayout),
			Rate:  cr.Rate,
		})
	}
	return propertyDocument{
		ID:       string(p.ID),
		Title:    p.Title,
		City:     p.City,
		Capacity: p.Capacity,
		Pricing: pricingDocument{
			Currency:         p.Pricing.Currency,
			Rates:            rates,
			WeekdayOverrides: domainpricing.WeekdayOverridesToNames(p.Pricing.WeekdayOverrides),
			CustomRanges:     ranges,
		},
		Fees: feesDocument{
			CleaningFee:    p.Fees.CleaningFee,
			ServiceFee:     p.Fees.ServiceFee,
			CityTaxPercent: p.Fees.CityTaxPercent,
			VATPercent:     p.Fees.VATPercent,
		},
		UpdatedAt: time.Now().UTC(),
	}
}

func (d propertyDocument) toProperty() (*domainproperties.Property, error) {
	rates := make(map[domainpricing.Period]money.Money, len(d.Pricing.Rates))
	for raw, rate := range d.Pricing.Rates {
		period, err := domainpricing.ParsePeriod(raw)
		if err != nil {
			return nil, fmt.Errorf("mongo: property %s: %w", d.ID, err)
		}
		rates[period] = rate
	}
	overrides, err := domainpricing.WeekdayOverridesFromNames(d.Pricing.WeekdayOverrides)
	if err != nil {
		return nil, fmt.Errorf("mongo: property %s: %w", d.ID, err)
	}
	ranges := make([]domainpricing.CustomRange, 0, len(d.Pricing.CustomRanges))
	for _, cr := range d.Pricing.CustomRanges {
		start, err := daterange.ParseDay(cr.Start)
		if err != nil {
			return nil, fmt.Errorf("mongo: property %s: %w", d.ID, err)
		}
		end, err := daterange.ParseDay(cr.End)
		if err != nil {
			return nil, fmt.Errorf("mongo: property %s: %w", d.ID, err)
		}
		ranges = append(ranges, domainpricing.CustomRange{Start: start, End: end, Rate: cr.Rate})
	}
	return &domainproperties.Property{
		ID:       domainproperties.PropertyID(d.ID),
		Title:    d.Title,
		City:     d.City,
		Capacity: d.Capacity,
		Pricing: domainpricing.Pricing{
			Currency:         d.Pricing.Currency,
			Rates:            rates,
			WeekdayOverrides: overrides,
			CustomRanges:     ranges,
		}.Normalized(),
		Fees: domainpricing.FeeSchedule{
			CleaningFee:    d.Fees.CleaningFee,
			ServiceFee:     d.Fees.ServiceFee,
			CityTaxPercent: d.Fees.CityTaxPercent,
			VATPercent:     d.Fees.VATPercent,
		}.Normalized(),
	}, nil
}
