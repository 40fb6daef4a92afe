package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	domainavailability "directstay/internal/domain/availability"
	domainproperties "directstay/internal/domain/properties"
)

// Fixture is one property of a fixture file together with its starting calendar.
type Fixture struct {
	domainproperties.Property
	Availability domainavailability.Snapshot `json:"availability"`
}

// DecodeFixtures reads a JSON array of fixtures and validates every property.
func DecodeFixtures(r io.Reader) ([]Fixture, error) {
	var out []Fixture
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("memory: decode fixtures: %w", err)
	}
	for i := range out {
		if err := out[i].Property.Validate(); err != nil {
			return nil, fmt.Errorf("memory: fixture %q: %w", out[i].ID, err)
		}
	}
	return out, nil
}

// LoadFixtures reads fixtures from path.
func LoadFixtures(path string) ([]Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("memory: open fixtures: %w", err)
	}
	defer f.Close()
	return DecodeFixtures(f)
}

// Seed stores fixture properties and, when calendars is set, their calendars.
func Seed(ctx context.Context, fixtures []Fixture, props *PropertyRepository, calendars *CalendarRepository) error {
	for i := range fixtures {
		prop := fixtures[i].Property
		if err := props.Save(ctx, &prop); err != nil {
			return err
		}
		if calendars == nil {
			continue
		}
		cal := domainavailability.FromSnapshot(prop.ID, fixtures[i].Availability)
		if err := calendars.Save(ctx, cal); err != nil {
			return err
		}
	}
	return nil
}
