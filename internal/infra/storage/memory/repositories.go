package memory

import (
	"context"
	"sort"
	"sync"

	domainavailability "directstay/internal/domain/availability"
	domainbooking "directstay/internal/domain/booking"
	domainproperties "directstay/internal/domain/properties"
)

// PropertyRepository is an in-memory property catalog.
type PropertyRepository struct {
	mu    sync.RWMutex
	items map[domainproperties.PropertyID]*domainproperties.Property
}

// NewPropertyRepository builds an empty repository.
func NewPropertyRepository() *PropertyRepository {
	return &PropertyRepository{
		items: make(map[domainproperties.PropertyID]*domainproperties.Property),
	}
}

// ByID returns a property or properties.ErrNotFound.
func (r *PropertyRepository) ByID(ctx context.Context, id domainproperties.PropertyID) (*domainproperties.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	prop, ok := r.items[id]
	if !ok {
		return nil, domainproperties.ErrNotFound
	}
	return prop, nil
}

// List returns every property ordered by id.
func (r *PropertyRepository) List(ctx context.Context) ([]*domainproperties.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainproperties.Property, 0, len(r.items))
	for _, p := range r.items {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Save stores/updates a property entry.
func (r *PropertyRepository) Save(ctx context.Context, prop *domainproperties.Property) error {
	if err := prop.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[prop.ID] = prop
	return nil
}

var _ domainproperties.Repository = (*PropertyRepository)(nil)

// CalendarRepository keeps availability calendars in memory.
type CalendarRepository struct {
	mu        sync.RWMutex
	calendars map[domainproperties.PropertyID]*domainavailability.Calendar
}

// NewCalendarRepository returns a repository initialized with empty calendars.
func NewCalendarRepository() *CalendarRepository {
	return &CalendarRepository{
		calendars: make(map[domainproperties.PropertyID]*domainavailability.Calendar),
	}
}

// Calendar retrieves an availability calendar, lazily creating it.
func (r *CalendarRepository) Calendar(ctx context.Context, id domainproperties.PropertyID) (*domainavailability.Calendar, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cal, ok := r.calendars[id]; ok {
		return cal, nil
	}
	cal := domainavailability.NewCalendar(id)
	r.calendars[id] = cal
	return cal, nil
}

// Save persists a calendar snapshot.
func (r *CalendarRepository) Save(ctx context.Context, calendar *domainavailability.Calendar) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calendars[calendar.PropertyID] = calendar
	return nil
}

var _ domainavailability.Repository = (*CalendarRepository)(nil)

// BookingRepository stores bookings in memory.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

// NewBookingRepository builds an empty booking repo.
func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

// ByID fetches a booking.
func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return b, nil
}

// Save stores the current booking state.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[b.ID] = b
	return nil
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
