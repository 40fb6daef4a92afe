package queries

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type calendarQuery struct{ Days int }

func (calendarQuery) Key() string { return "properties.calendar" }

type quoteQuery struct{}

func (quoteQuery) Key() string { return "properties.quote" }

func TestAsk_TypedResult(t *testing.T) {
	bus := NewInMemoryBus()
	RegisterHandler(bus, calendarQuery{}.Key(), HandlerFunc[calendarQuery, []string](func(_ context.Context, q calendarQuery) ([]string, error) {
		return make([]string, q.Days), nil
	}))

	got, err := Ask[calendarQuery, []string](context.Background(), bus, calendarQuery{Days: 3})
	require.NoError(t, err)
	assert.Len(t, got, 3)

	_, err = Ask[calendarQuery, int](context.Background(), bus, calendarQuery{Days: 1})
	assert.ErrorIs(t, err, ErrResultType)
}

func TestAsk_UnknownKey(t *testing.T) {
	bus := NewInMemoryBus()

	_, err := Ask[quoteQuery, int](context.Background(), bus, quoteQuery{})

	assert.ErrorIs(t, err, ErrHandlerNotFound)
	var unknown *UnknownKeyError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "properties.quote", unknown.Key)
}

func TestRegister_Duplicates(t *testing.T) {
	bus := NewInMemoryBus()
	h := HandlerFunc[quoteQuery, int](func(context.Context, quoteQuery) (int, error) { return 1, nil })
	RegisterHandler(bus, quoteQuery{}.Key(), h)
	RegisterHandler(bus, calendarQuery{}.Key(), HandlerFunc[calendarQuery, int](func(context.Context, calendarQuery) (int, error) { return 2, nil }))

	assert.Panics(t, func() { RegisterHandler(bus, quoteQuery{}.Key(), h) })
	assert.Equal(t, []string{"properties.calendar", "properties.quote"}, bus.Keys())
}
