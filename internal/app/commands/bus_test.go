package commands

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type holdCommand struct{ Nights int }

func (holdCommand) Key() string { return "storefront.hold" }

type otherCommand struct{}

func (otherCommand) Key() string { return "storefront.other" }

func TestDispatch_TypedRoundTrip(t *testing.T) {
	bus := NewInMemoryBus()
	RegisterHandler(bus, holdCommand{}.Key(), HandlerFunc[holdCommand, int](func(_ context.Context, cmd holdCommand) (int, error) {
		return cmd.Nights * 2, nil
	}))

	got, err := Dispatch[holdCommand, int](context.Background(), bus, holdCommand{Nights: 3})
	require.NoError(t, err)
	assert.Equal(t, 6, got)

	_, err = Dispatch[holdCommand, string](context.Background(), bus, holdCommand{Nights: 1})
	assert.ErrorIs(t, err, ErrResultType)
}

func TestDispatch_UnknownKey(t *testing.T) {
	bus := NewInMemoryBus()

	_, err := bus.Dispatch(context.Background(), otherCommand{})

	assert.ErrorIs(t, err, ErrHandlerNotFound)
	var unknown *UnknownKeyError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "storefront.other", unknown.Key)

	_, err = bus.Dispatch(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidCommand)
	_, err = Dispatch[holdCommand, int](context.Background(), nil, holdCommand{})
	assert.ErrorIs(t, err, ErrNilBus)
}

func TestRegister_RejectsDuplicatesAndListsKeys(t *testing.T) {
	bus := NewInMemoryBus()
	noop := HandlerFunc[holdCommand, int](func(context.Context, holdCommand) (int, error) { return 0, nil })
	RegisterHandler(bus, holdCommand{}.Key(), noop)

	assert.Panics(t, func() { RegisterHandler(bus, holdCommand{}.Key(), noop) })
	assert.Panics(t, func() { RegisterHandler(bus, "", noop) })
	assert.Equal(t, []string{"storefront.hold"}, bus.Keys())
}

func TestRegister_WrongCommandType(t *testing.T) {
	bus := NewInMemoryBus()
	RegisterHandler(bus, otherCommand{}.Key(), HandlerFunc[holdCommand, int](func(context.Context, holdCommand) (int, error) { return 1, nil }))

	_, err := bus.Dispatch(context.Background(), otherCommand{})
	assert.ErrorIs(t, err, ErrInvalidCommand)
}

func TestDispatch_Concurrent(t *testing.T) {
	bus := NewInMemoryBus()
	RegisterHandler(bus, holdCommand{}.Key(), HandlerFunc[holdCommand, int](func(_ context.Context, cmd holdCommand) (int, error) {
		return cmd.Nights, nil
	}))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			got, err := Dispatch[holdCommand, int](context.Background(), bus, holdCommand{Nights: n})
			assert.NoError(t, err)
			assert.Equal(t, n, got)
		}(i)
	}
	wg.Wait()
}
