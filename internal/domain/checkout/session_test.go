package checkout

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuestDetails_Validate(t *testing.T) {
	ok := GuestDetails{Name: "Ana", Email: "ana@example.com", Phone: "+3851234567"}
	assert.NoError(t, ok.Validate())

	bad := GuestDetails{Name: "Ana", Email: "not-an-email", Phone: "+3851234567"}
	err := bad.Validate()
	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "email", fe.Field)
	assert.Equal(t, "email must be a valid email address", fe.Error())

	err = GuestDetails{}.Validate()
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "name is required", fe.Error())
}

func TestGuestDetails_Normalize(t *testing.T) {
	g := GuestDetails{Name: "  Ana ", Email: " Ana@Example.COM ", Phone: " 123456 "}.Normalize()
	assert.Equal(t, GuestDetails{Name: "Ana", Email: "ana@example.com", Phone: "123456"}, g)
}

func TestNewSession(t *testing.T) {
	_, err := NewSession(" ")
	assert.ErrorIs(t, err, ErrBookingIDRequired)

	s, err := NewSession("b1")
	require.NoError(t, err)
	assert.Equal(t, StepDetails, s.Step)
	assert.Equal(t, WidgetUninitialized, s.WidgetState)
}

func TestWidgetState_Usable(t *testing.T) {
	assert.True(t, WidgetReady.Usable())
	assert.True(t, WidgetExpiring.Usable())
	assert.False(t, WidgetLoading.Usable())
	assert.False(t, WidgetExpired.Usable())
}
