package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"directstay/internal/app/checkout"
	"directstay/internal/app/commands"
	"directstay/internal/app/draft"
	"directstay/internal/app/faults"
	"directstay/internal/app/queries"
	"directstay/internal/app/storefront"
)

// errorBody is what every failed request returns. Kind lets the storefront pick
// its reaction (show inline, redirect to sign-in, start over).
type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, storefront.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, storefront.ErrNoCheckout),
		errors.Is(err, checkout.ErrNotInPayment),
		errors.Is(err, checkout.ErrClosed):
		return http.StatusConflict
	case errors.Is(err, draft.ErrSubmissionInFlight),
		errors.Is(err, checkout.ErrInitInFlight):
		return http.StatusTooManyRequests
	case errors.Is(err, commands.ErrHandlerNotFound),
		errors.Is(err, queries.ErrHandlerNotFound):
		return http.StatusServiceUnavailable
	}
	switch faults.KindOf(err) {
	case faults.KindValidation:
		return http.StatusUnprocessableEntity
	case faults.KindUnauthenticated:
		return http.StatusUnauthorized
	case faults.KindSessionExpired:
		return http.StatusGone
	case faults.KindConfigurationGap:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func respondError(c *gin.Context, err error) {
	body := errorBody{Error: message(err)}
	var fe *faults.Error
	if errors.As(err, &fe) {
		body.Kind = string(fe.Kind)
	}
	c.AbortWithStatusJSON(statusFor(err), body)
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: err.Error(), Kind: string(faults.KindValidation)})
}

// message prefers the user-facing text of a classified failure.
func message(err error) string {
	var fe *faults.Error
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	return err.Error()
}
