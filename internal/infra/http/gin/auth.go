package ginserver

import (
	"strings"

	gin "github.com/gin-gonic/gin"

	"directstay/internal/infra/remote/bookingapi"
)

// ForwardBearer passes the visitor's bearer token through to the booking
// service. The storefront never validates it; the booking service does.
func ForwardBearer() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "bearer") && strings.TrimSpace(token) != "" {
			ctx := bookingapi.WithBearer(c.Request.Context(), strings.TrimSpace(token))
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
