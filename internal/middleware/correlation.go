package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"dataframe-gateway/internal/utils"
)

const (
	CorrelationIDKey    = "correlation_id"
	CorrelationIDHeader = "X-Correlation-ID"
)

type correlationKey struct{}

// CorrelationID tags every request with the caller's X-Correlation-ID or a
// fresh UUID. The ID is echoed in the response and travels on the request
// context so services can log it alongside load results.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(CorrelationIDHeader)
		if id == "" {
			id = utils.GenerateUUID()
		}

		c.Set(CorrelationIDKey, id)
		c.Header(CorrelationIDHeader, id)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), correlationKey{}, id))

		c.Next()
	}
}

// GetCorrelationID returns the correlation ID set by CorrelationID, if any
func GetCorrelationID(c *gin.Context) string {
	return c.GetString(CorrelationIDKey)
}

// CorrelationIDFromContext returns the correlation ID carried by a request context
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}
