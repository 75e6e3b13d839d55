package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader is the header carrying the request correlation ID.
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// RequestID attaches a unique request ID to every request, reusing the
// caller's header value when present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Set(requestIDKey, reqID)
		c.Writer.Header().Set(RequestIDHeader, reqID)
		c.Next()
	}
}

// GetRequestID extracts the request ID set by RequestID.
func GetRequestID(c *gin.Context) string {
	if reqID, ok := c.Get(requestIDKey); ok {
		if s, ok := reqID.(string); ok {
			return s
		}
	}
	return ""
}
