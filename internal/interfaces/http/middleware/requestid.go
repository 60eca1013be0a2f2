package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/channeliq/channeliq/pkg/types/common"
)

const requestIDHeader = "X-Request-ID"

// RequestIDMiddleware assigns every request an identifier, honoring one the
// client already sent.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.New().String()
		}
		c.Set(string(common.ContextKeyRequestID), id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// RequestID returns the identifier assigned by RequestIDMiddleware, or empty.
func RequestID(c *gin.Context) string {
	v, ok := c.Get(string(common.ContextKeyRequestID))
	if !ok {
		return ""
	}
	id, _ := v.(string)
	return id
}
