package middleware

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/storecraft/backend/internal/infrastructure/logger"
)

// HeaderRequestID is the request ID header exchanged with clients
const HeaderRequestID = "X-Request-ID"

// ContextRequestIDKey is the gin context key holding the request ID
const ContextRequestIDKey = "request_id"

// RequestID assigns every request an ID: the client-provided header when
// present, a generated one otherwise. The ID is stored in the gin context
// for the request logger, propagated through the request's context.Context
// for the layers below, and echoed back on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = newRequestID()
		}
		c.Set(ContextRequestIDKey, id)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), id))
		c.Writer.Header().Set(HeaderRequestID, id)
		c.Next()
	}
}

func newRequestID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.NewString()
	}
	return hex.EncodeToString(b)
}
