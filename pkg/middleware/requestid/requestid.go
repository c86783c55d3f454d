// Package requestid tags every request with an ID so an upload, the
// trigger it precedes, and the report downloads that follow can be
// correlated in the logs.
package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header carries the request ID on both the request and the response.
const Header = "X-Request-ID"

const ctxKey = "request_id"

// Middleware keeps a caller-supplied X-Request-ID or assigns a fresh
// one, and echoes it on the response.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxKey, id)
		c.Writer.Header().Set(Header, id)
		c.Next()
	}
}

// Value returns the ID assigned by Middleware, or empty when it did not
// run.
func Value(c *gin.Context) string {
	id, _ := c.Value(ctxKey).(string)
	return id
}
