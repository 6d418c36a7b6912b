package middleware

import (
	"time"

	"loyaltystay/services/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-ID"
	ctxRequestID    = "requestID"
)

// RequestID keeps the caller's X-Request-ID or assigns a new one, and echoes
// it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Writer.Header().Set(HeaderRequestID, id)
		c.Next()
	}
}

func GetRequestID(c *gin.Context) string {
	return c.GetString(ctxRequestID)
}

// RequestLogger logs one line per request. Server errors and errors attached
// with c.Error are logged at error level.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		path := c.Request.URL.Path
		if len(c.Errors) > 0 || status >= 500 {
			log.Error("%s %s %d %s request_id=%s errors=%s", c.Request.Method, path, status, latency, GetRequestID(c), c.Errors.String())
			return
		}
		log.Info("%s %s %d %s request_id=%s", c.Request.Method, path, status, latency, GetRequestID(c))
	}
}
