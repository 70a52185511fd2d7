package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coralmesh/llmgateway/internal/log"
)

// Recovery turns a panic inside a handler into a 500 JSON response instead
// of killing the connection, mirroring how the pipeline's own finish()
// never lets an internal failure escape unanswered.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error(c.Request.Context(), "panic recovered", log.Any("panic", r))

				if !c.Writer.Written() {
					c.JSON(http.StatusInternalServerError, gin.H{
						"error": gin.H{
							"type":    "proxy_internal_error",
							"message": fmt.Sprintf("internal proxy error: %v", r),
						},
					})
				}

				c.Abort()
			}
		}()

		c.Next()
	}
}

// AccessLog logs one line per request that either errored or took a
// response status >= 400, keeping successful streaming/blocking traffic
// quiet.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		if status < http.StatusBadRequest && len(c.Errors) == 0 {
			return
		}

		fields := []log.Field{
			log.Int("status", status),
			log.String("method", c.Request.Method),
			log.String("path", c.Request.URL.Path),
			log.Duration("latency", time.Since(start)),
			log.String("client_ip", c.ClientIP()),
		}

		if len(c.Errors) > 0 {
			msgs := make([]string, 0, len(c.Errors))
			for _, e := range c.Errors {
				msgs = append(msgs, e.Error())
			}

			fields = append(fields, log.Strings("errors", msgs))
		}

		log.Error(c.Request.Context(), "[ACCESS]", fields...)
	}
}

// RequestID assigns a stable per-attempt id, reusing an inbound
// X-Request-Id if the client already supplied one (common when a load
// balancer or test harness pins ids across retries).
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = newRequestID()
		}

		c.Set(requestIDContextKey, id)
		c.Writer.Header().Set("X-Request-Id", id)
		c.Request = c.Request.WithContext(log.WithRequestID(c.Request.Context(), id))

		c.Next()
	}
}

const requestIDContextKey = "llmgateway.request_id"
