package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/panjf2000/ants/v2"
)

// ContextSSELockKey holds the mutex serializing writes to one SSE response;
// the keep-alive goroutine and the handler share the same writer.
const ContextSSELockKey = "sseWriterLock"

// SSEMiddleware prepares a response for server-sent events and keeps the
// connection alive with comment pings while a pipeline is between events.
func SSEMiddleware(workerPool *ants.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")

		writeLock := &sync.Mutex{}
		c.Set(ContextSSELockKey, writeLock)

		clientGone := c.Request.Context().Done()

		err := workerPool.Submit(func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					writeLock.Lock()
					_, err := c.Writer.WriteString(": ping\n\n")
					if err == nil {
						c.Writer.Flush()
					}
					writeLock.Unlock()
					if err != nil {
						return
					}
				case <-clientGone:
					return
				}
			}
		})
		if err != nil {
			c.AbortWithStatusJSON(500, gin.H{"error": err.Error()})
			return
		}

		c.Next()
	}
}
