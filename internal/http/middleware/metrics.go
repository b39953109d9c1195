package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/dubmyyt/internal/observability"
)

// Metrics records per-route latency and the in-flight gauge. The SSE stream
// is excluded from the latency histogram since it stays open for the life of
// the page.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		m.ApiInflightInc()
		defer m.ApiInflightDec()
		start := time.Now()
		c.Next()

		route := c.FullPath()
		switch route {
		case "":
			route = "unmatched"
		case "/api/sse/stream", "/metrics":
			return
		}
		m.ObserveAPI(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
