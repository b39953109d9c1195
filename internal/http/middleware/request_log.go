package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/dubmyyt/internal/platform/ctxutil"
	"github.com/yungbote/dubmyyt/internal/platform/logger"
)

// quietPaths are probed by load balancers and scrapers often enough that
// logging them drowns out browser traffic.
var quietPaths = map[string]bool{
	"/healthcheck": true,
	"/metrics":     true,
}

// RequestLogger writes one line per finished request. The SSE stream is
// logged when the browser disconnects, so its duration is the connection
// lifetime rather than a latency.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if log == nil || quietPaths[c.Request.URL.Path] {
			return
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"bytes", c.Writer.Size(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		ctx := c.Request.Context()
		if td := ctxutil.GetTraceData(ctx); td != nil {
			fields = append(fields, "trace_id", td.TraceID, "request_id", td.RequestID)
		}
		if rd := ctxutil.GetRequestData(ctx); rd != nil {
			fields = append(fields, "user_id", rd.UserID.String(), "session_id", rd.SessionID)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		msg := "request"
		if route == "/api/sse/stream" {
			msg = "sse stream closed"
		}
		switch {
		case status >= 500:
			log.Error(msg, fields...)
		case status >= 400:
			log.Warn(msg, fields...)
		default:
			log.Info(msg, fields...)
		}
	}
}
