package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/dubmyyt/internal/platform/ctxutil"
)

const (
	HeaderTraceID   = "X-Trace-Id"
	HeaderRequestID = "X-Request-Id"
)

// AttachTraceContext gives every request a request id and a trace id. The
// trace id prefers the active otel span so log lines join up with exported
// traces; callers that sent their own ids keep them.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		span := trace.SpanFromContext(ctx)

		reqID := headerOr(c, HeaderRequestID, uuid.NewString)
		traceID := headerOr(c, HeaderTraceID, func() string {
			if sc := span.SpanContext(); sc.HasTraceID() {
				return sc.TraceID().String()
			}
			return uuid.NewString()
		})
		span.SetAttributes(attribute.String("dmy.request_id", reqID))

		c.Request = c.Request.WithContext(ctxutil.WithTraceData(ctx, &ctxutil.TraceData{
			TraceID:   traceID,
			RequestID: reqID,
		}))
		c.Header(HeaderTraceID, traceID)
		c.Header(HeaderRequestID, reqID)
		c.Next()
	}
}

func headerOr(c *gin.Context, name string, fallback func() string) string {
	if v := strings.TrimSpace(c.GetHeader(name)); v != "" {
		return v
	}
	return fallback()
}
