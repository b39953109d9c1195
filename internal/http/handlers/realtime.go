package handlers

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	httpMW "github.com/yungbote/dubmyyt/internal/http/middleware"
	"github.com/yungbote/dubmyyt/internal/http/response"
	"github.com/yungbote/dubmyyt/internal/observability"
	"github.com/yungbote/dubmyyt/internal/platform/logger"
	"github.com/yungbote/dubmyyt/internal/realtime"
)

type RealtimeHandler struct {
	log     *logger.Logger
	hub     *realtime.SSEHub
	metrics *observability.Metrics
	open    atomic.Int64
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub, metrics *observability.Metrics) *RealtimeHandler {
	return &RealtimeHandler{log: log.With("handler", "RealtimeHandler"), hub: hub, metrics: metrics}
}

// SSEStream subscribes the connection to its session channel. A browser may
// hold several streams (tabs); each gets every event for the session.
func (h *RealtimeHandler) SSEStream(c *gin.Context) {
	sess := httpMW.CurrentSession(c)
	if sess == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("not authenticated"))
		return
	}
	client := h.hub.NewSSEClient(sess.ID)
	h.hub.AddChannel(client, realtime.SessionChannel(sess.ID))
	h.metrics.SetSSEClients(int(h.open.Add(1)))
	h.log.Debug("SSEStream open", "user_id", sess.UserID, "session_id", sess.ID)

	h.hub.ServeHTTP(c.Writer, c.Request, client)

	h.hub.CloseClient(client)
	h.metrics.SetSSEClients(int(h.open.Add(-1)))
}
