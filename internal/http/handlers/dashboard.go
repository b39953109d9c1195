package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/dubmyyt/internal/dashboard"
	httpMW "github.com/yungbote/dubmyyt/internal/http/middleware"
	"github.com/yungbote/dubmyyt/internal/http/response"
)

type DashboardHandler struct {
	dashboard dashboard.Service
	now       func() time.Time
}

func NewDashboardHandler(svc dashboard.Service) *DashboardHandler {
	return &DashboardHandler{dashboard: svc, now: time.Now}
}

func (h *DashboardHandler) Overview(c *gin.Context) {
	sess := httpMW.CurrentSession(c)
	if sess == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("not authenticated"))
		return
	}
	ov, err := h.dashboard.Overview(c.Request.Context(), sess.UserID, h.now())
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "dashboard_failed", errors.New("Failed to load dashboard"))
		return
	}
	response.RespondOK(c, ov)
}
