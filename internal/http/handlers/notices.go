package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/dubmyyt/internal/http/response"
	"github.com/yungbote/dubmyyt/internal/workspace"
)

type NoticeHandler struct {
	workspace *workspace.Registry
}

func NewNoticeHandler(reg *workspace.Registry) *NoticeHandler {
	return &NoticeHandler{workspace: reg}
}

func (h *NoticeHandler) Current(c *gin.Context) {
	_, ws, ok := sessionWorkspace(c, h.workspace)
	if !ok {
		return
	}
	n, shown := ws.Board.Current()
	if !shown {
		response.RespondOK(c, gin.H{"notice": nil})
		return
	}
	response.RespondOK(c, gin.H{"notice": n})
}

func (h *NoticeHandler) Dismiss(c *gin.Context) {
	_, ws, ok := sessionWorkspace(c, h.workspace)
	if !ok {
		return
	}
	ws.Board.Dismiss()
	response.RespondOK(c, gin.H{"notice": nil})
}
