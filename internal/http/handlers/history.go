package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/dubmyyt/internal/history"
	"github.com/yungbote/dubmyyt/internal/http/response"
	"github.com/yungbote/dubmyyt/internal/pkg/httpx"
	"github.com/yungbote/dubmyyt/internal/platform/apierr"
	"github.com/yungbote/dubmyyt/internal/platform/logger"
	"github.com/yungbote/dubmyyt/internal/workspace"
)

type HistoryHandler struct {
	log       *logger.Logger
	workspace *workspace.Registry
}

func NewHistoryHandler(log *logger.Logger, reg *workspace.Registry) *HistoryHandler {
	return &HistoryHandler{log: log.With("handler", "HistoryHandler"), workspace: reg}
}

func (h *HistoryHandler) List(c *gin.Context) {
	sess, ws, ok := sessionWorkspace(c, h.workspace)
	if !ok {
		return
	}
	items, err := ws.History.List(c.Request.Context(), sess.UserID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "history_load_failed", errors.New("Failed to load history"))
		return
	}
	response.RespondOK(c, gin.H{"items": items})
}

func (h *HistoryHandler) Get(c *gin.Context) {
	sess, ws, ok := sessionWorkspace(c, h.workspace)
	if !ok {
		return
	}
	id, ok := videoID(c)
	if !ok {
		return
	}
	details, err := ws.History.Select(c.Request.Context(), sess.UserID, id)
	if err != nil {
		respondPanelError(c, err, "details_failed")
		return
	}
	response.RespondOK(c, gin.H{"id": id, "details": details, "preview": ws.Slot.Current()})
}

// Delete requires ?confirm=true. Without it the response carries the
// question to put to the user and nothing is removed.
func (h *HistoryHandler) Delete(c *gin.Context) {
	sess, ws, ok := sessionWorkspace(c, h.workspace)
	if !ok {
		return
	}
	id, ok := videoID(c)
	if !ok {
		return
	}
	confirmed := c.Query("confirm") == "true"
	err := ws.History.Delete(c.Request.Context(), sess.UserID, id, confirmed)
	switch {
	case errors.Is(err, history.ErrConfirmationRequired):
		title := "this video"
		if it, ok := ws.History.Lookup(id); ok {
			title = it.DisplayTitle
		}
		response.RespondError(c, http.StatusPreconditionRequired, "confirmation_required", errors.New(history.ConfirmPrompt(title)))
	case err != nil:
		respondPanelError(c, err, "delete_failed")
	default:
		response.RespondOK(c, gin.H{"deleted": id})
	}
}

func (h *HistoryHandler) DownloadSubtitle(c *gin.Context) {
	sess, ws, ok := sessionWorkspace(c, h.workspace)
	if !ok {
		return
	}
	id, ok := videoID(c)
	if !ok {
		return
	}
	dl, err := ws.History.DownloadSubtitle(c.Request.Context(), sess.UserID, id, c.Param("language"))
	if err != nil {
		respondPanelError(c, err, "download_failed")
		return
	}
	attachment(c, dl.Filename, "text/srt", []byte(dl.Content))
}

func (h *HistoryHandler) DownloadSummary(c *gin.Context) {
	sess, ws, ok := sessionWorkspace(c, h.workspace)
	if !ok {
		return
	}
	id, ok := videoID(c)
	if !ok {
		return
	}
	dl, err := ws.History.DownloadSummary(c.Request.Context(), sess.UserID, id)
	if err != nil {
		respondPanelError(c, err, "download_failed")
		return
	}
	attachment(c, dl.Filename, "text/plain; charset=utf-8", []byte(dl.Content))
}

func videoID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", errors.New("invalid video id"))
		return 0, false
	}
	return id, true
}

// respondPanelError answers with the panel's user-facing text. A 4xx from the
// processing backend keeps its status; anything else is a 502.
func respondPanelError(c *gin.Context, err error, code string) {
	status := http.StatusBadGateway
	if s := httpx.StatusCode(err); s >= 400 && s < 500 {
		status = s
	}
	if errors.Is(err, history.ErrActivityCleanup) || errors.Is(err, history.ErrDeleteFailed) {
		status = http.StatusInternalServerError
	}
	if errors.Is(err, history.ErrNotListed) {
		status = http.StatusNotFound
	}
	var ue *history.UserError
	if errors.As(err, &ue) {
		err = errors.New(ue.Message)
	}
	response.RespondAPIError(c, apierr.New(status, code, err), code)
}
