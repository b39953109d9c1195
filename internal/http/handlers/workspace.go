package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/dubmyyt/internal/domain"
	httpMW "github.com/yungbote/dubmyyt/internal/http/middleware"
	"github.com/yungbote/dubmyyt/internal/http/response"
	"github.com/yungbote/dubmyyt/internal/workspace"
)

// sessionWorkspace returns the caller's session and workspace, writing the
// error response itself when either is unavailable.
func sessionWorkspace(c *gin.Context, reg *workspace.Registry) (*types.Session, *workspace.Workspace, bool) {
	sess := httpMW.CurrentSession(c)
	if sess == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing or invalid session"))
		return nil, nil, false
	}
	ws := reg.Get(sess)
	if ws == nil {
		response.RespondError(c, http.StatusServiceUnavailable, "shutting_down", errors.New("server is shutting down"))
		return nil, nil, false
	}
	return sess, ws, true
}

func attachment(c *gin.Context, filename, contentType string, content []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, content)
}
