package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/dubmyyt/internal/domain"
	httpMW "github.com/yungbote/dubmyyt/internal/http/middleware"
	"github.com/yungbote/dubmyyt/internal/http/response"
	"github.com/yungbote/dubmyyt/internal/platform/apierr"
	"github.com/yungbote/dubmyyt/internal/platform/logger"
	"github.com/yungbote/dubmyyt/internal/session"
	"github.com/yungbote/dubmyyt/internal/supabase"
)

type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

type AuthHandler struct {
	log      *logger.Logger
	sessions *session.Provider
	guard    *httpMW.SessionGuard
	cookie   CookieConfig
}

func NewAuthHandler(log *logger.Logger, sessions *session.Provider, guard *httpMW.SessionGuard, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{
		log:      log.With("handler", "AuthHandler"),
		sessions: sessions,
		guard:    guard,
		cookie:   cookie,
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	From     string `json:"from"`
	Feature  string `json:"feature"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	sess, err := h.sessions.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.authFailed(c, "login", err)
		return
	}
	h.setCookie(c, sess)
	response.RespondOK(c, gin.H{
		"user_id":  sess.UserID,
		"email":    sess.Email,
		"redirect": resumeTarget(req.From, req.Feature),
	})
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	sess, err := h.sessions.SignUp(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.authFailed(c, "signup", err)
		return
	}
	if sess == nil {
		response.RespondOK(c, gin.H{
			"confirm_required": true,
			"message":          session.SignUpConfirmMessage,
		})
		return
	}
	h.setCookie(c, sess)
	response.RespondOK(c, gin.H{
		"user_id":  sess.UserID,
		"email":    sess.Email,
		"redirect": resumeTarget(req.From, req.Feature),
	})
}

func (h *AuthHandler) authFailed(c *gin.Context, op string, err error) {
	msg := session.LoginMessage(err)
	switch {
	case errors.Is(err, session.ErrMissingCredentials):
		response.RespondAPIError(c, apierr.BadRequest("missing_credentials", errors.New(msg)), "auth_failed")
	case supabase.IsUnavailable(err):
		h.log.Warn("auth service unavailable", "op", op, "error", err)
		response.RespondAPIError(c, apierr.New(http.StatusServiceUnavailable, "auth_unavailable", errors.New(msg)), "auth_failed")
	default:
		h.log.Info("auth rejected", "op", op, "error", err)
		response.RespondAPIError(c, apierr.Unauthorized("invalid_credentials", errors.New(msg)), "auth_failed")
	}
}

func (h *AuthHandler) Logout(c *gin.Context) {
	sid := h.guard.SessionID(c)
	if sid != "" {
		if err := h.sessions.SignOut(c.Request.Context(), sid); err != nil {
			h.log.Error("sign-out failed", "session_id", sid, "error", err)
			response.RespondError(c, http.StatusInternalServerError, "logout_failed", err)
			return
		}
	}
	h.clearCookie(c)
	response.RespondOK(c, gin.H{"ok": true})
}

// Session reports the caller's identity. It runs behind the optional guard
// so anonymous callers get authenticated=false rather than an error.
func (h *AuthHandler) Session(c *gin.Context) {
	sess := httpMW.CurrentSession(c)
	if sess == nil {
		response.RespondOK(c, gin.H{"authenticated": false})
		return
	}
	response.RespondOK(c, gin.H{
		"authenticated": true,
		"user_id":       sess.UserID,
		"email":         sess.Email,
		"expires_at":    sess.ExpiresAt,
	})
}

func (h *AuthHandler) setCookie(c *gin.Context, sess *types.Session) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, sess.ID, int(h.cookie.TTL.Seconds()), "/", "", h.cookie.Secure, true)
}

func (h *AuthHandler) clearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
}

// resumeTarget is where the browser goes after signing in: the app with the
// requested feature preselected, or back to where the guard stopped it.
func resumeTarget(from, feature string) string {
	if f := strings.TrimSpace(feature); f != "" {
		return "/app?defaultFeature=" + url.QueryEscape(f)
	}
	return httpMW.SafeReturnPath(from)
}
