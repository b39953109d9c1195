package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/dubmyyt/internal/domain"
	"github.com/yungbote/dubmyyt/internal/platform/ctxutil"
	"github.com/yungbote/dubmyyt/internal/platform/logger"
	"github.com/yungbote/dubmyyt/internal/session"
)

const sessionKey = "dmy_session"

type SessionSource interface {
	Current(ctx context.Context, sid string) (*types.Session, error)
}

// SessionGuard admits requests that carry a live session. Every request is
// checked against the provider; when the auth service cannot answer the
// request is denied.
type SessionGuard struct {
	log      *logger.Logger
	sessions SessionSource
	cookie   string
}

func NewSessionGuard(log *logger.Logger, sessions SessionSource, cookieName string) *SessionGuard {
	return &SessionGuard{
		log:      log.With("Middleware", "SessionGuard"),
		sessions: sessions,
		cookie:   cookieName,
	}
}

// RequirePage redirects anonymous visitors to the login view, remembering
// where they were going and which feature they asked for.
func (g *SessionGuard) RequirePage() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := g.admit(c); !ok {
			c.Redirect(http.StatusFound, LoginRedirect(c.Request.URL.Path, c.Query("feature")))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAPI answers anonymous API calls with 401.
func (g *SessionGuard) RequireAPI() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := g.resolve(c); err != nil {
			code, msg := "unauthorized", "missing or invalid session"
			if !errors.Is(err, session.ErrNoSession) {
				code, msg = "auth_unavailable", "session could not be verified"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": msg, "code": code},
			})
			return
		}
		c.Next()
	}
}

// Optional attaches the session when there is one and never rejects.
func (g *SessionGuard) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		g.admit(c)
		c.Next()
	}
}

func (g *SessionGuard) admit(c *gin.Context) (*types.Session, bool) {
	sess, err := g.resolve(c)
	return sess, err == nil
}

func (g *SessionGuard) resolve(c *gin.Context) (*types.Session, error) {
	sid := g.SessionID(c)
	sess, err := g.sessions.Current(c.Request.Context(), sid)
	if err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			g.log.Warn("session check failed (denying)", "session_id", sid, "path", c.Request.URL.Path, "error", err)
		}
		return nil, err
	}
	c.Set(sessionKey, sess)
	c.Request = c.Request.WithContext(ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{
		SessionID:   sess.ID,
		UserID:      sess.UserID,
		Email:       sess.Email,
		AccessToken: sess.AccessToken,
	}))
	return sess, nil
}

// SessionID reads the browser session id from the cookie, falling back to a
// bearer header for non-browser clients.
func (g *SessionGuard) SessionID(c *gin.Context) string {
	if v, err := c.Cookie(g.cookie); err == nil && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// CurrentSession returns the session attached by the guard, if any.
func CurrentSession(c *gin.Context) *types.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*types.Session)
	return sess
}

func LoginRedirect(from, feature string) string {
	target := "/auth?from=" + url.QueryEscape(from)
	if f := strings.TrimSpace(feature); f != "" {
		target += "&feature=" + url.QueryEscape(f)
	}
	return target
}

// SafeReturnPath keeps post-login redirects on this site.
func SafeReturnPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return "/"
	}
	return p
}
