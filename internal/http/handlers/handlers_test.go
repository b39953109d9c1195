package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/dubmyyt/internal/backend"
	types "github.com/yungbote/dubmyyt/internal/domain"
	"github.com/yungbote/dubmyyt/internal/history"
	httpMW "github.com/yungbote/dubmyyt/internal/http/middleware"
	"github.com/yungbote/dubmyyt/internal/platform/logger"
	"github.com/yungbote/dubmyyt/internal/session"
	"github.com/yungbote/dubmyyt/internal/supabase"
	"github.com/yungbote/dubmyyt/internal/workspace"
)

type fakeAuth struct {
	user      supabase.User
	signInErr error
	confirm   bool
}

func (f *fakeAuth) grant() *supabase.AuthSession {
	return &supabase.AuthSession{
		AccessToken:  "at",
		RefreshToken: "rt",
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
		User:         f.user,
	}
}

func (f *fakeAuth) SignIn(context.Context, string, string) (*supabase.AuthSession, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return f.grant(), nil
}
func (f *fakeAuth) SignUp(context.Context, string, string) (*supabase.SignUpResult, error) {
	if f.confirm {
		return &supabase.SignUpResult{User: f.user}, nil
	}
	return &supabase.SignUpResult{User: f.user, Session: f.grant()}, nil
}
func (f *fakeAuth) SignOut(context.Context, string) error { return nil }
func (f *fakeAuth) GetUser(context.Context, string) (*supabase.User, error) {
	u := f.user
	return &u, nil
}
func (f *fakeAuth) Refresh(context.Context, string) (*supabase.AuthSession, error) {
	return f.grant(), nil
}

type fakeVerifier struct{ userID uuid.UUID }

func (v fakeVerifier) Verify(context.Context, string) (*supabase.Identity, error) {
	return &supabase.Identity{UserID: v.userID}, nil
}

// blockingBackend holds every submission until release is closed.
type blockingBackend struct {
	release chan struct{}
}

func (b *blockingBackend) BaseURL() string { return "http://backend.test:5000" }
func (b *blockingBackend) SubmitURL(ctx context.Context, _ string, _ string, lang types.Language, _ types.Action) (*types.JobResult, error) {
	<-b.release
	return &types.JobResult{OriginalSubtitles: "1\n00:00:00,000 --> 00:00:01,000\nhi\n", TargetLanguage: string(lang)}, nil
}
func (b *blockingBackend) SubmitFile(ctx context.Context, uid string, _ backend.Upload, lang types.Language, a types.Action) (*types.JobResult, error) {
	return b.SubmitURL(ctx, uid, "", lang, a)
}
func (b *blockingBackend) VideoDetails(context.Context, string, int64) (*types.VideoDetails, error) {
	return &types.VideoDetails{}, nil
}
func (b *blockingBackend) DownloadSubtitle(context.Context, string, int64, string) (*types.Download, error) {
	return &types.Download{}, nil
}
func (b *blockingBackend) DownloadSummary(context.Context, string, int64) (*types.Download, error) {
	return &types.Download{}, nil
}

type env struct {
	router   *gin.Engine
	sessions *session.Provider
	auth     *fakeAuth
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.Nop()
	uid := uuid.New()
	auth := &fakeAuth{user: supabase.User{ID: uid, Email: "viewer@example.com"}}
	sessions := session.NewProvider(auth, fakeVerifier{userID: uid}, session.NewMemoryStore(), time.Hour, log)

	be := &blockingBackend{release: make(chan struct{})}
	reg := workspace.NewRegistry(workspace.Deps{Backend: be}, workspace.Options{PreviewDir: t.TempDir()}, log)
	reg.Attach(sessions)
	t.Cleanup(reg.Close)
	t.Cleanup(func() { close(be.release) })

	guard := httpMW.NewSessionGuard(log, sessions, "dmy_session")
	authH := NewAuthHandler(log, sessions, guard, CookieConfig{Name: "dmy_session", TTL: time.Hour})
	subH := NewSubmissionHandler(log, reg, t.TempDir(), 1<<20)
	histH := NewHistoryHandler(log, reg)

	r := gin.New()
	r.POST("/api/auth/login", authH.Login)
	r.POST("/api/auth/signup", authH.SignUp)
	r.POST("/api/auth/logout", authH.Logout)
	r.GET("/api/auth/session", guard.Optional(), authH.Session)
	api := r.Group("/api", guard.RequireAPI())
	api.POST("/submissions", subH.Create)
	api.DELETE("/submissions/current", subH.Reset)
	api.DELETE("/history/:id", histH.Delete)
	return &env{router: r, sessions: sessions, auth: auth}
}

func (e *env) do(method, path, sid string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "dmy_session", Value: sid})
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *env) signIn(t *testing.T) string {
	t.Helper()
	sess, err := e.sessions.SignIn(context.Background(), "viewer@example.com", "pw")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	return sess.ID
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	e, _ := decode(t, rec)["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestLoginSetsCookieAndResumesFeature(t *testing.T) {
	e := newEnv(t)
	rec := e.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "viewer@example.com", "password": "pw", "from": "/dashboard", "feature": "summarize",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got=%d want=200 body=%s", rec.Code, rec.Body.String())
	}
	if got := decode(t, rec)["redirect"]; got != "/app?defaultFeature=summarize" {
		t.Fatalf("redirect: got=%v", got)
	}
	cookie := rec.Header().Get("Set-Cookie")
	if !strings.HasPrefix(cookie, "dmy_session=") || !strings.Contains(cookie, "HttpOnly") {
		t.Fatalf("cookie: got=%q", cookie)
	}

	sid := strings.TrimPrefix(strings.SplitN(cookie, ";", 2)[0], "dmy_session=")
	got := decode(t, e.do(http.MethodGet, "/api/auth/session", sid, nil))
	if got["authenticated"] != true || got["email"] != "viewer@example.com" {
		t.Fatalf("session: got=%v", got)
	}
}

func TestLoginFailures(t *testing.T) {
	e := newEnv(t)
	rec := e.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "viewer@example.com"})
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "missing_credentials" {
		t.Fatalf("missing password: got=%d code=%s", rec.Code, errorCode(t, rec))
	}

	e.auth.signInErr = &supabase.AuthError{StatusCode: http.StatusBadRequest, Message: "Invalid login credentials"}
	rec = e.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "viewer@example.com", "password": "bad"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: got=%d want=401", rec.Code)
	}
	if rec.Header().Get("Set-Cookie") != "" {
		t.Fatalf("no cookie expected on failure")
	}
}

func TestSignUpAwaitingConfirmation(t *testing.T) {
	e := newEnv(t)
	e.auth.confirm = true
	rec := e.do(http.MethodPost, "/api/auth/signup", "", map[string]string{"email": "new@example.com", "password": "pw"})
	got := decode(t, rec)
	if rec.Code != http.StatusOK || got["confirm_required"] != true || got["message"] != session.SignUpConfirmMessage {
		t.Fatalf("signup: got=%d body=%v", rec.Code, got)
	}
	if rec.Header().Get("Set-Cookie") != "" {
		t.Fatalf("no cookie expected before confirmation")
	}
}

func TestLogoutEndsSession(t *testing.T) {
	e := newEnv(t)
	sid := e.signIn(t)
	if rec := e.do(http.MethodPost, "/api/auth/logout", sid, nil); rec.Code != http.StatusOK {
		t.Fatalf("logout: got=%d", rec.Code)
	}
	if rec := e.do(http.MethodDelete, "/api/submissions/current", sid, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("after logout: got=%d want=401", rec.Code)
	}
}

func TestSubmissionLifecycle(t *testing.T) {
	e := newEnv(t)
	sid := e.signIn(t)

	rec := e.do(http.MethodPost, "/api/submissions", sid, map[string]string{
		"youtube_url": "not a link", "language": "es", "action": "both",
	})
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "validation" {
		t.Fatalf("invalid url: got=%d code=%s", rec.Code, errorCode(t, rec))
	}

	valid := map[string]string{
		"youtube_url": "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "language": "es", "action": "subtitles",
	}
	rec = e.do(http.MethodPost, "/api/submissions", sid, valid)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("submit: got=%d want=202 body=%s", rec.Code, rec.Body.String())
	}
	sub, _ := decode(t, rec)["submission"].(map[string]any)
	if sub["state"] != "in_flight" {
		t.Fatalf("state: got=%v want=in_flight", sub["state"])
	}

	rec = e.do(http.MethodPost, "/api/submissions", sid, valid)
	if rec.Code != http.StatusOK || decode(t, rec)["accepted"] != false {
		t.Fatalf("second submit: got=%d body=%s", rec.Code, rec.Body.String())
	}
	if rec := e.do(http.MethodDelete, "/api/submissions/current", sid, nil); rec.Code != http.StatusConflict {
		t.Fatalf("reset in flight: got=%d want=409", rec.Code)
	}
}

func TestHistoryDeleteAsksForConfirmation(t *testing.T) {
	e := newEnv(t)
	sid := e.signIn(t)

	rec := e.do(http.MethodDelete, "/api/history/7", sid, nil)
	if rec.Code != http.StatusPreconditionRequired || errorCode(t, rec) != "confirmation_required" {
		t.Fatalf("delete: got=%d code=%s", rec.Code, errorCode(t, rec))
	}
	if rec := e.do(http.MethodDelete, "/api/history/abc", sid, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id: got=%d want=400", rec.Code)
	}
}

func TestPanelErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&history.UserError{Message: "gone", Err: history.ErrNotListed}, http.StatusNotFound},
		{&history.UserError{Message: "x", Err: history.ErrDeleteFailed}, http.StatusInternalServerError},
		{&history.UserError{Message: "y", Err: errors.New("refused")}, http.StatusBadGateway},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		respondPanelError(c, tc.err, "video_details_failed")
		if rec.Code != tc.want {
			t.Fatalf("%v: got=%d want=%d", tc.err, rec.Code, tc.want)
		}
	}
}

func TestResumeTarget(t *testing.T) {
	cases := []struct{ from, feature, want string }{
		{"/dashboard", "", "/dashboard"},
		{"https://evil.example", "", "/"},
		{"/dashboard", "subtitles", "/app?defaultFeature=subtitles"},
	}
	for _, tc := range cases {
		if got := resumeTarget(tc.from, tc.feature); got != tc.want {
			t.Fatalf("resumeTarget(%q,%q): got=%q want=%q", tc.from, tc.feature, got, tc.want)
		}
	}
}
