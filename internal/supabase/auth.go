package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/dubmyyt/internal/pkg/httpx"
	"github.com/yungbote/dubmyyt/internal/platform/logger"
)

type User struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// AuthSession is a GoTrue token grant.
type AuthSession struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         User   `json:"user"`
	issuedAt     time.Time
}

// Expiry returns when the access token stops being valid.
func (s *AuthSession) Expiry() time.Time {
	if s.ExpiresAt > 0 {
		return time.Unix(s.ExpiresAt, 0)
	}
	if s.ExpiresIn > 0 {
		return s.issuedAt.Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	return time.Time{}
}

// SignUpResult carries a session when the project does not require email
// confirmation; otherwise only the created user.
type SignUpResult struct {
	User    User
	Session *AuthSession
}

type AuthClient interface {
	SignIn(ctx context.Context, email, password string) (*AuthSession, error)
	SignUp(ctx context.Context, email, password string) (*SignUpResult, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (*User, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthSession, error)
}

type authClient struct {
	log        *logger.Logger
	baseURL    string
	anonKey    string
	httpClient *http.Client
	now        func() time.Time
}

func NewAuthClient(projectURL, anonKey string, log *logger.Logger) (AuthClient, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	projectURL = strings.TrimRight(strings.TrimSpace(projectURL), "/")
	if projectURL == "" || anonKey == "" {
		return nil, fmt.Errorf("supabase url and anon key required")
	}
	return &authClient{
		log:        log.With("service", "SupabaseAuth"),
		baseURL:    projectURL + "/auth/v1",
		anonKey:    anonKey,
		httpClient: httpx.NewClient(15 * time.Second),
		now:        time.Now,
	}, nil
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *authClient) SignIn(ctx context.Context, email, password string) (*AuthSession, error) {
	var out AuthSession
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=password", "", credentials{email, password}, &out); err != nil {
		return nil, err
	}
	out.issuedAt = c.now()
	return &out, nil
}

func (c *authClient) Refresh(ctx context.Context, refreshToken string) (*AuthSession, error) {
	var out AuthSession
	body := map[string]string{"refresh_token": refreshToken}
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=refresh_token", "", body, &out); err != nil {
		return nil, err
	}
	out.issuedAt = c.now()
	return &out, nil
}

type signUpResponse struct {
	AuthSession
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

func (c *authClient) SignUp(ctx context.Context, email, password string) (*SignUpResult, error) {
	var out signUpResponse
	if err := c.do(ctx, http.MethodPost, "/signup", "", credentials{email, password}, &out); err != nil {
		return nil, err
	}
	if out.AccessToken != "" {
		sess := out.AuthSession
		sess.issuedAt = c.now()
		return &SignUpResult{User: sess.User, Session: &sess}, nil
	}
	return &SignUpResult{User: User{ID: out.ID, Email: out.Email}}, nil
}

func (c *authClient) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/logout", accessToken, nil, nil)
}

func (c *authClient) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodGet, "/user", accessToken, nil, &out); err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, ErrInvalidToken
	}
	return &out, nil
}

type gotrueError struct {
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (g gotrueError) text() string {
	for _, s := range []string{g.Msg, g.ErrorDescription, g.Message, g.Error} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

func (c *authClient) do(ctx context.Context, method, path, bearer string, body any, out any) error {
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.anonKey)
	if bearer == "" {
		bearer = c.anonKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("auth service unreachable", "path", path, "error", err)
		return &UnavailableError{Err: err}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &UnavailableError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var ge gotrueError
		_ = json.Unmarshal(raw, &ge)
		if resp.StatusCode == http.StatusBadGateway || resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusGatewayTimeout {
			return &UnavailableError{Err: fmt.Errorf("http %d", resp.StatusCode)}
		}
		return &AuthError{StatusCode: resp.StatusCode, Code: ge.ErrorCode, Message: ge.text()}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode auth response: %w", err)
	}
	return nil
}
