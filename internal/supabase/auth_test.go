package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/dubmyyt/internal/platform/logger"
)

func newTestAuth(t *testing.T, h http.HandlerFunc) AuthClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewAuthClient(srv.URL, "anon-key", logger.Nop())
	if err != nil {
		t.Fatalf("NewAuthClient: %v", err)
	}
	return c
}

func TestSignInPasswordGrant(t *testing.T) {
	uid := uuid.New()
	c := newTestAuth(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/token" || r.URL.Query().Get("grant_type") != "password" {
			t.Errorf("request: got=%s?%s", r.URL.Path, r.URL.RawQuery)
		}
		if r.Header.Get("apikey") != "anon-key" {
			t.Errorf("apikey: got=%q", r.Header.Get("apikey"))
		}
		var body credentials
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Email != "a@b.co" || body.Password != "pw" {
			t.Errorf("credentials: got=%+v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "at",
			"refresh_token": "rt",
			"expires_in":    3600,
			"user":          map[string]any{"id": uid.String(), "email": "a@b.co"},
		})
	})

	sess, err := c.SignIn(context.Background(), "a@b.co", "pw")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if sess.User.ID != uid || sess.AccessToken != "at" || sess.RefreshToken != "rt" {
		t.Fatalf("session: got=%+v", sess)
	}
	if sess.Expiry().IsZero() {
		t.Fatalf("expiry should be derived from expires_in")
	}
}

func TestSignInInvalidCredentials(t *testing.T) {
	c := newTestAuth(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
	})
	_, err := c.SignIn(context.Background(), "a@b.co", "bad")
	var ae *AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("expected AuthError, got=%v", err)
	}
	if ae.Message != "Invalid login credentials" {
		t.Fatalf("message: got=%q", ae.Message)
	}
}

func TestSignUpWithoutSessionNeedsConfirmation(t *testing.T) {
	uid := uuid.New()
	c := newTestAuth(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/signup" {
			t.Errorf("path: got=%q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": uid.String(), "email": "new@b.co"})
	})
	res, err := c.SignUp(context.Background(), "new@b.co", "pw123456")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if res.Session != nil || res.User.ID != uid {
		t.Fatalf("result: got=%+v", res)
	}
}

func TestUnreachableAuthIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()
	c, err := NewAuthClient(base, "anon-key", logger.Nop())
	if err != nil {
		t.Fatalf("NewAuthClient: %v", err)
	}
	_, err = c.GetUser(context.Background(), "at")
	if !IsUnavailable(err) {
		t.Fatalf("expected unavailable, got=%v", err)
	}
}

func TestRemoteVerifierRejectsUnknownToken(t *testing.T) {
	c := newTestAuth(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer stale" {
			t.Errorf("bearer: got=%q", r.Header.Get("Authorization"))
		}
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":401,"msg":"invalid JWT"}`))
	})
	_, err := NewRemoteVerifier(c).Verify(context.Background(), "stale")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got=%v", err)
	}
}
