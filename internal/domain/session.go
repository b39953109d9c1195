package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is this service's cached copy of the auth collaborator's session.
type Session struct {
	ID           string    `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (s *Session) Valid(now time.Time) bool {
	if s == nil || s.UserID == uuid.Nil || s.AccessToken == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}
