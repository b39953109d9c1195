package session

import (
	"errors"
	"strings"

	"github.com/yungbote/dubmyyt/internal/supabase"
)

const (
	msgNetwork            = "Network connection error. Please check your internet connection and try again."
	msgServiceUnavailable = "Authentication service temporarily unavailable. Please try again in a few moments."
	msgInvalidCredentials = "Invalid email or password. Please check your credentials and try again."
	msgUnexpected         = "An unexpected error occurred. Please try again."

	// SignUpConfirmMessage is shown after a sign-up that still needs the
	// emailed confirmation link.
	SignUpConfirmMessage = "Please check your email to confirm your signup!"
)

// LoginMessage turns a sign-in or sign-up failure into the text shown on the
// login view.
func LoginMessage(err error) string {
	if err == nil {
		return ""
	}
	var ue *supabase.UnavailableError
	if errors.As(err, &ue) {
		if isConnectFailure(ue.Err) {
			return msgNetwork
		}
		return msgServiceUnavailable
	}
	msg := strings.TrimSpace(err.Error())
	var ae *supabase.AuthError
	if errors.As(err, &ae) {
		msg = strings.TrimSpace(ae.Message)
	}
	switch {
	case strings.Contains(msg, "Invalid login credentials"):
		return msgInvalidCredentials
	case msg == "":
		return msgUnexpected
	default:
		return msg
	}
}

func isConnectFailure(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "dial") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "no such host") ||
		strings.Contains(s, "timeout")
}
