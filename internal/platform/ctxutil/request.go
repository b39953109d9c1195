package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type requestDataKey struct{}

// RequestData is attached by the session guard once a browser session has
// been validated against the auth collaborator.
type RequestData struct {
	SessionID   string
	UserID      uuid.UUID
	Email       string
	AccessToken string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if ctx == nil {
		return nil
	}
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}
