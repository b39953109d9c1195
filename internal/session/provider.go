package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/dubmyyt/internal/domain"
	"github.com/yungbote/dubmyyt/internal/platform/logger"
	"github.com/yungbote/dubmyyt/internal/supabase"
)

var (
	ErrNoSession          = errors.New("no active session")
	ErrMissingCredentials = errors.New("email and password are required")
)

// refreshSkew renews an access token shortly before it actually expires.
const refreshSkew = 30 * time.Second

// Provider owns the browser-session to auth-session mapping and announces
// every change to its subscribers.
type Provider struct {
	log      *logger.Logger
	auth     supabase.AuthClient
	verifier supabase.Verifier
	store    Store
	ttl      time.Duration
	now      func() time.Time
	subs     listeners
}

func NewProvider(auth supabase.AuthClient, verifier supabase.Verifier, store Store, ttl time.Duration, log *logger.Logger) *Provider {
	if verifier == nil {
		verifier = supabase.NewRemoteVerifier(auth)
	}
	return &Provider{
		log:      log.With("service", "SessionProvider"),
		auth:     auth,
		verifier: verifier,
		store:    store,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Subscribe registers fn for every session event.
func (p *Provider) Subscribe(fn func(Event)) *Subscription {
	return p.subs.add(fn)
}

// Current returns the validated session for sid. An unknown, expired or
// revoked session yields ErrNoSession; an unreachable auth service yields
// its error, which callers must treat as a denial.
func (p *Provider) Current(ctx context.Context, sid string) (*types.Session, error) {
	if strings.TrimSpace(sid) == "" {
		return nil, ErrNoSession
	}
	sess, err := p.store.Get(ctx, sid)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		// The store dropped it on TTL; whatever the process still holds for
		// this id has to be released.
		p.subs.emit(Event{Kind: EventExpired, SessionID: sid})
		return nil, ErrNoSession
	}

	if !sess.ExpiresAt.IsZero() && !p.now().Add(refreshSkew).Before(sess.ExpiresAt) {
		sess, err = p.refresh(ctx, sess)
		if err != nil {
			return nil, err
		}
	}

	id, err := p.verifier.Verify(ctx, sess.AccessToken)
	if err != nil {
		if errors.Is(err, supabase.ErrInvalidToken) {
			p.expire(ctx, sess)
			return nil, ErrNoSession
		}
		return nil, err
	}
	if id.UserID != sess.UserID {
		p.expire(ctx, sess)
		return nil, ErrNoSession
	}
	return sess, nil
}

func (p *Provider) refresh(ctx context.Context, sess *types.Session) (*types.Session, error) {
	if sess.RefreshToken == "" {
		p.expire(ctx, sess)
		return nil, ErrNoSession
	}
	grant, err := p.auth.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		if supabase.IsUnavailable(err) {
			return nil, err
		}
		p.log.Info("session refresh rejected", "session_id", sess.ID, "error", err)
		p.expire(ctx, sess)
		return nil, ErrNoSession
	}
	next := p.fromGrant(sess.ID, grant)
	if err := p.store.Put(ctx, next, p.ttl); err != nil {
		return nil, err
	}
	p.subs.emit(Event{Kind: EventTokenRefreshed, SessionID: next.ID, UserID: next.UserID})
	return next, nil
}

func (p *Provider) expire(ctx context.Context, sess *types.Session) {
	if err := p.store.Delete(ctx, sess.ID); err != nil {
		p.log.Warn("session delete failed", "session_id", sess.ID, "error", err)
	}
	p.subs.emit(Event{Kind: EventExpired, SessionID: sess.ID, UserID: sess.UserID})
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*types.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	grant, err := p.auth.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return p.open(ctx, grant)
}

// SignUp creates an account. The returned session is nil when the project
// requires email confirmation before the first sign-in.
func (p *Provider) SignUp(ctx context.Context, email, password string) (*types.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	res, err := p.auth.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if res.Session == nil {
		return nil, nil
	}
	return p.open(ctx, res.Session)
}

func (p *Provider) open(ctx context.Context, grant *supabase.AuthSession) (*types.Session, error) {
	if grant.User.ID == uuid.Nil || grant.AccessToken == "" {
		return nil, fmt.Errorf("auth service returned an incomplete session")
	}
	sess := p.fromGrant(uuid.NewString(), grant)
	if err := p.store.Put(ctx, sess, p.ttl); err != nil {
		return nil, err
	}
	p.log.Info("session opened", "session_id", sess.ID, "user_id", sess.UserID)
	p.subs.emit(Event{Kind: EventSignedIn, SessionID: sess.ID, UserID: sess.UserID})
	return sess, nil
}

// SignOut revokes the tokens upstream when possible and always forgets the
// session locally.
func (p *Provider) SignOut(ctx context.Context, sid string) error {
	sess, err := p.store.Get(ctx, sid)
	if err != nil {
		return err
	}
	if sess == nil {
		return nil
	}
	if err := p.auth.SignOut(ctx, sess.AccessToken); err != nil {
		p.log.Warn("upstream sign-out failed", "session_id", sid, "error", err)
	}
	if err := p.store.Delete(ctx, sid); err != nil {
		return err
	}
	p.subs.emit(Event{Kind: EventSignedOut, SessionID: sid, UserID: sess.UserID})
	return nil
}

func (p *Provider) fromGrant(sid string, grant *supabase.AuthSession) *types.Session {
	email := grant.User.Email
	return &types.Session{
		ID:           sid,
		UserID:       grant.User.ID,
		Email:        email,
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		ExpiresAt:    grant.Expiry(),
	}
}
