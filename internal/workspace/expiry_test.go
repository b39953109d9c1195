package workspace

import (
	"bytes"
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/dubmyyt/internal/platform/logger"
	"github.com/yungbote/dubmyyt/internal/realtime"
	"github.com/yungbote/dubmyyt/internal/session"
	"github.com/yungbote/dubmyyt/internal/supabase"
)

type stubAuth struct{ user supabase.User }

func (a stubAuth) SignIn(context.Context, string, string) (*supabase.AuthSession, error) {
	return &supabase.AuthSession{
		AccessToken:  "at",
		RefreshToken: "rt",
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
		User:         a.user,
	}, nil
}
func (a stubAuth) SignUp(context.Context, string, string) (*supabase.SignUpResult, error) {
	return &supabase.SignUpResult{User: a.user}, nil
}
func (a stubAuth) SignOut(context.Context, string) error { return nil }
func (a stubAuth) GetUser(context.Context, string) (*supabase.User, error) {
	u := a.user
	return &u, nil
}
func (a stubAuth) Refresh(ctx context.Context, _ string) (*supabase.AuthSession, error) {
	return a.SignIn(ctx, "", "")
}

type stubVerifier struct{ userID uuid.UUID }

func (v stubVerifier) Verify(context.Context, string) (*supabase.Identity, error) {
	return &supabase.Identity{UserID: v.userID}, nil
}

type closedStreams struct {
	mu       sync.Mutex
	channels []string
}

func (c *closedStreams) CloseChannel(channel string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channels = append(c.channels, channel)
	return 1
}

func (c *closedStreams) list() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.channels...)
}

func TestStoreTTLExpiryTearsDownWorkspace(t *testing.T) {
	user := uuid.New()
	auth := stubAuth{user: supabase.User{ID: user, Email: "a@b.co"}}
	p := session.NewProvider(auth, stubVerifier{userID: user}, session.NewMemoryStore(), 50*time.Millisecond, logger.Nop())
	streams := &closedStreams{}
	r := NewRegistry(Deps{Streams: streams}, Options{PreviewDir: t.TempDir()}, logger.Nop())
	t.Cleanup(r.Close)
	r.Attach(p)

	ctx := context.Background()
	sess, err := p.SignIn(ctx, "a@b.co", "pw")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	ws := r.Get(sess)
	prev, err := ws.Slot.SetFile("v.mp4", "video/mp4", bytes.NewReader([]byte("frames")))
	if err != nil || prev == nil {
		t.Fatalf("SetFile: preview=%v err=%v", prev, err)
	}

	time.Sleep(100 * time.Millisecond)
	if _, err := p.Current(ctx, sess.ID); !errors.Is(err, session.ErrNoSession) {
		t.Fatalf("Current after TTL: got=%v want=ErrNoSession", err)
	}
	if r.Len() != 0 {
		t.Fatalf("registry len: got=%d want=0", r.Len())
	}
	if _, err := os.Stat(prev.Path()); !os.IsNotExist(err) {
		t.Fatalf("preview file should be removed, stat err=%v", err)
	}
	if got := streams.list(); len(got) != 1 || got[0] != realtime.SessionChannel(sess.ID) {
		t.Fatalf("closed streams: got=%v", got)
	}
}

func TestIdleWorkspacesAreReaped(t *testing.T) {
	r := NewRegistry(Deps{}, Options{PreviewDir: t.TempDir(), IdleTTL: time.Hour, ReapEvery: time.Hour}, logger.Nop())
	t.Cleanup(r.Close)
	base := time.Now()
	r.now = func() time.Time { return base }

	r.Get(sess("stale", uuid.New()))
	r.now = func() time.Time { return base.Add(50 * time.Minute) }
	r.Get(sess("fresh", uuid.New()))

	r.now = func() time.Time { return base.Add(90 * time.Minute) }
	if n := r.reapIdle(); n != 1 {
		t.Fatalf("reaped: got=%d want=1", n)
	}
	if _, ok := r.Lookup("stale"); ok {
		t.Fatalf("stale workspace should be gone")
	}
	if _, ok := r.Lookup("fresh"); !ok {
		t.Fatalf("fresh workspace should survive")
	}
}
