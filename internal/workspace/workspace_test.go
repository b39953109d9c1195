package workspace

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	types "github.com/yungbote/dubmyyt/internal/domain"
	"github.com/yungbote/dubmyyt/internal/platform/logger"
	"github.com/yungbote/dubmyyt/internal/realtime"
	"github.com/yungbote/dubmyyt/internal/session"
	"github.com/yungbote/dubmyyt/internal/submission"
)

type sink struct {
	mu   sync.Mutex
	msgs []realtime.SSEMessage
}

func (s *sink) Emit(channel string, ev realtime.SSEEvent, data any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, realtime.SSEMessage{Channel: channel, Event: ev, Data: data})
}

func (s *sink) events(channel string) []realtime.SSEEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []realtime.SSEEvent
	for _, m := range s.msgs {
		if m.Channel == channel {
			out = append(out, m.Event)
		}
	}
	return out
}

func newRegistry(t *testing.T) (*Registry, *sink) {
	t.Helper()
	s := &sink{}
	r := NewRegistry(Deps{Emitter: s}, Options{PreviewDir: t.TempDir()}, logger.Nop())
	t.Cleanup(r.Close)
	return r, s
}

func sess(id string, user uuid.UUID) *types.Session {
	return &types.Session{ID: id, UserID: user, AccessToken: "at"}
}

func TestGetReusesWorkspacePerSession(t *testing.T) {
	r, _ := newRegistry(t)
	user := uuid.New()
	a := r.Get(sess("s1", user))
	b := r.Get(sess("s1", user))
	if a != b {
		t.Fatalf("expected same workspace for same session")
	}
	c := r.Get(sess("s2", user))
	if c == a {
		t.Fatalf("expected distinct workspace per session")
	}
	if r.Len() != 2 {
		t.Fatalf("len: got=%d want=2", r.Len())
	}
}

func TestGetReplacesWorkspaceOfOtherUser(t *testing.T) {
	r, _ := newRegistry(t)
	a := r.Get(sess("s1", uuid.New()))
	b := r.Get(sess("s1", uuid.New()))
	if a == b {
		t.Fatalf("expected a fresh workspace")
	}
	_, err := a.Flow.Submit(context.Background(), submission.Request{URL: "https://youtu.be/x", UserID: a.UserID.String()})
	if !errors.Is(err, submission.ErrClosed) {
		t.Fatalf("old flow: got=%v want=ErrClosed", err)
	}
}

func TestSessionEndDropsWorkspace(t *testing.T) {
	r, s := newRegistry(t)
	user := uuid.New()
	ws := r.Get(sess("s1", user))

	r.onSessionEvent(session.Event{Kind: session.EventTokenRefreshed, SessionID: "s1", UserID: user})
	if _, ok := r.Lookup("s1"); !ok {
		t.Fatalf("refresh should keep the workspace")
	}

	r.onSessionEvent(session.Event{Kind: session.EventSignedOut, SessionID: "s1", UserID: user})
	if _, ok := r.Lookup("s1"); ok {
		t.Fatalf("sign-out should drop the workspace")
	}
	if ws.Slot.Current() != nil {
		t.Fatalf("preview should be cleared")
	}
	got := s.events(realtime.SessionChannel("s1"))
	if len(got) != 2 || got[0] != realtime.SSEEventSessionChanged || got[1] != realtime.SSEEventSessionChanged {
		t.Fatalf("events: got=%v", got)
	}
}

func TestNoticesReachSessionChannel(t *testing.T) {
	r, s := newRegistry(t)
	ws := r.Get(sess("s1", uuid.New()))
	ws.Board.Show("validation", "Please enter a YouTube URL or upload a file.")
	ws.Board.Dismiss()
	got := s.events(realtime.SessionChannel("s1"))
	if len(got) != 2 || got[0] != realtime.SSEEventNoticeShown || got[1] != realtime.SSEEventNoticeDismissed {
		t.Fatalf("events: got=%v", got)
	}
}

func TestClosedRegistryRefusesWorkspaces(t *testing.T) {
	r, _ := newRegistry(t)
	r.Get(sess("s1", uuid.New()))
	r.Close()
	if r.Len() != 0 {
		t.Fatalf("len after close: got=%d", r.Len())
	}
	if ws := r.Get(sess("s2", uuid.New())); ws != nil {
		t.Fatalf("expected nil workspace after close")
	}
}
