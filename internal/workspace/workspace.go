package workspace

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/dubmyyt/internal/backend"
	types "github.com/yungbote/dubmyyt/internal/domain"
	"github.com/yungbote/dubmyyt/internal/history"
	"github.com/yungbote/dubmyyt/internal/notice"
	"github.com/yungbote/dubmyyt/internal/observability"
	"github.com/yungbote/dubmyyt/internal/platform/logger"
	"github.com/yungbote/dubmyyt/internal/preview"
	"github.com/yungbote/dubmyyt/internal/realtime"
	"github.com/yungbote/dubmyyt/internal/session"
	"github.com/yungbote/dubmyyt/internal/submission"
)

// Workspace is everything one signed-in browser session owns on the server.
type Workspace struct {
	SessionID string
	UserID    uuid.UUID
	Flow      *submission.Flow
	Board     *notice.Board
	Slot      *preview.Slot
	History   *history.Panel

	lastUsed time.Time
}

func (w *Workspace) close() {
	w.Flow.Close()
	w.Board.Close()
	w.Slot.Close()
	w.History.Close()
}

type Options struct {
	NoticeTTL  time.Duration
	PreviewDir string
	// IdleTTL drops workspaces nobody touched for that long, covering
	// browsers that never come back to trigger an expiry.
	IdleTTL      time.Duration
	ReapEvery    time.Duration
	HistoryLimit int
	Flow         submission.Options
}

type Deps struct {
	Backend  backend.Client
	Videos   history.VideoStore
	Activity history.ActivityStore
	Emitter  realtime.Emitter
	Metrics  *observability.Metrics
	Streams  StreamCloser
}

// StreamCloser ends the SSE streams open on a channel.
type StreamCloser interface {
	CloseChannel(channel string) int
}

// Registry maps session ids to workspaces. Workspaces are created on first
// use and torn down when the session ends.
type Registry struct {
	log  *logger.Logger
	deps Deps
	opts Options

	mu     sync.Mutex
	items  map[string]*Workspace
	sub    *session.Subscription
	closed bool
	now    func() time.Time
	stop   chan struct{}
}

func NewRegistry(deps Deps, opts Options, baseLog *logger.Logger) *Registry {
	if deps.Emitter == nil {
		deps.Emitter = realtime.Discard
	}
	if opts.NoticeTTL <= 0 {
		opts.NoticeTTL = 6 * time.Second
	}
	if opts.IdleTTL > 0 && opts.ReapEvery <= 0 {
		opts.ReapEvery = time.Minute
	}
	r := &Registry{
		log:   baseLog.With("component", "WorkspaceRegistry"),
		deps:  deps,
		opts:  opts,
		items: map[string]*Workspace{},
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	if opts.IdleTTL > 0 {
		go r.reapLoop()
	}
	return r
}

func (r *Registry) reapLoop() {
	t := time.NewTicker(r.opts.ReapEvery)
	defer t.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-t.C:
			if n := r.reapIdle(); n > 0 {
				r.log.Info("idle workspaces reaped", "count", n)
			}
		}
	}
}

// reapIdle drops every workspace unused for longer than IdleTTL.
func (r *Registry) reapIdle() int {
	cutoff := r.now().Add(-r.opts.IdleTTL)
	r.mu.Lock()
	var idle []string
	for sid, ws := range r.items {
		if ws.lastUsed.Before(cutoff) {
			idle = append(idle, sid)
		}
	}
	r.mu.Unlock()
	for _, sid := range idle {
		r.Drop(sid)
	}
	return len(idle)
}

// Attach follows the provider's session events: ended sessions lose their
// workspace and every change is forwarded to the session's stream.
func (r *Registry) Attach(p *session.Provider) {
	sub := p.Subscribe(r.onSessionEvent)
	r.mu.Lock()
	prev := r.sub
	r.sub = sub
	r.mu.Unlock()
	if prev != nil {
		prev.Unsubscribe()
	}
}

func (r *Registry) onSessionEvent(ev session.Event) {
	if ev.SessionID == "" {
		return
	}
	r.deps.Emitter.Emit(realtime.SessionChannel(ev.SessionID), realtime.SSEEventSessionChanged, ev)
	if ev.Ends() {
		r.Drop(ev.SessionID)
	}
}

// Get returns the workspace for sess, creating it when needed. A workspace
// left behind by a different user under the same id is replaced.
func (r *Registry) Get(sess *types.Session) *Workspace {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	ws, ok := r.items[sess.ID]
	if ok && ws.UserID == sess.UserID {
		ws.lastUsed = r.now()
		r.mu.Unlock()
		return ws
	}
	next := r.build(sess)
	next.lastUsed = r.now()
	r.items[sess.ID] = next
	n := len(r.items)
	r.mu.Unlock()
	r.deps.Metrics.SetWorkspaces(n)

	if ok {
		ws.close()
	}
	r.log.Debug("workspace created", "session_id", sess.ID, "user_id", sess.UserID)
	return next
}

func (r *Registry) Lookup(sid string) (*Workspace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ws, ok := r.items[sid]
	if ok {
		ws.lastUsed = r.now()
	}
	return ws, ok
}

func (r *Registry) build(sess *types.Session) *Workspace {
	channel := realtime.SessionChannel(sess.ID)
	emit := func(ev realtime.SSEEvent, data any) {
		r.observe(ev, data)
		r.deps.Emitter.Emit(channel, ev, data)
	}
	board := notice.NewBoard(r.opts.NoticeTTL,
		func(n notice.Notice) { emit(realtime.SSEEventNoticeShown, n) },
		func(n notice.Notice) { emit(realtime.SSEEventNoticeDismissed, n) },
	)
	log := r.log.With("session_id", sess.ID)
	slot := preview.NewSlot(r.opts.PreviewDir, func(p *preview.Preview) {
		log.Debug("preview revoked", "preview_id", p.ID, "kind", p.Kind)
	})
	panel := history.NewPanel(r.deps.Videos, r.deps.Activity, r.deps.Backend, board, slot, emit, r.log)
	panel.SetLimit(r.opts.HistoryLimit)
	return &Workspace{
		SessionID: sess.ID,
		UserID:    sess.UserID,
		Flow:      submission.NewFlow(r.deps.Backend, board, slot, emit, r.opts.Flow, r.log),
		Board:     board,
		Slot:      slot,
		History:   panel,
	}
}

func (r *Registry) observe(ev realtime.SSEEvent, data any) {
	switch ev {
	case realtime.SSEEventSubmissionDone:
		r.deps.Metrics.IncSubmission(string(submission.StateSucceeded))
	case realtime.SSEEventSubmissionFailed:
		outcome := "failed"
		if m, ok := data.(map[string]any); ok {
			if c, ok := m["error"].(submission.Classified); ok {
				outcome = string(c.Kind)
			}
		}
		r.deps.Metrics.IncSubmission(outcome)
	}
}

// Drop tears down the workspace for sid, if any, and ends the session's
// open streams on this instance.
func (r *Registry) Drop(sid string) {
	r.mu.Lock()
	ws, ok := r.items[sid]
	delete(r.items, sid)
	n := len(r.items)
	r.mu.Unlock()
	r.deps.Metrics.SetWorkspaces(n)
	if r.deps.Streams != nil {
		r.deps.Streams.CloseChannel(realtime.SessionChannel(sid))
	}
	if !ok {
		return
	}
	ws.close()
	r.log.Debug("workspace dropped", "session_id", sid)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.stop)
	items := r.items
	r.items = map[string]*Workspace{}
	sub := r.sub
	r.sub = nil
	r.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	for _, ws := range items {
		ws.close()
	}
}
