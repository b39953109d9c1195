package submission

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yungbote/dubmyyt/internal/backend"
	types "github.com/yungbote/dubmyyt/internal/domain"
	"github.com/yungbote/dubmyyt/internal/notice"
	"github.com/yungbote/dubmyyt/internal/platform/logger"
	"github.com/yungbote/dubmyyt/internal/preview"
	"github.com/yungbote/dubmyyt/internal/progress"
	"github.com/yungbote/dubmyyt/internal/realtime"
)

type State string

const (
	StateIdle      State = "idle"
	StateInFlight  State = "in_flight"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

var ErrClosed = errors.New("submission flow closed")

type Options struct {
	Tick         time.Duration
	SnapHold     time.Duration
	CompleteHold time.Duration
}

func (o Options) withDefaults() Options {
	if o.Tick <= 0 {
		o.Tick = progress.DefaultTick
	}
	if o.SnapHold <= 0 {
		o.SnapHold = 500 * time.Millisecond
	}
	if o.CompleteHold <= 0 {
		o.CompleteHold = 300 * time.Millisecond
	}
	return o
}

// Emit publishes one realtime event for the owning browser session.
type Emit func(event realtime.SSEEvent, data any)

// Flow is the per-session submission state machine. At most one backend call
// is outstanding; a Submit while one is running is ignored.
type Flow struct {
	log     *logger.Logger
	opts    Options
	backend backend.Client
	board   *notice.Board
	slot    *preview.Slot
	anim    *progress.Animator

	mu     sync.Mutex
	emit   Emit
	state  State
	result *types.JobResult
	view   *View
	failed *Classified
	closed bool
	done   chan struct{}
	wg     sync.WaitGroup
}

func NewFlow(client backend.Client, board *notice.Board, slot *preview.Slot, emit Emit, opts Options, log *logger.Logger) *Flow {
	if emit == nil {
		emit = func(realtime.SSEEvent, any) {}
	}
	f := &Flow{
		log:     log.With("component", "SubmissionFlow"),
		opts:    opts.withDefaults(),
		backend: client,
		board:   board,
		slot:    slot,
		emit:    emit,
		state:   StateIdle,
		done:    make(chan struct{}),
	}
	f.anim = progress.NewAnimator(f.opts.Tick, func(v float64) {
		f.publish(realtime.SSEEventProgress, map[string]any{"progress": v})
	})
	return f
}

func (f *Flow) publish(event realtime.SSEEvent, data any) {
	f.mu.Lock()
	emit := f.emit
	f.mu.Unlock()
	emit(event, data)
}

// Submit validates req and, when accepted, starts the backend call in the
// background. accepted is false when a submission is already in flight, the
// request is invalid, or the flow is closed.
func (f *Flow) Submit(ctx context.Context, req Request) (bool, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return false, ErrClosed
	}
	if f.state == StateInFlight {
		f.mu.Unlock()
		return false, nil
	}
	f.mu.Unlock()

	norm, err := Validate(req)
	if err != nil {
		c := Classify(err, f.backend.BaseURL())
		f.board.Show(string(c.Kind), c.Message)
		return false, err
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return false, ErrClosed
	}
	if f.state == StateInFlight {
		f.mu.Unlock()
		return false, nil
	}
	f.state = StateInFlight
	f.result, f.view, f.failed = nil, nil, nil
	f.wg.Add(1)
	f.mu.Unlock()

	f.board.Dismiss()
	f.publish(realtime.SSEEventSubmissionState, map[string]any{"state": StateInFlight})
	f.startPreview(norm)
	f.anim.Start()

	go f.run(context.WithoutCancel(ctx), norm)
	return true, nil
}

func (f *Flow) startPreview(n Normalized) {
	if f.slot == nil {
		return
	}
	var p *preview.Preview
	if n.URL != "" {
		p = f.slot.SetURL(n.URL)
	} else {
		rc, err := n.File.Open()
		if err != nil {
			f.log.Warn("preview open failed", "error", err)
			return
		}
		p, err = f.slot.SetFile(n.File.Name, n.File.ContentType, rc)
		_ = rc.Close()
		if err != nil {
			f.log.Warn("preview create failed", "error", err)
			return
		}
	}
	f.publish(realtime.SSEEventPreviewChanged, p)
}

func (f *Flow) call(ctx context.Context, n Normalized) (*types.JobResult, error) {
	if n.URL != "" {
		return f.backend.SubmitURL(ctx, n.UserID, n.URL, n.Language, n.Action)
	}
	rc, err := n.File.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	up := backend.Upload{Name: n.File.Name, ContentType: n.File.ContentType, Body: rc}
	return f.backend.SubmitFile(ctx, n.UserID, up, n.Language, n.Action)
}

func (f *Flow) run(ctx context.Context, n Normalized) {
	defer f.wg.Done()
	started := time.Now()
	res, err := f.call(ctx, n)
	n.File.Free()
	if f.isClosed() {
		return
	}
	if err != nil {
		f.fail(err, n)
		return
	}

	f.anim.Set(progress.Snap)
	if !f.hold(f.opts.SnapHold) {
		return
	}
	f.anim.Set(progress.Complete)
	if !f.hold(f.opts.CompleteHold) {
		return
	}

	view := BuildView(res)
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.state = StateSucceeded
	f.result = res
	f.view = view
	f.mu.Unlock()

	f.log.Info("submission succeeded",
		"user_id", n.UserID,
		"action", n.Action,
		"language", n.Language,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	f.publish(realtime.SSEEventSubmissionDone, map[string]any{"state": StateSucceeded, "view": view})
	f.anim.Set(0)
}

func (f *Flow) fail(err error, n Normalized) {
	f.anim.Stop()
	c := Classify(err, f.backend.BaseURL())
	f.log.Error("submission failed", "user_id", n.UserID, "kind", c.Kind, "error", err)

	if f.isClosed() {
		return
	}
	f.anim.Set(0)
	f.board.Show(string(c.Kind), c.Message)

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.state = StateFailed
	f.failed = &c
	f.mu.Unlock()
	f.publish(realtime.SSEEventSubmissionFailed, map[string]any{"state": StateFailed, "error": c})
}

// hold waits d unless the flow is closed first.
func (f *Flow) hold(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-f.done:
		return false
	}
}

func (f *Flow) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type Snapshot struct {
	State    State            `json:"state"`
	Progress float64          `json:"progress"`
	View     *View            `json:"view,omitempty"`
	Error    *Classified      `json:"error,omitempty"`
	Notice   *notice.Notice   `json:"notice,omitempty"`
	Preview  *preview.Preview `json:"preview,omitempty"`
}

func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	s := Snapshot{State: f.state, View: f.view, Error: f.failed}
	f.mu.Unlock()
	s.Progress = f.anim.Value()
	if n, ok := f.board.Current(); ok {
		s.Notice = &n
	}
	if f.slot != nil {
		s.Preview = f.slot.Current()
	}
	return s
}

// Result returns the stored result bundle of the last successful submission.
func (f *Flow) Result() *types.JobResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result
}

// Reset returns to the main view and drops the result and preview. It does
// nothing while a submission is in flight.
func (f *Flow) Reset() bool {
	f.mu.Lock()
	if f.closed || f.state == StateInFlight {
		f.mu.Unlock()
		return false
	}
	f.state = StateIdle
	f.result, f.view, f.failed = nil, nil, nil
	f.mu.Unlock()

	if f.slot != nil {
		f.slot.Clear()
	}
	f.publish(realtime.SSEEventSubmissionState, map[string]any{"state": StateIdle})
	return true
}

// Close tears the flow down. An outstanding backend call is left to finish
// on its own but its outcome is discarded.
func (f *Flow) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	close(f.done)
	f.emit = func(realtime.SSEEvent, any) {}
	f.mu.Unlock()

	f.anim.Stop()
	if f.slot != nil {
		f.slot.Close()
	}
}

// Wait blocks until the outstanding backend call, if any, has returned.
func (f *Flow) Wait() { f.wg.Wait() }
