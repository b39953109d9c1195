package notice

import (
	"sync"
	"time"
)

const DefaultTTL = 6 * time.Second

type Notice struct {
	ID      uint64    `json:"id"`
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	ShownAt time.Time `json:"shown_at"`
}

// Board holds at most one visible notice. A shown notice dismisses itself
// after the TTL; showing another one replaces it and cancels the old timer.
type Board struct {
	ttl       time.Duration
	onShow    func(Notice)
	onDismiss func(Notice)

	mu      sync.Mutex
	current *Notice
	timer   *time.Timer
	seq     uint64
	closed  bool
}

func NewBoard(ttl time.Duration, onShow, onDismiss func(Notice)) *Board {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if onShow == nil {
		onShow = func(Notice) {}
	}
	if onDismiss == nil {
		onDismiss = func(Notice) {}
	}
	return &Board{ttl: ttl, onShow: onShow, onDismiss: onDismiss}
}

func (b *Board) Show(kind, message string) Notice {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return Notice{}
	}
	if b.timer != nil {
		b.timer.Stop()
	}
	b.seq++
	n := Notice{ID: b.seq, Kind: kind, Message: message, ShownAt: time.Now()}
	b.current = &n
	id := n.ID
	b.timer = time.AfterFunc(b.ttl, func() { b.expire(id) })
	b.mu.Unlock()

	b.onShow(n)
	return n
}

func (b *Board) expire(id uint64) {
	b.mu.Lock()
	if b.current == nil || b.current.ID != id {
		b.mu.Unlock()
		return
	}
	n := *b.current
	b.current = nil
	b.timer = nil
	b.mu.Unlock()
	b.onDismiss(n)
}

// Dismiss hides the current notice, if any.
func (b *Board) Dismiss() {
	b.mu.Lock()
	if b.current == nil {
		b.mu.Unlock()
		return
	}
	id := b.current.ID
	if b.timer != nil {
		b.timer.Stop()
	}
	b.mu.Unlock()
	b.expire(id)
}

func (b *Board) Current() (Notice, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return Notice{}, false
	}
	return *b.current, true
}

// Close stops the pending timer and drops the notice without callbacks.
func (b *Board) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.current = nil
}
