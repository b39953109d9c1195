package session

import (
	"sync"

	"github.com/google/uuid"
)

type EventKind string

const (
	EventSignedIn       EventKind = "signed_in"
	EventSignedOut      EventKind = "signed_out"
	EventTokenRefreshed EventKind = "token_refreshed"
	EventExpired        EventKind = "expired"
)

type Event struct {
	Kind      EventKind `json:"kind"`
	SessionID string    `json:"-"`
	UserID    uuid.UUID `json:"user_id"`
}

// Ends reports whether the event terminates the browser session.
func (e Event) Ends() bool { return e.Kind == EventSignedOut || e.Kind == EventExpired }

// Subscription is returned by Provider.Subscribe.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Unsubscribe detaches the listener. Later calls do nothing.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}

type listeners struct {
	mu   sync.RWMutex
	next uint64
	fns  map[uint64]func(Event)
}

func (l *listeners) add(fn func(Event)) *Subscription {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = make(map[uint64]func(Event))
	}
	id := l.next
	l.next++
	l.fns[id] = fn
	return &Subscription{cancel: func() {
		l.mu.Lock()
		delete(l.fns, id)
		l.mu.Unlock()
	}}
}

func (l *listeners) count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.fns)
}

func (l *listeners) emit(ev Event) {
	l.mu.RLock()
	fns := make([]func(Event), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.RUnlock()
	for _, fn := range fns {
		fn(ev)
	}
}
