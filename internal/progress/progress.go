package progress

import (
	"math/rand"
	"sync"
	"time"
)

const (
	// Ceiling is where the animation parks until the backend answers.
	Ceiling  = 95.0
	Snap     = 97.0
	Complete = 100.0

	DefaultTick = 200 * time.Millisecond
)

// Step advances prev by a fraction r in [0,1) scaled by the band prev is in.
// The second result is false once the ceiling has been reached; the value is
// then pinned at Ceiling.
func Step(prev, r float64) (float64, bool) {
	switch {
	case prev < 30:
		return prev + r*2, true
	case prev < 60:
		return prev + r*1.5, true
	case prev < 85:
		return prev + r*0.8, true
	case prev < Ceiling:
		next := prev + r*0.3
		if next > Ceiling {
			next = Ceiling
		}
		return next, true
	default:
		return Ceiling, false
	}
}

// Animator drives Step on a ticker and reports each value to onValue. It is
// purely cosmetic and knows nothing about the request it decorates.
type Animator struct {
	tick    time.Duration
	rnd     func() float64
	onValue func(float64)

	mu      sync.Mutex
	value   float64
	stop    chan struct{}
	done    chan struct{}
	running bool
}

func NewAnimator(tick time.Duration, onValue func(float64)) *Animator {
	if tick <= 0 {
		tick = DefaultTick
	}
	if onValue == nil {
		onValue = func(float64) {}
	}
	return &Animator{tick: tick, rnd: rand.Float64, onValue: onValue}
}

// Start resets the value to zero and begins ticking. Starting a running
// animator restarts it.
func (a *Animator) Start() {
	a.Stop()
	a.mu.Lock()
	a.value = 0
	a.stop = make(chan struct{})
	a.done = make(chan struct{})
	a.running = true
	stop, done := a.stop, a.done
	a.mu.Unlock()
	a.onValue(0)
	go a.loop(stop, done)
}

func (a *Animator) loop(stop, done chan struct{}) {
	defer close(done)
	t := time.NewTicker(a.tick)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			a.mu.Lock()
			next, more := Step(a.value, a.rnd())
			if next < a.value {
				next = a.value
			}
			a.value = next
			a.mu.Unlock()
			a.onValue(next)
			if !more {
				a.mu.Lock()
				a.running = false
				a.mu.Unlock()
				return
			}
		}
	}
}

// Stop halts the ticker and waits for the loop to exit. Safe to call when
// not running.
func (a *Animator) Stop() {
	a.mu.Lock()
	stop, done := a.stop, a.done
	a.stop, a.done = nil, nil
	a.running = false
	a.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Set stops the animation and jumps to v.
func (a *Animator) Set(v float64) {
	a.Stop()
	a.mu.Lock()
	a.value = v
	a.mu.Unlock()
	a.onValue(v)
}

func (a *Animator) Value() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.value
}

func (a *Animator) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}
