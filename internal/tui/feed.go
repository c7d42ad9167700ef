package tui

import (
	"context"
	"sync"

	"viewengine/internal/controller"
)

// Feed carries controller events into the Bubble Tea loop. Publish never
// blocks the controller: propagations coalesce to the latest one, and
// notices beyond the buffer are dropped.
type Feed struct {
	mu      sync.Mutex
	latest  *controller.Propagation
	ready   chan struct{}
	notices chan controller.Notice
}

func NewFeed() *Feed {
	return &Feed{
		ready:   make(chan struct{}, 1),
		notices: make(chan controller.Notice, 16),
	}
}

// Publish is a controller OnPropagate hook.
func (f *Feed) Publish(p controller.Propagation) {
	f.mu.Lock()
	if f.latest == nil || p.Generation >= f.latest.Generation {
		f.latest = &p
	}
	f.mu.Unlock()

	select {
	case f.ready <- struct{}{}:
	default:
	}
}

// Notify is a controller OnNotice hook.
func (f *Feed) Notify(n controller.Notice) {
	select {
	case f.notices <- n:
	default:
	}
}

// Next blocks until a propagation is available and returns the latest one.
func (f *Feed) Next(ctx context.Context) (controller.Propagation, bool) {
	for {
		select {
		case <-ctx.Done():
			return controller.Propagation{}, false
		case <-f.ready:
		}

		f.mu.Lock()
		p := f.latest
		f.latest = nil
		f.mu.Unlock()
		if p != nil {
			return *p, true
		}
	}
}

// NextNotice blocks until a notice is available.
func (f *Feed) NextNotice(ctx context.Context) (controller.Notice, bool) {
	select {
	case <-ctx.Done():
		return controller.Notice{}, false
	case n := <-f.notices:
		return n, true
	}
}
