package service

import (
	"context"
	"sync"
)

// ChangeNotifier is a small in-process pub-sub used by containers to signal
// that a list has changed so listChanged notifications can reach clients.
type ChangeNotifier struct {
	mu          sync.RWMutex
	subscribers []chan struct{}
	closed      bool
}

// Notify signals every subscriber that the underlying set changed. Delivery
// is best-effort: a subscriber with a full buffer is skipped rather than
// blocked on.
func (cn *ChangeNotifier) Notify(ctx context.Context) error {
	cn.mu.RLock()
	defer cn.mu.RUnlock()
	if cn.closed {
		return nil
	}
	for _, ch := range cn.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

// Subscriber returns a channel receiving a signal per Notify call. The
// channel is buffered with capacity 1; after Close it is returned closed.
func (cn *ChangeNotifier) Subscriber() <-chan struct{} {
	cn.mu.Lock()
	defer cn.mu.Unlock()
	if cn.closed {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	ch := make(chan struct{}, 1)
	cn.subscribers = append(cn.subscribers, ch)
	return ch
}

// Close terminates all subscriber channels. Further Notify calls are no-ops.
func (cn *ChangeNotifier) Close() {
	cn.mu.Lock()
	if cn.closed {
		cn.mu.Unlock()
		return
	}
	cn.closed = true
	subs := cn.subscribers
	cn.subscribers = nil
	cn.mu.Unlock()
	for _, ch := range subs {
		close(ch)
	}
}

// ChangeSubscriber is implemented by containers that can report changes.
type ChangeSubscriber interface {
	Subscriber() <-chan struct{}
}
