// Package notifier broadcasts change pings to any number of listeners.
package notifier

import "sync"

// Notifier pings listeners when state changes. A ping carries no data;
// listeners re-read the state they care about.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan struct{}]struct{}
	closed    bool
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[chan struct{}]struct{}),
	}
}

// Subscribe returns a channel that receives a ping after each change.
// The channel is closed by Unsubscribe or Close.
func (n *Notifier) Subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		close(ch)
		return ch
	}
	n.listeners[ch] = struct{}{}
	return ch
}

// Unsubscribe removes and closes a listener. It is safe to call after Close.
func (n *Notifier) Unsubscribe(ch chan struct{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.listeners[ch]; !ok {
		return
	}
	delete(n.listeners, ch)
	close(ch)
}

// Broadcast pings every listener without blocking. A listener with a
// pending ping is skipped; it will re-read the latest state anyway.
func (n *Notifier) Broadcast() {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Close closes every listener and makes later subscriptions closed.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	for ch := range n.listeners {
		close(ch)
	}
	n.listeners = map[chan struct{}]struct{}{}
}

// Len returns the number of listeners.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}
