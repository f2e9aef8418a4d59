// Package notify carries the process-wide "data updated" signal from cache
// writers to UI readers. There is a single event kind and no payload;
// listeners re-query the repositories on every signal.
package notify

import "sync"

// Notifier fans a change signal out to all current subscribers. It is an
// explicit dependency handed to repositories and controllers, never a
// package-level singleton.
type Notifier struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]func()
}

func New() *Notifier {
	return &Notifier{listeners: make(map[int]func())}
}

// Subscribe registers fn and returns its unsubscribe function.
func (n *Notifier) Subscribe(fn func()) (unsubscribe func()) {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.listeners[id] = fn
	n.mu.Unlock()
	return func() {
		n.mu.Lock()
		delete(n.listeners, id)
		n.mu.Unlock()
	}
}

// Emit synchronously notifies every listener subscribed at the time of the
// call, in arbitrary order. Each emit fully notifies before returning.
func (n *Notifier) Emit() {
	n.mu.Lock()
	fns := make([]func(), 0, len(n.listeners))
	for _, fn := range n.listeners {
		fns = append(fns, fn)
	}
	n.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
