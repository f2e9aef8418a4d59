package repo

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultCooldown is the minimum gap between background refreshes of one
// entity kind.
const DefaultCooldown = 10 * time.Second

// refreshGate owns the per-kind refresh state: the in-flight refresh (at
// most one at a time, concurrent callers join it) and the last-refresh-start
// timestamp that enforces the cooldown. One gate per repository instance,
// never shared across kinds.
//
// A refresh already in flight when a local mutation lands can still resolve
// afterwards and overwrite the cache with pre-mutation rows; the next
// refresh past the cooldown converges. There is deliberately no version
// guard on cache entries.
type refreshGate struct {
	mu       sync.Mutex
	group    singleflight.Group
	last     time.Time
	cooldown time.Duration
	now      func() time.Time
}

func newRefreshGate(cooldown time.Duration) *refreshGate {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &refreshGate{cooldown: cooldown, now: time.Now}
}

// Await runs fn and blocks until it settles, coalescing with any refresh
// already in flight. Starting the refresh stamps the cooldown window.
func (g *refreshGate) Await(fn func() error) error {
	g.mu.Lock()
	g.last = g.now()
	g.mu.Unlock()
	_, err, _ := g.group.Do("refresh", func() (any, error) {
		return nil, fn()
	})
	return err
}

// Kick starts fn as a detached background refresh if the cooldown has
// elapsed; otherwise it is a no-op. A kick that lands while a refresh is in
// flight joins it instead of issuing a duplicate fetch.
func (g *refreshGate) Kick(tasks *TaskRunner, name string, fn func() error) {
	g.mu.Lock()
	if g.now().Sub(g.last) < g.cooldown {
		g.mu.Unlock()
		return
	}
	g.last = g.now()
	g.mu.Unlock()

	tasks.Go(name, func() error {
		_, err, _ := g.group.Do("refresh", func() (any, error) {
			return nil, fn()
		})
		return err
	})
}
