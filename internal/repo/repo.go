// Package repo implements the stale-while-revalidate repositories between
// the UI and the remote backend for the three entity collections. Reads are
// served from the persistent local cache with a coalesced, cooldown-gated
// background refresh; writes go through the backend first, then update the
// cache and signal every subscriber.
package repo

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"trackany/internal/cache"
	"trackany/internal/notify"
	"trackany/internal/prefs"
	"trackany/internal/remote"
)

var (
	// ErrNoSession is returned by write operations with no signed-in user.
	ErrNoSession = errors.New("no authenticated user")
	// ErrNotFound mirrors the backend's not-found result.
	ErrNotFound = remote.ErrNotFound
)

// UserSource resolves the current authenticated user, if any.
type UserSource interface {
	UserID() (uuid.UUID, bool)
}

// Options wires one repository. Remote, Cache, Notifier, Users and Tasks are
// required; Positions and Colors only matter for the events repository.
type Options struct {
	Remote   remote.Store
	Cache    *cache.Store
	Notifier *notify.Notifier
	Users    UserSource
	Tasks    *TaskRunner

	Positions *prefs.Positions
	Colors    *prefs.Colors

	// Cooldown gates background refreshes; zero means DefaultCooldown.
	Cooldown time.Duration
	Logger   *log.Logger
}

func (o Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.New(os.Stderr, "[repo] ", log.LstdFlags)
}
