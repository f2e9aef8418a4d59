// Package session owns the current user identity. Signing in triggers a
// blocking preload of all repositories; signing out (or switching to a
// different account on the same device) clears the persistent local cache.
package session

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"trackany/internal/auth"
	"trackany/internal/cache"
)

// Session resolves the current user from backend-issued JWTs and fans a
// session-changed signal out to subscribers.
type Session struct {
	mu        sync.Mutex
	user      *uuid.UUID
	nextID    int
	listeners map[int]func()
	preload   []func(context.Context) error

	cache  *cache.Store
	jwt    *auth.JWT
	logger *log.Logger
}

func New(store *cache.Store, jwtSvc *auth.JWT, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.New(os.Stderr, "[session] ", log.LstdFlags)
	}
	return &Session{
		listeners: make(map[int]func()),
		cache:     store,
		jwt:       jwtSvc,
		logger:    logger,
	}
}

// SetPreload registers the repository refreshes run on every sign-in.
func (s *Session) SetPreload(fns ...func(context.Context) error) {
	s.mu.Lock()
	s.preload = fns
	s.mu.Unlock()
}

// UserID returns the signed-in user, if any.
func (s *Session) UserID() (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return uuid.Nil, false
	}
	return *s.user, true
}

// OnChange registers a session-changed listener and returns its
// unsubscribe function.
func (s *Session) OnChange(fn func()) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// SignIn verifies the backend-issued token, clears the cache if the identity
// differs from the previously held one, and blocks on a parallel preload of
// every registered repository. Preload failures are logged, not returned:
// preloading is best-effort and the first List falls back to a cold fetch.
func (s *Session) SignIn(ctx context.Context, token string) error {
	uid, err := s.jwt.Verify(token)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.user != nil && *s.user != uid {
		s.cache.ClearAll()
	}
	s.user = &uid
	preload := s.preload
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, fn := range preload {
		fn := fn
		g.Go(func() error { return fn(gctx) })
	}
	if err := g.Wait(); err != nil {
		s.logger.Printf("preload failed: %v", err)
	} else if len(preload) > 0 {
		s.cache.SetLastSync(time.Now())
	}

	s.emit()
	return nil
}

// SignOut drops the identity and wipes the persistent local cache.
func (s *Session) SignOut() {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
	s.cache.ClearAll()
	s.emit()
}

func (s *Session) emit() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
