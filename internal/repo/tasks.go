package repo

import (
	"log"
	"os"
	"sync"
)

// TaskRunner runs detached background work: cooldown refreshes, overlay
// pushes to the backend, the log-name backfill. Failures go to OnError,
// which defaults to logging; tests replace it and use Wait to assert on
// detached work deterministically.
type TaskRunner struct {
	wg      sync.WaitGroup
	logger  *log.Logger
	OnError func(name string, err error)
}

// NewTaskRunner creates a runner. If logger is nil, a default logger writing
// to stderr is used.
func NewTaskRunner(logger *log.Logger) *TaskRunner {
	if logger == nil {
		logger = log.New(os.Stderr, "[repo] ", log.LstdFlags)
	}
	t := &TaskRunner{logger: logger}
	t.OnError = func(name string, err error) {
		t.logger.Printf("background %s failed: %v", name, err)
	}
	return t
}

// Go submits fn as a detached task. The caller never observes fn's error.
func (t *TaskRunner) Go(name string, fn func() error) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		if err := fn(); err != nil {
			t.OnError(name, err)
		}
	}()
}

// Wait blocks until every task submitted so far has settled.
func (t *TaskRunner) Wait() {
	t.wg.Wait()
}
