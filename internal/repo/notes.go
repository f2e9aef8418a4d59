package repo

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"trackany/internal/cache"
	"trackany/internal/model"
	"trackany/internal/notify"
	"trackany/internal/remote"
)

// Notes is the repository for the notes collection.
type Notes struct {
	remote   remote.Store
	cache    *cache.Store
	notifier *notify.Notifier
	users    UserSource
	tasks    *TaskRunner
	gate     *refreshGate
	logger   *log.Logger
}

func NewNotes(opts Options) *Notes {
	return &Notes{
		remote:   opts.Remote,
		cache:    opts.Cache,
		notifier: opts.Notifier,
		users:    opts.Users,
		tasks:    opts.Tasks,
		gate:     newRefreshGate(opts.Cooldown),
		logger:   opts.logger(),
	}
}

// List returns the notes collection newest-first, stale-while-revalidate.
func (r *Notes) List(ctx context.Context) ([]model.Note, error) {
	cached, ok := r.cache.Notes()
	if !ok {
		if err := r.gate.Await(func() error { return r.Refresh(ctx) }); err != nil {
			return nil, err
		}
		cached, _ = r.cache.Notes()
		return cached, nil
	}
	r.gate.Kick(r.tasks, "notes refresh", func() error { return r.Refresh(context.Background()) })
	return cached, nil
}

// Refresh fetches the full collection and replaces the cached snapshot.
func (r *Notes) Refresh(ctx context.Context) error {
	uid, ok := r.users.UserID()
	if !ok {
		return nil
	}
	rows, err := r.remote.ListNotes(ctx, uid)
	if err != nil {
		return fmt.Errorf("refresh notes: %w", err)
	}
	r.cache.SetNotes(rows)
	r.notifier.Emit()
	return nil
}

// ListByEvent returns the cached notes for one event and fires a detached
// narrow query merged by id into the full collection.
func (r *Notes) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]model.Note, error) {
	cached, ok := r.cache.Notes()
	if !ok {
		if err := r.gate.Await(func() error { return r.Refresh(ctx) }); err != nil {
			return nil, err
		}
		cached, _ = r.cache.Notes()
	}

	out := make([]model.Note, 0)
	for _, n := range cached {
		if n.EventID == eventID {
			out = append(out, n)
		}
	}

	r.tasks.Go("notes by event refresh", func() error {
		uid, ok := r.users.UserID()
		if !ok {
			return nil
		}
		incoming, err := r.remote.NotesByEvent(context.Background(), uid, eventID)
		if err != nil {
			return err
		}
		merged := false
		r.cache.MutateNotes(func(current []model.Note, warm bool) ([]model.Note, bool) {
			if !warm {
				return nil, false
			}
			out := mergeByID(current, incoming, noteID)
			sortCreatedAtDesc(out, func(n model.Note) int64 { return n.CreatedAt.UnixNano() })
			merged = true
			return out, true
		})
		if merged {
			r.notifier.Emit()
		}
		return nil
	})
	return out, nil
}

// Create writes through the backend, then folds the stored row into a warm
// cache.
func (r *Notes) Create(ctx context.Context, in model.Note) (*model.Note, error) {
	uid, ok := r.users.UserID()
	if !ok {
		return nil, ErrNoSession
	}
	in.UserID = uid

	created, err := r.remote.InsertNote(ctx, in)
	if err != nil {
		return nil, err
	}
	folded := false
	r.cache.MutateNotes(func(cached []model.Note, warm bool) ([]model.Note, bool) {
		if !warm {
			return nil, false
		}
		merged := append(cached, *created)
		sortCreatedAtDesc(merged, func(n model.Note) int64 { return n.CreatedAt.UnixNano() })
		folded = true
		return merged, true
	})
	if folded {
		r.notifier.Emit()
	}
	return created, nil
}

// Update writes the patch through the backend, then replaces the cached row.
func (r *Notes) Update(ctx context.Context, id uuid.UUID, patch model.NotePatch) (*model.Note, error) {
	uid, ok := r.users.UserID()
	if !ok {
		return nil, ErrNoSession
	}
	updated, err := r.remote.UpdateNote(ctx, uid, id, patch)
	if err != nil {
		return nil, err
	}
	r.cache.MutateNotes(func(cached []model.Note, warm bool) ([]model.Note, bool) {
		if !warm {
			return nil, false
		}
		return replaceByID(cached, noteID, id, *updated), true
	})
	r.notifier.Emit()
	return updated, nil
}

// Delete removes the note from the backend and the cache.
func (r *Notes) Delete(ctx context.Context, id uuid.UUID) error {
	uid, ok := r.users.UserID()
	if !ok {
		return ErrNoSession
	}
	if err := r.remote.DeleteNote(ctx, uid, id); err != nil {
		return err
	}
	r.cache.MutateNotes(func(cached []model.Note, warm bool) ([]model.Note, bool) {
		if !warm {
			return nil, false
		}
		return removeByID(cached, noteID, id), true
	})
	r.notifier.Emit()
	return nil
}

func noteID(n model.Note) uuid.UUID { return n.ID }
