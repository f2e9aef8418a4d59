package repo

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"trackany/internal/cache"
	"trackany/internal/model"
	"trackany/internal/notify"
	"trackany/internal/remote"
)

// Logs is the repository for the logs collection.
type Logs struct {
	remote   remote.Store
	cache    *cache.Store
	notifier *notify.Notifier
	users    UserSource
	tasks    *TaskRunner
	gate     *refreshGate
	logger   *log.Logger
}

func NewLogs(opts Options) *Logs {
	return &Logs{
		remote:   opts.Remote,
		cache:    opts.Cache,
		notifier: opts.Notifier,
		users:    opts.Users,
		tasks:    opts.Tasks,
		gate:     newRefreshGate(opts.Cooldown),
		logger:   opts.logger(),
	}
}

// List returns the logs collection newest-first. Warm cache returns
// immediately with a cooldown-gated background refresh; cold cache awaits
// one coalesced fetch.
func (r *Logs) List(ctx context.Context) ([]model.Log, error) {
	cached, ok := r.cache.Logs()
	if !ok {
		if err := r.gate.Await(func() error { return r.Refresh(ctx) }); err != nil {
			return nil, err
		}
		cached, _ = r.cache.Logs()
		return cached, nil
	}
	r.gate.Kick(r.tasks, "logs refresh", func() error { return r.Refresh(context.Background()) })
	return cached, nil
}

// Refresh fetches the full collection and replaces the cached snapshot.
func (r *Logs) Refresh(ctx context.Context) error {
	uid, ok := r.users.UserID()
	if !ok {
		return nil
	}
	rows, err := r.remote.ListLogs(ctx, uid)
	if err != nil {
		return fmt.Errorf("refresh logs: %w", err)
	}
	r.cache.SetLogs(rows)
	r.notifier.Emit()
	return nil
}

// ListByEvent returns the cached logs for one event and fires a detached
// narrow backend query whose response is merged by id into the full
// collection. The narrow refresh is not coalesced with the full one.
func (r *Logs) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]model.Log, error) {
	return r.filtered(ctx, "logs by event refresh",
		func(l model.Log) bool { return l.EventID == eventID },
		func(uid uuid.UUID) ([]model.Log, error) {
			return r.remote.LogsByEvent(context.Background(), uid, eventID)
		})
}

// ListByDateRange returns the cached logs with created_at in [from, to].
func (r *Logs) ListByDateRange(ctx context.Context, from, to time.Time) ([]model.Log, error) {
	return r.filtered(ctx, "logs by date refresh",
		func(l model.Log) bool {
			return !l.CreatedAt.Before(from) && !l.CreatedAt.After(to)
		},
		func(uid uuid.UUID) ([]model.Log, error) {
			return r.remote.LogsByDateRange(context.Background(), uid, from, to)
		})
}

// ListByEventName filters on the denormalized event name.
func (r *Logs) ListByEventName(ctx context.Context, eventName string) ([]model.Log, error) {
	return r.filtered(ctx, "logs by name refresh",
		func(l model.Log) bool { return l.EventName == eventName },
		func(uid uuid.UUID) ([]model.Log, error) {
			return r.remote.LogsByEventName(context.Background(), uid, eventName)
		})
}

func (r *Logs) filtered(ctx context.Context, task string, pred func(model.Log) bool, query func(uuid.UUID) ([]model.Log, error)) ([]model.Log, error) {
	cached, ok := r.cache.Logs()
	if !ok {
		if err := r.gate.Await(func() error { return r.Refresh(ctx) }); err != nil {
			return nil, err
		}
		cached, _ = r.cache.Logs()
	}

	out := make([]model.Log, 0)
	for _, l := range cached {
		if pred(l) {
			out = append(out, l)
		}
	}

	r.tasks.Go(task, func() error {
		uid, ok := r.users.UserID()
		if !ok {
			return nil
		}
		incoming, err := query(uid)
		if err != nil {
			return err
		}
		r.mergeIntoCache(incoming)
		return nil
	})
	return out, nil
}

// mergeIntoCache folds a narrow query response into the full cached
// collection: incoming rows overwrite by id, new ids are appended, nothing
// is deleted. Skipped when the cache went cold in the meantime.
func (r *Logs) mergeIntoCache(incoming []model.Log) {
	merged := false
	r.cache.MutateLogs(func(current []model.Log, warm bool) ([]model.Log, bool) {
		if !warm {
			return nil, false
		}
		out := mergeByID(current, incoming, logID)
		sortCreatedAtDesc(out, func(l model.Log) int64 { return l.CreatedAt.UnixNano() })
		merged = true
		return out, true
	})
	if merged {
		r.notifier.Emit()
	}
}

// Create validates the value against the parent event's type when the
// events snapshot is warm, writes through the backend, then folds the
// stored row into a warm cache.
func (r *Logs) Create(ctx context.Context, in model.Log) (*model.Log, error) {
	uid, ok := r.users.UserID()
	if !ok {
		return nil, ErrNoSession
	}
	in.UserID = uid

	if events, ok := r.cache.Events(); ok {
		if ev, found := findByID(events, eventID, in.EventID); found {
			if err := ev.ValidateValue(in.Value); err != nil {
				return nil, err
			}
			if in.EventName == "" {
				in.EventName = ev.EventName
			}
		}
	}

	created, err := r.remote.InsertLog(ctx, in)
	if err != nil {
		return nil, err
	}
	folded := false
	r.cache.MutateLogs(func(cached []model.Log, warm bool) ([]model.Log, bool) {
		if !warm {
			return nil, false
		}
		merged := append(cached, *created)
		sortCreatedAtDesc(merged, func(l model.Log) int64 { return l.CreatedAt.UnixNano() })
		folded = true
		return merged, true
	})
	if folded {
		r.notifier.Emit()
	}
	return created, nil
}

// Update writes the patch through the backend, then replaces the cached row.
func (r *Logs) Update(ctx context.Context, id uuid.UUID, patch model.LogPatch) (*model.Log, error) {
	uid, ok := r.users.UserID()
	if !ok {
		return nil, ErrNoSession
	}
	updated, err := r.remote.UpdateLog(ctx, uid, id, patch)
	if err != nil {
		return nil, err
	}
	r.cache.MutateLogs(func(cached []model.Log, warm bool) ([]model.Log, bool) {
		if !warm {
			return nil, false
		}
		return replaceByID(cached, logID, id, *updated), true
	})
	r.notifier.Emit()
	return updated, nil
}

// Delete removes the log from the backend and the cache.
func (r *Logs) Delete(ctx context.Context, id uuid.UUID) error {
	uid, ok := r.users.UserID()
	if !ok {
		return ErrNoSession
	}
	if err := r.remote.DeleteLog(ctx, uid, id); err != nil {
		return err
	}
	r.cache.MutateLogs(func(cached []model.Log, warm bool) ([]model.Log, bool) {
		if !warm {
			return nil, false
		}
		return removeByID(cached, logID, id), true
	})
	r.notifier.Emit()
	return nil
}

func logID(l model.Log) uuid.UUID { return l.ID }
