package repo

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"trackany/internal/cache"
	"trackany/internal/model"
	"trackany/internal/notify"
	"trackany/internal/prefs"
	"trackany/internal/remote"
)

// Events is the repository for the events collection. Every read composes
// the position and color overlays on top of the cached snapshot, so a
// locally-set preference is visible before its backend push completes.
type Events struct {
	remote    remote.Store
	cache     *cache.Store
	notifier  *notify.Notifier
	users     UserSource
	tasks     *TaskRunner
	positions *prefs.Positions
	colors    *prefs.Colors
	gate      *refreshGate
	logger    *log.Logger
}

func NewEvents(opts Options) *Events {
	r := &Events{
		remote:    opts.Remote,
		cache:     opts.Cache,
		notifier:  opts.Notifier,
		users:     opts.Users,
		tasks:     opts.Tasks,
		positions: opts.Positions,
		colors:    opts.Colors,
		gate:      newRefreshGate(opts.Cooldown),
		logger:    opts.logger(),
	}
	if r.colors != nil {
		r.colors.SetPush(func(id uuid.UUID, color string) {
			c := color
			r.tasks.Go("event color sync", func() error {
				uid, ok := r.users.UserID()
				if !ok {
					return nil
				}
				_, err := r.remote.UpdateEvent(context.Background(), uid, id, model.EventPatch{Color: &c})
				return err
			})
		})
	}
	return r
}

// List returns the events collection, overlay-composed and sorted by
// position. A warm cache is returned immediately while a cooldown-gated
// refresh runs in the background; a cold cache awaits one coalesced fetch.
func (r *Events) List(ctx context.Context) ([]model.Event, error) {
	cached, ok := r.cache.Events()
	if !ok {
		if err := r.gate.Await(func() error { return r.Refresh(ctx) }); err != nil {
			return nil, err
		}
		cached, _ = r.cache.Events()
		return r.compose(cached), nil
	}
	r.gate.Kick(r.tasks, "events refresh", func() error { return r.Refresh(context.Background()) })
	return r.compose(cached), nil
}

// Refresh fetches the full collection for the current user and replaces the
// cached snapshot. No-op without a signed-in user. A failure leaves the
// prior snapshot intact.
func (r *Events) Refresh(ctx context.Context) error {
	uid, ok := r.users.UserID()
	if !ok {
		return nil
	}
	rows, err := r.remote.ListEvents(ctx, uid)
	if err != nil {
		return fmt.Errorf("refresh events: %w", err)
	}
	r.cache.SetEvents(rows)
	r.notifier.Emit()
	return nil
}

// GetByID resolves an event from the composed cached view, falling back to
// the backend on a miss.
func (r *Events) GetByID(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	if cached, ok := r.cache.Events(); ok {
		if ev, found := findByID(r.compose(cached), eventID, id); found {
			return &ev, nil
		}
	}
	uid, ok := r.users.UserID()
	if !ok {
		return nil, ErrNoSession
	}
	return r.remote.GetEvent(ctx, uid, id)
}

// GetByName resolves an event by its unique display name.
func (r *Events) GetByName(ctx context.Context, name string) (*model.Event, error) {
	if cached, ok := r.cache.Events(); ok {
		for _, ev := range r.compose(cached) {
			if ev.EventName == name {
				return &ev, nil
			}
		}
	}
	uid, ok := r.users.UserID()
	if !ok {
		return nil, ErrNoSession
	}
	return r.remote.GetEventByName(ctx, uid, name)
}

// Create validates and writes the event through the backend, then folds the
// stored row into a warm cache. A cold cache is left untouched; the next
// List fetches fresh. Position zero means auto-assign past the cached
// maximum; pass an explicit positive position to place the event yourself.
func (r *Events) Create(ctx context.Context, in model.Event) (*model.Event, error) {
	uid, ok := r.users.UserID()
	if !ok {
		return nil, ErrNoSession
	}
	in.UserID = uid

	if cached, warm := r.cache.Events(); warm {
		if in.Position == 0 {
			in.Position = nextPosition(r.compose(cached))
		}
		if in.Color == "" {
			in.Color = prefs.DefaultColors[len(cached)%len(prefs.DefaultColors)]
		}
	}
	if in.Color == "" {
		in.Color = prefs.DefaultColors[0]
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	created, err := r.remote.InsertEvent(ctx, in)
	if err != nil {
		return nil, err
	}
	folded := false
	r.cache.MutateEvents(func(cached []model.Event, warm bool) ([]model.Event, bool) {
		if !warm {
			return nil, false
		}
		folded = true
		return append(cached, *created), true
	})
	if folded {
		r.notifier.Emit()
	}
	return created, nil
}

// Update writes the patch through the backend, then replaces the cached row.
// A name change additionally backfills the denormalized event_name on every
// log referencing this event, best-effort in the background.
func (r *Events) Update(ctx context.Context, id uuid.UUID, patch model.EventPatch) (*model.Event, error) {
	uid, ok := r.users.UserID()
	if !ok {
		return nil, ErrNoSession
	}

	var previousName string
	if patch.EventName != nil {
		if cached, warm := r.cache.Events(); warm {
			if ev, found := findByID(cached, eventID, id); found {
				previousName = ev.EventName
			}
		}
		if previousName == "" {
			if current, err := r.remote.GetEvent(ctx, uid, id); err == nil {
				previousName = current.EventName
			} else {
				r.logger.Printf("update %s: previous name lookup failed, log backfill skipped: %v", id, err)
			}
		}
	}

	updated, err := r.remote.UpdateEvent(ctx, uid, id, patch)
	if err != nil {
		return nil, err
	}

	if patch.EventName != nil && previousName != "" && previousName != *patch.EventName {
		r.backfillLogNames(uid, id, *patch.EventName)
	}

	r.cache.MutateEvents(func(cached []model.Event, warm bool) ([]model.Event, bool) {
		if !warm {
			return nil, false
		}
		return replaceByID(cached, eventID, id, *updated), true
	})
	r.notifier.Emit()
	return updated, nil
}

// backfillLogNames pushes the new denormalized name to the backend's logs
// and patches the cached logs snapshot. Failures are logged, never
// propagated: the logs' denormalized name is allowed to lag.
func (r *Events) backfillLogNames(uid, eventID uuid.UUID, name string) {
	r.tasks.Go("log name backfill", func() error {
		if err := r.remote.RenameLogEvents(context.Background(), uid, eventID, name); err != nil {
			return err
		}
		changed := false
		r.cache.MutateLogs(func(logs []model.Log, warm bool) ([]model.Log, bool) {
			if !warm {
				return nil, false
			}
			for i := range logs {
				if logs[i].EventID == eventID {
					logs[i].EventName = name
					logs[i].UpdatedAt = time.Now()
					changed = true
				}
			}
			return logs, changed
		})
		if changed {
			r.notifier.Emit()
		}
		return nil
	})
}

// Delete removes the event from the backend and the cache. Logs and notes
// referencing it are deliberately left alone; display code tolerates
// missing parents.
func (r *Events) Delete(ctx context.Context, id uuid.UUID) error {
	uid, ok := r.users.UserID()
	if !ok {
		return ErrNoSession
	}
	if err := r.remote.DeleteEvent(ctx, uid, id); err != nil {
		return err
	}
	r.cache.MutateEvents(func(cached []model.Event, warm bool) ([]model.Event, bool) {
		if !warm {
			return nil, false
		}
		return removeByID(cached, eventID, id), true
	})
	r.notifier.Emit()
	return nil
}

// SwapPositions exchanges the composed positions of two events. The overlay
// write lands synchronously and the change signal fires immediately; the
// backend writes run detached and are not awaited.
func (r *Events) SwapPositions(idA, idB uuid.UUID) error {
	cached, ok := r.cache.Events()
	if !ok {
		return nil
	}
	composed := r.compose(cached)
	a, foundA := findByID(composed, eventID, idA)
	b, foundB := findByID(composed, eventID, idB)
	if !foundA || !foundB {
		r.logger.Printf("swap positions: unknown event (%s, %s)", idA, idB)
		return nil
	}

	posA, posB := a.Position, b.Position
	r.positions.Set(idA, posB)
	r.positions.Set(idB, posA)
	r.notifier.Emit()

	r.pushPosition(idA, posB)
	r.pushPosition(idB, posA)
	return nil
}

func (r *Events) pushPosition(id uuid.UUID, position int) {
	p := position
	r.tasks.Go("event position sync", func() error {
		uid, ok := r.users.UserID()
		if !ok {
			return nil
		}
		_, err := r.remote.UpdateEvent(context.Background(), uid, id, model.EventPatch{Position: &p})
		return err
	})
}

// MoveUp swaps ordered[index] with its predecessor; no-op at the top.
func (r *Events) MoveUp(ordered []model.Event, index int) error {
	if index <= 0 || index >= len(ordered) {
		return nil
	}
	return r.SwapPositions(ordered[index].ID, ordered[index-1].ID)
}

// MoveDown swaps ordered[index] with its successor; no-op at the bottom.
func (r *Events) MoveDown(ordered []model.Event, index int) error {
	if index < 0 || index >= len(ordered)-1 {
		return nil
	}
	return r.SwapPositions(ordered[index].ID, ordered[index+1].ID)
}

// SyncPositionsToDatabase pushes every position overlay entry to the
// backend. Entries that persist are folded into the cached rows and removed
// from the overlay; failures stay behind for the next sync. All entries are
// attempted; the first error is returned.
func (r *Events) SyncPositionsToDatabase(ctx context.Context) error {
	uid, ok := r.users.UserID()
	if !ok {
		return ErrNoSession
	}

	overlay := r.positions.All()
	if len(overlay) == 0 {
		return nil
	}

	var firstErr error
	var persisted []model.Event
	for key, pos := range overlay {
		id, err := uuid.Parse(key)
		if err != nil {
			continue
		}
		p := pos
		updated, err := r.remote.UpdateEvent(ctx, uid, id, model.EventPatch{Position: &p})
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		r.positions.Delete(id)
		persisted = append(persisted, *updated)
	}
	if len(persisted) > 0 {
		folded := false
		r.cache.MutateEvents(func(cached []model.Event, warm bool) ([]model.Event, bool) {
			if !warm {
				return nil, false
			}
			for _, u := range persisted {
				cached = replaceByID(cached, eventID, u.ID, u)
			}
			folded = true
			return cached, true
		})
		if folded {
			r.notifier.Emit()
		}
	}
	return firstErr
}

// compose applies the position and color overlays and re-sorts by the
// resulting position. Runs on every read.
func (r *Events) compose(events []model.Event) []model.Event {
	out := make([]model.Event, len(events))
	copy(out, events)

	if r.positions != nil {
		overlay := r.positions.All()
		for i := range out {
			if pos, ok := overlay[out[i].ID.String()]; ok {
				out[i].Position = pos
			}
		}
	}
	if r.colors != nil {
		overlay := r.colors.All()
		for i := range out {
			if col, ok := overlay[out[i].ID.String()]; ok {
				out[i].Color = col
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func eventID(e model.Event) uuid.UUID { return e.ID }

func nextPosition(events []model.Event) int {
	next := 0
	for _, e := range events {
		if e.Position >= next {
			next = e.Position + 1
		}
	}
	return next
}
