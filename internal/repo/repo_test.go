package repo

import (
	"context"
	"log"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"trackany/internal/cache"
	"trackany/internal/model"
	"trackany/internal/notify"
	"trackany/internal/prefs"
	"trackany/internal/remote"
)

type fixedUser struct {
	id uuid.UUID
	ok bool
}

func (u fixedUser) UserID() (uuid.UUID, bool) { return u.id, u.ok }

// fakeRemote is an in-memory Store with call counters and optional gates so
// tests can hold a fetch open or inject failures.
type fakeRemote struct {
	mu     sync.Mutex
	events []model.Event
	logs   []model.Log
	notes  []model.Note

	listEventsCalls  int
	listLogsCalls    int
	listNotesCalls   int
	logsByEventCalls int
	updateEventCalls int
	renameCalls      int

	failAll     error
	failGet     error         // GetEvent only
	blockList   chan struct{} // held open by ListEvents until closed
	blockUpdate chan struct{} // held open by UpdateEvent until closed
	blockInsert chan struct{} // held open by the next InsertEvent only, one-shot
}

var _ remote.Store = (*fakeRemote)(nil)

func (f *fakeRemote) ListEvents(ctx context.Context, userID uuid.UUID) ([]model.Event, error) {
	f.mu.Lock()
	f.listEventsCalls++
	block := f.blockList
	err := f.failAll
	out := append([]model.Event(nil), f.events...)
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (f *fakeRemote) GetEvent(ctx context.Context, userID, id uuid.UUID) (*model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		return nil, f.failGet
	}
	for _, e := range f.events {
		if e.ID == id {
			ev := e
			return &ev, nil
		}
	}
	return nil, remote.ErrNotFound
}

func (f *fakeRemote) GetEventByName(ctx context.Context, userID uuid.UUID, name string) (*model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e.EventName == name {
			ev := e
			return &ev, nil
		}
	}
	return nil, remote.ErrNotFound
}

func (f *fakeRemote) InsertEvent(ctx context.Context, ev model.Event) (*model.Event, error) {
	f.mu.Lock()
	block := f.blockInsert
	f.blockInsert = nil
	err := f.failAll
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	ev.ID = uuid.New()
	ev.CreatedAt = time.Now()
	f.events = append(f.events, ev)
	out := ev
	return &out, nil
}

func (f *fakeRemote) UpdateEvent(ctx context.Context, userID, id uuid.UUID, patch model.EventPatch) (*model.Event, error) {
	f.mu.Lock()
	f.updateEventCalls++
	block := f.blockUpdate
	err := f.failAll
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.events {
		if f.events[i].ID == id {
			if patch.EventName != nil {
				f.events[i].EventName = *patch.EventName
			}
			if patch.Position != nil {
				f.events[i].Position = *patch.Position
			}
			if patch.Color != nil {
				f.events[i].Color = *patch.Color
			}
			if patch.ScaleLabel != nil {
				f.events[i].ScaleLabel = patch.ScaleLabel
			}
			if patch.ScaleMax != nil {
				f.events[i].ScaleMax = patch.ScaleMax
			}
			out := f.events[i]
			return &out, nil
		}
	}
	return nil, remote.ErrNotFound
}

func (f *fakeRemote) DeleteEvent(ctx context.Context, userID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return f.failAll
	}
	for i := range f.events {
		if f.events[i].ID == id {
			f.events = append(f.events[:i], f.events[i+1:]...)
			return nil
		}
	}
	return remote.ErrNotFound
}

func (f *fakeRemote) ListLogs(ctx context.Context, userID uuid.UUID) ([]model.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listLogsCalls++
	if f.failAll != nil {
		return nil, f.failAll
	}
	out := append([]model.Log(nil), f.logs...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeRemote) LogsByEvent(ctx context.Context, userID, eventID uuid.UUID) ([]model.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logsByEventCalls++
	if f.failAll != nil {
		return nil, f.failAll
	}
	var out []model.Log
	for _, l := range f.logs {
		if l.EventID == eventID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeRemote) LogsByDateRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]model.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Log
	for _, l := range f.logs {
		if !l.CreatedAt.Before(from) && !l.CreatedAt.After(to) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeRemote) LogsByEventName(ctx context.Context, userID uuid.UUID, eventName string) ([]model.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Log
	for _, l := range f.logs {
		if l.EventName == eventName {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeRemote) InsertLog(ctx context.Context, l model.Log) (*model.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	l.ID = uuid.New()
	l.CreatedAt = time.Now()
	l.UpdatedAt = l.CreatedAt
	f.logs = append(f.logs, l)
	out := l
	return &out, nil
}

func (f *fakeRemote) UpdateLog(ctx context.Context, userID, id uuid.UUID, patch model.LogPatch) (*model.Log, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.logs {
		if f.logs[i].ID == id {
			if patch.Value != nil {
				f.logs[i].Value = *patch.Value
			}
			if patch.EventID != nil {
				f.logs[i].EventID = *patch.EventID
			}
			if patch.EventName != nil {
				f.logs[i].EventName = *patch.EventName
			}
			if patch.LogDate != nil {
				f.logs[i].LogDate = patch.LogDate
			}
			f.logs[i].UpdatedAt = time.Now()
			out := f.logs[i]
			return &out, nil
		}
	}
	return nil, remote.ErrNotFound
}

func (f *fakeRemote) DeleteLog(ctx context.Context, userID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.logs {
		if f.logs[i].ID == id {
			f.logs = append(f.logs[:i], f.logs[i+1:]...)
			return nil
		}
	}
	return remote.ErrNotFound
}

func (f *fakeRemote) RenameLogEvents(ctx context.Context, userID, eventID uuid.UUID, eventName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renameCalls++
	if f.failAll != nil {
		return f.failAll
	}
	for i := range f.logs {
		if f.logs[i].EventID == eventID {
			f.logs[i].EventName = eventName
		}
	}
	return nil
}

func (f *fakeRemote) ListNotes(ctx context.Context, userID uuid.UUID) ([]model.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listNotesCalls++
	if f.failAll != nil {
		return nil, f.failAll
	}
	out := append([]model.Note(nil), f.notes...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeRemote) NotesByEvent(ctx context.Context, userID, eventID uuid.UUID) ([]model.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Note
	for _, n := range f.notes {
		if n.EventID == eventID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeRemote) InsertNote(ctx context.Context, n model.Note) (*model.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	n.UpdatedAt = n.CreatedAt
	f.notes = append(f.notes, n)
	out := n
	return &out, nil
}

func (f *fakeRemote) UpdateNote(ctx context.Context, userID, id uuid.UUID, patch model.NotePatch) (*model.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.notes {
		if f.notes[i].ID == id {
			if patch.Title != nil {
				f.notes[i].Title = *patch.Title
			}
			if patch.Description != nil {
				f.notes[i].Description = patch.Description
			}
			if patch.EventID != nil {
				f.notes[i].EventID = *patch.EventID
			}
			if patch.StartDate != nil {
				f.notes[i].StartDate = *patch.StartDate
			}
			f.notes[i].UpdatedAt = time.Now()
			out := f.notes[i]
			return &out, nil
		}
	}
	return nil, remote.ErrNotFound
}

func (f *fakeRemote) DeleteNote(ctx context.Context, userID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.notes {
		if f.notes[i].ID == id {
			f.notes = append(f.notes[:i], f.notes[i+1:]...)
			return nil
		}
	}
	return remote.ErrNotFound
}

// fixture wires one of everything against a temp-file cache.
type fixture struct {
	remote    *fakeRemote
	cache     *cache.Store
	notifier  *notify.Notifier
	positions *prefs.Positions
	colors    *prefs.Colors
	tasks     *TaskRunner
	user      uuid.UUID
	opts      Options
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := cache.Open(filepath.Join(t.TempDir(), "cache.sqlite"), log.Default())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	f := &fixture{
		remote:    &fakeRemote{},
		cache:     store,
		notifier:  notify.New(),
		positions: prefs.NewPositions(store),
		colors:    prefs.NewColors(store),
		tasks:     NewTaskRunner(log.Default()),
		user:      uuid.New(),
	}
	f.opts = Options{
		Remote:    f.remote,
		Cache:     store,
		Notifier:  f.notifier,
		Users:     fixedUser{id: f.user, ok: true},
		Tasks:     f.tasks,
		Positions: f.positions,
		Colors:    f.colors,
		Cooldown:  time.Hour, // background refreshes off unless a test opts in
	}
	return f
}

// warm stamps the gate so a warm-cache read stays local.
func warm(g *refreshGate) {
	g.mu.Lock()
	g.last = g.now()
	g.mu.Unlock()
}

// expire rewinds the gate past the cooldown.
func expire(g *refreshGate) {
	g.mu.Lock()
	g.last = time.Time{}
	g.mu.Unlock()
}

func (f *fixture) seedEvent(name string, position int, color string) model.Event {
	ev := model.Event{
		ID:        uuid.New(),
		CreatedAt: time.Now().Add(-time.Duration(position) * time.Minute),
		EventName: name,
		EventType: model.EventTypeCount,
		Position:  position,
		Color:     color,
		UserID:    f.user,
	}
	f.remote.events = append(f.remote.events, ev)
	return ev
}

func (f *fixture) seedLog(ev model.Event, value float64, age time.Duration) model.Log {
	l := model.Log{
		ID:        uuid.New(),
		CreatedAt: time.Now().Add(-age),
		UpdatedAt: time.Now().Add(-age),
		EventID:   ev.ID,
		EventName: ev.EventName,
		Value:     value,
		UserID:    f.user,
	}
	f.remote.logs = append(f.remote.logs, l)
	return l
}
