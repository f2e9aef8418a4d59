package cache

import (
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackany/internal/model"
)

func open(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path, log.Default())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestColdCacheIsNotEmptyCache(t *testing.T) {
	s := open(t, filepath.Join(t.TempDir(), "cache.sqlite"))

	_, ok := s.Events()
	assert.False(t, ok, "never-written slot reads cold")

	s.SetEvents(nil)
	events, ok := s.Events()
	require.True(t, ok, "a persisted empty snapshot is warm")
	assert.Empty(t, events)
}

func TestSnapshotSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.sqlite")
	ev := model.Event{
		ID:        uuid.New(),
		CreatedAt: time.Now().Truncate(time.Second),
		EventName: "Running",
		EventType: model.EventTypeCount,
		Color:     "#3B82F6",
	}

	s := open(t, path)
	s.SetEvents([]model.Event{ev})
	s.SetLastSync(time.UnixMilli(1700000000000))
	require.NoError(t, s.Close())

	s = open(t, path)
	events, ok := s.Events()
	require.True(t, ok)
	require.Len(t, events, 1)
	assert.Equal(t, ev.ID, events[0].ID)
	assert.Equal(t, "Running", events[0].EventName)

	last, ok := s.LastSync()
	require.True(t, ok)
	assert.Equal(t, int64(1700000000000), last.UnixMilli())
}

func TestWriteSlotOverwrites(t *testing.T) {
	s := open(t, filepath.Join(t.TempDir(), "cache.sqlite"))
	s.WriteSlot("k", 1)
	s.WriteSlot("k", 2)

	var v int
	require.True(t, s.ReadSlot("k", &v))
	assert.Equal(t, 2, v)

	s.RemoveSlot("k")
	assert.False(t, s.ReadSlot("k", &v))
}

func TestMutateEventsReadModifyWrite(t *testing.T) {
	s := open(t, filepath.Join(t.TempDir(), "cache.sqlite"))

	s.MutateEvents(func(events []model.Event, warm bool) ([]model.Event, bool) {
		assert.False(t, warm)
		return nil, false
	})
	_, ok := s.Events()
	assert.False(t, ok, "declining the write leaves the slot cold")

	s.SetEvents([]model.Event{{ID: uuid.New()}})
	s.MutateEvents(func(events []model.Event, warm bool) ([]model.Event, bool) {
		require.True(t, warm)
		return append(events, model.Event{ID: uuid.New()}), true
	})
	events, ok := s.Events()
	require.True(t, ok)
	assert.Len(t, events, 2)
}

func TestCorruptSlotReadsCold(t *testing.T) {
	s := open(t, filepath.Join(t.TempDir(), "cache.sqlite"))
	_, err := s.db.Exec(`INSERT INTO slots(k, v) VALUES('events', 'not json')`)
	require.NoError(t, err)

	_, ok := s.Events()
	assert.False(t, ok, "undecodable snapshot is treated as cold, not fatal")
}

func TestClearAllWipesEverySlot(t *testing.T) {
	s := open(t, filepath.Join(t.TempDir(), "cache.sqlite"))
	s.SetEvents([]model.Event{{ID: uuid.New()}})
	s.SetLogs([]model.Log{{ID: uuid.New()}})
	s.SetNotes([]model.Note{{ID: uuid.New()}})
	s.WriteSlot("prefs:positions", map[string]int{uuid.NewString(): 3})

	s.ClearAll()

	_, ok := s.Events()
	assert.False(t, ok)
	_, ok = s.Logs()
	assert.False(t, ok)
	_, ok = s.Notes()
	assert.False(t, ok)
	var positions map[string]int
	assert.False(t, s.ReadSlot("prefs:positions", &positions), "preference overlays go too")
}
