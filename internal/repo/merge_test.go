package repo

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackany/internal/model"
)

func mkLog(age time.Duration) model.Log {
	return model.Log{ID: uuid.New(), CreatedAt: time.Now().Add(-age)}
}

func TestMergeByIDUnionAndOverwrite(t *testing.T) {
	a, b := mkLog(time.Hour), mkLog(time.Minute)
	edited := a
	edited.Value = 7
	incoming := []model.Log{edited, mkLog(time.Second)}

	merged := mergeByID([]model.Log{a, b}, incoming, logID)
	require.Len(t, merged, 3)
	assert.Equal(t, 7.0, merged[0].Value, "incoming overwrites the existing row in place")
	assert.Equal(t, b.ID, merged[1].ID)
}

func TestMergeByIDIdempotent(t *testing.T) {
	a, b := mkLog(time.Hour), mkLog(time.Minute)
	incoming := []model.Log{a, b}

	once := mergeByID([]model.Log{a, b}, incoming, logID)
	twice := mergeByID(once, incoming, logID)
	require.Len(t, twice, 2)
	for i := range once {
		assert.Equal(t, once[i].ID, twice[i].ID)
	}
}

func TestReplaceAndRemoveByID(t *testing.T) {
	a, b, c := mkLog(3*time.Hour), mkLog(2*time.Hour), mkLog(time.Hour)
	items := []model.Log{a, b, c}

	edited := b
	edited.Value = 2
	items = replaceByID(items, logID, b.ID, edited)
	assert.Equal(t, 2.0, items[1].Value)

	items = removeByID(items, logID, a.ID)
	require.Len(t, items, 2)
	assert.Equal(t, b.ID, items[0].ID)

	// removing an absent id is a no-op
	items = removeByID(items, logID, uuid.New())
	assert.Len(t, items, 2)
}

func TestSortCreatedAtDescIsStable(t *testing.T) {
	now := time.Now()
	a := model.Log{ID: uuid.New(), CreatedAt: now}
	b := model.Log{ID: uuid.New(), CreatedAt: now}
	older := model.Log{ID: uuid.New(), CreatedAt: now.Add(-time.Hour)}

	items := []model.Log{a, b, older}
	sortCreatedAtDesc(items, func(l model.Log) int64 { return l.CreatedAt.UnixNano() })
	assert.Equal(t, a.ID, items[0].ID)
	assert.Equal(t, b.ID, items[1].ID)
	assert.Equal(t, older.ID, items[2].ID)
}
