package repo

import (
	"sort"

	"github.com/google/uuid"
)

// mergeByID reconciles a filtered backend response into the full cached
// collection: union of ids, incoming rows overwrite existing rows with the
// same id. Deliberately never deletion-aware — rows hard-deleted elsewhere
// survive until a full refresh or an explicit local delete.
func mergeByID[T any](current, incoming []T, id func(T) uuid.UUID) []T {
	merged := make([]T, len(current), len(current)+len(incoming))
	copy(merged, current)
	index := make(map[uuid.UUID]int, len(current))
	for i, it := range current {
		index[id(it)] = i
	}
	for _, it := range incoming {
		if i, ok := index[id(it)]; ok {
			merged[i] = it
		} else {
			index[id(it)] = len(merged)
			merged = append(merged, it)
		}
	}
	return merged
}

// replaceByID swaps the item with matching id for repl, in place.
func replaceByID[T any](items []T, id func(T) uuid.UUID, target uuid.UUID, repl T) []T {
	for i, it := range items {
		if id(it) == target {
			items[i] = repl
			return items
		}
	}
	return items
}

// removeByID drops the item with matching id, preserving order.
func removeByID[T any](items []T, id func(T) uuid.UUID, target uuid.UUID) []T {
	out := items[:0]
	for _, it := range items {
		if id(it) != target {
			out = append(out, it)
		}
	}
	return out
}

func findByID[T any](items []T, id func(T) uuid.UUID, target uuid.UUID) (T, bool) {
	for _, it := range items {
		if id(it) == target {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// sortCreatedAtDesc orders a collection newest-first, the canonical order
// for logs and notes.
func sortCreatedAtDesc[T any](items []T, createdAt func(T) int64) {
	sort.SliceStable(items, func(i, j int) bool {
		return createdAt(items[i]) > createdAt(items[j])
	})
}
