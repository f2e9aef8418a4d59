// Package remote is the authenticated backend query interface the
// repositories write through. Every operation is scoped to one user; the
// backend enforces row isolation server-side as well.
package remote

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"trackany/internal/model"
)

var ErrNotFound = errors.New("not found")

// Store is the per-table CRUD and filter surface of the hosted backend.
// Insert operations return the stored row: id and timestamp assignment is
// authoritative server-side.
type Store interface {
	// Events, ordered by position ascending.
	ListEvents(ctx context.Context, userID uuid.UUID) ([]model.Event, error)
	GetEvent(ctx context.Context, userID, id uuid.UUID) (*model.Event, error)
	GetEventByName(ctx context.Context, userID uuid.UUID, name string) (*model.Event, error)
	InsertEvent(ctx context.Context, ev model.Event) (*model.Event, error)
	UpdateEvent(ctx context.Context, userID, id uuid.UUID, patch model.EventPatch) (*model.Event, error)
	DeleteEvent(ctx context.Context, userID, id uuid.UUID) error

	// Logs, ordered by created_at descending.
	ListLogs(ctx context.Context, userID uuid.UUID) ([]model.Log, error)
	LogsByEvent(ctx context.Context, userID, eventID uuid.UUID) ([]model.Log, error)
	LogsByDateRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]model.Log, error)
	LogsByEventName(ctx context.Context, userID uuid.UUID, eventName string) ([]model.Log, error)
	InsertLog(ctx context.Context, l model.Log) (*model.Log, error)
	UpdateLog(ctx context.Context, userID, id uuid.UUID, patch model.LogPatch) (*model.Log, error)
	DeleteLog(ctx context.Context, userID, id uuid.UUID) error
	// RenameLogEvents backfills the denormalized event_name on every log
	// referencing eventID.
	RenameLogEvents(ctx context.Context, userID, eventID uuid.UUID, eventName string) error

	// Notes, ordered by created_at descending.
	ListNotes(ctx context.Context, userID uuid.UUID) ([]model.Note, error)
	NotesByEvent(ctx context.Context, userID, eventID uuid.UUID) ([]model.Note, error)
	InsertNote(ctx context.Context, n model.Note) (*model.Note, error)
	UpdateNote(ctx context.Context, userID, id uuid.UUID, patch model.NotePatch) (*model.Note, error)
	DeleteNote(ctx context.Context, userID, id uuid.UUID) error
}
