package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trackany/internal/model"
)

// DB implements Store against the hosted Postgres.
type DB struct {
	gdb *gorm.DB
}

func Connect(dsn string) (*DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return &DB{gdb: gdb}, nil
}

// Gorm exposes the underlying handle for collaborators that query tables
// outside this store's surface (the companion's auth handlers).
func (d *DB) Gorm() *gorm.DB { return d.gdb }

func (d *DB) AutoMigrateAndIndexes() error {
	if err := d.gdb.AutoMigrate(
		&model.User{},
		&model.Event{},
		&model.Log{},
		&model.Note{},
	); err != nil {
		return err
	}

	stmts := []string{
		`create index if not exists idx_events_user_position on events(user_id, position);`,
		`create index if not exists idx_logs_user_created on logs(user_id, created_at desc);`,
		`create index if not exists idx_logs_user_event on logs(user_id, event_id);`,
		`create index if not exists idx_logs_user_event_name on logs(user_id, event_name);`,
		`create index if not exists idx_notes_user_created on notes(user_id, created_at desc);`,
		`create index if not exists idx_notes_user_event on notes(user_id, event_id);`,
	}
	for _, s := range stmts {
		if err := d.gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}
	return nil
}

// Events

func (d *DB) ListEvents(ctx context.Context, userID uuid.UUID) ([]model.Event, error) {
	var rows []model.Event
	err := d.gdb.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("position asc, created_at asc").
		Find(&rows).Error
	return rows, err
}

func (d *DB) GetEvent(ctx context.Context, userID, id uuid.UUID) (*model.Event, error) {
	var row model.Event
	err := d.gdb.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) GetEventByName(ctx context.Context, userID uuid.UUID, name string) (*model.Event, error) {
	var row model.Event
	err := d.gdb.WithContext(ctx).
		Where("event_name = ? AND user_id = ?", name, userID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) InsertEvent(ctx context.Context, ev model.Event) (*model.Event, error) {
	if err := d.gdb.WithContext(ctx).Clauses(clause.Returning{}).Create(&ev).Error; err != nil {
		return nil, err
	}
	return &ev, nil
}

func (d *DB) UpdateEvent(ctx context.Context, userID, id uuid.UUID, patch model.EventPatch) (*model.Event, error) {
	updates := map[string]any{}
	if patch.EventName != nil {
		updates["event_name"] = *patch.EventName
	}
	if patch.EventType != nil {
		updates["event_type"] = *patch.EventType
	}
	if patch.ScaleLabel != nil {
		updates["scale_label"] = *patch.ScaleLabel
	}
	if patch.ScaleMax != nil {
		updates["scale_max"] = *patch.ScaleMax
	}
	if patch.Position != nil {
		updates["position"] = *patch.Position
	}
	if patch.Color != nil {
		updates["color"] = *patch.Color
	}
	if len(updates) > 0 {
		res := d.gdb.WithContext(ctx).Model(&model.Event{}).
			Where("id = ? AND user_id = ?", id, userID).
			Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return d.GetEvent(ctx, userID, id)
}

func (d *DB) DeleteEvent(ctx context.Context, userID, id uuid.UUID) error {
	res := d.gdb.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.Event{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Logs

func (d *DB) ListLogs(ctx context.Context, userID uuid.UUID) ([]model.Log, error) {
	var rows []model.Log
	err := d.gdb.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&rows).Error
	return rows, err
}

func (d *DB) LogsByEvent(ctx context.Context, userID, eventID uuid.UUID) ([]model.Log, error) {
	var rows []model.Log
	err := d.gdb.WithContext(ctx).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		Order("created_at desc").
		Find(&rows).Error
	return rows, err
}

func (d *DB) LogsByDateRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]model.Log, error) {
	var rows []model.Log
	err := d.gdb.WithContext(ctx).
		Where("user_id = ? AND created_at >= ? AND created_at <= ?", userID, from, to).
		Order("created_at desc").
		Find(&rows).Error
	return rows, err
}

func (d *DB) LogsByEventName(ctx context.Context, userID uuid.UUID, eventName string) ([]model.Log, error) {
	var rows []model.Log
	err := d.gdb.WithContext(ctx).
		Where("user_id = ? AND event_name = ?", userID, eventName).
		Order("created_at desc").
		Find(&rows).Error
	return rows, err
}

func (d *DB) InsertLog(ctx context.Context, l model.Log) (*model.Log, error) {
	if err := d.gdb.WithContext(ctx).Clauses(clause.Returning{}).Create(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (d *DB) UpdateLog(ctx context.Context, userID, id uuid.UUID, patch model.LogPatch) (*model.Log, error) {
	updates := map[string]any{"updated_at": time.Now()}
	if patch.Value != nil {
		updates["value"] = *patch.Value
	}
	if patch.LogDate != nil {
		updates["log_date"] = *patch.LogDate
	}
	if patch.EventID != nil {
		updates["event_id"] = *patch.EventID
	}
	if patch.EventName != nil {
		updates["event_name"] = *patch.EventName
	}
	res := d.gdb.WithContext(ctx).Model(&model.Log{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var row model.Log
	if err := d.gdb.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) DeleteLog(ctx context.Context, userID, id uuid.UUID) error {
	res := d.gdb.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.Log{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DB) RenameLogEvents(ctx context.Context, userID, eventID uuid.UUID, eventName string) error {
	return d.gdb.WithContext(ctx).Model(&model.Log{}).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		Updates(map[string]any{"event_name": eventName, "updated_at": time.Now()}).Error
}

// Notes

func (d *DB) ListNotes(ctx context.Context, userID uuid.UUID) ([]model.Note, error) {
	var rows []model.Note
	err := d.gdb.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&rows).Error
	return rows, err
}

func (d *DB) NotesByEvent(ctx context.Context, userID, eventID uuid.UUID) ([]model.Note, error) {
	var rows []model.Note
	err := d.gdb.WithContext(ctx).
		Where("user_id = ? AND event_id = ?", userID, eventID).
		Order("created_at desc").
		Find(&rows).Error
	return rows, err
}

func (d *DB) InsertNote(ctx context.Context, n model.Note) (*model.Note, error) {
	if err := d.gdb.WithContext(ctx).Clauses(clause.Returning{}).Create(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

func (d *DB) UpdateNote(ctx context.Context, userID, id uuid.UUID, patch model.NotePatch) (*model.Note, error) {
	updates := map[string]any{"updated_at": time.Now()}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.EventID != nil {
		updates["event_id"] = *patch.EventID
	}
	if patch.StartDate != nil {
		updates["start_date"] = *patch.StartDate
	}
	res := d.gdb.WithContext(ctx).Model(&model.Note{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var row model.Note
	if err := d.gdb.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) DeleteNote(ctx context.Context, userID, id uuid.UUID) error {
	res := d.gdb.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.Note{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
