package model

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// EventType selects how log values against an event are interpreted.
type EventType string

const (
	EventTypeCount  EventType = "count"  // every log counts as 1
	EventTypeScale  EventType = "scale"  // integer in [1, ScaleMax]
	EventTypeMetric EventType = "metric" // arbitrary decimal
)

// ChartType is the per-event chart rendering preference.
type ChartType string

const (
	ChartTypeLine ChartType = "line"
	ChartTypeBar  ChartType = "bar"
)

var (
	ErrNameRequired    = errors.New("event_name required")
	ErrInvalidType     = errors.New("invalid event_type")
	ErrScaleMaxMissing = errors.New("scale_max required for scale events")
	ErrScaleMaxRange   = errors.New("scale_max must be between 2 and 10")
	ErrValueOutOfRange = errors.New("value out of range for event type")
)

// Event is a trackable thing the user logs occurrences or values against.
type Event struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt  time.Time `gorm:"not null;default:now()" json:"created_at"`
	EventName  string    `gorm:"not null" json:"event_name"`
	EventType  EventType `gorm:"type:text;not null" json:"event_type"`
	ScaleLabel *string   `json:"scale_label,omitempty"`
	ScaleMax   *int      `json:"scale_max,omitempty"`
	Position   int       `gorm:"not null;default:0" json:"position"`
	Color      string    `gorm:"not null;default:'#000000'" json:"color"`
	UserID     uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
}

// Validate checks the invariants enforced before any backend write.
// ScaleLabel is meaningful only for scale and metric events; ScaleMax only
// for scale events, where it is mandatory.
func (e *Event) Validate() error {
	if e.EventName == "" {
		return ErrNameRequired
	}
	switch e.EventType {
	case EventTypeCount:
		if e.ScaleMax != nil || e.ScaleLabel != nil {
			return fmt.Errorf("%w: count events carry no scale fields", ErrInvalidType)
		}
	case EventTypeScale:
		if e.ScaleMax == nil {
			return ErrScaleMaxMissing
		}
		if *e.ScaleMax < 2 || *e.ScaleMax > 10 {
			return ErrScaleMaxRange
		}
	case EventTypeMetric:
		if e.ScaleMax != nil {
			return fmt.Errorf("%w: metric events carry no scale_max", ErrInvalidType)
		}
	default:
		return ErrInvalidType
	}
	return nil
}

// ValidateValue checks a log value against the event's type.
func (e *Event) ValidateValue(value float64) error {
	switch e.EventType {
	case EventTypeCount:
		if value != 1 {
			return fmt.Errorf("%w: count logs always have value 1", ErrValueOutOfRange)
		}
	case EventTypeScale:
		if e.ScaleMax == nil {
			return ErrScaleMaxMissing
		}
		if value != math.Trunc(value) || value < 1 || value > float64(*e.ScaleMax) {
			return fmt.Errorf("%w: scale value must be an integer in [1, %d]", ErrValueOutOfRange, *e.ScaleMax)
		}
	case EventTypeMetric:
		// any decimal
	default:
		return ErrInvalidType
	}
	return nil
}

// EventPatch is a partial update; nil fields are left untouched.
type EventPatch struct {
	EventName  *string    `json:"event_name,omitempty"`
	EventType  *EventType `json:"event_type,omitempty"`
	ScaleLabel *string    `json:"scale_label,omitempty"`
	ScaleMax   *int       `json:"scale_max,omitempty"`
	Position   *int       `json:"position,omitempty"`
	Color      *string    `json:"color,omitempty"`
}

// Log records one occurrence or measurement of an event.
// EventName is a denormalized snapshot of the parent event's name; display
// and name-based filtering rely on it, so event renames must backfill it.
type Log struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time       `gorm:"index;not null;default:now()" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;default:now()" json:"updated_at"`
	EventID   uuid.UUID       `gorm:"type:uuid;index;not null" json:"event_id"`
	EventName string          `gorm:"index;not null" json:"event_name"`
	Value     float64         `gorm:"not null" json:"value"`
	LogDate   *datatypes.Date `json:"log_date,omitempty"`
	UserID    uuid.UUID       `gorm:"type:uuid;index;not null" json:"user_id"`
}

// LogPatch is a partial update; nil fields are left untouched.
type LogPatch struct {
	Value     *float64        `json:"value,omitempty"`
	LogDate   *datatypes.Date `json:"log_date,omitempty"`
	EventID   *uuid.UUID      `json:"event_id,omitempty"`
	EventName *string         `json:"event_name,omitempty"`
}

// Note annotates an event's chart at a point in time.
type Note struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt   time.Time `gorm:"index;not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;default:now()" json:"updated_at"`
	Title       string    `gorm:"not null" json:"title"`
	Description *string   `json:"description,omitempty"`
	EventID     uuid.UUID `gorm:"type:uuid;index;not null" json:"event_id"`
	StartDate   time.Time `gorm:"not null" json:"start_date"`
	UserID      uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
}

// NotePatch is a partial update; nil fields are left untouched.
type NotePatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	EventID     *uuid.UUID `json:"event_id,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
}

// User is an account row in the backend's users table.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `gorm:"not null;default:now()" json:"created_at"`
}
