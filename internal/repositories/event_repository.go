package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/opengram/backend/internal/models"
	"gorm.io/gorm"
)

// EventRepository is the append-only event log. Events are never updated;
// Delete exists solely for explicit reversals (e.g. unlike), and the caller
// is responsible for also removing dependent notifications.
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	FindByPerformerAndTarget(ctx context.Context, performerUserName, targetID string, eventType models.EventType) (*models.Event, error)
	Delete(ctx context.Context, id string) error
}

// PostgresEventRepository implements EventRepository for PostgreSQL
type PostgresEventRepository struct {
	db *gorm.DB
}

// NewPostgresEventRepository creates a new PostgresEventRepository
func NewPostgresEventRepository(db *gorm.DB) *PostgresEventRepository {
	return &PostgresEventRepository{db: db}
}

// Create appends the event, assigning it a fresh UUID. A reversed and
// re-performed action therefore always gets a new event identity.
func (r *PostgresEventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *PostgresEventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// FindByPerformerAndTarget locates the event of the given kind recorded for
// a (performer, target) pair, used to resolve reversals. The kind filter
// matters: a like and a mention on the same post share performer and target,
// and a reversal must never pick up the other kind's event.
func (r *PostgresEventRepository) FindByPerformerAndTarget(ctx context.Context, performerUserName, targetID string, eventType models.EventType) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).
		Where("performer_user_name = ? AND target_id = ? AND type = ?", performerUserName, targetID, eventType).
		Order("created_at DESC").
		First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *PostgresEventRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Event{}).Error
}
